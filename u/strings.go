package u

import (
	"fmt"
	"os"
	"strings"
)

// NormalizeNewlinesInPlace changes CRLF (Windows) and
// CR (Mac) to LF (Unix)
// Optimized for speed, modifies data in place
func NormalizeNewlinesInPlace(d []byte) []byte {
	wi := 0
	n := len(d)
	for i := 0; i < n; i++ {
		c := d[i]
		// 13 is CR
		if c != 13 {
			d[wi] = c
			wi++
			continue
		}
		// replace CR (mac / win) with LF (unix)
		d[wi] = 10
		wi++
		if i < n-1 && d[i+1] == 10 {
			// this was CRLF, so skip the LF
			i++
		}
	}
	return d[:wi]
}

// NormalizeNewlines is like NormalizeNewlinesInPlace but
// slower because it makes a copy of data
func NormalizeNewlines(d []byte) []byte {
	d = append([]byte{}, d...)
	return NormalizeNewlinesInPlace(d)
}

// ExpandTildeInPath replaces leading ~ with user's home directory
func ExpandTildeInPath(s string) (string, error) {
	if !strings.HasPrefix(s, "~") {
		return s, nil
	}
	dir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return dir + s[1:], nil
}

// ParseEnv parses .env style content i.e. KEY=VALUE lines.
// Empty lines and lines starting with # are skipped.
// Values can be optionally quoted with " or '
func ParseEnv(d []byte) (map[string]string, error) {
	d = NormalizeNewlines(d)
	lines := strings.Split(string(d), "\n")
	m := make(map[string]string)
	for i, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, val, ok := strings.Cut(line, "=")
		if !ok {
			return nil, fmt.Errorf("invalid line %d '%s' in .env", i+1, line)
		}
		key = strings.TrimSpace(key)
		if key == "" {
			return nil, fmt.Errorf("empty key in line %d '%s' in .env", i+1, line)
		}
		val = strings.TrimSpace(val)
		if len(val) >= 2 {
			if (val[0] == '"' && val[len(val)-1] == '"') || (val[0] == '\'' && val[len(val)-1] == '\'') {
				val = val[1 : len(val)-1]
			}
		}
		m[key] = val
	}
	return m, nil
}

// ReadEnvFile reads and parses .env file
func ReadEnvFile(path string) (map[string]string, error) {
	d, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseEnv(d)
}
