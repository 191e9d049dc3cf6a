package docstore

import (
	"crypto/sha256"
	"encoding/hex"
	"path/filepath"
	"strings"

	"golang.org/x/crypto/pbkdf2"
)

func isNameChar(c rune) bool {
	switch {
	case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		return true
	case c == '\'' || c == ' ' || c == '-':
		return true
	}
	return false
}

// Sanitize removes all characters from name except ASCII letters,
// digits, apostrophe, space and hyphen. The result can be empty,
// which is a valid collection name.
func Sanitize(name string) string {
	return strings.Map(func(c rune) rune {
		if isNameChar(c) {
			return c
		}
		return -1
	}, name)
}

// ID returns a stable, filesystem-safe identifier of a collection
func (db *DB) ID(name string) string {
	c := &db.config
	d := pbkdf2.Key([]byte(Sanitize(name)), []byte(c.Secret), c.Iterations, c.IDBytes, sha256.New)
	return hex.EncodeToString(d)
}

func (db *DB) fileName(name string) string {
	name = Sanitize(name)
	return db.ID(name) + "-" + name + db.config.Ext
}

// Path returns path of the file backing a collection
func (db *DB) Path(name string) string {
	return filepath.Join(db.config.Dir, db.fileName(name))
}

func metaPath(path string) string {
	return path + "info"
}

// parseFileName is the reverse of fileName. Returns false if fileName
// doesn't look like a collection file.
func (db *DB) parseFileName(fileName string) (id string, name string, ok bool) {
	base, ok := strings.CutSuffix(fileName, db.config.Ext)
	if !ok {
		return "", "", false
	}
	// id is hex so the first '-' separates it from the name,
	// which can contain '-'
	id, name, ok = strings.Cut(base, "-")
	if !ok || len(id) != db.config.IDBytes*2 {
		return "", "", false
	}
	if _, err := hex.DecodeString(id); err != nil {
		return "", "", false
	}
	if Sanitize(name) != name {
		return "", "", false
	}
	return id, name, true
}
