package u

import (
	"fmt"
	"strings"
)

var sizeSuffixes = []string{"KiB", "MiB", "GiB", "TiB"}

// FormatSize formats a number of bytes in a human-readable form
// using binary prefixes e.g. 1.24 KiB, 3 MiB, 512 B
func FormatSize(n int64) string {
	if n < 1024 && n > -1024 {
		return fmt.Sprintf("%d B", n)
	}
	v := float64(n)
	suffix := ""
	for _, suffix = range sizeSuffixes {
		v /= 1024
		if v < 1024 && v > -1024 {
			break
		}
	}
	s := fmt.Sprintf("%.2f", v)
	s = strings.TrimSuffix(s, ".00")
	return s + " " + suffix
}
