package util

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Normalize applies NFKD unicode normalization so that visually
// equivalent inputs compare and hash identically.
func Normalize(s string) string {
	return norm.NFKD.String(s)
}

// forbiddenNameChars are characters that cannot appear in archive folder
// names on common filesystems.
const forbiddenNameChars = `<>:"/\|?*`

// SafeName converts an arbitrary display name into a filesystem-safe
// folder name: NFKD-normalized, forbidden characters and whitespace
// replaced with underscores.
func SafeName(name string) string {
	name = strings.TrimSpace(Normalize(name))
	var sb strings.Builder
	sb.Grow(len(name))
	for _, r := range name {
		switch {
		case strings.ContainsRune(forbiddenNameChars, r):
			sb.WriteRune('_')
		case r == ' ' || r == '\t' || r == '\n' || r == '\r':
			sb.WriteRune('_')
		default:
			sb.WriteRune(r)
		}
	}
	return sb.String()
}
