package util

import (
	"errors"
	"strings"
	"unicode"
)

// ErrInvalidFileName is returned for names that could escape a directory.
var ErrInvalidFileName = errors.New("invalid file name")

// CheckFileName accepts a bare file name: no separators, no traversal,
// no control characters and no leading dot.
func CheckFileName(name string) error {
	if strings.TrimSpace(name) != name || name == "" {
		return ErrInvalidFileName
	}
	if strings.Contains(name, "..") || strings.ContainsAny(name, `/\`) || strings.HasPrefix(name, ".") {
		return ErrInvalidFileName
	}
	for _, r := range name {
		if unicode.IsControl(r) {
			return ErrInvalidFileName
		}
	}
	return nil
}
