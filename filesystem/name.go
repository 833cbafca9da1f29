package filesystem

import (
	"strings"

	"github.com/brettbedarf/simfs"
)

// reservedChars may not appear anywhere in a node name
const reservedChars = `\/:*?"<>|&`

// ValidateName reports simfs.ErrInvalidName for empty names, the relative
// markers "." and "..", and names containing a reserved character.
func ValidateName(name string) error {
	if name == "" || name == "." || name == ".." {
		return simfs.ErrInvalidName
	}
	if strings.ContainsAny(name, reservedChars) {
		return simfs.ErrInvalidName
	}
	return nil
}

// Extension returns the part of a file name after its last dot, or "" when
// the name has no dot or the last dot is its first or last character.
func Extension(name string) string {
	i := strings.LastIndexByte(name, '.')
	if i <= 0 || i == len(name)-1 {
		return ""
	}
	return name[i+1:]
}
