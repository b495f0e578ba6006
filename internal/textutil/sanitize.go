package textutil

import (
	"fmt"
	"strings"
)

// fileNameReplacer replaces filesystem-unsafe characters with safe alternatives.
var fileNameReplacer = strings.NewReplacer(
	"/", "-",
	"\\", "-",
	":", "-",
	"*", "-",
	"?", "",
	"\"", "",
	"<", "",
	">", "",
	"|", "",
)

// SanitizeFileName replaces filesystem-unsafe characters in a filename.
// Slashes, backslashes, colons, and asterisks become dashes; other unsafe
// characters are removed. The result is trimmed of leading/trailing whitespace.
func SanitizeFileName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}
	return strings.TrimSpace(fileNameReplacer.Replace(name))
}

// ValidateRenameTarget checks a requested target name and returns it
// sanitized. Names that sanitize to nothing or to a dot entry are rejected.
func ValidateRenameTarget(name string) (string, error) {
	clean := SanitizeFileName(name)
	switch clean {
	case "", ".", "..":
		return "", fmt.Errorf("invalid rename target %q", name)
	}
	return clean, nil
}
