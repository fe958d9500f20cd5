package storage

import (
	"fmt"
	"regexp"
)

var identifierPattern = regexp.MustCompile(`^[a-zA-Z0-9-]*$`)

// ValidateIdentifier reports whether id can be used as a story or document key.
// Keys end up in file names, so only letters, digits and hyphens are accepted.
func ValidateIdentifier(kind string, id string) error {
	if id == "" {
		return fmt.Errorf("%s id must be set", kind)
	}
	if !identifierPattern.MatchString(id) {
		return fmt.Errorf("%s id %q must be alphanumeric", kind, id)
	}
	return nil
}
