package persist

import (
	"fmt"
	"reflect"
	"strings"
)

// NameOf returns the default cache name for T: its Go type name.
func NameOf[T any]() (string, error) {
	t := reflect.TypeFor[T]()
	if t.Name() == "" {
		return "", fmt.Errorf("%w: type %s has no name", ErrInvalidName, t)
	}
	return t.Name(), nil
}

// ValidateName reports whether name can address a record. Names are
// slash-separated relative paths; empty, "." and ".." segments are rejected.
func ValidateName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidName)
	}
	if strings.ContainsAny(name, "\\\x00") {
		return fmt.Errorf("%w: %q contains a reserved character", ErrInvalidName, name)
	}
	if strings.HasPrefix(name, "/") {
		return fmt.Errorf("%w: %q is absolute", ErrInvalidName, name)
	}
	for _, part := range strings.Split(name, "/") {
		switch part {
		case "", ".", "..":
			return fmt.Errorf("%w: %q has an invalid segment", ErrInvalidName, name)
		}
	}
	return nil
}
