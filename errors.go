package persist

import (
	"errors"
	"fmt"
	"reflect"
)

var (
	ErrInvalidName  = errors.New("persist: invalid name")
	ErrTypeMismatch = errors.New("persist: type mismatch")
	ErrLoad         = errors.New("persist: load failed")
	ErrSave         = errors.New("persist: save failed")
)

// TypeMismatchError reports a name reused with a different type than the one
// it was first loaded as.
type TypeMismatchError struct {
	Name      string
	Stored    reflect.Type
	Requested reflect.Type
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("persist: %q holds %s, requested %s", e.Name, e.Stored, e.Requested)
}

func (e *TypeMismatchError) Is(target error) bool { return target == ErrTypeMismatch }

// LoadError reports a record that exists but could not be read or decoded.
type LoadError struct {
	Name string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("persist: load %q: %v", e.Name, e.Err)
}

func (e *LoadError) Unwrap() error        { return e.Err }
func (e *LoadError) Is(target error) bool { return target == ErrLoad }

// SaveError reports a record that could not be encoded or written.
type SaveError struct {
	Name string
	Err  error
}

func (e *SaveError) Error() string {
	return fmt.Sprintf("persist: save %q: %v", e.Name, e.Err)
}

func (e *SaveError) Unwrap() error        { return e.Err }
func (e *SaveError) Is(target error) bool { return target == ErrSave }
