package shelf

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound matches any NotFoundError.
	ErrNotFound = errors.New("not found")
	// ErrDuplicateInOtherShelf matches any DuplicateInOtherShelfError.
	ErrDuplicateInOtherShelf = errors.New("already on another shelf")
	// ErrValidation matches any ValidationError.
	ErrValidation = errors.New("validation failed")
)

// NotFoundError reports an operation on a record absent from the expected shelf.
type NotFoundError struct {
	ID    string
	Shelf Name
}

func (e *NotFoundError) Error() string {
	if e.Shelf == "" {
		return fmt.Sprintf("book %q: %v", e.ID, ErrNotFound)
	}
	return fmt.Sprintf("book %q on shelf %s: %v", e.ID, e.Shelf, ErrNotFound)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// DuplicateInOtherShelfError reports an add for a record that lives elsewhere.
// Callers move the record instead.
type DuplicateInOtherShelfError struct {
	ID    string
	Shelf Name
}

func (e *DuplicateInOtherShelfError) Error() string {
	return fmt.Sprintf("book %q is %v (%s)", e.ID, ErrDuplicateInOtherShelf, e.Shelf)
}

func (e *DuplicateInOtherShelfError) Is(target error) bool { return target == ErrDuplicateInOtherShelf }

// ValidationError reports malformed input to a public operation.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }
