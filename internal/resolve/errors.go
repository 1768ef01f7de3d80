package resolve

import (
	"errors"
	"strings"
)

var (
	// ErrInheritanceCycle is returned when a type inherits from itself,
	// directly or transitively.
	ErrInheritanceCycle = errors.New("inheritance cycle")

	// ErrDuplicateIdentity is returned when two output-bound types share an
	// identity key.
	ErrDuplicateIdentity = errors.New("duplicate identity")
)

// CycleError reports the types forming an inheritance cycle. The first and
// last entries of Path are the same type.
type CycleError struct {
	Path []string
}

func (e *CycleError) Error() string {
	return "resolve: " + ErrInheritanceCycle.Error() + ": " + strings.Join(e.Path, " -> ")
}

func (e *CycleError) Unwrap() error {
	return ErrInheritanceCycle
}
