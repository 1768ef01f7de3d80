package decl

import "errors"

var (
	// ErrAmbiguousBase is returned when a declaration group has more than
	// one non-extension declaration.
	ErrAmbiguousBase = errors.New("ambiguous base declaration")

	// ErrMissingBase is returned for groups made only of extensions.
	ErrMissingBase = errors.New("missing base declaration")

	// ErrAliasCycle is returned when a typealias chain loops or exceeds
	// MaxAliasDepth.
	ErrAliasCycle = errors.New("alias cycle detected")
)
