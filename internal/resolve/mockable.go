package resolve

import (
	"strings"

	"github.com/jward/mockgraph/internal/constraint"
	"github.com/jward/mockgraph/internal/decl"
)

// MockableType is the fully resolved descriptor of one class or protocol.
// It is built once and never mutated afterwards; descriptors reached through
// InheritedTypes and SelfConformanceTypes are shared, not copied.
type MockableType struct {
	Name               string // containing-type qualified, without module
	ModuleName         string
	FullyQualifiedName string
	Kind               decl.Kind

	Methods      []Method
	Variables    []Variable
	MethodCounts map[ReducedMethod]int

	InheritedTypes       []*MockableType
	SelfConformanceTypes []*MockableType

	GenericTypes []GenericType
	WhereClauses []constraint.WhereClause

	// ShouldMock is false for types resolved only to flatten their
	// subtypes, such as supertypes from dependency modules.
	ShouldMock bool

	Attributes            decl.Attributes
	CompilationDirectives []decl.CompilationDirective

	IsContainedType        bool
	SubclassesExternalType bool
	HasOpaqueInheritedType bool

	identity string
}

// Identity is the key used for equality and total ordering. Types slated
// for output are keyed by name, generic signature, where clauses and module
// so that distinct instantiations of one declaration stay distinct and
// same-named types from different mocked modules do not collide. Other
// types are keyed by name alone.
func (t *MockableType) Identity() string {
	return t.identity
}

// MethodCount returns how many methods share m's reduced form. A count above
// one means the overloads must be disambiguated when emitted.
func (t *MockableType) MethodCount(m Method) int {
	return t.MethodCounts[m.Reduced()]
}

// HasMethod reports whether a method with the given signature is part of
// the flattened surface.
func (t *MockableType) HasMethod(signature string) bool {
	for _, m := range t.Methods {
		if m.Signature() == signature {
			return true
		}
	}
	return false
}

// MethodNames returns the selectors of every method, in signature order.
func (t *MockableType) MethodNames() []string {
	out := make([]string, len(t.Methods))
	for i, m := range t.Methods {
		out[i] = m.Name
	}
	return out
}

// VariableNames returns the names of every property, in signature order.
func (t *MockableType) VariableNames() []string {
	out := make([]string, len(t.Variables))
	for i, v := range t.Variables {
		out[i] = v.Name
	}
	return out
}

func (t *MockableType) String() string {
	return t.FullyQualifiedName
}

func computeIdentity(name, module string, shouldMock bool, generics []GenericType, clauses []constraint.WhereClause) string {
	if !shouldMock {
		return name
	}
	gs := make([]string, len(generics))
	for i, g := range generics {
		gs[i] = g.Key()
	}
	ws := make([]string, len(clauses))
	for i, w := range clauses {
		ws[i] = w.String()
	}
	return strings.Join([]string{name, strings.Join(gs, ","), strings.Join(ws, ","), module}, "|")
}

func countMethods(methods []Method) map[ReducedMethod]int {
	counts := make(map[ReducedMethod]int, len(methods))
	for _, m := range methods {
		counts[m.Reduced()]++
	}
	return counts
}
