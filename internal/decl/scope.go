package decl

import (
	"strings"

	"github.com/jward/mockgraph/internal/constraint"
)

// Scope is the context a type reference is resolved in.
type Scope struct {
	Module              string
	ContainingTypeNames []string
	Imports             []string
}

// Reference is a type name together with the scope it was written in.
type Reference struct {
	Name  string
	Scope Scope
}

// Candidates returns the fully-qualified names a reference may denote, in
// precedence order: innermost containing type first, then the current
// module, then imported modules, then the name taken as already qualified,
// then every known module.
func Candidates(name string, scope Scope, knownModules []string) []string {
	n := constraint.RemoveGenericTyping(name)
	if n == "" {
		return nil
	}
	var out []string
	seen := make(map[string]bool)
	add := func(c string) {
		if !seen[c] {
			seen[c] = true
			out = append(out, c)
		}
	}
	if scope.Module != "" {
		for i := len(scope.ContainingTypeNames); i > 0; i-- {
			add(scope.Module + "." + strings.Join(scope.ContainingTypeNames[:i], ".") + "." + n)
		}
		add(scope.Module + "." + n)
	}
	for _, imp := range scope.Imports {
		add(imp + "." + n)
	}
	add(n)
	for _, m := range knownModules {
		add(m + "." + n)
	}
	return out
}
