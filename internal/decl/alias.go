package decl

import (
	"fmt"
	"sort"
)

// MaxAliasDepth bounds how many typealias hops Canonicalize follows.
const MaxAliasDepth = 32

type alias struct {
	target string
	scope  Scope
}

// AliasRepository maps fully-qualified typealias names to their targets.
// Like Repository it is read-only once populated.
type AliasRepository struct {
	knownModules []string
	aliases      map[string]alias
}

func NewAliasRepository(knownModules []string) *AliasRepository {
	return &AliasRepository{
		knownModules: append([]string(nil), knownModules...),
		aliases:      make(map[string]alias),
	}
}

// Register records an alias. The target is resolved from scope when
// followed. A later registration for the same name wins.
func (a *AliasRepository) Register(fqn, target string, scope Scope) {
	a.aliases[fqn] = alias{target: target, scope: scope}
}

// RegisterDeclaration records a typealias declaration. Declarations of other
// kinds and aliases without a target are ignored.
func (a *AliasRepository) RegisterDeclaration(d *Declaration) {
	if d.Kind != KindTypealias || d.TypeName == "" {
		return
	}
	a.Register(d.FullyQualifiedName(), d.TypeName, d.Scope())
}

// Len returns the number of registered aliases.
func (a *AliasRepository) Len() int {
	return len(a.aliases)
}

// Names returns every registered alias name, sorted.
func (a *AliasRepository) Names() []string {
	out := make([]string, 0, len(a.aliases))
	for n := range a.aliases {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

func (a *AliasRepository) lookup(ref Reference) (string, alias, bool) {
	for _, c := range Candidates(ref.Name, ref.Scope, a.knownModules) {
		if al, ok := a.aliases[c]; ok {
			return c, al, true
		}
	}
	return "", alias{}, false
}

// Canonicalize follows the alias chain starting at ref and returns the
// terminal name with the scope it must be resolved in. Names that are not
// aliases come back unchanged. On a cycle the original reference is
// returned together with an error wrapping ErrAliasCycle, so callers can
// keep going with the unresolved name.
func (a *AliasRepository) Canonicalize(ref Reference) (Reference, error) {
	cur := ref
	visited := make(map[string]bool)
	for depth := 0; ; depth++ {
		fqn, al, ok := a.lookup(cur)
		if !ok {
			return cur, nil
		}
		if visited[fqn] || depth >= MaxAliasDepth {
			return ref, fmt.Errorf("decl: canonicalize %s: %w", ref.Name, ErrAliasCycle)
		}
		visited[fqn] = true
		cur = Reference{Name: al.target, Scope: al.scope}
	}
}
