package resolve

import (
	"strings"

	"github.com/jward/mockgraph/internal/constraint"
	"github.com/jward/mockgraph/internal/decl"
)

// qualifier rewrites type names written in one scope to the fully-qualified
// names of the groups they denote, looking through typealiases. Generic
// parameter names, associated type names and Self are left alone, as is
// anything that does not resolve.
type qualifier struct {
	idx     *decl.Index
	scope   decl.Scope
	generic map[string]bool
}

func newQualifier(idx *decl.Index, scope decl.Scope, generic map[string]bool) qualifier {
	return qualifier{idx: idx, scope: scope, generic: generic}
}

// with returns a qualifier that additionally leaves names alone.
func (q qualifier) with(names []string) qualifier {
	if len(names) == 0 {
		return q
	}
	generic := make(map[string]bool, len(q.generic)+len(names))
	for n := range q.generic {
		generic[n] = true
	}
	for _, n := range names {
		generic[n] = true
	}
	q.generic = generic
	return q
}

func (q qualifier) path(p string) string {
	return q.pathDepth(p, 0)
}

// pathDepth qualifies p, expanding aliases whose target is a bare type name
// or a composition of bare type names. Targets with generic arguments or
// sugar are left as the alias name.
func (q qualifier) pathDepth(p string, depth int) string {
	if q.generic[constraint.HeadComponent(p)] {
		return p
	}
	ref, err := q.idx.Aliases.Canonicalize(decl.Reference{Name: p, Scope: q.scope})
	if g := q.idx.Types.ResolveReference(ref.Name, ref.Scope); g != nil {
		return g.FullyQualifiedName
	}
	if err != nil || ref.Name == p || depth >= decl.MaxAliasDepth {
		return p
	}
	parts := constraint.SplitTopLevel(ref.Name, '&')
	for _, part := range parts {
		if !constraint.IsTypePath(part) {
			return p
		}
	}
	target := newQualifier(q.idx, ref.Scope, nil)
	for i, part := range parts {
		parts[i] = target.pathDepth(part, depth+1)
	}
	return strings.Join(parts, " & ")
}

func (q qualifier) expr(e string) string {
	return constraint.QualifyTypeExpr(e, q.path)
}

func (q qualifier) whereClause(w constraint.WhereClause) constraint.WhereClause {
	return constraint.WhereClause{
		ConstrainedName: q.expr(w.ConstrainedName),
		Relation:        w.Relation,
		OtherName:       q.expr(w.OtherName),
	}
}

// genericNames collects the generic parameter and associated type names
// declared directly inside d.
func genericNames(d *decl.Declaration) []string {
	var names []string
	for _, sub := range d.Substructure {
		if sub.Kind == decl.KindGenericTypeParam || sub.Kind == decl.KindAssociatedType {
			names = append(names, sub.Name)
		}
	}
	return names
}
