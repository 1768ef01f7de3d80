package resolve

import (
	"sort"
	"strings"

	"github.com/jward/mockgraph/internal/constraint"
	"github.com/jward/mockgraph/internal/decl"
)

// GenericType is a normalized generic parameter or associated type.
// Constraints are fully qualified, sorted and free of duplicates.
type GenericType struct {
	Name         string
	Constraints  []string
	WhereClauses []constraint.WhereClause
}

// Key is the canonical text of the parameter used in identity keys.
func (g GenericType) Key() string {
	return g.Name + ":[" + strings.Join(g.Constraints, ", ") + "]"
}

func (g GenericType) String() string {
	if len(g.Constraints) == 0 {
		return g.Name
	}
	return g.Name + ": " + strings.Join(g.Constraints, " & ")
}

// resolveGenericType builds the descriptor for a generic parameter or
// associated type declaration. Associated types carry their bound and where
// clause only in source text, so that text is parsed here.
func resolveGenericType(d *decl.Declaration, q qualifier) (GenericType, bool) {
	if d.Kind != decl.KindGenericTypeParam && d.Kind != decl.KindAssociatedType {
		return GenericType{}, false
	}
	g := GenericType{Name: d.Name}
	bounds := append([]string(nil), d.InheritedTypes...)

	if d.Kind == decl.KindAssociatedType {
		before, clauses, ok := constraint.SplitWhere(d.NameSuffixUpToBody())
		if eq := constraint.IndexTopLevel(before, "="); eq >= 0 {
			before = before[:eq]
		}
		if bound, found := strings.CutPrefix(strings.TrimSpace(before), ":"); found {
			bounds = append(bounds, constraint.SplitTopLevel(bound, ',')...)
		}
		if ok {
			for _, w := range constraint.ParseWhereClauses(clauses) {
				g.WhereClauses = append(g.WhereClauses, q.whereClause(w))
			}
		}
	}

	g.Constraints = normalizeConstraints(bounds, q)
	return g, true
}

func normalizeConstraints(bounds []string, q qualifier) []string {
	seen := make(map[string]bool)
	var out []string
	for _, b := range bounds {
		for _, part := range constraint.SplitTopLevel(b, '&') {
			for _, c := range constraint.SplitTopLevel(q.expr(part), '&') {
				if !seen[c] {
					seen[c] = true
					out = append(out, c)
				}
			}
		}
	}
	sort.Strings(out)
	return out
}

// splitTopLevelWhere parses the where clause trailing a type's header.
// Clauses constraining Self are not kept: `Self: P` names are returned as
// self-conformance references instead, and other Self clauses must be
// expressed through the inheritance list. Clauses are returned unqualified.
func splitTopLevelWhere(base *decl.Declaration) (clauses []constraint.WhereClause, selfConformance []string) {
	_, text, ok := constraint.SplitWhere(base.NameSuffixUpToBody())
	if !ok {
		return nil, nil
	}
	for _, w := range constraint.ParseWhereClauses(text) {
		if constraint.HeadComponent(w.ConstrainedName) == "Self" {
			if w.ConstrainedName == "Self" && w.Relation == constraint.Conforms {
				selfConformance = append(selfConformance, constraint.SplitTopLevel(w.OtherName, '&')...)
			}
			continue
		}
		clauses = append(clauses, w)
	}
	return clauses, selfConformance
}

// appendGenerics appends generic types not already present by key.
func appendGenerics(dst []GenericType, src ...GenericType) []GenericType {
	for _, g := range src {
		dup := false
		for _, have := range dst {
			if have.Key() == g.Key() {
				dup = true
				break
			}
		}
		if !dup {
			dst = append(dst, g)
		}
	}
	return dst
}

// appendWhereClauses appends clauses not already present.
func appendWhereClauses(dst []constraint.WhereClause, src ...constraint.WhereClause) []constraint.WhereClause {
	for _, w := range src {
		dup := false
		for _, have := range dst {
			if have == w {
				dup = true
				break
			}
		}
		if !dup {
			dst = append(dst, w)
		}
	}
	return dst
}
