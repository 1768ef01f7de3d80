package store

import (
	"crypto/sha256"
	"fmt"
	"sort"
	"strings"
)

// HashContents returns the hex sha256 of a file's contents.
func HashContents(src []byte) string {
	return fmt.Sprintf("%x", sha256.Sum256(src))
}

// ComputeTypeHash computes a deterministic hash from a descriptor's semantic
// content: identity, kind, output flag, members, inheritance and generics.
// Ordinal and row IDs do NOT affect the hash, so the emission stage can tell
// which descriptors changed between two resolution passes.
func ComputeTypeHash(rec *TypeRecord) string {
	h := sha256.New()

	t := rec.Type
	fmt.Fprintf(h, "fqn:%s\n", t.FullyQualifiedName)
	fmt.Fprintf(h, "identity:%s\n", t.Identity)
	fmt.Fprintf(h, "kind:%s\n", t.Kind)
	fmt.Fprintf(h, "mock:%v\n", t.ShouldMock)

	attrs := sortedCopy(t.Attributes)
	fmt.Fprintf(h, "attributes:%s\n", strings.Join(attrs, ","))

	methods := make([]string, len(rec.Methods))
	for i, m := range rec.Methods {
		methods[i] = fmt.Sprintf("%s:%d", m.Signature, m.Overloads)
	}
	sort.Strings(methods)
	for _, m := range methods {
		fmt.Fprintf(h, "method:%s\n", m)
	}

	vars := make([]string, len(rec.Variables))
	for i, v := range rec.Variables {
		vars[i] = v.Signature
	}
	sort.Strings(vars)
	for _, v := range vars {
		fmt.Fprintf(h, "var:%s\n", v)
	}

	inherited := make([]string, len(rec.Inherited))
	for i, it := range rec.Inherited {
		inherited[i] = it.Relation + ":" + it.FullyQualifiedName
	}
	sort.Strings(inherited)
	for _, it := range inherited {
		fmt.Fprintf(h, "inherits:%s\n", it)
	}

	// Generics and where-clauses keep declaration order; it is part of the
	// emitted signature.
	for _, g := range rec.Generics {
		fmt.Fprintf(h, "generic:%s:[%s]\n", g.Name, strings.Join(g.Constraints, ","))
	}
	for _, w := range rec.WhereClauses {
		fmt.Fprintf(h, "where:%s\n", w.Clause)
	}
	for _, d := range rec.Directives {
		fmt.Fprintf(h, "directive:%s\n", d.Condition)
	}

	return fmt.Sprintf("%x", h.Sum(nil))
}

func sortedCopy(list []string) []string {
	sorted := make([]string, len(list))
	copy(sorted, list)
	sort.Strings(sorted)
	return sorted
}
