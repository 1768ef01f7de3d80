package mockgraph

import (
	"github.com/jward/mockgraph/internal/resolve"
	"github.com/jward/mockgraph/internal/store"
)

// Public type aliases for the internal types used in the Engine API.
// These are Go type aliases (=) so external consumers need no conversion.

type Store = store.Store
type MockableType = resolve.MockableType
type Method = resolve.Method
type Variable = resolve.Variable
type GenericType = resolve.GenericType
type Skip = resolve.Skip

// toRecord flattens a resolved descriptor into its persisted rows.
func toRecord(t *MockableType) *store.TypeRecord {
	rec := &store.TypeRecord{
		Type: store.MockableType{
			Name:                   t.Name,
			Module:                 t.ModuleName,
			FullyQualifiedName:     t.FullyQualifiedName,
			Kind:                   t.Kind.String(),
			Identity:               t.Identity(),
			ShouldMock:             t.ShouldMock,
			Attributes:             t.Attributes.Names(),
			IsContainedType:        t.IsContainedType,
			SubclassesExternalType: t.SubclassesExternalType,
			HasOpaqueInheritedType: t.HasOpaqueInheritedType,
		},
	}
	for _, m := range t.Methods {
		rec.Methods = append(rec.Methods, store.Method{
			Name:       m.Name,
			ShortName:  m.ShortName,
			Kind:       m.Kind.String(),
			Signature:  m.Signature(),
			ReturnType: m.ReturnTypeName,
			Attributes: m.Attributes.Names(),
			Overloads:  t.MethodCount(m),
		})
	}
	for _, v := range t.Variables {
		rec.Variables = append(rec.Variables, store.Variable{
			Name:      v.Name,
			Kind:      v.Kind.String(),
			TypeName:  v.TypeName,
			Settable:  v.Settable,
			Signature: v.Signature(),
		})
	}
	for _, it := range t.InheritedTypes {
		rec.Inherited = append(rec.Inherited, store.InheritedType{
			FullyQualifiedName: it.FullyQualifiedName,
			Relation:           store.RelationInherits,
		})
	}
	for _, sc := range t.SelfConformanceTypes {
		rec.Inherited = append(rec.Inherited, store.InheritedType{
			FullyQualifiedName: sc.FullyQualifiedName,
			Relation:           store.RelationSelfConformance,
		})
	}
	for _, g := range t.GenericTypes {
		rec.Generics = append(rec.Generics, store.GenericType{Name: g.Name, Constraints: g.Constraints})
	}
	for _, w := range t.WhereClauses {
		rec.WhereClauses = append(rec.WhereClauses, store.WhereClause{Clause: w.String()})
	}
	for _, d := range t.CompilationDirectives {
		rec.Directives = append(rec.Directives, store.Directive{Condition: d.Condition})
	}
	return rec
}
