package resolve

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jward/mockgraph/internal/decl"
)

// =============================================================================
// Declaration fixtures
// =============================================================================

var keywords = map[decl.Kind]string{
	decl.KindClass:     "class",
	decl.KindStruct:    "struct",
	decl.KindEnum:      "enum",
	decl.KindProtocol:  "protocol",
	decl.KindExtension: "extension",
}

func newFile(module string, mock bool, imports ...string) *decl.File {
	return &decl.File{Path: module + ".swift", Module: module, ShouldMock: mock, Imports: imports}
}

// appendSource writes text to the file and returns its offset.
func appendSource(f *decl.File, text string) int {
	start := len(f.Contents)
	f.Contents = append(f.Contents, text...)
	f.Contents = append(f.Contents, '\n')
	return start
}

// addType declares a top-level type. suffix is the header text between the
// name and the body, e.g. "<T: Equatable>: Base where T: Hashable".
func addType(f *decl.File, kind decl.Kind, name, suffix string, inherited ...string) *decl.Declaration {
	header := keywords[kind] + " " + name + suffix + " "
	start := appendSource(f, header+"{}")
	d := &decl.Declaration{
		Kind:           kind,
		Name:           name,
		InheritedTypes: inherited,
		Access:         decl.AccessInternal,
		Offset:         start,
		Length:         len(header) + 2,
		NameOffset:     start + len(keywords[kind]) + 1,
		NameLength:     len(name),
		BodyOffset:     start + len(header),
		BodyLength:     2,
		File:           f,
	}
	f.Declarations = append(f.Declarations, d)
	return d
}

type param struct {
	name, typeName string
}

// addMethod declares a member function. suffix is appended to the header
// text, so it can carry a where clause.
func addMethod(owner *decl.Declaration, kind decl.Kind, selector, returnType, suffix string, params ...param) *decl.Declaration {
	f := owner.File
	text := "func " + selector + suffix
	start := appendSource(f, text)
	m := &decl.Declaration{
		Kind:     kind,
		Name:     selector,
		TypeName: returnType,
		Access:   decl.AccessInternal,
		Offset:   start,
		Length:   len(text),
		File:     f,
	}
	for _, p := range params {
		m.Substructure = append(m.Substructure, &decl.Declaration{
			Kind: decl.KindParameter, Name: p.name, TypeName: p.typeName, File: f,
		})
	}
	owner.Substructure = append(owner.Substructure, m)
	return m
}

func addFunc(owner *decl.Declaration, selector string, params ...param) *decl.Declaration {
	return addMethod(owner, decl.KindMethodInstance, selector, "", "", params...)
}

func addVar(owner *decl.Declaration, kind decl.Kind, name, typeName string, settable bool) *decl.Declaration {
	v := &decl.Declaration{Kind: kind, Name: name, TypeName: typeName, Settable: settable, Access: decl.AccessInternal, File: owner.File}
	owner.Substructure = append(owner.Substructure, v)
	return v
}

// addGeneric declares a generic parameter on a type or method.
func addGeneric(owner *decl.Declaration, name string, bounds ...string) {
	owner.Substructure = append(owner.Substructure, &decl.Declaration{
		Kind: decl.KindGenericTypeParam, Name: name, InheritedTypes: bounds, File: owner.File,
	})
}

// addAssociatedType declares an associated type from its full source text.
func addAssociatedType(owner *decl.Declaration, name, text string) {
	f := owner.File
	start := appendSource(f, text)
	owner.Substructure = append(owner.Substructure, &decl.Declaration{
		Kind:       decl.KindAssociatedType,
		Name:       name,
		Offset:     start,
		Length:     len(text),
		NameOffset: start + len("associatedtype "),
		NameLength: len(name),
		File:       f,
	})
}

// =============================================================================
// Build helpers
// =============================================================================

func build(t *testing.T, files []*decl.File, opts ...Option) *Graph {
	t.Helper()
	g, err := NewBuilder(decl.Populate(files, nil), opts...).Build(context.Background())
	require.NoError(t, err)
	return g
}

func typeByFQN(t *testing.T, g *Graph, fqn string) *MockableType {
	t.Helper()
	for _, mt := range g.Types {
		if mt.FullyQualifiedName == fqn {
			return mt
		}
	}
	require.Failf(t, "type not built", "%s", fqn)
	return nil
}

func fqns(types []*MockableType) []string {
	out := make([]string, len(types))
	for i, t := range types {
		out[i] = t.FullyQualifiedName
	}
	return out
}

type policyFunc func(ctx context.Context, c Candidate) (bool, error)

func (f policyFunc) Allow(ctx context.Context, c Candidate) (bool, error) {
	return f(ctx, c)
}
