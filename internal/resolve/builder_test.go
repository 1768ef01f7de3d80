package resolve

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jward/mockgraph/internal/constraint"
	"github.com/jward/mockgraph/internal/decl"
)

// =============================================================================
// Flattening
// =============================================================================

func TestBuild_ProtocolInheritsMethods(t *testing.T) {
	t.Parallel()

	f := newFile("App", true)
	a := addType(f, decl.KindProtocol, "A", "")
	addFunc(a, "foo()")
	b := addType(f, decl.KindProtocol, "B", ": A", "A")
	addFunc(b, "bar()")

	g := build(t, []*decl.File{f})
	require.Len(t, g.Types, 2)

	bt := typeByFQN(t, g, "App.B")
	assert.Equal(t, []string{"bar()", "foo()"}, bt.MethodNames())
	assert.Equal(t, []string{"App.A"}, fqns(bt.InheritedTypes))
	assert.False(t, bt.HasOpaqueInheritedType)

	at := typeByFQN(t, g, "App.A")
	assert.Equal(t, []string{"foo()"}, at.MethodNames())
	assert.Empty(t, at.InheritedTypes)
}

func TestBuild_DiamondDoesNotDuplicateMembers(t *testing.T) {
	t.Parallel()

	f := newFile("App", true)
	root := addType(f, decl.KindProtocol, "Root", "")
	addFunc(root, "shared()")
	addVar(root, decl.KindVarInstance, "id", "String", false)
	left := addType(f, decl.KindProtocol, "Left", "", "Root")
	addFunc(left, "left()")
	right := addType(f, decl.KindProtocol, "Right", "", "Root")
	addFunc(right, "right()")
	addType(f, decl.KindProtocol, "Bottom", "", "Left", "Right")

	g := build(t, []*decl.File{f})
	bottom := typeByFQN(t, g, "App.Bottom")
	assert.Equal(t, []string{"left()", "right()", "shared()"}, bottom.MethodNames())
	assert.Equal(t, []string{"id"}, bottom.VariableNames())
	assert.Equal(t, []string{"App.Left", "App.Right", "App.Root"}, fqns(bottom.InheritedTypes))
	assert.Equal(t, 1, bottom.MethodCounts[ReducedMethod{Name: "shared()", Arity: 0}])
}

func TestBuild_DesignatedInitializerBlocksInheritedInitializers(t *testing.T) {
	t.Parallel()

	f := newFile("App", true)
	base := addType(f, decl.KindClass, "Base", "")
	addMethod(base, decl.KindInitializer, "init(x:)", "", "", param{"x", "Int"})
	addFunc(base, "run()")

	withInit := addType(f, decl.KindClass, "WithInit", "", "Base")
	addMethod(withInit, decl.KindInitializer, "init(y:)", "", "", param{"y", "Int"})

	addType(f, decl.KindClass, "NoInit", "", "Base")

	convenience := addType(f, decl.KindClass, "Convenience", "", "Base")
	conv := addMethod(convenience, decl.KindInitializer, "init(z:)", "", "", param{"z", "Int"})
	conv.Attributes = decl.AttrConvenience

	g := build(t, []*decl.File{f})
	assert.Equal(t, []string{"init(y:)", "run()"}, typeByFQN(t, g, "App.WithInit").MethodNames())
	assert.Equal(t, []string{"init(x:)", "run()"}, typeByFQN(t, g, "App.NoInit").MethodNames())
	assert.Equal(t, []string{"init(x:)", "init(z:)", "run()"}, typeByFQN(t, g, "App.Convenience").MethodNames())
}

func TestBuild_ClassExtensionMembersExcluded(t *testing.T) {
	t.Parallel()

	f := newFile("App", true)
	svc := addType(f, decl.KindClass, "Service", "")
	addFunc(svc, "declared()")
	ext := addType(f, decl.KindExtension, "Service", "")
	addFunc(ext, "extended()")

	proto := addType(f, decl.KindProtocol, "Proto", "")
	addFunc(proto, "required()")
	pext := addType(f, decl.KindExtension, "Proto", "")
	addFunc(pext, "provided()")

	g := build(t, []*decl.File{f})
	assert.Equal(t, []string{"declared()"}, typeByFQN(t, g, "App.Service").MethodNames())
	assert.Equal(t, []string{"provided()", "required()"}, typeByFQN(t, g, "App.Proto").MethodNames())
}

func TestBuild_ExtensionFromOtherModuleJoinsGroup(t *testing.T) {
	t.Parallel()

	core := newFile("Core", true)
	store := addType(core, decl.KindProtocol, "Store", "")
	store.Access = decl.AccessPublic
	addFunc(store, "load()")

	app := newFile("App", true, "Core")
	ext := addType(app, decl.KindExtension, "Store", "")
	addFunc(ext, "save()")

	g := build(t, []*decl.File{core, app})
	require.Len(t, g.Types, 1)
	assert.Equal(t, []string{"load()", "save()"}, g.Types[0].MethodNames())
}

func TestBuild_ClassConformanceDoesNotMergeProtocolMembers(t *testing.T) {
	t.Parallel()

	f := newFile("App", true)
	named := addType(f, decl.KindProtocol, "Named", "")
	addFunc(named, "name()")
	impl := addType(f, decl.KindClass, "Impl", "", "Named")
	addFunc(impl, "run()")

	g := build(t, []*decl.File{f})
	it := typeByFQN(t, g, "App.Impl")
	assert.Equal(t, []string{"run()"}, it.MethodNames())
	assert.Empty(t, it.InheritedTypes)
	assert.False(t, it.HasOpaqueInheritedType)
}

func TestBuild_MemberScopes(t *testing.T) {
	t.Parallel()

	f := newFile("App", true)
	k := addType(f, decl.KindClass, "Klass", "")
	addMethod(k, decl.KindMethodStatic, "make()", "", "")
	addMethod(k, decl.KindMethodClass, "shared()", "", "")
	addFunc(k, "run()")
	addVar(k, decl.KindVarStatic, "count", "Int", true)
	addVar(k, decl.KindVarClass, "name", "String", false)

	p := addType(f, decl.KindProtocol, "Factory", "")
	addMethod(p, decl.KindMethodStatic, "make()", "", "")

	fin := addFunc(k, "sealed()")
	fin.Attributes = decl.AttrFinal

	g := build(t, []*decl.File{f})
	kt := typeByFQN(t, g, "App.Klass")
	assert.Equal(t, []string{"shared()", "run()"}, kt.MethodNames())
	assert.Equal(t, []string{"name"}, kt.VariableNames())
	assert.Equal(t, []string{"make()"}, typeByFQN(t, g, "App.Factory").MethodNames())
}

// =============================================================================
// Cross-module resolution
// =============================================================================

func TestBuild_SubclassOfExternalClass(t *testing.T) {
	t.Parallel()

	m1 := newFile("M1", false)
	d := addType(m1, decl.KindClass, "D", "")
	d.Access = decl.AccessOpen
	run := addFunc(d, "run()")
	run.Access = decl.AccessOpen
	hidden := addFunc(d, "hidden()")
	hidden.Access = decl.AccessPublic

	m2 := newFile("M2", true, "M1")
	addType(m2, decl.KindClass, "C", "", "D")

	g := build(t, []*decl.File{m1, m2})

	ct := typeByFQN(t, g, "M2.C")
	assert.True(t, ct.SubclassesExternalType)
	assert.True(t, ct.ShouldMock)
	assert.Equal(t, []string{"run()"}, ct.MethodNames())
	assert.Equal(t, []string{"M1.D"}, fqns(ct.InheritedTypes))

	dt := typeByFQN(t, g, "M1.D")
	assert.False(t, dt.SubclassesExternalType)
	assert.False(t, dt.ShouldMock)
	assert.Equal(t, "D", dt.Identity())
}

func TestBuild_InternalExternalTypeIsSkipped(t *testing.T) {
	t.Parallel()

	m1 := newFile("M1", false)
	addType(m1, decl.KindClass, "Internal", "")
	m2 := newFile("M2", true, "M1")
	addType(m2, decl.KindClass, "Sub", "", "Internal")

	g := build(t, []*decl.File{m1, m2})
	require.Len(t, g.Types, 1)
	assert.True(t, g.Types[0].HasOpaqueInheritedType)
	require.Len(t, g.Skipped, 1)
	assert.Equal(t, "M1.Internal", g.Skipped[0].FullyQualifiedName)
	assert.Equal(t, 1, g.Opaque())
}

func TestBuild_QualifiesMemberTypes(t *testing.T) {
	t.Parallel()

	core := newFile("Core", false)
	item := addType(core, decl.KindProtocol, "Item", "")
	item.Access = decl.AccessPublic

	app := newFile("App", true, "Core")
	repo := addType(app, decl.KindProtocol, "Repo", "")
	addMethod(repo, decl.KindMethodInstance, "put(_:)", "[Item]?", "", param{"item", "Item"})

	g := build(t, []*decl.File{core, app})
	rt := typeByFQN(t, g, "App.Repo")
	require.Len(t, rt.Methods, 1)
	m := rt.Methods[0]
	assert.Equal(t, "Core.Item", m.Parameters[0].TypeName)
	assert.Equal(t, "_", m.Parameters[0].Label)
	assert.Equal(t, "[Core.Item]?", m.ReturnTypeName)
	assert.Equal(t, "method_instance put(_: Core.Item) -> [Core.Item]?", m.Signature())
}

// =============================================================================
// Generics and constraints
// =============================================================================

func TestBuild_AssociatedTypeConstraint(t *testing.T) {
	t.Parallel()

	f := newFile("App", true)
	store := addType(f, decl.KindProtocol, "Store", "")
	addAssociatedType(store, "Value", "associatedtype Value: Comparable where Value: Codable")

	g := build(t, []*decl.File{f})
	st := typeByFQN(t, g, "App.Store")
	require.Len(t, st.GenericTypes, 1)
	gt := st.GenericTypes[0]
	assert.Equal(t, "Value", gt.Name)
	assert.Equal(t, []string{"Comparable"}, gt.Constraints)
	require.Len(t, gt.WhereClauses, 1)
	assert.Equal(t, "Value: Codable", gt.WhereClauses[0].String())

	require.Len(t, st.WhereClauses, 1)
	assert.Equal(t, constraint.WhereClause{ConstrainedName: "Value", Relation: constraint.Conforms, OtherName: "Codable"}, st.WhereClauses[0])
	assert.Equal(t, "Store|Value:[Comparable]|Value: Codable|App", st.Identity())
}

func TestBuild_AssociatedTypeDefaultAndQualifiedBound(t *testing.T) {
	t.Parallel()

	f := newFile("App", true)
	addType(f, decl.KindProtocol, "Model", "")
	cache := addType(f, decl.KindProtocol, "Cache", "")
	addAssociatedType(cache, "Entry", "associatedtype Entry: Model & Hashable = DefaultEntry")

	g := build(t, []*decl.File{f})
	ct := typeByFQN(t, g, "App.Cache")
	require.Len(t, ct.GenericTypes, 1)
	assert.Equal(t, []string{"App.Model", "Hashable"}, ct.GenericTypes[0].Constraints)
}

func TestBuild_TopLevelWhereClauses(t *testing.T) {
	t.Parallel()

	f := newFile("App", true)
	addType(f, decl.KindProtocol, "Model", "")
	box := addType(f, decl.KindClass, "Box", "<T: Equatable>: NSObject where T: Model, T.ID == Int")
	box.InheritedTypes = []string{"NSObject"}
	addGeneric(box, "T", "Equatable")

	g := build(t, []*decl.File{f})
	bt := typeByFQN(t, g, "App.Box")
	assert.Equal(t, []string{"T: App.Model", "T.ID == Int"}, clauseStrings(bt.WhereClauses))
	assert.Equal(t, "Box|T:[Equatable]|T: App.Model,T.ID == Int|App", bt.Identity())
	assert.True(t, bt.HasOpaqueInheritedType)
}

func TestBuild_SelfClausesBecomeSelfConformance(t *testing.T) {
	t.Parallel()

	f := newFile("App", true)
	base := addType(f, decl.KindProtocol, "Presentable", "")
	addFunc(base, "present()")
	addType(f, decl.KindProtocol, "Parent", "")
	addType(f, decl.KindProtocol, "Screen", " where Self: Presentable, Self.Body: View")
	addType(f, decl.KindProtocol, "Child", "", "Screen")

	g := build(t, []*decl.File{f})
	st := typeByFQN(t, g, "App.Screen")
	assert.Empty(t, st.WhereClauses)
	assert.Empty(t, st.InheritedTypes)
	assert.Equal(t, []string{"App.Presentable"}, fqns(st.SelfConformanceTypes))
	assert.Equal(t, []string{"present()"}, st.MethodNames())

	child := typeByFQN(t, g, "App.Child")
	assert.Equal(t, []string{"App.Screen"}, fqns(child.InheritedTypes))
	assert.Equal(t, []string{"present()"}, child.MethodNames())
}

func TestBuild_InheritedGenericsAppended(t *testing.T) {
	t.Parallel()

	f := newFile("App", true)
	coll := addType(f, decl.KindProtocol, "Collection", "")
	addAssociatedType(coll, "Element", "associatedtype Element")
	left := addType(f, decl.KindProtocol, "Left", "", "Collection")
	addAssociatedType(left, "Key", "associatedtype Key: Hashable")
	addType(f, decl.KindProtocol, "Right", "", "Collection")
	addType(f, decl.KindProtocol, "Both", "", "Left", "Right")

	g := build(t, []*decl.File{f})
	both := typeByFQN(t, g, "App.Both")
	var keys []string
	for _, gt := range both.GenericTypes {
		keys = append(keys, gt.Key())
	}
	assert.Equal(t, []string{"Key:[Hashable]", "Element:[]"}, keys)
}

func clauseStrings(ws []constraint.WhereClause) []string {
	out := make([]string, len(ws))
	for i, w := range ws {
		out[i] = w.String()
	}
	return out
}

// =============================================================================
// Overloads
// =============================================================================

func TestBuild_OverloadCounts(t *testing.T) {
	t.Parallel()

	f := newFile("App", true)
	one := addType(f, decl.KindProtocol, "One", "")
	m := addFunc(one, "foo(_:)", param{"value", "T"})
	addGeneric(m, "T")

	two := addType(f, decl.KindProtocol, "Two", "")
	m = addFunc(two, "foo(_:_:)", param{"value", "T"}, param{"count", "Int"})
	addGeneric(m, "T")

	hashed := addType(f, decl.KindProtocol, "Hashed", "")
	m = addMethod(hashed, decl.KindMethodInstance, "foo(_:)", "", " where T: Hashable", param{"value", "T"})
	addGeneric(m, "T")

	addType(f, decl.KindProtocol, "Distinct", "", "One", "Two")
	addType(f, decl.KindProtocol, "Colliding", "", "One", "Hashed")

	g := build(t, []*decl.File{f})

	distinct := typeByFQN(t, g, "App.Distinct")
	require.Len(t, distinct.Methods, 2)
	assert.True(t, distinct.HasMethod("method_instance foo<T>(_: T) -> Void"))
	assert.True(t, distinct.HasMethod("method_instance foo<T>(_: T, _: Int) -> Void"))
	for _, method := range distinct.Methods {
		assert.Equal(t, 1, distinct.MethodCount(method), method.Signature())
	}

	colliding := typeByFQN(t, g, "App.Colliding")
	require.Len(t, colliding.Methods, 2)
	assert.True(t, colliding.HasMethod("method_instance foo<T>(_: T) -> Void where T: Hashable"))
	assert.Equal(t, 2, colliding.MethodCounts[ReducedMethod{Name: "foo(_:)", Arity: 1}])
}

// =============================================================================
// Filtering, degrade and fatal paths
// =============================================================================

func TestBuild_FilterSkips(t *testing.T) {
	t.Parallel()

	f := newFile("App", true)
	fin := addType(f, decl.KindClass, "Sealed", "")
	fin.Attributes = decl.AttrFinal
	priv := addType(f, decl.KindProtocol, "Hidden", "")
	priv.Access = decl.AccessFilePrivate
	addType(f, decl.KindStruct, "Value", "")
	addType(f, decl.KindExtension, "Nowhere", "")
	open := addType(f, decl.KindClass, "Open", "")
	ext := addType(f, decl.KindExtension, "Open", "")
	ext.Attributes = decl.AttrFinal

	g := build(t, []*decl.File{f})
	assert.Empty(t, g.Types)

	reasons := make(map[string]string)
	for _, s := range g.Skipped {
		reasons[s.FullyQualifiedName] = s.Reason
	}
	assert.Equal(t, "final type", reasons["App.Sealed"])
	assert.Equal(t, "fileprivate type is not accessible", reasons["App.Hidden"])
	assert.Equal(t, "struct is not a mockable kind", reasons["App.Value"])
	assert.Equal(t, "extension without a base declaration", reasons["App.Nowhere"])
	assert.Equal(t, "final type", reasons[open.FullyQualifiedName()])
}

func TestBuild_OpaqueReferencesDegrade(t *testing.T) {
	t.Parallel()

	f := newFile("App", true)
	p := addType(f, decl.KindProtocol, "Leaf", "", "Missing")
	addFunc(p, "run()")
	addType(f, decl.KindProtocol, "Bound", "", "AnyObject")

	g := build(t, []*decl.File{f})
	leaf := typeByFQN(t, g, "App.Leaf")
	assert.True(t, leaf.HasOpaqueInheritedType)
	assert.Equal(t, []string{"run()"}, leaf.MethodNames())
	assert.False(t, typeByFQN(t, g, "App.Bound").HasOpaqueInheritedType)
}

func TestBuild_AliasesResolveAndCyclesDegrade(t *testing.T) {
	t.Parallel()

	core := newFile("Core", true)
	svc := addType(core, decl.KindProtocol, "Service", "")
	addFunc(svc, "call()")

	app := newFile("App", true, "Core")
	alias := &decl.Declaration{Kind: decl.KindTypealias, Name: "Backend", TypeName: "Core.Service", File: app}
	ping := &decl.Declaration{Kind: decl.KindTypealias, Name: "Ping", TypeName: "Pong", File: app}
	pong := &decl.Declaration{Kind: decl.KindTypealias, Name: "Pong", TypeName: "Ping", File: app}
	app.Declarations = append(app.Declarations, alias, ping, pong)
	addType(app, decl.KindProtocol, "Client", "", "Backend")
	addType(app, decl.KindProtocol, "Looping", "", "Ping")

	g := build(t, []*decl.File{core, app})

	client := typeByFQN(t, g, "App.Client")
	assert.Equal(t, []string{"Core.Service"}, fqns(client.InheritedTypes))
	assert.Equal(t, []string{"call()"}, client.MethodNames())
	assert.False(t, client.HasOpaqueInheritedType)

	looping := typeByFQN(t, g, "App.Looping")
	assert.True(t, looping.HasOpaqueInheritedType)
	assert.Empty(t, looping.InheritedTypes)
}

func TestBuild_AliasToCompositionLinksEachPart(t *testing.T) {
	t.Parallel()

	f := newFile("M", true)
	addFunc(addType(f, decl.KindProtocol, "P", ""), "p()")
	addFunc(addType(f, decl.KindProtocol, "Q", ""), "q()")
	f.Declarations = append(f.Declarations,
		&decl.Declaration{Kind: decl.KindTypealias, Name: "PQ", TypeName: "P & Q", File: f})
	addType(f, decl.KindProtocol, "R", "", "PQ")

	g := build(t, []*decl.File{f})

	r := typeByFQN(t, g, "M.R")
	assert.Equal(t, []string{"p()", "q()"}, r.MethodNames())
	assert.Equal(t, []string{"M.P", "M.Q"}, fqns(r.InheritedTypes))
	assert.False(t, r.HasOpaqueInheritedType)
}

func TestBuild_AliasesExpandInMemberAndGenericTypes(t *testing.T) {
	t.Parallel()

	f := newFile("App", true)
	addType(f, decl.KindProtocol, "Model", "")
	addType(f, decl.KindProtocol, "Keyed", "")
	f.Declarations = append(f.Declarations,
		&decl.Declaration{Kind: decl.KindTypealias, Name: "ID", TypeName: "String", File: f},
		&decl.Declaration{Kind: decl.KindTypealias, Name: "Entity", TypeName: "Model & Keyed", File: f},
		&decl.Declaration{Kind: decl.KindTypealias, Name: "Handler", TypeName: "(Int) -> Void", File: f},
	)
	box := addType(f, decl.KindClass, "Box", "<T: Entity>")
	addGeneric(box, "T", "Entity")
	addVar(box, decl.KindVarInstance, "id", "ID?", false)
	addVar(box, decl.KindVarInstance, "callback", "Handler", false)

	g := build(t, []*decl.File{f})
	bt := typeByFQN(t, g, "App.Box")

	types := make(map[string]string)
	for _, v := range bt.Variables {
		types[v.Name] = v.TypeName
	}
	assert.Equal(t, "String?", types["id"])
	assert.Equal(t, "Handler", types["callback"])

	require.Len(t, bt.GenericTypes, 1)
	assert.Equal(t, []string{"App.Keyed", "App.Model"}, bt.GenericTypes[0].Constraints)
}

func TestBuild_InheritanceCycleIsFatal(t *testing.T) {
	t.Parallel()

	f := newFile("App", true)
	addType(f, decl.KindProtocol, "A", "", "B")
	addType(f, decl.KindProtocol, "B", "", "A")
	addType(f, decl.KindProtocol, "Fine", "")

	g, err := NewBuilder(decl.Populate([]*decl.File{f}, nil)).Build(context.Background())
	require.Error(t, err)
	assert.Nil(t, g)
	assert.ErrorIs(t, err, ErrInheritanceCycle)

	var cycle *CycleError
	require.True(t, errors.As(err, &cycle))
	assert.Equal(t, []string{"App.A", "App.B", "App.A"}, cycle.Path)
}

func TestBuild_SelfInheritanceIsFatal(t *testing.T) {
	t.Parallel()

	f := newFile("App", true)
	addType(f, decl.KindProtocol, "Loop", "", "Loop")

	_, err := NewBuilder(decl.Populate([]*decl.File{f}, nil)).Build(context.Background())
	var cycle *CycleError
	require.ErrorAs(t, err, &cycle)
	assert.Equal(t, []string{"App.Loop", "App.Loop"}, cycle.Path)
}

func TestBuild_AmbiguousBase(t *testing.T) {
	t.Parallel()

	f := newFile("App", true)
	addType(f, decl.KindClass, "Twice", "")
	addType(f, decl.KindClass, "Twice", "")
	_, err := NewBuilder(decl.Populate([]*decl.File{f}, nil)).Build(context.Background())
	assert.ErrorIs(t, err, decl.ErrAmbiguousBase)

	s := newFile("App", true)
	addType(s, decl.KindStruct, "Pair", "")
	addType(s, decl.KindStruct, "Pair", "")
	g := build(t, []*decl.File{s})
	require.Len(t, g.Skipped, 1)
	assert.Empty(t, g.Types)
}

// =============================================================================
// Policy, identity and ordering
// =============================================================================

func TestBuild_PolicyControlsOutput(t *testing.T) {
	t.Parallel()

	f := newFile("App", true)
	addType(f, decl.KindProtocol, "Kept", "")
	hidden := addType(f, decl.KindProtocol, "Rejected", "")
	hidden.Attributes = decl.AttrObjC

	var seen []Candidate
	policy := policyFunc(func(_ context.Context, c Candidate) (bool, error) {
		if c.Name == "Rejected" {
			seen = append(seen, c)
		}
		return c.Name != "Rejected", nil
	})
	g := build(t, []*decl.File{f}, WithPolicy(policy), WithWorkers(1))

	assert.True(t, typeByFQN(t, g, "App.Kept").ShouldMock)
	rejected := typeByFQN(t, g, "App.Rejected")
	assert.False(t, rejected.ShouldMock)
	assert.Equal(t, "Rejected", rejected.Identity())
	require.Len(t, seen, 1)
	assert.Equal(t, Candidate{Name: "Rejected", Module: "App", Kind: "protocol", Attributes: []string{"objc"}}, seen[0])
}

func TestBuild_PolicyErrorIsFatal(t *testing.T) {
	t.Parallel()

	f := newFile("App", true)
	addType(f, decl.KindProtocol, "Any1", "")
	boom := errors.New("script failed")
	_, err := NewBuilder(decl.Populate([]*decl.File{f}, nil),
		WithPolicy(policyFunc(func(context.Context, Candidate) (bool, error) { return false, boom })),
	).Build(context.Background())
	assert.ErrorIs(t, err, boom)
}

func TestBuild_Deterministic(t *testing.T) {
	t.Parallel()

	makeFiles := func() []*decl.File {
		f := newFile("App", true)
		for _, name := range []string{"Z", "Y", "X", "W"} {
			p := addType(f, decl.KindProtocol, name, "")
			addFunc(p, "op"+name+"()")
		}
		addType(f, decl.KindProtocol, "All", "", "W", "X", "Y", "Z")
		m := addType(f, decl.KindProtocol, "Mixed", "", "All")
		addAssociatedType(m, "Element", "associatedtype Element: Hashable")
		return []*decl.File{f}
	}

	render := func(g *Graph) []string {
		ordered, err := Order(g.Types)
		require.NoError(t, err)
		var out []string
		for _, mt := range ordered {
			out = append(out, mt.Identity())
			for _, m := range mt.Methods {
				out = append(out, "  "+m.Signature())
			}
		}
		return out
	}

	first := render(build(t, makeFiles(), WithWorkers(1)))
	for range 5 {
		assert.Equal(t, first, render(build(t, makeFiles(), WithWorkers(8))))
	}
}

func TestOrder_SameNameAcrossMockedModules(t *testing.T) {
	t.Parallel()

	b := newFile("B", true)
	addFunc(addType(b, decl.KindProtocol, "Service", ""), "b()")
	a := newFile("A", true)
	addFunc(addType(a, decl.KindProtocol, "Service", ""), "a()")

	g := build(t, []*decl.File{b, a})
	ordered, err := Order(g.Types)
	require.NoError(t, err)
	assert.Equal(t, []string{"A.Service", "B.Service"}, fqns(ordered))
	assert.Equal(t, "Service|||A", ordered[0].Identity())
	assert.Equal(t, "Service|||B", ordered[1].Identity())
	assert.Equal(t, []string{"a()"}, ordered[0].MethodNames())
}

func TestOrder_DuplicateIdentity(t *testing.T) {
	t.Parallel()

	types := []*MockableType{
		{Name: "Shared", ModuleName: "App", FullyQualifiedName: "App.Shared", ShouldMock: true, identity: "Shared|||App"},
		{Name: "Shared", ModuleName: "App", FullyQualifiedName: "App.Shared", ShouldMock: true, identity: "Shared|||App"},
	}
	_, err := Order(types)
	assert.ErrorIs(t, err, ErrDuplicateIdentity)
}

func TestOrder_NonOutputCollisionsBreakOnName(t *testing.T) {
	t.Parallel()

	m1 := newFile("M1", false)
	s1 := addType(m1, decl.KindProtocol, "Shared", "")
	s1.Access = decl.AccessPublic
	m2 := newFile("M2", false)
	s2 := addType(m2, decl.KindProtocol, "Shared", "")
	s2.Access = decl.AccessPublic
	app := newFile("App", true)
	addType(app, decl.KindProtocol, "Alpha", "")

	g := build(t, []*decl.File{m2, m1, app})
	ordered, err := Order(g.Types)
	require.NoError(t, err)
	assert.Equal(t, []string{"App.Alpha", "M1.Shared", "M2.Shared"}, fqns(ordered))
}
