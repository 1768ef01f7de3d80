// Package resolve turns populated declaration repositories into the graph
// of mockable type descriptors: one descriptor per class or protocol with
// its members flattened across inheritance and conformance, its generics
// and constraints qualified, and a stable identity key.
package resolve

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/jward/mockgraph/internal/constraint"
	"github.com/jward/mockgraph/internal/decl"
)

// Candidate describes a type about to be slated for output.
type Candidate struct {
	Name       string
	Module     string
	Kind       string
	Attributes []string
	IsNested   bool
}

// Policy decides whether an otherwise mockable type is slated for output.
// Allow may be called concurrently.
type Policy interface {
	Allow(ctx context.Context, c Candidate) (bool, error)
}

// Option configures a Builder.
type Option func(*Builder)

// WithWorkers bounds how many types of one topological layer are built
// concurrently. Values below one mean one worker.
func WithWorkers(n int) Option {
	return func(b *Builder) {
		b.workers = max(n, 1)
	}
}

// WithLogger sets the logger for skip and degrade events.
func WithLogger(l *slog.Logger) Option {
	return func(b *Builder) {
		if l != nil {
			b.logger = l
		}
	}
}

// WithPolicy installs an output policy.
func WithPolicy(p Policy) Option {
	return func(b *Builder) {
		b.policy = p
	}
}

// Builder constructs descriptors from a populated index. The index must not
// be modified while Build runs.
type Builder struct {
	idx     *decl.Index
	workers int
	logger  *slog.Logger
	policy  Policy
}

func NewBuilder(idx *decl.Index, opts ...Option) *Builder {
	b := &Builder{
		idx:     idx,
		workers: runtime.NumCPU(),
		logger:  slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Skip records a type group that was filtered out.
type Skip struct {
	FullyQualifiedName string
	Reason             string
}

// Graph is the result of one build.
type Graph struct {
	// Types are the built descriptors in fully-qualified name order.
	Types   []*MockableType
	Skipped []Skip
}

// Opaque returns how many built types have an unresolved inherited type.
func (g *Graph) Opaque() int {
	n := 0
	for _, t := range g.Types {
		if t.HasOpaqueInheritedType {
			n++
		}
	}
	return n
}

// node is one type group in the build arena. Edges are arena ids.
type node struct {
	id    int
	group *decl.Group
	base  *decl.Declaration
	attrs decl.Attributes
	skip  string

	inherits []int
	conforms []int
	deps     []int
	opaque   bool

	clauses []constraint.WhereClause
}

// ignoredReferences never name a nominal supertype.
var ignoredReferences = map[string]bool{
	"AnyObject": true,
	"Any":       true,
	"class":     true,
}

// Build resolves every group of the index. Fatal conditions (an ambiguous
// class or protocol declaration, an inheritance cycle, a policy error)
// abort the build with no partial result.
func (b *Builder) Build(ctx context.Context) (*Graph, error) {
	groups := b.idx.Types.Groups()
	nodes := make([]*node, len(groups))
	byFQN := make(map[string]int, len(groups))
	for i, g := range groups {
		nodes[i] = &node{id: i, group: g}
		byFQN[g.FullyQualifiedName] = i
	}

	for _, n := range nodes {
		if err := b.filter(n); err != nil {
			return nil, err
		}
	}
	for _, n := range nodes {
		if n.skip == "" {
			b.link(n, nodes, byFQN)
		}
	}

	layers, err := topoLayers(nodes)
	if err != nil {
		return nil, err
	}

	built := make([]*MockableType, len(nodes))
	for _, layer := range layers {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("resolve: build: %w", err)
		}
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(b.workers)
		for _, id := range layer {
			n := nodes[id]
			g.Go(func() error {
				t, err := b.buildNode(gctx, n, built)
				if err != nil {
					return err
				}
				built[n.id] = t
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
	}

	graph := &Graph{}
	for _, n := range nodes {
		if n.skip != "" {
			graph.Skipped = append(graph.Skipped, Skip{FullyQualifiedName: n.group.FullyQualifiedName, Reason: n.skip})
			continue
		}
		graph.Types = append(graph.Types, built[n.id])
	}
	return graph, nil
}

// filter runs the access and finality checks and picks the base declaration.
func (b *Builder) filter(n *node) error {
	fqn := n.group.FullyQualifiedName
	base, err := b.idx.Types.BaseOf(n.group)
	switch {
	case errors.Is(err, decl.ErrMissingBase):
		b.skipNode(n, "extension without a base declaration")
		return nil
	case errors.Is(err, decl.ErrAmbiguousBase):
		for _, p := range n.group.Primaries() {
			if p.Kind.IsMockable() {
				return fmt.Errorf("resolve: %w", err)
			}
		}
		b.skipNode(n, "ambiguous base declaration of a non-mockable kind")
		return nil
	case err != nil:
		return fmt.Errorf("resolve: %s: %w", fqn, err)
	}

	n.base = base
	if !base.Kind.IsMockable() {
		b.skipNode(n, base.Kind.String()+" is not a mockable kind")
		return nil
	}
	shouldMock := base.File != nil && base.File.ShouldMock
	if !base.Access.IsMockableType(shouldMock) {
		b.skipNode(n, base.Access.String()+" type is not accessible")
		return nil
	}
	for _, d := range n.group.Declarations {
		n.attrs |= d.Attributes
	}
	if n.attrs.Has(decl.AttrFinal) {
		b.skipNode(n, "final type")
	}
	return nil
}

func (b *Builder) skipNode(n *node, reason string) {
	n.skip = reason
	b.logger.Debug("type skipped",
		slog.String("type", n.group.FullyQualifiedName),
		slog.String("reason", reason))
}

// link resolves the node's inheritance and self-conformance references to
// arena ids. References that cannot be resolved to a buildable type are
// dropped and mark the node opaque.
func (b *Builder) link(n *node, nodes []*node, byFQN map[string]int) {
	for _, d := range n.group.Declarations {
		scope := d.Scope()
		for _, name := range d.InheritedTypes {
			for _, id := range b.linkRef(n, decl.Reference{Name: name, Scope: scope}, nodes, byFQN, 0) {
				n.inherits = appendID(n.inherits, id)
			}
		}
	}

	clauses, selfConformance := splitTopLevelWhere(n.base)
	n.clauses = clauses
	for _, name := range selfConformance {
		for _, id := range b.linkRef(n, decl.Reference{Name: name, Scope: n.base.Scope()}, nodes, byFQN, 0) {
			n.conforms = appendID(n.conforms, id)
		}
	}

	sort.Ints(n.inherits)
	sort.Ints(n.conforms)
	for _, id := range n.inherits {
		n.deps = appendID(n.deps, id)
	}
	for _, id := range n.conforms {
		n.deps = appendID(n.deps, id)
	}
}

// linkRef resolves one inherited reference to arena ids. Compositions are
// split into their parts, both as written and after alias resolution, so
// `typealias PQ = P & Q` links to P and Q.
func (b *Builder) linkRef(n *node, ref decl.Reference, nodes []*node, byFQN map[string]int, depth int) []int {
	parts := constraint.SplitTopLevel(ref.Name, '&')
	switch len(parts) {
	case 0:
		return nil
	case 1:
		ref.Name = parts[0]
	default:
		if depth >= decl.MaxAliasDepth {
			b.degrade(n, ref, decl.ErrAliasCycle.Error())
			return nil
		}
		var ids []int
		for _, part := range parts {
			ids = append(ids, b.linkRef(n, decl.Reference{Name: part, Scope: ref.Scope}, nodes, byFQN, depth+1)...)
		}
		return ids
	}
	if ignoredReferences[ref.Name] {
		return nil
	}
	canon, err := b.idx.Aliases.Canonicalize(ref)
	if err != nil {
		b.degrade(n, ref, err.Error())
		return nil
	}
	if canon.Name != ref.Name && len(constraint.SplitTopLevel(canon.Name, '&')) > 1 {
		return b.linkRef(n, canon, nodes, byFQN, depth+1)
	}
	g := b.idx.Types.ResolveReference(canon.Name, canon.Scope)
	if g == nil {
		b.degrade(n, ref, "unresolved")
		return nil
	}
	id := byFQN[g.FullyQualifiedName]
	if nodes[id].skip != "" {
		b.degrade(n, ref, "skipped: "+nodes[id].skip)
		return nil
	}
	return []int{id}
}

func (b *Builder) degrade(n *node, ref decl.Reference, reason string) {
	n.opaque = true
	b.logger.Debug("opaque inherited type",
		slog.String("type", n.group.FullyQualifiedName),
		slog.String("reference", ref.Name),
		slog.String("module", ref.Scope.Module),
		slog.String("reason", reason))
}

func appendID(ids []int, id int) []int {
	for _, have := range ids {
		if have == id {
			return ids
		}
	}
	return append(ids, id)
}

// topoLayers orders buildable nodes into layers where every node depends
// only on nodes of earlier layers. Nodes left over sit on or behind a cycle.
func topoLayers(nodes []*node) ([][]int, error) {
	pending := make([]int, len(nodes))
	dependents := make([][]int, len(nodes))
	var current []int
	remaining := 0
	for _, n := range nodes {
		if n.skip != "" {
			continue
		}
		remaining++
		pending[n.id] = len(n.deps)
		for _, dep := range n.deps {
			dependents[dep] = append(dependents[dep], n.id)
		}
		if len(n.deps) == 0 {
			current = append(current, n.id)
		}
	}

	var layers [][]int
	for len(current) > 0 {
		layers = append(layers, current)
		remaining -= len(current)
		var next []int
		for _, id := range current {
			for _, d := range dependents[id] {
				pending[d]--
				if pending[d] == 0 {
					next = append(next, d)
				}
			}
		}
		sort.Ints(next)
		current = next
	}
	if remaining > 0 {
		return nil, findCycle(nodes, pending)
	}
	return layers, nil
}

// findCycle walks unbuilt dependencies from the first unbuilt node until a
// node repeats. Every unbuilt node has at least one unbuilt dependency, so
// the walk always ends on a cycle.
func findCycle(nodes []*node, pending []int) error {
	start := -1
	for _, n := range nodes {
		if n.skip == "" && pending[n.id] > 0 {
			start = n.id
			break
		}
	}
	pos := make(map[int]int)
	var path []int
	for cur := start; cur >= 0; {
		if i, seen := pos[cur]; seen {
			cycle := append(path[i:], cur)
			names := make([]string, len(cycle))
			for j, id := range cycle {
				names[j] = nodes[id].group.FullyQualifiedName
			}
			return &CycleError{Path: names}
		}
		pos[cur] = len(path)
		path = append(path, cur)
		next := -1
		for _, dep := range nodes[cur].deps {
			if pending[dep] > 0 {
				next = dep
				break
			}
		}
		cur = next
	}
	return fmt.Errorf("resolve: %w", ErrInheritanceCycle)
}

// buildNode constructs one descriptor. Every dependency has been built by an
// earlier layer.
func (b *Builder) buildNode(ctx context.Context, n *node, built []*MockableType) (*MockableType, error) {
	base := n.base
	fqn := n.group.FullyQualifiedName

	generic := make(map[string]bool)
	for _, name := range genericNames(base) {
		generic[name] = true
	}
	q := newQualifier(b.idx, base.InnerScope(), generic)

	members := resolveMembers(b.idx, n.group, base, generic)

	var generics []GenericType
	for _, sub := range base.Substructure {
		if g, ok := resolveGenericType(sub, q); ok {
			generics = appendGenerics(generics, g)
		}
	}
	var clauses []constraint.WhereClause
	for _, g := range generics {
		clauses = appendWhereClauses(clauses, g.WhereClauses...)
	}
	for _, w := range n.clauses {
		clauses = appendWhereClauses(clauses, q.whereClause(w))
	}

	m := &merge{root: base.Kind, module: base.Module(), members: members, generics: generics, clauses: clauses}
	inherited := m.parents(n.inherits, built, false)
	conformed := m.parents(n.conforms, built, true)

	shouldMock := base.File != nil && base.File.ShouldMock
	if shouldMock && b.policy != nil {
		allow, err := b.policy.Allow(ctx, Candidate{
			Name:       base.QualifiedName(),
			Module:     base.Module(),
			Kind:       base.Kind.String(),
			Attributes: n.attrs.Names(),
			IsNested:   len(base.ContainingTypeNames) > 0,
		})
		if err != nil {
			return nil, fmt.Errorf("resolve: policy for %s: %w", fqn, err)
		}
		if !allow {
			b.logger.Debug("type rejected by policy", slog.String("type", fqn))
		}
		shouldMock = allow
	}

	methods := members.sortedMethods()
	t := &MockableType{
		Name:                   base.QualifiedName(),
		ModuleName:             base.Module(),
		FullyQualifiedName:     fqn,
		Kind:                   base.Kind,
		Methods:                methods,
		Variables:              members.sortedVariables(),
		MethodCounts:           countMethods(methods),
		InheritedTypes:         inherited,
		SelfConformanceTypes:   conformed,
		GenericTypes:           m.generics,
		WhereClauses:           m.clauses,
		ShouldMock:             shouldMock,
		Attributes:             n.attrs,
		CompilationDirectives:  base.Directives(),
		IsContainedType:        len(base.ContainingTypeNames) > 0,
		SubclassesExternalType: m.external,
		HasOpaqueInheritedType: n.opaque,
	}
	t.identity = computeIdentity(t.Name, t.ModuleName, t.ShouldMock, t.GenericTypes, t.WhereClauses)
	return t, nil
}

// merge accumulates the members, generics and constraints a type picks up
// from its resolved supertypes.
type merge struct {
	root     decl.Kind
	module   string
	members  *memberSet
	generics []GenericType
	clauses  []constraint.WhereClause
	external bool
}

// parents merges each parent descriptor and returns the set of types reached
// through them, sorted by fully-qualified name. On the conformance path the
// parents' self-conformance types are followed instead of their inherited
// types.
func (m *merge) parents(ids []int, built []*MockableType, forConformance bool) []*MockableType {
	excludeInits := m.root == decl.KindClass && m.members.definesDesignatedInitializer()
	seen := make(map[*MockableType]bool)
	var reached []*MockableType
	reach := func(t *MockableType) {
		if !seen[t] {
			seen[t] = true
			reached = append(reached, t)
		}
	}

	for _, id := range ids {
		parent := built[id]
		if parent == nil {
			continue
		}
		if m.root == decl.KindClass && parent.Kind == decl.KindClass && parent.ModuleName != m.module {
			m.external = true
		}
		// Classes already implement the requirements of protocols they
		// conform to.
		if m.root == decl.KindClass && parent.Kind == decl.KindProtocol {
			continue
		}

		for _, method := range parent.Methods {
			if !ScopeOf(method.Kind).IsMockable(m.root) {
				continue
			}
			if excludeInits && method.IsInitializer() {
				continue
			}
			m.members.addMethod(method)
		}
		for _, v := range parent.Variables {
			if ScopeOf(v.Kind).IsMockable(m.root) {
				m.members.addVariable(v)
			}
		}

		reach(parent)
		chain := parent.InheritedTypes
		if forConformance {
			chain = parent.SelfConformanceTypes
		}
		for _, t := range chain {
			reach(t)
		}
		m.generics = appendGenerics(m.generics, parent.GenericTypes...)
		m.clauses = appendWhereClauses(m.clauses, parent.WhereClauses...)
	}

	sort.Slice(reached, func(i, j int) bool {
		return reached[i].FullyQualifiedName < reached[j].FullyQualifiedName
	})
	return reached
}
