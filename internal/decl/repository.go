package decl

import (
	"fmt"
	"sort"
)

// Group is every partial declaration of one nominal type: at most one
// primary declaration and any number of extensions, in registration order.
type Group struct {
	FullyQualifiedName string
	Declarations       []*Declaration
}

// Primaries returns the group's non-extension declarations.
func (g *Group) Primaries() []*Declaration {
	var out []*Declaration
	for _, d := range g.Declarations {
		if d.Kind != KindExtension {
			out = append(out, d)
		}
	}
	return out
}

// Extensions returns the group's extension declarations.
func (g *Group) Extensions() []*Declaration {
	var out []*Declaration
	for _, d := range g.Declarations {
		if d.Kind == KindExtension {
			out = append(out, d)
		}
	}
	return out
}

// Repository indexes declaration groups by fully-qualified name. It is
// populated once through Register and Finalize and is safe for concurrent
// reads afterwards.
type Repository struct {
	knownModules []string
	groups       map[string]*Group
	pending      []*Declaration
	finalized    bool
}

// NewRepository creates an empty repository. knownModules is the ordered
// list of module names references may be qualified with.
func NewRepository(knownModules []string) *Repository {
	return &Repository{
		knownModules: append([]string(nil), knownModules...),
		groups:       make(map[string]*Group),
	}
}

// Register adds a type declaration to its group. Extensions are held back
// until Finalize, because the type they extend may be declared in a
// different module or registered later.
func (r *Repository) Register(d *Declaration) {
	if r.finalized {
		panic("decl: Register after Finalize")
	}
	if d.Kind == KindExtension {
		r.pending = append(r.pending, d)
		return
	}
	r.add(d.FullyQualifiedName(), d)
}

func (r *Repository) add(fqn string, d *Declaration) {
	g, ok := r.groups[fqn]
	if !ok {
		g = &Group{FullyQualifiedName: fqn}
		r.groups[fqn] = g
	}
	g.Declarations = append(g.Declarations, d)
}

// Finalize binds pending extensions to the group their extended name
// resolves to from the extension's own scope. An extension of a type that
// is not declared anywhere forms an extension-only group.
func (r *Repository) Finalize() {
	if r.finalized {
		return
	}
	for _, ext := range r.pending {
		if g := r.ResolveReference(ext.Name, ext.Scope()); g != nil {
			g.Declarations = append(g.Declarations, ext)
			continue
		}
		r.add(ext.FullyQualifiedName(), ext)
	}
	r.pending = nil
	r.finalized = true
}

// Group returns the group registered under a fully-qualified name.
func (r *Repository) Group(fqn string) (*Group, bool) {
	g, ok := r.groups[fqn]
	return g, ok
}

// Groups returns every group sorted by fully-qualified name.
func (r *Repository) Groups() []*Group {
	out := make([]*Group, 0, len(r.groups))
	for _, g := range r.groups {
		out = append(out, g)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].FullyQualifiedName < out[j].FullyQualifiedName
	})
	return out
}

// ResolveReference returns the nearest group a type name denotes from the
// given scope, or nil when the name is unresolvable. An unresolved name is
// an opaque reference, not an error.
func (r *Repository) ResolveReference(name string, scope Scope) *Group {
	for _, c := range Candidates(name, scope, r.knownModules) {
		if g, ok := r.groups[c]; ok {
			return g
		}
	}
	return nil
}

// BaseOf returns the group's single non-extension declaration.
func (r *Repository) BaseOf(g *Group) (*Declaration, error) {
	primaries := g.Primaries()
	switch len(primaries) {
	case 1:
		return primaries[0], nil
	case 0:
		return nil, fmt.Errorf("decl: base of %s: %w", g.FullyQualifiedName, ErrMissingBase)
	default:
		return nil, fmt.Errorf("decl: base of %s: %d primary declarations: %w",
			g.FullyQualifiedName, len(primaries), ErrAmbiguousBase)
	}
}
