package resolve

import (
	"sort"
	"strings"

	"github.com/jward/mockgraph/internal/constraint"
	"github.com/jward/mockgraph/internal/decl"
)

// TypeScope is the scope a member is declared in.
type TypeScope int

const (
	ScopeInstance TypeScope = iota
	ScopeStatic
	ScopeClass
)

// ScopeOf returns the scope of a member kind.
func ScopeOf(k decl.Kind) TypeScope {
	switch k {
	case decl.KindMethodStatic, decl.KindVarStatic:
		return ScopeStatic
	case decl.KindMethodClass, decl.KindVarClass:
		return ScopeClass
	default:
		return ScopeInstance
	}
}

// IsMockable reports whether a member of this scope can be mocked on a
// type of the given kind. Class members need a class, and static members
// can only be mocked as protocol requirements since classes cannot
// override them.
func (s TypeScope) IsMockable(in decl.Kind) bool {
	switch s {
	case ScopeClass:
		return in == decl.KindClass
	case ScopeStatic:
		return in == decl.KindProtocol
	default:
		return true
	}
}

// Parameter is one method parameter. Label is the argument label from the
// selector, "_" when unlabeled.
type Parameter struct {
	Label    string
	Name     string
	TypeName string
}

// Method is a method or initializer. Two methods are the same member iff
// their signatures match.
type Method struct {
	Name           string // full selector, e.g. fetch(id:completion:)
	ShortName      string
	Kind           decl.Kind
	GenericTypes   []GenericType
	Parameters     []Parameter
	ReturnTypeName string
	WhereClauses   []constraint.WhereClause
	Attributes     decl.Attributes

	signature string
}

// effects are the attributes that are part of a method's signature.
var effects = []decl.Attributes{decl.AttrMutating, decl.AttrAsync, decl.AttrThrows, decl.AttrRethrows}

// Signature is the canonical text of the method: kind, selector, generics,
// labelled parameter types, effects, return type and where clauses.
func (m Method) Signature() string {
	if m.signature == "" {
		return m.buildSignature()
	}
	return m.signature
}

func (m Method) buildSignature() string {
	var b strings.Builder
	b.WriteString(m.Kind.String())
	b.WriteByte(' ')
	b.WriteString(m.ShortName)
	if len(m.GenericTypes) > 0 {
		gs := make([]string, len(m.GenericTypes))
		for i, g := range m.GenericTypes {
			gs[i] = g.String()
		}
		b.WriteString("<" + strings.Join(gs, ", ") + ">")
	}
	ps := make([]string, len(m.Parameters))
	for i, p := range m.Parameters {
		ps[i] = p.Label + ": " + p.TypeName
	}
	b.WriteString("(" + strings.Join(ps, ", ") + ")")
	for _, e := range effects {
		if m.Attributes.Has(e) {
			b.WriteByte(' ')
			b.WriteString(e.String())
		}
	}
	if m.ReturnTypeName != "" {
		b.WriteString(" -> " + m.ReturnTypeName)
	}
	if len(m.WhereClauses) > 0 {
		ws := make([]string, len(m.WhereClauses))
		for i, w := range m.WhereClauses {
			ws[i] = w.String()
		}
		b.WriteString(" where " + strings.Join(ws, ", "))
	}
	return b.String()
}

func (m Method) String() string { return m.Signature() }

func (m Method) IsInitializer() bool {
	return m.Kind == decl.KindInitializer
}

// IsDesignatedInitializer reports whether m is a non-convenience
// initializer.
func (m Method) IsDesignatedInitializer() bool {
	return m.IsInitializer() && !m.Attributes.Has(decl.AttrConvenience)
}

// ReducedMethod identifies an overload family: methods that differ only in
// generic specialization or constraints share a reduced form.
type ReducedMethod struct {
	Name  string
	Arity int
}

// Reduced returns the method's reduced form.
func (m Method) Reduced() ReducedMethod {
	return ReducedMethod{Name: m.Name, Arity: len(m.Parameters)}
}

// Variable is a property.
type Variable struct {
	Name       string
	TypeName   string
	Kind       decl.Kind
	Settable   bool
	Attributes decl.Attributes
}

// Signature is the canonical text of the property.
func (v Variable) Signature() string {
	access := "{ get }"
	if v.Settable {
		access = "{ get set }"
	}
	return v.Kind.String() + " " + v.Name + ": " + v.TypeName + " " + access
}

func (v Variable) String() string { return v.Signature() }

// selectorLabels returns the argument labels encoded in a selector such as
// "fetch(id:_:)".
func selectorLabels(selector string) []string {
	open := strings.IndexByte(selector, '(')
	if open < 0 || !strings.HasSuffix(selector, ")") {
		return nil
	}
	inner := selector[open+1 : len(selector)-1]
	if inner == "" {
		return nil
	}
	return strings.Split(strings.TrimSuffix(inner, ":"), ":")
}

func shortName(selector string) string {
	if i := strings.IndexByte(selector, '('); i >= 0 {
		return selector[:i]
	}
	return selector
}

func normalizeReturn(kind decl.Kind, ret string) string {
	ret = strings.TrimSpace(ret)
	if kind == decl.KindInitializer {
		return ""
	}
	if ret == "" || ret == "()" {
		return "Void"
	}
	return ret
}

// newMethod builds a method from its declaration, qualifying every type
// name from the declaring scope.
func newMethod(d *decl.Declaration, q qualifier) (Method, bool) {
	if !d.Kind.IsMethod() {
		return Method{}, false
	}
	q = q.with(genericNames(d))
	m := Method{
		Name:       d.Name,
		ShortName:  shortName(d.Name),
		Kind:       d.Kind,
		Attributes: d.Attributes,
	}
	labels := selectorLabels(d.Name)
	for _, sub := range d.Substructure {
		switch sub.Kind {
		case decl.KindGenericTypeParam:
			if g, ok := resolveGenericType(sub, q); ok {
				m.GenericTypes = append(m.GenericTypes, g)
			}
		case decl.KindParameter:
			p := Parameter{Name: sub.Name, TypeName: q.expr(sub.TypeName)}
			if i := len(m.Parameters); i < len(labels) {
				p.Label = labels[i]
			}
			m.Parameters = append(m.Parameters, p)
		}
	}
	m.ReturnTypeName = normalizeReturn(d.Kind, q.expr(d.TypeName))
	if _, text, ok := constraint.SplitWhere(d.HeaderText()); ok {
		for _, w := range constraint.ParseWhereClauses(text) {
			m.WhereClauses = append(m.WhereClauses, q.whereClause(w))
		}
	}
	m.signature = m.buildSignature()
	return m, true
}

func newVariable(d *decl.Declaration, q qualifier) (Variable, bool) {
	if !d.Kind.IsVariable() {
		return Variable{}, false
	}
	return Variable{
		Name:       d.Name,
		TypeName:   q.expr(d.TypeName),
		Kind:       d.Kind,
		Settable:   d.Settable,
		Attributes: d.Attributes,
	}, true
}

// memberSet holds a type's methods and variables keyed by signature.
// Insertion never replaces an existing member, so a type's own declarations
// take precedence over inherited ones with the same signature.
type memberSet struct {
	methods   map[string]Method
	variables map[string]Variable
}

func newMemberSet() *memberSet {
	return &memberSet{methods: make(map[string]Method), variables: make(map[string]Variable)}
}

func (s *memberSet) addMethod(m Method) {
	sig := m.Signature()
	if _, ok := s.methods[sig]; !ok {
		s.methods[sig] = m
	}
}

func (s *memberSet) addVariable(v Variable) {
	sig := v.Signature()
	if _, ok := s.variables[sig]; !ok {
		s.variables[sig] = v
	}
}

func (s *memberSet) definesDesignatedInitializer() bool {
	for _, m := range s.methods {
		if m.IsDesignatedInitializer() {
			return true
		}
	}
	return false
}

func (s *memberSet) sortedMethods() []Method {
	out := make([]Method, 0, len(s.methods))
	for _, m := range s.methods {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Signature() < out[j].Signature() })
	return out
}

func (s *memberSet) sortedVariables() []Variable {
	out := make([]Variable, 0, len(s.variables))
	for _, v := range s.variables {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Signature() < out[j].Signature() })
	return out
}

// resolveMembers collects the directly declared members of a group. Members
// of class extensions are excluded since they can neither be overridden nor
// satisfy requirements; protocol extensions contribute theirs.
func resolveMembers(idx *decl.Index, g *decl.Group, base *decl.Declaration, generic map[string]bool) *memberSet {
	set := newMemberSet()
	for _, d := range g.Declarations {
		if base.Kind == decl.KindClass && d.Kind == decl.KindExtension {
			continue
		}
		shouldMock := d.File != nil && d.File.ShouldMock
		q := newQualifier(idx, d.InnerScope(), generic)
		for _, sub := range d.Substructure {
			if !sub.Kind.IsMethod() && !sub.Kind.IsVariable() {
				continue
			}
			if sub.Attributes.Has(decl.AttrFinal) {
				continue
			}
			if !sub.Access.IsMockableMember(shouldMock, base.Kind, sub.Kind == decl.KindInitializer) {
				continue
			}
			if !ScopeOf(sub.Kind).IsMockable(base.Kind) {
				continue
			}
			if m, ok := newMethod(sub, q); ok {
				set.addMethod(m)
			}
			if v, ok := newVariable(sub, q); ok {
				set.addVariable(v)
			}
		}
	}
	return set
}
