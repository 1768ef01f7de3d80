// Package swiftsrc is the structural frontend for Swift sources. It uses the
// tree-sitter Swift grammar to find declaration boundaries and produces the
// declaration dictionaries the resolver consumes: kinds, names, offsets,
// substructure, inherited names, attributes and access levels.
package swiftsrc

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/swift"

	"github.com/jward/mockgraph/internal/constraint"
	"github.com/jward/mockgraph/internal/decl"
)

// IsSwiftFile reports whether path names a Swift source file.
func IsSwiftFile(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".swift")
}

// ParseFile reads and parses one source file.
func ParseFile(ctx context.Context, path, module string, mock bool) (*decl.File, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("swiftsrc: read %s: %w", path, err)
	}
	return Parse(ctx, path, module, src, mock)
}

// Parse parses Swift source into a declaration file. mock is recorded as
// the file's ShouldMock flag.
func Parse(ctx context.Context, path, module string, src []byte, mock bool) (*decl.File, error) {
	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(swift.GetLanguage())

	tree, err := parser.ParseCtx(ctx, nil, src)
	if err != nil {
		return nil, fmt.Errorf("swiftsrc: parse %s: %w", path, err)
	}
	defer tree.Close()

	f := &decl.File{
		Path:       path,
		Module:     module,
		Contents:   src,
		ShouldMock: mock,
		Directives: scanDirectives(src),
	}
	w := &walker{file: f, src: src}
	f.Declarations = w.walk(tree.RootNode(), nil, nil, decl.AccessInternal)
	return f, nil
}

type walker struct {
	file *decl.File
	src  []byte
}

func (w *walker) text(start, end uint32) string {
	return string(w.src[start:end])
}

// body returns the braced body child of a declaration node, if any.
func body(n *sitter.Node) *sitter.Node {
	for i := 0; i < int(n.NamedChildCount()); i++ {
		c := n.NamedChild(i)
		if strings.HasSuffix(c.Type(), "_body") {
			return c
		}
	}
	return nil
}

// opaque nodes are never searched for nested declarations.
var opaque = map[string]bool{
	"function_body":     true,
	"computed_property": true,
	"lambda_literal":    true,
	"comment":           true,
	"multiline_comment": true,
}

// walk collects the declarations under n. owner is the enclosing type
// declaration, nil at file scope; memberAccess is the access members get
// when they do not spell one out.
func (w *walker) walk(n *sitter.Node, owner *decl.Declaration, containing []string, memberAccess decl.AccessLevel) []*decl.Declaration {
	var out []*decl.Declaration
	for i := 0; i < int(n.NamedChildCount()); i++ {
		c := n.NamedChild(i)
		switch c.Type() {
		case "import_declaration":
			if owner == nil {
				if m, ok := parseImport(w.text(c.StartByte(), c.EndByte())); ok {
					w.file.Imports = append(w.file.Imports, m)
				}
			}
		case "class_declaration", "protocol_declaration":
			if d := w.typeDecl(c, containing, memberAccess); d != nil {
				out = append(out, d)
			}
		case "function_declaration", "protocol_function_declaration", "init_declaration":
			if owner != nil {
				if d := w.funcDecl(c, containing, memberAccess); d != nil {
					out = append(out, d)
				}
			}
		case "property_declaration", "protocol_property_declaration":
			if owner != nil {
				if d := w.varDecl(c, containing, memberAccess); d != nil {
					out = append(out, d)
				}
			}
		case "associatedtype_declaration":
			if owner != nil && owner.Kind == decl.KindProtocol {
				if d := w.namedDecl(c, decl.KindAssociatedType, "associatedtype", containing, memberAccess); d != nil {
					out = append(out, d)
				}
			}
		case "typealias_declaration":
			if d := w.namedDecl(c, decl.KindTypealias, "typealias", containing, memberAccess); d != nil {
				out = append(out, d)
			}
		default:
			if !opaque[c.Type()] && !strings.HasSuffix(c.Type(), "_declaration") {
				out = append(out, w.walk(c, owner, containing, memberAccess)...)
			}
		}
	}
	return out
}

func (w *walker) typeDecl(n *sitter.Node, containing []string, defAccess decl.AccessLevel) *decl.Declaration {
	start, end := n.StartByte(), n.EndByte()
	b := body(n)
	headerEnd := end
	if b != nil {
		headerEnd = b.StartByte()
	}
	h, ok := parseTypeHeader(w.text(start, headerEnd))
	if !ok {
		return nil
	}

	d := &decl.Declaration{
		Kind:                h.kind,
		Name:                h.name,
		ContainingTypeNames: containing,
		InheritedTypes:      w.inheritedTypes(n, h.inherited),
		Attributes:          h.attrs,
		Access:              h.accessOr(defAccess),
		Offset:              int(start),
		Length:              int(end - start),
		NameOffset:          int(start) + h.nameOffset,
		NameLength:          len(h.name),
		File:                w.file,
	}
	for _, g := range h.generics {
		d.Substructure = append(d.Substructure, w.genericDecl(g, d))
	}
	if b == nil {
		return d
	}
	d.BodyOffset = int(b.StartByte())
	d.BodyLength = int(b.EndByte() - b.StartByte())

	inner := append(append([]string(nil), containing...), strings.Split(h.name, ".")...)
	members := decl.AccessInternal
	switch {
	case h.kind == decl.KindProtocol:
		members = d.Access
	case h.kind == decl.KindExtension && h.hasAccess:
		members = h.access
	}
	d.Substructure = append(d.Substructure, w.walk(b, d, inner, members)...)
	return d
}

func (w *walker) genericDecl(g genericParam, owner *decl.Declaration) *decl.Declaration {
	d := &decl.Declaration{
		Kind:                decl.KindGenericTypeParam,
		Name:                g.name,
		ContainingTypeNames: owner.ContainingTypeNames,
		File:                w.file,
	}
	if g.bound != "" {
		d.InheritedTypes = []string{g.bound}
	}
	return d
}

func (w *walker) funcDecl(n *sitter.Node, containing []string, defAccess decl.AccessLevel) *decl.Declaration {
	start, end := n.StartByte(), n.EndByte()
	b := body(n)
	headerEnd := end
	if b != nil {
		headerEnd = b.StartByte()
	}
	h, ok := parseFuncHeader(w.text(start, headerEnd))
	if !ok {
		return nil
	}

	kind := decl.KindMethodInstance
	switch {
	case h.isInit:
		kind = decl.KindInitializer
	case h.static:
		kind = decl.KindMethodStatic
	case h.class:
		kind = decl.KindMethodClass
	}
	d := &decl.Declaration{
		Kind:                kind,
		Name:                h.selector(),
		TypeName:            w.returnType(n, headerEnd, h.returnType),
		ContainingTypeNames: containing,
		Attributes:          h.attrs | h.effects,
		Access:              h.accessOr(defAccess),
		Offset:              int(start),
		Length:              int(end - start),
		NameOffset:          int(start) + h.nameOffset,
		NameLength:          len(h.name),
		File:                w.file,
	}
	if b != nil {
		d.BodyOffset = int(b.StartByte())
		d.BodyLength = int(b.EndByte() - b.StartByte())
	}
	for _, g := range h.generics {
		d.Substructure = append(d.Substructure, w.genericDecl(g, d))
	}
	types := w.paramTypes(n, len(h.params))
	for i, p := range h.params {
		typeName := p.typeName
		if types != nil {
			typeName = types[i]
		}
		d.Substructure = append(d.Substructure, &decl.Declaration{
			Kind:                decl.KindParameter,
			Name:                p.name,
			TypeName:            typeName,
			ContainingTypeNames: containing,
			File:                w.file,
		})
	}
	return d
}

// inheritedTypes returns the inheritance specifiers of a type declaration
// as the grammar split them, or fallback when the header did not parse
// cleanly.
func (w *walker) inheritedTypes(n *sitter.Node, fallback []string) []string {
	var out []string
	for i := 0; i < int(n.ChildCount()); i++ {
		c := n.Child(i)
		switch c.Type() {
		case "ERROR":
			return fallback
		case "inheritance_specifier":
			out = append(out, strings.TrimSpace(w.text(c.StartByte(), c.EndByte())))
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}

// returnType is the text from the return_type field to the end of the
// header, minus any trailing where clause.
func (w *walker) returnType(n *sitter.Node, headerEnd uint32, fallback string) string {
	rt := n.ChildByFieldName("return_type")
	if rt == nil || rt.StartByte() >= headerEnd {
		return fallback
	}
	text, _, _ := constraint.SplitWhere(w.text(rt.StartByte(), headerEnd))
	return strings.TrimSpace(text)
}

// paramTypes returns the type text of each parameter node, modifiers and
// variadic marker included. It returns nil unless the grammar found exactly
// want clean parameters.
func (w *walker) paramTypes(n *sitter.Node, want int) []string {
	var out []string
	for i := 0; i < int(n.ChildCount()); i++ {
		c := n.Child(i)
		switch c.Type() {
		case "ERROR":
			return nil
		case "parameter":
			t, ok := w.paramType(c)
			if !ok {
				return nil
			}
			out = append(out, t)
		}
	}
	if len(out) != want {
		return nil
	}
	return out
}

func (w *walker) paramType(p *sitter.Node) (string, bool) {
	for i := 0; i+1 < int(p.ChildCount()); i++ {
		if p.Child(i).Type() == ":" {
			return strings.TrimSpace(w.text(p.Child(i+1).StartByte(), p.EndByte())), true
		}
	}
	return "", false
}

func (w *walker) varDecl(n *sitter.Node, containing []string, defAccess decl.AccessLevel) *decl.Declaration {
	start, end := n.StartByte(), n.EndByte()
	h, ok := parseVarHeader(w.text(start, end))
	if !ok {
		return nil
	}
	kind := decl.KindVarInstance
	switch {
	case h.static:
		kind = decl.KindVarStatic
	case h.class:
		kind = decl.KindVarClass
	}
	return &decl.Declaration{
		Kind:                kind,
		Name:                h.name,
		TypeName:            h.typeName,
		ContainingTypeNames: containing,
		Attributes:          h.attrs,
		Access:              h.accessOr(defAccess),
		Settable:            h.settable,
		Offset:              int(start),
		Length:              int(end - start),
		NameOffset:          int(start) + h.nameOffset,
		NameLength:          len(h.name),
		File:                w.file,
	}
}

func (w *walker) namedDecl(n *sitter.Node, kind decl.Kind, keyword string, containing []string, defAccess decl.AccessLevel) *decl.Declaration {
	start, end := n.StartByte(), n.EndByte()
	text := w.text(start, end)
	name, nameOffset, target, ok := parseNamed(text, keyword)
	if !ok {
		return nil
	}
	sc := &scanner{s: text}
	p := scanPrefix(sc)
	return &decl.Declaration{
		Kind:                kind,
		Name:                name,
		TypeName:            target,
		ContainingTypeNames: containing,
		Attributes:          p.attrs,
		Access:              p.accessOr(defAccess),
		Offset:              int(start),
		Length:              int(end - start),
		NameOffset:          int(start) + nameOffset,
		NameLength:          len(name),
		File:                w.file,
	}
}
