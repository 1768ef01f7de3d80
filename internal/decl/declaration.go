// Package decl holds the raw declarations produced by the structural parser
// and the two read-only repositories built from them: the declaration
// repository, which groups partial declarations of one nominal type, and the
// alias repository, which follows typealias chains.
package decl

import (
	"strings"
)

// File is one parsed source unit.
type File struct {
	Path     string
	Module   string
	Contents []byte
	Imports  []string

	// ShouldMock is false for files parsed only so that supertypes can be
	// resolved, such as dependency modules.
	ShouldMock bool

	Directives   []CompilationDirective
	Declarations []*Declaration
}

// CompilationDirective is a conditional-compilation region of a file.
// Condition is the effective condition for code in [Start, End), with
// preceding branches of the same #if chain negated.
type CompilationDirective struct {
	Start     int
	End       int
	Condition string
}

// Contains reports whether a byte offset falls inside the region.
func (c CompilationDirective) Contains(offset int) bool {
	return offset >= c.Start && offset < c.End
}

// Declaration is one structural unit as reported by the parser. Offsets are
// byte offsets into File.Contents. A BodyOffset of zero means the declaration
// has no body; otherwise it points at the opening brace.
type Declaration struct {
	Kind                Kind
	Name                string
	TypeName            string
	ContainingTypeNames []string
	InheritedTypes      []string
	Attributes          Attributes
	Access              AccessLevel
	Settable            bool

	Offset     int
	Length     int
	NameOffset int
	NameLength int
	BodyOffset int
	BodyLength int

	Substructure []*Declaration
	File         *File
}

// Module returns the declaring module name.
func (d *Declaration) Module() string {
	if d.File == nil {
		return ""
	}
	return d.File.Module
}

// QualifiedName is the declaration's name prefixed with its containing types.
func (d *Declaration) QualifiedName() string {
	if len(d.ContainingTypeNames) == 0 {
		return d.Name
	}
	return strings.Join(d.ContainingTypeNames, ".") + "." + d.Name
}

// FullyQualifiedName is the module-qualified name used as the group key.
func (d *Declaration) FullyQualifiedName() string {
	if m := d.Module(); m != "" {
		return m + "." + d.QualifiedName()
	}
	return d.QualifiedName()
}

// Scope is the lookup scope a reference inside this declaration's header
// resolves in.
func (d *Declaration) Scope() Scope {
	s := Scope{ContainingTypeNames: d.ContainingTypeNames}
	if d.File != nil {
		s.Module = d.File.Module
		s.Imports = d.File.Imports
	}
	return s
}

// InnerScope is the lookup scope of the declaration's members, which can see
// types nested inside it.
func (d *Declaration) InnerScope() Scope {
	s := d.Scope()
	inner := make([]string, 0, len(d.ContainingTypeNames)+1)
	inner = append(inner, d.ContainingTypeNames...)
	inner = append(inner, strings.Split(d.Name, ".")...)
	s.ContainingTypeNames = inner
	return s
}

func (d *Declaration) source(start, end int) string {
	if d.File == nil {
		return ""
	}
	n := len(d.File.Contents)
	if start < 0 || end > n || start > end {
		return ""
	}
	return string(d.File.Contents[start:end])
}

// Text returns the full source text of the declaration.
func (d *Declaration) Text() string {
	return d.source(d.Offset, d.Offset+d.Length)
}

// HasBody reports whether the declaration has a braced body.
func (d *Declaration) HasBody() bool {
	return d.BodyOffset > 0
}

// HeaderText returns the declaration text up to its body, or the whole text
// for declarations without one.
func (d *Declaration) HeaderText() string {
	if d.HasBody() {
		return d.source(d.Offset, d.BodyOffset)
	}
	return d.Text()
}

// NameSuffixUpToBody returns the text between the end of the name and the
// opening brace: generic parameters, inheritance list and where clause.
func (d *Declaration) NameSuffixUpToBody() string {
	start := d.NameOffset + d.NameLength
	if d.NameLength == 0 {
		start = d.Offset
	}
	end := d.Offset + d.Length
	if d.HasBody() {
		end = d.BodyOffset
	}
	return strings.TrimSuffix(d.source(start, end), "{")
}

// Directives returns the file's compilation directives enclosing the
// declaration.
func (d *Declaration) Directives() []CompilationDirective {
	if d.File == nil {
		return nil
	}
	var out []CompilationDirective
	for _, cd := range d.File.Directives {
		if cd.Contains(d.Offset) {
			out = append(out, cd)
		}
	}
	return out
}

// Walk visits d and its substructure depth-first.
func (d *Declaration) Walk(fn func(*Declaration) bool) {
	if !fn(d) {
		return
	}
	for _, sub := range d.Substructure {
		sub.Walk(fn)
	}
}
