package swiftsrc

import (
	"strings"

	"github.com/jward/mockgraph/internal/constraint"
	"github.com/jward/mockgraph/internal/decl"
)

// Tree-sitter gives declaration boundaries; the header text in front of a
// body is read here with the constraint grammar.

func isIdent(c byte) bool {
	return c == '_' || c == '$' ||
		(c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') ||
		c >= 0x80
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

type scanner struct {
	s   string
	pos int
}

func (sc *scanner) skipSpace() {
	for sc.pos < len(sc.s) && isSpace(sc.s[sc.pos]) {
		sc.pos++
	}
}

func (sc *scanner) peek() byte {
	if sc.pos < len(sc.s) {
		return sc.s[sc.pos]
	}
	return 0
}

// ident reads one identifier, unwrapping backticks.
func (sc *scanner) ident() string {
	sc.skipSpace()
	if sc.peek() == '`' {
		if end := strings.IndexByte(sc.s[sc.pos+1:], '`'); end >= 0 {
			id := sc.s[sc.pos+1 : sc.pos+1+end]
			sc.pos += end + 2
			return id
		}
	}
	start := sc.pos
	for sc.pos < len(sc.s) && isIdent(sc.s[sc.pos]) {
		sc.pos++
	}
	return sc.s[start:sc.pos]
}

// path reads a dotted identifier path.
func (sc *scanner) path() string {
	var parts []string
	for {
		id := sc.ident()
		if id == "" {
			break
		}
		parts = append(parts, id)
		if sc.peek() != '.' {
			break
		}
		sc.pos++
	}
	return strings.Join(parts, ".")
}

func (sc *scanner) skipGroup() bool {
	if end := constraint.MatchingClose(sc.s, sc.pos); end >= 0 {
		sc.pos = end + 1
		return true
	}
	return false
}

func (sc *scanner) rest() string {
	return sc.s[sc.pos:]
}

var memberKeywords = map[string]bool{
	"func": true, "var": true, "let": true, "subscript": true, "typealias": true, "init": true,
}

var modifierWords = map[string]bool{
	"static": true, "class": true, "override": true, "required": true, "convenience": true,
	"mutating": true, "nonmutating": true, "dynamic": true, "lazy": true, "weak": true,
	"unowned": true, "optional": true, "indirect": true, "final": true, "nonisolated": true,
	"distributed": true, "package": true,
	"open": true, "public": true, "internal": true, "fileprivate": true, "private": true,
}

// prefix is the attribute and modifier run in front of a declaration
// keyword.
type prefix struct {
	attrs            decl.Attributes
	access           decl.AccessLevel
	hasAccess        bool
	setterRestricted bool
	static           bool
	class            bool
	keyword          string
}

func scanPrefix(sc *scanner) prefix {
	p := prefix{access: decl.AccessInternal}
	for {
		sc.skipSpace()
		if sc.pos >= len(sc.s) {
			return p
		}
		if sc.peek() == '@' {
			sc.pos++
			if a, ok := decl.ParseAttribute(sc.ident()); ok {
				p.attrs |= a
			}
			if sc.peek() == '(' {
				sc.skipGroup()
			}
			continue
		}
		w := sc.ident()
		if w == "" {
			return p
		}
		if w == "class" && !sc.followedByMember() {
			p.keyword = w
			return p
		}
		if !modifierWords[w] {
			p.keyword = w
			return p
		}
		if sc.peek() == '(' {
			// private(set), unowned(safe)
			sc.skipGroup()
			if w == "private" || w == "fileprivate" {
				p.setterRestricted = true
			}
			continue
		}
		p.apply(w)
	}
}

// followedByMember reports whether the next word continues a member
// declaration, which makes a preceding "class" a modifier.
func (sc *scanner) followedByMember() bool {
	save := sc.pos
	next := sc.ident()
	sc.pos = save
	return memberKeywords[next] || modifierWords[next]
}

func (p *prefix) apply(w string) {
	if level, ok := decl.ParseAccessLevel(w); ok {
		p.access = level
		p.hasAccess = true
		return
	}
	switch w {
	case "static":
		p.static = true
	case "class":
		p.class = true
	}
	if a, ok := decl.ParseAttribute(w); ok {
		p.attrs |= a
	}
}

// accessOr returns the explicit access level, or def when none was written.
func (p prefix) accessOr(def decl.AccessLevel) decl.AccessLevel {
	if p.hasAccess {
		return p.access
	}
	return def
}

type genericParam struct {
	name  string
	bound string
}

func parseGenericParams(inner string) []genericParam {
	var out []genericParam
	for _, part := range constraint.SplitTopLevel(inner, ',') {
		if colon := constraint.IndexTopLevel(part, ":"); colon >= 0 {
			out = append(out, genericParam{
				name:  strings.TrimSpace(part[:colon]),
				bound: strings.TrimSpace(part[colon+1:]),
			})
			continue
		}
		out = append(out, genericParam{name: part})
	}
	return out
}

// genericClause reads a `<...>` group directly at the scanner position.
func (sc *scanner) genericClause() []genericParam {
	if sc.peek() != '<' {
		return nil
	}
	start := sc.pos
	if !sc.skipGroup() {
		return nil
	}
	return parseGenericParams(sc.s[start+1 : sc.pos-1])
}

var typeKinds = map[string]decl.Kind{
	"class":     decl.KindClass,
	"struct":    decl.KindStruct,
	"enum":      decl.KindEnum,
	"protocol":  decl.KindProtocol,
	"extension": decl.KindExtension,
}

type typeHeader struct {
	prefix
	kind       decl.Kind
	name       string
	nameOffset int
	generics   []genericParam
	inherited  []string
}

// parseTypeHeader reads "[attrs] [modifiers] kind Name[<...>][: A, B] [where ...]".
func parseTypeHeader(text string) (typeHeader, bool) {
	sc := &scanner{s: text}
	h := typeHeader{prefix: scanPrefix(sc)}
	kind, ok := typeKinds[h.keyword]
	if !ok {
		return h, false
	}
	h.kind = kind
	sc.skipSpace()
	h.nameOffset = sc.pos
	if sc.peek() == '`' {
		h.nameOffset++
	}
	h.name = sc.path()
	if h.name == "" {
		return h, false
	}
	h.generics = sc.genericClause()
	sc.skipSpace()
	if sc.peek() == ':' {
		list, _, _ := constraint.SplitWhere(sc.rest()[1:])
		h.inherited = constraint.SplitTopLevel(list, ',')
	}
	return h, true
}

type paramSpec struct {
	label    string
	name     string
	typeName string
}

func parseParam(text string) paramSpec {
	colon := constraint.IndexTopLevel(text, ":")
	if colon < 0 {
		name := strings.TrimSpace(text)
		return paramSpec{label: "_", name: name}
	}
	names := strings.Fields(text[:colon])
	typ := text[colon+1:]
	if eq := constraint.IndexTopLevel(typ, "="); eq >= 0 {
		typ = typ[:eq]
	}
	p := paramSpec{typeName: strings.TrimSpace(typ)}
	switch len(names) {
	case 0:
	case 1:
		p.label = strings.Trim(names[0], "`")
		p.name = p.label
	default:
		p.label = strings.Trim(names[0], "`")
		p.name = strings.Trim(names[1], "`")
	}
	return p
}

type funcHeader struct {
	prefix
	name       string
	nameOffset int
	generics   []genericParam
	params     []paramSpec
	effects    decl.Attributes
	returnType string
	isInit     bool
}

// selector returns the full name with argument labels, e.g. "fetch(id:_:)".
func (h funcHeader) selector() string {
	var b strings.Builder
	b.WriteString(h.name)
	b.WriteByte('(')
	for _, p := range h.params {
		b.WriteString(p.label)
		b.WriteByte(':')
	}
	b.WriteByte(')')
	return b.String()
}

func isOperatorByte(c byte) bool {
	return strings.IndexByte("/=-+!*%<>&|^~?.", c) >= 0
}

// parseFuncHeader reads a function or initializer header up to its body.
func parseFuncHeader(text string) (funcHeader, bool) {
	sc := &scanner{s: text}
	h := funcHeader{prefix: scanPrefix(sc)}
	switch h.keyword {
	case "func":
		sc.skipSpace()
		h.nameOffset = sc.pos
		if isOperatorByte(sc.peek()) {
			start := sc.pos
			for sc.pos < len(sc.s) && isOperatorByte(sc.s[sc.pos]) {
				sc.pos++
			}
			h.name = sc.s[start:sc.pos]
			sc.skipSpace()
		} else {
			if sc.peek() == '`' {
				h.nameOffset++
			}
			h.name = sc.ident()
		}
	case "init":
		h.isInit = true
		h.name = "init"
		h.nameOffset = sc.pos - len("init")
		if c := sc.peek(); c == '?' || c == '!' {
			sc.pos++
		}
	default:
		return h, false
	}
	if h.name == "" {
		return h, false
	}

	h.generics = sc.genericClause()
	sc.skipSpace()
	if sc.peek() != '(' {
		return h, false
	}
	open := sc.pos
	if !sc.skipGroup() {
		return h, false
	}
	for _, part := range constraint.SplitTopLevel(sc.s[open+1:sc.pos-1], ',') {
		h.params = append(h.params, parseParam(part))
	}

	tail, _, _ := constraint.SplitWhere(sc.rest())
	effects := tail
	if arrow := constraint.IndexTopLevel(tail, "->"); arrow >= 0 {
		effects = tail[:arrow]
		h.returnType = strings.TrimSpace(tail[arrow+2:])
	}
	for _, e := range []decl.Attributes{decl.AttrAsync, decl.AttrThrows, decl.AttrRethrows} {
		if constraint.HasKeyword(effects, e.String()) {
			h.effects |= e
		}
	}
	return h, true
}

type varHeader struct {
	prefix
	name       string
	nameOffset int
	typeName   string
	settable   bool
}

// parseVarHeader reads a property declaration including any accessor block.
func parseVarHeader(text string) (varHeader, bool) {
	sc := &scanner{s: text}
	h := varHeader{prefix: scanPrefix(sc)}
	if h.keyword != "var" && h.keyword != "let" {
		return h, false
	}
	sc.skipSpace()
	h.nameOffset = sc.pos
	h.name = sc.ident()
	if h.name == "" {
		return h, false
	}
	rest := sc.rest()
	eq := constraint.IndexTopLevel(rest, "=")
	brace := constraint.IndexTopLevel(rest, "{")
	if eq >= 0 && (brace < 0 || eq < brace) {
		brace = -1
	}
	if colon := constraint.IndexTopLevel(rest, ":"); colon >= 0 {
		end := len(rest)
		for _, stop := range []int{eq, brace} {
			if stop > colon && stop < end {
				end = stop
			}
		}
		// A trailing comma starts another binding in the same declaration.
		typ := rest[colon+1 : end]
		if parts := constraint.SplitTopLevel(typ, ','); len(parts) > 0 {
			typ = parts[0]
		}
		h.typeName = strings.TrimSpace(typ)
	}

	switch {
	case h.keyword == "let" || h.setterRestricted:
		h.settable = false
	case brace >= 0:
		h.settable = accessorsAllowSet(rest[brace:])
	default:
		h.settable = true
	}
	return h, true
}

// accessorsAllowSet reports whether an accessor block declares a setter or
// observers, which make a property settable.
func accessorsAllowSet(block string) bool {
	end := constraint.MatchingClose(block, 0)
	if end < 0 {
		end = len(block)
	}
	inner := block[1:end]
	for _, kw := range []string{"set", "willSet", "didSet"} {
		if constraint.HasKeyword(inner, kw) {
			return true
		}
	}
	return false
}

// parseNamed reads the name of a typealias or associated type declaration,
// and for typealiases the aliased type.
func parseNamed(text, keyword string) (name string, nameOffset int, target string, ok bool) {
	sc := &scanner{s: text}
	p := scanPrefix(sc)
	if p.keyword != keyword {
		return "", 0, "", false
	}
	sc.skipSpace()
	nameOffset = sc.pos
	name = sc.ident()
	if name == "" {
		return "", 0, "", false
	}
	sc.genericClause()
	if eq := constraint.IndexTopLevel(sc.rest(), "="); eq >= 0 && keyword == "typealias" {
		target = strings.TrimSpace(sc.rest()[eq+1:])
	}
	return name, nameOffset, target, true
}

var importKinds = map[string]bool{
	"class": true, "struct": true, "enum": true, "protocol": true,
	"typealias": true, "func": true, "var": true, "let": true,
}

// parseImport returns the imported module of an import declaration.
func parseImport(text string) (string, bool) {
	sc := &scanner{s: text}
	if p := scanPrefix(sc); p.keyword != "import" {
		return "", false
	}
	save := sc.pos
	if !importKinds[sc.ident()] {
		sc.pos = save
	}
	path := sc.path()
	if path == "" {
		return "", false
	}
	module, _, _ := strings.Cut(path, ".")
	return module, true
}
