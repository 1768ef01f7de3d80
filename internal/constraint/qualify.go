package constraint

import "strings"

// passthrough words are never handed to a qualifier.
var passthrough = map[string]bool{
	"Self":      true,
	"Any":       true,
	"AnyObject": true,
	"inout":     true,
	"some":      true,
	"any":       true,
	"throws":    true,
	"rethrows":  true,
	"async":     true,
	"where":     true,
	"let":       true,
	"var":       true,
	"_":         true,
}

// metatype suffixes are kept outside the qualified path.
var metatypeSuffixes = []string{".Type", ".Protocol"}

// QualifyTypeExpr rewrites every type path in expr through qualify. A path is
// a run of dotted identifiers; member paths following a closing group (the
// ".Index" in "Array<T>.Index") and attribute names ("@escaping") are left
// untouched, as are keywords and the implicit self type.
func QualifyTypeExpr(expr string, qualify func(path string) string) string {
	if qualify == nil {
		return expr
	}
	var b strings.Builder
	i := 0
	for i < len(expr) {
		c := expr[i]
		if !isIdentByte(c) || (c >= '0' && c <= '9') {
			b.WriteByte(c)
			i++
			continue
		}
		start := i
		for i < len(expr) && (isIdentByte(expr[i]) || (expr[i] == '.' && i+1 < len(expr) && isIdentByte(expr[i+1]))) {
			i++
		}
		path := expr[start:i]
		prev := byte(0)
		if start > 0 {
			prev = expr[start-1]
		}
		if prev == '@' || prev == '.' || passthrough[path] {
			b.WriteString(path)
			continue
		}
		suffix := ""
		for _, s := range metatypeSuffixes {
			if strings.HasSuffix(path, s) {
				suffix = s
				path = strings.TrimSuffix(path, s)
				break
			}
		}
		if passthrough[HeadComponent(path)] {
			b.WriteString(path)
		} else {
			b.WriteString(qualify(path))
		}
		b.WriteString(suffix)
	}
	return b.String()
}
