package swiftsrc

import (
	"bytes"
	"sort"
	"strings"

	"github.com/jward/mockgraph/internal/decl"
)

// scanDirectives finds #if/#elseif/#else/#endif regions. Each branch becomes
// one region whose condition negates the branches before it, so a
// declaration in an #else branch of `#if DEBUG` carries "!(DEBUG)".
// Unterminated regions run to the end of the source.
func scanDirectives(src []byte) []decl.CompilationDirective {
	type frame struct {
		prior []string
		cond  string
		start int
	}
	var (
		stack []frame
		out   []decl.CompilationDirective
	)
	closeTop := func(end int) {
		top := stack[len(stack)-1]
		out = append(out, decl.CompilationDirective{
			Start:     top.start,
			End:       end,
			Condition: effectiveCondition(top.prior, top.cond),
		})
	}

	for offset := 0; offset < len(src); {
		lineEnd := len(src)
		if i := bytes.IndexByte(src[offset:], '\n'); i >= 0 {
			lineEnd = offset + i
		}
		next := min(lineEnd+1, len(src))
		line := strings.TrimSpace(string(src[offset:lineEnd]))

		switch word, arg := directive(line); word {
		case "#if":
			stack = append(stack, frame{cond: arg, start: next})
		case "#elseif":
			if len(stack) > 0 {
				closeTop(offset)
				top := &stack[len(stack)-1]
				top.prior = append(top.prior, top.cond)
				top.cond = arg
				top.start = next
			}
		case "#else":
			if len(stack) > 0 {
				closeTop(offset)
				top := &stack[len(stack)-1]
				top.prior = append(top.prior, top.cond)
				top.cond = ""
				top.start = next
			}
		case "#endif":
			if len(stack) > 0 {
				closeTop(offset)
				stack = stack[:len(stack)-1]
			}
		}
		offset = next
	}
	for len(stack) > 0 {
		closeTop(len(src))
		stack = stack[:len(stack)-1]
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Start != out[j].Start {
			return out[i].Start < out[j].Start
		}
		return out[i].End > out[j].End
	})
	return out
}

func directive(line string) (word, arg string) {
	if !strings.HasPrefix(line, "#") {
		return "", ""
	}
	if i := strings.Index(line, "//"); i >= 0 {
		line = strings.TrimSpace(line[:i])
	}
	word, arg, _ = strings.Cut(line, " ")
	if strings.HasPrefix(word, "#if(") {
		return "#if", strings.TrimSpace(line[len("#if"):])
	}
	return word, strings.TrimSpace(arg)
}

func effectiveCondition(prior []string, cond string) string {
	parts := make([]string, 0, len(prior)+1)
	for _, p := range prior {
		parts = append(parts, "!("+p+")")
	}
	if cond != "" {
		parts = append(parts, cond)
	}
	return strings.Join(parts, " && ")
}
