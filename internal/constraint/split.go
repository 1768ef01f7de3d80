// Package constraint implements the small grammar used to pull generic
// constraints and where-clauses out of raw declaration text.
//
// Declaration dictionaries do not carry structured where-clauses, so the
// resolver slices them out of the original source. Every helper here is
// grouping-aware: a separator or keyword nested inside (), [], {} or <> is
// never treated as top-level, and the "->" arrow never closes an angle group.
package constraint

import "strings"

func isOpen(c byte) bool {
	return c == '(' || c == '[' || c == '{' || c == '<'
}

func isClose(c byte) bool {
	return c == ')' || c == ']' || c == '}' || c == '>'
}

// isArrow reports whether s[i] is the '>' of a "->" token.
func isArrow(s string, i int) bool {
	return s[i] == '>' && i > 0 && s[i-1] == '-'
}

// SplitTopLevel splits s on sep, ignoring separators nested inside any
// grouping. Parts are trimmed and empty parts are dropped.
func SplitTopLevel(s string, sep byte) []string {
	var parts []string
	depth := 0
	start := 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case isArrow(s, i):
		case isOpen(c):
			depth++
		case isClose(c):
			if depth > 0 {
				depth--
			}
		case c == sep && depth == 0:
			parts = appendTrimmed(parts, s[start:i])
			start = i + 1
		}
	}
	return appendTrimmed(parts, s[start:])
}

func appendTrimmed(parts []string, s string) []string {
	s = strings.TrimSpace(s)
	if s == "" {
		return parts
	}
	return append(parts, s)
}

// MatchingClose returns the index of the bracket closing the group opened at
// s[open], or -1 if s[open] is not an opening bracket or the group is
// unbalanced.
func MatchingClose(s string, open int) int {
	if open < 0 || open >= len(s) || !isOpen(s[open]) {
		return -1
	}
	depth := 0
	for i := open; i < len(s); i++ {
		switch {
		case isArrow(s, i):
		case isOpen(s[i]):
			depth++
		case isClose(s[i]):
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// IndexTopLevel returns the index of the first top-level occurrence of sub
// in s, or -1.
func IndexTopLevel(s, sub string) int {
	if sub == "" {
		return -1
	}
	depth := 0
	for i := 0; i < len(s); i++ {
		if depth == 0 && strings.HasPrefix(s[i:], sub) {
			return i
		}
		switch {
		case isArrow(s, i):
		case isOpen(s[i]):
			depth++
		case isClose(s[i]):
			if depth > 0 {
				depth--
			}
		}
	}
	return -1
}

// IsTypePath reports whether s is a bare, possibly dotted, type name such as
// `String` or `Core.Service`, with no generic arguments or sugar.
func IsTypePath(s string) bool {
	if s == "" || s[0] == '.' || s[len(s)-1] == '.' {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] != '.' && !isIdentByte(s[i]) {
			return false
		}
	}
	return true
}

func isIdentByte(c byte) bool {
	return c == '_' || c == '$' ||
		(c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') ||
		c >= 0x80
}

// FindKeyword returns the index of the first top-level occurrence of kw as a
// whole word, or -1.
func FindKeyword(s, kw string) int {
	depth := 0
	for i := 0; i < len(s); i++ {
		if depth == 0 && strings.HasPrefix(s[i:], kw) {
			before := i == 0 || !isIdentByte(s[i-1])
			end := i + len(kw)
			after := end >= len(s) || !isIdentByte(s[end])
			if before && after {
				return i
			}
		}
		switch {
		case isArrow(s, i):
		case isOpen(s[i]):
			depth++
		case isClose(s[i]):
			if depth > 0 {
				depth--
			}
		}
	}
	return -1
}

// HasKeyword reports whether kw appears as a top-level word in s.
func HasKeyword(s, kw string) bool {
	return FindKeyword(s, kw) >= 0
}

// SplitWhere splits declaration text at its top-level `where` keyword. ok is
// false when there is no such keyword, in which case before is s unchanged.
func SplitWhere(s string) (before, clauses string, ok bool) {
	idx := FindKeyword(s, "where")
	if idx < 0 {
		return s, "", false
	}
	return s[:idx], s[idx+len("where"):], true
}

// RemoveGenericTyping strips every angle-bracket group from a type name, so
// "Array<Element>.Index" becomes "Array.Index".
func RemoveGenericTyping(name string) string {
	if !strings.ContainsRune(name, '<') {
		return strings.TrimSpace(name)
	}
	var b strings.Builder
	depth := 0
	for i := 0; i < len(name); i++ {
		c := name[i]
		switch {
		case c == '<':
			depth++
		case c == '>' && !isArrow(name, i):
			if depth > 0 {
				depth--
			}
		default:
			if depth == 0 {
				b.WriteByte(c)
			}
		}
	}
	return strings.TrimSpace(b.String())
}
