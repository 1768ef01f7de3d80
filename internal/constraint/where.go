package constraint

import (
	"strings"
)

// Relation is the operator of a where-clause.
type Relation int

const (
	// Conforms is `A: B`.
	Conforms Relation = iota
	// SameType is `A == B`.
	SameType
)

func (r Relation) String() string {
	if r == SameType {
		return "=="
	}
	return ":"
}

// WhereClause is one free-standing generic requirement.
type WhereClause struct {
	ConstrainedName string
	Relation        Relation
	OtherName       string
}

func (w WhereClause) String() string {
	if w.Relation == SameType {
		return w.ConstrainedName + " == " + w.OtherName
	}
	return w.ConstrainedName + ": " + w.OtherName
}

// ParseWhereClause parses a single requirement. Malformed text returns false.
func ParseWhereClause(s string) (WhereClause, bool) {
	s = strings.TrimSpace(s)
	if idx := IndexTopLevel(s, "=="); idx >= 0 {
		lhs := strings.TrimSpace(s[:idx])
		rhs := strings.TrimSpace(s[idx+2:])
		if lhs == "" || rhs == "" {
			return WhereClause{}, false
		}
		return WhereClause{ConstrainedName: lhs, Relation: SameType, OtherName: rhs}, true
	}
	idx := IndexTopLevel(s, ":")
	if idx < 0 {
		return WhereClause{}, false
	}
	lhs := strings.TrimSpace(s[:idx])
	rhs := strings.TrimSpace(s[idx+1:])
	if lhs == "" || rhs == "" || strings.HasPrefix(rhs, ":") {
		return WhereClause{}, false
	}
	return WhereClause{ConstrainedName: lhs, Relation: Conforms, OtherName: rhs}, true
}

// ParseWhereClauses parses the comma-separated requirement list following a
// `where` keyword. Malformed entries are dropped; absent text yields nil.
func ParseWhereClauses(text string) []WhereClause {
	var clauses []WhereClause
	for _, part := range SplitTopLevel(text, ',') {
		if c, ok := ParseWhereClause(part); ok {
			clauses = append(clauses, c)
		}
	}
	return clauses
}

// HeadComponent returns the first dotted component of a type path, ignoring
// generic typing: "T.Element" yields "T".
func HeadComponent(name string) string {
	name = RemoveGenericTyping(name)
	if idx := strings.IndexByte(name, '.'); idx >= 0 {
		return name[:idx]
	}
	return name
}
