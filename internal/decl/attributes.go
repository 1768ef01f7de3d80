package decl

import "strings"

// Attributes is a set of declaration attributes and modifiers, stored as a
// bit set over a closed vocabulary.
type Attributes uint32

const (
	AttrFinal Attributes = 1 << iota
	AttrRequired
	AttrConvenience
	AttrOverride
	AttrMutating
	AttrThrows
	AttrRethrows
	AttrAsync
	AttrObjC
	AttrOptional
	AttrDynamic
	AttrLazy
	AttrWeak
	AttrUnavailable
)

var attributeNames = []struct {
	attr Attributes
	name string
}{
	{AttrFinal, "final"},
	{AttrRequired, "required"},
	{AttrConvenience, "convenience"},
	{AttrOverride, "override"},
	{AttrMutating, "mutating"},
	{AttrThrows, "throws"},
	{AttrRethrows, "rethrows"},
	{AttrAsync, "async"},
	{AttrObjC, "objc"},
	{AttrOptional, "optional"},
	{AttrDynamic, "dynamic"},
	{AttrLazy, "lazy"},
	{AttrWeak, "weak"},
	{AttrUnavailable, "unavailable"},
}

// ParseAttribute maps a modifier or attribute token ("final", "@objc") to its
// attribute.
func ParseAttribute(token string) (Attributes, bool) {
	token = strings.TrimPrefix(token, "@")
	for _, an := range attributeNames {
		if an.name == token {
			return an.attr, true
		}
	}
	return 0, false
}

// Has reports whether every attribute in other is present.
func (a Attributes) Has(other Attributes) bool {
	return a&other == other
}

// Names returns the attribute names in vocabulary order.
func (a Attributes) Names() []string {
	var names []string
	for _, an := range attributeNames {
		if a&an.attr != 0 {
			names = append(names, an.name)
		}
	}
	return names
}

func (a Attributes) String() string {
	return strings.Join(a.Names(), ",")
}

// ParseAttributes is the inverse of Attributes.String.
func ParseAttributes(s string) Attributes {
	var a Attributes
	for _, tok := range strings.Split(s, ",") {
		if attr, ok := ParseAttribute(strings.TrimSpace(tok)); ok {
			a |= attr
		}
	}
	return a
}
