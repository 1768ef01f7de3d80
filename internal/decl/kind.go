package decl

import "strings"

// Kind is the closed set of declaration kinds the parser can produce.
type Kind int

const (
	KindUnknown Kind = iota
	KindClass
	KindStruct
	KindEnum
	KindProtocol
	KindExtension
	KindGenericTypeParam
	KindAssociatedType
	KindTypealias
	KindMethodInstance
	KindMethodStatic
	KindMethodClass
	KindInitializer
	KindVarInstance
	KindVarStatic
	KindVarClass
	KindParameter
)

var kindNames = [...]string{
	KindUnknown:          "unknown",
	KindClass:            "class",
	KindStruct:           "struct",
	KindEnum:             "enum",
	KindProtocol:         "protocol",
	KindExtension:        "extension",
	KindGenericTypeParam: "generic_type_param",
	KindAssociatedType:   "associatedtype",
	KindTypealias:        "typealias",
	KindMethodInstance:   "method_instance",
	KindMethodStatic:     "method_static",
	KindMethodClass:      "method_class",
	KindInitializer:      "initializer",
	KindVarInstance:      "var_instance",
	KindVarStatic:        "var_static",
	KindVarClass:         "var_class",
	KindParameter:        "parameter",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return kindNames[KindUnknown]
	}
	return kindNames[k]
}

// ParseKind is the inverse of Kind.String.
func ParseKind(s string) Kind {
	s = strings.TrimSpace(s)
	for k, name := range kindNames {
		if name == s {
			return Kind(k)
		}
	}
	return KindUnknown
}

// IsTypeDeclaration reports whether declarations of this kind form nominal
// type groups.
func (k Kind) IsTypeDeclaration() bool {
	switch k {
	case KindClass, KindStruct, KindEnum, KindProtocol, KindExtension:
		return true
	default:
		return false
	}
}

// IsMockable reports whether a base declaration of this kind can produce a
// mockable type.
func (k Kind) IsMockable() bool {
	switch k {
	case KindClass, KindProtocol:
		return true
	default:
		return false
	}
}

func (k Kind) IsMethod() bool {
	switch k {
	case KindMethodInstance, KindMethodStatic, KindMethodClass, KindInitializer:
		return true
	default:
		return false
	}
}

func (k Kind) IsVariable() bool {
	switch k {
	case KindVarInstance, KindVarStatic, KindVarClass:
		return true
	default:
		return false
	}
}

// AccessLevel is a declaration's visibility.
type AccessLevel int

const (
	AccessPrivate AccessLevel = iota
	AccessFilePrivate
	AccessInternal
	AccessPublic
	AccessOpen
)

var accessNames = [...]string{
	AccessPrivate:     "private",
	AccessFilePrivate: "fileprivate",
	AccessInternal:    "internal",
	AccessPublic:      "public",
	AccessOpen:        "open",
}

func (a AccessLevel) String() string {
	if a < 0 || int(a) >= len(accessNames) {
		return accessNames[AccessInternal]
	}
	return accessNames[a]
}

// ParseAccessLevel maps an access modifier token to its level.
func ParseAccessLevel(token string) (AccessLevel, bool) {
	for a, name := range accessNames {
		if name == token {
			return AccessLevel(a), true
		}
	}
	return AccessInternal, false
}

// IsMockableType reports whether a type with this access can be mocked.
// Types from modules being mocked only need to escape their file; types from
// other modules must be visible across the module boundary.
func (a AccessLevel) IsMockableType(withinSameModule bool) bool {
	if withinSameModule {
		return a != AccessPrivate && a != AccessFilePrivate
	}
	return a == AccessPublic || a == AccessOpen
}

// IsMockableMember reports whether a member with this access can be
// overridden or implemented by a generated mock of a root of the given kind.
// Protocol requirements share the protocol's visibility, and initializers
// only need to be callable.
func (a AccessLevel) IsMockableMember(withinSameModule bool, root Kind, initializer bool) bool {
	if withinSameModule || root == KindProtocol {
		return a != AccessPrivate && a != AccessFilePrivate
	}
	if initializer {
		return a == AccessPublic || a == AccessOpen
	}
	return a == AccessOpen
}
