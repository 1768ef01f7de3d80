package store

import "time"

// Indexing domain types

type File struct {
	ID           int64
	Path         string
	Module       string
	Hash         string
	ShouldMock   bool
	Declarations int
	LastIndexed  time.Time
}

// Descriptor domain types

type MockableType struct {
	ID                     int64
	Ordinal                int
	Name                   string
	Module                 string
	FullyQualifiedName     string
	Kind                   string
	Identity               string
	ShouldMock             bool
	Attributes             []string
	IsContainedType        bool
	SubclassesExternalType bool
	HasOpaqueInheritedType bool
	SignatureHash          string
}

type Method struct {
	ID         int64
	TypeID     int64
	Name       string
	ShortName  string
	Kind       string
	Signature  string
	ReturnType string
	Attributes []string
	Overloads  int
}

type Variable struct {
	ID        int64
	TypeID    int64
	Name      string
	Kind      string
	TypeName  string
	Settable  bool
	Signature string
}

// Relations recorded in type_inheritance.
const (
	RelationInherits        = "inherits"
	RelationSelfConformance = "self_conformance"
)

type InheritedType struct {
	ID                 int64
	TypeID             int64
	FullyQualifiedName string
	Relation           string
}

type GenericType struct {
	ID          int64
	TypeID      int64
	Name        string
	Ordinal     int
	Constraints []string
}

type WhereClause struct {
	ID      int64
	TypeID  int64
	Ordinal int
	Clause  string
}

type Directive struct {
	ID        int64
	TypeID    int64
	Ordinal   int
	Condition string
}

// TypeRecord bundles one descriptor with its child rows for SaveResult.
// TypeID fields of the children are assigned on insert.
type TypeRecord struct {
	Type         MockableType
	Methods      []Method
	Variables    []Variable
	Inherited    []InheritedType
	Generics     []GenericType
	WhereClauses []WhereClause
	Directives   []Directive
}
