package main

// CLIResult is the top-level JSON envelope for all commands.
type CLIResult struct {
	Command    string `json:"command"`
	Results    any    `json:"results"`
	TotalCount *int   `json:"total_count,omitempty"`
	Error      string `json:"error,omitempty"`
}

// CLIResolveSummary reports one resolve run.
type CLIResolveSummary struct {
	Database  string          `json:"database"`
	Modules   []CLIModuleStat `json:"modules"`
	Types     int             `json:"types"`
	Mocked    int             `json:"mocked"`
	Opaque    int             `json:"opaque"`
	Skipped   []CLISkip       `json:"skipped,omitempty"`
	ElapsedMS int64           `json:"elapsed_ms"`
}

// CLIModuleStat is the indexing result of one configured module.
type CLIModuleStat struct {
	Name         string `json:"name"`
	Mock         bool   `json:"mock"`
	Files        int    `json:"files"`
	Unchanged    int    `json:"unchanged"`
	Declarations int    `json:"declarations"`
}

// CLISkip is a type excluded from resolution.
type CLISkip struct {
	Type   string `json:"type"`
	Reason string `json:"reason"`
}

// CLIType is a JSON-friendly descriptor row.
type CLIType struct {
	ID                     int64    `json:"id"`
	Name                   string   `json:"name"`
	Module                 string   `json:"module"`
	FullyQualifiedName     string   `json:"fully_qualified_name"`
	Kind                   string   `json:"kind"`
	ShouldMock             bool     `json:"should_mock"`
	Attributes             []string `json:"attributes,omitempty"`
	IsContainedType        bool     `json:"is_contained_type"`
	SubclassesExternalType bool     `json:"subclasses_external_type"`
	HasOpaqueInheritedType bool     `json:"has_opaque_inherited_type"`
}

// CLIMethod is a JSON-friendly method.
type CLIMethod struct {
	Name       string   `json:"name"`
	Kind       string   `json:"kind"`
	Signature  string   `json:"signature"`
	ReturnType string   `json:"return_type,omitempty"`
	Attributes []string `json:"attributes,omitempty"`
	Overloads  int      `json:"overloads"`
}

// CLIVariable is a JSON-friendly property.
type CLIVariable struct {
	Name      string `json:"name"`
	Kind      string `json:"kind"`
	TypeName  string `json:"type_name"`
	Settable  bool   `json:"settable"`
	Signature string `json:"signature"`
}

// CLIGeneric is a JSON-friendly generic parameter.
type CLIGeneric struct {
	Name        string   `json:"name"`
	Constraints []string `json:"constraints,omitempty"`
}

// CLITypeDetail is one descriptor with all of its members.
type CLITypeDetail struct {
	CLIType
	Identity        string        `json:"identity"`
	Methods         []CLIMethod   `json:"methods"`
	Variables       []CLIVariable `json:"variables"`
	Inherits        []string      `json:"inherits,omitempty"`
	SelfConformance []string      `json:"self_conformance,omitempty"`
	Generics        []CLIGeneric  `json:"generics,omitempty"`
	WhereClauses    []string      `json:"where_clauses,omitempty"`
	Directives      []string      `json:"directives,omitempty"`
}

// CLIFile is a JSON-friendly indexed file.
type CLIFile struct {
	ID           int64  `json:"id"`
	Path         string `json:"path"`
	Module       string `json:"module"`
	ShouldMock   bool   `json:"should_mock"`
	Declarations int    `json:"declarations"`
}
