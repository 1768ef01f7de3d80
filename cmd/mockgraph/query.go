package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jward/mockgraph/internal/store"
)

var (
	flagModule     string
	flagMockedOnly bool
)

var typesCmd = &cobra.Command{
	Use:   "types",
	Short: "List resolved descriptors in output order",
	Args:  cobra.NoArgs,
	RunE:  runTypes,
}

var showCmd = &cobra.Command{
	Use:   "show <name>",
	Short: "Show one descriptor with its flattened members",
	Long:  "Looks the type up by fully-qualified name first, then by name. A name matching types in several modules is an error.",
	Args:  cobra.ExactArgs(1),
	RunE:  runShow,
}

var filesCmd = &cobra.Command{
	Use:   "files",
	Short: "List indexed source files",
	Args:  cobra.NoArgs,
	RunE:  runFiles,
}

func init() {
	typesCmd.Flags().StringVar(&flagModule, "module", "", "only types of this module")
	typesCmd.Flags().BoolVar(&flagMockedOnly, "mocked", false, "only types slated for output")
	filesCmd.Flags().StringVar(&flagModule, "module", "", "only files of this module")
}

// --- Helpers ---

// openStore opens the Store from the --db flag path (or default).
func openStore() (*store.Store, error) {
	dbPath, err := resolveDBPath()
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("database not found: %s (run 'mockgraph resolve' first)", dbPath)
	}
	return store.NewStore(dbPath)
}

// outputResult marshals a CLIResult to stdout in the selected format.
func outputResult(result CLIResult) error {
	if flagFormat == "text" {
		return outputResultText(os.Stdout, result)
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

// outputError writes an error in the selected format and returns it so RunE
// can propagate it to Cobra. In JSON mode the error is written to stdout as a
// CLIResult envelope. In text mode it goes to stderr.
func outputError(command string, err error) error {
	errorHandled = true
	if flagFormat == "text" {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		return err
	}
	result := CLIResult{
		Command: command,
		Error:   err.Error(),
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(result)
	return err
}

// --- Commands ---

func runTypes(cmd *cobra.Command, args []string) error {
	s, err := openStore()
	if err != nil {
		return outputError("types", err)
	}
	defer s.Close()

	types, err := listTypes(s, flagModule, flagMockedOnly)
	if err != nil {
		return outputError("types", err)
	}
	count := len(types)
	return outputResult(CLIResult{Command: "types", Results: types, TotalCount: &count})
}

func runShow(cmd *cobra.Command, args []string) error {
	s, err := openStore()
	if err != nil {
		return outputError("show", err)
	}
	defer s.Close()

	detail, err := showType(s, args[0])
	if err != nil {
		return outputError("show", err)
	}
	return outputResult(CLIResult{Command: "show", Results: *detail})
}

func runFiles(cmd *cobra.Command, args []string) error {
	s, err := openStore()
	if err != nil {
		return outputError("files", err)
	}
	defer s.Close()

	var files []*store.File
	if flagModule != "" {
		files, err = s.FilesByModule(flagModule)
	} else {
		files, err = s.Files()
	}
	if err != nil {
		return outputError("files", err)
	}
	out := make([]CLIFile, len(files))
	for i, f := range files {
		out[i] = CLIFile{
			ID:           f.ID,
			Path:         f.Path,
			Module:       f.Module,
			ShouldMock:   f.ShouldMock,
			Declarations: f.Declarations,
		}
	}
	count := len(out)
	return outputResult(CLIResult{Command: "files", Results: out, TotalCount: &count})
}

// listTypes loads descriptors in output order, optionally restricted to one
// module or to the types slated for output.
func listTypes(s *store.Store, module string, mockedOnly bool) ([]CLIType, error) {
	var (
		types []*store.MockableType
		err   error
	)
	if module != "" {
		types, err = s.TypesByModule(module)
	} else {
		types, err = s.Types()
	}
	if err != nil {
		return nil, err
	}
	out := make([]CLIType, 0, len(types))
	for _, t := range types {
		if mockedOnly && !t.ShouldMock {
			continue
		}
		out = append(out, toCLIType(t))
	}
	return out, nil
}

// showType loads one descriptor and its child rows.
func showType(s *store.Store, name string) (*CLITypeDetail, error) {
	matches, err := s.TypeByName(name)
	if err != nil {
		return nil, err
	}
	switch len(matches) {
	case 0:
		return nil, fmt.Errorf("no type named %q", name)
	case 1:
	default:
		return nil, fmt.Errorf("%q is ambiguous: matches %d types, use the fully-qualified name", name, len(matches))
	}
	t := matches[0]

	detail := &CLITypeDetail{CLIType: toCLIType(t), Identity: t.Identity}

	methods, err := s.MethodsOf(t.ID)
	if err != nil {
		return nil, err
	}
	for _, m := range methods {
		detail.Methods = append(detail.Methods, CLIMethod{
			Name:       m.Name,
			Kind:       m.Kind,
			Signature:  m.Signature,
			ReturnType: m.ReturnType,
			Attributes: m.Attributes,
			Overloads:  m.Overloads,
		})
	}

	vars, err := s.VariablesOf(t.ID)
	if err != nil {
		return nil, err
	}
	for _, v := range vars {
		detail.Variables = append(detail.Variables, CLIVariable{
			Name:      v.Name,
			Kind:      v.Kind,
			TypeName:  v.TypeName,
			Settable:  v.Settable,
			Signature: v.Signature,
		})
	}

	inherited, err := s.InheritedOf(t.ID)
	if err != nil {
		return nil, err
	}
	for _, it := range inherited {
		if it.Relation == store.RelationSelfConformance {
			detail.SelfConformance = append(detail.SelfConformance, it.FullyQualifiedName)
		} else {
			detail.Inherits = append(detail.Inherits, it.FullyQualifiedName)
		}
	}

	generics, err := s.GenericsOf(t.ID)
	if err != nil {
		return nil, err
	}
	for _, g := range generics {
		detail.Generics = append(detail.Generics, CLIGeneric{Name: g.Name, Constraints: g.Constraints})
	}

	clauses, err := s.WhereClausesOf(t.ID)
	if err != nil {
		return nil, err
	}
	for _, w := range clauses {
		detail.WhereClauses = append(detail.WhereClauses, w.Clause)
	}

	directives, err := s.DirectivesOf(t.ID)
	if err != nil {
		return nil, err
	}
	for _, d := range directives {
		detail.Directives = append(detail.Directives, d.Condition)
	}
	return detail, nil
}

func toCLIType(t *store.MockableType) CLIType {
	return CLIType{
		ID:                     t.ID,
		Name:                   t.Name,
		Module:                 t.Module,
		FullyQualifiedName:     t.FullyQualifiedName,
		Kind:                   t.Kind,
		ShouldMock:             t.ShouldMock,
		Attributes:             t.Attributes,
		IsContainedType:        t.IsContainedType,
		SubclassesExternalType: t.SubclassesExternalType,
		HasOpaqueInheritedType: t.HasOpaqueInheritedType,
	}
}
