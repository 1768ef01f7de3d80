package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
)

// formatTypesText formats CLIType results as aligned columns.
func formatTypesText(w io.Writer, types []CLIType) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTYPE\tKIND\tMOCK\tFLAGS")
	for _, t := range types {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%t\t%s\n",
			t.ID, t.FullyQualifiedName, t.Kind, t.ShouldMock, typeFlags(t))
	}
	tw.Flush()
}

// typeFlags summarizes the boolean descriptor flags, or "-" if none is set.
func typeFlags(t CLIType) string {
	var flags []string
	if t.IsContainedType {
		flags = append(flags, "nested")
	}
	if t.SubclassesExternalType {
		flags = append(flags, "external-super")
	}
	if t.HasOpaqueInheritedType {
		flags = append(flags, "opaque")
	}
	if len(flags) == 0 {
		return "-"
	}
	return strings.Join(flags, ",")
}

// formatTypeDetailText formats one descriptor as readable text.
func formatTypeDetailText(w io.Writer, d CLITypeDetail) {
	fmt.Fprintf(w, "%s %s\n", d.Kind, d.FullyQualifiedName)
	fmt.Fprintf(w, "Identity: %s\n", d.Identity)
	fmt.Fprintf(w, "Mock: %t\n", d.ShouldMock)
	if len(d.Attributes) > 0 {
		fmt.Fprintf(w, "Attributes: %s\n", strings.Join(d.Attributes, ", "))
	}
	if len(d.Generics) > 0 {
		gs := make([]string, len(d.Generics))
		for i, g := range d.Generics {
			gs[i] = g.Name
			if len(g.Constraints) > 0 {
				gs[i] += ": " + strings.Join(g.Constraints, " & ")
			}
		}
		fmt.Fprintf(w, "Generics: <%s>\n", strings.Join(gs, ", "))
	}
	writeList(w, "Where", d.WhereClauses)
	writeList(w, "Inherits", d.Inherits)
	writeList(w, "Self conformance", d.SelfConformance)
	writeList(w, "Directives", d.Directives)

	if len(d.Methods) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Methods:")
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		for _, m := range d.Methods {
			overloads := ""
			if m.Overloads > 1 {
				overloads = fmt.Sprintf("(%d overloads)", m.Overloads)
			}
			fmt.Fprintf(tw, "  %s\t%s\n", m.Signature, overloads)
		}
		tw.Flush()
	}
	if len(d.Variables) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Variables:")
		for _, v := range d.Variables {
			fmt.Fprintf(w, "  %s\n", v.Signature)
		}
	}
}

func writeList(w io.Writer, label string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(w, "%s: %s\n", label, strings.Join(items, ", "))
}

// formatFilesText formats CLIFile results as aligned columns.
func formatFilesText(w io.Writer, files []CLIFile) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tMODULE\tDECLS\tPATH")
	for _, f := range files {
		fmt.Fprintf(tw, "%d\t%s\t%d\t%s\n", f.ID, f.Module, f.Declarations, f.Path)
	}
	tw.Flush()
}

// formatResolveText formats a resolve summary as readable text.
func formatResolveText(w io.Writer, s CLIResolveSummary) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "MODULE\tMOCK\tFILES\tUNCHANGED\tDECLS")
	for _, m := range s.Modules {
		fmt.Fprintf(tw, "%s\t%t\t%d\t%d\t%d\n", m.Name, m.Mock, m.Files, m.Unchanged, m.Declarations)
	}
	tw.Flush()
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Resolved %d types (%d mocked, %d opaque, %d skipped) in %dms\n",
		s.Types, s.Mocked, s.Opaque, len(s.Skipped), s.ElapsedMS)
	fmt.Fprintf(w, "Database: %s\n", s.Database)
}

// outputResultText dispatches to the appropriate text formatter based on the
// result type.
func outputResultText(w io.Writer, result CLIResult) error {
	switch v := result.Results.(type) {
	case []CLIType:
		formatTypesText(w, v)
	case CLITypeDetail:
		formatTypeDetailText(w, v)
	case []CLIFile:
		formatFilesText(w, v)
	case CLIResolveSummary:
		formatResolveText(w, v)
	case nil:
	default:
		return fmt.Errorf("unsupported result type for text format: %T", v)
	}
	return nil
}

// validFormats lists accepted values for --format.
var validFormats = []string{"json", "text"}

// validateFormat checks that the --format flag value is recognized.
func validateFormat(format string) error {
	for _, f := range validFormats {
		if format == f {
			return nil
		}
	}
	return fmt.Errorf("invalid format %q: must be %s", format, strings.Join(validFormats, " or "))
}
