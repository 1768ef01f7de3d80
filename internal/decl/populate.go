package decl

// Index bundles the repositories built from one set of parsed files.
type Index struct {
	Types   *Repository
	Aliases *AliasRepository
	Modules []string
	Files   []*File
}

// Populate builds the declaration and alias repositories from parsed files.
// When knownModules is empty, the modules are taken from the files in order
// of first appearance. Files should be passed in a stable order; group
// member order follows it.
func Populate(files []*File, knownModules []string) *Index {
	modules := knownModules
	if len(modules) == 0 {
		seen := make(map[string]bool)
		for _, f := range files {
			if f.Module != "" && !seen[f.Module] {
				seen[f.Module] = true
				modules = append(modules, f.Module)
			}
		}
	}

	idx := &Index{
		Types:   NewRepository(modules),
		Aliases: NewAliasRepository(modules),
		Modules: modules,
		Files:   files,
	}
	for _, f := range files {
		for _, d := range f.Declarations {
			d.Walk(func(n *Declaration) bool {
				switch {
				case n.Kind.IsTypeDeclaration():
					idx.Types.Register(n)
					return true
				case n.Kind == KindTypealias:
					idx.Aliases.RegisterDeclaration(n)
				}
				return false
			})
		}
	}
	idx.Types.Finalize()
	return idx
}
