// Package mockgraph resolves Swift source into flattened, mockable type
// descriptors. It parses classes and protocols with tree-sitter, follows
// inheritance, conformance and typealias chains across modules, and persists
// the resolved graph to SQLite for code generators to consume.
//
// # Pipeline
//
// mockgraph operates in two phases:
//
//  1. Index: For each source file, parse with tree-sitter into raw
//     declarations, recording imports and conditional-compilation regions.
//     Files of dependency modules are indexed too so that inherited members
//     can be flattened into subtypes.
//
//  2. Resolve: Populate the declaration and alias repositories, build every
//     class and protocol bottom-up in dependency layers, order the result
//     and write it to the Store, replacing the previous resolution.
//
// # Usage
//
// Create an Engine, index modules, and resolve:
//
//	e, err := mockgraph.New(".mockgraph.db")
//	if err != nil { ... }
//	defer e.Close()
//
//	ctx := context.Background()
//	_, err = e.IndexModule(ctx, "Core", []string{"Sources/Core"}, false)
//	_, err = e.IndexModule(ctx, "App", []string{"Sources/App"}, true)
//	res, err := e.Resolve(ctx)
//
//	for _, t := range res.Mocked() {
//		fmt.Println(t.FullyQualifiedName, len(t.Methods))
//	}
//
// # Policy Scripts
//
// [WithPolicyScript] installs a Risor script that is evaluated once per
// otherwise mockable type. The script sees the globals name, module, kind,
// attributes and is_nested, and its final value decides whether the type is
// slated for output. Scripts can also read the previous resolution through
// persisted_type, persisted_types and inheritors_of.
package mockgraph
