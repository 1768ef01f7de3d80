package runtime

import (
	"context"

	"github.com/risor-io/risor/object"

	"github.com/jward/mockgraph/internal/store"
)

// Store host functions are read-only: a policy may consult the previous
// resolution but never writes to it.

// persisted_type(name) → list of type maps matching a plain or
// fully-qualified name.
func makePersistedTypeFn(s *store.Store) *object.Builtin {
	return object.NewBuiltin("persisted_type", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 1 {
			return object.NewArgsError("persisted_type", 1, len(args))
		}
		nameStr, ok := args[0].(*object.String)
		if !ok {
			return object.Errorf("persisted_type: expected string, got %s", args[0].Type())
		}

		types, err := s.TypeByName(nameStr.Value())
		if err != nil {
			return object.Errorf("persisted_type: %v", err)
		}
		return typesToList(types)
	})
}

// persisted_types(module) → list of type maps declared in module.
func makePersistedTypesFn(s *store.Store) *object.Builtin {
	return object.NewBuiltin("persisted_types", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 1 {
			return object.NewArgsError("persisted_types", 1, len(args))
		}
		moduleStr, ok := args[0].(*object.String)
		if !ok {
			return object.Errorf("persisted_types: expected string, got %s", args[0].Type())
		}

		types, err := s.TypesByModule(moduleStr.Value())
		if err != nil {
			return object.Errorf("persisted_types: %v", err)
		}
		return typesToList(types)
	})
}

// inheritors_of(fqn) → list of type maps that inherit from fqn.
func makeInheritorsOfFn(s *store.Store) *object.Builtin {
	return object.NewBuiltin("inheritors_of", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 1 {
			return object.NewArgsError("inheritors_of", 1, len(args))
		}
		fqnStr, ok := args[0].(*object.String)
		if !ok {
			return object.Errorf("inheritors_of: expected string, got %s", args[0].Type())
		}

		types, err := s.InheritorsOf(fqnStr.Value())
		if err != nil {
			return object.Errorf("inheritors_of: %v", err)
		}
		return typesToList(types)
	})
}

func typesToList(types []*store.MockableType) object.Object {
	results := make([]object.Object, 0, len(types))
	for _, t := range types {
		results = append(results, object.NewMap(map[string]object.Object{
			"name":        object.NewString(t.Name),
			"module":      object.NewString(t.Module),
			"fqn":         object.NewString(t.FullyQualifiedName),
			"kind":        object.NewString(t.Kind),
			"identity":    object.NewString(t.Identity),
			"should_mock": object.NewBool(t.ShouldMock),
			"attributes":  stringList(t.Attributes),
		}))
	}
	return object.NewList(results)
}
