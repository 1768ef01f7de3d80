package runtime

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jward/mockgraph/internal/resolve"
	"github.com/jward/mockgraph/internal/store"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.NewStore(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	require.NoError(t, s.Migrate())
	t.Cleanup(func() { s.Close() })
	return s
}

func candidate(name string) resolve.Candidate {
	return resolve.Candidate{Name: name, Module: "App", Kind: "protocol"}
}

// --- Script loading tests ---

func TestLoadScript_FromDisk(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "policy.risor"), []byte(`true`), 0o644))

	rt := NewRuntime(nil, dir)
	src, err := rt.LoadScript("policy.risor")
	require.NoError(t, err)
	assert.Equal(t, "true", src)

	_, err = rt.LoadScript("missing.risor")
	require.Error(t, err)
}

func TestLoadScript_FromFS(t *testing.T) {
	t.Parallel()

	fsys := fstest.MapFS{
		"policy/mock.risor": {Data: []byte(`kind == "protocol"`)},
	}
	rt := NewRuntime(nil, "", WithRuntimeFS(fsys))

	src, err := rt.LoadScript("/policy/mock.risor")
	require.NoError(t, err)
	assert.Equal(t, `kind == "protocol"`, src)
}

// --- RunSource tests ---

func TestRunSource_ExtraGlobals(t *testing.T) {
	t.Parallel()

	rt := NewRuntime(nil, "")
	result, err := rt.RunSource(context.Background(), `greeting + ", " + target`, map[string]any{
		"greeting": "hello",
		"target":   "world",
	})
	require.NoError(t, err)
	assert.Equal(t, "hello, world", result.Interface())
}

func TestRunSource_CompileError(t *testing.T) {
	t.Parallel()

	rt := NewRuntime(nil, "")
	_, err := rt.RunSource(context.Background(), `name ==`, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "<inline>")
}

// --- Policy tests ---

func TestPolicy_Truthiness(t *testing.T) {
	t.Parallel()

	rt := NewRuntime(nil, "")
	ctx := context.Background()

	tests := []struct {
		source string
		c      resolve.Candidate
		want   bool
	}{
		{`true`, candidate("Store"), true},
		{`false`, candidate("Store"), false},
		{`nil`, candidate("Store"), false},
		{`name != "Skipped"`, candidate("Skipped"), false},
		{`name != "Skipped"`, candidate("Store"), true},
		{`module == "App" && kind == "protocol"`, candidate("Store"), true},
		{`!is_nested`, resolve.Candidate{Name: "Inner", IsNested: true}, false},
		{`len(attributes) == 0`, resolve.Candidate{Name: "Legacy", Attributes: []string{"objc"}}, false},
		{`len(attributes)`, resolve.Candidate{Name: "Legacy", Attributes: []string{"objc"}}, true},
	}
	for _, tt := range tests {
		got, err := NewPolicySource(rt, tt.source).Allow(ctx, tt.c)
		require.NoError(t, err, tt.source)
		assert.Equal(t, tt.want, got, "%s for %s", tt.source, tt.c.Name)
	}
}

func TestPolicy_ScriptErrorIsReturned(t *testing.T) {
	t.Parallel()

	rt := NewRuntime(nil, "")
	_, err := NewPolicySource(rt, `undefined_function()`).Allow(context.Background(), candidate("Store"))
	require.Error(t, err)
}

func TestPolicy_FromFS(t *testing.T) {
	t.Parallel()

	fsys := fstest.MapFS{
		"mock.risor": {Data: []byte(`kind == "class"`)},
	}
	rt := NewRuntime(nil, "", WithRuntimeFS(fsys))
	p, err := NewPolicy(rt, "mock.risor")
	require.NoError(t, err)

	ok, err := p.Allow(context.Background(), resolve.Candidate{Name: "Cache", Kind: "class"})
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = p.Allow(context.Background(), candidate("Store"))
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = NewPolicy(rt, "missing.risor")
	require.Error(t, err)
}

func TestPolicy_PersistedTypes(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	require.NoError(t, s.SaveResult(nil, []*store.TypeRecord{{
		Type: store.MockableType{
			Name: "Store", Module: "App", FullyQualifiedName: "App.Store",
			Kind: "protocol", Identity: "Store", ShouldMock: true,
		},
	}}))

	rt := NewRuntime(s, "")
	p := NewPolicySource(rt, `len(persisted_type(name)) > 0`)

	ok, err := p.Allow(context.Background(), candidate("Store"))
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = p.Allow(context.Background(), candidate("Fresh"))
	require.NoError(t, err)
	assert.False(t, ok)

	result, err := rt.RunSource(context.Background(), `len(persisted_types("App"))`, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(1), result.Interface())
}
