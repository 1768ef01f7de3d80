package main

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jward/mockgraph/internal/config"
	"github.com/jward/mockgraph/internal/store"
)

// =============================================================================
// Config discovery
// =============================================================================

func TestFindConfigFile_Direct(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	want := filepath.Join(root, config.DefaultFileName)
	require.NoError(t, os.WriteFile(want, []byte("modules: []\n"), 0o644))

	got, ok := findConfigFile(root)
	require.True(t, ok)
	assert.Equal(t, want, got)
}

func TestFindConfigFile_NestedSubdirectory(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	want := filepath.Join(root, config.DefaultFileName)
	require.NoError(t, os.WriteFile(want, []byte("modules: []\n"), 0o644))
	deep := filepath.Join(root, "Sources", "App")
	require.NoError(t, os.MkdirAll(deep, 0o755))

	got, ok := findConfigFile(deep)
	require.True(t, ok)
	assert.Equal(t, want, got)
}

func TestFindConfigFile_IgnoresDirectoryWithConfigName(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(root, config.DefaultFileName), 0o755))

	got, ok := findConfigFile(root)
	if ok {
		// A config file further up the tree is outside the test's control.
		assert.NotEqual(t, filepath.Join(root, config.DefaultFileName), got)
	}
}

func TestValidateFormat(t *testing.T) {
	t.Parallel()
	assert.NoError(t, validateFormat("json"))
	assert.NoError(t, validateFormat("text"))
	assert.Error(t, validateFormat("yaml"))
}

// =============================================================================
// Resolve and query
// =============================================================================

const projectConfig = `
database: out/mocks.db
workers: 2
modules:
  - name: Core
    sources: [Core]
  - name: App
    mock: true
    sources: [App]
    imports: [Core]
    aliases:
      Backend: Core.Service
`

func writeProject(t *testing.T) *config.Config {
	t.Helper()
	root := t.TempDir()
	files := map[string]string{
		"Core/Service.swift": "public protocol Service {\n  func start()\n}\npublic protocol Thing {}\n",
		"App/Client.swift":   "protocol Client: Backend {\n  var id: String { get set }\n}\nprotocol Thing {}\nfinal class Done {}\n",
		config.DefaultFileName: projectConfig,
	}
	for name, src := range files {
		path := filepath.Join(root, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(src), 0o644))
	}
	cfg, err := config.Load(filepath.Join(root, config.DefaultFileName))
	require.NoError(t, err)
	return cfg
}

func resolveTestProject(t *testing.T) (*CLIResolveSummary, *store.Store) {
	t.Helper()
	cfg := writeProject(t)
	summary, err := resolveProject(context.Background(), cfg, slog.New(slog.DiscardHandler))
	require.NoError(t, err)

	s, err := store.NewStore(cfg.Database)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return summary, s
}

func TestResolveProject_Summary(t *testing.T) {
	t.Parallel()

	summary, _ := resolveTestProject(t)
	require.Len(t, summary.Modules, 2)
	assert.Equal(t, "Core", summary.Modules[0].Name)
	assert.Equal(t, 1, summary.Modules[0].Files)
	assert.True(t, summary.Modules[1].Mock)
	assert.Equal(t, 4, summary.Types)
	assert.Equal(t, 2, summary.Mocked)
	assert.Zero(t, summary.Opaque)
	require.Len(t, summary.Skipped, 1)
	assert.Equal(t, "App.Done", summary.Skipped[0].Type)
	assert.Equal(t, "out", filepath.Base(filepath.Dir(summary.Database)))
}

func TestListTypes(t *testing.T) {
	t.Parallel()

	_, s := resolveTestProject(t)

	all, err := listTypes(s, "", false)
	require.NoError(t, err)
	require.Len(t, all, 4)

	mocked, err := listTypes(s, "", true)
	require.NoError(t, err)
	var names []string
	for _, m := range mocked {
		names = append(names, m.FullyQualifiedName)
	}
	assert.Equal(t, []string{"App.Client", "App.Thing"}, names)

	core, err := listTypes(s, "Core", false)
	require.NoError(t, err)
	assert.Len(t, core, 2)
}

func TestShowType(t *testing.T) {
	t.Parallel()

	_, s := resolveTestProject(t)

	detail, err := showType(s, "Client")
	require.NoError(t, err)
	assert.Equal(t, "App.Client", detail.FullyQualifiedName)
	assert.Equal(t, []string{"Core.Service"}, detail.Inherits)
	require.Len(t, detail.Methods, 1)
	assert.Equal(t, "start()", detail.Methods[0].Name)
	require.Len(t, detail.Variables, 1)
	assert.True(t, detail.Variables[0].Settable)

	byFQN, err := showType(s, "Core.Thing")
	require.NoError(t, err)
	assert.False(t, byFQN.ShouldMock)

	_, err = showType(s, "Thing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ambiguous")

	_, err = showType(s, "Missing")
	require.Error(t, err)
}

// =============================================================================
// Text output
// =============================================================================

func TestOutputResultText(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	types := []CLIType{
		{ID: 1, FullyQualifiedName: "App.Client", Kind: "protocol", ShouldMock: true},
		{ID: 2, FullyQualifiedName: "App.Outer.Inner", Kind: "class", IsContainedType: true, HasOpaqueInheritedType: true},
	}
	require.NoError(t, outputResultText(&buf, CLIResult{Command: "types", Results: types}))
	out := buf.String()
	assert.Contains(t, out, "App.Client")
	assert.Contains(t, out, "nested,opaque")

	buf.Reset()
	detail := CLITypeDetail{
		CLIType:  CLIType{FullyQualifiedName: "App.Client", Kind: "protocol"},
		Identity: "Client|||App",
		Methods:  []CLIMethod{{Signature: "method_instance get(_: Int) -> Void", Overloads: 2}},
		Generics: []CLIGeneric{{Name: "T", Constraints: []string{"Equatable"}}},
	}
	require.NoError(t, outputResultText(&buf, CLIResult{Results: detail}))
	assert.Contains(t, buf.String(), "protocol App.Client")
	assert.Contains(t, buf.String(), "Generics: <T: Equatable>")
	assert.Contains(t, buf.String(), "(2 overloads)")

	require.Error(t, outputResultText(&buf, CLIResult{Results: 42}))
}
