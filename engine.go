package mockgraph

import (
	"bytes"
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	goruntime "runtime"
	"sort"
	"strings"
	"time"

	"github.com/jward/mockgraph/internal/decl"
	"github.com/jward/mockgraph/internal/resolve"
	"github.com/jward/mockgraph/internal/runtime"
	"github.com/jward/mockgraph/internal/store"
	"github.com/jward/mockgraph/internal/swiftsrc"
)

// Engine orchestrates the mockgraph pipeline: file discovery, parsing,
// population, resolution, ordering and persistence.
type Engine struct {
	store   *store.Store
	runtime *runtime.Runtime
	logger  *slog.Logger
	workers int

	policyScript string
	policyFS     fs.FS

	// modules lists module names in first-indexed order.
	modules []string
	files   map[string]*indexedFile
	imports map[string][]string
	aliases []moduleAlias
}

type indexedFile struct {
	file   *decl.File
	record *store.File
}

type moduleAlias struct {
	module, name, target string
}

// Option configures an Engine.
type Option func(*Engine)

// WithWorkers bounds parallel parsing and layer building. Values below one
// select one worker per CPU.
func WithWorkers(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.workers = n
		}
	}
}

// WithLogger sets the structured logger. The default discards output.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithPolicyScript sets the Risor script deciding which otherwise mockable
// types are slated for output. The path is read from disk, or from the
// filesystem given to WithPolicyFS.
func WithPolicyScript(path string) Option {
	return func(e *Engine) {
		e.policyScript = path
	}
}

// WithPolicyFS configures the Engine to load the policy script from the given
// filesystem instead of from disk. This enables embedding scripts via
// go:embed.
func WithPolicyFS(fsys fs.FS) Option {
	return func(e *Engine) {
		e.policyFS = fsys
	}
}

// New creates an Engine backed by a SQLite database at dbPath.
func New(dbPath string, opts ...Option) (*Engine, error) {
	s, err := store.NewStore(dbPath)
	if err != nil {
		return nil, fmt.Errorf("mockgraph: create store: %w", err)
	}
	if err := s.Migrate(); err != nil {
		s.Close()
		return nil, fmt.Errorf("mockgraph: migrate: %w", err)
	}

	e := &Engine{
		store:   s,
		logger:  slog.New(slog.DiscardHandler),
		workers: goruntime.NumCPU(),
		files:   make(map[string]*indexedFile),
		imports: make(map[string][]string),
	}
	for _, opt := range opts {
		opt(e)
	}

	rtOpts := []runtime.RuntimeOption{runtime.WithRuntimeLogger(e.logger)}
	if e.policyFS != nil {
		rtOpts = append(rtOpts, runtime.WithRuntimeFS(e.policyFS))
	}
	e.runtime = runtime.NewRuntime(s, "", rtOpts...)

	return e, nil
}

// Close releases the Engine's database resources.
func (e *Engine) Close() error {
	return e.store.Close()
}

// Store returns the underlying Store for direct access.
func (e *Engine) Store() *Store {
	return e.store
}

// AddImports records imports that every file of module receives in addition
// to the ones it spells out. Applies to files indexed afterwards.
func (e *Engine) AddImports(module string, imports ...string) {
	e.imports[module] = append(e.imports[module], imports...)
}

// AddAlias declares a module-scope type alias that is not visible in source,
// such as one provided by a generated file.
func (e *Engine) AddAlias(module, name, target string) {
	e.aliases = append(e.aliases, moduleAlias{module: module, name: name, target: target})
}

// IndexStats reports one indexing call.
type IndexStats struct {
	Files        int
	Unchanged    int // content hash matches the previously recorded file
	Declarations int
}

// IndexModule indexes the given files and directories as module. mock marks
// the module's types as candidates for output.
func (e *Engine) IndexModule(ctx context.Context, module string, paths []string, mock bool) (*IndexStats, error) {
	var files []string
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, fmt.Errorf("mockgraph: index %s: %w", module, err)
		}
		if !info.IsDir() {
			files = append(files, p)
			continue
		}
		listed, err := listSwiftFiles(p)
		if err != nil {
			return nil, fmt.Errorf("mockgraph: index %s: %w", module, err)
		}
		files = append(files, listed...)
	}
	return e.IndexFiles(ctx, module, files, mock)
}

// IndexDirectory walks root and indexes all Swift files as module. If root is
// inside a git repository, uses git ls-files to respect .gitignore.
func (e *Engine) IndexDirectory(ctx context.Context, module, root string, mock bool) (*IndexStats, error) {
	files, err := listSwiftFiles(root)
	if err != nil {
		return nil, fmt.Errorf("mockgraph: index %s: %w", module, err)
	}
	return e.IndexFiles(ctx, module, files, mock)
}

// IndexFiles parses the given Swift files as module. Re-indexing a path
// replaces its previous declarations.
func (e *Engine) IndexFiles(ctx context.Context, module string, paths []string, mock bool) (*IndexStats, error) {
	var swift []string
	for _, p := range paths {
		if swiftsrc.IsSwiftFile(p) {
			swift = append(swift, p)
		}
	}
	sort.Strings(swift)

	parsed, err := e.parseFilesParallel(ctx, module, swift, mock)
	if err != nil {
		return nil, fmt.Errorf("mockgraph: index %s: %w", module, err)
	}

	if !containsString(e.modules, module) {
		e.modules = append(e.modules, module)
	}
	stats := &IndexStats{Files: len(parsed)}
	for _, pf := range parsed {
		pf.file.Imports = append(pf.file.Imports, e.imports[module]...)
		existing, err := e.store.FileByPath(pf.record.Path)
		if err != nil {
			return nil, fmt.Errorf("mockgraph: index %s: %w", module, err)
		}
		if existing != nil && existing.Hash == pf.record.Hash {
			stats.Unchanged++
		}
		stats.Declarations += pf.record.Declarations
		e.files[pf.record.Path] = pf
	}
	e.logger.Debug("indexed module",
		slog.String("module", module),
		slog.Int("files", stats.Files),
		slog.Int("unchanged", stats.Unchanged),
		slog.Int("declarations", stats.Declarations),
	)
	return stats, nil
}

// Result is one resolution pass.
type Result struct {
	// Types are the resolved descriptors in output order.
	Types   []*MockableType
	Skipped []resolve.Skip
	// Opaque counts types with at least one unresolvable inherited type.
	Opaque int
}

// Mocked returns the descriptors slated for output.
func (r *Result) Mocked() []*MockableType {
	var out []*MockableType
	for _, t := range r.Types {
		if t.ShouldMock {
			out = append(out, t)
		}
	}
	return out
}

// Resolve populates the repositories from every indexed file, builds the
// type graph, orders it and persists it, replacing the previous result.
func (e *Engine) Resolve(ctx context.Context) (*Result, error) {
	files, records := e.indexedFiles()
	idx := decl.Populate(files, e.modules)
	for _, a := range e.aliases {
		idx.Aliases.Register(a.module+"."+a.name, a.target, decl.Scope{Module: a.module})
	}

	opts := []resolve.Option{
		resolve.WithWorkers(e.workers),
		resolve.WithLogger(e.logger),
	}
	if e.policyScript != "" {
		policy, err := runtime.NewPolicy(e.runtime, e.policyScript)
		if err != nil {
			return nil, fmt.Errorf("mockgraph: %w", err)
		}
		opts = append(opts, resolve.WithPolicy(policy))
	}

	graph, err := resolve.NewBuilder(idx, opts...).Build(ctx)
	if err != nil {
		return nil, fmt.Errorf("mockgraph: %w", err)
	}
	ordered, err := resolve.Order(graph.Types)
	if err != nil {
		return nil, fmt.Errorf("mockgraph: %w", err)
	}

	recs := make([]*store.TypeRecord, len(ordered))
	for i, t := range ordered {
		recs[i] = toRecord(t)
	}
	if err := e.store.SaveResult(records, recs); err != nil {
		return nil, fmt.Errorf("mockgraph: %w", err)
	}
	if err := e.store.SetMetadata("resolved_at", time.Now().UTC().Format(time.RFC3339)); err != nil {
		return nil, fmt.Errorf("mockgraph: %w", err)
	}

	res := &Result{Types: ordered, Skipped: graph.Skipped, Opaque: graph.Opaque()}
	e.logger.Info("resolved",
		slog.Int("types", len(res.Types)),
		slog.Int("mocked", len(res.Mocked())),
		slog.Int("skipped", len(res.Skipped)),
		slog.Int("opaque", res.Opaque),
	)
	return res, nil
}

// indexedFiles returns the parsed files grouped by module in first-indexed
// order, then by path.
func (e *Engine) indexedFiles() ([]*decl.File, []*store.File) {
	rank := make(map[string]int, len(e.modules))
	for i, m := range e.modules {
		rank[m] = i
	}
	all := make([]*indexedFile, 0, len(e.files))
	for _, f := range e.files {
		all = append(all, f)
	}
	sort.Slice(all, func(i, j int) bool {
		ri, rj := rank[all[i].file.Module], rank[all[j].file.Module]
		if ri != rj {
			return ri < rj
		}
		return all[i].file.Path < all[j].file.Path
	})

	files := make([]*decl.File, len(all))
	records := make([]*store.File, len(all))
	for i, f := range all {
		files[i] = f.file
		records[i] = f.record
	}
	return files, records
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// skipDirs lists directory names never descended into by the fallback walk.
var skipDirs = map[string]bool{
	"Pods":        true,
	"Carthage":    true,
	"DerivedData": true,
	"build":       true,
}

// listSwiftFiles lists Swift sources under root, through git when root is in
// a repository and by walking the filesystem otherwise.
func listSwiftFiles(root string) ([]string, error) {
	paths, err := gitListFiles(root)
	if err != nil {
		// Not a git repo or git not available; fall back to walk.
		return walkListFiles(root)
	}
	return paths, nil
}

func gitListFiles(root string) ([]string, error) {
	// --cached: tracked files, --others: untracked files,
	// --exclude-standard: respect .gitignore, .git/info/exclude, global excludes.
	cmd := exec.Command("git", "ls-files", "--cached", "--others", "--exclude-standard")
	cmd.Dir = root
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("git ls-files: %w", err)
	}

	var paths []string
	for _, line := range strings.Split(stdout.String(), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		absPath := filepath.Join(root, line)
		if swiftsrc.IsSwiftFile(absPath) {
			paths = append(paths, absPath)
		}
	}
	sort.Strings(paths)
	return paths, nil
}

func walkListFiles(root string) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			name := d.Name()
			if path != root && (strings.HasPrefix(name, ".") || skipDirs[name]) {
				return filepath.SkipDir
			}
			return nil
		}
		if swiftsrc.IsSwiftFile(path) {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk directory: %w", err)
	}
	return paths, nil
}

// fileRecord builds the persisted record of a parsed file.
func fileRecord(f *decl.File) *store.File {
	n := 0
	for _, d := range f.Declarations {
		d.Walk(func(*decl.Declaration) bool {
			n++
			return true
		})
	}
	return &store.File{
		Path:         f.Path,
		Module:       f.Module,
		Hash:         store.HashContents(f.Contents),
		ShouldMock:   f.ShouldMock,
		Declarations: n,
		LastIndexed:  time.Now(),
	}
}
