package unusedvars

import (
	"bytes"
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/jward/unusedvars/internal/jsscope"
	"github.com/jward/unusedvars/internal/store"
	"github.com/jward/unusedvars/scope"
)

// Engine orchestrates the unusedvars pipeline: file discovery, change
// detection, scope resolution into SQLite, and analysis of the stored
// trees.
type Engine struct {
	store      *store.Store
	policy     Policy
	globals    []string
	extensions map[string]bool // nil means jsscope's defaults

	// useParallel enables the parallel indexing pipeline.
	useParallel bool
}

// Option configures an Engine.
type Option func(*Engine)

// WithPolicy sets the policy Analyze and CheckSource apply. Defaults to
// DefaultPolicy().
func WithPolicy(p Policy) Option {
	return func(e *Engine) {
		e.policy = p
	}
}

// WithGlobals declares configured globals in every resolved file.
func WithGlobals(names ...string) Option {
	return func(e *Engine) {
		e.globals = append(e.globals, names...)
	}
}

// WithParallel controls parallel indexing. When true (default), IndexFiles
// uses a worker pool for parsing and resolution, with a single writer
// committing batches to SQLite. Set to false for serial mode.
func WithParallel(parallel bool) Option {
	return func(e *Engine) {
		e.useParallel = parallel
	}
}

// WithExtensions replaces the set of file extensions treated as
// JavaScript source.
func WithExtensions(exts ...string) Option {
	return func(e *Engine) {
		e.extensions = make(map[string]bool, len(exts))
		for _, ext := range exts {
			if !strings.HasPrefix(ext, ".") {
				ext = "." + ext
			}
			e.extensions[strings.ToLower(ext)] = true
		}
	}
}

// New creates an Engine backed by a SQLite database at dbPath.
func New(dbPath string, opts ...Option) (*Engine, error) {
	s, err := store.NewStore(dbPath)
	if err != nil {
		return nil, fmt.Errorf("unusedvars: create store: %w", err)
	}
	if err := s.Migrate(); err != nil {
		s.Close()
		return nil, fmt.Errorf("unusedvars: migrate: %w", err)
	}

	e := &Engine{
		store:       s,
		policy:      DefaultPolicy(),
		useParallel: true, // default to parallel indexing
	}
	for _, opt := range opts {
		opt(e)
	}
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

// Policy returns the policy the Engine analyzes with.
func (e *Engine) Policy() Policy {
	return e.policy
}

func (e *Engine) isSource(path string) bool {
	if e.extensions == nil {
		return jsscope.IsSource(path)
	}
	return e.extensions[strings.ToLower(filepath.Ext(path))]
}

func (e *Engine) resolverOptions() []jsscope.Option {
	return []jsscope.Option{jsscope.WithGlobals(e.globals...)}
}

// resolverHash identifies the resolver configuration stored trees were
// built with. Configured globals become bindings, so changing them
// invalidates every tree.
func (e *Engine) resolverHash() string {
	names := append([]string(nil), e.globals...)
	sort.Strings(names)
	h := sha256.New()
	h.Write([]byte(jsscope.Language))
	for _, n := range names {
		h.Write([]byte{0})
		h.Write([]byte(n))
	}
	return fmt.Sprintf("%x", h.Sum(nil))
}

// ResolverChanged reports whether the stored trees were built with a
// different resolver configuration. Returns true if the DB has no stored
// hash (first run). When true, IndexFiles re-resolves unchanged files too.
func (e *Engine) ResolverChanged() bool {
	stored, err := e.store.GetMetadata("resolver_hash")
	if err != nil || stored == "" {
		return true
	}
	return stored != e.resolverHash()
}

func (e *Engine) storeResolverHash() error {
	return e.store.SetMetadata("resolver_hash", e.resolverHash())
}

// IndexFiles resolves the given file paths and stores their scope trees.
// When WithParallel is enabled, uses a worker pool for concurrent
// resolution with batched SQLite writes. Otherwise falls back to the
// serial path.
//
// For each file:
// 1. Skip files without a source extension
// 2. Skip unchanged files (same content hash, same resolver config)
// 3. Delete stale data, insert the file record
// 4. Resolve the scope tree and write it
//
// A file that fails to resolve is dropped from the store; the remaining
// files are still indexed and the failures are returned. Failed files
// leave nothing behind, so the resolver hash is recorded regardless and
// the next run only retries them.
func (e *Engine) IndexFiles(ctx context.Context, paths []string) error {
	force := e.ResolverChanged()
	var errs []error
	if err := e.indexPaths(ctx, paths, force); err != nil {
		errs = append(errs, err)
	}
	if force {
		stale, err := e.staleFiles(paths)
		if err != nil {
			// Stored trees may still carry the old configuration.
			return errors.Join(append(errs, err)...)
		}
		if err := e.indexPaths(ctx, stale, true); err != nil {
			errs = append(errs, err)
		}
	}
	if err := e.storeResolverHash(); err != nil {
		errs = append(errs, fmt.Errorf("unusedvars: %w", err))
	}
	return errors.Join(errs...)
}

func (e *Engine) indexPaths(ctx context.Context, paths []string, force bool) error {
	if len(paths) == 0 {
		return nil
	}
	if e.useParallel {
		return e.IndexFilesParallel(ctx, paths, force)
	}
	return e.indexFilesSerial(ctx, paths, force)
}

// staleFiles lists stored files outside indexed, which must be
// re-resolved after a resolver configuration change. Stored files that
// no longer exist are dropped.
func (e *Engine) staleFiles(indexed []string) ([]string, error) {
	done := make(map[string]bool, len(indexed))
	for _, p := range indexed {
		done[p] = true
	}
	files, err := e.store.Files()
	if err != nil {
		return nil, fmt.Errorf("unusedvars: list files: %w", err)
	}
	var stale []string
	for _, f := range files {
		if done[f.Path] {
			continue
		}
		if _, err := os.Stat(f.Path); err != nil {
			if err := e.store.DeleteFileData(f.ID); err != nil {
				return nil, fmt.Errorf("unusedvars: drop %s: %w", f.Path, err)
			}
			continue
		}
		stale = append(stale, f.Path)
	}
	return stale, nil
}

func (e *Engine) indexFilesSerial(ctx context.Context, paths []string, force bool) error {
	var errs []error
	for _, path := range paths {
		if err := e.indexFile(ctx, path, force); err != nil {
			errs = append(errs, fmt.Errorf("index %s: %w", path, err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("indexing had %d error(s): %w", len(errs), errs[0])
	}
	return nil
}

func (e *Engine) indexFile(ctx context.Context, path string, force bool) error {
	item, skip, err := e.prepareFile(path, force)
	if err != nil {
		return e.dropFailed(path, err)
	}
	if skip {
		return nil
	}
	root, err := jsscope.Resolve(ctx, item.path, item.src, e.resolverOptions()...)
	if err == nil {
		err = writeTree(e.store, item.fileID, root)
	}
	if err != nil {
		return e.dropFailed(path, err)
	}
	return nil
}

// dropFailed removes whatever is stored for a file that failed to index,
// so no tree built with an older configuration survives, and returns err.
func (e *Engine) dropFailed(path string, err error) error {
	if delErr := e.RemoveFiles([]string{path}); delErr != nil {
		return fmt.Errorf("%w (cleanup: %v)", err, delErr)
	}
	return err
}

// prepareFile does the serial part of indexing a single file: hash check,
// cleanup, file record. Returns (item, skip, error). skip=true means the
// file is unchanged or not a source file.
func (e *Engine) prepareFile(path string, force bool) (workItem, bool, error) {
	if !e.isSource(path) {
		return workItem{}, true, nil
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return workItem{}, false, fmt.Errorf("read file: %w", err)
	}
	hash := fmt.Sprintf("%x", sha256.Sum256(content))

	existing, err := e.store.FileByPath(path)
	if err != nil {
		return workItem{}, false, fmt.Errorf("lookup file: %w", err)
	}
	if existing != nil && existing.Hash == hash && !force {
		return workItem{}, true, nil // unchanged
	}

	if existing != nil {
		if err := e.store.DeleteFileData(existing.ID); err != nil {
			return workItem{}, false, fmt.Errorf("delete old data: %w", err)
		}
	}

	fileID, err := e.store.InsertFile(&store.File{
		Path:        path,
		Language:    jsscope.Language,
		Hash:        hash,
		LastIndexed: time.Now(),
	})
	if err != nil {
		return workItem{}, false, fmt.Errorf("insert file: %w", err)
	}
	return workItem{path: path, src: content, fileID: fileID}, false, nil
}

// RemoveFiles drops everything stored for the given paths. Paths that
// were never indexed are ignored.
func (e *Engine) RemoveFiles(paths []string) error {
	for _, path := range paths {
		f, err := e.store.FileByPath(path)
		if err != nil {
			return fmt.Errorf("unusedvars: lookup %s: %w", path, err)
		}
		if f == nil {
			continue
		}
		if err := e.store.DeleteFileData(f.ID); err != nil {
			return fmt.Errorf("unusedvars: remove %s: %w", path, err)
		}
	}
	return nil
}

// skipDirs lists directories excluded from the filesystem walk.
var skipDirs = map[string]bool{
	"node_modules":     true,
	"bower_components": true,
	"vendor":           true,
}

// IndexDirectory indexes every source file under root and drops stored
// files under root that no longer exist. If root is inside a git
// repository, uses git ls-files to respect .gitignore. Falls back to a
// filesystem walk (skipping hidden dirs, node_modules, bower_components
// and vendor) if git is unavailable.
func (e *Engine) IndexDirectory(ctx context.Context, root string) error {
	paths, err := e.gitListFiles(root)
	if err != nil {
		// Not a git repo or git not available; fall back to walk.
		paths, err = e.walkListFiles(root)
		if err != nil {
			return err
		}
	}
	if err := e.pruneMissing(root, paths); err != nil {
		return err
	}
	return e.IndexFiles(ctx, paths)
}

// pruneMissing removes stored files under root that are not in present.
func (e *Engine) pruneMissing(root string, present []string) error {
	keep := make(map[string]bool, len(present))
	for _, p := range present {
		keep[p] = true
	}
	files, err := e.store.Files()
	if err != nil {
		return fmt.Errorf("unusedvars: list files: %w", err)
	}
	var gone []string
	for _, f := range files {
		if underDir(root, f.Path) && !keep[f.Path] {
			gone = append(gone, f.Path)
		}
	}
	return e.RemoveFiles(gone)
}

// gitListFiles uses git ls-files to discover tracked and untracked (but not
// ignored) files under root, filtered to source files.
func (e *Engine) gitListFiles(root string) ([]string, error) {
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
		path := filepath.Join(root, line)
		if e.isSource(path) {
			paths = append(paths, path)
		}
	}
	return paths, nil
}

// walkListFiles discovers files by walking the filesystem, used as a
// fallback when git is not available.
func (e *Engine) walkListFiles(root string) ([]string, error) {
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
		if e.isSource(path) {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk directory: %w", err)
	}
	return paths, nil
}

// FileReport groups the findings of one file.
type FileReport struct {
	Path     string    `json:"path"`
	Findings []Finding `json:"findings"`
}

// underDir reports whether path lies below root. An empty root contains
// every path.
func underDir(root, path string) bool {
	if root == "" {
		return true
	}
	return strings.HasPrefix(path, filepath.Clean(root)+string(filepath.Separator))
}

// Analyze runs Check over every stored tree with the Engine's policy,
// replaces the stored findings and returns the reports of files with
// findings, ordered by path.
func (e *Engine) Analyze(ctx context.Context) ([]FileReport, error) {
	return e.AnalyzeDir(ctx, "")
}

// AnalyzeDir is Analyze restricted to stored files below root. Findings
// of other files are left as they are.
func (e *Engine) AnalyzeDir(ctx context.Context, root string) ([]FileReport, error) {
	files, err := e.store.Files()
	if err != nil {
		return nil, fmt.Errorf("unusedvars: list files: %w", err)
	}
	var reports []FileReport
	for _, f := range files {
		if !underDir(root, f.Path) {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		root, err := loadTree(e.store, f)
		if err != nil {
			return nil, fmt.Errorf("unusedvars: %w", err)
		}
		findings := Check(root, e.policy)
		if err := e.store.ReplaceFindings(f.ID, findingRows(findings)); err != nil {
			return nil, fmt.Errorf("unusedvars: store findings for %s: %w", f.Path, err)
		}
		if len(findings) > 0 {
			reports = append(reports, FileReport{Path: f.Path, Findings: findings})
		}
	}
	if err := e.store.SetMetadata("policy", e.policy.String()); err != nil {
		return nil, fmt.Errorf("unusedvars: %w", err)
	}
	return reports, nil
}

// Findings returns the findings stored by the last Analyze, grouped by
// file. A non-empty name restricts them to bindings of that name.
func (e *Engine) Findings(name string) ([]FileReport, error) {
	return e.FindingsDir("", name)
}

// FindingsDir is Findings restricted to files below root.
func (e *Engine) FindingsDir(root, name string) ([]FileReport, error) {
	var (
		rows []*store.Finding
		err  error
	)
	if name == "" {
		rows, err = e.store.AllFindings()
	} else {
		rows, err = e.store.FindingsByName(name)
	}
	if err != nil {
		return nil, fmt.Errorf("unusedvars: findings: %w", err)
	}
	kept := rows[:0]
	for _, row := range rows {
		if underDir(root, row.Path) {
			kept = append(kept, row)
		}
	}
	return groupFindings(kept), nil
}

// AnalyzedPolicy returns the policy the stored findings were computed
// with, or "" before the first Analyze.
func (e *Engine) AnalyzedPolicy() (string, error) {
	return e.store.GetMetadata("policy")
}

// CheckSource resolves src in memory and returns its findings under the
// Engine's policy and globals. Nothing is stored.
func (e *Engine) CheckSource(ctx context.Context, path string, src []byte) ([]Finding, error) {
	root, err := jsscope.Resolve(ctx, path, src, e.resolverOptions()...)
	if err != nil {
		return nil, err
	}
	return Check(root, e.policy), nil
}

func findingRows(findings []Finding) []*store.Finding {
	rows := make([]*store.Finding, len(findings))
	for i, f := range findings {
		row := &store.Finding{Name: f.Name, Kind: f.Kind.String(), Message: f.Message()}
		if f.Pos != nil {
			row.Line, row.Col = &f.Pos.Line, &f.Pos.Col
		}
		rows[i] = row
	}
	return rows
}

// groupFindings turns path-ordered rows into FileReports.
func groupFindings(rows []*store.Finding) []FileReport {
	var reports []FileReport
	for _, row := range rows {
		if len(reports) == 0 || reports[len(reports)-1].Path != row.Path {
			reports = append(reports, FileReport{Path: row.Path})
		}
		kind, _ := scope.ParseDeclKind(row.Kind)
		f := Finding{Name: row.Name, Kind: kind}
		if row.Line != nil && row.Col != nil {
			f.Pos = &scope.Position{File: row.Path, Line: *row.Line, Col: *row.Col}
		}
		last := &reports[len(reports)-1]
		last.Findings = append(last.Findings, f)
	}
	return reports
}
