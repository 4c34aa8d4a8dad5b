package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindRepoRoot_DirectGitDir(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	if err := os.Mkdir(filepath.Join(root, ".git"), 0o755); err != nil {
		t.Fatal(err)
	}

	got := findRepoRoot(root)
	assert.Equal(t, root, got)
}

func TestFindRepoRoot_NestedSubdirectory(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	if err := os.Mkdir(filepath.Join(root, ".git"), 0o755); err != nil {
		t.Fatal(err)
	}
	deep := filepath.Join(root, "src", "lib")
	if err := os.MkdirAll(deep, 0o755); err != nil {
		t.Fatal(err)
	}

	got := findRepoRoot(deep)
	assert.Equal(t, root, got)
}

func TestFindRepoRoot_GitFileIgnored(t *testing.T) {
	t.Parallel()
	// A .git file (worktree pointer) is not a directory.
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, ".git"), []byte("gitdir: elsewhere\n"), 0o644))

	got := findRepoRoot(root)
	assert.Equal(t, root, got)
}

func TestResolveDBPath(t *testing.T) {
	prev := flagDB
	t.Cleanup(func() { flagDB = prev })

	flagDB = ""
	assert.Equal(t, filepath.Join("/repo", ".unusedvars", "index.db"), resolveDBPath("/repo"))

	flagDB = "custom/index.db"
	assert.Equal(t, filepath.Join("/repo", "custom", "index.db"), resolveDBPath("/repo"))

	flagDB = "/abs/index.db"
	assert.Equal(t, "/abs/index.db", resolveDBPath("/repo"))
}

func TestResolveTargetDir(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	got, err := resolveTargetDir([]string{dir})
	require.NoError(t, err)
	assert.Equal(t, dir, got)

	_, err = resolveTargetDir([]string{filepath.Join(dir, "missing")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "directory not found")

	file := filepath.Join(dir, "app.js")
	require.NoError(t, os.WriteFile(file, []byte("var a;"), 0o644))
	_, err = resolveTargetDir([]string{file})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a directory")
}

func TestPrepareDB_Force(t *testing.T) {
	prev := flagDB
	t.Cleanup(func() { flagDB = prev })
	flagDB = ""

	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, ".git"), 0o755))

	dbPath, err := prepareDB(dir, false)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, ".unusedvars", "index.db"), dbPath)
	require.NoError(t, os.WriteFile(dbPath, []byte("stale"), 0o644))

	_, err = prepareDB(dir, true)
	require.NoError(t, err)
	_, err = os.Stat(dbPath)
	assert.True(t, os.IsNotExist(err), "--force should remove the database")
}

func TestValidateFormat(t *testing.T) {
	t.Parallel()
	assert.NoError(t, validateFormat("json"))
	assert.NoError(t, validateFormat("text"))

	err := validateFormat("xml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `invalid format "xml"`)
}
