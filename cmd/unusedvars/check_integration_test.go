package main_test

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildBinary compiles the unusedvars binary and returns the path.
// The binary is placed in t.TempDir() so it's cleaned up automatically.
func buildBinary(t *testing.T) string {
	t.Helper()
	binName := "unusedvars"
	if runtime.GOOS == "windows" {
		binName += ".exe"
	}
	bin := filepath.Join(t.TempDir(), binName)
	cmd := exec.Command("go", "build", "-o", bin, ".")
	cmd.Dir = filepath.Join(projectRoot(t), "cmd", "unusedvars")
	cmd.Env = append(os.Environ(), "CGO_ENABLED=1")
	out, err := cmd.CombinedOutput()
	require.NoError(t, err, "build failed: %s", string(out))
	return bin
}

// projectRoot returns the module root by walking up from the test file's
// directory to find go.mod.
func projectRoot(t *testing.T) string {
	t.Helper()
	_, filename, _, ok := runtime.Caller(0)
	require.True(t, ok, "runtime.Caller failed")
	dir := filepath.Dir(filename)
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		require.NotEqual(t, parent, dir, "could not find project root")
		dir = parent
	}
}

const fixtureSource = `var used = 1;
var unused = 2;
function main(a, b) {
  return a + used;
}
main();
`

// createJSFixture creates a temporary directory with a .git dir and one
// JavaScript file.
func createJSFixture(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, ".git"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "app.js"), []byte(fixtureSource), 0o644))
	return dir
}

func run(t *testing.T, bin, dir string, args ...string) (string, string, error) {
	t.Helper()
	cmd := exec.Command(bin, args...)
	cmd.Dir = dir
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	return stdout.String(), stderr.String(), err
}

func exitCode(t *testing.T, err error) int {
	t.Helper()
	if err == nil {
		return 0
	}
	var exitErr *exec.ExitError
	require.ErrorAs(t, err, &exitErr)
	return exitErr.ExitCode()
}

func TestCheck_ReportsAndFails(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	bin := buildBinary(t)
	fixture := createJSFixture(t)

	stdout, stderr, err := run(t, bin, fixture, "check", fixture)
	assert.Equal(t, 1, exitCode(t, err), "stderr: %s", stderr)
	assert.Equal(t,
		"app.js:3:18: b is defined but never used\n"+
			"app.js:2:5: unused is defined but never used\n",
		stdout)
	assert.Contains(t, stderr, "2 unused")
	assert.NotContains(t, stderr, "Error:")

	_, err = os.Stat(filepath.Join(fixture, ".unusedvars", "index.db"))
	require.NoError(t, err, ".unusedvars/index.db should exist")
}

func TestCheck_NoFailAndPolicyFlags(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	bin := buildBinary(t)
	fixture := createJSFixture(t)

	stdout, stderr, err := run(t, bin, fixture, "check", "--vars", "local", "--args", "none", "--no-fail", fixture)
	require.NoError(t, err, "stderr: %s", stderr)
	assert.Empty(t, stdout)
	assert.Contains(t, stderr, "vars=local args=none")
}

func TestCheck_JSON(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	bin := buildBinary(t)
	fixture := createJSFixture(t)

	stdout, _, err := run(t, bin, fixture, "--format", "json", "check", "--no-fail", fixture)
	require.NoError(t, err)

	var result struct {
		Command    string `json:"command"`
		TotalCount int    `json:"total_count"`
		Results    []struct {
			Path     string `json:"path"`
			Findings []struct {
				Name string `json:"name"`
				Kind string `json:"kind"`
			} `json:"findings"`
		} `json:"results"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &result), "stdout: %s", stdout)
	assert.Equal(t, "check", result.Command)
	assert.Equal(t, 2, result.TotalCount)
	require.Len(t, result.Results, 1)
	assert.Equal(t, filepath.Join(fixture, "app.js"), result.Results[0].Path)
	require.Len(t, result.Results[0].Findings, 2)
	// Locals come before globals.
	assert.Equal(t, "b", result.Results[0].Findings[0].Name)
	assert.Equal(t, "parameter", result.Results[0].Findings[0].Kind)
	assert.Equal(t, "unused", result.Results[0].Findings[1].Name)
}

func TestCheck_ConfigFile(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	bin := buildBinary(t)
	fixture := createJSFixture(t)
	require.NoError(t, os.WriteFile(filepath.Join(fixture, ".unusedvars.yaml"),
		[]byte("options: {args: none}\n"), 0o644))

	stdout, stderr, err := run(t, bin, fixture, "check", fixture)
	assert.Equal(t, 1, exitCode(t, err))
	assert.Equal(t, "app.js:2:5: unused is defined but never used\n", stdout)
	assert.Contains(t, stderr, "Config: ")
}

func TestCheck_InvalidFormat(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	bin := buildBinary(t)
	fixture := createJSFixture(t)

	_, stderr, err := run(t, bin, fixture, "--format", "xml", "check", fixture)
	assert.Equal(t, 1, exitCode(t, err))
	assert.Contains(t, stderr, "invalid format")
}

func TestIndexThenFindings(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	bin := buildBinary(t)
	fixture := createJSFixture(t)

	_, stderr, err := run(t, bin, fixture, "index", fixture)
	require.NoError(t, err, "index failed: %s", stderr)
	assert.Contains(t, stderr, "Indexed")
	assert.Contains(t, stderr, "Database:")

	db, err := sql.Open("sqlite3", filepath.Join(fixture, ".unusedvars", "index.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	var files, bindings int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM files").Scan(&files))
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM bindings").Scan(&bindings))
	assert.Equal(t, 1, files)
	assert.Equal(t, 6, bindings, "used, unused, main, arguments, a, b")

	// Index alone stores no findings.
	stdout, _, err := run(t, bin, fixture, "findings", fixture)
	require.NoError(t, err)
	assert.NotContains(t, stdout, "unused")

	_, _, err = run(t, bin, fixture, "check", "--no-fail", fixture)
	require.NoError(t, err)

	stdout, _, err = run(t, bin, fixture, "findings", "--name", "b", fixture)
	require.NoError(t, err)
	assert.Contains(t, stdout, "FILE")
	assert.Regexp(t, `app\.js\s+3\s+18\s+b\s+parameter`, stdout)
	assert.NotContains(t, stdout, "unused ")
	assert.Contains(t, stdout, "Analyzed with vars=all args=after-used")
}

func TestIndex_NonExistentDirectory(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	bin := buildBinary(t)

	_, stderr, err := run(t, bin, t.TempDir(), "index", "/nonexistent/path/that/does/not/exist")
	require.Error(t, err, "should fail for non-existent directory")
	assert.Contains(t, stderr, "not found")
}
