package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/jward/unusedvars"
)

var (
	flagDB     string
	flagFormat string
)

// errorHandled is set by outputError so main() doesn't double-print.
var errorHandled bool

// errFindings makes check exit with status 1 after printing its report.
var errFindings = errors.New("unused bindings found")

func main() {
	if err := rootCmd.Execute(); err != nil {
		if !errorHandled && !errors.Is(err, errFindings) {
			fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		}
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "unusedvars",
	Short:         "Report JavaScript bindings that are declared but never read",
	Long:          "unusedvars resolves JavaScript sources into scope trees with tree-sitter, stores them in SQLite and reports every variable, function, class, import or parameter that is never read.",
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return validateFormat(flagFormat)
	},
	// No Run: prints help by default.
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagDB, "db", "", "database path (default: .unusedvars/index.db relative to repo root)")
	rootCmd.PersistentFlags().StringVar(&flagFormat, "format", "text", "output format: json|text")

	rootCmd.AddCommand(indexCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(findingsCmd)
}

var (
	flagForce  bool
	flagPolicy policyFlags
)

var indexCmd = &cobra.Command{
	Use:   "index [path]",
	Short: "Resolve and store the scope trees of a directory",
	Long:  "Parses JavaScript files with tree-sitter, resolves their scopes and writes the trees to the SQLite database. Unchanged files are skipped.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runIndex,
}

func init() {
	indexCmd.Flags().BoolVar(&flagForce, "force", false, "delete database and reindex from scratch")
	flagPolicy.register(indexCmd.Flags())
}

func runIndex(cmd *cobra.Command, args []string) error {
	start := time.Now()

	targetDir, err := resolveTargetDir(args)
	if err != nil {
		return err
	}
	dbPath, err := prepareDB(targetDir, flagForce)
	if err != nil {
		return err
	}

	cc, err := loadCheckConfig(context.Background(), targetDir, &flagPolicy)
	if err != nil {
		return err
	}
	engine, err := unusedvars.New(dbPath, cc.engineOptions()...)
	if err != nil {
		return fmt.Errorf("creating engine: %w", err)
	}
	defer engine.Close()

	if err := engine.IndexDirectory(context.Background(), targetDir); err != nil {
		return fmt.Errorf("indexing: %w", err)
	}

	fmt.Fprintf(os.Stderr, "Indexed %s in %s\n", targetDir, time.Since(start).Round(time.Millisecond))
	fmt.Fprintf(os.Stderr, "Database: %s\n", dbPath)
	return nil
}

// prepareDB resolves the database path for targetDir, creates its
// directory and, with force, deletes the existing database.
func prepareDB(targetDir string, force bool) (string, error) {
	dbPath := resolveDBPath(findRepoRoot(targetDir))

	dbDir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dbDir, 0o755); err != nil {
		return "", fmt.Errorf("creating %s: %w", dbDir, err)
	}

	if force {
		if err := os.Remove(dbPath); err != nil && !os.IsNotExist(err) {
			return "", fmt.Errorf("removing database for --force: %w", err)
		}
		fmt.Fprintf(os.Stderr, "Cleared database: %s\n", dbPath)
	}
	return dbPath, nil
}

// resolveTargetDir returns the absolute path of the directory to index.
func resolveTargetDir(args []string) (string, error) {
	dir := "."
	if len(args) > 0 {
		dir = args[0]
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolving path %q: %w", dir, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", fmt.Errorf("directory not found: %s", abs)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("not a directory: %s", abs)
	}
	return abs, nil
}

// findRepoRoot walks up from startDir looking for a .git directory.
// Returns the directory containing .git, or startDir if not found.
func findRepoRoot(startDir string) string {
	dir := startDir
	for {
		if info, err := os.Stat(filepath.Join(dir, ".git")); err == nil && info.IsDir() {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached filesystem root without finding .git.
			return startDir
		}
		dir = parent
	}
}

// resolveDBPath returns the database path from the --db flag or the default.
func resolveDBPath(repoRoot string) string {
	if flagDB != "" {
		if filepath.IsAbs(flagDB) {
			return flagDB
		}
		return filepath.Join(repoRoot, flagDB)
	}
	return filepath.Join(repoRoot, ".unusedvars", "index.db")
}
