package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/jward/unusedvars"
)

var (
	flagWatch  bool
	flagNoFail bool
)

var checkCmd = &cobra.Command{
	Use:   "check [path]",
	Short: "Index a directory and report unused bindings",
	Long: `Indexes the directory like "index", analyzes every stored scope tree and prints one line per unused binding.

Options are layered: defaults, then the YAML config, then the Risor options script, then flags. Exits with status 1 when anything is reported unless --no-fail is set.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runCheck,
}

func init() {
	checkCmd.Flags().BoolVar(&flagForce, "force", false, "delete database and reindex from scratch")
	checkCmd.Flags().BoolVar(&flagWatch, "watch", false, "keep running and re-check on file changes")
	checkCmd.Flags().BoolVar(&flagNoFail, "no-fail", false, "exit 0 even when unused bindings are found")
	flagPolicy.register(checkCmd.Flags())
}

func runCheck(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	targetDir, err := resolveTargetDir(args)
	if err != nil {
		return outputError("check", err)
	}
	cc, err := loadCheckConfig(ctx, targetDir, &flagPolicy)
	if err != nil {
		return outputError("check", err)
	}
	if len(cc.sources) > 0 {
		fmt.Fprintf(os.Stderr, "Config: %s\n", strings.Join(cc.sources, ", "))
	}
	dbPath, err := prepareDB(targetDir, flagForce)
	if err != nil {
		return outputError("check", err)
	}

	engine, err := unusedvars.New(dbPath, cc.engineOptions()...)
	if err != nil {
		return outputError("check", fmt.Errorf("creating engine: %w", err))
	}
	defer engine.Close()

	check := func() (int, error) {
		start := time.Now()
		if err := engine.IndexDirectory(ctx, targetDir); err != nil {
			// Files that fail to resolve are skipped; the rest are still checked.
			fmt.Fprintf(os.Stderr, "Warning: %s\n", err)
		}
		reports, err := engine.AnalyzeDir(ctx, targetDir)
		if err != nil {
			return 0, err
		}
		total := countFindings(reports)
		if err := outputResult(cmd.OutOrStdout(), checkResult(engine.Policy(), reports, targetDir)); err != nil {
			return 0, err
		}
		fmt.Fprintf(os.Stderr, "Checked %s in %s: %d unused (%s)\n",
			targetDir, time.Since(start).Round(time.Millisecond), total, engine.Policy())
		return total, nil
	}

	total, err := check()
	if err != nil {
		return outputError("check", err)
	}
	if flagWatch {
		return watch(ctx, engine, targetDir, dbPath, func(changed []string) {
			fmt.Fprintf(os.Stderr, "Changed: %s\n", strings.Join(changed, ", "))
			if _, err := check(); err != nil {
				fmt.Fprintf(os.Stderr, "Error: %s\n", err)
			}
		})
	}
	if total > 0 && !flagNoFail {
		return errFindings
	}
	return nil
}

func checkResult(p unusedvars.Policy, reports []unusedvars.FileReport, base string) CLIResult {
	total := countFindings(reports)
	if reports == nil {
		reports = []unusedvars.FileReport{}
	}
	return CLIResult{
		Command:    "check",
		Policy:     p.String(),
		Base:       base,
		Results:    reports,
		TotalCount: &total,
	}
}

func countFindings(reports []unusedvars.FileReport) int {
	n := 0
	for _, r := range reports {
		n += len(r.Findings)
	}
	return n
}
