package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jward/unusedvars"
)

var flagName string

var findingsCmd = &cobra.Command{
	Use:   "findings [path]",
	Short: "List the findings stored by the last check",
	Long:  "Reads findings from the database without re-indexing. Use --name to list the unused bindings of one name.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runFindings,
}

func init() {
	findingsCmd.Flags().StringVar(&flagName, "name", "", "only bindings with this name")
}

func runFindings(cmd *cobra.Command, args []string) error {
	targetDir, err := resolveTargetDir(args)
	if err != nil {
		return outputError("findings", err)
	}
	engine, err := unusedvars.New(resolveDBPath(findRepoRoot(targetDir)))
	if err != nil {
		return outputError("findings", fmt.Errorf("creating engine: %w", err))
	}
	defer engine.Close()

	reports, err := engine.FindingsDir(targetDir, flagName)
	if err != nil {
		return outputError("findings", err)
	}
	policy, err := engine.AnalyzedPolicy()
	if err != nil {
		return outputError("findings", err)
	}

	total := countFindings(reports)
	if reports == nil {
		reports = []unusedvars.FileReport{}
	}
	return outputResult(cmd.OutOrStdout(), CLIResult{
		Command:    "findings",
		Policy:     policy,
		Base:       targetDir,
		Results:    reports,
		TotalCount: &total,
	})
}
