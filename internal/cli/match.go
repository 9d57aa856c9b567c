package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vijay-prabhu/bursary-matcher/internal/filter"
	"github.com/vijay-prabhu/bursary-matcher/internal/matching"
	"github.com/vijay-prabhu/bursary-matcher/internal/output"
)

var matchCmd = &cobra.Command{
	Use:   "match USER_ID",
	Short: "Compute and store matches for a user",
	Long: `Score opportunities against a user's qualifications, store the
results and print them best first.

Candidates come from --file when given (same format as 'bursary import'),
otherwise from the stored catalogue.

Examples:
  bursary match thandi
  bursary match thandi --strategy keyword --limit 10
  bursary match thandi --file scraped.json -o json`,
	Args: cobra.ExactArgs(1),
	RunE: runMatch,
}

var matchesCmd = &cobra.Command{
	Use:   "matches USER_ID",
	Short: "List a user's stored matches",
	Args:  cobra.ExactArgs(1),
	RunE:  runMatches,
}

var (
	matchStrategy string
	matchLimit    int
	matchFile     string
)

func init() {
	rootCmd.AddCommand(matchCmd)
	rootCmd.AddCommand(matchesCmd)

	matchCmd.Flags().StringVarP(&matchStrategy, "strategy", "s", "", "Scoring strategy: keyword, semantic or both (default from config)")
	matchCmd.Flags().IntVarP(&matchLimit, "limit", "n", 0, "Maximum matches to return (default from config)")
	matchCmd.Flags().StringVarP(&matchFile, "file", "f", "", "Score candidates from this JSON file instead of the catalogue")

	matchesCmd.Flags().IntVarP(&matchLimit, "limit", "n", 0, "Maximum matches to list (0 = all)")
}

func runMatch(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	var candidates []filter.Candidate
	if matchFile != "" {
		var err error
		if candidates, err = readCandidatesFile(matchFile); err != nil {
			return err
		}
	}

	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	if matchFile == "" {
		if candidates, err = a.svc.StoredCandidates(ctx); err != nil {
			return err
		}
	}

	terminal := NewTerminal()
	result, err := a.svc.ComputeMatches(ctx, args[0], candidates, matching.Options{
		Limit:    matchLimit,
		Strategy: matching.Strategy(matchStrategy),
		Progress: progress(terminal),
	})
	terminal.Done()
	if err != nil {
		return fmt.Errorf("matching failed: %w", err)
	}
	warnPersist(result.PersistErr)

	return output.Output(outputFmt, result)
}

func runMatches(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	matches, err := a.svc.ListMatches(ctx, args[0], matchLimit)
	if err != nil {
		return fmt.Errorf("failed to list matches: %w", err)
	}

	return output.Output(outputFmt, matches)
}
