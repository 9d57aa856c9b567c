package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vijay-prabhu/bursary-matcher/internal/database"
	"github.com/vijay-prabhu/bursary-matcher/internal/output"
)

var scoreCmd = &cobra.Command{
	Use:   "score TITLE [DESCRIPTION]",
	Short: "Explain how one opportunity scores",
	Long: `Score a single title and description without storing anything and
show the keyword breakdown, semantic similarity and extracted requirements.

Examples:
  bursary score "Engineering Bursary 2026" "Open to South African citizens with 65% average"
  bursary score "Medical Bursary" --user thandi`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runScore,
}

var scoreUser string

func init() {
	rootCmd.AddCommand(scoreCmd)
	scoreCmd.Flags().StringVarP(&scoreUser, "user", "u", "", "Score against this user's stored profile")
}

func runScore(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	title := args[0]
	var description string
	if len(args) > 1 {
		description = args[1]
	}

	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	var profile *database.UserProfile
	if id := strings.TrimSpace(scoreUser); id != "" {
		if profile, err = a.svc.Profile(ctx, id); err != nil {
			return fmt.Errorf("failed to load profile: %w", err)
		}
	}

	return output.Output(outputFmt, a.svc.Explain(ctx, profile, title, description))
}
