package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/vijay-prabhu/bursary-matcher/internal/database"
	"github.com/vijay-prabhu/bursary-matcher/internal/output"
)

var opportunitiesCmd = &cobra.Command{
	Use:     "opportunities",
	Aliases: []string{"opps"},
	Short:   "Browse the stored opportunity catalogue",
}

var opportunitiesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored opportunities, newest first",
	Long: `List stored opportunities.

Examples:
  bursary opportunities list
  bursary opportunities list --since=7d
  bursary opportunities list --search engineering --limit 20`,
	Args: cobra.NoArgs,
	RunE: runOpportunitiesList,
}

var opportunitiesShowCmd = &cobra.Command{
	Use:   "show ID|URL",
	Short: "Show one opportunity with its extracted requirements",
	Args:  cobra.ExactArgs(1),
	RunE:  runOpportunitiesShow,
}

var opportunitiesDeleteCmd = &cobra.Command{
	Use:   "delete ID",
	Short: "Delete an opportunity with its embedding and matches",
	Args:  cobra.ExactArgs(1),
	RunE:  runOpportunitiesDelete,
}

var (
	oppSince  string
	oppSearch string
	oppLimit  int
	oppOffset int
)

func init() {
	rootCmd.AddCommand(opportunitiesCmd)
	opportunitiesCmd.AddCommand(opportunitiesListCmd)
	opportunitiesCmd.AddCommand(opportunitiesShowCmd)
	opportunitiesCmd.AddCommand(opportunitiesDeleteCmd)

	opportunitiesListCmd.Flags().StringVar(&oppSince, "since", "", "Only opportunities discovered within this period (e.g., 7d, 2w, 1m)")
	opportunitiesListCmd.Flags().StringVarP(&oppSearch, "search", "s", "", "Search titles and descriptions")
	opportunitiesListCmd.Flags().IntVarP(&oppLimit, "limit", "n", 50, "Maximum opportunities to list (0 = all)")
	opportunitiesListCmd.Flags().IntVar(&oppOffset, "offset", 0, "Skip this many opportunities")
}

func runOpportunitiesList(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	opts := database.OpportunityListOptions{Limit: oppLimit, Offset: oppOffset}
	if oppSince != "" {
		d, err := parseDuration(oppSince)
		if err != nil {
			return fmt.Errorf("invalid duration: %w", err)
		}
		since := time.Now().Add(-d)
		opts.Since = &since
	}
	if q := strings.TrimSpace(oppSearch); q != "" {
		opts.Search = &q
	}

	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	opps, err := a.store.ListOpportunities(ctx, opts)
	if err != nil {
		return fmt.Errorf("failed to list opportunities: %w", err)
	}

	return output.Output(outputFmt, opps)
}

// OpportunityDetail is an opportunity with its embedding status
type OpportunityDetail struct {
	database.Opportunity
	Embedded       bool   `json:"embedded"`
	EmbeddingModel string `json:"embedding_model,omitempty"`
}

func runOpportunitiesShow(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	ref := strings.TrimSpace(args[0])
	var o *database.Opportunity
	if strings.Contains(ref, "://") {
		o, err = a.store.GetOpportunityByURL(ctx, ref)
	} else {
		o, err = a.store.GetOpportunity(ctx, ref)
	}
	if err != nil {
		return fmt.Errorf("failed to load opportunity: %w", err)
	}
	if o == nil {
		return fmt.Errorf("opportunity not found: %s", ref)
	}

	detail := OpportunityDetail{Opportunity: *o}
	emb, err := a.store.GetEmbedding(ctx, o.ID)
	if err != nil {
		return fmt.Errorf("failed to load embedding: %w", err)
	}
	if emb != nil {
		detail.Embedded = true
		detail.EmbeddingModel = emb.Provider + "/" + emb.Model
	}

	if outputFmt == "json" {
		return output.JSON(detail)
	}
	printOpportunityDetail(detail)
	return nil
}

func printOpportunityDetail(d OpportunityDetail) {
	fmt.Printf("%s\n", d.Title)
	fmt.Println(strings.Repeat("=", min(len([]rune(d.Title)), 70)))
	fmt.Printf("  ID:          %s\n", d.ID)
	fmt.Printf("  URL:         %s\n", d.URL)
	fmt.Printf("  Source:      %s\n", d.Source)
	fmt.Printf("  Discovered:  %s\n", d.DiscoveredAt.Local().Format("2006-01-02 15:04"))
	if d.MinAverage != nil {
		fmt.Printf("  Min average: %d%%\n", *d.MinAverage)
	}
	if d.Citizenship != nil {
		fmt.Printf("  Citizenship: %s\n", *d.Citizenship)
	}
	if d.Embedded {
		fmt.Printf("  Embedding:   %s\n", d.EmbeddingModel)
	} else {
		fmt.Println("  Embedding:   none (run 'bursary embed')")
	}
	if d.Description != "" {
		fmt.Println()
		fmt.Println(d.Description)
	}
}

func runOpportunitiesDelete(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	if err := a.store.DeleteOpportunity(ctx, args[0]); err != nil {
		return fmt.Errorf("failed to delete opportunity: %w", err)
	}
	fmt.Printf("Deleted opportunity %s\n", args[0])
	return nil
}

// parseDuration parses durations like "7d", "2w", "1m"
func parseDuration(s string) (time.Duration, error) {
	if len(s) < 2 {
		return 0, fmt.Errorf("invalid duration format")
	}

	unit := s[len(s)-1]
	valueStr := s[:len(s)-1]

	var value int
	if _, err := fmt.Sscanf(valueStr, "%d", &value); err != nil || value < 0 {
		return 0, fmt.Errorf("invalid duration value")
	}

	switch unit {
	case 'd':
		return time.Duration(value) * 24 * time.Hour, nil
	case 'w':
		return time.Duration(value) * 7 * 24 * time.Hour, nil
	case 'm':
		return time.Duration(value) * 30 * 24 * time.Hour, nil
	default:
		return 0, fmt.Errorf("unknown duration unit: %c (use d, w, or m)", unit)
	}
}
