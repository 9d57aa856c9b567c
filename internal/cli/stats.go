package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/vijay-prabhu/bursary-matcher/internal/database"
	"github.com/vijay-prabhu/bursary-matcher/internal/output"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show catalogue and matching statistics",
	Long: `Display aggregate statistics about the stored catalogue.

Examples:
  bursary stats                        # Overall counts
  bursary stats --detailed             # Breakdown by source with activity chart
  bursary stats --detailed --since=2w  # Breakdown for the last two weeks`,
	RunE: runStats,
}

var (
	statsSince    string
	statsDetailed bool
)

func init() {
	rootCmd.AddCommand(statsCmd)
	statsCmd.Flags().StringVar(&statsSince, "since", "", "Time period for the detailed breakdown (e.g., 7d, 2w, 1m)")
	statsCmd.Flags().BoolVar(&statsDetailed, "detailed", false, "Show detailed statistics with breakdowns")
}

func runStats(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	// Parse time filter
	var since *time.Time
	if statsSince != "" {
		duration, err := parseDuration(statsSince)
		if err != nil {
			return fmt.Errorf("invalid duration: %w", err)
		}
		sinceTime := time.Now().Add(-duration)
		since = &sinceTime
	}

	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	stats, err := a.store.GetStats(ctx)
	if err != nil {
		return fmt.Errorf("failed to get stats: %w", err)
	}

	if !statsDetailed {
		return output.Output(outputFmt, stats)
	}

	detailed, err := getDetailedStats(ctx, a.store, stats, since, time.Now())
	if err != nil {
		return fmt.Errorf("failed to get detailed stats: %w", err)
	}

	if outputFmt == "json" {
		return output.JSON(detailed)
	}

	printDetailedStats(detailed)
	return nil
}

// DetailedStats contains extended statistics
type DetailedStats struct {
	Basic          *database.Stats `json:"basic"`
	Discovered     int             `json:"discovered"` // within the period
	BySource       map[string]int  `json:"by_source"`
	Requirements   Requirements    `json:"requirements"`
	RecentActivity []ActivityStat  `json:"recent_activity"`
}

// Requirements counts opportunities that state eligibility constraints
type Requirements struct {
	MinAverage  int `json:"min_average"`
	Citizenship int `json:"citizenship"`
}

// ActivityStat shows discoveries per day
type ActivityStat struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

type opportunityLister interface {
	ListOpportunities(ctx context.Context, opts database.OpportunityListOptions) ([]database.Opportunity, error)
}

func getDetailedStats(ctx context.Context, store opportunityLister, basic *database.Stats, since *time.Time, now time.Time) (*DetailedStats, error) {
	opps, err := store.ListOpportunities(ctx, database.OpportunityListOptions{Since: since})
	if err != nil {
		return nil, err
	}

	d := &DetailedStats{
		Basic:      basic,
		Discovered: len(opps),
		BySource:   make(map[string]int),
	}

	activityByDay := make(map[string]int)
	for _, o := range opps {
		d.BySource[string(o.Source)]++
		if o.MinAverage != nil {
			d.Requirements.MinAverage++
		}
		if o.Citizenship != nil {
			d.Requirements.Citizenship++
		}
		activityByDay[o.DiscoveredAt.Local().Format("2006-01-02")]++
	}

	// Last 14 days, oldest first
	for i := 13; i >= 0; i-- {
		day := now.AddDate(0, 0, -i).Format("2006-01-02")
		d.RecentActivity = append(d.RecentActivity, ActivityStat{Date: day, Count: activityByDay[day]})
	}

	return d, nil
}

func printDetailedStats(d *DetailedStats) {
	fmt.Println("Bursary Catalogue Statistics (Detailed)")
	fmt.Println(strings.Repeat("=", 50))
	fmt.Println()

	fmt.Println("Summary")
	fmt.Println(strings.Repeat("-", 30))
	fmt.Printf("  Opportunities: %d\n", d.Basic.Opportunities)
	fmt.Printf("  Embedded:      %d\n", d.Basic.Embedded)
	fmt.Printf("  Users:         %d\n", d.Basic.Users)
	fmt.Printf("  Stored matches: %d\n", d.Basic.Matches)
	fmt.Println()

	fmt.Println("Discovered In Period")
	fmt.Println(strings.Repeat("-", 30))
	fmt.Printf("  Total:                  %d\n", d.Discovered)
	for _, source := range []database.Source{database.SourceScraper, database.SourceImport} {
		fmt.Printf("  From %-8s           %d\n", string(source)+":", d.BySource[string(source)])
	}
	fmt.Printf("  Stating min. average:   %d\n", d.Requirements.MinAverage)
	fmt.Printf("  Stating citizenship:    %d\n", d.Requirements.Citizenship)
	fmt.Println()

	// Activity chart (ASCII)
	fmt.Println("Discoveries (Last 14 Days)")
	fmt.Println(strings.Repeat("-", 30))
	maxCount := 0
	for _, a := range d.RecentActivity {
		maxCount = max(maxCount, a.Count)
	}
	if maxCount == 0 {
		fmt.Println("  No opportunities discovered in the last 14 days")
		return
	}
	for _, a := range d.RecentActivity {
		bar := strings.Repeat("█", (a.Count*20)/maxCount)
		fmt.Printf("  %s %s %d\n", a.Date[5:], bar, a.Count) // MM-DD
	}
}
