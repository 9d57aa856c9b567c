package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vijay-prabhu/bursary-matcher/internal/database"
	"github.com/vijay-prabhu/bursary-matcher/internal/embeddings"
	"github.com/vijay-prabhu/bursary-matcher/internal/output"
	"github.com/vijay-prabhu/bursary-matcher/internal/scheduler"
	"github.com/vijay-prabhu/bursary-matcher/internal/scraper"
)

var scrapeCmd = &cobra.Command{
	Use:   "scrape",
	Short: "Scrape bursary sites into the catalogue",
	Long: `Visit the configured bursary listing sites, keep the pages that pass
the exclusion filter and store them as opportunities.

Without --industry this runs a full refresh: sites are chosen from the
industries of every stored profile and the catalogue is re-embedded
afterwards, exactly as the scheduler does.

Examples:
  bursary scrape
  bursary scrape --industry "Health & Medical Sciences"
  bursary scrape --industry Engineering --no-embed`,
	RunE: runScrape,
}

var (
	scrapeIndustries []string
	scrapeNoEmbed    bool
)

func init() {
	rootCmd.AddCommand(scrapeCmd)
	scrapeCmd.Flags().StringSliceVar(&scrapeIndustries, "industry", nil, "Scrape sites for these industries only")
	scrapeCmd.Flags().BoolVar(&scrapeNoEmbed, "no-embed", false, "Skip re-embedding after an --industry scrape")
}

func runScrape(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	fetcher := scraper.New(a.cfg.Scraper, nil, a.log)
	terminal := NewTerminal()

	var result *scheduler.RefreshResult
	if len(scrapeIndustries) == 0 {
		statusf("Refreshing catalogue for all stored profiles...\n")
		result, err = scheduler.NewRefresher(a.store, fetcher, a.svc, a.log).Refresh(ctx)
	} else {
		result, err = scrapeIndustriesOnly(cmd, a, fetcher, terminal)
	}
	terminal.Done()

	if result != nil {
		if outputFmt == "json" {
			if jerr := output.JSON(result); jerr != nil {
				return jerr
			}
		} else {
			printRefreshResult(result)
		}
	}
	if err != nil {
		return fmt.Errorf("scrape finished with errors: %w", err)
	}
	return nil
}

func scrapeIndustriesOnly(cmd *cobra.Command, a *app, fetcher *scraper.Fetcher, terminal *Terminal) (*scheduler.RefreshResult, error) {
	ctx := cmd.Context()
	result := &scheduler.RefreshResult{Industries: scrapeIndustries}

	known, err := a.store.KnownURLs(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load known urls: %w", err)
	}

	statusf("Scraping sites for %d industries...\n", len(scrapeIndustries))
	candidates, stats, err := fetcher.FetchCandidates(ctx, scrapeIndustries, known)
	result.Scrape = stats
	if err != nil {
		return result, err
	}

	result.Ingest, err = a.svc.Ingest(ctx, candidates, database.SourceScraper, nil)
	if err != nil {
		return result, err
	}
	warnPersist(result.Ingest.PersistErr)

	if scrapeNoEmbed {
		return result, nil
	}
	result.Reembed, err = a.svc.Reembed(ctx, progress(terminal))
	if errors.Is(err, embeddings.ErrDisabled) {
		statusf("Embedding provider disabled, skipping re-embed\n")
		return result, nil
	}
	if err != nil {
		return result, err
	}
	warnPersist(result.Reembed.PersistErr)
	return result, nil
}

func printRefreshResult(r *scheduler.RefreshResult) {
	fmt.Println()
	fmt.Println("Scrape complete:")
	if r.Users > 0 {
		fmt.Printf("  Profiles:              %d\n", r.Users)
	}
	fmt.Printf("  Industries:            %d\n", len(r.Industries))
	fmt.Printf("  Sites visited:         %d (%d failed)\n", r.Scrape.Sites, r.Scrape.SitesFailed)
	fmt.Printf("  Links found:           %d\n", r.Scrape.Links)
	fmt.Printf("  Already known:         %d\n", r.Scrape.Known)
	fmt.Printf("  Rejected by filter:    %d\n", r.Scrape.Rejected)
	fmt.Printf("  Candidates:            %d\n", r.Scrape.Candidates)
	if r.Ingest != nil {
		fmt.Printf("  New opportunities:     %d\n", r.Ingest.Created)
		fmt.Printf("  Updated opportunities: %d\n", r.Ingest.Updated)
	}
	if r.Reembed != nil {
		fmt.Printf("  Embedded:              %d (%d failed)\n", r.Reembed.Created+r.Reembed.Updated, r.Reembed.Failed)
	}
}
