package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vijay-prabhu/bursary-matcher/internal/output"
)

var embedCmd = &cobra.Command{
	Use:   "embed",
	Short: "Recompute embeddings for every stored opportunity",
	Long: `Embed the title, description and URL of every stored opportunity with
the configured provider and store the vectors used by semantic matching.

Run this after importing or when switching embedding model.`,
	Args: cobra.NoArgs,
	RunE: runEmbed,
}

func init() {
	rootCmd.AddCommand(embedCmd)
}

func runEmbed(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	if err := a.checkProvider(ctx); err != nil {
		return fmt.Errorf("embedding provider %s unreachable: %w", a.cfg.Embedding.Provider, err)
	}

	terminal := NewTerminal()
	result, err := a.svc.Reembed(ctx, progress(terminal))
	terminal.Done()
	if err != nil {
		return fmt.Errorf("re-embed failed: %w", err)
	}
	warnPersist(result.PersistErr)

	return output.Output(outputFmt, result)
}
