package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/vijay-prabhu/bursary-matcher/internal/scheduler"
	"github.com/vijay-prabhu/bursary-matcher/internal/scraper"
	"github.com/vijay-prabhu/bursary-matcher/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and the refresh scheduler",
	Long: `Serve the matching HTTP API on server.host:server.port.

When scheduler.enabled is set, a background job scrapes new opportunities
for every stored profile and re-embeds the catalogue on the
scheduler.refresh_every cron spec.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

var serveNoScheduler bool

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().BoolVar(&serveNoScheduler, "no-scheduler", false, "Do not start the refresh scheduler")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	if err := a.checkProvider(ctx); err != nil {
		a.log.Warn("embedding provider unreachable, semantic matching will report partial results", zap.Error(err))
	}

	if a.cfg.Scheduler.Enabled && !serveNoScheduler {
		refresher := scheduler.NewRefresher(a.store, scraper.New(a.cfg.Scraper, nil, a.log), a.svc, a.log)
		sched := scheduler.New(refresher, a.cfg.Scheduler.RefreshEvery, a.cfg.Scheduler.RunOnStart, a.log)
		if err := sched.Start(ctx); err != nil {
			return fmt.Errorf("failed to start scheduler: %w", err)
		}
		defer func() {
			<-sched.Stop().Done()
		}()
	}

	a.log.Info("starting http api", zap.String("driver", a.store.Driver()), zap.String("version", version))
	return server.New(a.svc, a.store, a.cfg.Server, a.log).Run(ctx)
}
