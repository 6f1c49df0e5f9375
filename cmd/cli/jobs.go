package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kosarica/catalog-service/internal/app"
	"github.com/kosarica/catalog-service/internal/pipeline"
)

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Stage the active inbox file",
	Long: `Stream the oldest XML file in the inbox into the staging queue and move
it to the backup directory. Does nothing when the inbox is empty.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
			res, err := a.Pipeline.Extract(ctx, pipeline.TriggerCLI)
			if err != nil {
				return err
			}
			return printJSON(res)
		})
	},
}

var transformCmd = &cobra.Command{
	Use:   "transform",
	Short: "Drain one batch from the staging queue",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
			res, err := a.Pipeline.Transform(ctx, pipeline.TriggerCLI)
			if err != nil {
				return err
			}
			return printJSON(res)
		})
	},
}

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Extract the active feed and drain the whole queue",
	Example: `  catalog-service import
  catalog-service import --config ./config/prod.yaml`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
			res, err := a.Pipeline.ImportNow(ctx, pipeline.TriggerCLI)
			if err != nil {
				return err
			}
			return printJSON(res)
		})
	},
}

var relocateCmd = &cobra.Command{
	Use:   "relocate",
	Short: "Move the active inbox file to the backup directory",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
			path := a.Pipeline.Relocate(ctx, pipeline.TriggerCLI)
			if path == "" {
				fmt.Println("Inbox is empty")
				return nil
			}
			fmt.Println(path)
			return nil
		})
	},
}

type statusOutput struct {
	Queue      map[string]int64 `json:"queue"`
	QueueTotal int64            `json:"queueTotal"`
	HasError   bool             `json:"hasError"`
	BatchLimit int              `json:"batchLimit"`
	Recipients []string         `json:"recipients"`
	ActiveFeed string           `json:"activeFeed,omitempty"`
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show queue depth, settings and the active feed",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
			counts, err := a.Pipeline.Queue().CountByKind(ctx)
			if err != nil {
				return err
			}
			view, err := a.Pipeline.Settings().Snapshot(ctx)
			if err != nil {
				return err
			}
			out := statusOutput{
				Queue:      make(map[string]int64, len(counts)),
				HasError:   view.HasError,
				BatchLimit: view.BatchLimit,
				Recipients: view.Recipients,
			}
			for kind, n := range counts {
				out.Queue[string(kind)] = n
				out.QueueTotal += n
			}
			if active, err := a.Pipeline.Inbox().Active(); err == nil {
				out.ActiveFeed = active
			}
			return printJSON(out)
		})
	},
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the periodic import jobs until interrupted",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		return withApp(ctx, func(ctx context.Context, a *app.App) error {
			if err := a.ScheduleJobs(); err != nil {
				return err
			}
			a.Scheduler.Start(ctx)
			logger.Info().Msg("Scheduler running, press Ctrl+C to stop")
			<-ctx.Done()
			a.Scheduler.Stop()
			logger.Info().Msg("Scheduler stopped")
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(extractCmd, transformCmd, importCmd, relocateCmd, statusCmd, runCmd)
}

// withApp wires the services for one command and releases them afterwards.
func withApp(ctx context.Context, fn func(context.Context, *app.App) error) error {
	if ctx == nil {
		ctx = context.Background()
	}
	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize: %w", err)
	}
	defer a.Close()
	return fn(ctx, a)
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
