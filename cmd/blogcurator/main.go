package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"BlogCurator/internal/app"
	"BlogCurator/internal/config"
	"BlogCurator/internal/logging"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var cfgPath string

	root := &cobra.Command{
		Use:   "blogcurator",
		Short: "Classify and rank developer blog articles into weekly reading lists",
		Long: `blogcurator ingests developer blog feeds, classifies every article into a fixed
set of categories and publishes weekly reading lists.

Example usage:
  blogcurator ingest                     # fetch and classify the last 24h
  blogcurator curate --period 2026-W09   # build the reading list for a week
  blogcurator show --period 2026-W09     # print a stored reading list
  blogcurator run                        # scheduled ingestion and curation`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&cfgPath, "config", "", "config file (default $BLOG_CURATOR_CONFIG)")

	withApp := func(cmd *cobra.Command, fn func(ctx context.Context, a *app.Application) error) error {
		cfg, err := config.Load(cfgPath)
		if err != nil {
			return err
		}
		logger := logging.New(cfg.Logging.Level, cfg.Logging.Format)

		a, err := app.New(cmd.Context(), cfg, logger)
		if err != nil {
			return err
		}
		defer func() {
			if err := a.Close(); err != nil {
				logger.Warn("close application", "error", err)
			}
		}()
		return fn(cmd.Context(), a)
	}

	var day string
	ingest := &cobra.Command{
		Use:   "ingest",
		Short: "Fetch, classify and store articles for one day",
		RunE: func(cmd *cobra.Command, _ []string) error {
			at := time.Now()
			if day != "" {
				parsed, err := time.Parse(time.DateOnly, day)
				if err != nil {
					return fmt.Errorf("parse --day: %w", err)
				}
				at = parsed.Add(24 * time.Hour)
			}
			return withApp(cmd, func(ctx context.Context, a *app.Application) error {
				report, err := a.Ingest(ctx, at)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "period %s: fetched %d, skipped %d, classified %d (%d degraded)\n",
					report.Period, report.Fetched, report.Skipped, report.Classified, report.Degraded)
				return nil
			})
		},
	}
	ingest.Flags().StringVar(&day, "day", "", "calendar day to ingest (YYYY-MM-DD), default the last 24h")

	var curatePeriod string
	curate := &cobra.Command{
		Use:   "curate",
		Short: "Rank stored articles and generate the reading list for a week",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.Application) error {
				report, err := a.Curate(ctx, curatePeriod)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "period %s (run %s): %d articles, %d entries, %d editor's choice, notified=%t\n",
					report.Period, report.RunID, report.Articles, report.Entries, report.EditorsChoice, report.Notified)
				return nil
			})
		},
	}
	curate.Flags().StringVar(&curatePeriod, "period", "", "ISO week (YYYY-Www), default the previous week")

	var showPeriod, showFormat string
	show := &cobra.Command{
		Use:   "show",
		Short: "Print a stored reading list",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.Application) error {
				list, ok, err := a.ReadingList(ctx, showPeriod)
				if err != nil {
					return err
				}
				if !ok {
					return fmt.Errorf("no reading list for %s", showPeriod)
				}
				return renderReadingList(cmd.OutOrStdout(), list, showFormat)
			})
		},
	}
	show.Flags().StringVar(&showPeriod, "period", "", "ISO week (YYYY-Www)")
	show.Flags().StringVarP(&showFormat, "output", "o", "table", "output format: table or json")
	_ = show.MarkFlagRequired("period")

	run := &cobra.Command{
		Use:   "run",
		Short: "Run scheduled ingestion and curation until interrupted",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.Application) error {
				return a.Run(ctx)
			})
		},
	}

	root.AddCommand(ingest, curate, show, run)
	return root
}
