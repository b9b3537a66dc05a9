package cli

import (
	"context"
	"fmt"
	"io"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"joetracker-engine/internal/config"
	"joetracker-engine/internal/refresh"
	"joetracker-engine/internal/scrape"
)

func newIngestCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "ingest",
		Short: "Load every export in the data dir into the database",
		Long: `Ingest reads every .xlsx and .csv export in the data dir and its
scraped/ subdirectory, estimates the openings of each listing and stores
new listings. Listings already stored are left untouched.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := a.loadConfig()
			if err != nil {
				return err
			}
			return a.runRefresh(cmd.Context(), cfg, refresh.Options{})
		},
	}
}

func newFetchCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Download exports from the job board, then ingest",
		Long: `Fetch downloads the configured sections for each configured academic
year into <data-dir>/scraped/, then runs ingest. Without configured years
only the current academic year is downloaded.

Example:
  joetracker fetch
  joetracker fetch --years 2019-2024`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := a.loadConfig()
			if err != nil {
				return err
			}
			cfg.Fetch.Enabled = true
			if _, vr := config.NormalizeAndValidate(cfg); !vr.OK() {
				return fmt.Errorf("fetch config: %v", vr.Errors)
			}

			return a.runRefresh(cmd.Context(), cfg, refresh.Options{
				Fetch:    true,
				Fetchers: scrape.Fetchers(cfg, time.Now()),
			})
		},
	}
	cmd.Flags().String("years", "", `academic years to fetch, "2023,2024" or "2019-2024"`)
	_ = a.v.BindPFlag(config.KeyFetchYears, cmd.Flags().Lookup("years"))
	return cmd
}

func (a *app) runRefresh(ctx context.Context, cfg config.Config, opts refresh.Options) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	svc := &refresh.Service{DB: db.Pool, DataDir: cfg.App.DataDir}
	sum, err := svc.RunOnce(ctx, opts)
	if err != nil {
		return err
	}
	printSummary(a.out, sum, opts.Fetch)
	return nil
}

func printSummary(w io.Writer, sum refresh.Summary, fetched bool) {
	if fetched {
		fmt.Fprintf(w, "Downloaded %d file(s), %d failed\n", sum.Fetched, sum.FetchFailed)
	}
	fmt.Fprintf(w, "Read %d file(s), %d row(s), %d listing(s)\n", sum.Files, sum.Rows, sum.Postings)
	fmt.Fprintf(w, "Added %d new listing(s); %d without a usable date\n", sum.Added, sum.Skipped)
}
