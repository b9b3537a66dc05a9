package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"joetracker-engine/internal/aggregate"
	"joetracker-engine/internal/report"
	"joetracker-engine/internal/sitegen"
	"joetracker-engine/internal/store"
)

func newSiteCmd(a *app) *cobra.Command {
	var (
		outDir          string
		currentYearOnly bool
	)

	cmd := &cobra.Command{
		Use:   "site",
		Short: "Generate the static dashboard",
		Long: `Site writes joe_data.json and index.html to the output directory.

With --current-year-only the existing joe_data.json is kept and only the
current academic year is recomputed in every section.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := a.loadConfig()
			if err != nil {
				return err
			}
			if outDir == "" {
				outDir = cfg.Site.OutDir
			}

			unlock, err := store.LockDataDir(cmd.Context(), cfg.App.DataDir)
			if err != nil {
				return err
			}
			defer unlock()

			db, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			postings, err := store.ListPostings(cmd.Context(), db.Pool)
			if err != nil {
				return err
			}

			now := time.Now()
			ds := report.Build(postings, cfg.DomainSections(), now)
			if currentYearOnly {
				existing, ok, err := sitegen.LoadDataset(outDir)
				if err != nil {
					return err
				}
				if ok {
					ds = report.MergeCurrentYear(existing, ds, aggregate.AcademicYear(now))
				}
			}

			if err := sitegen.Generate(outDir, ds, sitegen.Options{
				Title:     cfg.Site.Title,
				Sections:  cfg.DomainSections(),
				SourceURL: cfg.Fetch.BaseURL + cfg.Fetch.ListingsPath,
			}); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Wrote %s and %s to %s\n", sitegen.IndexFile, sitegen.DataFile, outDir)
			return nil
		},
	}
	cmd.Flags().StringVar(&outDir, "out", "", "output directory (default: site.out_dir)")
	cmd.Flags().BoolVar(&currentYearOnly, "current-year-only", false, "recompute only the current academic year")
	return cmd
}
