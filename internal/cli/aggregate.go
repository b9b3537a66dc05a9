package cli

import (
	"encoding/json"
	"fmt"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"joetracker-engine/internal/aggregate"
	"joetracker-engine/internal/report"
	"joetracker-engine/internal/store"
)

func newAggregateCmd(a *app) *cobra.Command {
	var (
		section string
		asJSON  bool
	)

	cmd := &cobra.Command{
		Use:   "aggregate",
		Short: "Print per-academic-year opening totals for a section",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := a.loadConfig()
			if err != nil {
				return err
			}
			if section == "" {
				section = cfg.Sections[0].Key
			}

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
			series, ok := ds.Sections[section]
			if !ok {
				return fmt.Errorf("unknown section %q", section)
			}

			if asJSON {
				enc := json.NewEncoder(a.out)
				enc.SetIndent("", "  ")
				return enc.Encode(series)
			}

			week := report.ComparisonWeek(now)
			tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
			fmt.Fprintf(tw, "%s\n\n", ds.SectionLabels[section])
			fmt.Fprintf(tw, "YEAR\tLISTINGS\tOPENINGS\tBY WEEK %d\n", week)
			for _, y := range report.Years(ds, section) {
				s := series[strconv.Itoa(y)]
				fmt.Fprintf(tw, "%d-%02d\t%d\t%d\t%d\n", y, (y+1)%100, s.Postings, s.Total, aggregate.CumulativeAt(s, week))
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringVar(&section, "section", "", "section key (default: first configured section)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the weekly series as JSON")
	return cmd
}
