package cli

import (
	"fmt"
	"io"
	"log"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"joetracker-engine/internal/config"
)

// Version is set at build time with -ldflags "-X ...cli.Version=...".
var Version = "dev"

// app carries the state shared by every subcommand of one invocation.
type app struct {
	cfgFile string
	verbose bool
	v       *viper.Viper
	out     io.Writer
}

// NewRootCmd builds the command tree. Each call returns an independent tree.
func NewRootCmd() *cobra.Command {
	a := &app{v: config.NewViper()}

	root := &cobra.Command{
		Use:   "joetracker",
		Short: "Track job openings posted on the AEA Job Openings for Economists board",
		Long: `joetracker reads JOE listing exports, estimates how many openings each
listing advertises and charts the cumulative number of openings by week
of the academic year, one curve per year.

Configuration hierarchy (highest to lowest priority):
  1. CLI flags
  2. Environment variables (JOETRACKER_*, also read from .env)
  3. Config file (<data-dir>/config.yml)
  4. Defaults`,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			a.out = cmd.OutOrStdout()
			// .env is optional
			_ = godotenv.Load()
			if !a.verbose {
				log.SetOutput(io.Discard)
			} else {
				log.SetOutput(cmd.ErrOrStderr())
			}
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.cfgFile, "config", "", "config file (default: <data-dir>/config.yml)")
	pf.String("data-dir", "", "data directory holding exports and the database (default: joe_data)")
	pf.BoolVarP(&a.verbose, "verbose", "v", false, "verbose output")
	_ = a.v.BindPFlag(config.KeyDataDir, pf.Lookup("data-dir"))

	root.AddCommand(
		newVersionCmd(),
		newIngestCmd(a),
		newFetchCmd(a),
		newAggregateCmd(a),
		newSiteCmd(a),
		newServeCmd(a),
		newConfigCmd(a),
	)
	return root
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "joetracker %s\n", Version)
		},
	}
}
