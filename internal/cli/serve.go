package cli

import (
	"fmt"
	"log"
	"net"
	"net/http"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"joetracker-engine/internal/cache"
	"joetracker-engine/internal/config"
	"joetracker-engine/internal/events"
	"joetracker-engine/internal/httpapi"
	"joetracker-engine/internal/refresh"
	"joetracker-engine/internal/scrape"
)

const keyShutdownToken = "shutdown-token"

func newServeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the live dashboard on localhost",
		Long: `Serve runs the dashboard and its JSON API on 127.0.0.1.

POST /shutdown with the X-Shutdown-Token header stops the server. The token
is read from JOETRACKER_SHUTDOWN_TOKEN or generated and logged at startup.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, cfgPath, err := a.loadConfig()
			if err != nil {
				return err
			}

			db, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			var cfgVal atomic.Value // stores config.Config
			cfgVal.Store(cfg)

			hub := events.NewHub()
			datasets := cache.NewDatasets(time.Duration(cfg.Cache.TTLSeconds) * time.Second)
			deps := httpapi.Deps{
				DB:          db.Pool,
				Hub:         hub,
				CfgVal:      &cfgVal,
				UserCfgPath: cfgPath,
				LoadCfg: func() (config.Config, error) {
					c, err := config.Load(cfgPath)
					if err != nil {
						return c, err
					}
					c.App.DataDir = cfg.App.DataDir
					config.OverlayEnv(&c, a.v)
					return c, nil
				},
				Datasets: datasets,
				Refresher: &refresh.Service{
					DB:      db.Pool,
					DataDir: cfg.App.DataDir,
					Cache:   datasets,
					Events:  hub,
				},
				Fetchers: scrape.Fetchers,
			}

			addr := fmt.Sprintf("127.0.0.1:%d", cfg.App.Port)
			ln, err := net.Listen("tcp", addr)
			if err != nil {
				return err
			}

			token := a.v.GetString(keyShutdownToken)
			if token == "" {
				if token, err = httpapi.RandomToken(16); err != nil {
					return err
				}
				log.Printf("[serve] shutdown token=%s", token)
			}

			mux := httpapi.NewMux(deps)
			srv := &http.Server{
				Handler:           httpapi.NewHandler(mux),
				ReadHeaderTimeout: 5 * time.Second,
			}
			srv.RegisterOnShutdown(hub.Close)
			mux.HandleFunc("/shutdown", httpapi.ShutdownHandler(token, srv))

			fmt.Fprintf(a.out, "Dashboard on http://%s (config=%s)\n", addr, cfgPath)

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return httpapi.Serve(ctx, srv, ln)
		},
	}
	cmd.Flags().Int("port", 0, "listen port (default: app.port)")
	_ = a.v.BindPFlag(config.KeyPort, cmd.Flags().Lookup("port"))
	_ = a.v.BindEnv(keyShutdownToken)
	return cmd
}
