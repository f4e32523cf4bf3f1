package main

import (
	"context"
	"fmt"
	"geoblog/internal/auth"
	"geoblog/internal/index"
	"geoblog/internal/logger"
	"geoblog/internal/serve"
	"geoblog/internal/service"
	"geoblog/internal/store"
	"github.com/spf13/cobra"
	"os"
	"os/signal"
	"syscall"
)

func newServeCmd(load loadFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}

			log, err := logger.New(os.Stderr, cfg.Log.Level, cfg.Log.Format)
			if err != nil {
				return err
			}

			st := store.New(cfg.Storage.PublishedDir, cfg.Storage.DraftsDir, log)
			if err := st.EnsureRoots(); err != nil {
				return fmt.Errorf("prepare roots: %w", err)
			}

			geo, err := index.Open(index.OpenOptions{Path: cfg.Geo.IndexPath})
			if err != nil {
				return fmt.Errorf("open geo index %s: %w", cfg.Geo.IndexPath, err)
			}
			defer geo.Close()
			if stats, err := geo.Stats(); err == nil {
				if stats.Ranges == 0 {
					log.Warn().Str("path", cfg.Geo.IndexPath).Msg("geo index is empty; anonymous readers will see nothing")
				} else {
					log.Info().Int("ranges", stats.Ranges).Time("imported_at", stats.ImportedAt).Msg("geo index loaded")
				}
			}

			provider, err := auth.NewProvider(auth.Options{
				Secret:      cfg.Auth.JWTSecret,
				Issuer:      cfg.Auth.Issuer,
				AdminTeamID: cfg.Auth.AdminTeamID,
			})
			if err != nil {
				return err
			}

			metrics := serve.NewMetrics()
			svc := service.New(service.Options{
				Store: st,
				Auth:  provider,
				Geo:   metrics.CountGeo(geo),
				Log:   log,
			})

			srv := serve.New(serve.Options{
				HTTP:      cfg.HTTP,
				SiteURL:   cfg.Site.URL,
				Service:   svc,
				Auth:      provider,
				Metrics:   metrics,
				Log:       log,
				WatchDirs: st.Dirs(),
			})
			defer srv.Close()

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return srv.ListenAndServe(ctx)
		},
	}
}
