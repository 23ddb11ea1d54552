package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/SamuelRCrider/piiguard/httpapi"
)

var flagHTTPAddr string

func init() {
	httpCmd.Flags().StringVar(&flagHTTPAddr, "addr", "", "listen address (default :8088)")
	rootCmd.AddCommand(httpCmd)
}

var httpCmd = &cobra.Command{
	Use:   "http",
	Short: "Serve the PII operations as a JSON HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		extra := map[string]any{}
		if cmd.Flags().Changed("addr") {
			extra["http.addr"] = flagHTTPAddr
		}
		cfg, logger, guard, err := setup(cmd, extra)
		if err != nil {
			return err
		}
		defer func() { _ = guard.Close() }()

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		srv := &http.Server{
			Addr:              cfg.HTTP.Addr,
			Handler:           httpapi.NewRouter(guard, logger),
			ReadHeaderTimeout: 10 * time.Second,
		}

		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			logger.Info("HTTP server listening", "addr", cfg.HTTP.Addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			logger.Info("Shutting down...")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})

		return g.Wait()
	},
}
