package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/spf13/cobra"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP and websocket API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			res, err := buildApp(cmd, opts)
			if err != nil {
				return err
			}
			defer res.Close()
			if addr != "" {
				res.Config.BindAddr = addr
			}

			api, sessions := res.NewAPI()
			httpServer := &http.Server{
				Addr:              res.Config.BindAddr,
				Handler:           api.Router(),
				ReadHeaderTimeout: 10 * time.Second,
			}

			runCtx, runCancel := context.WithCancel(cmd.Context())
			defer runCancel()
			sessions.StartJanitor(runCtx, 5*time.Second)

			listenErr := make(chan error, 1)
			go func() {
				res.Logger.Info().Str("addr", res.Config.BindAddr).Msg("server listening")
				if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					listenErr <- err
				}
				close(listenErr)
			}()

			select {
			case err := <-listenErr:
				if err != nil {
					return err
				}
			case <-runCtx.Done():
				res.Logger.Info().Msg("shutdown signal received")
			}

			runCancel()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), res.Config.ShutdownTimeout)
			defer cancel()
			if err := httpServer.Shutdown(shutdownCtx); err != nil {
				res.Logger.Warn().Err(err).Msg("graceful shutdown failed")
				_ = httpServer.Close()
			}
			res.Logger.Info().Msg("shutdown complete")
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides APP_BIND_ADDR)")
	return cmd
}
