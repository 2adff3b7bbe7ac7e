// calpane is the local companion service for the calendar viewer. It runs
// the OAuth flows against Google, keeps the user's categories, filters and
// calendar visibility, and syncs them to a private file in Drive.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/calpane/calpane/internal/app"
	"github.com/calpane/calpane/internal/config"
	"github.com/calpane/calpane/internal/logging"
)

var version = "dev"

func main() {
	logging.InitDefault()

	root := &cobra.Command{
		Use:           "calpane",
		Short:         "Local companion service for the calendar viewer",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(serveCmd(), versionCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	var listenAddr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the local API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if listenAddr != "" {
				cfg.ListenAddr = listenAddr
			}
			logging.Init(cfg.LogLevel, cfg.LogFormat)

			return serve(cmd.Context(), cfg)
		},
	}
	cmd.Flags().StringVar(&listenAddr, "listen", "", "listen address (overrides CALPANE_LISTEN_ADDR)")
	return cmd
}

func serve(ctx context.Context, cfg *config.Config) error {
	application, err := app.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer application.Close()

	srv := &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      application.Routes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.ListenAddr).Msg("listening")
		errCh <- srv.ListenAndServe()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case sig := <-stop:
		log.Info().Str("signal", sig.String()).Msg("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
	}
	return nil
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the calpane version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println("calpane", version)
		},
	}
}
