package cmd

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/lehigh-university-libraries/mangacat/internal/handlers"
	"github.com/lehigh-university-libraries/mangacat/internal/marc"
	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	var (
		s            settings
		port         string
		startBarcode string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the cataloging HTTP API",
		Long: `Serves the batch pipeline over HTTP on the specified port.

POST /api/lookup catalogs a batch; batches are kept in memory and can be
listed, fetched, and exported as MARC under /api/batches.`,
		Example: `  # Start server on default port 8888
  mangacat serve

  # Start server on custom port
  mangacat serve --port 3000`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := s.load(cmd)
			if err != nil {
				return err
			}
			p, err := newPipeline(cfg)
			if err != nil {
				return err
			}
			defer p.Close()

			handler := handlers.New(p.service(cmd.Context()), marc.NewBuilder(), startBarcode)

			mux := http.NewServeMux()
			handler.Routes(mux)

			addr := ":" + port
			server := &http.Server{
				Addr:    addr,
				Handler: mux,
			}

			// Start server in goroutine
			serverErr := make(chan error, 1)
			go func() {
				slog.Info("Mangacat API available", "addr", addr, "url", "http://localhost"+addr)
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					serverErr <- err
				}
			}()

			// Wait for context cancellation (Ctrl+C) or server error
			select {
			case <-cmd.Context().Done():
				slog.Info("Shutting down server...")
				// Give server 5 seconds to shut down gracefully
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := server.Shutdown(shutdownCtx); err != nil {
					slog.Error("Server shutdown failed", "err", err)
					return err
				}
				slog.Info("Server stopped")
				return nil
			case err := <-serverErr:
				return err
			}
		},
	}

	s.register(cmd)
	cmd.Flags().StringVarP(&port, "port", "p", "8888", "Port to listen on")
	cmd.Flags().StringVar(&startBarcode, "start-barcode", "T000001", "Barcode used when a request does not give one")

	return cmd
}
