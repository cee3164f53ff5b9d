package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"

	"github.com/xaviergregor/gestion-clients/api"
	"github.com/xaviergregor/gestion-clients/authsvc"
	"github.com/xaviergregor/gestion-clients/store/jsonfile"
)

var (
	authPort    int
	authDataDir string
)

var authServerCmd = &cobra.Command{
	Use:   "auth-server",
	Short: "Start the authentication server",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := os.MkdirAll(authDataDir, 0o700); err != nil {
			return fmt.Errorf("failed to create data directory: %w", err)
		}

		users := jsonfile.NewCredentialStore(filepath.Join(authDataDir, "users.json"))
		sessions := jsonfile.NewSessionStore(filepath.Join(authDataDir, "sessions.json"))
		svc := authsvc.New(users, sessions)

		logger := slog.New(slog.NewJSONHandler(os.Stderr, nil))
		sweeper := authsvc.NewSweeper(svc, time.Hour, logger)
		defer sweeper.Stop()

		a := api.New(svc, api.WithLogger(logger))

		r := chi.NewRouter()
		r.Use(middleware.Logger)
		r.Use(middleware.Recoverer)

		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("OK"))
		})

		r.Mount("/", a.Router())

		return runServer(r, authPort, "Authentication Service", authDataDir)
	},
}

// runServer starts srv and blocks until SIGINT/SIGTERM, then shuts
// down gracefully.
func runServer(handler http.Handler, port int, service, dataDir string) error {
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      5 * time.Minute,
		IdleTimeout:       60 * time.Second,
	}

	done := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			done <- fmt.Errorf("server failed: %w", err)
			return
		}
		done <- nil
	}()

	printBanner(service)
	fmt.Printf("Starting server on port %d (data: %s)...\n", port, dataDir)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		fmt.Printf("\nReceived %s, shutting down...\n", sig)
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			return fmt.Errorf("server shutdown failed: %w", err)
		}
		return nil
	case err := <-done:
		return err
	}
}

func init() {
	rootCmd.AddCommand(authServerCmd)
	authServerCmd.Flags().IntVarP(&authPort, "port", "p", 3002, "Port to listen on")
	authServerCmd.Flags().StringVar(&authDataDir, "data-dir", "./data", "Directory for users.json and sessions.json")
}
