package cmd

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"

	"github.com/xaviergregor/gestion-clients/api"
	"github.com/xaviergregor/gestion-clients/blob"
	"github.com/xaviergregor/gestion-clients/clients"
	"github.com/xaviergregor/gestion-clients/export"
)

var (
	uploadPort int
	uploadsDir string
	clientsDB  string
)

var uploadServerCmd = &cobra.Command{
	Use:   "upload-server",
	Short: "Start the file upload and export server",
	RunE: func(cmd *cobra.Command, args []string) error {
		blobs, err := blob.NewStore(uploadsDir, filepath.Join(uploadsDir, "uploads.db"))
		if err != nil {
			return fmt.Errorf("failed to open upload storage: %w", err)
		}
		defer blobs.Close()

		exporter := export.New(clients.NewStore(clientsDB), blobs)

		logger := slog.New(slog.NewJSONHandler(os.Stderr, nil))
		u := api.NewUploadAPI(blobs, exporter, api.WithUploadLogger(logger))

		r := chi.NewRouter()
		r.Use(middleware.Logger)
		r.Use(middleware.Recoverer)

		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("OK"))
		})

		r.Mount("/", u.Router())

		return runServer(r, uploadPort, "File Upload Service", uploadsDir)
	},
}

func init() {
	rootCmd.AddCommand(uploadServerCmd)
	uploadServerCmd.Flags().IntVarP(&uploadPort, "port", "p", 3001, "Port to listen on")
	uploadServerCmd.Flags().StringVar(&uploadsDir, "uploads-dir", "./uploads", "Directory for uploaded files")
	uploadServerCmd.Flags().StringVar(&clientsDB, "db", "./db.json", "Path to the client database document")
}
