package api

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path"

	"github.com/go-chi/chi/v5"

	"github.com/xaviergregor/gestion-clients/blob"
	"github.com/xaviergregor/gestion-clients/export"
)

// maxUploadSize caps individual file uploads at 50 MB.
const maxUploadSize = 50 << 20

// UploadAPI holds the dependencies needed by the file upload and
// export handlers.
type UploadAPI struct {
	blobs     *blob.Store
	exporter  *export.Exporter
	audit     *auditLogger
	maxUpload int64
}

// UploadOption configures an UploadAPI instance.
type UploadOption func(*UploadAPI)

// WithUploadLogger sets the structured logger for audit events.
func WithUploadLogger(logger *slog.Logger) UploadOption {
	return func(u *UploadAPI) {
		u.audit = newAuditLogger(logger)
	}
}

// WithMaxUploadSize overrides the default 50 MB upload cap.
func WithMaxUploadSize(n int64) UploadOption {
	return func(u *UploadAPI) {
		u.maxUpload = n
	}
}

// NewUploadAPI creates an UploadAPI over the blob store and exporter.
func NewUploadAPI(blobs *blob.Store, exporter *export.Exporter, opts ...UploadOption) *UploadAPI {
	u := &UploadAPI{blobs: blobs, exporter: exporter, maxUpload: maxUploadSize}
	for _, opt := range opts {
		opt(u)
	}
	if u.audit == nil {
		u.audit = newAuditLogger(slog.New(slog.NewJSONHandler(os.Stderr, nil)))
	}
	return u
}

// Router returns a chi.Router with all upload routes mounted.
func (u *UploadAPI) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(corsMiddleware)

	r.Post("/upload/{clientID}", u.Upload)
	r.Get("/files/{clientID}", u.ListFiles)
	r.Delete("/files/{clientID}/{filename}", u.DeleteFile)
	r.Get("/uploads/{clientID}/{filename}", u.ServeFile)
	r.Get("/export-all", u.ExportAll)

	return r
}

// Upload handles POST /upload/{clientID}. The file arrives as the
// "file" field of a multipart form.
func (u *UploadAPI) Upload(w http.ResponseWriter, r *http.Request) {
	clientID := chi.URLParam(r, "clientID")

	if err := r.ParseMultipartForm(u.maxUpload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "file is required")
		return
	}
	defer file.Close()

	// Read one byte past the cap so an over-limit file is detected
	// rather than silently truncated at the boundary.
	stored, err := u.blobs.Save(clientID, header.Filename,
		header.Header.Get("Content-Type"), io.LimitReader(file, u.maxUpload+1))
	if err != nil {
		mapError(w, err)
		return
	}
	if stored.Size > u.maxUpload {
		u.blobs.Delete(clientID, stored.Filename)
		writeError(w, http.StatusRequestEntityTooLarge, "file too large")
		return
	}

	u.audit.log(AuditFileUploaded, r,
		slog.String("client_id", clientID),
		slog.String("filename", stored.Filename),
		slog.Int64("size", stored.Size))
	writeJSON(w, http.StatusOK, UploadResponse{
		Success:      true,
		Filename:     stored.Filename,
		OriginalName: stored.OriginalName,
		Size:         stored.Size,
		Mimetype:     stored.Mimetype,
		Path:         path.Join("/uploads", clientID, stored.Filename),
	})
}

// ListFiles handles GET /files/{clientID}. A client with no uploads
// gets an empty list, not an error.
func (u *UploadAPI) ListFiles(w http.ResponseWriter, r *http.Request) {
	clientID := chi.URLParam(r, "clientID")

	files, err := u.blobs.List(clientID)
	if err != nil {
		mapError(w, err)
		return
	}

	summaries := make([]FileSummary, 0, len(files))
	for _, f := range files {
		summaries = append(summaries, FileSummary{
			Filename:     f.Filename,
			OriginalName: f.OriginalName,
			Size:         f.Size,
			Path:         path.Join("/uploads", clientID, f.Filename),
			UploadDate:   f.UploadedAt,
		})
	}
	writeJSON(w, http.StatusOK, ListFilesResponse{Success: true, Files: summaries})
}

// DeleteFile handles DELETE /files/{clientID}/{filename}.
func (u *UploadAPI) DeleteFile(w http.ResponseWriter, r *http.Request) {
	clientID := chi.URLParam(r, "clientID")
	filename := chi.URLParam(r, "filename")

	if err := u.blobs.Delete(clientID, filename); err != nil {
		mapError(w, err)
		return
	}

	u.audit.log(AuditFileDeleted, r,
		slog.String("client_id", clientID),
		slog.String("filename", filename))
	writeJSON(w, http.StatusOK, StatusResponse{Success: true, Message: "file deleted"})
}

// ServeFile handles GET /uploads/{clientID}/{filename}, streaming the
// stored file back to the caller.
func (u *UploadAPI) ServeFile(w http.ResponseWriter, r *http.Request) {
	clientID := chi.URLParam(r, "clientID")
	filename := chi.URLParam(r, "filename")

	sf, err := u.blobs.Stat(clientID, filename)
	if err != nil {
		mapError(w, err)
		return
	}
	rc, err := u.blobs.Open(clientID, filename)
	if err != nil {
		mapError(w, err)
		return
	}
	defer rc.Close()

	contentType := sf.Mimetype
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	io.Copy(w, rc)
}

// ExportAll handles GET /export-all, streaming a zip archive of the
// full client database and every uploaded file.
func (u *UploadAPI) ExportAll(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", u.exporter.Filename()))

	summary, err := u.exporter.WriteArchive(r.Context(), w)
	if err != nil {
		// Headers are already out; all we can do is log and cut the
		// stream short.
		u.audit.logFailure(AuditExportStarted, r, err.Error())
		return
	}

	u.audit.log(AuditExportStarted, r,
		slog.Int("clients", summary.ClientCount),
		slog.Int("files", summary.FileCount))
}
