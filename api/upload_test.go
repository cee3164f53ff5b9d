package api_test

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xaviergregor/gestion-clients/api"
	"github.com/xaviergregor/gestion-clients/blob"
	"github.com/xaviergregor/gestion-clients/clients"
	"github.com/xaviergregor/gestion-clients/export"
)

func setupUploadServer(t *testing.T, opts ...api.UploadOption) *httptest.Server {
	t.Helper()
	dir := t.TempDir()
	blobs, err := blob.NewStore(filepath.Join(dir, "uploads"), filepath.Join(dir, "uploads.db"))
	require.NoError(t, err)
	t.Cleanup(func() { blobs.Close() })

	dbPath := filepath.Join(dir, "db.json")
	require.NoError(t, os.WriteFile(dbPath, []byte(`{"clients": [
		{"id": "1", "nom": "Marie Dupont", "email": "marie@example.com"}
	]}`), 0o600))

	exporter := export.New(clients.NewStore(dbPath), blobs)
	srv := httptest.NewServer(api.NewUploadAPI(blobs, exporter, opts...).Router())
	t.Cleanup(srv.Close)
	return srv
}

// rawUpload posts a multipart form with a single file part and returns
// the response unexamined.
func rawUpload(t *testing.T, baseURL, clientID, filename, mimetype, content string) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition",
		fmt.Sprintf(`form-data; name="file"; filename=%q`, filename))
	header.Set("Content-Type", mimetype)
	part, err := mw.CreatePart(header)
	require.NoError(t, err)
	_, err = io.WriteString(part, content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req, err := http.NewRequestWithContext(context.Background(), http.MethodPost,
		baseURL+"/upload/"+clientID, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func uploadFile(t *testing.T, baseURL, clientID, filename, content string) api.UploadResponse {
	t.Helper()
	resp := rawUpload(t, baseURL, clientID, filename, "application/octet-stream", content)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out api.UploadResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func TestUploadAndListFiles(t *testing.T) {
	srv := setupUploadServer(t)

	out := uploadFile(t, srv.URL, "1", "contrat.pdf", "pdf bytes")
	assert.True(t, out.Success)
	assert.Equal(t, "contrat.pdf", out.OriginalName)
	assert.True(t, strings.HasSuffix(out.Filename, "-contrat.pdf"))
	assert.Equal(t, int64(len("pdf bytes")), out.Size)
	assert.Equal(t, "/uploads/1/"+out.Filename, out.Path)

	resp, err := http.Get(srv.URL + "/files/1")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var list api.ListFilesResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&list))
	require.Len(t, list.Files, 1)
	assert.Equal(t, out.Filename, list.Files[0].Filename)
	assert.Equal(t, "contrat.pdf", list.Files[0].OriginalName)
}

func TestListFilesUnknownClient(t *testing.T) {
	srv := setupUploadServer(t)

	resp, err := http.Get(srv.URL + "/files/nobody")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var list api.ListFilesResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&list))
	assert.True(t, list.Success)
	assert.Empty(t, list.Files)
}

func TestUploadWithoutFileField(t *testing.T) {
	srv := setupUploadServer(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("note", "no file here"))
	require.NoError(t, mw.Close())

	req, err := http.NewRequestWithContext(context.Background(), http.MethodPost,
		srv.URL+"/upload/1", &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestUploadRejectsOversizedFile(t *testing.T) {
	srv := setupUploadServer(t, api.WithMaxUploadSize(64))

	resp := rawUpload(t, srv.URL, "1", "big.bin", "application/octet-stream",
		strings.Repeat("x", 65))
	defer resp.Body.Close()
	assert.Equal(t, http.StatusRequestEntityTooLarge, resp.StatusCode)

	// Nothing, truncated or otherwise, was kept.
	listResp, err := http.Get(srv.URL + "/files/1")
	require.NoError(t, err)
	defer listResp.Body.Close()
	var list api.ListFilesResponse
	require.NoError(t, json.NewDecoder(listResp.Body).Decode(&list))
	assert.Empty(t, list.Files)
}

func TestUploadAtExactCapSucceeds(t *testing.T) {
	srv := setupUploadServer(t, api.WithMaxUploadSize(64))

	resp := rawUpload(t, srv.URL, "1", "exact.bin", "application/octet-stream",
		strings.Repeat("x", 64))
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out api.UploadResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, int64(64), out.Size)
}

func TestServeFileContentType(t *testing.T) {
	srv := setupUploadServer(t)

	resp := rawUpload(t, srv.URL, "1", "notes.txt", "text/plain", "bonjour")
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var out api.UploadResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))

	getResp, err := http.Get(srv.URL + "/uploads/1/" + out.Filename)
	require.NoError(t, err)
	defer getResp.Body.Close()
	require.Equal(t, http.StatusOK, getResp.StatusCode)
	assert.Equal(t, "text/plain", getResp.Header.Get("Content-Type"))
}

func TestServeUploadedFile(t *testing.T) {
	srv := setupUploadServer(t)

	out := uploadFile(t, srv.URL, "1", "notes.txt", "hello client one")

	resp, err := http.Get(srv.URL + "/uploads/1/" + out.Filename)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "hello client one", string(body))
}

func TestDeleteFileEndpoint(t *testing.T) {
	srv := setupUploadServer(t)

	out := uploadFile(t, srv.URL, "1", "old.txt", "obsolete")

	req, err := http.NewRequestWithContext(context.Background(), http.MethodDelete,
		srv.URL+"/files/1/"+out.Filename, nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// A second delete reports 404.
	resp, err = http.DefaultClient.Do(req.Clone(context.Background()))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	// And the file is no longer served.
	getResp, err := http.Get(srv.URL + "/uploads/1/" + out.Filename)
	require.NoError(t, err)
	getResp.Body.Close()
	assert.Equal(t, http.StatusNotFound, getResp.StatusCode)
}

func TestExportAllEndpoint(t *testing.T) {
	srv := setupUploadServer(t)

	uploadFile(t, srv.URL, "1", "contrat.pdf", "pdf bytes")

	resp, err := http.Get(srv.URL + "/export-all")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/zip", resp.Header.Get("Content-Type"))
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "export-complet-clients-")

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	zr, err := zip.NewReader(bytes.NewReader(body), int64(len(body)))
	require.NoError(t, err)

	names := make([]string, 0, len(zr.File))
	for _, f := range zr.File {
		names = append(names, f.Name)
	}
	assert.Contains(t, names, "README.txt")
	assert.Contains(t, names, "clients.json")
	assert.Contains(t, names, "clients.txt")
	assert.Contains(t, names, "uploads/Marie_Dupont/contrat.pdf")
	assert.Contains(t, names, "uploads/Marie_Dupont/_info.txt")
}
