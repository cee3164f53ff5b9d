// Package export bundles the full client database and every uploaded
// file into a single compressed archive for download or offline backup.
package export

import (
	"archive/zip"
	"compress/flate"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/xaviergregor/gestion-clients/blob"
	"github.com/xaviergregor/gestion-clients/clients"
	"github.com/xaviergregor/gestion-clients/internal/util"
)

// Summary reports what went into an archive.
type Summary struct {
	ClientCount int
	FileCount   int
}

// Exporter builds complete archives from the client database and the
// blob store.
type Exporter struct {
	clients *clients.Store
	blobs   *blob.Store
	now     func() time.Time
}

// New creates an Exporter over the given stores.
func New(clientStore *clients.Store, blobStore *blob.Store) *Exporter {
	return &Exporter{clients: clientStore, blobs: blobStore, now: time.Now}
}

// Filename returns the download name for an archive generated now.
func (e *Exporter) Filename() string {
	return fmt.Sprintf("export-complet-clients-%s.zip", e.now().UTC().Format("2006-01-02"))
}

// WriteArchive streams a zip archive to w containing README.txt, the
// raw database document (clients.json), a human-readable rendering
// (clients.txt), and one folder per client holding its uploaded files
// under their original names plus an _info.txt manifest. Clients
// without uploads get no folder.
func (e *Exporter) WriteArchive(ctx context.Context, w io.Writer) (Summary, error) {
	list, err := e.clients.List()
	if err != nil {
		return Summary{}, fmt.Errorf("loading client database: %w", err)
	}
	raw, err := e.clients.Raw()
	if err != nil {
		return Summary{}, fmt.Errorf("loading client database: %w", err)
	}
	if raw == nil {
		raw = []byte("{\n  \"clients\": []\n}")
	}

	zw := zip.NewWriter(w)
	zw.RegisterCompressor(zip.Deflate, func(out io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(out, flate.BestCompression)
	})

	summary := Summary{ClientCount: len(list)}

	if err := writeEntry(zw, "README.txt", []byte(e.readme(len(list)))); err != nil {
		return summary, err
	}
	if err := writeEntry(zw, "clients.json", raw); err != nil {
		return summary, err
	}
	if err := writeEntry(zw, "clients.txt", []byte(e.clientsText(list))); err != nil {
		return summary, err
	}

	for _, client := range list {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		n, err := e.addClientFiles(zw, client)
		if err != nil {
			return summary, err
		}
		summary.FileCount += n
	}

	if err := zw.Close(); err != nil {
		return summary, fmt.Errorf("finalizing archive: %w", err)
	}
	return summary, nil
}

func writeEntry(zw *zip.Writer, name string, data []byte) error {
	f, err := zw.Create(name)
	if err != nil {
		return fmt.Errorf("creating archive entry %s: %w", name, err)
	}
	if _, err := f.Write(data); err != nil {
		return fmt.Errorf("writing archive entry %s: %w", name, err)
	}
	return nil
}

// addClientFiles writes uploads/<SafeName>/ for one client and returns
// the number of files added.
func (e *Exporter) addClientFiles(zw *zip.Writer, client clients.Client) (int, error) {
	files, err := e.blobs.List(client.ID)
	if err != nil {
		return 0, fmt.Errorf("listing files for client %s: %w", client.ID, err)
	}
	if len(files) == 0 {
		return 0, nil
	}

	folder := util.SafeName(client.Name)
	if folder == "" {
		folder = client.ID
	}

	if err := writeEntry(zw, "uploads/"+folder+"/_info.txt", []byte(clientInfo(client, files))); err != nil {
		return 0, err
	}

	for _, sf := range files {
		rc, err := e.blobs.Open(client.ID, sf.Filename)
		if err != nil {
			return 0, fmt.Errorf("opening %s for client %s: %w", sf.Filename, client.ID, err)
		}
		entry, err := zw.Create("uploads/" + folder + "/" + sf.OriginalName)
		if err != nil {
			rc.Close()
			return 0, fmt.Errorf("creating archive entry for %s: %w", sf.OriginalName, err)
		}
		_, err = io.Copy(entry, rc)
		rc.Close()
		if err != nil {
			return 0, fmt.Errorf("archiving %s: %w", sf.Filename, err)
		}
	}
	return len(files), nil
}

func (e *Exporter) readme(clientCount int) string {
	var sb strings.Builder
	sb.WriteString("EXPORT COMPLET DE LA BASE DE DONNEES CLIENTS\n\n")
	fmt.Fprintf(&sb, "Date d'export : %s\n", e.now().UTC().Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&sb, "Nombre de clients : %d\n\n", clientCount)
	sb.WriteString("CONTENU DE L'ARCHIVE :\n")
	sb.WriteString("- clients.json : base de donnees complete (format JSON)\n")
	sb.WriteString("- clients.txt  : base de donnees lisible (format TXT)\n")
	sb.WriteString("- uploads/     : un dossier par client avec ses fichiers\n\n")
	sb.WriteString("Les dossiers portent le nom des clients (espaces remplaces par _).\n")
	sb.WriteString("Un fichier _info.txt dans chaque dossier donne le detail.\n")
	sb.WriteString("Cet export est une sauvegarde complete et autonome.\n")
	return sb.String()
}

func (e *Exporter) clientsText(list []clients.Client) string {
	var sb strings.Builder
	sb.WriteString("BASE DE DONNEES CLIENTS\n")
	fmt.Fprintf(&sb, "Export du %s\n\n", e.now().UTC().Format("2006-01-02"))
	fmt.Fprintf(&sb, "Total : %d client(s)\n\n", len(list))
	for i, c := range list {
		fmt.Fprintf(&sb, "CLIENT #%d\n", i+1)
		fmt.Fprintf(&sb, "Nom       : %s\n", c.Name)
		fmt.Fprintf(&sb, "Email     : %s\n", orDefault(c.Email, "Non renseigne"))
		fmt.Fprintf(&sb, "Telephone : %s\n", orDefault(c.Phone, "Non renseigne"))
		fmt.Fprintf(&sb, "Ajoute le : %s\n", orDefault(c.Added, "N/A"))
		if c.Notes != "" {
			fmt.Fprintf(&sb, "Notes :\n%s\n", c.Notes)
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

func clientInfo(client clients.Client, files []blob.StoredFile) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "CLIENT: %s\n", client.Name)
	fmt.Fprintf(&sb, "ID: %s\n", client.ID)
	fmt.Fprintf(&sb, "Email: %s\n", orDefault(client.Email, "N/A"))
	fmt.Fprintf(&sb, "Telephone: %s\n", orDefault(client.Phone, "N/A"))
	fmt.Fprintf(&sb, "Date d'ajout: %s\n\n", orDefault(client.Added, "N/A"))
	fmt.Fprintf(&sb, "FICHIERS (%d):\n", len(files))
	for i, sf := range files {
		fmt.Fprintf(&sb, "%d. %s (%s)\n", i+1, sf.OriginalName, formatBytes(sf.Size))
	}
	return sb.String()
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

// formatBytes renders a size the way the client application displays
// them: "0 Bytes", "1.5 KB", "2 MB", ...
func formatBytes(n int64) string {
	if n == 0 {
		return "0 Bytes"
	}
	units := []string{"Bytes", "KB", "MB", "GB"}
	size := float64(n)
	i := 0
	for size >= 1024 && i < len(units)-1 {
		size /= 1024
		i++
	}
	return fmt.Sprintf("%.4g %s", size, units[i])
}
