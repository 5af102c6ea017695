// Package export produces secondary human-readable snapshots of the request
// collections: CSV backups for the weekly scheduler job and rendered tables
// for operator review. It reads bulk snapshots only and never writes back to
// the store.
package export

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"printq/internal/request"
)

var csvHeader = []string{
	"id",
	"submitted_at",
	"requester",
	"username",
	"group",
	"purpose",
	"payload",
	"status",
	"comment",
	"archived_at",
}

var nameCaser = cases.Title(language.Und)

// WriteCSV writes the combined snapshot as a CSV document to path.
func WriteCSV(path string, requests []*request.Request) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create export directory: %w", err)
		}
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create export file: %w", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.Write(csvHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, req := range requests {
		if err := writer.Write(csvRow(req)); err != nil {
			return fmt.Errorf("write row %s: %w", req.ID, err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("flush export: %w", err)
	}
	return file.Sync()
}

func csvRow(req *request.Request) []string {
	archivedAt := ""
	if req.ArchivedAt != nil {
		archivedAt = req.ArchivedAt.UTC().Format(time.RFC3339)
	}
	return []string{
		req.ID,
		req.SubmittedAt.UTC().Format(time.RFC3339),
		displayName(req.Requester),
		req.Requester.Username,
		req.Group,
		req.Purpose,
		req.Payload.Name,
		string(req.Status),
		req.Comment,
		archivedAt,
	}
}

// WriteBackup writes a timestamped CSV backup into dir and returns its path.
func WriteBackup(dir string, requests []*request.Request, now time.Time) (string, error) {
	name := fmt.Sprintf("backup_%s.csv", now.UTC().Format("20060102_150405"))
	path := filepath.Join(dir, name)
	if err := WriteCSV(path, requests); err != nil {
		return "", err
	}
	return path, nil
}

// RemoveOldBackups deletes backup CSVs in dir older than the retention
// window, returning how many were removed.
func RemoveOldBackups(dir string, retention time.Duration, now time.Time) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("read export directory: %w", err)
	}

	cutoff := now.Add(-retention)
	removed := 0
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasPrefix(entry.Name(), "backup_") || !strings.HasSuffix(entry.Name(), ".csv") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return removed, fmt.Errorf("stat backup %s: %w", entry.Name(), err)
		}
		if info.ModTime().After(cutoff) {
			continue
		}
		if err := os.Remove(filepath.Join(dir, entry.Name())); err != nil && !os.IsNotExist(err) {
			return removed, fmt.Errorf("remove backup %s: %w", entry.Name(), err)
		}
		removed++
	}
	return removed, nil
}

// RenderTable renders a snapshot as a text table for operator output.
func RenderTable(requests []*request.Request) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"ID", "Submitted", "Requester", "Group", "Purpose", "Status", "Payload"})
	for _, req := range requests {
		tw.AppendRow(table.Row{
			req.ShortID(),
			req.SubmittedAt.UTC().Format("2006-01-02 15:04"),
			displayName(req.Requester),
			req.Group,
			req.Purpose,
			statusCell(req),
			req.Payload.Name,
		})
	}
	return tw.Render()
}

func statusCell(req *request.Request) string {
	if req.Archived() {
		return "archived"
	}
	return string(req.Status)
}

func displayName(r request.Requester) string {
	name := strings.TrimSpace(strings.TrimSpace(r.FirstName) + " " + strings.TrimSpace(r.LastName))
	if name == "" {
		return r.DisplayName()
	}
	return nameCaser.String(name)
}
