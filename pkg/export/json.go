// Package export turns scan results into shareable artifacts: a versioned
// JSON document, a markdown report, and a severity chart snapshot.
package export

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/atotto/clipboard"
	json "github.com/goccy/go-json"

	"github.com/vanderheijden86/a11ydeck/pkg/model"
	"github.com/vanderheijden86/a11ydeck/pkg/version"
)

// DocumentVersion is the schema version of the exported JSON document.
const DocumentVersion = "1.0.0"

// Metadata identifies the tool that produced an export.
type Metadata struct {
	ToolVersion string `json:"toolVersion"`
	Platform    string `json:"platform"`
}

// Document is the versioned export envelope. Checklist is omitted when the
// page has no manual checklist.
type Document struct {
	Version    string                 `json:"version"`
	ExportDate time.Time              `json:"exportDate"`
	Scan       model.ScanResult       `json:"scan"`
	Checklist  *model.ManualChecklist `json:"checklist,omitempty"`
	Metadata   Metadata               `json:"metadata"`
}

// NewDocument wraps a scan (and optional checklist) in the export envelope.
func NewDocument(scan model.ScanResult, checklist *model.ManualChecklist) Document {
	return Document{
		Version:    DocumentVersion,
		ExportDate: time.Now(),
		Scan:       scan,
		Checklist:  checklist,
		Metadata: Metadata{
			ToolVersion: version.Version,
			Platform:    runtime.GOOS + "/" + runtime.GOARCH,
		},
	}
}

// AsJSON renders the document as indented JSON.
func AsJSON(scan model.ScanResult, checklist *model.ManualChecklist) ([]byte, error) {
	raw, err := json.MarshalIndent(NewDocument(scan, checklist), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode export document: %w", err)
	}
	return raw, nil
}

// Filename builds the canonical export name for a scan:
// accessibility-audit-<host>-<date>.json. An unparsable URL falls back to
// the literal string "page".
func Filename(scan model.ScanResult) string {
	host := "page"
	if u, err := url.Parse(scan.URL); err == nil && u.Hostname() != "" {
		host = u.Hostname()
	}
	return fmt.Sprintf("accessibility-audit-%s-%s.json",
		host, scan.Timestamp.UTC().Format("2006-01-02"))
}

// WriteJSON writes the export document into dir using the canonical
// filename and returns the full path.
func WriteJSON(dir string, scan model.ScanResult, checklist *model.ManualChecklist) (string, error) {
	raw, err := AsJSON(scan, checklist)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create export dir: %w", err)
	}
	path := filepath.Join(dir, Filename(scan))
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return "", fmt.Errorf("write export: %w", err)
	}
	return path, nil
}

// CopyToClipboard puts the JSON document on the system clipboard.
func CopyToClipboard(scan model.ScanResult, checklist *model.ManualChecklist) error {
	raw, err := AsJSON(scan, checklist)
	if err != nil {
		return err
	}
	if err := clipboard.WriteAll(string(raw)); err != nil {
		return fmt.Errorf("copy export to clipboard: %w", err)
	}
	return nil
}

// EstimatedSize reports the rendered document size in human units.
func EstimatedSize(scan model.ScanResult, checklist *model.ManualChecklist) (string, error) {
	raw, err := AsJSON(scan, checklist)
	if err != nil {
		return "", err
	}
	return formatSize(len(raw)), nil
}

func formatSize(bytes int) string {
	switch {
	case bytes < 1024:
		return fmt.Sprintf("%d B", bytes)
	case bytes < 1024*1024:
		return fmt.Sprintf("%.1f KB", float64(bytes)/1024)
	default:
		return fmt.Sprintf("%.1f MB", float64(bytes)/(1024*1024))
	}
}
