// Package loader turns uploaded CSV streams, local files and published
// spreadsheet links into analysis tables.
package loader

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/KaramelBytes/samajhai/internal/analysis"
)

const (
	sheetEditFragment   = "/edit#gid="
	sheetExportFragment = "/export?format=csv&gid="

	defaultMaxBytes = 32 << 20
)

// TableSource produces a Table on demand.
type TableSource interface {
	Load(ctx context.Context) (*analysis.Table, error)
}

// LoadError reports a failed load of a user-supplied source.
type LoadError struct {
	Source string
	Reason string
	Err    error
}

func (e *LoadError) Error() string {
	msg := "load failed"
	if e.Source != "" {
		msg = fmt.Sprintf("load %s failed", e.Source)
	}
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *LoadError) Unwrap() error { return e.Err }

// RewriteSheetURL turns an interactive-edit spreadsheet link into its CSV
// export form. URLs without the edit fragment are returned unchanged.
func RewriteSheetURL(u string) string {
	return strings.Replace(u, sheetEditFragment, sheetExportFragment, 1)
}

// IsURL reports whether arg looks like an http(s) link rather than a path.
func IsURL(arg string) bool {
	lower := strings.ToLower(strings.TrimSpace(arg))
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

// Upload reads a CSV byte stream supplied by the user.
type Upload struct {
	Name      string
	Body      io.Reader
	MaxBytes  int64
	Delimiter rune
}

// Load parses the upload. Streams larger than MaxBytes are rejected.
func (u Upload) Load(_ context.Context) (*analysis.Table, error) {
	name := u.Name
	if name == "" {
		name = "upload"
	}
	if u.Body == nil {
		return nil, &LoadError{Source: name, Reason: "no file provided"}
	}
	data, err := readLimited(u.Body, u.MaxBytes)
	if err != nil {
		return nil, &LoadError{Source: name, Err: err}
	}
	return parse(name, data, u.Delimiter)
}

// File reads a CSV or TSV file from disk.
type File struct {
	Path      string
	Delimiter rune
}

// Load parses the file; .tsv files default to tab-separated.
func (f File) Load(ctx context.Context) (*analysis.Table, error) {
	fh, err := os.Open(f.Path)
	if err != nil {
		return nil, &LoadError{Source: f.Path, Err: err}
	}
	defer fh.Close()
	delim := f.Delimiter
	if delim == 0 {
		delim = sniffDelimiter(f.Path)
	}
	return Upload{Name: filepath.Base(f.Path), Body: fh, MaxBytes: -1, Delimiter: delim}.Load(ctx)
}

// Sheet fetches a published spreadsheet as CSV.
type Sheet struct {
	URL      string
	Client   *http.Client
	MaxBytes int64
}

// Load rewrites the link to its export form, fetches it and parses the body.
func (s Sheet) Load(ctx context.Context) (*analysis.Table, error) {
	src := strings.TrimSpace(s.URL)
	if src == "" {
		return nil, &LoadError{Reason: "empty spreadsheet link"}
	}
	exportURL := RewriteSheetURL(src)
	client := s.Client
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, exportURL, nil)
	if err != nil {
		return nil, &LoadError{Source: src, Reason: "invalid link", Err: err}
	}
	req.Header.Set("Accept", "text/csv, text/plain;q=0.9")
	resp, err := client.Do(req)
	if err != nil {
		return nil, &LoadError{Source: src, Reason: "fetch", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		reason := fmt.Sprintf("unexpected status %s", resp.Status)
		if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden || resp.StatusCode == http.StatusNotFound {
			reason += " (is the sheet shared publicly?)"
		}
		return nil, &LoadError{Source: src, Reason: reason}
	}
	// Private sheets redirect to an HTML sign-in page with a 200.
	if mt, _, err := mime.ParseMediaType(resp.Header.Get("Content-Type")); err == nil && mt == "text/html" {
		return nil, &LoadError{Source: src, Reason: "response is HTML, not CSV (is the sheet shared publicly?)"}
	}
	data, err := readLimited(resp.Body, s.MaxBytes)
	if err != nil {
		return nil, &LoadError{Source: src, Reason: "read body", Err: err}
	}
	return parse(src, data, 0)
}

// ForArg picks a source for a CLI argument: links become Sheets, anything else a File.
func ForArg(arg string, client *http.Client) TableSource {
	if IsURL(arg) {
		return Sheet{URL: arg, Client: client}
	}
	return File{Path: arg}
}

func parse(name string, data []byte, delim rune) (*analysis.Table, error) {
	t, err := analysis.ReadCSV(bytes.NewReader(data), analysis.ReadOptions{Delimiter: delim})
	if err != nil {
		return nil, &LoadError{Source: name, Reason: "malformed CSV", Err: err}
	}
	t.Name = name
	return t, nil
}

var errTooLarge = errors.New("input exceeds size limit")

// readLimited reads all of r; limit 0 means the default cap, negative means no cap.
func readLimited(r io.Reader, limit int64) ([]byte, error) {
	if limit == 0 {
		limit = defaultMaxBytes
	}
	if limit < 0 {
		return io.ReadAll(r)
	}
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("%w of %d bytes", errTooLarge, limit)
	}
	return data, nil
}

func sniffDelimiter(path string) rune {
	if strings.HasSuffix(strings.ToLower(path), ".tsv") {
		return '\t'
	}
	return ','
}
