package loader

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestRewriteSheetURL(t *testing.T) {
	cases := []struct{ in, want string }{
		{
			"https://docs.google.com/spreadsheets/d/XYZ/edit#gid=0",
			"https://docs.google.com/spreadsheets/d/XYZ/export?format=csv&gid=0",
		},
		{
			"https://docs.google.com/spreadsheets/d/XYZ/export?format=csv&gid=0",
			"https://docs.google.com/spreadsheets/d/XYZ/export?format=csv&gid=0",
		},
		{"https://example.com/data.csv", "https://example.com/data.csv"},
	}
	for _, c := range cases {
		if got := RewriteSheetURL(c.in); got != c.want {
			t.Errorf("RewriteSheetURL(%q)=%q want %q", c.in, got, c.want)
		}
	}
}

func TestUploadLoad(t *testing.T) {
	tb, err := Upload{Name: "sales.csv", Body: strings.NewReader("region,sales\nN,10\nS,20\n")}.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if tb.Rows() != 2 || tb.NumColumns() != 2 || tb.Name != "sales.csv" {
		t.Fatalf("unexpected table: rows=%d cols=%d name=%q", tb.Rows(), tb.NumColumns(), tb.Name)
	}
}

func TestUploadMalformed(t *testing.T) {
	_, err := Upload{Name: "bad.csv", Body: strings.NewReader("a,b\n\"unterminated,1\n")}.Load(context.Background())
	var le *LoadError
	if !errors.As(err, &le) {
		t.Fatalf("expected LoadError, got %v", err)
	}
	if le.Source != "bad.csv" {
		t.Fatalf("source=%q", le.Source)
	}
}

func TestUploadTooLarge(t *testing.T) {
	_, err := Upload{Body: strings.NewReader("a\n1\n2\n3\n"), MaxBytes: 4}.Load(context.Background())
	var le *LoadError
	if !errors.As(err, &le) || !errors.Is(err, errTooLarge) {
		t.Fatalf("expected size LoadError, got %v", err)
	}
}

func TestUploadEmptyFile(t *testing.T) {
	tb, err := Upload{Body: strings.NewReader("")}.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if tb.Rows() != 0 {
		t.Fatalf("rows=%d", tb.Rows())
	}
}

func TestFileLoadSniffsTSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "d.tsv")
	if err := os.WriteFile(path, []byte("a\tb\n1\t2\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	tb, err := ForArg(path, nil).Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if tb.NumColumns() != 2 {
		t.Fatalf("cols=%d", tb.NumColumns())
	}
}

func TestFileMissing(t *testing.T) {
	_, err := File{Path: filepath.Join(t.TempDir(), "nope.csv")}.Load(context.Background())
	var le *LoadError
	if !errors.As(err, &le) || !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected not-exist LoadError, got %v", err)
	}
}

func TestSheetLoadRewritesAndFetches(t *testing.T) {
	var gotPath, gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath, gotQuery = r.URL.Path, r.URL.RawQuery
		w.Header().Set("Content-Type", "text/csv")
		_, _ = w.Write([]byte("x,y\n1,2\n3,4\n"))
	}))
	defer srv.Close()

	src := ForArg(srv.URL+"/spreadsheets/d/XYZ/edit#gid=7", srv.Client())
	tb, err := src.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if gotPath != "/spreadsheets/d/XYZ/export" || gotQuery != "format=csv&gid=7" {
		t.Fatalf("fetched %s?%s", gotPath, gotQuery)
	}
	if tb.Rows() != 2 {
		t.Fatalf("rows=%d", tb.Rows())
	}
}

func TestSheetPrivateHTML(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte("<html>sign in</html>"))
	}))
	defer srv.Close()

	_, err := Sheet{URL: srv.URL + "/d/1/edit#gid=0", Client: srv.Client()}.Load(context.Background())
	var le *LoadError
	if !errors.As(err, &le) || !strings.Contains(le.Reason, "shared publicly") {
		t.Fatalf("expected sharing LoadError, got %v", err)
	}
}

func TestSheetStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusForbidden)
	}))
	defer srv.Close()

	_, err := Sheet{URL: srv.URL, Client: srv.Client()}.Load(context.Background())
	var le *LoadError
	if !errors.As(err, &le) || !strings.Contains(le.Reason, "403") {
		t.Fatalf("expected 403 LoadError, got %v", err)
	}
}

func TestSheetUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := Sheet{URL: url}.Load(context.Background())
	var le *LoadError
	if !errors.As(err, &le) {
		t.Fatalf("expected LoadError, got %v", err)
	}
}
