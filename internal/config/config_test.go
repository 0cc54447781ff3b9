package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	c, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.BaseURL != DefaultBaseURL || c.Model != DefaultModel {
		t.Fatalf("unexpected defaults: %+v", c)
	}
	if c.SummaryRows != 20 {
		t.Fatalf("summary_rows default = %d, want 20", c.SummaryRows)
	}
	if c.HTTPTimeout() != 60*time.Second {
		t.Fatalf("timeout = %v", c.HTTPTimeout())
	}
	if c.PreviewRows != 0 {
		t.Fatalf("preview_rows default = %d, want 0 (all rows)", c.PreviewRows)
	}
	if c.CookieSecure {
		t.Fatal("cookie_secure must default to false for plain-HTTP dashboards")
	}
}

func TestLoadExplicitMissingFile(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "absent.yaml")
	_, err := Load(path)
	if err == nil {
		t.Fatal("expected error for a missing --config file")
	}
	if !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("error should wrap fs.ErrNotExist, got %v", err)
	}
	d, err := Defaults()
	if err != nil {
		t.Fatalf("Defaults: %v", err)
	}
	if d.Model != DefaultModel {
		t.Fatalf("Defaults model = %q", d.Model)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cfg.yaml")
	if err := os.WriteFile(path, []byte("api_key: from-file\nmodel: file/model\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("SAMAJH_API_KEY", "from-env")
	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.APIKey != "from-env" {
		t.Fatalf("api_key = %q, want env value", c.APIKey)
	}
	if c.Model != "file/model" {
		t.Fatalf("model = %q, want file value", c.Model)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	in := &Global{APIKey: "sk-test", BaseURL: "http://x", Model: "m", SummaryRows: 5}
	if err := Save(in, path); err != nil {
		t.Fatalf("Save: %v", err)
	}
	out, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if out.APIKey != "sk-test" || out.Model != "m" || out.SummaryRows != 5 {
		t.Fatalf("round trip mismatch: %+v", out)
	}
}

func TestValidate(t *testing.T) {
	c := &Global{BaseURL: DefaultBaseURL, Model: DefaultModel}
	err := c.Validate()
	if err == nil || !strings.Contains(err.Error(), "api_key") {
		t.Fatalf("expected api_key error, got %v", err)
	}
	c.APIKey = "k"
	if err := c.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
