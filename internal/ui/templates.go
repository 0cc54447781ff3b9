package ui

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"

	"github.com/KaramelBytes/samajhai/internal/insight"
)

//go:embed templates/*.html
var templateFS embed.FS

type templates struct {
	set *template.Template
}

// insightResult is the fragment returned to an insight button.
type insightResult struct {
	Kind  insight.Kind
	Title string
	HTML  template.HTML
	Err   string
	Hint  string
}

func parseTemplates() (*templates, error) {
	set, err := template.New("ui").ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	return &templates{set: set}, nil
}

func (t *templates) page(w http.ResponseWriter, p Page, logger *slog.Logger) {
	t.write(w, http.StatusOK, "page.html", p, logger)
}

func (t *templates) insight(w http.ResponseWriter, status int, res insightResult, logger *slog.Logger) {
	t.write(w, status, "insight.html", res, logger)
}

// write renders into a buffer first so a template error never leaves a
// half-written page behind.
func (t *templates) write(w http.ResponseWriter, status int, name string, data any, logger *slog.Logger) {
	var buf bytes.Buffer
	if err := t.set.ExecuteTemplate(&buf, name, data); err != nil {
		logger.Error("template render failed", "template", name, "err", err)
		http.Error(w, "render failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}
