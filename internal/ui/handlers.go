package ui

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/KaramelBytes/samajhai/internal/chart"
	"github.com/KaramelBytes/samajhai/internal/insight"
	"github.com/KaramelBytes/samajhai/internal/loader"
)

const multipartMemory = 8 << 20

func (s *Server) renderOptions() RenderOptions {
	return RenderOptions{
		Title:       s.cfg.Title,
		PreviewRows: s.cfg.PreviewRows,
		Renderer:    s.cfg.Renderer,
	}
}

// HandlePage renders the dashboard. A view query parameter switches views.
func (s *Server) HandlePage(w http.ResponseWriter, r *http.Request) {
	id, err := s.sessions.id(w, r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	st := s.sessions.get(id)
	if v := r.URL.Query().Get("view"); v != "" {
		st = st.Navigate(ParseView(v))
		s.sessions.put(id, st)
	}
	s.templates.page(w, Render(st, s.renderOptions()), s.logger)
}

// HandleLoad replaces the session's table with an uploaded file or a
// spreadsheet link. An upload wins when both are given.
func (s *Server) HandleLoad(w http.ResponseWriter, r *http.Request) {
	id, err := s.sessions.id(w, r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	st := s.sessions.get(id)
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	src, err := s.sourceFor(w, r)
	if err == nil {
		t, lerr := src.Load(r.Context())
		if lerr == nil {
			st = st.Loaded(t, t.Name)
			s.logger.Info("dataset loaded", "session", id, "source", t.Name, "rows", t.Rows(), "columns", t.NumColumns())
		}
		err = lerr
	}
	if err != nil {
		s.logger.Warn("dataset load failed", "session", id, "err", err)
		st = st.LoadFailed(err)
	}
	s.sessions.put(id, st)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) sourceFor(w http.ResponseWriter, r *http.Request) (loader.TableSource, error) {
	limit := s.cfg.MaxUploadBytes
	if limit > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, limit+multipartMemory)
	}
	ct := r.Header.Get("Content-Type")
	if strings.HasPrefix(ct, "multipart/form-data") {
		if err := r.ParseMultipartForm(multipartMemory); err != nil {
			var tooBig *http.MaxBytesError
			if errors.As(err, &tooBig) {
				return nil, &loader.LoadError{Source: "upload", Reason: fmt.Sprintf("larger than %d MB", limit>>20)}
			}
			return nil, &loader.LoadError{Source: "upload", Reason: "invalid form", Err: err}
		}
		if f, hdr, err := r.FormFile("file"); err == nil {
			return loader.Upload{Name: hdr.Filename, Body: f, MaxBytes: limit}, nil
		}
	} else if err := r.ParseForm(); err != nil {
		return nil, &loader.LoadError{Reason: "invalid form", Err: err}
	}
	if u := strings.TrimSpace(r.FormValue("url")); u != "" {
		return loader.Sheet{URL: u, Client: s.cfg.SheetClient, MaxBytes: limit}, nil
	}
	return nil, &loader.LoadError{Reason: "choose a CSV file or paste a spreadsheet link"}
}

// HandleChart applies chart selector changes and shows the chart view.
func (s *Server) HandleChart(w http.ResponseWriter, r *http.Request) {
	id, err := s.sessions.id(w, r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	st := s.sessions.get(id)
	req := chart.Request{X: r.FormValue("x"), Y: r.FormValue("y")}
	if k := r.FormValue("kind"); k != "" {
		kind, err := chart.ParseKind(k)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		req.Kind = kind
	}
	s.sessions.put(id, st.SelectChart(req))
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// HandleChartSVG serves the session's current chart as a standalone SVG.
func (s *Server) HandleChartSVG(w http.ResponseWriter, r *http.Request) {
	id, err := s.sessions.id(w, r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	st := s.sessions.get(id)
	if st.Table == nil {
		http.Error(w, "no dataset loaded", http.StatusConflict)
		return
	}
	w.Header().Set("Content-Type", "image/svg+xml")
	if _, err := chart.Draw(w, s.cfg.Renderer, st.Table, st.Chart); err != nil {
		var ce *chart.ChartError
		if errors.As(err, &ce) {
			http.Error(w, ce.Error(), http.StatusUnprocessableEntity)
			return
		}
		s.logger.Error("chart render failed", "err", err)
	}
}

// HandleInsight runs one completion request against the session's table and
// returns an HTML fragment. The table is read once up front, so a concurrent
// load does not affect a request already in flight.
func (s *Server) HandleInsight(w http.ResponseWriter, r *http.Request) {
	kind, err := insight.ParseKind(chi.URLParam(r, "kind"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	id, err := s.sessions.id(w, r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	t := s.sessions.get(id).Table
	if t == nil {
		res := insightResult{Kind: kind, Title: kind.Title(), Err: "Upload data from the sidebar to begin."}
		s.templates.insight(w, http.StatusConflict, res, s.logger)
		return
	}

	text, err := s.cfg.Requester.Request(r.Context(), kind, t)
	res := insightResult{Kind: kind, Title: kind.Title()}
	status := http.StatusOK
	if err == nil {
		res.HTML = renderMarkdown(text)
	} else {
		res.Err = err.Error()
		var ie *insight.InsightError
		if errors.As(err, &ie) {
			res.Hint = ie.Hint()
		}
		status = http.StatusBadGateway
	}
	s.templates.insight(w, status, res, s.logger)
}
