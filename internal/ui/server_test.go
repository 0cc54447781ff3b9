package ui

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/samajhai/internal/ai"
	"github.com/KaramelBytes/samajhai/internal/chart"
	"github.com/KaramelBytes/samajhai/internal/insight"
)

// =============================================================================
// Test Setup Helpers
// =============================================================================

type fakeCompleter struct {
	calls atomic.Int32
	// gate, when set, blocks requests whose prompt contains gateOn.
	gate   chan struct{}
	gateOn string
	err    error
	reply  string
}

func (f *fakeCompleter) Generate(ctx context.Context, req ai.GenerateRequest) (*ai.GenerateResponse, error) {
	f.calls.Add(1)
	prompt := req.Messages[0].Content
	if f.gate != nil && strings.Contains(prompt, f.gateOn) {
		select {
		case <-f.gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	reply := "summary reply"
	if strings.HasPrefix(prompt, "From this statistical summary") {
		reply = "insights reply"
	}
	if f.reply != "" {
		reply = f.reply
	}
	return &ai.GenerateResponse{Choices: []ai.Choice{{Message: ai.Message{Role: "assistant", Content: reply}}}}, nil
}

type countingRenderer struct {
	mu    sync.Mutex
	calls int
}

func (r *countingRenderer) Render(w io.Writer, s *chart.Spec) error {
	r.mu.Lock()
	r.calls++
	r.mu.Unlock()
	_, err := io.WriteString(w, "<svg data-title=\""+s.Title+"\"></svg>")
	return err
}

func (r *countingRenderer) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

type fixture struct {
	srv      *httptest.Server
	client   *http.Client
	fake     *fakeCompleter
	renderer *countingRenderer
}

func setup(t *testing.T, fake *fakeCompleter) *fixture {
	t.Helper()
	if fake == nil {
		fake = &fakeCompleter{}
	}
	renderer := &countingRenderer{}
	s, err := NewServer(Config{
		Title:          "SamajhAI",
		SessionSecret:  "test-secret-test-secret-test-sec",
		MaxUploadBytes: 1 << 20,
		PreviewRows:    100,
		Requester:      insight.NewRequester(fake, insight.Config{Model: "test-model"}, nil),
		Renderer:       renderer,
	})
	require.NoError(t, err)
	srv := httptest.NewServer(s.Handler())
	t.Cleanup(srv.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &fixture{srv: srv, client: &http.Client{Jar: jar}, fake: fake, renderer: renderer}
}

func (f *fixture) get(t *testing.T, path string) (int, string) {
	t.Helper()
	resp, err := f.client.Get(f.srv.URL + path)
	require.NoError(t, err)
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(b)
}

func (f *fixture) post(t *testing.T, path string, form url.Values) (int, string) {
	t.Helper()
	resp, err := f.client.PostForm(f.srv.URL+path, form)
	require.NoError(t, err)
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(b)
}

func (f *fixture) upload(t *testing.T, name, data string) string {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", name)
	require.NoError(t, err)
	_, err = io.WriteString(fw, data)
	require.NoError(t, err)
	require.NoError(t, mw.WriteField("url", ""))
	require.NoError(t, mw.Close())

	resp, err := f.client.Post(f.srv.URL+"/load", mw.FormDataContentType(), &body)
	require.NoError(t, err)
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	return string(b)
}

// =============================================================================
// Page Tests
// =============================================================================

func TestAwaitingInput(t *testing.T) {
	f := setup(t, nil)
	status, body := f.get(t, "/")
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "<title>SamajhAI</title>")
	assert.Contains(t, body, "Upload data from sidebar to begin")
	assert.NotContains(t, body, "Data Preview")
	assert.NotContains(t, body, "Navigate")
}

func TestUploadShowsOverview(t *testing.T) {
	f := setup(t, nil)
	body := f.upload(t, "people.csv", "age,city\n25,A\n30,B\n,A\n")

	for _, want := range []string{
		"Data Preview",
		"people.csv: showing 3 of 3 rows",
		"Dataset Profile",
		">Rows<", ">Columns<", ">Missing Values<", ">Numeric Columns<",
	} {
		assert.Contains(t, body, want)
	}
	assert.Contains(t, body, `<div class="label">Missing Values</div><div class="value">1</div>`)
	assert.Contains(t, body, `<div class="label">Numeric Columns</div><div class="value">1</div>`)
}

func TestMetricsUseThousandsSeparators(t *testing.T) {
	var b strings.Builder
	b.WriteString("n\n")
	for i := 0; i < 1200; i++ {
		b.WriteString("1\n")
	}
	f := setup(t, nil)
	body := f.upload(t, "big.csv", b.String())
	assert.Contains(t, body, `<div class="label">Rows</div><div class="value">1,200</div>`)
}

func TestMalformedUploadShowsErrorAndKeepsTable(t *testing.T) {
	f := setup(t, nil)
	f.upload(t, "good.csv", "a,b\n1,2\n")
	body := f.upload(t, "bad.csv", "a,b\n\"oops,1\n")
	assert.Contains(t, body, "load bad.csv failed")
	assert.Contains(t, body, "good.csv: showing 1 of 1 rows")
}

func TestUploadTooLarge(t *testing.T) {
	f := setup(t, nil)
	body := f.upload(t, "huge.csv", "a\n"+strings.Repeat("1\n", 1<<20))
	assert.Contains(t, body, "exceeds size limit")
	assert.Contains(t, body, "Upload data from sidebar to begin")
}

func TestSheetLinkIsRewrittenAndLoaded(t *testing.T) {
	var gotQuery string
	sheet := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		w.Header().Set("Content-Type", "text/csv")
		_, _ = io.WriteString(w, "region,sales\nN,10\nS,20\nN,30\n")
	}))
	defer sheet.Close()

	f := setup(t, nil)
	status, body := f.post(t, "/load", url.Values{"url": {sheet.URL + "/spreadsheets/d/XYZ/edit#gid=0"}})
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "format=csv&gid=0", gotQuery)
	assert.Contains(t, body, "showing 3 of 3 rows")
}

func TestEmptyLoadRequestIsAnError(t *testing.T) {
	f := setup(t, nil)
	_, body := f.post(t, "/load", url.Values{"url": {""}})
	assert.Contains(t, body, "choose a CSV file or paste a spreadsheet link")
}

func TestNavigationIsPureRerender(t *testing.T) {
	f := setup(t, nil)
	f.upload(t, "s.csv", "region,sales\nN,10\nS,20\n")

	_, insights := f.get(t, "/?view=insights")
	assert.Contains(t, insights, "Generate AI Summary")
	assert.Contains(t, insights, "Find Insights")
	assert.NotContains(t, insights, "Dataset Profile")

	_, charts := f.get(t, "/?view=visualizations")
	assert.Contains(t, charts, "Choose Chart Type")
	assert.Contains(t, charts, "Smart Visualizations")

	_, overview := f.get(t, "/?view=overview")
	assert.Contains(t, overview, "Dataset Profile")
	assert.Equal(t, int32(0), f.fake.calls.Load(), "navigation must not call the model")
}

// =============================================================================
// Chart Tests
// =============================================================================

func TestChartSelection(t *testing.T) {
	f := setup(t, nil)
	f.upload(t, "s.csv", "region,sales,cost\nN,10,1\nS,20,2\nN,30,3\n")

	_, body := f.post(t, "/chart", url.Values{"kind": {"bar"}})
	assert.Contains(t, body, "sum of sales by region")
	assert.Contains(t, body, "Bars show the sum of sales for each region.")
	assert.Contains(t, body, ">Category")

	_, body = f.post(t, "/chart", url.Values{"kind": {"scatter"}, "x": {"sales"}, "y": {"cost"}})
	assert.Contains(t, body, "cost vs sales")
}

func TestChartErrorDoesNotRender(t *testing.T) {
	f := setup(t, nil)
	f.upload(t, "s.csv", "region,sales\nN,10\nS,20\n")
	f.post(t, "/chart", url.Values{"kind": {"histogram"}})
	before := f.renderer.count()

	_, body := f.post(t, "/chart", url.Values{"kind": {"histogram"}, "x": {"region"}})
	assert.Contains(t, body, "not numeric")
	assert.Equal(t, before, f.renderer.count(), "renderer must not run for an invalid request")
}

func TestChartsUnavailableWithoutNumericColumns(t *testing.T) {
	f := setup(t, nil)
	f.upload(t, "t.csv", "name\nx\ny\n")
	_, body := f.get(t, "/?view=visualizations")
	assert.Contains(t, body, "no numeric columns")
	assert.Equal(t, 0, f.renderer.count())
}

func TestLoadingReplacesDerivedViews(t *testing.T) {
	f := setup(t, nil)
	f.upload(t, "a.csv", "alphacat,alphaval\nAAA,111111\nBBB,222222\n")
	_, body := f.post(t, "/chart", url.Values{"kind": {"bar"}})
	require.Contains(t, body, "sum of alphaval by alphacat")

	body = f.upload(t, "b.csv", "betaval\n5\n6\n")
	_, charts := f.get(t, "/?view=visualizations")
	_, overview := f.get(t, "/?view=overview")
	for _, page := range []string{body, charts, overview} {
		for _, stale := range []string{"alphacat", "alphaval", "AAA", "111111", "a.csv"} {
			assert.NotContains(t, page, stale)
		}
	}
	assert.Contains(t, charts, "Distribution of betaval")
}

func TestChartSVGDownload(t *testing.T) {
	f := setup(t, nil)
	status, _ := f.get(t, "/chart.svg")
	assert.Equal(t, http.StatusConflict, status)

	f.upload(t, "s.csv", "n\n1\n2\n")
	status, body := f.get(t, "/chart.svg")
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "Distribution of n")
}

// =============================================================================
// Insight Tests
// =============================================================================

func TestInsightBeforeLoad(t *testing.T) {
	f := setup(t, nil)
	status, body := f.post(t, "/insights/summary", nil)
	assert.Equal(t, http.StatusConflict, status)
	assert.Contains(t, body, "Upload data")
	assert.Equal(t, int32(0), f.fake.calls.Load())
}

func TestInsightButtons(t *testing.T) {
	f := setup(t, nil)
	f.upload(t, "s.csv", "n\n1\n2\n")

	status, body := f.post(t, "/insights/summary", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "AI Summary Generated")
	assert.Contains(t, body, "summary reply")

	status, body = f.post(t, "/insights/insights", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "Insights Ready")
	assert.Contains(t, body, "insights reply")
	assert.Equal(t, int32(2), f.fake.calls.Load())

	status, _ = f.post(t, "/insights/poem", nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestInsightReplyRendersMarkdown(t *testing.T) {
	f := setup(t, &fakeCompleter{reply: "## Overview\n\n- **sales** rise\n- units fall\n\n<script>alert(1)</script>"})
	f.upload(t, "s.csv", "n\n1\n2\n")

	status, body := f.post(t, "/insights/insights", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "<h2>Overview</h2>")
	assert.Contains(t, body, "<li><strong>sales</strong> rise</li>")
	assert.NotContains(t, body, "<script>")
}

func TestInsightFailureShowsErrorState(t *testing.T) {
	fake := &fakeCompleter{err: &ai.AuthError{APIError: &ai.APIError{StatusCode: 401, Message: "bad key"}}}
	f := setup(t, fake)
	f.upload(t, "s.csv", "n\n1\n")

	status, body := f.post(t, "/insights/summary", nil)
	assert.Equal(t, http.StatusBadGateway, status)
	assert.Contains(t, body, "AI Summary failed.")
	assert.Contains(t, body, "The API key was rejected")
}

func TestInsightTriggersAreIndependent(t *testing.T) {
	fake := &fakeCompleter{gate: make(chan struct{}), gateOn: "This is a dataset"}
	f := setup(t, fake)
	f.upload(t, "s.csv", "n\n1\n2\n")

	done := make(chan string, 1)
	go func() {
		resp, err := f.client.Post(f.srv.URL+"/insights/summary", "application/x-www-form-urlencoded", nil)
		if err != nil {
			done <- err.Error()
			return
		}
		defer resp.Body.Close()
		b, _ := io.ReadAll(resp.Body)
		done <- string(b)
	}()

	// The insights trigger completes while the summary is still in flight.
	_, body := f.post(t, "/insights/insights", nil)
	assert.Contains(t, body, "insights reply")
	select {
	case <-done:
		t.Fatal("summary finished before it was released")
	default:
	}

	close(fake.gate)
	select {
	case body := <-done:
		assert.Contains(t, body, "summary reply")
	case <-time.After(5 * time.Second):
		t.Fatal("summary did not finish")
	}
}

func TestHealthz(t *testing.T) {
	f := setup(t, nil)
	status, body := f.get(t, "/healthz")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ok", body)
}

// =============================================================================
// Session Cookie Tests
// =============================================================================

func newTestServer(t *testing.T, cfg Config) *Server {
	t.Helper()
	cfg.SessionSecret = "test-secret-test-secret-test-sec"
	cfg.Requester = insight.NewRequester(&fakeCompleter{}, insight.Config{Model: "test-model"}, nil)
	s, err := NewServer(cfg)
	require.NoError(t, err)
	return s
}

func sessionCookie(t *testing.T, rr *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rr.Result().Cookies() {
		if c.Name == sessionName {
			return c
		}
	}
	t.Fatalf("no %s cookie in response", sessionName)
	return nil
}

func sidOf(t *testing.T, s *Server, c *http.Cookie) string {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(c)
	sess, err := s.sessions.store.Get(req, sessionName)
	require.NoError(t, err)
	id, _ := sess.Values[sessionIDKey].(string)
	require.NotEmpty(t, id)
	return id
}

func TestSessionCookieAttributes(t *testing.T) {
	s := newTestServer(t, Config{})
	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	c := sessionCookie(t, rr)
	assert.False(t, c.Secure, "plain-HTTP dashboards need a non-Secure cookie")
	assert.True(t, c.HttpOnly)
	assert.Equal(t, http.SameSiteLaxMode, c.SameSite)
	assert.Equal(t, 3600, c.MaxAge)
	assert.Equal(t, "/", c.Path)

	tls := newTestServer(t, Config{CookieSecure: true})
	rr = httptest.NewRecorder()
	tls.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.True(t, sessionCookie(t, rr).Secure)
}

func TestSessionSurvivesAcrossRequests(t *testing.T) {
	f := setup(t, nil)
	f.upload(t, "a.csv", "x,y\n1,2\n3,4\n")

	_, page := f.get(t, "/")
	assert.NotContains(t, page, "Upload data from sidebar to begin")
	assert.Contains(t, page, "Dataset Profile")
}

func TestSessionCookieRefreshedOnActivity(t *testing.T) {
	s := newTestServer(t, Config{})
	h := s.Handler()

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	first := sessionCookie(t, rr)

	req := httptest.NewRequest(http.MethodGet, "/?view=insights", nil)
	req.AddCookie(first)
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	refreshed := sessionCookie(t, rr)

	assert.Equal(t, 3600, refreshed.MaxAge)
	assert.Equal(t, sidOf(t, s, first), sidOf(t, s, refreshed), "the refreshed cookie keeps the session id")
}
