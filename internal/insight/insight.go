// Package insight builds prompts from a table excerpt and asks a
// chat-completion model to explain the data.
package insight

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/KaramelBytes/samajhai/internal/ai"
	"github.com/KaramelBytes/samajhai/internal/analysis"
	"github.com/KaramelBytes/samajhai/internal/utils"
)

// Kind selects the excerpt and template.
type Kind string

const (
	KindSummary  Kind = "summary"
	KindInsights Kind = "insights"
)

// DefaultSummaryRows is how many leading rows the summary excerpt carries.
const DefaultSummaryRows = 20

const summaryTemplate = `This is a dataset:
%s

Explain:
- What this data represents
- Major patterns`

const insightsTemplate = `From this statistical summary:
%s

Provide 5 actionable insights.`

// Title is the heading shown above a rendered response.
func (k Kind) Title() string {
	if k == KindInsights {
		return "Key Insights"
	}
	return "AI Summary"
}

// ParseKind accepts "summary" or "insights".
func ParseKind(s string) (Kind, error) {
	switch Kind(strings.ToLower(strings.TrimSpace(s))) {
	case KindSummary:
		return KindSummary, nil
	case KindInsights:
		return KindInsights, nil
	}
	return "", fmt.Errorf("unknown insight kind %q (use summary|insights)", s)
}

// Config is the fixed request configuration handed to a Requester.
type Config struct {
	Model       string
	SummaryRows int
	MaxTokens   int
	Temperature float64
}

// Requester turns tables into completion requests. It holds no table state.
type Requester struct {
	client ai.Completer
	cfg    Config
	logger *slog.Logger
}

// NewRequester wires a completion client with cfg. A nil logger discards logs.
func NewRequester(client ai.Completer, cfg Config, logger *slog.Logger) *Requester {
	if cfg.SummaryRows <= 0 {
		cfg.SummaryRows = DefaultSummaryRows
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Requester{client: client, cfg: cfg, logger: logger}
}

// Excerpt serializes the part of t that kind sends to the model.
func Excerpt(t *analysis.Table, kind Kind, summaryRows int) string {
	if kind == KindInsights {
		return analysis.DescribeString(analysis.Describe(t))
	}
	return t.HeadString(summaryRows)
}

// Prompt embeds excerpt into kind's template.
func Prompt(kind Kind, excerpt string) string {
	if kind == KindInsights {
		return fmt.Sprintf(insightsTemplate, excerpt)
	}
	return fmt.Sprintf(summaryTemplate, excerpt)
}

// PromptTokens estimates the tokens the template and the excerpt each add
// to kind's prompt.
func PromptTokens(kind Kind, excerpt string) map[string]int {
	return utils.TokenBreakdown(map[string]string{
		"template": Prompt(kind, ""),
		"excerpt":  excerpt,
	})
}

// RequestSummary asks the model what the leading rows of t represent.
func (r *Requester) RequestSummary(ctx context.Context, t *analysis.Table) (string, error) {
	return r.Request(ctx, KindSummary, t)
}

// RequestInsights asks the model for actionable insights from t's statistics.
func (r *Requester) RequestInsights(ctx context.Context, t *analysis.Table) (string, error) {
	return r.Request(ctx, KindInsights, t)
}

// Request sends exactly one completion request and returns the first
// choice's text unmodified.
func (r *Requester) Request(ctx context.Context, kind Kind, t *analysis.Table) (string, error) {
	id := uuid.NewString()
	excerpt := Excerpt(t, kind, r.cfg.SummaryRows)
	prompt := Prompt(kind, excerpt)
	log := r.logger.With("insight_id", id, "kind", string(kind), "model", r.cfg.Model)
	est := PromptTokens(kind, excerpt)
	log.Debug("sending completion request",
		"template_tokens", est["template"],
		"excerpt_tokens", est["excerpt"],
		"prompt_tokens_est", utils.CountTokens(prompt))

	start := time.Now()
	resp, err := r.client.Generate(ctx, ai.GenerateRequest{
		Model:       r.cfg.Model,
		Messages:    []ai.Message{{Role: "user", Content: prompt}},
		MaxTokens:   r.cfg.MaxTokens,
		Temperature: r.cfg.Temperature,
	})
	if err != nil {
		log.Warn("completion failed", "err", err, "elapsed", time.Since(start))
		return "", &InsightError{Kind: kind, ID: id, Err: err}
	}
	log.Info("completion received",
		"elapsed", time.Since(start),
		"request_id", resp.RequestID,
		"prompt_tokens", resp.Usage.PromptTokens,
		"completion_tokens", resp.Usage.CompletionTokens)
	return resp.Text(), nil
}

// InsightError reports a failed completion request of any kind.
type InsightError struct {
	Kind Kind
	ID   string
	Err  error
}

func (e *InsightError) Error() string {
	return fmt.Sprintf("%s request failed: %v", e.Kind, e.Err)
}

func (e *InsightError) Unwrap() error { return e.Err }

// Hint suggests what the user can change before trying again.
func (e *InsightError) Hint() string {
	var (
		authErr  *ai.AuthError
		rlErr    *ai.RateLimitError
		mnfErr   *ai.ModelNotFoundError
		quotaErr *ai.QuotaExceededError
		badErr   *ai.BadRequestError
		srvErr   *ai.ServerError
		unErr    *ai.UnreachableError
		malErr   *ai.MalformedResponseError
	)
	switch {
	case errors.Is(e.Err, ai.ErrMissingAPIKey):
		return "Set an API key with SAMAJH_API_KEY or `samajh config set api_key <key>`."
	case errors.As(e.Err, &authErr):
		return "The API key was rejected. Check SAMAJH_API_KEY."
	case errors.As(e.Err, &rlErr):
		if rlErr.RetryAfter > 0 {
			return fmt.Sprintf("Rate limited. Wait about %ds and try again.", int(rlErr.RetryAfter.Seconds()))
		}
		return "Rate limited. Wait a moment and try again."
	case errors.As(e.Err, &mnfErr):
		return "The configured model is not available. Pick another with `samajh config set model <id>`."
	case errors.As(e.Err, &quotaErr):
		return "The account has no remaining quota or credits."
	case errors.As(e.Err, &badErr):
		return "The provider rejected the request. Try a smaller dataset or a different model."
	case errors.As(e.Err, &srvErr):
		return "The provider had an internal error. Try again later."
	case errors.As(e.Err, &unErr):
		return "The completion endpoint could not be reached. Check base_url and your network."
	case errors.As(e.Err, &malErr):
		return "The provider returned a response without any completion text."
	case errors.Is(e.Err, context.DeadlineExceeded):
		return "The request timed out. Raise http_timeout_sec or try again."
	}
	return ""
}
