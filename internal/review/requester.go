package review

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/pathakanu/memoflow/internal/model"
)

// Request is a single structured-output request to the analysis service.
type Request struct {
	Prompt     string
	SchemaName string
	Schema     map[string]any
}

// Analyzer is the external text-analysis service.
type Analyzer interface {
	// Configured reports whether a credential is available.
	Configured() bool
	// Analyze sends req and returns the raw JSON body of the answer.
	Analyze(ctx context.Context, req Request) (string, error)
}

// Requester turns memos into a review payload using an Analyzer.
type Requester struct {
	analyzer Analyzer
	now      func() time.Time
	location *time.Location
	logger   zerolog.Logger
}

// NewRequester creates a Requester. Memo timestamps in the prompt are rendered in loc.
func NewRequester(analyzer Analyzer, now func() time.Time, loc *time.Location, logger zerolog.Logger) *Requester {
	if now == nil {
		now = time.Now
	}
	if loc == nil {
		loc = time.Local
	}
	return &Requester{
		analyzer: analyzer,
		now:      now,
		location: loc,
		logger:   logger.With().Str("component", "review").Logger(),
	}
}

// Generate selects the memos for frequency's window, asks the analysis service
// for a review and returns it with the window and frequency attached.
// The service is called exactly once; errors are returned unretried.
func (r *Requester) Generate(ctx context.Context, memos []model.Memo, frequency model.ReviewFrequency) (model.ReviewPayload, error) {
	if r.analyzer == nil || !r.analyzer.Configured() {
		return model.ReviewPayload{}, ErrConfiguration
	}

	window := WindowFor(r.now(), frequency)
	selected := window.Select(memos)

	r.logger.Debug().
		Str("frequency", string(frequency)).
		Int("memos", len(selected)).
		Msg("requesting review")

	body, err := r.analyzer.Analyze(ctx, Request{
		Prompt:     BuildPrompt(selected, frequency, r.location),
		SchemaName: SchemaName,
		Schema:     Schema(),
	})
	if err != nil {
		return model.ReviewPayload{}, fmt.Errorf("analyze memos: %w", err)
	}
	if strings.TrimSpace(body) == "" {
		return model.ReviewPayload{}, ErrEmptyResponse
	}

	payload, err := parsePayload([]byte(body))
	if err != nil {
		return model.ReviewPayload{}, err
	}
	payload.PeriodStart = window.Start
	payload.PeriodEnd = window.End
	payload.Frequency = frequency
	return payload, nil
}

// BuildPrompt renders the review instruction with one "[timestamp] content"
// line per memo, in the order given.
func BuildPrompt(memos []model.Memo, frequency model.ReviewFrequency, loc *time.Location) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "You are a personal knowledge management assistant helping me perform a %q review of my fragmented notes.\n\n", string(frequency))
	sb.WriteString("Here are my notes for this period:\n")
	for _, m := range memos {
		fmt.Fprintf(&sb, "[%s] %s\n", m.Created().In(loc).Format("Jan 2, 2006 15:04"), m.Content)
	}
	sb.WriteString(`
Please analyze these notes and provide:
1. A concise summary of my thoughts.
2. Hidden connections or patterns.
3. Actionable items.
4. Categorization tags.
5. Emotional analysis as a single mood label (e.g. Anxious, Productive, Calm).
6. A score from 0-100 indicating how much the content relates to Work, Life/Family, and Personal Growth.

Return the response as a single JSON object.`)
	return sb.String()
}
