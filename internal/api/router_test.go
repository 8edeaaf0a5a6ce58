package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/pathakanu/memoflow/internal/app"
	"github.com/pathakanu/memoflow/internal/metrics"
	"github.com/pathakanu/memoflow/internal/model"
	"github.com/pathakanu/memoflow/internal/review"
	"github.com/pathakanu/memoflow/internal/store"
)

type stubGenerator struct {
	err error
}

func (s *stubGenerator) Generate(_ context.Context, _ []model.Memo, frequency model.ReviewFrequency) (model.ReviewPayload, error) {
	if s.err != nil {
		return model.ReviewPayload{}, s.err
	}
	return model.ReviewPayload{
		PeriodStart:     1,
		PeriodEnd:       2,
		Frequency:       frequency,
		Summary:         "summary",
		Connections:     []string{},
		ActionableItems: []string{"act"},
		Tags:            []string{"tag"},
		Dimensions:      model.AnalysisDimensions{Mood: "Calm"},
	}, nil
}

func newTestServer(t *testing.T, gen app.Generator) *httptest.Server {
	t.Helper()
	st := store.New(store.NewMemoryKV(), zerolog.Nop(), nil)
	svc := app.New(st, gen, zerolog.Nop(), app.Options{
		Now: func() time.Time { return time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC) },
	})
	m := metrics.New("test")
	srv := httptest.NewServer(NewRouter(svc, zerolog.Nop(), Config{
		Location: time.UTC,
		Metrics:  m.Handler(),
	}))
	t.Cleanup(srv.Close)
	return srv
}

func do(t *testing.T, method, url, body string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	require.NoError(t, err)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func TestMemoLifecycle(t *testing.T) {
	srv := newTestServer(t, &stubGenerator{})

	resp := do(t, http.MethodPost, srv.URL+"/api/memos", `{"content":"  water plants "}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	memo := decode[model.Memo](t, resp)
	assert.Equal(t, "water plants", memo.Content)

	resp = do(t, http.MethodGet, srv.URL+"/api/memos", "")
	memos := decode[[]model.Memo](t, resp)
	require.Len(t, memos, 1)

	resp = do(t, http.MethodGet, srv.URL+"/api/memos/grouped", "")
	groups := decode[[]model.DayGroup](t, resp)
	require.Len(t, groups, 1)
	assert.Equal(t, "Today", groups[0].Label)

	resp = do(t, http.MethodDelete, srv.URL+"/api/memos/"+memo.ID, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, decode[[]model.Memo](t, resp))

	resp = do(t, http.MethodDelete, srv.URL+"/api/memos/missing", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestAddEmptyMemo(t *testing.T) {
	srv := newTestServer(t, &stubGenerator{})

	resp := do(t, http.MethodPost, srv.URL+"/api/memos", `{"content":"   "}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = do(t, http.MethodPost, srv.URL+"/api/memos", `not json`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestSettingsEndpoints(t *testing.T) {
	srv := newTestServer(t, &stubGenerator{})

	resp := do(t, http.MethodGet, srv.URL+"/api/settings", "")
	assert.Equal(t, model.DefaultSettings(), decode[model.AppSettings](t, resp))

	resp = do(t, http.MethodPut, srv.URL+"/api/settings", `{"reviewFrequency":"weekly","reviewTime":"07:30"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = do(t, http.MethodGet, srv.URL+"/api/settings", "")
	got := decode[model.AppSettings](t, resp)
	assert.Equal(t, model.FrequencyWeekly, got.ReviewFrequency)
	assert.Equal(t, "07:30", got.ReviewTime)

	resp = do(t, http.MethodPut, srv.URL+"/api/settings", `{"reviewFrequency":"weekly","reviewTime":"7pm"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestTriggerReviewUsesSettingsFrequency(t *testing.T) {
	srv := newTestServer(t, &stubGenerator{})

	do(t, http.MethodPut, srv.URL+"/api/settings", `{"reviewFrequency":"monthly","reviewTime":"20:00"}`)

	resp := do(t, http.MethodPost, srv.URL+"/api/reviews", "")
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	result := decode[model.AIReviewResult](t, resp)
	assert.Equal(t, model.FrequencyMonthly, result.Frequency)
	assert.NotEmpty(t, result.ID)

	resp = do(t, http.MethodPost, srv.URL+"/api/reviews", `{"frequency":"daily"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = do(t, http.MethodGet, srv.URL+"/api/reviews", "")
	history := decode[[]model.AIReviewResult](t, resp)
	require.Len(t, history, 2)
	assert.Equal(t, model.FrequencyDaily, history[0].Frequency)

	resp = do(t, http.MethodGet, srv.URL+"/api/reviews/"+result.ID, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, result, decode[model.AIReviewResult](t, resp))

	resp = do(t, http.MethodGet, srv.URL+"/api/reviews/nope", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestReviewsAsYAML(t *testing.T) {
	srv := newTestServer(t, &stubGenerator{})
	do(t, http.MethodPost, srv.URL+"/api/reviews", `{"frequency":"weekly"}`)

	resp := do(t, http.MethodGet, srv.URL+"/api/reviews?format=yaml", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/yaml", resp.Header.Get("Content-Type"))

	var out []map[string]any
	require.NoError(t, yaml.NewDecoder(resp.Body).Decode(&out))
	require.Len(t, out, 1)
	assert.Equal(t, "weekly", out[0]["frequency"])
	assert.Equal(t, "summary", out[0]["summary"])
}

func TestTriggerReviewErrors(t *testing.T) {
	cases := map[error]int{
		review.ErrConfiguration:     http.StatusServiceUnavailable,
		review.ErrEmptyResponse:     http.StatusBadGateway,
		review.ErrMalformedResponse: http.StatusBadGateway,
	}
	for genErr, status := range cases {
		srv := newTestServer(t, &stubGenerator{err: genErr})
		resp := do(t, http.MethodPost, srv.URL+"/api/reviews", "")
		assert.Equal(t, status, resp.StatusCode, "error %v", genErr)

		resp = do(t, http.MethodGet, srv.URL+"/api/reviews", "")
		assert.Empty(t, decode[[]model.AIReviewResult](t, resp))
	}

	srv := newTestServer(t, &stubGenerator{})
	resp := do(t, http.MethodPost, srv.URL+"/api/reviews", `{"frequency":"hourly"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHealthAndMetrics(t *testing.T) {
	srv := newTestServer(t, &stubGenerator{})

	resp := do(t, http.MethodGet, srv.URL+"/health", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = do(t, http.MethodGet, srv.URL+"/metrics", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
