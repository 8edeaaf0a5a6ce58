package openai

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/openai/openai-go/v3/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pathakanu/memoflow/internal/review"
)

func TestClientWithoutKeyIsNotConfigured(t *testing.T) {
	c := New("", "", time.Second)
	assert.False(t, c.Configured())

	_, err := c.Analyze(context.Background(), review.Request{Prompt: "hi"})
	assert.ErrorIs(t, err, review.ErrConfiguration)
}

func TestAnalyzeSendsSchemaAndReturnsContent(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &got)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{
			"id": "chatcmpl-1",
			"object": "chat.completion",
			"created": 1,
			"model": "gpt-4o-mini",
			"choices": [{"index": 0, "finish_reason": "stop", "message": {"role": "assistant", "content": " {\"summary\":\"ok\"} "}}]
		}`)
	}))
	defer srv.Close()

	c := New("test-key", "gpt-4o-mini", time.Second, option.WithBaseURL(srv.URL), option.WithMaxRetries(0))
	body, err := c.Analyze(context.Background(), review.Request{
		Prompt:     "notes",
		SchemaName: review.SchemaName,
		Schema:     review.Schema(),
	})
	require.NoError(t, err)
	assert.Equal(t, `{"summary":"ok"}`, body)

	format, ok := got["response_format"].(map[string]any)
	require.True(t, ok, "response_format missing: %v", got)
	assert.Equal(t, "json_schema", format["type"])
	schema := format["json_schema"].(map[string]any)
	assert.Equal(t, review.SchemaName, schema["name"])
	assert.Equal(t, true, schema["strict"])
}

func TestAnalyzeWithoutChoicesIsEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"id":"x","object":"chat.completion","created":1,"model":"m","choices":[]}`)
	}))
	defer srv.Close()

	c := New("test-key", "", time.Second, option.WithBaseURL(srv.URL), option.WithMaxRetries(0))
	_, err := c.Analyze(context.Background(), review.Request{Prompt: "notes"})
	assert.ErrorIs(t, err, review.ErrEmptyResponse)
}
