package cli

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pathakanu/memoflow/internal/model"
	"github.com/pathakanu/memoflow/internal/review"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("LOCAL_TIMEZONE", "UTC")

	var out bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--memory"}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestMemoAdd(t *testing.T) {
	out, err := run(t, "memo", "add", "remember", "the", "milk")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "saved "), out)
}

func TestMemoListEmpty(t *testing.T) {
	out, err := run(t, "memo", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "Your mind is clear.")
}

func TestSettingsSet(t *testing.T) {
	out, err := run(t, "settings", "set", "--frequency", "weekly", "--time", "07:00")
	require.NoError(t, err)
	assert.Contains(t, out, "frequency: weekly")
	assert.Contains(t, out, "time: 07:00")

	_, err = run(t, "settings", "set", "--frequency", "yearly")
	assert.Error(t, err)
}

func TestReviewRunWithoutKey(t *testing.T) {
	_, err := run(t, "review", "run")
	assert.ErrorIs(t, err, review.ErrConfiguration)
}

func TestWriteReviews(t *testing.T) {
	reviews := []model.AIReviewResult{{
		ID: "r1",
		ReviewPayload: model.ReviewPayload{
			Frequency:       model.FrequencyWeekly,
			Summary:         "quiet week",
			Connections:     []string{},
			ActionableItems: []string{"rest"},
			Tags:            []string{"life"},
			Dimensions:      model.AnalysisDimensions{Mood: "Calm"},
		},
	}}

	var yml bytes.Buffer
	require.NoError(t, writeReviews(&yml, reviews, "yaml"))
	assert.Contains(t, yml.String(), "summary: quiet week")
	assert.Contains(t, yml.String(), "mood: Calm")

	var js bytes.Buffer
	require.NoError(t, writeReviews(&js, reviews, "json"))
	assert.Contains(t, js.String(), `"actionableItems"`)

	assert.Error(t, writeReviews(&js, reviews, "xml"))
}
