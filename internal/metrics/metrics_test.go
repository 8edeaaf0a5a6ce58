package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestObserveReviewCountsOutcomes(t *testing.T) {
	c := New("memoflow")
	c.ObserveReview(OutcomeSuccess, time.Second)
	c.ObserveReview(OutcomeSuccess, 2*time.Second)
	c.ObserveReview(OutcomeMalformed, time.Second)

	assert.Equal(t, 2.0, testutil.ToFloat64(c.Reviews.WithLabelValues(OutcomeSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.Reviews.WithLabelValues(OutcomeMalformed)))
}

func TestNilCollectorIsSafe(t *testing.T) {
	var c *Collector
	c.ObserveReview(OutcomeFailed, time.Second)
	c.SetMemoCount(3)
	c.StorageError("k")
}

func TestStorageErrorAndMemoGauge(t *testing.T) {
	c := New("memoflow")
	c.StorageError("memoflow_data_v1")
	c.SetMemoCount(7)

	assert.Equal(t, 1.0, testutil.ToFloat64(c.StorageErrors.WithLabelValues("memoflow_data_v1")))
	assert.Equal(t, 7.0, testutil.ToFloat64(c.Memos))
}
