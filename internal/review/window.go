package review

import (
	"time"

	"github.com/pathakanu/memoflow/internal/model"
)

// FallbackSize is how many recent memos are analysed when the window is empty.
const FallbackSize = 15

// Window is the period a review covers, in epoch milliseconds.
type Window struct {
	Start int64
	End   int64
}

// WindowFor returns the fixed-length window ending at now.
func WindowFor(now time.Time, frequency model.ReviewFrequency) Window {
	end := now.UnixMilli()
	return Window{
		Start: end - frequency.Span().Milliseconds(),
		End:   end,
	}
}

// Select returns the memos created at or after w.Start, in collection order.
// When none qualify it falls back to the first FallbackSize memos of the
// collection regardless of age; the window itself is left unchanged.
func (w Window) Select(memos []model.Memo) []model.Memo {
	relevant := make([]model.Memo, 0, len(memos))
	for _, m := range memos {
		if m.CreatedAt >= w.Start {
			relevant = append(relevant, m)
		}
	}
	if len(relevant) > 0 {
		return relevant
	}

	n := min(len(memos), FallbackSize)
	fallback := make([]model.Memo, n)
	copy(fallback, memos[:n])
	return fallback
}
