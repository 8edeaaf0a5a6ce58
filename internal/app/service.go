package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/pathakanu/memoflow/internal/metrics"
	"github.com/pathakanu/memoflow/internal/model"
	"github.com/pathakanu/memoflow/internal/review"
	"github.com/pathakanu/memoflow/internal/store"
)

var (
	// ErrReviewInProgress is returned when a review is triggered while another is running.
	ErrReviewInProgress = errors.New("a review is already being generated")
	// ErrEmptyMemo is returned for blank memo content.
	ErrEmptyMemo = errors.New("memo content cannot be empty")
	// ErrInvalidSettings wraps settings validation failures.
	ErrInvalidSettings = errors.New("invalid settings")
	// ErrInvalidFrequency is returned for an unknown review frequency.
	ErrInvalidFrequency = errors.New("invalid review frequency")
)

// Generator produces a review payload from the memo collection.
type Generator interface {
	Generate(ctx context.Context, memos []model.Memo, frequency model.ReviewFrequency) (model.ReviewPayload, error)
}

// Options are the injectable environment capabilities of a Service.
type Options struct {
	Now     func() time.Time
	NewID   func() string
	Metrics *metrics.Collector
}

// Service is the application core used by the HTTP API, the CLI, the
// WhatsApp bot and the scheduler.
type Service struct {
	store     *store.Store
	generator Generator
	now       func() time.Time
	newID     func() string
	metrics   *metrics.Collector
	logger    zerolog.Logger

	reviewing atomic.Bool

	mu        sync.Mutex
	observers []func(model.AppSettings)
}

// New creates a Service.
func New(st *store.Store, generator Generator, logger zerolog.Logger, opts Options) *Service {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.NewID == nil {
		opts.NewID = uuid.NewString
	}
	return &Service{
		store:     st,
		generator: generator,
		now:       opts.Now,
		newID:     opts.NewID,
		metrics:   opts.Metrics,
		logger:    logger.With().Str("component", "app").Logger(),
	}
}

// Now returns the service clock.
func (s *Service) Now() time.Time {
	return s.now()
}

// ListMemos returns all memos, newest first.
func (s *Service) ListMemos(ctx context.Context) []model.Memo {
	return s.store.Memos(ctx)
}

// AddMemo stores trimmed content as a new memo and returns the updated collection.
func (s *Service) AddMemo(ctx context.Context, content string) (model.Memo, []model.Memo, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return model.Memo{}, nil, ErrEmptyMemo
	}

	memo := model.Memo{
		ID:        s.newID(),
		Content:   content,
		CreatedAt: s.now().UnixMilli(),
	}
	memos, err := s.store.SaveMemo(ctx, memo)
	if err != nil {
		return model.Memo{}, memos, fmt.Errorf("save memo: %w", err)
	}
	s.metrics.SetMemoCount(len(memos))
	return memo, memos, nil
}

// RemoveMemo deletes a memo by id. Unknown ids leave the collection unchanged.
func (s *Service) RemoveMemo(ctx context.Context, id string) ([]model.Memo, error) {
	memos, err := s.store.DeleteMemo(ctx, id)
	if err != nil {
		return memos, fmt.Errorf("delete memo: %w", err)
	}
	s.metrics.SetMemoCount(len(memos))
	return memos, nil
}

// GetSettings returns the current settings, defaulting on first run.
func (s *Service) GetSettings(ctx context.Context) model.AppSettings {
	return s.store.Settings(ctx)
}

// SetSettings validates and saves settings, then notifies observers.
func (s *Service) SetSettings(ctx context.Context, settings model.AppSettings) (model.AppSettings, error) {
	if err := settings.Validate(); err != nil {
		return model.AppSettings{}, fmt.Errorf("%w: %v", ErrInvalidSettings, err)
	}
	saved, err := s.store.SaveSettings(ctx, settings)
	if err != nil {
		return model.AppSettings{}, fmt.Errorf("save settings: %w", err)
	}

	s.mu.Lock()
	observers := append([]func(model.AppSettings){}, s.observers...)
	s.mu.Unlock()
	for _, fn := range observers {
		fn(saved)
	}
	return saved, nil
}

// OnSettingsChanged registers fn to run after every successful settings save.
func (s *Service) OnSettingsChanged(fn func(model.AppSettings)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observers = append(s.observers, fn)
}

// ListReviews returns the review history, newest first.
func (s *Service) ListReviews(ctx context.Context) []model.AIReviewResult {
	return s.store.Reviews(ctx)
}

// GetReview returns a stored review by id.
func (s *Service) GetReview(ctx context.Context, id string) (model.AIReviewResult, bool) {
	return s.store.Review(ctx, id)
}

// Reviewing reports whether a review is currently being generated.
func (s *Service) Reviewing() bool {
	return s.reviewing.Load()
}

// TriggerReview generates a review for frequency and appends it to the history.
// Only one review runs at a time. On any failure the history is left untouched.
func (s *Service) TriggerReview(ctx context.Context, frequency model.ReviewFrequency) (model.AIReviewResult, error) {
	if !frequency.Valid() {
		return model.AIReviewResult{}, fmt.Errorf("%w: %q", ErrInvalidFrequency, frequency)
	}
	if !s.reviewing.CompareAndSwap(false, true) {
		return model.AIReviewResult{}, ErrReviewInProgress
	}
	defer s.reviewing.Store(false)

	log := s.logger.With().Str("frequency", string(frequency)).Logger()

	started := time.Now()
	payload, err := s.generator.Generate(ctx, s.store.Memos(ctx), frequency)
	s.metrics.ObserveReview(outcome(err), time.Since(started))
	if err != nil {
		log.Error().Err(err).Msg("review generation failed")
		return model.AIReviewResult{}, err
	}

	result := model.NewReviewResult(s.newID(), s.now(), payload)
	result.Frequency = frequency
	if _, err := s.store.SaveReview(ctx, result); err != nil {
		log.Error().Err(err).Msg("review could not be saved")
		return model.AIReviewResult{}, fmt.Errorf("save review: %w", err)
	}

	log.Info().Str("review_id", result.ID).Msg("review generated")
	return result, nil
}

func outcome(err error) string {
	switch {
	case err == nil:
		return metrics.OutcomeSuccess
	case errors.Is(err, review.ErrConfiguration):
		return metrics.OutcomeConfiguration
	case errors.Is(err, review.ErrEmptyResponse):
		return metrics.OutcomeEmpty
	case errors.Is(err, review.ErrMalformedResponse):
		return metrics.OutcomeMalformed
	default:
		return metrics.OutcomeFailed
	}
}
