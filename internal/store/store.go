package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/pathakanu/memoflow/internal/model"
)

// Record keys, one whole JSON document each.
const (
	MemosKey    = "memoflow_data_v1"
	SettingsKey = "memoflow_settings_v1"
	ReviewsKey  = "memoflow_reviews_v1"
)

// ErrorRecorder is notified when a storage access fails.
type ErrorRecorder interface {
	StorageError(key string)
}

// Store exposes the memo, settings and review collections with whole-collection
// read-modify-write semantics. Writers are serialised by a single lock so
// concurrent callers cannot lose updates.
type Store struct {
	kv     KV
	logger zerolog.Logger
	errs   ErrorRecorder

	mu sync.Mutex
}

// New creates a Store on top of kv. errs may be nil.
func New(kv KV, logger zerolog.Logger, errs ErrorRecorder) *Store {
	return &Store{
		kv:     kv,
		logger: logger.With().Str("component", "store").Logger(),
		errs:   errs,
	}
}

// Memos returns all memos, newest first. Read failures yield an empty list.
func (s *Store) Memos(ctx context.Context) []model.Memo {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadMemos(ctx)
}

// SaveMemo prepends memo and persists the collection.
func (s *Store) SaveMemo(ctx context.Context, memo model.Memo) ([]model.Memo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current := s.loadMemos(ctx)
	updated := make([]model.Memo, 0, len(current)+1)
	updated = append(updated, memo)
	updated = append(updated, current...)
	if err := s.write(ctx, MemosKey, updated); err != nil {
		return current, err
	}
	return updated, nil
}

// DeleteMemo removes the memo with id. A missing id is not an error.
func (s *Store) DeleteMemo(ctx context.Context, id string) ([]model.Memo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current := s.loadMemos(ctx)
	updated := make([]model.Memo, 0, len(current))
	for _, m := range current {
		if m.ID != id {
			updated = append(updated, m)
		}
	}
	if err := s.write(ctx, MemosKey, updated); err != nil {
		return current, err
	}
	return updated, nil
}

// Settings returns the saved settings, or the defaults when none were saved or
// the record cannot be read.
func (s *Store) Settings(ctx context.Context) model.AppSettings {
	s.mu.Lock()
	defer s.mu.Unlock()

	settings := model.DefaultSettings()
	if !s.read(ctx, SettingsKey, &settings) {
		return model.DefaultSettings()
	}
	return settings
}

// SaveSettings replaces the settings record.
func (s *Store) SaveSettings(ctx context.Context, settings model.AppSettings) (model.AppSettings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.write(ctx, SettingsKey, settings); err != nil {
		return settings, err
	}
	return settings, nil
}

// Reviews returns the review history, newest inserted first.
func (s *Store) Reviews(ctx context.Context) []model.AIReviewResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadReviews(ctx)
}

// Review looks up a single review by id.
func (s *Store) Review(ctx context.Context, id string) (model.AIReviewResult, bool) {
	for _, r := range s.Reviews(ctx) {
		if r.ID == id {
			return r, true
		}
	}
	return model.AIReviewResult{}, false
}

// SaveReview drops any stored review with the same id, prepends review and
// persists the history. Saving the same id twice keeps a single entry.
func (s *Store) SaveReview(ctx context.Context, review model.AIReviewResult) ([]model.AIReviewResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current := s.loadReviews(ctx)
	updated := make([]model.AIReviewResult, 0, len(current)+1)
	updated = append(updated, review)
	for _, r := range current {
		if r.ID != review.ID {
			updated = append(updated, r)
		}
	}
	if err := s.write(ctx, ReviewsKey, updated); err != nil {
		return current, err
	}
	return updated, nil
}

func (s *Store) loadMemos(ctx context.Context) []model.Memo {
	var memos []model.Memo
	if !s.read(ctx, MemosKey, &memos) || memos == nil {
		return []model.Memo{}
	}
	return memos
}

func (s *Store) loadReviews(ctx context.Context) []model.AIReviewResult {
	var reviews []model.AIReviewResult
	if !s.read(ctx, ReviewsKey, &reviews) || reviews == nil {
		return []model.AIReviewResult{}
	}
	return reviews
}

// read decodes key into dst. It reports false when the record is absent or
// unreadable; failures are logged and never returned.
func (s *Store) read(ctx context.Context, key string, dst any) bool {
	data, found, err := s.kv.Get(ctx, key)
	if err != nil {
		s.fail(key, err, "load record")
		return false
	}
	if !found {
		return false
	}
	if err := json.Unmarshal(data, dst); err != nil {
		s.fail(key, err, "decode record")
		return false
	}
	return true
}

func (s *Store) write(ctx context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		s.fail(key, err, "encode record")
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := s.kv.Put(ctx, key, data); err != nil {
		s.fail(key, err, "save record")
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}

func (s *Store) fail(key string, err error, msg string) {
	s.logger.Error().Err(err).Str("key", key).Msg(msg)
	if s.errs != nil {
		s.errs.StorageError(key)
	}
}
