package database

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/pathakanu/memoflow/internal/model"
	"github.com/pathakanu/memoflow/internal/store"
)

func newTestRecords(t *testing.T) *Records {
	t.Helper()

	name := strings.ReplaceAll(t.Name(), "/", "_")
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", name, time.Now().UnixNano())

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err, "open sqlite memory")
	require.NoError(t, db.AutoMigrate(&Record{}), "auto migrate")
	return NewRecords(db)
}

func TestRecordsGetMissing(t *testing.T) {
	r := newTestRecords(t)

	value, found, err := r.Get(context.Background(), "nope")
	require.NoError(t, err)
	assert.False(t, found)
	assert.Nil(t, value)
}

func TestRecordsPutOverwrites(t *testing.T) {
	ctx := context.Background()
	r := newTestRecords(t)

	require.NoError(t, r.Put(ctx, "k", []byte("one")))
	require.NoError(t, r.Put(ctx, "k", []byte("two")))

	value, found, err := r.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "two", string(value))

	var count int64
	require.NoError(t, r.db.Model(&Record{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestStoreOverRecords(t *testing.T) {
	ctx := context.Background()
	s := store.New(newTestRecords(t), zerolog.Nop(), nil)

	_, err := s.SaveMemo(ctx, model.Memo{ID: "a", Content: "x", CreatedAt: 1})
	require.NoError(t, err)
	_, err = s.SaveSettings(ctx, model.AppSettings{ReviewFrequency: model.FrequencyMonthly, ReviewTime: "06:00"})
	require.NoError(t, err)
	_, err = s.SaveReview(ctx, model.AIReviewResult{ID: "r1"})
	require.NoError(t, err)

	assert.Len(t, s.Memos(ctx), 1)
	assert.Equal(t, model.FrequencyMonthly, s.Settings(ctx).ReviewFrequency)
	assert.Len(t, s.Reviews(ctx), 1)
}
