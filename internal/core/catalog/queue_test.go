package catalog

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nutrisnap-backend/internal/models"
)

func TestBackoffMonotonicCapped(t *testing.T) {
	prev := time.Duration(0)
	for attempt := 0; attempt <= 12; attempt++ {
		d := Backoff(attempt)
		assert.GreaterOrEqual(t, d, prev, "attempt=%d", attempt)
		assert.LessOrEqual(t, d, 168*time.Hour, "attempt=%d", attempt)
		prev = d
	}
	assert.Equal(t, 2*time.Hour, Backoff(1))
	assert.Equal(t, 32*time.Hour, Backoff(5))
	assert.Equal(t, 168*time.Hour, Backoff(10))
}

func TestEnqueueIdempotent(t *testing.T) {
	db := setupDB(t)
	repo := NewRepository(db)
	queue := NewQueue(db)
	ctx := context.Background()

	entry := makeEntry("Ragi Mudde", 110)
	require.NoError(t, repo.Create(ctx, entry))

	require.NoError(t, queue.Enqueue(ctx, nil, entry.ID, entry.Name, models.QueueStatusPending))
	require.NoError(t, queue.Enqueue(ctx, nil, entry.ID, entry.Name, models.QueueStatusPending))

	var count int64
	require.NoError(t, db.Model(&models.IngestionQueueItem{}).Where("food_id = ?", entry.ID).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestQueueLifecycle(t *testing.T) {
	db := setupDB(t)
	repo := NewRepository(db)
	queue := NewQueue(db)
	ctx := context.Background()

	entry := makeEntry("Misal Pav", 190)
	require.NoError(t, repo.Create(ctx, entry))
	require.NoError(t, queue.Enqueue(ctx, nil, entry.ID, entry.Name, models.QueueStatusPending))

	// pending 不會被批次選取
	batch, err := queue.NextBatch(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, batch)

	// pending -> ready
	require.NoError(t, queue.Promote(ctx, nil, entry.ID))
	batch, err = queue.NextBatch(ctx, 10)
	require.NoError(t, err)
	require.Len(t, batch, 1)
	assert.Equal(t, models.QueueStatusReady, batch[0].Status)

	// ready -> error，退避未到期前不可再選
	future := time.Now().UTC().Add(2 * time.Hour)
	require.NoError(t, queue.MarkError(ctx, entry.ID, "provider timeout", 1, future))
	batch, err = queue.NextBatch(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, batch)

	// 退避到期後重新可選
	past := time.Now().UTC().Add(-time.Minute)
	require.NoError(t, db.Model(&models.IngestionQueueItem{}).
		Where("food_id = ?", entry.ID).
		Update("next_attempt_at", past).Error)
	batch, err = queue.NextBatch(ctx, 10)
	require.NoError(t, err)
	require.Len(t, batch, 1)
	assert.Equal(t, 1, batch[0].AttemptCount)
	assert.Equal(t, "provider timeout", batch[0].LastError)

	// 成功即刪除
	require.NoError(t, queue.MarkSuccess(ctx, entry.ID))
	depth, err := queue.Depth(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), depth)
}

func TestNextBatchOrderedByCreation(t *testing.T) {
	db := setupDB(t)
	repo := NewRepository(db)
	queue := NewQueue(db)
	ctx := context.Background()

	first := makeEntry("Thepla", 240)
	second := makeEntry("Dhokla", 160)
	require.NoError(t, repo.Create(ctx, first))
	require.NoError(t, repo.Create(ctx, second))

	require.NoError(t, queue.Enqueue(ctx, nil, first.ID, first.Name, models.QueueStatusReady))
	require.NoError(t, db.Model(&models.IngestionQueueItem{}).
		Where("food_id = ?", first.ID).
		Update("created_at", time.Now().UTC().Add(-time.Hour)).Error)
	require.NoError(t, queue.Enqueue(ctx, nil, second.ID, second.Name, models.QueueStatusReady))

	batch, err := queue.NextBatch(ctx, 10)
	require.NoError(t, err)
	require.Len(t, batch, 2)
	assert.Equal(t, first.ID, batch[0].FoodID)
	assert.Equal(t, second.ID, batch[1].FoodID)
}
