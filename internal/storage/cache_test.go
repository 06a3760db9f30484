package storage

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Simplici0/invoice-roi/internal/logger"
	"github.com/Simplici0/invoice-roi/internal/metrics"
	"github.com/Simplici0/invoice-roi/internal/roi"
)

// countingRepository counts Get calls on top of a real store.
type countingRepository struct {
	Repository
	gets int
}

func (c *countingRepository) Get(ctx context.Context, id string) (Scenario, error) {
	c.gets++
	return c.Repository.Get(ctx, id)
}

// pausingRepository holds Get after the SQL read until release is closed.
type pausingRepository struct {
	Repository
	read    chan struct{}
	release chan struct{}
}

func (p *pausingRepository) Get(ctx context.Context, id string) (Scenario, error) {
	sc, err := p.Repository.Get(ctx, id)
	close(p.read)
	<-p.release
	return sc, err
}

func newCachedTestRepo(t *testing.T) (*CachedRepository, *countingRepository, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	inner := &countingRepository{Repository: newTestStore(t)}
	return NewCachedRepository(inner, client, time.Minute, logger.NewTestLogger(t), metrics.New()), inner, mr
}

func TestCachedGetReadsThrough(t *testing.T) {
	repo, inner, mr := newCachedTestRepo(t)
	ctx := context.Background()

	in := exampleInputs()
	created, err := repo.Create(ctx, "Cached", in, roi.Calculate(in))
	require.NoError(t, err)

	first, err := repo.Get(ctx, created.ID)
	require.NoError(t, err)
	second, err := repo.Get(ctx, created.ID)
	require.NoError(t, err)

	assert.Equal(t, 1, inner.gets)
	assert.Equal(t, first.Name, second.Name)
	assert.Equal(t, first.Inputs, second.Inputs)
	assert.True(t, first.CreatedAt.Equal(second.CreatedAt))
	assert.True(t, mr.Exists(cacheKey(created.ID)))
	assert.Equal(t, time.Minute, mr.TTL(cacheKey(created.ID)))
}

func TestCachedDeleteInvalidates(t *testing.T) {
	repo, _, mr := newCachedTestRepo(t)
	ctx := context.Background()

	in := exampleInputs()
	created, err := repo.Create(ctx, "Doomed", in, roi.Calculate(in))
	require.NoError(t, err)
	_, err = repo.Get(ctx, created.ID)
	require.NoError(t, err)

	require.NoError(t, repo.Delete(ctx, created.ID))
	assert.False(t, mr.Exists(cacheKey(created.ID)))

	_, err = repo.Get(ctx, created.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, created.ID), ErrNotFound)
}

func TestCachedGetIgnoresCorruptEntry(t *testing.T) {
	repo, inner, mr := newCachedTestRepo(t)
	ctx := context.Background()

	in := exampleInputs()
	created, err := repo.Create(ctx, "Corrupt", in, roi.Calculate(in))
	require.NoError(t, err)
	require.NoError(t, mr.Set(cacheKey(created.ID), "{not json"))

	got, err := repo.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Corrupt", got.Name)
	assert.Equal(t, 1, inner.gets)

	raw, err := mr.Get(cacheKey(created.ID))
	require.NoError(t, err)
	var cached Scenario
	assert.NoError(t, json.Unmarshal([]byte(raw), &cached))
}

func TestCachedGetFallsThroughWhenRedisIsDown(t *testing.T) {
	repo, inner, mr := newCachedTestRepo(t)
	ctx := context.Background()

	in := exampleInputs()
	created, err := repo.Create(ctx, "Offline", in, roi.Calculate(in))
	require.NoError(t, err)

	mr.Close()

	got, err := repo.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Offline", got.Name)
	assert.Equal(t, 1, inner.gets)

	assert.Error(t, repo.Ping(ctx))
}

func TestCachedGetRacingDeleteDoesNotResurrect(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	store := newTestStore(t)
	ctx := context.Background()

	in := exampleInputs()
	created, err := store.Create(ctx, "Racing", in, roi.Calculate(in))
	require.NoError(t, err)

	paused := &pausingRepository{Repository: store, read: make(chan struct{}), release: make(chan struct{})}
	repo := NewCachedRepository(paused, client, time.Minute, logger.NewTestLogger(t), metrics.New())

	done := make(chan error, 1)
	go func() {
		_, err := repo.Get(ctx, created.ID)
		done <- err
	}()

	<-paused.read
	require.NoError(t, repo.Delete(ctx, created.ID))
	close(paused.release)
	require.NoError(t, <-done)

	assert.False(t, mr.Exists(cacheKey(created.ID)))
	assert.True(t, mr.Exists(tombstoneKey(created.ID)))
	assert.Equal(t, time.Minute, mr.TTL(tombstoneKey(created.ID)))

	repo.next = store
	_, err = repo.Get(ctx, created.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.False(t, mr.Exists(cacheKey(created.ID)))
}
