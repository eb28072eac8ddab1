package events

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPair(t *testing.T) (*Publisher, *Reader, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return NewPublisher(rdb, time.Minute), NewReader(rdb), mr
}

func TestPublishAndReadLast(t *testing.T) {
	pub, rd, _ := newTestPair(t)
	ctx := context.Background()

	at := time.Date(2026, 3, 2, 12, 30, 0, 0, time.UTC)
	pub.now = func() time.Time { return at }

	require.NoError(t, pub.SlotBooked(ctx, 1, 42, "2026-03-02"))

	ev, err := rd.Last(ctx, 1)
	require.NoError(t, err)
	require.NotNil(t, ev)
	assert.Equal(t, at.UnixMilli(), ev.EventID)
	assert.Equal(t, ActionSlotBooked, ev.Action)
	assert.Equal(t, 1, ev.MasterID)
	assert.Equal(t, 42, ev.SlotID)
	assert.Equal(t, "2026-03-02", ev.Date)
	assert.Equal(t, "2026-03-02 12:30:00", ev.PublishedAt)
}

func TestNewerPublishOverwrites(t *testing.T) {
	pub, rd, _ := newTestPair(t)
	ctx := context.Background()

	at := time.Date(2026, 3, 2, 12, 30, 0, 0, time.UTC)
	pub.now = func() time.Time { return at }
	require.NoError(t, pub.SlotBooked(ctx, 1, 42, "2026-03-02"))

	pub.now = func() time.Time { return at.Add(5 * time.Millisecond) }
	require.NoError(t, pub.SlotFreed(ctx, 1, 42, "2026-03-02"))

	ev, err := rd.Last(ctx, 1)
	require.NoError(t, err)
	require.NotNil(t, ev)
	assert.Equal(t, ActionSlotFreed, ev.Action)
	assert.Greater(t, ev.EventID, at.UnixMilli())
}

func TestLastIsPerMaster(t *testing.T) {
	pub, rd, _ := newTestPair(t)
	ctx := context.Background()

	require.NoError(t, pub.SlotBooked(ctx, 1, 42, "2026-03-02"))

	ev, err := rd.Last(ctx, 2)
	require.NoError(t, err)
	assert.Nil(t, ev)
}

func TestEventAgesOut(t *testing.T) {
	pub, rd, mr := newTestPair(t)
	ctx := context.Background()

	require.NoError(t, pub.SlotBooked(ctx, 1, 42, "2026-03-02"))
	mr.FastForward(61 * time.Second)

	ev, err := rd.Last(ctx, 1)
	require.NoError(t, err)
	assert.Nil(t, ev)
}
