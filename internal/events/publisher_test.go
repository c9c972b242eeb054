package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opicprep/trainer/internal/config"
	"github.com/opicprep/trainer/internal/entities"
	"github.com/opicprep/trainer/internal/logging"
)

const testChannel = "test:progress"

func setupPublisher(t *testing.T) (*Publisher, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	pub, err := NewPublisher(context.Background(), config.Redis{Addr: mr.Addr(), Channel: testChannel}, logging.Nop())
	require.NoError(t, err)
	pub.now = func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) }
	t.Cleanup(func() { _ = pub.Close() })
	return pub, mr
}

func subscribe(t *testing.T, mr *miniredis.Miniredis) <-chan *goredis.Message {
	t.Helper()
	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	sub := rdb.Subscribe(context.Background(), testChannel)
	_, err := sub.Receive(context.Background())
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = sub.Close()
		_ = rdb.Close()
	})
	return sub.Channel()
}

func next(t *testing.T, ch <-chan *goredis.Message) ProgressEvent {
	t.Helper()
	select {
	case msg := <-ch:
		var ev ProgressEvent
		require.NoError(t, json.Unmarshal([]byte(msg.Payload), &ev))
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("no event received")
		return ProgressEvent{}
	}
}

func TestNewPublisher(t *testing.T) {
	_, err := NewPublisher(context.Background(), config.Redis{}, logging.Nop())
	assert.ErrorIs(t, err, ErrNotConfigured)

	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()
	_, err = NewPublisher(context.Background(), config.Redis{Addr: addr}, logging.Nop())
	assert.ErrorContains(t, err, "redis ping")

	live := miniredis.RunT(t)
	pub, err := NewPublisher(context.Background(), config.Redis{Addr: live.Addr()}, logging.Nop())
	require.NoError(t, err)
	defer pub.Close()
	assert.Equal(t, "opic:import-progress", pub.Channel())
}

func TestPublisher_RunLifecycle(t *testing.T) {
	pub, mr := setupPublisher(t)
	ch := subscribe(t, mr)
	ctx := context.Background()
	counts := entities.ImportCounts{Total: 4, Inserted: 2, Skipped: 1}

	require.NoError(t, pub.StartRun(ctx, "run-1"))
	require.NoError(t, pub.UpdateProgress(ctx, "run-1", 50, counts))
	require.NoError(t, pub.CompleteRun(ctx, "run-1", entities.ImportStatusSuccess, counts, "imported 2 of 4 rows"))

	started := next(t, ch)
	assert.Equal(t, EventStarted, started.Type)
	assert.Equal(t, entities.ImportStatusProcessing, started.Status)

	progress := next(t, ch)
	assert.Equal(t, EventProgress, progress.Type)
	assert.Equal(t, 50, progress.Percent)
	assert.Equal(t, counts, progress.Counts)

	done := next(t, ch)
	assert.Equal(t, EventCompleted, done.Type)
	assert.Equal(t, entities.ImportStatusSuccess, done.Status)
	assert.Equal(t, 100, done.Percent)
	assert.Equal(t, "imported 2 of 4 rows", done.Message)
	assert.Equal(t, "run-1", done.RunID)
}

func TestPublisher_FailuresDoNotFailTheRun(t *testing.T) {
	pub, mr := setupPublisher(t)
	mr.Close()

	ctx := context.Background()
	assert.NoError(t, pub.StartRun(ctx, "run-1"))
	assert.NoError(t, pub.CompleteRun(ctx, "run-1", entities.ImportStatusError, entities.ImportCounts{}, "boom"))
}

func TestPublisher_Subscribe(t *testing.T) {
	pub, mr := setupPublisher(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	got := make(chan ProgressEvent, 1)
	done := make(chan error, 1)
	go func() {
		done <- pub.Subscribe(ctx, func(ev ProgressEvent) { got <- ev })
	}()

	require.Eventually(t, func() bool {
		return mr.PubSubNumSub(testChannel)[testChannel] == 1
	}, 2*time.Second, 10*time.Millisecond)

	mr.Publish(testChannel, "not json")
	require.NoError(t, pub.UpdateProgress(ctx, "run-2", 10, entities.ImportCounts{Total: 10}))

	select {
	case ev := <-got:
		assert.Equal(t, "run-2", ev.RunID)
		assert.Equal(t, 10, ev.Percent)
	case <-time.After(2 * time.Second):
		t.Fatal("subscriber did not receive the event")
	}

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Subscribe did not return after cancel")
	}
}
