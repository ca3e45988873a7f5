package dispatch_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/exo-addons/leadcapture/dispatch"
	"github.com/exo-addons/leadcapture/lead"
)

func setupTestRedis(t *testing.T) (*miniredis.Miniredis, *dispatch.RedisQueue) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	q := dispatch.NewRedisQueue(client, "test:tasks")
	t.Cleanup(func() { _ = q.Close() })
	return mr, q
}

func TestRedisQueueRoundTrip(t *testing.T) {
	_, q := setupTestRedis(t)
	ctx := context.Background()

	rec := lead.NewBuilder().
		Set(lead.FieldMail, "jane@example.com").
		Set(lead.FieldFirstName, "Jane").
		Set(lead.FieldLastName, "Doe").
		Build()
	first := dispatch.NewTask("jdoe", rec)
	second := dispatch.NewTask("rroe", testLead("roe@example.com"))

	require.NoError(t, q.Enqueue(ctx, first))
	require.NoError(t, q.Enqueue(ctx, second))

	n, err := q.Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	got, err := q.Dequeue(ctx)
	require.NoError(t, err)
	assert.Equal(t, first.ID.String(), got.ID.String())
	assert.Equal(t, "jdoe", got.UserID)
	assert.Equal(t, rec.Keys(), got.Lead.Keys())
	assert.Equal(t, "jane@example.com", got.Lead.Mail())
	assert.WithinDuration(t, first.CreatedAt, got.CreatedAt, time.Millisecond)

	got, err = q.Dequeue(ctx)
	require.NoError(t, err)
	assert.Equal(t, "rroe", got.UserID)
}

func TestRedisQueueMalformedEntry(t *testing.T) {
	mr, q := setupTestRedis(t)

	_, err := mr.Lpush("test:tasks", "not json")
	require.NoError(t, err)

	_, err = q.Dequeue(context.Background())
	assert.ErrorIs(t, err, dispatch.ErrMalformedTask)
	assert.False(t, mr.Exists("test:tasks"), "malformed entry should be consumed")
}

func TestRedisQueueDequeueHonorsContext(t *testing.T) {
	_, q := setupTestRedis(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := q.Dequeue(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDispatcherOverRedis(t *testing.T) {
	_, q := setupTestRedis(t)
	sender := &recordingSender{}

	d := dispatch.New(q, sender, dispatch.Config{Workers: 2})
	d.Start(context.Background())

	for _, user := range []string{"a", "b", "c"} {
		_, err := d.Submit(context.Background(), user, testLead(user+"@example.com"))
		require.NoError(t, err)
	}

	waitFor(t, func() bool { return sender.calls.Load() == 3 })

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, d.Stop(ctx))

	sender.mu.Lock()
	defer sender.mu.Unlock()
	assert.ElementsMatch(t, []string{"a", "b", "c"}, sender.users)
}
