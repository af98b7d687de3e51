package main

import (
	"context"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/ory/dockertest/v3"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// startRedisDockerContainer runs a redis container for the test. The test
// is skipped when docker is not reachable.
func startRedisDockerContainer(t *testing.T) (string, func()) {
	t.Helper()

	pool, err := dockertest.NewPool("")
	if err != nil {
		t.Skipf("Failed to start Dockertest: %+v", err)
	}

	err = pool.Client.Ping()
	if err != nil {
		t.Skipf("Could not connect to Docker: %+v", err)
	}

	resource, err := pool.Run("redis", "7.0.10-alpine", nil)
	if err != nil {
		t.Fatalf("Failed to start redis: %+v", err)
	}

	// build address the container is listening on
	addr := net.JoinHostPort("localhost", resource.GetPort("6379/tcp"))

	// ensure to wait for the container to be ready
	err = pool.Retry(func() error {
		client := redis.NewClient(&redis.Options{Addr: addr})
		defer client.Close()
		return client.Ping(context.Background()).Err()
	})
	if err != nil {
		t.Fatalf("Failed to ping Redis: %+v", err)
	}

	destroyFunc := func() {
		if err := pool.Purge(resource); err != nil {
			t.Logf("Failed to purge resource: %+v", err)
		}
	}

	return addr, destroyFunc
}

func TestRedisInfra(t *testing.T) {
	addr, destroyFunc := startRedisDockerContainer(t)
	defer destroyFunc()

	host, port, err := net.SplitHostPort(addr)
	require.NoError(t, err)
	config := DefaultConfig()
	config.Redis.Host, config.Redis.Port = host, port
	client, err := GetRedisClient(config)
	require.NoError(t, err)
	defer client.Close()

	t.Run("State Store", func(t *testing.T) {
		testStateStore(t, NewRedisStateStore(zap.NewNop(), client, time.Hour))
	})

	t.Run("State Store TTL", func(t *testing.T) {
		// ensures the saved key carries the configured expiry.
		store := NewRedisStateStore(zap.NewNop(), client, 90*time.Second)
		require.NoError(t, store.Save(context.Background(), "s:ttl", []byte(`{}`)))
		ttl, err := client.TTL(context.Background(), SessionKeyPrefix+"s:ttl").Result()
		require.NoError(t, err)
		assert.True(t, ttl > 80*time.Second && ttl <= 90*time.Second, "unexpected ttl %v", ttl)

		n, err := store.Purge(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 0, n)
		_, err = store.Load(context.Background(), "s:ttl")
		assert.NoError(t, err)
	})

	t.Run("Queue Push Pop", func(t *testing.T) {
		// ensures activities come out in insertion order with an id.
		q := NewRedisQueue(client, "test.activities.fifo", &MockUIDHandler{})
		ctx := context.Background()
		at := time.Date(2023, 7, 2, 0, 0, 0, 0, time.UTC)
		require.NoError(t, q.Record(ctx, Activity{Resource: BooksPath, Action: ActivityCreated, EntityID: 1, At: at}))
		require.NoError(t, q.Record(ctx, Activity{ID: "a:given", Resource: BooksPath, Action: ActivityDeleted, EntityID: 2, At: at}))

		first, err := q.Pop(ctx)
		require.NoError(t, err)
		assert.Equal(t, "a:id-1", first.ID)
		assert.Equal(t, int64(1), first.EntityID)
		second, err := q.Pop(ctx)
		require.NoError(t, err)
		assert.Equal(t, "a:given", second.ID)
		assert.Equal(t, at, second.At)
	})

	t.Run("Queue Empty", func(t *testing.T) {
		// ensures an empty queue returns after the pop timeout.
		q := NewRedisQueue(client, "test.activities.empty", &MockUIDHandler{})
		q.popTimeout = 100 * time.Millisecond
		_, err := q.Pop(context.Background())
		assert.ErrorIs(t, err, ErrQueueEmpty)
	})

	t.Run("Journal Consumer", func(t *testing.T) {
		// ensures queued activities end up in the journal.
		q := NewRedisQueue(client, "test.activities.consumer", &MockUIDHandler{})
		q.popTimeout = 100 * time.Millisecond
		journal := NewBoltJournal(zap.NewNop(), newTestBoltClient(t), testActivityBucket)
		consumer := NewJournalConsumer(zap.NewNop(), q, journal)

		ctx, cancel := context.WithCancel(context.Background())
		var wg sync.WaitGroup
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, consumer.Consume(ctx))
		}()

		at := time.Date(2023, 7, 2, 0, 0, 0, 0, time.UTC)
		for i := 1; i <= 3; i++ {
			require.NoError(t, q.Record(context.Background(), Activity{Resource: AuthorsPath, Action: ActivityUpdated, EntityID: int64(i), At: at.Add(time.Duration(i) * time.Second)}))
		}

		assert.Eventually(t, func() bool {
			recent, err := journal.Recent(context.Background(), 10)
			return err == nil && len(recent) == 3
		}, 5*time.Second, 50*time.Millisecond)

		cancel()
		wg.Wait()

		recent, err := journal.Recent(context.Background(), 10)
		require.NoError(t, err)
		assert.Equal(t, int64(3), recent[0].EntityID)
	})
}
