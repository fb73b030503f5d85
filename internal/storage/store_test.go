package storage

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwebster45206/mansion-engine/internal/config"
	"github.com/jwebster45206/mansion-engine/pkg/persistence"
	"github.com/jwebster45206/mansion-engine/pkg/player"
	"github.com/jwebster45206/mansion-engine/pkg/scene"
	"github.com/jwebster45206/mansion-engine/pkg/storage"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func setupTestRedis(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("Failed to start miniredis: %v", err)
	}

	store, err := NewRedisStore("redis://"+mr.Addr(), testLogger())
	if err != nil {
		mr.Close()
		t.Fatalf("Failed to create redis store: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
		mr.Close()
	})
	return store, mr
}

// setupDownRedis returns a store whose server has already gone away
func setupDownRedis(t *testing.T) *RedisStore {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("Failed to start miniredis: %v", err)
	}
	store, err := NewRedisStore("redis://"+mr.Addr(), testLogger())
	mr.Close()
	if err != nil {
		t.Fatalf("Failed to create redis store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func setupTestSQLite(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "mansion.db"), testLogger())
	if err != nil {
		t.Fatalf("Failed to open sqlite store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func backends(t *testing.T) map[string]storage.Store {
	redisStore, _ := setupTestRedis(t)
	return map[string]storage.Store{
		"memory": storage.NewMemoryStore(),
		"redis":  redisStore,
		"sqlite": setupTestSQLite(t),
	}
}

func TestStoreContract(t *testing.T) {
	for name, store := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			require.NoError(t, store.Ping(ctx))

			got, err := store.Get(ctx, "missing")
			require.NoError(t, err, "a missing key is not an error")
			assert.Equal(t, "", got)

			require.NoError(t, store.Set(ctx, "stats:p1", `{"gamesPlayed":1}`))
			require.NoError(t, store.Set(ctx, "stats:p1", `{"gamesPlayed":2}`))
			got, err = store.Get(ctx, "stats:p1")
			require.NoError(t, err)
			assert.Equal(t, `{"gamesPlayed":2}`, got, "set overwrites")

			require.NoError(t, store.Delete(ctx, "stats:p1"))
			got, err = store.Get(ctx, "stats:p1")
			require.NoError(t, err)
			assert.Equal(t, "", got)

			assert.NoError(t, store.Delete(ctx, "stats:p1"), "deleting twice is fine")
		})
	}
}

func TestStoreContract_PersistenceRoundTrip(t *testing.T) {
	for name, store := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			m := persistence.NewManager(store, "p1", testLogger())

			p := player.New(player.Hard)
			p.AddItem(player.RustySword)
			p.VisitRoom("basement")
			p.TakeDamage(10)

			require.NoError(t, m.SaveGame(ctx, persistence.NewSaveRecord(p, scene.Basement, false)))
			rec, err := m.LoadGame(ctx)
			require.NoError(t, err)
			require.NotNil(t, rec)

			restored, err := rec.Player()
			require.NoError(t, err)
			assert.Equal(t, p.Snapshot(), restored.Snapshot())
		})
	}
}

func TestRedisStore_KeysArePrefixed(t *testing.T) {
	store, mr := setupTestRedis(t)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "save:p1", "{}"))
	assert.True(t, mr.Exists("mansion:save:p1"))
	assert.False(t, mr.Exists("save:p1"))
}

func TestRedisStore_ServerDown(t *testing.T) {
	store := setupDownRedis(t)

	ctx := context.Background()
	assert.Error(t, store.Ping(ctx))
	_, err := store.Get(ctx, "save:p1")
	assert.Error(t, err)
	assert.Error(t, store.Set(ctx, "save:p1", "{}"))
}

func TestRedisStore_WaitForConnection(t *testing.T) {
	store, _ := setupTestRedis(t)
	assert.NoError(t, store.WaitForConnection(context.Background(), 3, time.Millisecond))

	down := setupDownRedis(t)
	err := down.WaitForConnection(context.Background(), 2, time.Millisecond)
	assert.Error(t, err)
}

func TestNewRedisStore_BadURL(t *testing.T) {
	_, err := NewRedisStore("not a url", testLogger())
	assert.Error(t, err)
}

func TestSQLiteStore_SurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "mansion.db")

	first, err := NewSQLiteStore(path, testLogger())
	require.NoError(t, err)
	require.NoError(t, first.Set(ctx, "prefs:p1:language", "ru"))
	require.NoError(t, first.Close())

	second, err := NewSQLiteStore(path, testLogger())
	require.NoError(t, err)
	defer second.Close()

	got, err := second.Get(ctx, "prefs:p1:language")
	require.NoError(t, err)
	assert.Equal(t, "ru", got)
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	t.Run("memory", func(t *testing.T) {
		store, err := Open(ctx, &config.Config{StoreBackend: config.StoreMemory}, testLogger())
		require.NoError(t, err)
		assert.IsType(t, &storage.MemoryStore{}, store)
	})

	t.Run("sqlite", func(t *testing.T) {
		cfg := &config.Config{StoreBackend: config.StoreSQLite, SQLitePath: filepath.Join(t.TempDir(), "open.db")}
		store, err := Open(ctx, cfg, testLogger())
		require.NoError(t, err)
		defer store.Close()
		assert.IsType(t, &SQLiteStore{}, store)
	})

	t.Run("redis", func(t *testing.T) {
		mr, err := miniredis.Run()
		require.NoError(t, err)
		defer mr.Close()

		store, err := Open(ctx, &config.Config{StoreBackend: config.StoreRedis, RedisURL: "redis://" + mr.Addr()}, testLogger())
		require.NoError(t, err)
		defer store.Close()
		assert.IsType(t, &RedisStore{}, store)
	})

	t.Run("unknown", func(t *testing.T) {
		_, err := Open(ctx, &config.Config{StoreBackend: "etcd"}, testLogger())
		assert.Error(t, err)
	})
}
