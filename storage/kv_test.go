package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jobpilot/backend/config"
	"github.com/jobpilot/backend/models"
)

// exerciseKV runs the behaviour every backend must share
func exerciseKV(t *testing.T, kv KV) {
	ctx := context.Background()

	_, err := kv.Get(ctx, "users", "jane@example.com")
	assert.ErrorIs(t, err, models.ErrNotFound)

	require.NoError(t, kv.Create(ctx, "users", "jane@example.com", []byte(`{"v":1}`)))
	assert.ErrorIs(t, kv.Create(ctx, "users", "jane@example.com", []byte(`{"v":2}`)), ErrAlreadyExists)

	value, err := kv.Get(ctx, "users", "jane@example.com")
	require.NoError(t, err)
	assert.Equal(t, `{"v":1}`, string(value))

	require.NoError(t, kv.Put(ctx, "users", "jane@example.com", []byte(`{"v":3}`)))
	value, err = kv.Get(ctx, "users", "jane@example.com")
	require.NoError(t, err)
	assert.Equal(t, `{"v":3}`, string(value))

	// namespaces are separate
	_, err = kv.Get(ctx, "current_session", "jane@example.com")
	assert.ErrorIs(t, err, models.ErrNotFound)

	require.NoError(t, kv.Delete(ctx, "users", "jane@example.com"))
	_, err = kv.Get(ctx, "users", "jane@example.com")
	assert.ErrorIs(t, err, models.ErrNotFound)
	assert.NoError(t, kv.Delete(ctx, "users", "jane@example.com"))
}

func TestMemoryKV(t *testing.T) {
	exerciseKV(t, NewMemoryKV())
}

func TestMemoryKV_CopiesValues(t *testing.T) {
	kv := NewMemoryKV()
	ctx := context.Background()
	value := []byte("abc")
	require.NoError(t, kv.Put(ctx, "ns", "k", value))
	value[0] = 'X'

	got, err := kv.Get(ctx, "ns", "k")
	require.NoError(t, err)
	assert.Equal(t, "abc", string(got))
	got[1] = 'Y'

	again, _ := kv.Get(ctx, "ns", "k")
	assert.Equal(t, "abc", string(again))
}

func TestSQLiteKV(t *testing.T) {
	kv, err := OpenSQLiteKV(context.Background(), filepath.Join(t.TempDir(), "kv.db"))
	require.NoError(t, err)
	defer kv.Close()

	exerciseKV(t, kv)
}

func TestSQLiteKV_Persists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kv.db")
	ctx := context.Background()

	kv, err := OpenSQLiteKV(ctx, path)
	require.NoError(t, err)
	require.NoError(t, kv.Put(ctx, "ns", "k", []byte("v")))
	require.NoError(t, kv.Close())

	kv, err = OpenSQLiteKV(ctx, path)
	require.NoError(t, err)
	defer kv.Close()
	got, err := kv.Get(ctx, "ns", "k")
	require.NoError(t, err)
	assert.Equal(t, "v", string(got))
}

func TestOpen(t *testing.T) {
	cfg := config.Default()
	kv, err := Open(context.Background(), cfg)
	require.NoError(t, err)
	assert.IsType(t, &MemoryKV{}, kv)

	cfg.StoreBackend = "sqlite"
	cfg.SQLitePath = filepath.Join(t.TempDir(), "open.db")
	kv, err = Open(context.Background(), cfg)
	require.NoError(t, err)
	assert.IsType(t, &SQLiteKV{}, kv)
	kv.Close()

	cfg.StoreBackend = "etcd"
	_, err = Open(context.Background(), cfg)
	assert.Error(t, err)
}

func TestObjectName(t *testing.T) {
	at := time.Unix(1700000000, 0)
	assert.Equal(t, "cvs/jane_at_example_com/1700000000.pdf", ObjectName("jane@example.com", ".pdf", at))
}

func TestContentType(t *testing.T) {
	assert.Equal(t, "application/pdf", ContentType(".PDF"))
	assert.Equal(t, "text/plain", ContentType(".txt"))
	assert.Equal(t, "application/octet-stream", ContentType(".docx"))
}
