package iocache

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/huangsam/sprinthealth/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// resetStores restores the package globals after a test touched them.
func resetStores(t *testing.T) {
	t.Helper()
	reset := func() {
		Manager = &StoreManagerImpl{}
		initOnce = sync.Once{}
		closeOnce = sync.Once{}
	}
	reset()
	t.Cleanup(reset)
}

func TestInitStores(t *testing.T) {
	tests := []struct {
		name           string
		cacheBackend   schema.DatabaseBackend
		historyBackend schema.DatabaseBackend
		wantCache      any
		wantHistory    any
	}{
		{"memory both", schema.MemoryBackend, schema.MemoryBackend, &MemoryCacheStore{}, &MemoryHistoryStore{}},
		{"cache only", schema.MemoryBackend, "", &MemoryCacheStore{}, nil},
		{"none both", schema.NoneBackend, schema.NoneBackend, &SQLReportStore{}, &HistoryStoreImpl{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resetStores(t)
			require.NoError(t, InitStores(tt.cacheBackend, "", tt.historyBackend, ""))
			defer CloseStores()

			if tt.wantCache == nil {
				assert.Nil(t, Manager.GetCacheStore())
			} else {
				assert.IsType(t, tt.wantCache, Manager.GetCacheStore())
			}
			if tt.wantHistory == nil {
				assert.Nil(t, Manager.GetHistoryStore())
			} else {
				assert.IsType(t, tt.wantHistory, Manager.GetHistoryStore())
			}
		})
	}
}

func TestInitStoresOnce(t *testing.T) {
	resetStores(t)
	require.NoError(t, InitStores(schema.MemoryBackend, "", schema.MemoryBackend, ""))
	first := Manager.GetCacheStore()

	require.NoError(t, InitStores(schema.NoneBackend, "", schema.NoneBackend, ""))
	assert.Same(t, first, Manager.GetCacheStore())

	CloseStores()
	CloseStores()
}

func TestInitStoresErrors(t *testing.T) {
	resetStores(t)
	err := InitStores(schema.DatabaseBackend("redis"), "", "", "")
	assert.ErrorContains(t, err, "failed to initialize report cache")
	assert.Nil(t, Manager.GetCacheStore())

	resetStores(t)
	err = InitStores(schema.MemoryBackend, "", schema.DatabaseBackend("mongo"), "")
	assert.ErrorContains(t, err, "failed to initialize report history")
	assert.Nil(t, Manager.GetCacheStore())
}

func TestClearCacheSQLite(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "cache.db")
	store, err := NewCacheStore(reportCacheTable, schema.SQLiteBackend, dbPath)
	require.NoError(t, err)
	require.NoError(t, store.Set("k", []byte("v"), 1, 1))
	require.NoError(t, store.Close())

	require.NoError(t, ClearCache(schema.SQLiteBackend, dbPath, ""))
	_, err = os.Stat(dbPath)
	assert.True(t, os.IsNotExist(err))

	// Clearing twice is fine
	assert.NoError(t, ClearCache(schema.SQLiteBackend, dbPath, ""))
}

func TestClearBackends(t *testing.T) {
	tests := []struct {
		name    string
		backend schema.DatabaseBackend
		path    string
		wantErr bool
	}{
		{"memory", schema.MemoryBackend, "", false},
		{"none", schema.NoneBackend, "", false},
		{"sqlite without path", schema.SQLiteBackend, "", true},
		{"unknown", schema.DatabaseBackend("redis"), "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cacheErr := ClearCache(tt.backend, tt.path, "")
			historyErr := ClearHistory(tt.backend, tt.path, "")
			if tt.wantErr {
				assert.Error(t, cacheErr)
				assert.Error(t, historyErr)
			} else {
				assert.NoError(t, cacheErr)
				assert.NoError(t, historyErr)
			}
		})
	}
}
