package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gbvolkov/shipment-data-maintenance-bot/pkg/config"
)

func TestNewSelectsBackend(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	l, err := New(ctx, config.StorageConfig{Backend: config.BackendSQLite, SQLitePath: filepath.Join(dir, "s.db")}, nil)
	require.NoError(t, err)
	assert.IsType(t, &SQLLedger{}, l)
	_, isReader := l.(Reader)
	assert.True(t, isReader)
	require.NoError(t, l.(Closer).Close())

	l, err = New(ctx, config.StorageConfig{Backend: config.BackendFile, FilePath: filepath.Join(dir, "s.jsonl")}, nil)
	require.NoError(t, err)
	assert.IsType(t, &FileLedger{}, l)

	_, err = New(ctx, config.StorageConfig{Backend: "sheets"}, nil)
	require.Error(t, err)
}
