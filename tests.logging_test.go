package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestCreateLogFilePath(t *testing.T) {
	at := time.Date(2023, 7, 2, 9, 5, 3, 42, time.UTC)
	assert.Equal(t, filepath.Join("logs", "library-admin.20230702.090503.000000042.dev.log"), CreateLogFilePath("logs", false, at))
	assert.Equal(t, filepath.Join("logs", "library-admin.20230702.090503.000000042.prod.log"), CreateLogFilePath("logs", true, at))
}

// TestRSyncWriteRotation ensures a new file is opened once the max size is reached.
func TestRSyncWriteRotation(t *testing.T) {
	dir := t.TempDir()
	clock := NewMockClocker()
	w := NewRSyncWriter(&Config{LogFolder: dir, LogMaxSize: 1}, clock)
	defer w.Close()

	chunk := bytes.Repeat([]byte("x"), 600*1024)
	n, err := w.Write(chunk)
	require.NoError(t, err)
	assert.Equal(t, len(chunk), n)

	clock.Advance(time.Second)
	_, err = w.Write(chunk)
	require.NoError(t, err)
	require.NoError(t, w.Sync())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 2)

	_, err = w.Write(bytes.Repeat([]byte("x"), 2*1024*1024))
	assert.Error(t, err)

	assert.NoError(t, w.Close())
	assert.NoError(t, w.Close())
	assert.NoError(t, w.Sync())
}

// TestSetupLogging ensures production logs are written to the file with the build values.
func TestSetupLogging(t *testing.T) {
	dir := t.TempDir()
	clock := NewMockClocker()
	config := DefaultConfig()
	config.IsProduction = true
	config.LogFolder = dir
	config.GitCommit = "abc123"
	w := NewRSyncWriter(config, clock)
	defer w.Close()

	logger, flush := SetupLogging(config, w, clock)
	logger.Info("admin started", zap.String("session.id", "s:1"))
	require.NoError(t, flush())

	data, err := os.ReadFile(CreateLogFilePath(dir, true, clock.Now()))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"admin started"`)
	assert.Contains(t, string(data), `"app.commit":"abc123"`)
	assert.Contains(t, string(data), `"ts":"2023-07-02T00:00:00.000Z"`)
}
