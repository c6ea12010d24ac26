package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewConsole(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Options{Level: "info", Console: &buf})
	require.NoError(t, err)

	logger.Debug("hidden")
	logger.Info("Data stored", zap.String("key", "booksdata:title:info"))
	require.NoError(t, logger.Sync())

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "Data stored")
	assert.Contains(t, out, "booksdata:title:info")
}

func TestNewInvalidLevel(t *testing.T) {
	_, err := New(Options{Level: "loud"})
	assert.Error(t, err)
}

func TestNewWithFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "bookcache.log")

	logger, err := New(Options{Level: "debug", File: path, Console: &bytes.Buffer{}})
	require.NoError(t, err)

	logger.Debug("written to file")
	_ = logger.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "written to file")
}

func TestWithRunID(t *testing.T) {
	var buf bytes.Buffer
	base, err := New(Options{Level: "info", Console: &buf})
	require.NoError(t, err)

	logger, id := WithRunID(base)
	_, err = uuid.Parse(id)
	require.NoError(t, err)

	logger.Info("run started")
	assert.Contains(t, buf.String(), id)
}
