package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/liliang-cn/pdfchat/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewRejectsUnknownLevel(t *testing.T) {
	_, err := New(config.LogConfig{Level: "chatty"})
	assert.Error(t, err)
}

func TestNewWritesLogFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pdfchat.log")

	l, err := New(config.LogConfig{Level: "debug", File: path, Production: true})
	require.NoError(t, err)
	l.Info("session established", zap.String("session_id", "abc123"))
	_ = l.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"session_id":"abc123"`)
	assert.Contains(t, string(data), `"timestamp"`)
}

func TestNewFileOnlyWithoutFileDiscards(t *testing.T) {
	l, err := NewFileOnly(config.LogConfig{})
	require.NoError(t, err)
	assert.NotNil(t, l)
	l.Info("dropped")
}
