package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoggerLevels(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&buf)

	l.Info("starting %s", "extraction")
	l.Warning("attempt %d failed", 2)
	l.Error("run aborted")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], "INFO - starting extraction")
	assert.Contains(t, lines[1], "WARNING - attempt 2 failed")
	assert.Contains(t, lines[2], "ERROR - run aborted")
	assert.NoError(t, l.Close())
}

func TestLoggerFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "current.log")
	l := New(Options{File: path, MaxSizeMB: 1, MaxBackups: 7, MaxAgeDays: 1})

	l.Info("written to file")
	require.NoError(t, l.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "INFO - written to file")
}
