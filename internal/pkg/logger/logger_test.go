package logger

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/your-org/pouchprint-backend/internal/config"
)

func TestNew_LevelAndFormat(t *testing.T) {
	log := New(config.LoggingConfig{Level: "warn", Format: "json"})
	assert.Equal(t, logrus.WarnLevel, log.GetLevel())
	assert.IsType(t, &logrus.JSONFormatter{}, log.Formatter)

	log = New(config.LoggingConfig{Level: "bogus", Format: "text"})
	assert.Equal(t, logrus.InfoLevel, log.GetLevel())
	assert.IsType(t, &logrus.TextFormatter{}, log.Formatter)
}

func TestWriter_ConsoleOnly(t *testing.T) {
	var buf bytes.Buffer
	w := Writer(config.LoggingConfig{}, &buf)
	assert.Same(t, &buf, w)
}

func TestWriter_RotatingFile(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "nested", "app.log")

	var buf bytes.Buffer
	w := Writer(config.LoggingConfig{File: file}, &buf)

	_, err := w.Write([]byte("hello\n"))
	require.NoError(t, err)

	assert.Equal(t, "hello\n", buf.String())
	data, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.Equal(t, "hello\n", string(data))
}
