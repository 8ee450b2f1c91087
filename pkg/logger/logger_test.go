package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_Level(t *testing.T) {
	assert.Equal(t, logrus.DebugLevel, New("debug", FileOptions{}).GetLevel())
	assert.Equal(t, logrus.InfoLevel, New("chatty", FileOptions{}).GetLevel())
}

func TestNew_WritesLogFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fastclub.log")

	l := New("info", FileOptions{Path: path, MaxSizeMB: 1, MaxBackups: 1, MaxAgeDays: 1})
	l.WithField("club_id", 7).Info("Annual fee generation finished")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Annual fee generation finished")
	assert.Contains(t, string(data), "club_id=7")
}
