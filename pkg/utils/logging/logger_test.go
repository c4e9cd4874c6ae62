package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitLogger_ConsoleOnly(t *testing.T) {
	logger, err := InitLogger("test", "", false)
	require.NoError(t, err)
	require.NotNil(t, logger)
}

func TestInitLogger_WritesJSONFile(t *testing.T) {
	logDir := filepath.Join(t.TempDir(), "logs")

	logger, err := InitLogger("test", logDir, false)
	require.NoError(t, err)

	logger.Debug("debug reaches the file")
	_ = logger.Sync()

	entries, err := os.ReadDir(logDir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.True(t, strings.HasPrefix(entries[0].Name(), "test_"))

	data, err := os.ReadFile(filepath.Join(logDir, entries[0].Name()))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"debug reaches the file"`)
	assert.Contains(t, string(data), `"timestamp"`)
}
