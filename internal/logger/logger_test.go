package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitAndWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.log")
	require.NoError(t, Init(path))
	defer Close()

	Infof("hello %s", "world")
	Warnf("careful with %d", 42)
	Errorf("broken")
	Debugf("hidden")

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	out := string(b)
	assert.Contains(t, out, "[INFO] hello world")
	assert.Contains(t, out, "[WARN] careful with 42")
	assert.Contains(t, out, "[ERROR] broken")
	assert.NotContains(t, out, "[DEBUG]", "debug lines are dropped unless enabled")

	// Init is idempotent once configured.
	require.NoError(t, Init(filepath.Join(t.TempDir(), "other.log")))
}
