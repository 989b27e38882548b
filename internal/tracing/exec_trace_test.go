package tracing

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnabled(t *testing.T) {
	t.Setenv(envEnable, "")
	assert.False(t, Enabled("fetch"))

	t.Setenv(envEnable, "1")
	assert.True(t, Enabled("fetch"))

	t.Setenv(envScope, "watch")
	assert.False(t, Enabled("fetch"))
	assert.True(t, Enabled("watch"))
}

func TestStartWritesTrace(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(envEnable, "1")
	t.Setenv(envDir, dir)

	stop := Start("fetch", "run1")
	assert.True(t, Active())

	second := Start("fetch", "run2")
	second()
	assert.True(t, Active(), "a second trace does not stop the first")

	stop()
	stop()
	assert.False(t, Active())

	files, err := filepath.Glob(filepath.Join(dir, "fetch-run1-*.out"))
	require.NoError(t, err)
	require.Len(t, files, 1)

	info, err := os.Stat(files[0])
	require.NoError(t, err)
	assert.Positive(t, info.Size())
}

func TestStartDisabledIsNoop(t *testing.T) {
	t.Setenv(envEnable, "0")
	stop := Start("fetch", "x")
	assert.False(t, Active())
	stop()
}
