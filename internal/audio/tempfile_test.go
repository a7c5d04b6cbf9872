package audio

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReplaceWAV(t *testing.T) {
	ts := NewTempStore(nil)
	t.Cleanup(ts.Cleanup)

	pcm := make([]float32, 1600)
	for i := range pcm {
		pcm[i] = 0.5
	}

	path, err := ts.ReplaceWAV("steve_test_", pcm, 16000)
	require.NoError(t, err)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
	assert.Greater(t, info.Size(), int64(44), "wav header plus samples")
}

func TestReplaceWAV_ScrubsPrevious(t *testing.T) {
	ts := NewTempStore(nil)
	t.Cleanup(ts.Cleanup)

	pcm := []float32{0.1, 0.2, 0.3}

	first, err := ts.ReplaceWAV("steve_test_", pcm, 16000)
	require.NoError(t, err)
	second, err := ts.ReplaceWAV("steve_test_", pcm, 16000)
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	_, err = os.Stat(first)
	assert.True(t, os.IsNotExist(err), "previous spill removed")
	_, err = os.Stat(second)
	assert.NoError(t, err)
}

func TestSecureDelete(t *testing.T) {
	ts := NewTempStore(nil)

	path, err := ts.ReplaceWAV("steve_test_", []float32{0.5, -0.5}, 16000)
	require.NoError(t, err)

	require.NoError(t, ts.SecureDelete(path))
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))

	// deleting again is a no-op
	assert.NoError(t, ts.SecureDelete(path))
}

func TestCleanup_RemovesAllTracked(t *testing.T) {
	ts := NewTempStore(nil)

	a, err := ts.ReplaceWAV("steve_wake_", []float32{0.1}, 16000)
	require.NoError(t, err)
	b, err := ts.ReplaceWAV("steve_cmd_", []float32{0.1}, 16000)
	require.NoError(t, err)

	ts.Cleanup()

	for _, p := range []string{a, b} {
		_, err := os.Stat(p)
		assert.True(t, os.IsNotExist(err))
	}
}

func TestFrameRMS(t *testing.T) {
	assert.InDelta(t, 0, frameRMS([]float32{0, 0, 0, 0}), 1e-9)
	assert.InDelta(t, 0.5, frameRMS([]float32{0.5, -0.5, 0.5, -0.5}), 1e-9)
}
