package resource

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestMonitor(freeMB uint64, memSeq ...float64) *Monitor {
	m := NewMonitor(100, 85, nil)
	m.freeDiskMB = func() (uint64, error) { return freeMB, nil }
	i := 0
	m.memPercent = func() (float64, error) {
		v := memSeq[min(i, len(memSeq)-1)]
		i++
		return v, nil
	}
	return m
}

func TestCheck_OK(t *testing.T) {
	m := newTestMonitor(500, 40)
	assert.NoError(t, m.Check(nil))
}

func TestCheck_DiskExhausted(t *testing.T) {
	m := newTestMonitor(50, 40)

	err := m.Check(nil)
	var re *Error
	require.ErrorAs(t, err, &re)
	assert.Equal(t, KindDisk, re.Kind)
}

func TestCheck_MemoryRecoveredByShrink(t *testing.T) {
	// over threshold first, under after the shrink hook ran
	m := newTestMonitor(500, 95, 60)

	shrunk := false
	err := m.Check(func() { shrunk = true })

	assert.NoError(t, err)
	assert.True(t, shrunk)
}

func TestCheck_MemoryStillOverAfterShrink(t *testing.T) {
	m := newTestMonitor(500, 95, 92)

	err := m.Check(func() {})
	var re *Error
	require.ErrorAs(t, err, &re)
	assert.Equal(t, KindMemory, re.Kind)
}
