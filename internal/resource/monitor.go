// Package resource gates recording operations on disk and memory
// headroom. Memory pressure triggers a caller-supplied recovery action
// (history shrink) before the hard failure.
package resource

import (
	"fmt"

	"github.com/shirou/gopsutil/v4/disk"
	"github.com/shirou/gopsutil/v4/mem"

	"steve/internal/audit"
)

type Kind string

const (
	KindDisk   Kind = "disk"
	KindMemory Kind = "memory"
)

type Error struct {
	Kind   Kind
	Detail string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s exhausted: %s", e.Kind, e.Detail)
}

type Monitor struct {
	minFreeDiskMB    uint64
	maxMemoryPercent float64
	audit            *audit.Logger

	freeDiskMB func() (uint64, error)
	memPercent func() (float64, error)
}

func NewMonitor(minFreeDiskMB uint64, maxMemoryPercent float64, a *audit.Logger) *Monitor {
	return &Monitor{
		minFreeDiskMB:    minFreeDiskMB,
		maxMemoryPercent: maxMemoryPercent,
		audit:            a,
		freeDiskMB: func() (uint64, error) {
			u, err := disk.Usage(".")
			if err != nil {
				return 0, err
			}
			return u.Free / (1024 * 1024), nil
		},
		memPercent: func() (float64, error) {
			v, err := mem.VirtualMemory()
			if err != nil {
				return 0, err
			}
			return v.UsedPercent, nil
		},
	}
}

// Check is the synchronous pre-condition evaluated before each recording.
// On memory pressure it runs shrink (may be nil), re-checks, and only then
// fails hard. Probe errors are treated as exhaustion: recording with an
// unknown resource state is not worth the risk.
func (m *Monitor) Check(shrink func()) error {
	free, err := m.freeDiskMB()
	if err != nil {
		return &Error{Kind: KindDisk, Detail: err.Error()}
	}
	if free < m.minFreeDiskMB {
		return &Error{Kind: KindDisk, Detail: fmt.Sprintf("%dMB free, %dMB required", free, m.minFreeDiskMB)}
	}

	used, err := m.memPercent()
	if err != nil {
		return &Error{Kind: KindMemory, Detail: err.Error()}
	}
	if used > m.maxMemoryPercent {
		m.audit.Security("high memory usage detected", "memory_percent", used)
		if shrink != nil {
			shrink()
		}
		used, err = m.memPercent()
		if err != nil {
			return &Error{Kind: KindMemory, Detail: err.Error()}
		}
		if used > m.maxMemoryPercent {
			return &Error{Kind: KindMemory, Detail: fmt.Sprintf("%.1f%% used after recovery", used)}
		}
	}
	return nil
}
