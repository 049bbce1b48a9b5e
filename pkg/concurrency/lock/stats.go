package lock

import (
	"sync/atomic"
	"time"
)

type stats struct {
	read       atomic.Uint64
	write      atomic.Uint64
	upgradable atomic.Uint64
	upgrades   atomic.Uint64
	timeouts   atomic.Uint64
	violations atomic.Uint64
	wait       atomic.Int64
}

// Stats are cumulative counters for one lock.
type Stats struct {
	ReadAcquired       uint64
	WriteAcquired      uint64
	UpgradableAcquired uint64
	Upgrades           uint64
	Timeouts           uint64
	Violations         uint64
	// WaitTime is the total time spent blocked in acquisitions and upgrades,
	// including waits that timed out.
	WaitTime time.Duration
}

// Acquired is the number of successful acquisitions across all modes.
func (s Stats) Acquired() uint64 {
	return s.ReadAcquired + s.WriteAcquired + s.UpgradableAcquired
}

func (l *Lock) Stats() Stats {
	return Stats{
		ReadAcquired:       l.stats.read.Load(),
		WriteAcquired:      l.stats.write.Load(),
		UpgradableAcquired: l.stats.upgradable.Load(),
		Upgrades:           l.stats.upgrades.Load(),
		Timeouts:           l.stats.timeouts.Load(),
		Violations:         l.stats.violations.Load(),
		WaitTime:           time.Duration(l.stats.wait.Load()),
	}
}
