package app

import (
	"sync/atomic"
	"time"
)

// Metrics tracks key handling for a session.
type Metrics struct {
	// Typed keys
	keyCount   atomic.Uint64
	keyTotalNs atomic.Int64
	keyMinNs   atomic.Int64
	keyMaxNs   atomic.Int64
	lastKeyNs  atomic.Int64

	// Keys fed back by macros and repeats
	replayedKeys atomic.Uint64

	// Sequences dropped after a contract violation or failed replay
	aborted atomic.Uint64

	// Panel round-trips
	panelsSubmitted atomic.Uint64
	panelsCancelled atomic.Uint64

	startTime atomic.Int64
}

// NewMetrics creates a new metrics tracker.
func NewMetrics() *Metrics {
	m := &Metrics{}
	m.Reset()
	return m
}

// RecordKey records the time spent on one typed key, replays included.
func (m *Metrics) RecordKey(duration time.Duration) {
	ns := duration.Nanoseconds()

	m.keyCount.Add(1)
	m.keyTotalNs.Add(ns)
	m.lastKeyNs.Store(ns)

	for {
		old := m.keyMinNs.Load()
		if ns >= old || m.keyMinNs.CompareAndSwap(old, ns) {
			break
		}
	}
	for {
		old := m.keyMaxNs.Load()
		if ns <= old || m.keyMaxNs.CompareAndSwap(old, ns) {
			break
		}
	}
}

// RecordReplayed records keys fed back by a macro or a repeat.
func (m *Metrics) RecordReplayed(n int) {
	if n > 0 {
		m.replayedKeys.Add(uint64(n))
	}
}

// RecordAbort records a dropped sequence.
func (m *Metrics) RecordAbort() {
	m.aborted.Add(1)
}

// RecordPanel records a closed input panel.
func (m *Metrics) RecordPanel(submitted bool) {
	if submitted {
		m.panelsSubmitted.Add(1)
	} else {
		m.panelsCancelled.Add(1)
	}
}

// Snapshot returns a snapshot of current metrics.
func (m *Metrics) Snapshot() MetricsSnapshot {
	count := m.keyCount.Load()

	var avg int64
	if count > 0 {
		avg = m.keyTotalNs.Load() / int64(count)
	}
	minNs := m.keyMinNs.Load()
	if minNs == 1<<63-1 {
		minNs = 0
	}

	return MetricsSnapshot{
		Uptime:          time.Since(time.Unix(0, m.startTime.Load())),
		KeyCount:        count,
		AvgKeyNs:        avg,
		MinKeyNs:        minNs,
		MaxKeyNs:        m.keyMaxNs.Load(),
		LastKeyNs:       m.lastKeyNs.Load(),
		ReplayedKeys:    m.replayedKeys.Load(),
		Aborted:         m.aborted.Load(),
		PanelsSubmitted: m.panelsSubmitted.Load(),
		PanelsCancelled: m.panelsCancelled.Load(),
	}
}

// Reset clears all metrics.
func (m *Metrics) Reset() {
	m.keyCount.Store(0)
	m.keyTotalNs.Store(0)
	m.keyMinNs.Store(1<<63 - 1)
	m.keyMaxNs.Store(0)
	m.lastKeyNs.Store(0)
	m.replayedKeys.Store(0)
	m.aborted.Store(0)
	m.panelsSubmitted.Store(0)
	m.panelsCancelled.Store(0)
	m.startTime.Store(time.Now().UnixNano())
}

// MetricsSnapshot is a point-in-time view of metrics.
type MetricsSnapshot struct {
	Uptime          time.Duration
	KeyCount        uint64
	AvgKeyNs        int64
	MinKeyNs        int64
	MaxKeyNs        int64
	LastKeyNs       int64
	ReplayedKeys    uint64
	Aborted         uint64
	PanelsSubmitted uint64
	PanelsCancelled uint64
}

// AbortRate returns the percentage of typed keys that dropped a sequence.
func (s MetricsSnapshot) AbortRate() float64 {
	if s.KeyCount == 0 {
		return 0
	}
	return float64(s.Aborted) / float64(s.KeyCount) * 100
}

// Timer provides a simple way to measure elapsed time.
type Timer struct {
	start time.Time
}

// StartTimer creates a new timer.
func StartTimer() *Timer {
	return &Timer{start: time.Now()}
}

// Elapsed returns the elapsed time since the timer started.
func (t *Timer) Elapsed() time.Duration {
	return time.Since(t.start)
}

// Stop returns the elapsed time and resets the timer.
func (t *Timer) Stop() time.Duration {
	elapsed := t.Elapsed()
	t.start = time.Now()
	return elapsed
}

// Metrics returns the key handling metrics of the session.
func (a *Application) Metrics() *Metrics {
	return a.metrics
}
