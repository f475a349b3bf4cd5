// Package metrics provides performance instrumentation for readmit.
//
// Two layers share the same call sites:
//   - in-process timings for hot paths (fetch, decode, render, restyle,
//     export), logged by the TUI on quit and printed by
//     `readmit export --timings`
//   - Prometheus collectors for fetch outcomes, served with Handler when
//     the dashboard runs with --metrics-addr
//
// Timings are collected with atomic operations. Collection is on by
// default and can be disabled with READMIT_METRICS=0.
package metrics

import (
	"fmt"
	"os"
	"sync/atomic"
	"time"
)

var enabled = os.Getenv("READMIT_METRICS") != "0"

// TimingMetric accumulates durations for one named operation.
type TimingMetric struct {
	name  string
	count atomic.Int64
	total atomic.Int64
	max   atomic.Int64
}

func newTimingMetric(name string) *TimingMetric {
	return &TimingMetric{name: name}
}

// Record adds one measurement.
func (m *TimingMetric) Record(d time.Duration) {
	if !enabled {
		return
	}
	ns := d.Nanoseconds()
	m.count.Add(1)
	m.total.Add(ns)
	for {
		old := m.max.Load()
		if ns <= old || m.max.CompareAndSwap(old, ns) {
			return
		}
	}
}

// Count returns the number of measurements.
func (m *TimingMetric) Count() int64 { return m.count.Load() }

// TimingStats is a snapshot of one TimingMetric.
type TimingStats struct {
	Name  string
	Count int64
	Avg   time.Duration
	Max   time.Duration
}

func (s TimingStats) String() string {
	return fmt.Sprintf("%-7s n=%-5d avg=%-10v max=%v", s.Name, s.Count, s.Avg, s.Max)
}

// Stats returns a snapshot of m.
func (m *TimingMetric) Stats() TimingStats {
	s := TimingStats{Name: m.name, Count: m.count.Load(), Max: time.Duration(m.max.Load())}
	if s.Count > 0 {
		s.Avg = time.Duration(m.total.Load() / s.Count)
	}
	return s
}

// Timer returns a function that records the time elapsed since Timer was
// called.
//
//	defer metrics.Timer(metrics.Render)()
func Timer(m *TimingMetric) func() {
	return TimerWithCallback(m, nil)
}

// TimerWithCallback is Timer, also passing the duration to cb.
func TimerWithCallback(m *TimingMetric, cb func(time.Duration)) func() {
	if !enabled || m == nil {
		return func() {}
	}
	start := time.Now()
	return func() {
		d := time.Since(start)
		m.Record(d)
		if cb != nil {
			cb(d)
		}
	}
}

// Timings for the dashboard's hot paths.
var (
	Fetch   = newTimingMetric("fetch")
	Decode  = newTimingMetric("decode")
	Render  = newTimingMetric("render")
	Restyle = newTimingMetric("restyle")
	Export  = newTimingMetric("export")
)

// AllTimingStats returns a snapshot of every timing that has data.
func AllTimingStats() []TimingStats {
	var stats []TimingStats
	for _, m := range []*TimingMetric{Fetch, Decode, Render, Restyle, Export} {
		if m.Count() > 0 {
			stats = append(stats, m.Stats())
		}
	}
	return stats
}
