// Package telemetry tracks per-phase timings of the capture and inference
// loops and periodically logs a summary.
package telemetry

import (
	"sync"
	"time"
)

// Snapshot is a consistent copy of Metrics.
//
// Last* fields hold the most recent sample of each phase. Mean* fields
// average every sample recorded since the report window last reset; they
// are zero when the window holds no sample of that phase.
type Snapshot struct {
	LastCapture   time.Duration
	LastInference time.Duration
	LastDisplay   time.Duration
	LastCycle     time.Duration
	LastRate      float64 // inferences per second implied by LastCycle

	Inferences uint64 // cumulative, never reset

	MeanCapture   time.Duration
	MeanInference time.Duration
	MeanDisplay   time.Duration
	MeanCycle     time.Duration

	WindowCaptures   uint64
	WindowInferences uint64
}

// Metrics is written by both loops and read by the reporter.
type Metrics struct {
	mu sync.Mutex

	last       Snapshot
	inferences uint64

	captures                                 uint64
	cycles                                   uint64
	sumCapture, sumInfer, sumDisplay, sumCyc time.Duration
}

func NewMetrics() *Metrics {
	return &Metrics{}
}

// RecordCapture stores the time taken to fill one window.
func (m *Metrics) RecordCapture(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.last.LastCapture = d
	m.captures++
	m.sumCapture += d
}

// RecordCycle stores one completed inference cycle and bumps the count.
func (m *Metrics) RecordCycle(inference, display, total time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.last.LastInference = inference
	m.last.LastDisplay = display
	m.last.LastCycle = total
	m.last.LastRate = Rate(total)
	m.inferences++

	m.cycles++
	m.sumInfer += inference
	m.sumDisplay += display
	m.sumCyc += total
}

func (m *Metrics) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := m.last
	s.Inferences = m.inferences
	s.WindowCaptures = m.captures
	s.WindowInferences = m.cycles
	if m.captures > 0 {
		s.MeanCapture = m.sumCapture / time.Duration(m.captures)
	}
	if m.cycles > 0 {
		n := time.Duration(m.cycles)
		s.MeanInference = m.sumInfer / n
		s.MeanDisplay = m.sumDisplay / n
		s.MeanCycle = m.sumCyc / n
	}
	return s
}

// ResetWindow clears the averaging window. Last values and the cumulative
// inference count are kept.
func (m *Metrics) ResetWindow() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.captures, m.cycles = 0, 0
	m.sumCapture, m.sumInfer, m.sumDisplay, m.sumCyc = 0, 0, 0, 0
}

// Rate converts a cycle duration into cycles per second, treating anything
// below one microsecond as one microsecond.
func Rate(cycle time.Duration) float64 {
	us := cycle.Microseconds()
	if us < 1 {
		us = 1
	}
	return 1e6 / float64(us)
}
