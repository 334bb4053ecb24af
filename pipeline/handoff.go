// Package pipeline connects audio capture to the inference and render cycle.
//
// Capture fills fixed-length windows and hands them over through a Handoff;
// Inference claims one window at a time, classifies it, renders the verdict
// and returns the window to the pool. A window belongs to exactly one side
// at any moment, so neither loop ever sees a window the other is touching.
package pipeline

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// poolSize covers one window filling, one ready and one being classified.
const poolSize = 3

// Window is one fixed-length block of 16-bit samples plus capture metadata.
type Window struct {
	Samples         []int16
	Seq             uint64
	TraceID         uuid.UUID
	CapturedAt      time.Time
	CaptureDuration time.Duration
}

// Policy decides what Publish does when the previous window is still unclaimed.
type Policy int

const (
	// Block waits for the consumer to claim the ready window; nothing is dropped.
	Block Policy = iota
	// Latest replaces the unclaimed window and counts it as dropped.
	Latest
)

// ParsePolicy maps "block" and "latest" onto a Policy.
func ParsePolicy(s string) (Policy, error) {
	switch s {
	case "block", "":
		return Block, nil
	case "latest":
		return Latest, nil
	}
	return Block, fmt.Errorf("unknown handoff policy %q", s)
}

func (p Policy) String() string {
	if p == Latest {
		return "latest"
	}
	return "block"
}

// HandoffStats is a snapshot of Handoff counters.
type HandoffStats struct {
	Published uint64
	Claimed   uint64
	Dropped   uint64
}

// Handoff passes filled windows from a single producer to a single consumer
// through one ready slot. Windows come from a fixed pool and are reused, so
// the steady state allocates nothing.
type Handoff struct {
	policy Policy
	length int
	free   chan *Window
	ready  chan *Window

	published atomic.Uint64
	claimed   atomic.Uint64
	dropped   atomic.Uint64
}

// NewHandoff allocates the window pool, each window holding length samples.
func NewHandoff(length int, policy Policy) *Handoff {
	h := &Handoff{
		policy: policy,
		length: length,
		free:   make(chan *Window, poolSize),
		ready:  make(chan *Window, 1),
	}
	for i := 0; i < poolSize; i++ {
		h.free <- &Window{Samples: make([]int16, length)}
	}
	return h
}

// WindowLength is the number of samples in every window.
func (h *Handoff) WindowLength() int { return h.length }

func (h *Handoff) Policy() Policy { return h.policy }

// Acquire gives the producer a window to fill. It blocks only if the
// producer already holds every window it is allowed to.
func (h *Handoff) Acquire(ctx context.Context) (*Window, error) {
	select {
	case w := <-h.free:
		return w, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Publish makes a completely filled window ready. The producer must not touch
// w afterwards.
func (h *Handoff) Publish(ctx context.Context, w *Window) error {
	if h.policy == Block {
		select {
		case h.ready <- w:
			h.published.Add(1)
			return nil
		case <-ctx.Done():
			h.free <- w
			return ctx.Err()
		}
	}

	for {
		select {
		case h.ready <- w:
			h.published.Add(1)
			return nil
		default:
		}
		// Slot taken: reclaim the stale window unless the consumer beats us to it.
		select {
		case stale := <-h.ready:
			h.dropped.Add(1)
			h.free <- stale
		default:
		}
	}
}

// TryClaim takes the ready window without waiting.
func (h *Handoff) TryClaim() (*Window, bool) {
	select {
	case w := <-h.ready:
		h.claimed.Add(1)
		return w, true
	default:
		return nil, false
	}
}

// Claim waits for a ready window.
func (h *Handoff) Claim(ctx context.Context) (*Window, error) {
	select {
	case w := <-h.ready:
		h.claimed.Add(1)
		return w, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Release returns a claimed window to the pool.
func (h *Handoff) Release(w *Window) {
	select {
	case h.free <- w:
	default:
		panic("pipeline: release of a window the pool already holds")
	}
}

func (h *Handoff) Stats() HandoffStats {
	return HandoffStats{
		Published: h.published.Load(),
		Claimed:   h.claimed.Load(),
		Dropped:   h.dropped.Load(),
	}
}
