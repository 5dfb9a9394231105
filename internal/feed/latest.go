// Package feed delivers hand observations from the camera and detector to the
// frame loop through single-slot "latest value" cells.
package feed

import (
	"sync"
	"sync/atomic"

	"gocv.io/x/gocv"
)

// Latest holds the most recent value published by a single writer. Readers
// never block and always see a complete value.
type Latest[T any] struct {
	p   atomic.Pointer[T]
	seq atomic.Uint64
}

// Store replaces the current value.
func (l *Latest[T]) Store(v T) {
	l.p.Store(&v)
	l.seq.Add(1)
}

// Load returns the current value and whether one was ever stored.
func (l *Latest[T]) Load() (T, bool) {
	p := l.p.Load()
	if p == nil {
		var zero T
		return zero, false
	}
	return *p, true
}

// Seq counts stores; readers use it to tell whether a value is new.
func (l *Latest[T]) Seq() uint64 {
	return l.seq.Load()
}

// FrameCell holds the most recent camera frame. It owns the Mat it holds.
type FrameCell struct {
	mu  sync.Mutex
	mat gocv.Mat
	ok  bool
}

// Store takes ownership of m and closes the frame it replaces.
func (c *FrameCell) Store(m gocv.Mat) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.ok {
		c.mat.Close()
	}
	c.mat = m
	c.ok = true
}

// Clone returns a copy of the current frame that the caller must Close.
func (c *FrameCell) Clone() (gocv.Mat, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.ok {
		return gocv.Mat{}, false
	}
	return c.mat.Clone(), true
}

// Close releases the held frame.
func (c *FrameCell) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.ok {
		c.mat.Close()
		c.ok = false
	}
}
