// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core

import (
	"time"
)

// NewTime creates a new time service
func NewTime(cfg TimeConfiguration) *Time {
	t := &Time{
		fps: cfg.FramesPerSecond,
		now: time.Now,
	}
	if cfg.FramesPerSecond > 0 {
		t.fpsTicker = time.NewTicker(time.Second / time.Duration(cfg.FramesPerSecond))
	}
	t.last = t.now()
	return t
}

// Time paces frames and measures how long they take.
type Time struct {
	fps       int
	fpsTicker *time.Ticker

	now       func() time.Time
	last      time.Time
	frameTime time.Duration
	frames    int64
}

// Fps gets the set frames per second
func (t *Time) Fps() int {
	return t.fps
}

// FpsTicker gets the initialized fps ticker,
// nil when the frame rate is not capped.
func (t *Time) FpsTicker() *time.Ticker {
	return t.fpsTicker
}

// Tick ends the current frame. With a frame rate cap
// it blocks until the next frame slot is due.
func (t *Time) Tick() {
	if t.fpsTicker != nil {
		<-t.fpsTicker.C
	}
	now := t.now()
	t.frameTime = now.Sub(t.last)
	t.last = now
	t.frames++
}

// FrameTime is the duration of the last finished frame.
func (t *Time) FrameTime() time.Duration {
	return t.frameTime
}

// Frames is the number of frames ticked so far.
func (t *Time) Frames() int64 {
	return t.frames
}

// Stop releases the ticker.
func (t *Time) Stop() {
	if t.fpsTicker != nil {
		t.fpsTicker.Stop()
	}
}
