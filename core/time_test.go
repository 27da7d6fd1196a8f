// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core

import (
	"testing"
	"time"
)

func TestTimeUncapped(t *testing.T) {
	clock := NewTime(TimeConfiguration{FramesPerSecond: 0})
	defer clock.Stop()

	if clock.FpsTicker() != nil {
		t.Fatal("uncapped clock must not tick")
	}

	start := time.Unix(100, 0)
	current := start
	clock.now = func() time.Time { return current }
	clock.last = start

	current = start.Add(16 * time.Millisecond)
	clock.Tick()
	if clock.FrameTime() != 16*time.Millisecond {
		t.Fatalf("frame time %s", clock.FrameTime())
	}

	current = current.Add(20 * time.Millisecond)
	clock.Tick()
	if clock.FrameTime() != 20*time.Millisecond {
		t.Fatalf("frame time %s", clock.FrameTime())
	}
	if clock.Frames() != 2 {
		t.Fatalf("counted %d frames", clock.Frames())
	}
}

func TestTimeCapped(t *testing.T) {
	clock := NewTime(TimeConfiguration{FramesPerSecond: 200})
	defer clock.Stop()

	if clock.Fps() != 200 || clock.FpsTicker() == nil {
		t.Fatal("capped clock has no ticker")
	}

	before := time.Now()
	for i := 0; i < 3; i++ {
		clock.Tick()
	}
	if elapsed := time.Since(before); elapsed < 10*time.Millisecond {
		t.Fatalf("three capped frames took only %s", elapsed)
	}
}
