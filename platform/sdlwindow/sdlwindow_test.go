// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package sdlwindow

import (
	"testing"

	qt "github.com/frankban/quicktest"
	"github.com/veandco/go-sdl2/sdl"
)

func TestCloseRequested(t *testing.T) {
	for _, test := range []struct {
		name   string
		event  sdl.Event
		closes bool
	}{
		{"quit", &sdl.QuitEvent{Type: sdl.QUIT}, true},
		{"escape down", &sdl.KeyboardEvent{Type: sdl.KEYDOWN, Keysym: sdl.Keysym{Sym: sdl.K_ESCAPE}}, true},
		{"escape up", &sdl.KeyboardEvent{Type: sdl.KEYUP, Keysym: sdl.Keysym{Sym: sdl.K_ESCAPE}}, false},
		{"other key", &sdl.KeyboardEvent{Type: sdl.KEYDOWN, Keysym: sdl.Keysym{Sym: sdl.K_SPACE}}, false},
		{"mouse", &sdl.MouseMotionEvent{Type: sdl.MOUSEMOTION}, false},
	} {
		test := test
		t.Run(test.name, func(t *testing.T) {
			c := qt.New(t)
			c.Assert(closeRequested(test.event), qt.Equals, test.closes)
		})
	}
}
