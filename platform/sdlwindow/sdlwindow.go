// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package sdlwindow provides a Vulkan capable window on top of SDL2.
package sdlwindow

import (
	"errors"
	"unsafe"

	"github.com/devblok/shadowmap/core"
	"github.com/veandco/go-sdl2/sdl"
	vk "github.com/vulkan-go/vulkan"
)

// New initialises SDL video, loads the Vulkan library and opens a window.
// Must be called from the main thread.
func New(cfg core.WindowConfiguration, width, height uint32) (*Window, error) {
	if err := sdl.Init(sdl.INIT_VIDEO | sdl.INIT_EVENTS); err != nil {
		return nil, errors.New("sdl.Init(): " + err.Error())
	}

	if err := sdl.VulkanLoadLibrary(""); err != nil {
		sdl.Quit()
		return nil, errors.New("sdl.VulkanLoadLibrary(): " + err.Error())
	}

	window, err := sdl.CreateWindow(cfg.Title,
		sdl.WINDOWPOS_UNDEFINED,
		sdl.WINDOWPOS_UNDEFINED,
		int32(width),
		int32(height),
		sdl.WINDOW_VULKAN)
	if err != nil {
		sdl.VulkanUnloadLibrary()
		sdl.Quit()
		return nil, errors.New("sdl.CreateWindow(): " + err.Error())
	}

	return &Window{window: window}, nil
}

// Window implements core.PlatformWindow
type Window struct {
	window *sdl.Window
	closed bool
}

// InstanceExtensions implements core.PlatformWindow
func (w *Window) InstanceExtensions() []string {
	return w.window.VulkanGetInstanceExtensions()
}

// ProcAddr implements core.PlatformWindow
func (w *Window) ProcAddr() unsafe.Pointer {
	return sdl.VulkanGetVkGetInstanceProcAddr()
}

// CreateSurface implements core.PlatformWindow
func (w *Window) CreateSurface(instance vk.Instance) (vk.Surface, error) {
	surface, err := w.window.VulkanCreateSurface(instance)
	if err != nil {
		return nil, errors.New("sdl.VulkanCreateSurface(): " + err.Error())
	}
	return vk.SurfaceFromPointer(uintptr(surface)), nil
}

// Size implements core.PlatformWindow
func (w *Window) Size() (uint32, uint32) {
	width, height := w.window.VulkanGetDrawableSize()
	return uint32(width), uint32(height)
}

// ShouldClose implements core.PlatformWindow
func (w *Window) ShouldClose() bool {
	return w.closed
}

// PollEvents implements core.PlatformWindow
func (w *Window) PollEvents() {
	for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
		if closeRequested(event) {
			w.closed = true
		}
	}
}

// closeRequested reports a quit event or a press of escape.
func closeRequested(event sdl.Event) bool {
	switch et := event.(type) {
	case *sdl.KeyboardEvent:
		return et.Type == sdl.KEYDOWN && et.Keysym.Sym == sdl.K_ESCAPE
	case *sdl.QuitEvent:
		return true
	}
	return false
}

// Destroy implements core.PlatformWindow
func (w *Window) Destroy() {
	if w.window != nil {
		w.window.Destroy()
		w.window = nil
	}
	sdl.VulkanUnloadLibrary()
	sdl.Quit()
}
