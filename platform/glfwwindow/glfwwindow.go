// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package glfwwindow provides a Vulkan capable window on top of GLFW.
package glfwwindow

import (
	"errors"
	"unsafe"

	"github.com/devblok/shadowmap/core"
	"github.com/go-gl/glfw/v3.3/glfw"
	vk "github.com/vulkan-go/vulkan"
)

// New initialises GLFW and opens a window without a client API.
// Must be called from the main thread.
func New(cfg core.WindowConfiguration, width, height uint32) (*Window, error) {
	if err := glfw.Init(); err != nil {
		return nil, errors.New("glfw.Init(): " + err.Error())
	}
	if !glfw.VulkanSupported() {
		glfw.Terminate()
		return nil, errors.New("glfw.VulkanSupported(): no Vulkan loader")
	}

	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI)
	glfw.WindowHint(glfw.Resizable, glfw.False)

	window, err := glfw.CreateWindow(int(width), int(height), cfg.Title, nil, nil)
	if err != nil {
		glfw.Terminate()
		return nil, errors.New("glfw.CreateWindow(): " + err.Error())
	}
	window.SetKeyCallback(func(w *glfw.Window, key glfw.Key, scancode int, action glfw.Action, mods glfw.ModifierKey) {
		if closeKey(key, action) {
			w.SetShouldClose(true)
		}
	})

	return &Window{window: window}, nil
}

// Window implements core.PlatformWindow
type Window struct {
	window *glfw.Window
}

func closeKey(key glfw.Key, action glfw.Action) bool {
	return key == glfw.KeyEscape && action == glfw.Press
}

// InstanceExtensions implements core.PlatformWindow
func (w *Window) InstanceExtensions() []string {
	return w.window.GetRequiredInstanceExtensions()
}

// ProcAddr implements core.PlatformWindow
func (w *Window) ProcAddr() unsafe.Pointer {
	return glfw.GetVulkanGetInstanceProcAddress()
}

// CreateSurface implements core.PlatformWindow
func (w *Window) CreateSurface(instance vk.Instance) (vk.Surface, error) {
	surface, err := w.window.CreateWindowSurface(instance, nil)
	if err != nil {
		return nil, errors.New("glfw.CreateWindowSurface(): " + err.Error())
	}
	return vk.SurfaceFromPointer(surface), nil
}

// Size implements core.PlatformWindow
func (w *Window) Size() (uint32, uint32) {
	width, height := w.window.GetFramebufferSize()
	return uint32(width), uint32(height)
}

// ShouldClose implements core.PlatformWindow
func (w *Window) ShouldClose() bool {
	return w.window.ShouldClose()
}

// PollEvents implements core.PlatformWindow
func (w *Window) PollEvents() {
	glfw.PollEvents()
}

// Destroy implements core.PlatformWindow
func (w *Window) Destroy() {
	if w.window != nil {
		w.window.Destroy()
		w.window = nil
	}
	glfw.Terminate()
}
