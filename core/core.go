// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package core holds the application plumbing around the renderer:
// configuration, logging, timing, the Vulkan instance, the swapchain
// display and shader sources.
package core

import (
	"unsafe"

	vk "github.com/vulkan-go/vulkan"
)

// PlatformWindow is a native window that Vulkan can present to.
type PlatformWindow interface {
	// InstanceExtensions returns the instance extensions
	// needed to create a surface for the window.
	InstanceExtensions() []string

	// ProcAddr returns vkGetInstanceProcAddr as loaded by the platform.
	ProcAddr() unsafe.Pointer

	// CreateSurface creates the window surface for the instance.
	CreateSurface(instance vk.Instance) (vk.Surface, error)

	// Size returns the drawable size in pixels.
	Size() (width, height uint32)

	// ShouldClose reports whether the user asked to close the window.
	ShouldClose() bool

	// PollEvents processes pending window events.
	PollEvents()

	// Destroy closes the window.
	Destroy()
}

// PhysicalDeviceInfo describes available physical properties of a rendering device
type PhysicalDeviceInfo struct {
	ID            int
	VendorID      int
	DriverVersion int
	Name          string
	Invalid       bool
	Extensions    []string
	Layers        []string
	Memory        uint
}

// ShaderType represents the type of shader thats loaded
type ShaderType int

// Identifies shader objects with their types
const (
	VertexShaderType ShaderType = iota
	FragmentShaderType
	UnknownShaderType
)

// ShaderTypeFromName maps a file name stage part to its type.
func ShaderTypeFromName(stage string) ShaderType {
	switch stage {
	case "vert":
		return VertexShaderType
	case "frag":
		return FragmentShaderType
	}
	return UnknownShaderType
}

func (s ShaderType) String() string {
	switch s {
	case VertexShaderType:
		return "vert"
	case FragmentShaderType:
		return "frag"
	}
	return "unknown"
}
