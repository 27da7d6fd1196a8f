// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package shadow renders a scene with shadow mapping in two passes: a depth
// only pass from the light followed by a color pass sampling its result.
// Frames in flight are coordinated through a ring of semaphores and one
// fence per swapchain image.
package shadow

import (
	"time"

	"github.com/devblok/shadowmap/model"
	glm "github.com/go-gl/mathgl/mgl32"
	vk "github.com/vulkan-go/vulkan"
)

// Shader program stems, loaded as <stem>.vert.spv and <stem>.frag.spv.
const (
	ShadowProgram = "shadowmap"
	ColorProgram  = "render"
)

// Scene is what the renderer draws.
type Scene interface {

	// RenderObjects are uploaded once at setup.
	RenderObjects() []model.RenderObject

	// ShadowMatrix is the light view-projection.
	ShadowMatrix() glm.Mat4

	// RenderMatrix is the camera view-projection.
	RenderMatrix() glm.Mat4

	// ShadowMapSize is the resolution of the shadow depth target.
	ShadowMapSize() vk.Extent2D

	// Update advances the scene by the last frame's duration.
	Update(dt time.Duration)
}
