// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package shadow

import (
	glm "github.com/go-gl/mathgl/mgl32"
)

// biasMatrix maps clip space x and y from [-1,1] into [0,1] texture space.
var biasMatrix = glm.Mat4{
	0.5, 0, 0, 0,
	0, 0.5, 0, 0,
	0, 0, 1, 0,
	0.5, 0.5, 0, 1,
}

// clipMatrix flips y and maps depth from [-1,1] into [0,1].
var clipMatrix = glm.Mat4{
	1, 0, 0, 0,
	0, -1, 0, 0,
	0, 0, 0.5, 0,
	0, 0, 0.5, 1,
}

// ProjectionToImage transforms a projection so that it
// yields shadow map sampling coordinates.
func ProjectionToImage(m glm.Mat4) glm.Mat4 {
	return biasMatrix.Mul4(m)
}

// VulkanClip converts an OpenGL style projection to Vulkan clip space.
func VulkanClip(m glm.Mat4) glm.Mat4 {
	return clipMatrix.Mul4(m)
}
