// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package shadow

import (
	"testing"

	qt "github.com/frankban/quicktest"
	glm "github.com/go-gl/mathgl/mgl32"
	vk "github.com/vulkan-go/vulkan"
)

func TestProjectionToImage(t *testing.T) {
	c := qt.New(t)

	origin := ProjectionToImage(glm.Ident4()).Mul4x1(glm.Vec4{0, 0, 0, 1})
	c.Assert(origin, qt.Equals, glm.Vec4{0.5, 0.5, 0, 1})

	corner := ProjectionToImage(glm.Ident4()).Mul4x1(glm.Vec4{-1, 1, 0.25, 1})
	c.Assert(corner, qt.Equals, glm.Vec4{0, 1, 0.25, 1})
}

func TestVulkanClip(t *testing.T) {
	c := qt.New(t)

	v := VulkanClip(glm.Ident4()).Mul4x1(glm.Vec4{0.5, 0.5, -1, 1})
	c.Assert(v, qt.Equals, glm.Vec4{0.5, -0.5, 0, 1})

	far := VulkanClip(glm.Ident4()).Mul4x1(glm.Vec4{0, 0, 1, 1})
	c.Assert(far, qt.Equals, glm.Vec4{0, 0, 1, 1})
}

func TestAcquireErrorMessage(t *testing.T) {
	c := qt.New(t)
	err := &AcquireError{Result: vk.ErrorOutOfDate}
	c.Assert(err, qt.ErrorMatches, "vk.AcquireNextImage\\(\\): .+")
}
