// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core

import (
	"math"
	"testing"

	qt "github.com/frankban/quicktest"
	vk "github.com/vulkan-go/vulkan"
)

func TestPickSurfaceFormat(t *testing.T) {
	c := qt.New(t)

	format, _ := pickSurfaceFormat([]vk.SurfaceFormat{{Format: vk.FormatUndefined}})
	c.Assert(format, qt.Equals, vk.FormatB8g8r8a8Unorm)

	format, _ = pickSurfaceFormat([]vk.SurfaceFormat{
		{Format: vk.FormatR8g8b8a8Srgb},
		{Format: vk.FormatB8g8r8a8Unorm},
	})
	c.Assert(format, qt.Equals, vk.FormatB8g8r8a8Unorm)

	format, _ = pickSurfaceFormat([]vk.SurfaceFormat{{Format: vk.FormatR8g8b8a8Srgb}})
	c.Assert(format, qt.Equals, vk.FormatR8g8b8a8Srgb)
}

func TestSwapchainExtent(t *testing.T) {
	c := qt.New(t)

	var caps vk.SurfaceCapabilities
	caps.CurrentExtent = vk.Extent2D{Width: 640, Height: 480}
	c.Assert(swapchainExtent(caps, 800, 600), qt.Equals, vk.Extent2D{Width: 640, Height: 480})

	caps.CurrentExtent = vk.Extent2D{Width: math.MaxUint32, Height: math.MaxUint32}
	caps.MinImageExtent = vk.Extent2D{Width: 100, Height: 100}
	caps.MaxImageExtent = vk.Extent2D{Width: 1000, Height: 500}
	c.Assert(swapchainExtent(caps, 800, 600), qt.Equals, vk.Extent2D{Width: 800, Height: 500})
	c.Assert(swapchainExtent(caps, 10, 10), qt.Equals, vk.Extent2D{Width: 100, Height: 100})
}
