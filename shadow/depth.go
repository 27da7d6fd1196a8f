// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package shadow

import (
	"errors"
	"fmt"

	"github.com/devblok/shadowmap/gfx"
	vk "github.com/vulkan-go/vulkan"
)

// DefaultDepthFormat is used for both depth targets when supported.
const DefaultDepthFormat = vk.FormatD24UnormS8Uint

var depthFormatFallbacks = []vk.Format{
	vk.FormatD32SfloatS8Uint,
	vk.FormatD16UnormS8Uint,
	vk.FormatD32Sfloat,
	vk.FormatD16Unorm,
}

// SelectDepthFormat returns preferred when the device can use it as an
// optimally tiled depth attachment, otherwise the first fallback that works.
func SelectDepthFormat(dev gfx.Device, preferred vk.Format) (vk.Format, error) {
	candidates := append([]vk.Format{preferred}, depthFormatFallbacks...)
	for _, format := range candidates {
		props := dev.FormatProperties(format)
		if props.OptimalTilingFeatures&vk.FormatFeatureFlags(vk.FormatFeatureDepthStencilAttachmentBit) != 0 {
			return format, nil
		}
	}
	return vk.FormatUndefined, errors.New("no supported depth format")
}

// DepthTarget is a depth image with its memory and view.
type DepthTarget struct {
	Format vk.Format
	Image  vk.Image
	Memory vk.DeviceMemory
	View   vk.ImageView
}

// NewDepthTarget creates a depth image of the given size and usage.
func NewDepthTarget(dev gfx.Device, alloc gfx.Allocator, format vk.Format, extent vk.Extent2D, usage vk.ImageUsageFlagBits) (DepthTarget, error) {
	d := DepthTarget{Format: format}

	image, err := dev.CreateImage(&vk.ImageCreateInfo{
		SType:     vk.StructureTypeImageCreateInfo,
		ImageType: vk.ImageType2d,
		Format:    format,
		Extent: vk.Extent3D{
			Width:  extent.Width,
			Height: extent.Height,
			Depth:  1,
		},
		MipLevels:     1,
		ArrayLayers:   1,
		Samples:       vk.SampleCount1Bit,
		Tiling:        vk.ImageTilingOptimal,
		Usage:         vk.ImageUsageFlags(usage),
		SharingMode:   vk.SharingModeExclusive,
		InitialLayout: vk.ImageLayoutUndefined,
	})
	if err != nil {
		return DepthTarget{}, err
	}
	d.Image = image

	memory, err := alloc.AllocateDeviceLocal(dev.ImageMemoryRequirements(image))
	if err != nil {
		d.Destroy(dev)
		return DepthTarget{}, fmt.Errorf("depth target memory: %s", err)
	}
	d.Memory = memory

	if err := dev.BindImageMemory(image, memory, 0); err != nil {
		d.Destroy(dev)
		return DepthTarget{}, err
	}

	view, err := dev.CreateImageView(&vk.ImageViewCreateInfo{
		SType:    vk.StructureTypeImageViewCreateInfo,
		Image:    image,
		ViewType: vk.ImageViewType2d,
		Format:   format,
		SubresourceRange: vk.ImageSubresourceRange{
			AspectMask: vk.ImageAspectFlags(vk.ImageAspectDepthBit),
			LevelCount: 1,
			LayerCount: 1,
		},
	})
	if err != nil {
		d.Destroy(dev)
		return DepthTarget{}, err
	}
	d.View = view
	return d, nil
}

// Destroy releases the view, the image and its memory.
// Safe to call on a zero DepthTarget.
func (d *DepthTarget) Destroy(dev gfx.Device) {
	if d.View != nil {
		dev.DestroyImageView(d.View)
	}
	if d.Image != nil {
		dev.DestroyImage(d.Image)
	}
	if d.Memory != nil {
		dev.FreeMemory(d.Memory)
	}
	*d = DepthTarget{}
}
