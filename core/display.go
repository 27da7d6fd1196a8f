// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/devblok/shadowmap/gfx"
	"github.com/sirupsen/logrus"
	vk "github.com/vulkan-go/vulkan"
)

var _ gfx.Window = (*Display)(nil)

// NewDisplay creates the swapchain and its image views for the surface of window.
// The display is the gfx.Window the renderer presents through.
func NewDisplay(physicalDevice vk.PhysicalDevice, device vk.Device, surface vk.Surface, window PlatformWindow, clock *Time, cfg RendererConfiguration, log logrus.FieldLogger) (*Display, error) {
	d := &Display{
		physicalDevice: physicalDevice,
		device:         device,
		surface:        surface,
		window:         window,
		clock:          clock,
		configuration:  cfg,
	}

	if err := d.chooseSurfaceFormat(); err != nil {
		return nil, err
	}
	if err := d.createSwapchain(); err != nil {
		return nil, err
	}
	if err := d.createImageViews(); err != nil {
		d.Destroy()
		return nil, err
	}

	log.WithFields(logrus.Fields{
		"images": len(d.images),
		"format": d.imageFormat,
		"width":  d.extent.Width,
		"height": d.extent.Height,
	}).Info("swapchain created")
	return d, nil
}

// Display owns the swapchain of a platform window.
type Display struct {
	configuration RendererConfiguration

	window         PlatformWindow
	clock          *Time
	physicalDevice vk.PhysicalDevice
	device         vk.Device
	surface        vk.Surface

	swapchain       vk.Swapchain
	images          []vk.Image
	imageViews      []vk.ImageView
	imageFormat     vk.Format
	imageColorspace vk.ColorSpace
	extent          vk.Extent2D
}

func (d *Display) chooseSurfaceFormat() error {
	var surfaceFormatCount uint32
	if err := vk.Error(vk.GetPhysicalDeviceSurfaceFormats(d.physicalDevice, d.surface, &surfaceFormatCount, nil)); err != nil {
		return errors.New("vk.GetPhysicalDeviceSurfaceFormats(): " + err.Error())
	}
	if surfaceFormatCount == 0 {
		return errors.New("vk.GetPhysicalDeviceSurfaceFormats(): surface has no formats")
	}

	surfaceFormats := make([]vk.SurfaceFormat, surfaceFormatCount)
	if err := vk.Error(vk.GetPhysicalDeviceSurfaceFormats(d.physicalDevice, d.surface, &surfaceFormatCount, surfaceFormats)); err != nil {
		return errors.New("vk.GetPhysicalDeviceSurfaceFormats(): " + err.Error())
	}

	for idx := range surfaceFormats {
		surfaceFormats[idx].Deref()
	}
	d.imageFormat, d.imageColorspace = pickSurfaceFormat(surfaceFormats)
	return nil
}

func pickSurfaceFormat(formats []vk.SurfaceFormat) (vk.Format, vk.ColorSpace) {
	// A single undefined entry means the surface takes any format
	if len(formats) == 1 && formats[0].Format == vk.FormatUndefined {
		return vk.FormatB8g8r8a8Unorm, formats[0].ColorSpace
	}
	for _, f := range formats {
		if f.Format == vk.FormatB8g8r8a8Unorm {
			return f.Format, f.ColorSpace
		}
	}
	return formats[0].Format, formats[0].ColorSpace
}

func (d *Display) createSwapchain() error {
	var surfaceCapabilities vk.SurfaceCapabilities
	if err := vk.Error(vk.GetPhysicalDeviceSurfaceCapabilities(d.physicalDevice, d.surface, &surfaceCapabilities)); err != nil {
		return errors.New("vk.GetPhysicalDeviceSurfaceCapabilities(): " + err.Error())
	}
	surfaceCapabilities.Deref()
	surfaceCapabilities.CurrentExtent.Deref()
	surfaceCapabilities.MinImageExtent.Deref()
	surfaceCapabilities.MaxImageExtent.Deref()

	width, height := d.window.Size()
	if width == 0 || height == 0 {
		width, height = d.configuration.ScreenWidth, d.configuration.ScreenHeight
	}
	d.extent = swapchainExtent(surfaceCapabilities, width, height)

	imageCount := d.configuration.SwapchainSize
	if imageCount < surfaceCapabilities.MinImageCount {
		imageCount = surfaceCapabilities.MinImageCount
	}
	if surfaceCapabilities.MaxImageCount > 0 && imageCount > surfaceCapabilities.MaxImageCount {
		imageCount = surfaceCapabilities.MaxImageCount
	}

	compositeAlpha := vk.CompositeAlphaOpaqueBit
	compositeAlphaFlags := []vk.CompositeAlphaFlagBits{
		vk.CompositeAlphaOpaqueBit,
		vk.CompositeAlphaPreMultipliedBit,
		vk.CompositeAlphaPostMultipliedBit,
		vk.CompositeAlphaInheritBit,
	}
	for i := 0; i < len(compositeAlphaFlags); i++ {
		if surfaceCapabilities.SupportedCompositeAlpha&vk.CompositeAlphaFlags(compositeAlphaFlags[i]) != 0 {
			compositeAlpha = compositeAlphaFlags[i]
			break
		}
	}

	scci := vk.SwapchainCreateInfo{
		SType:            vk.StructureTypeSwapchainCreateInfo,
		Surface:          d.surface,
		MinImageCount:    imageCount,
		ImageFormat:      d.imageFormat,
		ImageColorSpace:  d.imageColorspace,
		ImageExtent:      d.extent,
		ImageUsage:       vk.ImageUsageFlags(vk.ImageUsageColorAttachmentBit),
		PreTransform:     vk.SurfaceTransformIdentityBit,
		CompositeAlpha:   compositeAlpha,
		PresentMode:      vk.PresentModeFifo,
		Clipped:          vk.True,
		ImageArrayLayers: 1,
		ImageSharingMode: vk.SharingModeExclusive,
	}

	var swapchain vk.Swapchain
	if err := vk.Error(vk.CreateSwapchain(d.device, &scci, nil, &swapchain)); err != nil {
		return errors.New("vk.CreateSwapchain(): " + err.Error())
	}
	d.swapchain = swapchain

	var numImages uint32
	if err := vk.Error(vk.GetSwapchainImages(d.device, d.swapchain, &numImages, nil)); err != nil {
		return errors.New("vk.GetSwapchainImages(num): " + err.Error())
	}

	d.images = make([]vk.Image, numImages)
	if err := vk.Error(vk.GetSwapchainImages(d.device, d.swapchain, &numImages, d.images)); err != nil {
		return errors.New("vk.GetSwapchainImages(images): " + err.Error())
	}
	return nil
}

// swapchainExtent follows the surface when it dictates a size
// and clamps the window size into the supported range otherwise.
func swapchainExtent(caps vk.SurfaceCapabilities, width, height uint32) vk.Extent2D {
	if caps.CurrentExtent.Width != math.MaxUint32 {
		return caps.CurrentExtent
	}
	return vk.Extent2D{
		Width:  clampUint32(width, caps.MinImageExtent.Width, caps.MaxImageExtent.Width),
		Height: clampUint32(height, caps.MinImageExtent.Height, caps.MaxImageExtent.Height),
	}
}

func clampUint32(v, min, max uint32) uint32 {
	if v < min {
		return min
	}
	if max > 0 && v > max {
		return max
	}
	return v
}

func (d *Display) createImageViews() error {
	for idx := 0; idx < len(d.images); idx++ {
		ivci := vk.ImageViewCreateInfo{
			SType:    vk.StructureTypeImageViewCreateInfo,
			Image:    d.images[idx],
			ViewType: vk.ImageViewType2d,
			Format:   d.imageFormat,
			Components: vk.ComponentMapping{
				R: vk.ComponentSwizzleIdentity,
				G: vk.ComponentSwizzleIdentity,
				B: vk.ComponentSwizzleIdentity,
				A: vk.ComponentSwizzleIdentity,
			},
			SubresourceRange: vk.ImageSubresourceRange{
				AspectMask:     vk.ImageAspectFlags(vk.ImageAspectColorBit),
				BaseMipLevel:   0,
				LevelCount:     1,
				BaseArrayLayer: 0,
				LayerCount:     1,
			},
		}

		var imageView vk.ImageView
		if err := vk.Error(vk.CreateImageView(d.device, &ivci, nil, &imageView)); err != nil {
			return fmt.Errorf("vk.CreateImageView()[%d]: %s", idx, err.Error())
		}
		d.imageViews = append(d.imageViews, imageView)
	}
	return nil
}

// Swapchain implements gfx.Window
func (d *Display) Swapchain() vk.Swapchain {
	return d.swapchain
}

// ImageViews implements gfx.Window
func (d *Display) ImageViews() []vk.ImageView {
	return d.imageViews
}

// ImageFormat implements gfx.Window
func (d *Display) ImageFormat() vk.Format {
	return d.imageFormat
}

// Extent implements gfx.Window
func (d *Display) Extent() vk.Extent2D {
	return d.extent
}

// ShouldClose implements gfx.Window
func (d *Display) ShouldClose() bool {
	return d.window.ShouldClose()
}

// FrameTime implements gfx.Window
func (d *Display) FrameTime() time.Duration {
	return d.clock.FrameTime()
}

// Update implements gfx.Window
func (d *Display) Update() {
	d.window.PollEvents()
	d.clock.Tick()
}

// Destroy destroys image views and the swapchain, the images
// belong to the swapchain and go with it.
func (d *Display) Destroy() {
	for _, view := range d.imageViews {
		vk.DestroyImageView(d.device, view, nil)
	}
	d.imageViews = nil
	d.images = nil

	if d.swapchain != nil {
		vk.DestroySwapchain(d.device, d.swapchain, nil)
		d.swapchain = nil
	}
}
