// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package vkr implements the gfx collaborators on top of Vulkan.
package vkr

import (
	"errors"
	"fmt"

	"github.com/devblok/shadowmap/core"
	"github.com/devblok/shadowmap/gfx"
	"github.com/sirupsen/logrus"
	vk "github.com/vulkan-go/vulkan"
)

var (
	_ gfx.Device     = (*Device)(nil)
	_ gfx.Releasable = (*Device)(nil)
	_ gfx.Queue      = (*Queue)(nil)
	_ gfx.Allocator  = (*MemoryAllocator)(nil)
)

// NewDevice picks a queue family that can both draw and present to the surface,
// and creates the logical device with a single queue from it.
func NewDevice(physicalDevice vk.PhysicalDevice, surface vk.Surface, extensions []string, log logrus.FieldLogger) (*Device, *Queue, error) {
	familyIndex, err := findQueueFamily(physicalDevice, surface)
	if err != nil {
		return nil, nil, err
	}
	log.WithField("family", familyIndex).Info("graphics queue family selected")

	queueInfos := []vk.DeviceQueueCreateInfo{{
		SType:            vk.StructureTypeDeviceQueueCreateInfo,
		QueueFamilyIndex: familyIndex,
		QueueCount:       1,
		PQueuePriorities: []float32{1.0},
	}}

	safeExtensions := core.SafeStrings(extensions)
	dci := vk.DeviceCreateInfo{
		SType:                   vk.StructureTypeDeviceCreateInfo,
		QueueCreateInfoCount:    uint32(len(queueInfos)),
		PQueueCreateInfos:       queueInfos,
		EnabledExtensionCount:   uint32(len(safeExtensions)),
		PpEnabledExtensionNames: safeExtensions,
	}

	var device vk.Device
	if err := vk.Error(vk.CreateDevice(physicalDevice, &dci, nil, &device)); err != nil {
		return nil, nil, errors.New("vk.CreateDevice(): " + err.Error())
	}

	var queue vk.Queue
	vk.GetDeviceQueue(device, familyIndex, 0, &queue)

	return &Device{
			device:         device,
			physicalDevice: physicalDevice,
		}, &Queue{
			queue:       queue,
			familyIndex: familyIndex,
		}, nil
}

func findQueueFamily(physicalDevice vk.PhysicalDevice, surface vk.Surface) (uint32, error) {
	var queueFamilyCount uint32
	vk.GetPhysicalDeviceQueueFamilyProperties(physicalDevice, &queueFamilyCount, nil)
	if queueFamilyCount == 0 {
		return 0, errors.New("vk.GetPhysicalDeviceQueueFamilyProperties(): no queuefamilies on GPU")
	}
	queueFamilies := make([]vk.QueueFamilyProperties, queueFamilyCount)
	vk.GetPhysicalDeviceQueueFamilyProperties(physicalDevice, &queueFamilyCount, queueFamilies)

	for i := uint32(0); i < queueFamilyCount; i++ {
		queueFamilies[i].Deref()
		if queueFamilies[i].QueueFlags&vk.QueueFlags(vk.QueueGraphicsBit) == 0 {
			continue
		}
		var supportsPresent vk.Bool32
		if err := vk.Error(vk.GetPhysicalDeviceSurfaceSupport(physicalDevice, i, surface, &supportsPresent)); err != nil {
			return 0, errors.New("vk.GetPhysicalDeviceSurfaceSupport(): " + err.Error())
		}
		if supportsPresent.B() {
			return i, nil
		}
	}
	return 0, errors.New("vulkan error: could not find a queue family that can draw and present")
}

// Device implements gfx.Device on a logical vulkan device.
type Device struct {
	device         vk.Device
	physicalDevice vk.PhysicalDevice
}

// Get returns the vulkan device handle.
func (d *Device) Get() vk.Device {
	return d.device
}

// PhysicalDevice returns the physical device the logical one was created from.
func (d *Device) PhysicalDevice() vk.PhysicalDevice {
	return d.physicalDevice
}

// Release destroys the logical device.
func (d *Device) Release() {
	if d.device != nil {
		vk.DestroyDevice(d.device, nil)
		d.device = nil
	}
}

// CreateImage implements gfx.Device
func (d *Device) CreateImage(info *vk.ImageCreateInfo) (vk.Image, error) {
	var image vk.Image
	if err := vk.Error(vk.CreateImage(d.device, info, nil, &image)); err != nil {
		return nil, fmt.Errorf("vk.CreateImage(): %s", err.Error())
	}
	return image, nil
}

// DestroyImage implements gfx.Device
func (d *Device) DestroyImage(image vk.Image) {
	if image != nil {
		vk.DestroyImage(d.device, image, nil)
	}
}

// ImageMemoryRequirements implements gfx.Device
func (d *Device) ImageMemoryRequirements(image vk.Image) vk.MemoryRequirements {
	var req vk.MemoryRequirements
	vk.GetImageMemoryRequirements(d.device, image, &req)
	req.Deref()
	return req
}

// BindImageMemory implements gfx.Device
func (d *Device) BindImageMemory(image vk.Image, memory vk.DeviceMemory, offset vk.DeviceSize) error {
	if err := vk.Error(vk.BindImageMemory(d.device, image, memory, offset)); err != nil {
		return fmt.Errorf("vk.BindImageMemory(): %s", err.Error())
	}
	return nil
}

// FreeMemory implements gfx.Device
func (d *Device) FreeMemory(memory vk.DeviceMemory) {
	if memory != nil {
		vk.FreeMemory(d.device, memory, nil)
	}
}

// CreateImageView implements gfx.Device
func (d *Device) CreateImageView(info *vk.ImageViewCreateInfo) (vk.ImageView, error) {
	var view vk.ImageView
	if err := vk.Error(vk.CreateImageView(d.device, info, nil, &view)); err != nil {
		return nil, fmt.Errorf("vk.CreateImageView(): %s", err.Error())
	}
	return view, nil
}

// DestroyImageView implements gfx.Device
func (d *Device) DestroyImageView(view vk.ImageView) {
	if view != nil {
		vk.DestroyImageView(d.device, view, nil)
	}
}

// FormatProperties implements gfx.Device
func (d *Device) FormatProperties(format vk.Format) vk.FormatProperties {
	var props vk.FormatProperties
	vk.GetPhysicalDeviceFormatProperties(d.physicalDevice, format, &props)
	props.Deref()
	return props
}

// CreateRenderPass implements gfx.Device
func (d *Device) CreateRenderPass(info *vk.RenderPassCreateInfo) (vk.RenderPass, error) {
	var renderPass vk.RenderPass
	if err := vk.Error(vk.CreateRenderPass(d.device, info, nil, &renderPass)); err != nil {
		return nil, errors.New("vk.CreateRenderPass(): " + err.Error())
	}
	return renderPass, nil
}

// DestroyRenderPass implements gfx.Device
func (d *Device) DestroyRenderPass(renderPass vk.RenderPass) {
	if renderPass != nil {
		vk.DestroyRenderPass(d.device, renderPass, nil)
	}
}

// CreateFramebuffer implements gfx.Device
func (d *Device) CreateFramebuffer(info *vk.FramebufferCreateInfo) (vk.Framebuffer, error) {
	var framebuffer vk.Framebuffer
	if err := vk.Error(vk.CreateFramebuffer(d.device, info, nil, &framebuffer)); err != nil {
		return nil, errors.New("vk.CreateFramebuffer(): " + err.Error())
	}
	return framebuffer, nil
}

// DestroyFramebuffer implements gfx.Device
func (d *Device) DestroyFramebuffer(framebuffer vk.Framebuffer) {
	if framebuffer != nil {
		vk.DestroyFramebuffer(d.device, framebuffer, nil)
	}
}

// CreateShaderModule implements gfx.Device
func (d *Device) CreateShaderModule(code []byte) (vk.ShaderModule, error) {
	smci := vk.ShaderModuleCreateInfo{
		SType:    vk.StructureTypeShaderModuleCreateInfo,
		CodeSize: uint(len(code)),
		PCode:    core.SliceUint32(code),
	}

	var shader vk.ShaderModule
	if err := vk.Error(vk.CreateShaderModule(d.device, &smci, nil, &shader)); err != nil {
		return nil, fmt.Errorf("vk.CreateShaderModule(): %s", err.Error())
	}
	return shader, nil
}

// DestroyShaderModule implements gfx.Device
func (d *Device) DestroyShaderModule(module vk.ShaderModule) {
	if module != nil {
		vk.DestroyShaderModule(d.device, module, nil)
	}
}

// CreateDescriptorSetLayout implements gfx.Device
func (d *Device) CreateDescriptorSetLayout(info *vk.DescriptorSetLayoutCreateInfo) (vk.DescriptorSetLayout, error) {
	var layout vk.DescriptorSetLayout
	if err := vk.Error(vk.CreateDescriptorSetLayout(d.device, info, nil, &layout)); err != nil {
		return nil, errors.New("vk.CreateDescriptorSetLayout(): " + err.Error())
	}
	return layout, nil
}

// DestroyDescriptorSetLayout implements gfx.Device
func (d *Device) DestroyDescriptorSetLayout(layout vk.DescriptorSetLayout) {
	if layout != nil {
		vk.DestroyDescriptorSetLayout(d.device, layout, nil)
	}
}

// CreateDescriptorPool implements gfx.Device
func (d *Device) CreateDescriptorPool(info *vk.DescriptorPoolCreateInfo) (vk.DescriptorPool, error) {
	var pool vk.DescriptorPool
	if err := vk.Error(vk.CreateDescriptorPool(d.device, info, nil, &pool)); err != nil {
		return nil, errors.New("vk.CreateDescriptorPool(): " + err.Error())
	}
	return pool, nil
}

// DestroyDescriptorPool implements gfx.Device
func (d *Device) DestroyDescriptorPool(pool vk.DescriptorPool) {
	if pool != nil {
		vk.DestroyDescriptorPool(d.device, pool, nil)
	}
}

// AllocateDescriptorSet implements gfx.Device
func (d *Device) AllocateDescriptorSet(pool vk.DescriptorPool, layout vk.DescriptorSetLayout) (vk.DescriptorSet, error) {
	dsai := vk.DescriptorSetAllocateInfo{
		SType:              vk.StructureTypeDescriptorSetAllocateInfo,
		DescriptorPool:     pool,
		DescriptorSetCount: 1,
		PSetLayouts:        []vk.DescriptorSetLayout{layout},
	}

	var set vk.DescriptorSet
	if err := vk.Error(vk.AllocateDescriptorSets(d.device, &dsai, &set)); err != nil {
		return nil, errors.New("vk.AllocateDescriptorSets(): " + err.Error())
	}
	return set, nil
}

// UpdateDescriptorSets implements gfx.Device
func (d *Device) UpdateDescriptorSets(writes []vk.WriteDescriptorSet) {
	vk.UpdateDescriptorSets(d.device, uint32(len(writes)), writes, 0, nil)
}

// CreateSampler implements gfx.Device
func (d *Device) CreateSampler(info *vk.SamplerCreateInfo) (vk.Sampler, error) {
	var sampler vk.Sampler
	if err := vk.Error(vk.CreateSampler(d.device, info, nil, &sampler)); err != nil {
		return nil, errors.New("vk.CreateSampler(): " + err.Error())
	}
	return sampler, nil
}

// DestroySampler implements gfx.Device
func (d *Device) DestroySampler(sampler vk.Sampler) {
	if sampler != nil {
		vk.DestroySampler(d.device, sampler, nil)
	}
}

// CreatePipelineLayout implements gfx.Device
func (d *Device) CreatePipelineLayout(info *vk.PipelineLayoutCreateInfo) (vk.PipelineLayout, error) {
	var layout vk.PipelineLayout
	if err := vk.Error(vk.CreatePipelineLayout(d.device, info, nil, &layout)); err != nil {
		return nil, errors.New("vk.CreatePipelineLayout(): " + err.Error())
	}
	return layout, nil
}

// DestroyPipelineLayout implements gfx.Device
func (d *Device) DestroyPipelineLayout(layout vk.PipelineLayout) {
	if layout != nil {
		vk.DestroyPipelineLayout(d.device, layout, nil)
	}
}

// CreateGraphicsPipeline implements gfx.Device
func (d *Device) CreateGraphicsPipeline(info *vk.GraphicsPipelineCreateInfo) (vk.Pipeline, error) {
	pipelines := make([]vk.Pipeline, 1)
	if err := vk.Error(vk.CreateGraphicsPipelines(d.device, nil, 1, []vk.GraphicsPipelineCreateInfo{*info}, nil, pipelines)); err != nil {
		return nil, errors.New("vk.CreateGraphicsPipelines(): " + err.Error())
	}
	return pipelines[0], nil
}

// DestroyPipeline implements gfx.Device
func (d *Device) DestroyPipeline(pipeline vk.Pipeline) {
	if pipeline != nil {
		vk.DestroyPipeline(d.device, pipeline, nil)
	}
}

// CreateCommandPool implements gfx.Device
func (d *Device) CreateCommandPool(info *vk.CommandPoolCreateInfo) (vk.CommandPool, error) {
	var commandPool vk.CommandPool
	if err := vk.Error(vk.CreateCommandPool(d.device, info, nil, &commandPool)); err != nil {
		return nil, errors.New("vk.CreateCommandPool(): " + err.Error())
	}
	return commandPool, nil
}

// DestroyCommandPool implements gfx.Device, command buffers
// allocated from the pool are freed with it.
func (d *Device) DestroyCommandPool(pool vk.CommandPool) {
	if pool != nil {
		vk.DestroyCommandPool(d.device, pool, nil)
	}
}

// AllocateCommandBuffers implements gfx.Device
func (d *Device) AllocateCommandBuffers(info *vk.CommandBufferAllocateInfo) ([]vk.CommandBuffer, error) {
	commandBuffers := make([]vk.CommandBuffer, info.CommandBufferCount)
	if err := vk.Error(vk.AllocateCommandBuffers(d.device, info, commandBuffers)); err != nil {
		return nil, errors.New("vk.AllocateCommandBuffers(): " + err.Error())
	}
	return commandBuffers, nil
}

// CreateSemaphore implements gfx.Device
func (d *Device) CreateSemaphore() (vk.Semaphore, error) {
	sci := vk.SemaphoreCreateInfo{
		SType: vk.StructureTypeSemaphoreCreateInfo,
	}
	var semaphore vk.Semaphore
	if err := vk.Error(vk.CreateSemaphore(d.device, &sci, nil, &semaphore)); err != nil {
		return nil, errors.New("vk.CreateSemaphore(): " + err.Error())
	}
	return semaphore, nil
}

// DestroySemaphore implements gfx.Device
func (d *Device) DestroySemaphore(semaphore vk.Semaphore) {
	if semaphore != nil {
		vk.DestroySemaphore(d.device, semaphore, nil)
	}
}

// CreateFence implements gfx.Device
func (d *Device) CreateFence(signaled bool) (vk.Fence, error) {
	fci := vk.FenceCreateInfo{
		SType: vk.StructureTypeFenceCreateInfo,
	}
	if signaled {
		fci.Flags = vk.FenceCreateFlags(vk.FenceCreateSignaledBit)
	}
	var fence vk.Fence
	if err := vk.Error(vk.CreateFence(d.device, &fci, nil, &fence)); err != nil {
		return nil, errors.New("vk.CreateFence(): " + err.Error())
	}
	return fence, nil
}

// DestroyFence implements gfx.Device
func (d *Device) DestroyFence(fence vk.Fence) {
	if fence != nil {
		vk.DestroyFence(d.device, fence, nil)
	}
}

// WaitForFences implements gfx.Device
func (d *Device) WaitForFences(fences []vk.Fence, waitAll bool, timeout uint64) error {
	all := vk.Bool32(vk.False)
	if waitAll {
		all = vk.True
	}
	if err := vk.Error(vk.WaitForFences(d.device, uint32(len(fences)), fences, all, timeout)); err != nil {
		return errors.New("vk.WaitForFences(): " + err.Error())
	}
	return nil
}

// ResetFences implements gfx.Device
func (d *Device) ResetFences(fences []vk.Fence) error {
	if err := vk.Error(vk.ResetFences(d.device, uint32(len(fences)), fences)); err != nil {
		return errors.New("vk.ResetFences(): " + err.Error())
	}
	return nil
}

// AcquireNextImage implements gfx.Device
func (d *Device) AcquireNextImage(swapchain vk.Swapchain, timeout uint64, semaphore vk.Semaphore) (uint32, vk.Result) {
	var imageIndex uint32
	result := vk.AcquireNextImage(d.device, swapchain, timeout, semaphore, nil, &imageIndex)
	return imageIndex, result
}

// WaitIdle implements gfx.Device
func (d *Device) WaitIdle() error {
	if err := vk.Error(vk.DeviceWaitIdle(d.device)); err != nil {
		return errors.New("vk.DeviceWaitIdle(): " + err.Error())
	}
	return nil
}
