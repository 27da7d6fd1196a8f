// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package gfx defines the rendering collaborators that renderers consume:
// a device with its command recorder, a submission queue, a memory
// allocator and a presentation window.
package gfx

import (
	"time"
	"unsafe"

	vk "github.com/vulkan-go/vulkan"
)

// Releasable defines any memory-occupying item that can be freed.
type Releasable interface {

	// Release releases memory occupied by the implementing structure.
	Release()
}

// Window is the presentation side of the renderer. It owns
// the swapchain and knows when the user wants to quit.
type Window interface {

	// Swapchain returns the swapchain images are acquired from.
	Swapchain() vk.Swapchain

	// ImageViews returns one view per swapchain image,
	// the length is the swapchain image count.
	ImageViews() []vk.ImageView

	// ImageFormat is the format of swapchain images.
	ImageFormat() vk.Format

	// Extent is the current size of the presentable surface.
	Extent() vk.Extent2D

	// ShouldClose reports a close request.
	ShouldClose() bool

	// FrameTime is the duration of the last frame.
	FrameTime() time.Duration

	// Update pumps window events and ticks the frame clock.
	Update()
}

// Recorder records commands into command buffers.
type Recorder interface {
	ResetCommandBuffer(cmd vk.CommandBuffer) error
	BeginCommandBuffer(cmd vk.CommandBuffer, info *vk.CommandBufferBeginInfo) error
	EndCommandBuffer(cmd vk.CommandBuffer) error

	CmdBindPipeline(cmd vk.CommandBuffer, bindPoint vk.PipelineBindPoint, pipeline vk.Pipeline)
	CmdBindDescriptorSets(cmd vk.CommandBuffer, bindPoint vk.PipelineBindPoint, layout vk.PipelineLayout, firstSet uint32, sets []vk.DescriptorSet)
	CmdBeginRenderPass(cmd vk.CommandBuffer, info *vk.RenderPassBeginInfo, contents vk.SubpassContents)
	CmdEndRenderPass(cmd vk.CommandBuffer)

	// CmdPushConstants pushes values as raw 32 bit floats,
	// the pushed size is len(values)*4 bytes.
	CmdPushConstants(cmd vk.CommandBuffer, layout vk.PipelineLayout, stages vk.ShaderStageFlags, offset uint32, values []float32)
	CmdBindVertexBuffers(cmd vk.CommandBuffer, firstBinding uint32, buffers []vk.Buffer, offsets []vk.DeviceSize)
	CmdDraw(cmd vk.CommandBuffer, vertexCount, instanceCount, firstVertex, firstInstance uint32)
	CmdCopyBuffer(cmd vk.CommandBuffer, src, dst vk.Buffer, regions []vk.BufferCopy)
}

// Device creates and destroys device objects.
// Destroy methods accept null handles and ignore them.
type Device interface {
	Recorder

	CreateImage(info *vk.ImageCreateInfo) (vk.Image, error)
	DestroyImage(image vk.Image)
	ImageMemoryRequirements(image vk.Image) vk.MemoryRequirements
	BindImageMemory(image vk.Image, memory vk.DeviceMemory, offset vk.DeviceSize) error
	FreeMemory(memory vk.DeviceMemory)
	CreateImageView(info *vk.ImageViewCreateInfo) (vk.ImageView, error)
	DestroyImageView(view vk.ImageView)
	FormatProperties(format vk.Format) vk.FormatProperties

	CreateRenderPass(info *vk.RenderPassCreateInfo) (vk.RenderPass, error)
	DestroyRenderPass(renderPass vk.RenderPass)
	CreateFramebuffer(info *vk.FramebufferCreateInfo) (vk.Framebuffer, error)
	DestroyFramebuffer(framebuffer vk.Framebuffer)

	CreateShaderModule(code []byte) (vk.ShaderModule, error)
	DestroyShaderModule(module vk.ShaderModule)

	CreateDescriptorSetLayout(info *vk.DescriptorSetLayoutCreateInfo) (vk.DescriptorSetLayout, error)
	DestroyDescriptorSetLayout(layout vk.DescriptorSetLayout)
	CreateDescriptorPool(info *vk.DescriptorPoolCreateInfo) (vk.DescriptorPool, error)
	DestroyDescriptorPool(pool vk.DescriptorPool)
	AllocateDescriptorSet(pool vk.DescriptorPool, layout vk.DescriptorSetLayout) (vk.DescriptorSet, error)
	UpdateDescriptorSets(writes []vk.WriteDescriptorSet)
	CreateSampler(info *vk.SamplerCreateInfo) (vk.Sampler, error)
	DestroySampler(sampler vk.Sampler)

	CreatePipelineLayout(info *vk.PipelineLayoutCreateInfo) (vk.PipelineLayout, error)
	DestroyPipelineLayout(layout vk.PipelineLayout)
	CreateGraphicsPipeline(info *vk.GraphicsPipelineCreateInfo) (vk.Pipeline, error)
	DestroyPipeline(pipeline vk.Pipeline)

	CreateCommandPool(info *vk.CommandPoolCreateInfo) (vk.CommandPool, error)
	DestroyCommandPool(pool vk.CommandPool)
	AllocateCommandBuffers(info *vk.CommandBufferAllocateInfo) ([]vk.CommandBuffer, error)

	CreateSemaphore() (vk.Semaphore, error)
	DestroySemaphore(semaphore vk.Semaphore)
	CreateFence(signaled bool) (vk.Fence, error)
	DestroyFence(fence vk.Fence)
	WaitForFences(fences []vk.Fence, waitAll bool, timeout uint64) error
	ResetFences(fences []vk.Fence) error

	// AcquireNextImage returns the index of the next presentable image.
	// The result is returned as is so callers can tell the failure apart.
	AcquireNextImage(swapchain vk.Swapchain, timeout uint64, semaphore vk.Semaphore) (uint32, vk.Result)

	// WaitIdle blocks until the device has no work in flight.
	WaitIdle() error
}

// Queue is a device queue work is submitted on.
type Queue interface {
	FamilyIndex() uint32
	Submit(submits []vk.SubmitInfo, fence vk.Fence) error
	Present(info *vk.PresentInfo) error
	WaitIdle() error
}

// Buffer is a buffer bound to a region of device memory.
type Buffer struct {
	Buffer vk.Buffer
	Memory vk.DeviceMemory
	Offset vk.DeviceSize
	Size   vk.DeviceSize
}

// Allocator hands out device memory and buffers.
type Allocator interface {

	// AllocateDeviceLocal allocates device local memory
	// satisfying the requirements.
	AllocateDeviceLocal(req vk.MemoryRequirements) (vk.DeviceMemory, error)

	// CreateStagingBuffer creates a host visible transfer source buffer.
	CreateStagingBuffer(size vk.DeviceSize) (Buffer, error)

	// CreateBuffer creates a buffer with memory of the given properties.
	CreateBuffer(size vk.DeviceSize, usage vk.BufferUsageFlags, props vk.MemoryPropertyFlags) (Buffer, error)

	// Map maps the whole buffer region into host memory.
	Map(buf Buffer) (unsafe.Pointer, error)
	Unmap(buf Buffer)

	// DestroyBuffer destroys the buffer and frees its memory.
	DestroyBuffer(buf Buffer)
}
