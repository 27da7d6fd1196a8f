// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package shadow

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/devblok/shadowmap/core"
	"github.com/devblok/shadowmap/gfx"
	"github.com/sirupsen/logrus"
	vk "github.com/vulkan-go/vulkan"
)

// Frame stages reported by the stage timer
const (
	stageAcquire = "Frame image acquisition"
	stageFence   = "Fence waiting"
	stageRecord  = "CmdBuffer building"
	stageSubmit  = "CmdBuffer submission"
	stagePresent = "Frame presentation"
	frameTimes   = "Frame times:"
)

// Collaborators are what the renderer draws with.
type Collaborators struct {
	Device    gfx.Device
	Queue     gfx.Queue
	Allocator gfx.Allocator
	Window    gfx.Window
	Shaders   core.ShaderSource
}

// New creates a renderer for scene. Nothing is allocated until Setup.
func New(c Collaborators, scene Scene, log logrus.FieldLogger) *Renderer {
	return &Renderer{
		device:      c.Device,
		queue:       c.Queue,
		allocator:   c.Allocator,
		window:      c.Window,
		shaders:     c.Shaders,
		scene:       scene,
		log:         log,
		timer:       core.NewStageTimer(log),
		depthFormat: DefaultDepthFormat,
	}
}

// Renderer drives the frame loop: acquire, wait for the image's fence,
// record both passes, submit and present.
type Renderer struct {
	device    gfx.Device
	queue     gfx.Queue
	allocator gfx.Allocator
	window    gfx.Window
	shaders   core.ShaderSource
	scene     Scene
	log       logrus.FieldLogger
	timer     *core.StageTimer

	depthFormat    vk.Format
	commandPool    vk.CommandPool
	commandBuffers []vk.CommandBuffer
	objects        ObjectTable
	sync           SyncRing
	shadowPass     Pass
	colorPass      Pass

	push [colorPushSize / 4]float32
}

// Setup creates every GPU resource the frame loop uses.
// On failure whatever was created is released again.
func (r *Renderer) Setup() error {
	if err := r.setup(); err != nil {
		r.Teardown()
		return err
	}
	return nil
}

func (r *Renderer) setup() error {
	images := len(r.window.ImageViews())
	if images == 0 {
		return errors.New("window has no swapchain images")
	}

	var err error
	if r.commandPool, err = r.device.CreateCommandPool(&vk.CommandPoolCreateInfo{
		SType:            vk.StructureTypeCommandPoolCreateInfo,
		Flags:            vk.CommandPoolCreateFlags(vk.CommandPoolCreateResetCommandBufferBit),
		QueueFamilyIndex: r.queue.FamilyIndex(),
	}); err != nil {
		return err
	}
	if r.commandBuffers, err = r.device.AllocateCommandBuffers(&vk.CommandBufferAllocateInfo{
		SType:              vk.StructureTypeCommandBufferAllocateInfo,
		CommandPool:        r.commandPool,
		Level:              vk.CommandBufferLevelPrimary,
		CommandBufferCount: uint32(images),
	}); err != nil {
		return err
	}
	r.log.WithField("count", len(r.commandBuffers)).Debug("command buffers allocated")

	up := uploader{
		device:    r.device,
		queue:     r.queue,
		allocator: r.allocator,
		cmd:       r.commandBuffers[0],
	}
	if r.objects, err = up.uploadObjects(r.scene.RenderObjects()); err != nil {
		return err
	}
	r.log.WithField("objects", len(r.objects)).Debug("render objects uploaded")

	if r.sync, err = newSyncRing(r.device, images, len(r.commandBuffers)); err != nil {
		return err
	}

	if r.depthFormat, err = SelectDepthFormat(r.device, r.depthFormat); err != nil {
		return err
	}

	res := passResources{
		device:      r.device,
		allocator:   r.allocator,
		shaders:     r.shaders,
		depthFormat: r.depthFormat,
	}
	if r.shadowPass, err = newShadowPass(res, r.scene.ShadowMapSize(), images); err != nil {
		return err
	}
	if r.colorPass, err = newColorPass(res, r.window, r.shadowPass.Depth.View); err != nil {
		return err
	}

	r.log.WithFields(logrus.Fields{
		"images":      images,
		"depthFormat": r.depthFormat,
		"shadowMap":   fmt.Sprintf("%dx%d", r.shadowPass.Extent.Width, r.shadowPass.Extent.Height),
	}).Debug("shadow renderer ready")
	return nil
}

// Run renders frames until the window asks to close or ctx is done.
func (r *Renderer) Run(ctx context.Context) error {
	defer r.timer.Flush()
	for !r.window.ShouldClose() {
		select {
		case <-ctx.Done():
			return nil
		default:
		}
		if err := r.frame(); err != nil {
			return err
		}
	}
	return nil
}

func (r *Renderer) frame() error {
	r.timer.Reset(frameTimes)

	stop := r.timer.Measure(stageAcquire)
	slot := r.sync.Advance()
	image, result := r.device.AcquireNextImage(r.window.Swapchain(), math.MaxUint64, r.sync.Acquire(slot))
	stop()
	if result != vk.Success {
		return &AcquireError{Result: result}
	}

	r.scene.Update(r.window.FrameTime())

	stop = r.timer.Measure(stageFence)
	fence := []vk.Fence{r.sync.Fence(int(image))}
	if err := r.device.WaitForFences(fence, true, math.MaxUint64); err != nil {
		return err
	}
	if err := r.device.ResetFences(fence); err != nil {
		return err
	}
	stop()

	stop = r.timer.Measure(stageRecord)
	cmd := r.commandBuffers[image]
	if err := r.record(cmd, int(image)); err != nil {
		return err
	}
	stop()

	stop = r.timer.Measure(stageSubmit)
	if err := r.queue.Submit([]vk.SubmitInfo{{
		SType:                vk.StructureTypeSubmitInfo,
		WaitSemaphoreCount:   1,
		PWaitSemaphores:      []vk.Semaphore{r.sync.Acquire(slot)},
		PWaitDstStageMask:    []vk.PipelineStageFlags{vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit)},
		CommandBufferCount:   1,
		PCommandBuffers:      []vk.CommandBuffer{cmd},
		SignalSemaphoreCount: 1,
		PSignalSemaphores:    []vk.Semaphore{r.sync.Render(slot)},
	}}, fence[0]); err != nil {
		return err
	}
	stop()

	stop = r.timer.Measure(stagePresent)
	if err := r.queue.Present(&vk.PresentInfo{
		SType:              vk.StructureTypePresentInfo,
		WaitSemaphoreCount: 1,
		PWaitSemaphores:    []vk.Semaphore{r.sync.Render(slot)},
		SwapchainCount:     1,
		PSwapchains:        []vk.Swapchain{r.window.Swapchain()},
		PImageIndices:      []uint32{image},
	}); err != nil {
		return err
	}
	stop()

	r.window.Update()
	return nil
}

func (r *Renderer) record(cmd vk.CommandBuffer, image int) error {
	if err := r.device.ResetCommandBuffer(cmd); err != nil {
		return err
	}
	if err := r.device.BeginCommandBuffer(cmd, &vk.CommandBufferBeginInfo{
		SType: vk.StructureTypeCommandBufferBeginInfo,
		Flags: vk.CommandBufferUsageFlags(vk.CommandBufferUsageOneTimeSubmitBit),
	}); err != nil {
		return err
	}
	r.recordShadowPass(cmd, image)
	r.recordColorPass(cmd, image)
	return r.device.EndCommandBuffer(cmd)
}

func (r *Renderer) recordShadowPass(cmd vk.CommandBuffer, image int) {
	pass := &r.shadowPass
	clearValues := make([]vk.ClearValue, 1)
	clearValues[0].SetDepthStencil(depthClearValue, 0)

	r.device.CmdBindPipeline(cmd, vk.PipelineBindPointGraphics, pass.Pipeline)
	r.device.CmdBeginRenderPass(cmd, &vk.RenderPassBeginInfo{
		SType:           vk.StructureTypeRenderPassBeginInfo,
		RenderPass:      pass.RenderPass,
		Framebuffer:     pass.Framebuffers[image],
		RenderArea:      vk.Rect2D{Extent: pass.Extent},
		ClearValueCount: uint32(len(clearValues)),
		PClearValues:    clearValues,
	}, vk.SubpassContentsInline)

	shadow := r.scene.ShadowMatrix()
	for _, obj := range r.objects {
		mvp := VulkanClip(shadow.Mul4(obj.Model))
		copy(r.push[:16], mvp[:])
		r.device.CmdPushConstants(cmd, pass.PipelineLayout, vk.ShaderStageFlags(vk.ShaderStageVertexBit), 0, r.push[:16])
		r.draw(cmd, &obj)
	}
	r.device.CmdEndRenderPass(cmd)
}

func (r *Renderer) recordColorPass(cmd vk.CommandBuffer, image int) {
	pass := &r.colorPass
	clearValues := make([]vk.ClearValue, 2)
	clearValues[0].SetColor(colorClearValue)
	clearValues[1].SetDepthStencil(depthClearValue, 0)

	r.device.CmdBindDescriptorSets(cmd, vk.PipelineBindPointGraphics, pass.PipelineLayout, 0, []vk.DescriptorSet{pass.DescriptorSet})
	r.device.CmdBindPipeline(cmd, vk.PipelineBindPointGraphics, pass.Pipeline)
	r.device.CmdBeginRenderPass(cmd, &vk.RenderPassBeginInfo{
		SType:           vk.StructureTypeRenderPassBeginInfo,
		RenderPass:      pass.RenderPass,
		Framebuffer:     pass.Framebuffers[image],
		RenderArea:      vk.Rect2D{Extent: pass.Extent},
		ClearValueCount: uint32(len(clearValues)),
		PClearValues:    clearValues,
	}, vk.SubpassContentsInline)

	render, shadow := r.scene.RenderMatrix(), r.scene.ShadowMatrix()
	for _, obj := range r.objects {
		mvp := VulkanClip(render.Mul4(obj.Model))
		depthMVP := ProjectionToImage(VulkanClip(shadow.Mul4(obj.Model)))
		copy(r.push[:16], mvp[:])
		copy(r.push[16:], depthMVP[:])
		r.device.CmdPushConstants(cmd, pass.PipelineLayout, vk.ShaderStageFlags(vk.ShaderStageVertexBit), 0, r.push[:])
		r.draw(cmd, &obj)
	}
	r.device.CmdEndRenderPass(cmd)
}

func (r *Renderer) draw(cmd vk.CommandBuffer, obj *GPUObject) {
	r.device.CmdBindVertexBuffers(cmd, 0, []vk.Buffer{obj.VertexBuffer.Buffer}, []vk.DeviceSize{0})
	r.device.CmdDraw(cmd, obj.DrawCount, 1, 0, 0)
}

// Teardown waits for the device to finish in flight work and
// releases everything Setup created. Calling it more than once is fine.
func (r *Renderer) Teardown() {
	if err := r.device.WaitIdle(); err != nil {
		r.log.WithError(err).Warn("device wait idle failed")
	}

	r.shadowPass.Destroy(r.device)
	r.colorPass.Destroy(r.device)
	r.sync.Destroy(r.device)
	r.objects.Destroy(r.allocator)

	// command buffers are freed with their pool
	if r.commandPool != nil {
		r.device.DestroyCommandPool(r.commandPool)
		r.commandPool = nil
	}
	r.commandBuffers = nil
	r.log.Debug("shadow renderer released")
}
