// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package vkr

import (
	"fmt"
	"unsafe"

	vk "github.com/vulkan-go/vulkan"
)

// ResetCommandBuffer implements gfx.Recorder
func (d *Device) ResetCommandBuffer(cmd vk.CommandBuffer) error {
	if err := vk.Error(vk.ResetCommandBuffer(cmd, 0)); err != nil {
		return fmt.Errorf("vk.ResetCommandBuffer(): %s", err.Error())
	}
	return nil
}

// BeginCommandBuffer implements gfx.Recorder
func (d *Device) BeginCommandBuffer(cmd vk.CommandBuffer, info *vk.CommandBufferBeginInfo) error {
	if err := vk.Error(vk.BeginCommandBuffer(cmd, info)); err != nil {
		return fmt.Errorf("vk.BeginCommandBuffer(): %s", err.Error())
	}
	return nil
}

// EndCommandBuffer implements gfx.Recorder
func (d *Device) EndCommandBuffer(cmd vk.CommandBuffer) error {
	if err := vk.Error(vk.EndCommandBuffer(cmd)); err != nil {
		return fmt.Errorf("vk.EndCommandBuffer(): %s", err.Error())
	}
	return nil
}

// CmdBindPipeline implements gfx.Recorder
func (d *Device) CmdBindPipeline(cmd vk.CommandBuffer, bindPoint vk.PipelineBindPoint, pipeline vk.Pipeline) {
	vk.CmdBindPipeline(cmd, bindPoint, pipeline)
}

// CmdBindDescriptorSets implements gfx.Recorder
func (d *Device) CmdBindDescriptorSets(cmd vk.CommandBuffer, bindPoint vk.PipelineBindPoint, layout vk.PipelineLayout, firstSet uint32, sets []vk.DescriptorSet) {
	vk.CmdBindDescriptorSets(cmd, bindPoint, layout, firstSet, uint32(len(sets)), sets, 0, nil)
}

// CmdBeginRenderPass implements gfx.Recorder
func (d *Device) CmdBeginRenderPass(cmd vk.CommandBuffer, info *vk.RenderPassBeginInfo, contents vk.SubpassContents) {
	vk.CmdBeginRenderPass(cmd, info, contents)
}

// CmdEndRenderPass implements gfx.Recorder
func (d *Device) CmdEndRenderPass(cmd vk.CommandBuffer) {
	vk.CmdEndRenderPass(cmd)
}

// CmdPushConstants implements gfx.Recorder
func (d *Device) CmdPushConstants(cmd vk.CommandBuffer, layout vk.PipelineLayout, stages vk.ShaderStageFlags, offset uint32, values []float32) {
	if len(values) == 0 {
		return
	}
	vk.CmdPushConstants(cmd, layout, stages, offset, uint32(len(values)*4), unsafe.Pointer(&values[0]))
}

// CmdBindVertexBuffers implements gfx.Recorder
func (d *Device) CmdBindVertexBuffers(cmd vk.CommandBuffer, firstBinding uint32, buffers []vk.Buffer, offsets []vk.DeviceSize) {
	vk.CmdBindVertexBuffers(cmd, firstBinding, uint32(len(buffers)), buffers, offsets)
}

// CmdDraw implements gfx.Recorder
func (d *Device) CmdDraw(cmd vk.CommandBuffer, vertexCount, instanceCount, firstVertex, firstInstance uint32) {
	vk.CmdDraw(cmd, vertexCount, instanceCount, firstVertex, firstInstance)
}

// CmdCopyBuffer implements gfx.Recorder
func (d *Device) CmdCopyBuffer(cmd vk.CommandBuffer, src, dst vk.Buffer, regions []vk.BufferCopy) {
	vk.CmdCopyBuffer(cmd, src, dst, uint32(len(regions)), regions)
}
