// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package shadow

import (
	"errors"
	"fmt"

	"github.com/devblok/shadowmap/gfx"
	"github.com/devblok/shadowmap/model"
	glm "github.com/go-gl/mathgl/mgl32"
	vk "github.com/vulkan-go/vulkan"
)

// GPUObject is a render object with its vertices in device local memory.
type GPUObject struct {
	Model        glm.Mat4
	VertexBuffer gfx.Buffer
	DrawCount    uint32
}

// ObjectTable holds the uploaded render objects of a scene.
type ObjectTable []GPUObject

// uploader copies vertex data to device local buffers through
// a staging buffer, one blocking transfer per object.
type uploader struct {
	device    gfx.Device
	queue     gfx.Queue
	allocator gfx.Allocator
	cmd       vk.CommandBuffer
}

// uploadObjects uploads every object, on failure the ones
// already uploaded are released.
func (u *uploader) uploadObjects(objects []model.RenderObject) (ObjectTable, error) {
	table := make(ObjectTable, 0, len(objects))
	for idx, obj := range objects {
		gpuObject, err := u.upload(obj)
		if err != nil {
			table.Destroy(u.allocator)
			return nil, fmt.Errorf("render object %d: %s", idx, err)
		}
		table = append(table, gpuObject)
	}
	return table, nil
}

func (u *uploader) upload(obj model.RenderObject) (GPUObject, error) {
	if len(obj.Vertices) == 0 {
		return GPUObject{}, errors.New("no vertices")
	}
	data := model.Bytes(model.CombinedData(obj.Vertices))
	size := vk.DeviceSize(len(data))

	staging, err := u.allocator.CreateStagingBuffer(size)
	if err != nil {
		return GPUObject{}, err
	}
	defer u.allocator.DestroyBuffer(staging)

	mapped, err := u.allocator.Map(staging)
	if err != nil {
		return GPUObject{}, err
	}
	vk.Memcopy(mapped, data)
	u.allocator.Unmap(staging)

	vbo, err := u.allocator.CreateBuffer(size,
		vk.BufferUsageFlags(vk.BufferUsageVertexBufferBit|vk.BufferUsageTransferDstBit),
		vk.MemoryPropertyFlags(vk.MemoryPropertyDeviceLocalBit))
	if err != nil {
		return GPUObject{}, err
	}

	if err := u.copyBuffer(staging, vbo, size); err != nil {
		u.allocator.DestroyBuffer(vbo)
		return GPUObject{}, err
	}

	return GPUObject{
		Model:        obj.Model,
		VertexBuffer: vbo,
		DrawCount:    uint32(len(obj.Vertices)),
	}, nil
}

func (u *uploader) copyBuffer(src, dst gfx.Buffer, size vk.DeviceSize) error {
	if err := u.device.BeginCommandBuffer(u.cmd, &vk.CommandBufferBeginInfo{
		SType: vk.StructureTypeCommandBufferBeginInfo,
		Flags: vk.CommandBufferUsageFlags(vk.CommandBufferUsageOneTimeSubmitBit),
	}); err != nil {
		return err
	}
	u.device.CmdCopyBuffer(u.cmd, src.Buffer, dst.Buffer, []vk.BufferCopy{{
		SrcOffset: 0,
		DstOffset: 0,
		Size:      size,
	}})
	if err := u.device.EndCommandBuffer(u.cmd); err != nil {
		return err
	}

	if err := u.queue.Submit([]vk.SubmitInfo{{
		SType:              vk.StructureTypeSubmitInfo,
		CommandBufferCount: 1,
		PCommandBuffers:    []vk.CommandBuffer{u.cmd},
	}}, nil); err != nil {
		return err
	}
	return u.queue.WaitIdle()
}

// Destroy releases every vertex buffer.
func (t *ObjectTable) Destroy(alloc gfx.Allocator) {
	for _, obj := range *t {
		alloc.DestroyBuffer(obj.VertexBuffer)
	}
	*t = nil
}
