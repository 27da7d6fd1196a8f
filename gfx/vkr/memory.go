// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package vkr

import (
	"errors"
	"fmt"
	"unsafe"

	"github.com/devblok/shadowmap/gfx"
	vk "github.com/vulkan-go/vulkan"
)

// NewMemoryAllocator creates a new memory allocator. Allocates for the logical device,
// reads memory properties of the physical device to influence allocation.
func NewMemoryAllocator(device vk.Device, phyDevice vk.PhysicalDevice) *MemoryAllocator {
	var memProperties vk.PhysicalDeviceMemoryProperties
	vk.GetPhysicalDeviceMemoryProperties(phyDevice, &memProperties)
	memProperties.Deref()

	return &MemoryAllocator{
		device:        device,
		memProperties: memProperties,
	}
}

// MemoryAllocator is responsible returning usable
// memory for any resources that may need it.
type MemoryAllocator struct {
	device        vk.Device
	memProperties vk.PhysicalDeviceMemoryProperties
}

// Malloc returns a usable memory chunk ready for use.
func (ma *MemoryAllocator) Malloc(req vk.MemoryRequirements, prop vk.MemoryPropertyFlags) (vk.DeviceMemory, error) {
	memTypeIdx, err := ma.findMemoryType(req.MemoryTypeBits, prop)
	if err != nil {
		return nil, err
	}

	mai := vk.MemoryAllocateInfo{
		SType:           vk.StructureTypeMemoryAllocateInfo,
		AllocationSize:  req.Size,
		MemoryTypeIndex: memTypeIdx,
	}

	var memory vk.DeviceMemory
	if err := vk.Error(vk.AllocateMemory(ma.device, &mai, nil, &memory)); err != nil {
		return nil, fmt.Errorf("vk.AllocateMemory(): %s", err.Error())
	}
	return memory, nil
}

// AllocateDeviceLocal implements gfx.Allocator
func (ma *MemoryAllocator) AllocateDeviceLocal(req vk.MemoryRequirements) (vk.DeviceMemory, error) {
	return ma.Malloc(req, vk.MemoryPropertyFlags(vk.MemoryPropertyDeviceLocalBit))
}

// CreateStagingBuffer implements gfx.Allocator
func (ma *MemoryAllocator) CreateStagingBuffer(size vk.DeviceSize) (gfx.Buffer, error) {
	return ma.CreateBuffer(size,
		vk.BufferUsageFlags(vk.BufferUsageTransferSrcBit),
		vk.MemoryPropertyFlags(vk.MemoryPropertyHostVisibleBit|vk.MemoryPropertyHostCoherentBit))
}

// CreateBuffer creates, allocates and binds a new buffer.
func (ma *MemoryAllocator) CreateBuffer(size vk.DeviceSize, usage vk.BufferUsageFlags, props vk.MemoryPropertyFlags) (gfx.Buffer, error) {
	createInfo := vk.BufferCreateInfo{
		SType:       vk.StructureTypeBufferCreateInfo,
		Size:        size,
		Usage:       usage,
		SharingMode: vk.SharingModeExclusive,
	}
	var buffer vk.Buffer
	if err := vk.Error(vk.CreateBuffer(ma.device, &createInfo, nil, &buffer)); err != nil {
		return gfx.Buffer{}, fmt.Errorf("vk.CreateBuffer(): %s", err.Error())
	}

	var req vk.MemoryRequirements
	vk.GetBufferMemoryRequirements(ma.device, buffer, &req)
	req.Deref()

	memory, err := ma.Malloc(req, props)
	if err != nil {
		vk.DestroyBuffer(ma.device, buffer, nil)
		return gfx.Buffer{}, err
	}

	if err := vk.Error(vk.BindBufferMemory(ma.device, buffer, memory, 0)); err != nil {
		vk.DestroyBuffer(ma.device, buffer, nil)
		vk.FreeMemory(ma.device, memory, nil)
		return gfx.Buffer{}, fmt.Errorf("vk.BindBufferMemory(): %s", err.Error())
	}

	return gfx.Buffer{
		Buffer: buffer,
		Memory: memory,
		Size:   size,
	}, nil
}

// Map implements gfx.Allocator
func (ma *MemoryAllocator) Map(buf gfx.Buffer) (unsafe.Pointer, error) {
	var mapped unsafe.Pointer
	if err := vk.Error(vk.MapMemory(ma.device, buf.Memory, buf.Offset, buf.Size, 0, &mapped)); err != nil {
		return nil, fmt.Errorf("vk.MapMemory(): %s", err.Error())
	}
	return mapped, nil
}

// Unmap implements gfx.Allocator
func (ma *MemoryAllocator) Unmap(buf gfx.Buffer) {
	vk.UnmapMemory(ma.device, buf.Memory)
}

// DestroyBuffer implements gfx.Allocator
func (ma *MemoryAllocator) DestroyBuffer(buf gfx.Buffer) {
	if buf.Buffer != nil {
		vk.DestroyBuffer(ma.device, buf.Buffer, nil)
	}
	if buf.Memory != nil {
		vk.FreeMemory(ma.device, buf.Memory, nil)
	}
}

func (ma *MemoryAllocator) findMemoryType(filter uint32, prop vk.MemoryPropertyFlags) (uint32, error) {
	for idx := uint32(0); idx < ma.memProperties.MemoryTypeCount; idx++ {
		ma.memProperties.MemoryTypes[idx].Deref()
		if filter&(1<<idx) != 0 && (ma.memProperties.MemoryTypes[idx].PropertyFlags&prop) == prop {
			return idx, nil
		}
	}
	return 0, errors.New("suitable memory type not found")
}
