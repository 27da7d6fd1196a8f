// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package shadow

import (
	"github.com/devblok/shadowmap/gfx"
	vk "github.com/vulkan-go/vulkan"
)

// SyncRing holds the per frame synchronization primitives.
// Semaphores are picked by a ring index that advances every frame,
// fences are picked by the acquired image index. The two are
// unrelated since the presentation engine decides the image order.
type SyncRing struct {
	acquire []vk.Semaphore
	render  []vk.Semaphore
	fences  []vk.Fence
	index   int
}

// newSyncRing creates images pairs of semaphores and a signaled
// fence per command buffer.
func newSyncRing(dev gfx.Device, images, commandBuffers int) (SyncRing, error) {
	var s SyncRing
	for i := 0; i < images; i++ {
		acquire, err := dev.CreateSemaphore()
		if err != nil {
			s.Destroy(dev)
			return SyncRing{}, err
		}
		s.acquire = append(s.acquire, acquire)

		render, err := dev.CreateSemaphore()
		if err != nil {
			s.Destroy(dev)
			return SyncRing{}, err
		}
		s.render = append(s.render, render)
	}

	for i := 0; i < commandBuffers; i++ {
		fence, err := dev.CreateFence(true)
		if err != nil {
			s.Destroy(dev)
			return SyncRing{}, err
		}
		s.fences = append(s.fences, fence)
	}
	return s, nil
}

// Advance moves to the next semaphore pair and returns its index.
func (s *SyncRing) Advance() int {
	s.index = (s.index + 1) % len(s.acquire)
	return s.index
}

// Index is the current semaphore index.
func (s *SyncRing) Index() int {
	return s.index
}

// Len is the number of semaphore pairs.
func (s *SyncRing) Len() int {
	return len(s.acquire)
}

// Acquire is signaled when the image acquired with slot idx is ready.
func (s *SyncRing) Acquire(idx int) vk.Semaphore {
	return s.acquire[idx]
}

// Render is signaled when rendering submitted with slot idx completes.
func (s *SyncRing) Render(idx int) vk.Semaphore {
	return s.render[idx]
}

// Fence guards the command buffer of image.
func (s *SyncRing) Fence(image int) vk.Fence {
	return s.fences[image]
}

// Destroy releases fences, then semaphores.
func (s *SyncRing) Destroy(dev gfx.Device) {
	for _, fence := range s.fences {
		dev.DestroyFence(fence)
	}
	for _, sem := range s.acquire {
		dev.DestroySemaphore(sem)
	}
	for _, sem := range s.render {
		dev.DestroySemaphore(sem)
	}
	*s = SyncRing{}
}
