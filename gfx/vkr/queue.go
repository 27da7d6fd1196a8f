// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package vkr

import (
	"errors"

	vk "github.com/vulkan-go/vulkan"
)

// Queue implements gfx.Queue on a single device queue.
type Queue struct {
	queue       vk.Queue
	familyIndex uint32
}

// Get returns the vulkan queue handle.
func (q *Queue) Get() vk.Queue {
	return q.queue
}

// FamilyIndex implements gfx.Queue
func (q *Queue) FamilyIndex() uint32 {
	return q.familyIndex
}

// Submit implements gfx.Queue
func (q *Queue) Submit(submits []vk.SubmitInfo, fence vk.Fence) error {
	if err := vk.Error(vk.QueueSubmit(q.queue, uint32(len(submits)), submits, fence)); err != nil {
		return errors.New("vk.QueueSubmit(): " + err.Error())
	}
	return nil
}

// Present implements gfx.Queue. A suboptimal swapchain still presents
// and is not reported.
func (q *Queue) Present(info *vk.PresentInfo) error {
	result := vk.QueuePresent(q.queue, info)
	if result == vk.Suboptimal {
		return nil
	}
	if err := vk.Error(result); err != nil {
		return errors.New("vk.QueuePresent(): " + err.Error())
	}
	return nil
}

// WaitIdle implements gfx.Queue
func (q *Queue) WaitIdle() error {
	if err := vk.Error(vk.QueueWaitIdle(q.queue)); err != nil {
		return errors.New("vk.QueueWaitIdle(): " + err.Error())
	}
	return nil
}
