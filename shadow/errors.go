// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package shadow

import (
	"fmt"

	vk "github.com/vulkan-go/vulkan"
)

// AcquireError is returned when the next swapchain image could not be acquired.
// The renderer does not recreate the swapchain, so it ends the run.
type AcquireError struct {
	Result vk.Result
}

func (e *AcquireError) Error() string {
	if err := vk.Error(e.Result); err != nil {
		return "vk.AcquireNextImage(): " + err.Error()
	}
	return fmt.Sprintf("vk.AcquireNextImage(): result %d", e.Result)
}
