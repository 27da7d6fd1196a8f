// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package model holds CPU side geometry in the interleaved
// layout the renderer uploads verbatim.
package model

import (
	"unsafe"

	glm "github.com/go-gl/mathgl/mgl32"
	vk "github.com/vulkan-go/vulkan"
)

// VertexStride is the size of one interleaved vertex in bytes.
const VertexStride = uint32(unsafe.Sizeof(Vertex{}))

// Vertex is a model vertex. All attributes are four component
// vectors so the layout has no padding.
type Vertex struct {
	Position glm.Vec4
	Color    glm.Vec4
	Normal   glm.Vec4
}

// RenderObject is a static mesh placed in the scene.
type RenderObject struct {
	Model    glm.Mat4
	Vertices []Vertex
}

// CombinedData flattens vertices into position, color, normal
// triplets, in vertex order.
func CombinedData(vertices []Vertex) []glm.Vec4 {
	data := make([]glm.Vec4, 0, 3*len(vertices))
	for _, v := range vertices {
		data = append(data, v.Position, v.Color, v.Normal)
	}
	return data
}

// Bytes views flattened data as raw bytes for upload.
func Bytes(data []glm.Vec4) []byte {
	if len(data) == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(&data[0])), len(data)*int(unsafe.Sizeof(glm.Vec4{})))
}

// VertexBindingDescriptions return Vulkan Vertex descriptors
func VertexBindingDescriptions() []vk.VertexInputBindingDescription {
	return []vk.VertexInputBindingDescription{{
		Binding:   0,
		Stride:    VertexStride,
		InputRate: vk.VertexInputRateVertex,
	}}
}

// VertexAttributeDescriptions return Vulkan attribute descriptors
func VertexAttributeDescriptions() []vk.VertexInputAttributeDescription {
	return []vk.VertexInputAttributeDescription{
		{
			Binding:  0,
			Location: 0,
			Format:   vk.FormatR32g32b32a32Sfloat,
			Offset:   uint32(unsafe.Offsetof(Vertex{}.Position)),
		},
		{
			Binding:  0,
			Location: 1,
			Format:   vk.FormatR32g32b32a32Sfloat,
			Offset:   uint32(unsafe.Offsetof(Vertex{}.Color)),
		},
		{
			Binding:  0,
			Location: 2,
			Format:   vk.FormatR32g32b32a32Sfloat,
			Offset:   uint32(unsafe.Offsetof(Vertex{}.Normal)),
		},
	}
}
