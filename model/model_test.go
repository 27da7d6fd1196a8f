// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package model_test

import (
	"testing"

	"github.com/devblok/shadowmap/model"
	qt "github.com/frankban/quicktest"
	glm "github.com/go-gl/mathgl/mgl32"
)

var red = glm.Vec4{1, 0, 0, 1}

func TestVertexLayout(t *testing.T) {
	c := qt.New(t)
	c.Assert(model.VertexStride, qt.Equals, uint32(48))

	bindings := model.VertexBindingDescriptions()
	c.Assert(bindings, qt.HasLen, 1)
	c.Assert(bindings[0].Stride, qt.Equals, uint32(48))

	attributes := model.VertexAttributeDescriptions()
	c.Assert(attributes, qt.HasLen, 3)
	for idx, offset := range []uint32{0, 16, 32} {
		c.Assert(attributes[idx].Offset, qt.Equals, offset)
		c.Assert(attributes[idx].Location, qt.Equals, uint32(idx))
	}
}

func TestCombinedData(t *testing.T) {
	c := qt.New(t)
	triangle := model.Triangle(red)

	data := model.CombinedData(triangle)
	c.Assert(data, qt.HasLen, 9)
	c.Assert(data[0], qt.Equals, triangle[0].Position)
	c.Assert(data[1], qt.Equals, red)
	c.Assert(data[2], qt.Equals, glm.Vec4{0, 0, 1, 0})
	c.Assert(data[3], qt.Equals, triangle[1].Position)

	c.Assert(model.Bytes(data), qt.HasLen, 3*48)
	c.Assert(model.Bytes(nil), qt.HasLen, 0)
}

func TestPrimitives(t *testing.T) {
	c := qt.New(t)

	c.Assert(model.Plane(10, red), qt.HasLen, 6)
	for _, v := range model.Plane(10, red) {
		c.Assert(v.Normal, qt.Equals, glm.Vec4{0, 1, 0, 0})
		c.Assert(v.Position.W(), qt.Equals, float32(1))
	}

	cube := model.Cube(2, red)
	c.Assert(cube, qt.HasLen, 36)
	for _, v := range cube {
		// every normal points away from the center
		if v.Position.Vec3().Dot(v.Normal.Vec3()) <= 0 {
			t.Fatalf("normal %v faces inwards at %v", v.Normal, v.Position)
		}
	}
}
