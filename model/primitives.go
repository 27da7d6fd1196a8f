// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package model

import (
	glm "github.com/go-gl/mathgl/mgl32"
)

func point(v glm.Vec3) glm.Vec4 {
	return v.Vec4(1)
}

func direction(v glm.Vec3) glm.Vec4 {
	return v.Vec4(0)
}

// Triangle is a single triangle in the z=0 plane facing +z.
func Triangle(color glm.Vec4) []Vertex {
	normal := direction(glm.Vec3{0, 0, 1})
	return []Vertex{
		{Position: point(glm.Vec3{-1, -1, 0}), Color: color, Normal: normal},
		{Position: point(glm.Vec3{1, -1, 0}), Color: color, Normal: normal},
		{Position: point(glm.Vec3{0, 1, 0}), Color: color, Normal: normal},
	}
}

// quad emits two triangles for the corners a, b, c, d given counter-clockwise.
func quad(a, b, c, d glm.Vec3, color glm.Vec4) []Vertex {
	normal := direction(b.Sub(a).Cross(c.Sub(a)).Normalize())
	return []Vertex{
		{Position: point(a), Color: color, Normal: normal},
		{Position: point(b), Color: color, Normal: normal},
		{Position: point(c), Color: color, Normal: normal},
		{Position: point(a), Color: color, Normal: normal},
		{Position: point(c), Color: color, Normal: normal},
		{Position: point(d), Color: color, Normal: normal},
	}
}

// Plane is a square of the given size in the y=0 plane facing +y.
func Plane(size float32, color glm.Vec4) []Vertex {
	h := size / 2
	return quad(
		glm.Vec3{-h, 0, h},
		glm.Vec3{h, 0, h},
		glm.Vec3{h, 0, -h},
		glm.Vec3{-h, 0, -h},
		color,
	)
}

// Cube is an axis aligned cube of the given size centered at the origin.
func Cube(size float32, color glm.Vec4) []Vertex {
	h := size / 2
	corners := [8]glm.Vec3{
		{-h, -h, h}, {h, -h, h}, {h, h, h}, {-h, h, h},
		{-h, -h, -h}, {h, -h, -h}, {h, h, -h}, {-h, h, -h},
	}
	faces := [6][4]int{
		{0, 1, 2, 3}, // front
		{5, 4, 7, 6}, // back
		{1, 5, 6, 2}, // right
		{4, 0, 3, 7}, // left
		{3, 2, 6, 7}, // top
		{4, 5, 1, 0}, // bottom
	}

	vertices := make([]Vertex, 0, 36)
	for _, f := range faces {
		vertices = append(vertices, quad(corners[f[0]], corners[f[1]], corners[f[2]], corners[f[3]], color)...)
	}
	return vertices
}
