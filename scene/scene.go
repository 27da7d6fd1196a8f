// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package scene provides the static scenes rendered by the shadow renderer.
package scene

import (
	"math"
	"time"

	"github.com/devblok/shadowmap/model"
	glm "github.com/go-gl/mathgl/mgl32"
	vk "github.com/vulkan-go/vulkan"
)

// ShadowMapSize is the resolution of the default scene's shadow map.
const ShadowMapSize = 1024

var (
	floorColor = glm.Vec4{0.8, 0.8, 0.8, 1}
	cubeColor  = glm.Vec4{0.9, 0.4, 0.2, 1}
	up         = glm.Vec3{0, 1, 0}
)

// Options configure the default scene.
type Options struct {
	// Aspect is the width to height ratio of the window.
	Aspect float32

	// LightSpeed is the orbit speed of the light in radians per second.
	LightSpeed float64

	// Extra objects placed in the scene, such as an imported model.
	Extra []model.RenderObject
}

// NewDefault creates a scene with a floor plane and a few cubes
// lit by a light circling above them.
func NewDefault(opts Options) *Default {
	if opts.Aspect <= 0 {
		opts.Aspect = 4.0 / 3.0
	}
	if opts.LightSpeed == 0 {
		opts.LightSpeed = 0.5
	}

	objects := []model.RenderObject{
		{Model: glm.Ident4(), Vertices: model.Plane(20, floorColor)},
		{Model: glm.Translate3D(0, 1, 0), Vertices: model.Cube(2, cubeColor)},
		{Model: glm.Translate3D(-4, 0.5, 2).Mul4(glm.HomogRotate3DY(glm.DegToRad(30))), Vertices: model.Cube(1, cubeColor)},
		{Model: glm.Translate3D(3, 0.75, -3).Mul4(glm.HomogRotate3DY(glm.DegToRad(-15))), Vertices: model.Cube(1.5, cubeColor)},
	}
	objects = append(objects, opts.Extra...)

	return &Default{
		objects:     objects,
		speed:       opts.LightSpeed,
		lightRadius: 8,
		lightHeight: 10,
		lightProj:   glm.Perspective(glm.DegToRad(60), 1, 1, 50),
		camera: glm.Perspective(glm.DegToRad(45), opts.Aspect, 0.1, 100).
			Mul4(glm.LookAtV(glm.Vec3{0, 10, 18}, glm.Vec3{}, up)),
	}
}

// Default is the default shadow mapping scene.
type Default struct {
	objects []model.RenderObject

	angle       float64
	speed       float64
	lightRadius float32
	lightHeight float32
	lightProj   glm.Mat4
	camera      glm.Mat4
}

// RenderObjects returns the static objects of the scene.
func (d *Default) RenderObjects() []model.RenderObject {
	return d.objects
}

// LightPosition is the current position of the light.
func (d *Default) LightPosition() glm.Vec3 {
	return glm.Vec3{
		d.lightRadius * float32(math.Cos(d.angle)),
		d.lightHeight,
		d.lightRadius * float32(math.Sin(d.angle)),
	}
}

// ShadowMatrix is the view-projection of the light.
func (d *Default) ShadowMatrix() glm.Mat4 {
	return d.lightProj.Mul4(glm.LookAtV(d.LightPosition(), glm.Vec3{}, up))
}

// RenderMatrix is the view-projection of the camera.
func (d *Default) RenderMatrix() glm.Mat4 {
	return d.camera
}

// ShadowMapSize implements shadow.Scene
func (d *Default) ShadowMapSize() vk.Extent2D {
	return vk.Extent2D{Width: ShadowMapSize, Height: ShadowMapSize}
}

// Update moves the light along its orbit.
func (d *Default) Update(dt time.Duration) {
	d.angle = math.Mod(d.angle+dt.Seconds()*d.speed, 2*math.Pi)
}
