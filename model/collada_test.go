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

const quad = `<COLLADA>
  <library_geometries>
    <geometry id="Quad-mesh" name="Quad">
      <mesh>
        <source id="Quad-mesh-positions">
          <float_array id="Quad-mesh-positions-array" count="12">-1 -1 0 1 -1 0 1 1 0 -1 1 0</float_array>
          <technique_common><accessor count="4" stride="3"/></technique_common>
        </source>
        <source id="Quad-mesh-normals">
          <float_array id="Quad-mesh-normals-array" count="3">0 0 1</float_array>
          <technique_common><accessor count="1" stride="3"/></technique_common>
        </source>
        <vertices id="Quad-mesh-vertices">
          <input semantic="POSITION" source="#Quad-mesh-positions"/>
        </vertices>
        <triangles count="2">
          <input semantic="VERTEX" source="#Quad-mesh-vertices" offset="0"/>
          <input semantic="NORMAL" source="#Quad-mesh-normals" offset="1"/>
          <p>0 0 1 0 2 0 0 0 2 0 3 0</p>
        </triangles>
      </mesh>
    </geometry>
  </library_geometries>
</COLLADA>`

const quadNoNormals = `<COLLADA>
  <library_geometries>
    <geometry id="Tri-mesh">
      <mesh>
        <source id="Tri-mesh-positions">
          <float_array id="Tri-mesh-positions-array" count="9">0 0 0 1 0 0 0 1 0</float_array>
        </source>
        <vertices id="Tri-mesh-vertices">
          <input semantic="POSITION" source="#Tri-mesh-positions"/>
        </vertices>
        <triangles count="1">
          <input semantic="VERTEX" source="#Tri-mesh-vertices" offset="0"/>
          <p>0 1 2</p>
        </triangles>
      </mesh>
    </geometry>
  </library_geometries>
</COLLADA>`

func TestImportCollada(t *testing.T) {
	c := qt.New(t)

	vertices, err := model.ImportCollada([]byte(quad), red)
	c.Assert(err, qt.IsNil)
	c.Assert(vertices, qt.HasLen, 6)
	c.Assert(vertices[2].Position, qt.Equals, glm.Vec4{1, 1, 0, 1})
	c.Assert(vertices[5].Position, qt.Equals, glm.Vec4{-1, 1, 0, 1})
	for _, v := range vertices {
		c.Assert(v.Normal, qt.Equals, glm.Vec4{0, 0, 1, 0})
		c.Assert(v.Color, qt.Equals, red)
	}
}

func TestImportColladaFaceNormals(t *testing.T) {
	c := qt.New(t)

	vertices, err := model.ImportCollada([]byte(quadNoNormals), red)
	c.Assert(err, qt.IsNil)
	c.Assert(vertices, qt.HasLen, 3)
	for _, v := range vertices {
		c.Assert(v.Normal, qt.Equals, glm.Vec4{0, 0, 1, 0})
	}
}

func TestImportColladaErrors(t *testing.T) {
	c := qt.New(t)

	_, err := model.ImportCollada([]byte("<COLLADA></COLLADA>"), red)
	c.Assert(err, qt.ErrorMatches, "collada: no geometry")

	_, err = model.ImportCollada([]byte("not xml at all <"), red)
	c.Assert(err, qt.Not(qt.IsNil))
}
