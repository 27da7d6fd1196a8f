// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package model

import (
	"errors"
	"fmt"

	"github.com/devblok/shadowmap/util/collada"
	glm "github.com/go-gl/mathgl/mgl32"
)

// ImportCollada reads the triangles of the first geometry of a Collada
// document. Vertices are painted with color, missing normals are
// computed per face.
func ImportCollada(fileContents []byte, color glm.Vec4) ([]Vertex, error) {
	doc, err := collada.Decode(fileContents)
	if err != nil {
		return nil, err
	}
	if len(doc.Geometries) == 0 {
		return nil, errors.New("collada: no geometry")
	}

	mesh := &doc.Geometries[0].Mesh
	var vertices []Vertex
	for _, triangles := range mesh.Triangles {
		imported, err := importTriangles(mesh, &triangles, color)
		if err != nil {
			return nil, fmt.Errorf("collada %s: %s", doc.Geometries[0].ID, err)
		}
		vertices = append(vertices, imported...)
	}
	if len(vertices) == 0 {
		return nil, errors.New("collada: geometry has no triangles")
	}
	return vertices, nil
}

func importTriangles(mesh *collada.Mesh, triangles *collada.Triangles, color glm.Vec4) ([]Vertex, error) {
	vertexInput, ok := triangles.Input(collada.SemanticVertex)
	if !ok {
		return nil, errors.New("triangles have no VERTEX input")
	}
	positions, err := mesh.Lookup(vertexInput.Source)
	if err != nil {
		return nil, err
	}

	var normals *collada.Source
	normalInput, hasNormals := triangles.Input(collada.SemanticNormal)
	if hasNormals {
		if normals, err = mesh.Lookup(normalInput.Source); err != nil {
			return nil, err
		}
	}

	stride := triangles.Stride()
	if stride == 0 || len(triangles.Index)%(3*stride) != 0 {
		return nil, errors.New("index list does not hold whole triangles")
	}

	vertices := make([]Vertex, 0, len(triangles.Index)/stride)
	for base := 0; base < len(triangles.Index); base += stride {
		indices := triangles.Index[base : base+stride]

		pos, err := positions.Vec3(indices[vertexInput.Offset])
		if err != nil {
			return nil, err
		}
		vert := Vertex{
			Position: point(glm.Vec3(pos)),
			Color:    color,
		}
		if normals != nil {
			n, err := normals.Vec3(indices[normalInput.Offset])
			if err != nil {
				return nil, err
			}
			vert.Normal = direction(glm.Vec3(n))
		}
		vertices = append(vertices, vert)
	}

	if normals == nil {
		faceNormals(vertices)
	}
	return vertices, nil
}

func faceNormals(vertices []Vertex) {
	for idx := 0; idx+2 < len(vertices); idx += 3 {
		a, b, c := vertices[idx].Position.Vec3(), vertices[idx+1].Position.Vec3(), vertices[idx+2].Position.Vec3()
		n := direction(b.Sub(a).Cross(c.Sub(a)).Normalize())
		vertices[idx].Normal, vertices[idx+1].Normal, vertices[idx+2].Normal = n, n, n
	}
}
