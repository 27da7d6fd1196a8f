// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core

import (
	"io/ioutil"
	"path/filepath"
	"strings"

	"github.com/devblok/shadowmap/utility/kar"
	"github.com/gobuffalo/packd"
)

// ShaderSource supplies compiled SPIR-V by file name, for example "shadowmap.vert.spv".
type ShaderSource interface {
	ReadAll(name string) ([]byte, error)
}

// DirSource reads shaders from a directory on disk.
type DirSource string

// ReadAll implements ShaderSource
func (d DirSource) ReadAll(name string) ([]byte, error) {
	return ioutil.ReadFile(filepath.Join(string(d), filepath.FromSlash(name)))
}

// FinderSource reads shaders through a packd.Finder, such as a packr box.
type FinderSource struct {
	packd.Finder
}

// ReadAll implements ShaderSource
func (f FinderSource) ReadAll(name string) ([]byte, error) {
	return f.Find(name)
}

// ArchiveSource reads shaders from a kar archive.
type ArchiveSource struct {
	*kar.Archive
}

// Close unmaps the archive.
func (a ArchiveSource) Close() error {
	return a.Archive.Close()
}

// OpenShaderSource opens path as a kar archive when it has a .kar
// extension and as a shader directory otherwise.
func OpenShaderSource(path string) (ShaderSource, error) {
	if strings.EqualFold(filepath.Ext(path), ".kar") {
		ar, err := kar.OpenFile(path)
		if err != nil {
			return nil, err
		}
		return ArchiveSource{ar}, nil
	}
	return DirSource(path), nil
}
