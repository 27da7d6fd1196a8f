// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unsafe"
)

const shaderSuffix = ".spv"

// ListPrograms walks dir for compiled shaders and returns the program
// stems that have both stages present, relative to dir. File names are
// expected to be <stem>.<stage>.spv, where stage is vert or frag.
func ListPrograms(dir string) ([]string, error) {
	stages := map[string]int{}
	if err := filepath.Walk(dir, func(path string, f os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if f.IsDir() || !strings.HasSuffix(f.Name(), shaderSuffix) {
			return nil
		}

		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		shader := strings.TrimSuffix(filepath.ToSlash(rel), shaderSuffix)
		dot := strings.LastIndex(shader, ".")
		if dot < 0 {
			return nil
		}

		switch ShaderTypeFromName(shader[dot+1:]) {
		case VertexShaderType:
			stages[shader[:dot]] |= 1
		case FragmentShaderType:
			stages[shader[:dot]] |= 2
		}
		return nil
	}); err != nil {
		return nil, err
	}

	var programs []string
	for stem, mask := range stages {
		if mask == 3 {
			programs = append(programs, stem)
		}
	}
	sort.Strings(programs)
	return programs, nil
}

// ShaderFileName returns the compiled shader file name of a program stage.
func ShaderFileName(stem string, shaderType ShaderType) string {
	return stem + "." + shaderType.String() + shaderSuffix
}

// SliceUint32 reslices bytes into a uint32, that is used
// to sumbit vulkan shaders for processing
func SliceUint32(data []byte) []uint32 {
	if len(data) < 4 {
		return nil
	}
	return unsafe.Slice((*uint32)(unsafe.Pointer(&data[0])), len(data)/4)
}

// SafeString null terminates s for the C side.
func SafeString(s string) string {
	if strings.HasSuffix(s, "\x00") {
		return s
	}
	return s + "\x00"
}

// SafeStrings null terminates every string of sgs.
func SafeStrings(sgs []string) []string {
	safe := make([]string, 0, len(sgs))
	for _, s := range sgs {
		safe = append(safe, SafeString(s))
	}
	return safe
}
