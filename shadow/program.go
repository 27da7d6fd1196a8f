// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package shadow

import (
	"fmt"

	"github.com/devblok/shadowmap/core"
	"github.com/devblok/shadowmap/gfx"
	vk "github.com/vulkan-go/vulkan"
)

// Program is a vertex and fragment shader module pair.
type Program struct {
	Vertex   vk.ShaderModule
	Fragment vk.ShaderModule
}

// LoadProgram creates both modules of the program named stem.
func LoadProgram(dev gfx.Device, src core.ShaderSource, stem string) (Program, error) {
	var p Program
	for _, stage := range []struct {
		shaderType core.ShaderType
		module     *vk.ShaderModule
	}{
		{core.VertexShaderType, &p.Vertex},
		{core.FragmentShaderType, &p.Fragment},
	} {
		name := core.ShaderFileName(stem, stage.shaderType)
		code, err := src.ReadAll(name)
		if err != nil {
			p.Destroy(dev)
			return Program{}, fmt.Errorf("shader %s: %s", name, err)
		}
		module, err := dev.CreateShaderModule(code)
		if err != nil {
			p.Destroy(dev)
			return Program{}, fmt.Errorf("shader %s: %s", name, err)
		}
		*stage.module = module
	}
	return p, nil
}

// Stages describes the program for pipeline creation.
func (p *Program) Stages() []vk.PipelineShaderStageCreateInfo {
	return []vk.PipelineShaderStageCreateInfo{
		{
			SType:  vk.StructureTypePipelineShaderStageCreateInfo,
			Stage:  vk.ShaderStageVertexBit,
			Module: p.Vertex,
			PName:  core.SafeString("main"),
		},
		{
			SType:  vk.StructureTypePipelineShaderStageCreateInfo,
			Stage:  vk.ShaderStageFragmentBit,
			Module: p.Fragment,
			PName:  core.SafeString("main"),
		},
	}
}

// Destroy releases both modules.
func (p *Program) Destroy(dev gfx.Device) {
	if p.Vertex != nil {
		dev.DestroyShaderModule(p.Vertex)
	}
	if p.Fragment != nil {
		dev.DestroyShaderModule(p.Fragment)
	}
	*p = Program{}
}
