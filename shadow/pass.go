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

// Pass is a render pass with everything needed to draw with it.
// Sampler, DescriptorPool and DescriptorSet are only used by the color pass.
type Pass struct {
	Extent              vk.Extent2D
	Depth               DepthTarget
	RenderPass          vk.RenderPass
	Framebuffers        []vk.Framebuffer
	Program             Program
	DescriptorSetLayout vk.DescriptorSetLayout
	PipelineLayout      vk.PipelineLayout
	Pipeline            vk.Pipeline

	Sampler        vk.Sampler
	DescriptorPool vk.DescriptorPool
	DescriptorSet  vk.DescriptorSet
}

// passResources are the collaborators passes are built from.
type passResources struct {
	device      gfx.Device
	allocator   gfx.Allocator
	shaders     core.ShaderSource
	depthFormat vk.Format
}

// newShadowPass builds the depth only pass rendering from the light.
// The depth image ends up readable by shaders.
func newShadowPass(res passResources, extent vk.Extent2D, images int) (Pass, error) {
	dev := res.device
	p := Pass{Extent: extent}

	var err error
	if p.Depth, err = NewDepthTarget(dev, res.allocator, res.depthFormat, extent,
		vk.ImageUsageDepthStencilAttachmentBit|vk.ImageUsageSampledBit); err != nil {
		return p.fail(dev, "shadow depth target", err)
	}

	if p.RenderPass, err = dev.CreateRenderPass(&vk.RenderPassCreateInfo{
		SType:           vk.StructureTypeRenderPassCreateInfo,
		AttachmentCount: 1,
		PAttachments: []vk.AttachmentDescription{{
			Format:         res.depthFormat,
			Samples:        vk.SampleCount1Bit,
			LoadOp:         vk.AttachmentLoadOpClear,
			StoreOp:        vk.AttachmentStoreOpStore,
			StencilLoadOp:  vk.AttachmentLoadOpDontCare,
			StencilStoreOp: vk.AttachmentStoreOpDontCare,
			InitialLayout:  vk.ImageLayoutUndefined,
			FinalLayout:    vk.ImageLayoutShaderReadOnlyOptimal,
		}},
		SubpassCount: 1,
		PSubpasses: []vk.SubpassDescription{{
			PipelineBindPoint: vk.PipelineBindPointGraphics,
			PDepthStencilAttachment: &vk.AttachmentReference{
				Attachment: 0,
				Layout:     vk.ImageLayoutDepthStencilAttachmentOptimal,
			},
		}},
		DependencyCount: 2,
		PDependencies:   depthDependencies(),
	}); err != nil {
		return p.fail(dev, "shadow render pass", err)
	}

	for i := 0; i < images; i++ {
		framebuffer, err := p.createFramebuffer(dev, p.Depth.View)
		if err != nil {
			return p.fail(dev, fmt.Sprintf("shadow framebuffer %d", i), err)
		}
		p.Framebuffers = append(p.Framebuffers, framebuffer)
	}

	if p.Program, err = LoadProgram(dev, res.shaders, ShadowProgram); err != nil {
		return p.fail(dev, "shadow program", err)
	}

	if p.DescriptorSetLayout, err = dev.CreateDescriptorSetLayout(&vk.DescriptorSetLayoutCreateInfo{
		SType: vk.StructureTypeDescriptorSetLayoutCreateInfo,
	}); err != nil {
		return p.fail(dev, "shadow descriptor set layout", err)
	}

	if p.PipelineLayout, err = createPipelineLayout(dev, p.DescriptorSetLayout, shadowPushSize); err != nil {
		return p.fail(dev, "shadow pipeline layout", err)
	}

	if p.Pipeline, err = createPipeline(dev, &p, false); err != nil {
		return p.fail(dev, "shadow pipeline", err)
	}
	return p, nil
}

// newColorPass builds the pass rendering the scene into the swapchain
// images while sampling shadowMap.
func newColorPass(res passResources, window gfx.Window, shadowMap vk.ImageView) (Pass, error) {
	dev := res.device
	p := Pass{Extent: window.Extent()}

	var err error
	if p.Depth, err = NewDepthTarget(dev, res.allocator, res.depthFormat, p.Extent,
		vk.ImageUsageDepthStencilAttachmentBit); err != nil {
		return p.fail(dev, "color depth target", err)
	}

	if p.RenderPass, err = dev.CreateRenderPass(&vk.RenderPassCreateInfo{
		SType:           vk.StructureTypeRenderPassCreateInfo,
		AttachmentCount: 2,
		PAttachments: []vk.AttachmentDescription{
			{
				Format:         window.ImageFormat(),
				Samples:        vk.SampleCount1Bit,
				LoadOp:         vk.AttachmentLoadOpClear,
				StoreOp:        vk.AttachmentStoreOpStore,
				StencilLoadOp:  vk.AttachmentLoadOpDontCare,
				StencilStoreOp: vk.AttachmentStoreOpDontCare,
				InitialLayout:  vk.ImageLayoutUndefined,
				FinalLayout:    vk.ImageLayoutPresentSrc,
			},
			{
				Format:         res.depthFormat,
				Samples:        vk.SampleCount1Bit,
				LoadOp:         vk.AttachmentLoadOpClear,
				StoreOp:        vk.AttachmentStoreOpStore,
				StencilLoadOp:  vk.AttachmentLoadOpDontCare,
				StencilStoreOp: vk.AttachmentStoreOpDontCare,
				InitialLayout:  vk.ImageLayoutUndefined,
				FinalLayout:    vk.ImageLayoutDepthStencilAttachmentOptimal,
			},
		},
		SubpassCount: 1,
		PSubpasses: []vk.SubpassDescription{{
			PipelineBindPoint:    vk.PipelineBindPointGraphics,
			ColorAttachmentCount: 1,
			PColorAttachments: []vk.AttachmentReference{{
				Attachment: 0,
				Layout:     vk.ImageLayoutColorAttachmentOptimal,
			}},
			PDepthStencilAttachment: &vk.AttachmentReference{
				Attachment: 1,
				Layout:     vk.ImageLayoutDepthStencilAttachmentOptimal,
			},
		}},
		DependencyCount: 2,
		PDependencies:   depthDependencies(),
	}); err != nil {
		return p.fail(dev, "color render pass", err)
	}

	for i, view := range window.ImageViews() {
		framebuffer, err := p.createFramebuffer(dev, view, p.Depth.View)
		if err != nil {
			return p.fail(dev, fmt.Sprintf("color framebuffer %d", i), err)
		}
		p.Framebuffers = append(p.Framebuffers, framebuffer)
	}

	if p.Program, err = LoadProgram(dev, res.shaders, ColorProgram); err != nil {
		return p.fail(dev, "color program", err)
	}

	if p.DescriptorSetLayout, err = dev.CreateDescriptorSetLayout(&vk.DescriptorSetLayoutCreateInfo{
		SType:        vk.StructureTypeDescriptorSetLayoutCreateInfo,
		BindingCount: 1,
		PBindings: []vk.DescriptorSetLayoutBinding{{
			Binding:         0,
			DescriptorType:  vk.DescriptorTypeCombinedImageSampler,
			DescriptorCount: 1,
			StageFlags:      vk.ShaderStageFlags(vk.ShaderStageFragmentBit),
		}},
	}); err != nil {
		return p.fail(dev, "color descriptor set layout", err)
	}

	if p.DescriptorPool, err = dev.CreateDescriptorPool(&vk.DescriptorPoolCreateInfo{
		SType:         vk.StructureTypeDescriptorPoolCreateInfo,
		MaxSets:       1,
		PoolSizeCount: 1,
		PPoolSizes: []vk.DescriptorPoolSize{{
			Type:            vk.DescriptorTypeCombinedImageSampler,
			DescriptorCount: 1,
		}},
	}); err != nil {
		return p.fail(dev, "color descriptor pool", err)
	}

	if p.DescriptorSet, err = dev.AllocateDescriptorSet(p.DescriptorPool, p.DescriptorSetLayout); err != nil {
		return p.fail(dev, "color descriptor set", err)
	}

	if p.Sampler, err = dev.CreateSampler(&vk.SamplerCreateInfo{
		SType:                   vk.StructureTypeSamplerCreateInfo,
		MagFilter:               vk.FilterNearest,
		MinFilter:               vk.FilterNearest,
		MipmapMode:              vk.SamplerMipmapModeNearest,
		AddressModeU:            vk.SamplerAddressModeClampToBorder,
		AddressModeV:            vk.SamplerAddressModeClampToBorder,
		AddressModeW:            vk.SamplerAddressModeClampToBorder,
		MipLodBias:              0,
		AnisotropyEnable:        vk.False,
		MaxAnisotropy:           1,
		CompareEnable:           vk.False,
		CompareOp:               vk.CompareOpNever,
		MinLod:                  0,
		MaxLod:                  0,
		BorderColor:             vk.BorderColorFloatOpaqueWhite,
		UnnormalizedCoordinates: vk.False,
	}); err != nil {
		return p.fail(dev, "shadow map sampler", err)
	}

	if p.PipelineLayout, err = createPipelineLayout(dev, p.DescriptorSetLayout, colorPushSize); err != nil {
		return p.fail(dev, "color pipeline layout", err)
	}

	if p.Pipeline, err = createPipeline(dev, &p, true); err != nil {
		return p.fail(dev, "color pipeline", err)
	}

	dev.UpdateDescriptorSets([]vk.WriteDescriptorSet{{
		SType:           vk.StructureTypeWriteDescriptorSet,
		DstSet:          p.DescriptorSet,
		DstBinding:      0,
		DescriptorCount: 1,
		DescriptorType:  vk.DescriptorTypeCombinedImageSampler,
		PImageInfo: []vk.DescriptorImageInfo{{
			Sampler:     p.Sampler,
			ImageView:   shadowMap,
			ImageLayout: vk.ImageLayoutShaderReadOnlyOptimal,
		}},
	}})
	return p, nil
}

func (p *Pass) createFramebuffer(dev gfx.Device, attachments ...vk.ImageView) (vk.Framebuffer, error) {
	return dev.CreateFramebuffer(&vk.FramebufferCreateInfo{
		SType:           vk.StructureTypeFramebufferCreateInfo,
		RenderPass:      p.RenderPass,
		AttachmentCount: uint32(len(attachments)),
		PAttachments:    attachments,
		Width:           p.Extent.Width,
		Height:          p.Extent.Height,
		Layers:          1,
	})
}

func (p *Pass) fail(dev gfx.Device, what string, err error) (Pass, error) {
	p.Destroy(dev)
	return Pass{}, fmt.Errorf("%s: %s", what, err)
}

// Destroy releases everything the pass holds, in reverse order of creation.
// Safe to call on a zero or already destroyed Pass.
func (p *Pass) Destroy(dev gfx.Device) {
	if p.Pipeline != nil {
		dev.DestroyPipeline(p.Pipeline)
	}
	if p.PipelineLayout != nil {
		dev.DestroyPipelineLayout(p.PipelineLayout)
	}
	if p.Sampler != nil {
		dev.DestroySampler(p.Sampler)
	}
	if p.DescriptorSetLayout != nil {
		dev.DestroyDescriptorSetLayout(p.DescriptorSetLayout)
	}
	// the descriptor set goes with its pool
	if p.DescriptorPool != nil {
		dev.DestroyDescriptorPool(p.DescriptorPool)
	}
	p.Program.Destroy(dev)
	for _, framebuffer := range p.Framebuffers {
		dev.DestroyFramebuffer(framebuffer)
	}
	if p.RenderPass != nil {
		dev.DestroyRenderPass(p.RenderPass)
	}
	p.Depth.Destroy(dev)
	*p = Pass{}
}
