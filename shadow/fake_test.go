// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package shadow

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unsafe"

	"github.com/devblok/shadowmap/gfx"
	"github.com/devblok/shadowmap/model"
	glm "github.com/go-gl/mathgl/mgl32"
	vk "github.com/vulkan-go/vulkan"
)

// tracker hands out unique fake handles and tracks which are alive.
type tracker struct {
	keep     []*uint64
	live     map[unsafe.Pointer]string
	created  map[string]int
	problems []string

	failKind string
	failAt   int
}

func newTracker() *tracker {
	return &tracker{
		live:    map[unsafe.Pointer]string{},
		created: map[string]int{},
	}
}

func (t *tracker) create(kind string) (unsafe.Pointer, error) {
	if t.failKind == kind && t.created[kind]+1 == t.failAt {
		return nil, fmt.Errorf("injected %s failure", kind)
	}
	h := new(uint64)
	t.keep = append(t.keep, h)
	t.created[kind]++
	t.live[unsafe.Pointer(h)] = kind
	return unsafe.Pointer(h), nil
}

// unowned hands out a handle that is released together with its parent.
func (t *tracker) unowned() unsafe.Pointer {
	h := new(uint64)
	t.keep = append(t.keep, h)
	return unsafe.Pointer(h)
}

func (t *tracker) destroy(kind string, h unsafe.Pointer) {
	if h == nil {
		return
	}
	if t.live[h] != kind {
		t.problems = append(t.problems, fmt.Sprintf("destroying %s %p that is not alive", kind, h))
		return
	}
	delete(t.live, h)
}

func (t *tracker) alive() []string {
	var kinds []string
	for _, kind := range t.live {
		kinds = append(kinds, kind)
	}
	return kinds
}

func (t *tracker) count(kind string) int {
	n := 0
	for _, k := range t.live {
		if k == kind {
			n++
		}
	}
	return n
}

type pushRecord struct {
	layout vk.PipelineLayout
	values []float32
}

type drawRecord struct {
	cmd         vk.CommandBuffer
	vertexCount uint32
}

// fakeDevice records what the renderer asks of the GPU and checks
// fence and command buffer discipline the way a validation layer would.
type fakeDevice struct {
	*tracker

	depthFormats map[vk.Format]bool

	fenceSignaled map[vk.Fence]bool
	fenceWaits    map[vk.Fence]int
	fenceResets   map[vk.Fence]int
	inFlight      map[vk.CommandBuffer]vk.Fence
	recording     map[vk.CommandBuffer]bool

	imageOrder     []uint32
	acquireResults map[int]vk.Result
	acquires       []vk.Semaphore
	images         int

	calls       []string
	pushes      []pushRecord
	draws       []drawRecord
	copies      []vk.BufferCopy
	writes      []vk.WriteDescriptorSet
	pipelines   []*vk.GraphicsPipelineCreateInfo
	samplers    []*vk.SamplerCreateInfo
	renderPass  []*vk.RenderPassCreateInfo
	waitIdles   int
	commandBufs []vk.CommandBuffer
}

func newFakeDevice(images int) *fakeDevice {
	return &fakeDevice{
		tracker:        newTracker(),
		depthFormats:   map[vk.Format]bool{DefaultDepthFormat: true},
		fenceSignaled:  map[vk.Fence]bool{},
		fenceWaits:     map[vk.Fence]int{},
		fenceResets:    map[vk.Fence]int{},
		inFlight:       map[vk.CommandBuffer]vk.Fence{},
		recording:      map[vk.CommandBuffer]bool{},
		acquireResults: map[int]vk.Result{},
		images:         images,
	}
}

func (d *fakeDevice) problem(format string, args ...interface{}) {
	d.problems = append(d.problems, fmt.Sprintf(format, args...))
}

// complete finishes GPU work guarded by fence.
func (d *fakeDevice) complete(fence vk.Fence) {
	for cmd, f := range d.inFlight {
		if f == fence {
			delete(d.inFlight, cmd)
		}
	}
	if fence != nil {
		d.fenceSignaled[fence] = true
	}
}

func (d *fakeDevice) CreateImage(info *vk.ImageCreateInfo) (vk.Image, error) {
	h, err := d.create("image")
	return vk.Image(h), err
}

func (d *fakeDevice) DestroyImage(image vk.Image) {
	d.destroy("image", unsafe.Pointer(image))
}

func (d *fakeDevice) ImageMemoryRequirements(image vk.Image) vk.MemoryRequirements {
	return vk.MemoryRequirements{Size: 4096, Alignment: 256, MemoryTypeBits: 1}
}

func (d *fakeDevice) BindImageMemory(image vk.Image, memory vk.DeviceMemory, offset vk.DeviceSize) error {
	if d.live[unsafe.Pointer(image)] != "image" || d.live[unsafe.Pointer(memory)] != "memory" {
		d.problem("binding dead image or memory")
	}
	return nil
}

func (d *fakeDevice) FreeMemory(memory vk.DeviceMemory) {
	d.destroy("memory", unsafe.Pointer(memory))
}

func (d *fakeDevice) CreateImageView(info *vk.ImageViewCreateInfo) (vk.ImageView, error) {
	h, err := d.create("imageView")
	return vk.ImageView(h), err
}

func (d *fakeDevice) DestroyImageView(view vk.ImageView) {
	d.destroy("imageView", unsafe.Pointer(view))
}

func (d *fakeDevice) FormatProperties(format vk.Format) vk.FormatProperties {
	if d.depthFormats[format] {
		return vk.FormatProperties{
			OptimalTilingFeatures: vk.FormatFeatureFlags(vk.FormatFeatureDepthStencilAttachmentBit),
		}
	}
	return vk.FormatProperties{}
}

func (d *fakeDevice) CreateRenderPass(info *vk.RenderPassCreateInfo) (vk.RenderPass, error) {
	d.renderPass = append(d.renderPass, info)
	h, err := d.create("renderPass")
	return vk.RenderPass(h), err
}

func (d *fakeDevice) DestroyRenderPass(renderPass vk.RenderPass) {
	d.destroy("renderPass", unsafe.Pointer(renderPass))
}

func (d *fakeDevice) CreateFramebuffer(info *vk.FramebufferCreateInfo) (vk.Framebuffer, error) {
	h, err := d.create("framebuffer")
	return vk.Framebuffer(h), err
}

func (d *fakeDevice) DestroyFramebuffer(framebuffer vk.Framebuffer) {
	d.destroy("framebuffer", unsafe.Pointer(framebuffer))
}

func (d *fakeDevice) CreateShaderModule(code []byte) (vk.ShaderModule, error) {
	if len(code) == 0 {
		return nil, errors.New("empty shader")
	}
	h, err := d.create("shaderModule")
	return vk.ShaderModule(h), err
}

func (d *fakeDevice) DestroyShaderModule(module vk.ShaderModule) {
	d.destroy("shaderModule", unsafe.Pointer(module))
}

func (d *fakeDevice) CreateDescriptorSetLayout(info *vk.DescriptorSetLayoutCreateInfo) (vk.DescriptorSetLayout, error) {
	h, err := d.create("descriptorSetLayout")
	return vk.DescriptorSetLayout(h), err
}

func (d *fakeDevice) DestroyDescriptorSetLayout(layout vk.DescriptorSetLayout) {
	d.destroy("descriptorSetLayout", unsafe.Pointer(layout))
}

func (d *fakeDevice) CreateDescriptorPool(info *vk.DescriptorPoolCreateInfo) (vk.DescriptorPool, error) {
	h, err := d.create("descriptorPool")
	return vk.DescriptorPool(h), err
}

func (d *fakeDevice) DestroyDescriptorPool(pool vk.DescriptorPool) {
	d.destroy("descriptorPool", unsafe.Pointer(pool))
}

func (d *fakeDevice) AllocateDescriptorSet(pool vk.DescriptorPool, layout vk.DescriptorSetLayout) (vk.DescriptorSet, error) {
	if d.live[unsafe.Pointer(pool)] != "descriptorPool" {
		d.problem("allocating from a dead descriptor pool")
	}
	return vk.DescriptorSet(d.unowned()), nil
}

func (d *fakeDevice) UpdateDescriptorSets(writes []vk.WriteDescriptorSet) {
	d.writes = append(d.writes, writes...)
}

func (d *fakeDevice) CreateSampler(info *vk.SamplerCreateInfo) (vk.Sampler, error) {
	d.samplers = append(d.samplers, info)
	h, err := d.create("sampler")
	return vk.Sampler(h), err
}

func (d *fakeDevice) DestroySampler(sampler vk.Sampler) {
	d.destroy("sampler", unsafe.Pointer(sampler))
}

func (d *fakeDevice) CreatePipelineLayout(info *vk.PipelineLayoutCreateInfo) (vk.PipelineLayout, error) {
	h, err := d.create("pipelineLayout")
	return vk.PipelineLayout(h), err
}

func (d *fakeDevice) DestroyPipelineLayout(layout vk.PipelineLayout) {
	d.destroy("pipelineLayout", unsafe.Pointer(layout))
}

func (d *fakeDevice) CreateGraphicsPipeline(info *vk.GraphicsPipelineCreateInfo) (vk.Pipeline, error) {
	d.pipelines = append(d.pipelines, info)
	h, err := d.create("pipeline")
	return vk.Pipeline(h), err
}

func (d *fakeDevice) DestroyPipeline(pipeline vk.Pipeline) {
	d.destroy("pipeline", unsafe.Pointer(pipeline))
}

func (d *fakeDevice) CreateCommandPool(info *vk.CommandPoolCreateInfo) (vk.CommandPool, error) {
	if info.Flags&vk.CommandPoolCreateFlags(vk.CommandPoolCreateResetCommandBufferBit) == 0 {
		d.problem("command pool does not allow resetting buffers")
	}
	h, err := d.create("commandPool")
	return vk.CommandPool(h), err
}

func (d *fakeDevice) DestroyCommandPool(pool vk.CommandPool) {
	d.destroy("commandPool", unsafe.Pointer(pool))
	d.commandBufs = nil
}

func (d *fakeDevice) AllocateCommandBuffers(info *vk.CommandBufferAllocateInfo) ([]vk.CommandBuffer, error) {
	buffers := make([]vk.CommandBuffer, info.CommandBufferCount)
	for i := range buffers {
		buffers[i] = vk.CommandBuffer(d.unowned())
	}
	d.commandBufs = buffers
	return buffers, nil
}

func (d *fakeDevice) CreateSemaphore() (vk.Semaphore, error) {
	h, err := d.create("semaphore")
	return vk.Semaphore(h), err
}

func (d *fakeDevice) DestroySemaphore(semaphore vk.Semaphore) {
	d.destroy("semaphore", unsafe.Pointer(semaphore))
}

func (d *fakeDevice) CreateFence(signaled bool) (vk.Fence, error) {
	h, err := d.create("fence")
	if err != nil {
		return nil, err
	}
	fence := vk.Fence(h)
	d.fenceSignaled[fence] = signaled
	return fence, nil
}

func (d *fakeDevice) DestroyFence(fence vk.Fence) {
	d.destroy("fence", unsafe.Pointer(fence))
}

func (d *fakeDevice) WaitForFences(fences []vk.Fence, waitAll bool, timeout uint64) error {
	for _, fence := range fences {
		d.fenceWaits[fence]++
		d.complete(fence)
	}
	return nil
}

func (d *fakeDevice) ResetFences(fences []vk.Fence) error {
	for _, fence := range fences {
		if !d.fenceSignaled[fence] {
			d.problem("resetting an unsignaled fence")
		}
		d.fenceResets[fence]++
		d.fenceSignaled[fence] = false
	}
	return nil
}

func (d *fakeDevice) AcquireNextImage(swapchain vk.Swapchain, timeout uint64, semaphore vk.Semaphore) (uint32, vk.Result) {
	frame := len(d.acquires)
	d.acquires = append(d.acquires, semaphore)
	if result, ok := d.acquireResults[frame]; ok {
		return 0, result
	}
	if len(d.imageOrder) > 0 {
		return d.imageOrder[frame%len(d.imageOrder)], vk.Success
	}
	return uint32(frame % d.images), vk.Success
}

func (d *fakeDevice) WaitIdle() error {
	d.waitIdles++
	for _, fence := range d.inFlight {
		d.complete(fence)
	}
	d.inFlight = map[vk.CommandBuffer]vk.Fence{}
	return nil
}

func (d *fakeDevice) ResetCommandBuffer(cmd vk.CommandBuffer) error {
	if _, busy := d.inFlight[cmd]; busy {
		d.problem("resetting a command buffer the GPU still executes")
	}
	d.calls = append(d.calls, "reset")
	return nil
}

func (d *fakeDevice) BeginCommandBuffer(cmd vk.CommandBuffer, info *vk.CommandBufferBeginInfo) error {
	if _, busy := d.inFlight[cmd]; busy {
		d.problem("recording into a command buffer the GPU still executes")
	}
	d.recording[cmd] = true
	d.calls = append(d.calls, "begin")
	return nil
}

func (d *fakeDevice) EndCommandBuffer(cmd vk.CommandBuffer) error {
	if !d.recording[cmd] {
		d.problem("ending a command buffer that is not recording")
	}
	d.recording[cmd] = false
	d.calls = append(d.calls, "end")
	return nil
}

func (d *fakeDevice) CmdBindPipeline(cmd vk.CommandBuffer, bindPoint vk.PipelineBindPoint, pipeline vk.Pipeline) {
	d.calls = append(d.calls, "bindPipeline")
}

func (d *fakeDevice) CmdBindDescriptorSets(cmd vk.CommandBuffer, bindPoint vk.PipelineBindPoint, layout vk.PipelineLayout, firstSet uint32, sets []vk.DescriptorSet) {
	d.calls = append(d.calls, "bindDescriptorSets")
}

func (d *fakeDevice) CmdBeginRenderPass(cmd vk.CommandBuffer, info *vk.RenderPassBeginInfo, contents vk.SubpassContents) {
	d.calls = append(d.calls, "beginRenderPass")
}

func (d *fakeDevice) CmdEndRenderPass(cmd vk.CommandBuffer) {
	d.calls = append(d.calls, "endRenderPass")
}

func (d *fakeDevice) CmdPushConstants(cmd vk.CommandBuffer, layout vk.PipelineLayout, stages vk.ShaderStageFlags, offset uint32, values []float32) {
	d.calls = append(d.calls, "push")
	d.pushes = append(d.pushes, pushRecord{
		layout: layout,
		values: append([]float32(nil), values...),
	})
}

func (d *fakeDevice) CmdBindVertexBuffers(cmd vk.CommandBuffer, firstBinding uint32, buffers []vk.Buffer, offsets []vk.DeviceSize) {
	d.calls = append(d.calls, "bindVertexBuffers")
}

func (d *fakeDevice) CmdDraw(cmd vk.CommandBuffer, vertexCount, instanceCount, firstVertex, firstInstance uint32) {
	d.calls = append(d.calls, "draw")
	d.draws = append(d.draws, drawRecord{cmd: cmd, vertexCount: vertexCount})
}

func (d *fakeDevice) CmdCopyBuffer(cmd vk.CommandBuffer, src, dst vk.Buffer, regions []vk.BufferCopy) {
	d.calls = append(d.calls, "copyBuffer")
	d.copies = append(d.copies, regions...)
}

// frameCalls returns recorded calls starting with the last command buffer reset.
func (d *fakeDevice) frameCalls() string {
	for i := len(d.calls) - 1; i >= 0; i-- {
		if d.calls[i] == "reset" {
			return strings.Join(d.calls[i:], " ")
		}
	}
	return ""
}

type submitRecord struct {
	cmd    vk.CommandBuffer
	wait   []vk.Semaphore
	signal []vk.Semaphore
	fence  vk.Fence
}

type fakeQueue struct {
	device    *fakeDevice
	submits   []submitRecord
	presents  []uint32
	waitIdles int
}

func (q *fakeQueue) FamilyIndex() uint32 {
	return 0
}

func (q *fakeQueue) Submit(submits []vk.SubmitInfo, fence vk.Fence) error {
	d := q.device
	if fence != nil && d.fenceSignaled[fence] {
		d.problem("submitting with a fence that was not reset")
	}
	for _, s := range submits {
		for _, cmd := range s.PCommandBuffers {
			if _, busy := d.inFlight[cmd]; busy {
				d.problem("submitting a command buffer that is still executing")
			}
			if d.recording[cmd] {
				d.problem("submitting a command buffer that is still recording")
			}
			d.inFlight[cmd] = fence
			q.submits = append(q.submits, submitRecord{
				cmd:    cmd,
				wait:   s.PWaitSemaphores,
				signal: s.PSignalSemaphores,
				fence:  fence,
			})
		}
	}
	return nil
}

func (q *fakeQueue) Present(info *vk.PresentInfo) error {
	q.presents = append(q.presents, info.PImageIndices...)
	return nil
}

func (q *fakeQueue) WaitIdle() error {
	q.waitIdles++
	return q.device.WaitIdle()
}

type fakeAllocator struct {
	device  *fakeDevice
	buffers map[vk.Buffer][]byte
	usage   map[vk.Buffer]vk.BufferUsageFlags
	mapped  map[vk.Buffer]bool
	staging int
}

func newFakeAllocator(device *fakeDevice) *fakeAllocator {
	return &fakeAllocator{
		device:  device,
		buffers: map[vk.Buffer][]byte{},
		usage:   map[vk.Buffer]vk.BufferUsageFlags{},
		mapped:  map[vk.Buffer]bool{},
	}
}

func (a *fakeAllocator) AllocateDeviceLocal(req vk.MemoryRequirements) (vk.DeviceMemory, error) {
	h, err := a.device.create("memory")
	return vk.DeviceMemory(h), err
}

func (a *fakeAllocator) CreateStagingBuffer(size vk.DeviceSize) (gfx.Buffer, error) {
	a.staging++
	return a.CreateBuffer(size,
		vk.BufferUsageFlags(vk.BufferUsageTransferSrcBit),
		vk.MemoryPropertyFlags(vk.MemoryPropertyHostVisibleBit|vk.MemoryPropertyHostCoherentBit))
}

func (a *fakeAllocator) CreateBuffer(size vk.DeviceSize, usage vk.BufferUsageFlags, props vk.MemoryPropertyFlags) (gfx.Buffer, error) {
	b, err := a.device.create("buffer")
	if err != nil {
		return gfx.Buffer{}, err
	}
	m, err := a.device.create("memory")
	if err != nil {
		a.device.destroy("buffer", b)
		return gfx.Buffer{}, err
	}
	buffer := vk.Buffer(b)
	a.buffers[buffer] = make([]byte, size)
	a.usage[buffer] = usage
	return gfx.Buffer{Buffer: buffer, Memory: vk.DeviceMemory(m), Size: size}, nil
}

func (a *fakeAllocator) Map(buf gfx.Buffer) (unsafe.Pointer, error) {
	data := a.buffers[buf.Buffer]
	if len(data) == 0 {
		return nil, errors.New("mapping an unknown buffer")
	}
	a.mapped[buf.Buffer] = true
	return unsafe.Pointer(&data[0]), nil
}

func (a *fakeAllocator) Unmap(buf gfx.Buffer) {
	a.mapped[buf.Buffer] = false
}

func (a *fakeAllocator) DestroyBuffer(buf gfx.Buffer) {
	if a.mapped[buf.Buffer] {
		a.device.problem("destroying a mapped buffer")
	}
	a.device.destroy("buffer", unsafe.Pointer(buf.Buffer))
	a.device.destroy("memory", unsafe.Pointer(buf.Memory))
}

type fakeWindow struct {
	tracker    *tracker
	views      []vk.ImageView
	swapchain  vk.Swapchain
	closeAfter int
	updates    int
}

func newFakeWindow(t *tracker, images int) *fakeWindow {
	w := &fakeWindow{
		tracker:    t,
		swapchain:  vk.Swapchain(t.unowned()),
		closeAfter: -1,
	}
	for i := 0; i < images; i++ {
		w.views = append(w.views, vk.ImageView(t.unowned()))
	}
	return w
}

func (w *fakeWindow) Swapchain() vk.Swapchain    { return w.swapchain }
func (w *fakeWindow) ImageViews() []vk.ImageView { return w.views }
func (w *fakeWindow) ImageFormat() vk.Format     { return vk.FormatB8g8r8a8Unorm }
func (w *fakeWindow) Extent() vk.Extent2D        { return vk.Extent2D{Width: 800, Height: 600} }
func (w *fakeWindow) FrameTime() time.Duration   { return 16 * time.Millisecond }
func (w *fakeWindow) Update()                    { w.updates++ }
func (w *fakeWindow) ShouldClose() bool          { return w.closeAfter >= 0 && w.updates >= w.closeAfter }

type fakeScene struct {
	objects []model.RenderObject
	shadow  glm.Mat4
	render  glm.Mat4
	updates []time.Duration

	onUpdate func()
}

func triangleScene() *fakeScene {
	return &fakeScene{
		objects: []model.RenderObject{{
			Model:    glm.Ident4(),
			Vertices: model.Triangle(glm.Vec4{1, 1, 1, 1}),
		}},
		shadow: glm.Ident4(),
		render: glm.Ident4(),
	}
}

func (s *fakeScene) RenderObjects() []model.RenderObject { return s.objects }
func (s *fakeScene) ShadowMatrix() glm.Mat4              { return s.shadow }
func (s *fakeScene) RenderMatrix() glm.Mat4              { return s.render }
func (s *fakeScene) ShadowMapSize() vk.Extent2D          { return vk.Extent2D{Width: 1024, Height: 1024} }

func (s *fakeScene) Update(dt time.Duration) {
	s.updates = append(s.updates, dt)
	if s.onUpdate != nil {
		s.onUpdate()
	}
}

// fakeShaders serves a dummy SPIR-V blob for every shader name it is asked for.
type fakeShaders struct {
	requested []string
	missing   string
}

func (f *fakeShaders) ReadAll(name string) ([]byte, error) {
	f.requested = append(f.requested, name)
	if name == f.missing {
		return nil, fmt.Errorf("%s: no such file", name)
	}
	return []byte{0x03, 0x02, 0x23, 0x07}, nil
}

// harness wires a renderer to fakes.
type harness struct {
	device    *fakeDevice
	queue     *fakeQueue
	allocator *fakeAllocator
	window    *fakeWindow
	scene     *fakeScene
	shaders   *fakeShaders
	renderer  *Renderer
}
