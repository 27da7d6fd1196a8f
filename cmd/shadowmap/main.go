// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

//go:generate glslangValidator -V shaders/shadowmap.vert -o shaders/shadowmap.vert.spv
//go:generate glslangValidator -V shaders/shadowmap.frag -o shaders/shadowmap.frag.spv
//go:generate glslangValidator -V shaders/render.vert -o shaders/render.vert.spv
//go:generate glslangValidator -V shaders/render.frag -o shaders/render.frag.spv

package main

import (
	"context"
	"flag"
	"io"
	"io/ioutil"
	"os"
	"os/signal"
	"runtime"
	"runtime/pprof"
	"runtime/trace"

	"github.com/devblok/shadowmap/core"
	"github.com/devblok/shadowmap/gfx/vkr"
	"github.com/devblok/shadowmap/model"
	"github.com/devblok/shadowmap/platform/glfwwindow"
	"github.com/devblok/shadowmap/platform/sdlwindow"
	"github.com/devblok/shadowmap/scene"
	"github.com/devblok/shadowmap/shadow"
	glm "github.com/go-gl/mathgl/mgl32"
	"github.com/gobuffalo/envy"
	"github.com/gobuffalo/packr"
	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
)

func init() {
	runtime.LockOSThread()
}

// Profiling
var (
	cpuProfile   = flag.String("cpuprof", "", "Profile CPU usage to file")
	memProfile   = flag.String("memprof", "", "Profile memory usage into a file")
	traceProfile = flag.String("trace", "", "Trace output for profiling")
	debug        = flag.Bool("vkdbg", false, "Load Vulkan validation layers")
	envFile      = flag.String("env", ".env", "Environment file with configuration overrides")
)

var modelColor = glm.Vec4{0.8, 0.3, 0.2, 1}

func main() {
	flag.Parse()

	if err := godotenv.Load(*envFile); err != nil && !os.IsNotExist(err) {
		log.Fatal(err)
	}
	envy.Reload()

	cfg, err := core.LoadConfiguration()
	if err != nil {
		log.Fatal(err)
	}
	if *debug {
		cfg.Instance.DebugMode = true
	}

	logger, err := core.NewLogger(cfg.Log)
	if err != nil {
		log.Fatal(err)
	}

	if *cpuProfile != "" {
		f, err := os.Create(*cpuProfile)
		if err != nil {
			logger.Fatal(err)
		}
		if err := pprof.StartCPUProfile(f); err != nil {
			logger.Fatal(err)
		}
		defer pprof.StopCPUProfile()
	}

	if *traceProfile != "" {
		f, err := os.Create(*traceProfile)
		if err != nil {
			logger.Fatal(err)
		}
		if err := trace.Start(f); err != nil {
			logger.Fatal(err)
		}
		defer trace.Stop()
	}

	if err := run(cfg, logger); err != nil {
		logger.Error(err)
	}

	if *memProfile != "" {
		f, err := os.Create(*memProfile)
		if err != nil {
			logger.Fatal(err)
		}
		if err := pprof.WriteHeapProfile(f); err != nil {
			logger.Fatal(err)
		}
		f.Close()
	}
}

func newWindow(cfg core.Configuration) (core.PlatformWindow, error) {
	width, height := cfg.Renderer.ScreenWidth, cfg.Renderer.ScreenHeight
	if cfg.Window.Backend == core.WindowGLFW {
		return glfwwindow.New(cfg.Window, width, height)
	}
	return sdlwindow.New(cfg.Window, width, height)
}

func shaderSource(path string) (core.ShaderSource, error) {
	if path == core.DefaultConfiguration().Shaders {
		return core.FinderSource{Finder: packr.NewBox("./shaders")}, nil
	}
	return core.OpenShaderSource(path)
}

func loadScene(cfg core.Configuration, aspect float32) (*scene.Default, error) {
	opts := scene.Options{Aspect: aspect}
	if cfg.Model != "" {
		data, err := ioutil.ReadFile(cfg.Model)
		if err != nil {
			return nil, err
		}
		vertices, err := model.ImportCollada(data, modelColor)
		if err != nil {
			return nil, err
		}
		opts.Extra = append(opts.Extra, model.RenderObject{
			Model:    glm.Translate3D(0, 1, 0),
			Vertices: vertices,
		})
	}
	return scene.NewDefault(opts), nil
}

func run(cfg core.Configuration, logger *log.Logger) error {
	window, err := newWindow(cfg)
	if err != nil {
		return err
	}
	defer window.Destroy()

	cfg.Instance.Extensions = append(cfg.Instance.Extensions, window.InstanceExtensions()...)
	instance, err := core.NewInstance(core.DefaultVulkanApplicationInfo, window.ProcAddr(), cfg.Instance)
	if err != nil {
		return err
	}
	defer instance.Destroy()

	surface, err := window.CreateSurface(instance.Get())
	if err != nil {
		return err
	}
	defer instance.DestroySurface(surface)

	physicalDevice, info, err := instance.SelectDevice(cfg.Renderer.DeviceExtensions)
	if err != nil {
		return err
	}
	logger.WithFields(log.Fields{
		"name":   info.Name,
		"vendor": info.VendorID,
		"memory": info.Memory,
	}).Info("physical device selected")

	device, queue, err := vkr.NewDevice(physicalDevice, surface, cfg.Renderer.DeviceExtensions, logger)
	if err != nil {
		return err
	}
	defer device.Release()

	clock := core.NewTime(cfg.Time)
	defer clock.Stop()

	display, err := core.NewDisplay(physicalDevice, device.Get(), surface, window, clock, cfg.Renderer, logger)
	if err != nil {
		return err
	}
	defer display.Destroy()

	shaders, err := shaderSource(cfg.Shaders)
	if err != nil {
		return err
	}
	if closer, ok := shaders.(io.Closer); ok {
		defer closer.Close()
	}

	extent := display.Extent()
	sc, err := loadScene(cfg, float32(extent.Width)/float32(extent.Height))
	if err != nil {
		return err
	}

	renderer := shadow.New(shadow.Collaborators{
		Device:    device,
		Queue:     queue,
		Allocator: vkr.NewMemoryAllocator(device.Get(), physicalDevice),
		Window:    display,
		Shaders:   shaders,
	}, sc, logger)
	if err := renderer.Setup(); err != nil {
		return err
	}
	defer renderer.Teardown()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	interrupts := make(chan os.Signal, 1)
	signal.Notify(interrupts, os.Interrupt)
	defer signal.Stop(interrupts)
	go func() {
		select {
		case <-interrupts:
			logger.Info("interrupted")
			cancel()
		case <-ctx.Done():
		}
	}()

	logger.Info("rendering")
	if err := renderer.Run(ctx); err != nil {
		return err
	}
	logger.WithField("frames", clock.Frames()).Info("render loop exited")
	return nil
}
