// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gobuffalo/envy"
	vk "github.com/vulkan-go/vulkan"
)

// Environment keys that override the default configuration
const (
	EnvScreenWidth   = "SHADOWMAP_WIDTH"
	EnvScreenHeight  = "SHADOWMAP_HEIGHT"
	EnvSwapchainSize = "SHADOWMAP_SWAPCHAIN_SIZE"
	EnvFramesPerSec  = "SHADOWMAP_FPS"
	EnvWindow        = "SHADOWMAP_WINDOW"
	EnvShaders       = "SHADOWMAP_SHADERS"
	EnvModel         = "SHADOWMAP_MODEL"
	EnvLogLevel      = "SHADOWMAP_LOG_LEVEL"
	EnvDebug         = "SHADOWMAP_VK_DEBUG"
)

// Window backends
const (
	WindowSDL  = "sdl"
	WindowGLFW = "glfw"
)

// Configuration defines a global application configuration setting
type Configuration struct {
	Time     TimeConfiguration
	Instance InstanceConfiguration
	Renderer RendererConfiguration
	Window   WindowConfiguration
	Log      LogConfiguration

	// Shaders is either a directory of compiled shaders
	// or a kar archive containing them.
	Shaders string

	// Model is an optional Collada file added to the scene.
	Model string
}

// TimeConfiguration is used to configure time services
type TimeConfiguration struct {
	// FramesPerSecond caps frames per second that is put out
	// To unlimit, set to 0
	FramesPerSecond int
}

// InstanceConfiguration configures the Vulkan instance
type InstanceConfiguration struct {
	DebugMode  bool
	Extensions []string
	Layers     []string
}

// RendererConfiguration is used to configure the renderer
type RendererConfiguration struct {
	SwapchainSize    uint32
	DeviceExtensions []string

	ScreenWidth  uint32
	ScreenHeight uint32
}

// WindowConfiguration selects and describes the platform window
type WindowConfiguration struct {
	Backend string
	Title   string
}

// LogConfiguration configures the logger
type LogConfiguration struct {
	Level string
}

// DefaultConfiguration returns the configuration used
// when nothing is overridden.
func DefaultConfiguration() Configuration {
	return Configuration{
		Time: TimeConfiguration{
			FramesPerSecond: 60,
		},
		Renderer: RendererConfiguration{
			ScreenWidth:   800,
			ScreenHeight:  600,
			SwapchainSize: 3,
			DeviceExtensions: []string{
				vk.KhrSwapchainExtensionName,
			},
		},
		Window: WindowConfiguration{
			Backend: WindowSDL,
			Title:   "Shadow mapping",
		},
		Log: LogConfiguration{
			Level: "info",
		},
		Shaders: "./shaders",
	}
}

// LoadConfiguration returns the default configuration
// with environment overrides applied.
func LoadConfiguration() (Configuration, error) {
	cfg := DefaultConfiguration()

	var err error
	if cfg.Renderer.ScreenWidth, err = envUint32(EnvScreenWidth, cfg.Renderer.ScreenWidth); err != nil {
		return cfg, err
	}
	if cfg.Renderer.ScreenHeight, err = envUint32(EnvScreenHeight, cfg.Renderer.ScreenHeight); err != nil {
		return cfg, err
	}
	if cfg.Renderer.SwapchainSize, err = envUint32(EnvSwapchainSize, cfg.Renderer.SwapchainSize); err != nil {
		return cfg, err
	}
	if cfg.Renderer.SwapchainSize == 0 {
		return cfg, fmt.Errorf("%s: swapchain needs at least one image", EnvSwapchainSize)
	}

	fps, err := strconv.Atoi(envy.Get(EnvFramesPerSec, strconv.Itoa(cfg.Time.FramesPerSecond)))
	if err != nil || fps < 0 {
		return cfg, fmt.Errorf("%s: not a frame rate", EnvFramesPerSec)
	}
	cfg.Time.FramesPerSecond = fps

	backend := strings.ToLower(envy.Get(EnvWindow, cfg.Window.Backend))
	switch backend {
	case WindowSDL, WindowGLFW:
		cfg.Window.Backend = backend
	default:
		return cfg, fmt.Errorf("%s: unknown window backend %q", EnvWindow, backend)
	}

	debug, err := strconv.ParseBool(envy.Get(EnvDebug, strconv.FormatBool(cfg.Instance.DebugMode)))
	if err != nil {
		return cfg, fmt.Errorf("%s: %s", EnvDebug, err.Error())
	}
	cfg.Instance.DebugMode = debug

	cfg.Shaders = envy.Get(EnvShaders, cfg.Shaders)
	cfg.Model = envy.Get(EnvModel, cfg.Model)
	cfg.Log.Level = envy.Get(EnvLogLevel, cfg.Log.Level)

	return cfg, nil
}

func envUint32(key string, def uint32) (uint32, error) {
	value, err := strconv.ParseUint(envy.Get(key, strconv.FormatUint(uint64(def), 10)), 10, 32)
	if err != nil {
		return def, fmt.Errorf("%s: %s", key, err.Error())
	}
	return uint32(value), nil
}
