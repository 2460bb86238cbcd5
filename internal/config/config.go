// Package config handles viewer configuration loading and management.
package config

import (
	"fmt"
	"time"

	"github.com/Faultbox/scenekit/pkg/color"
)

// Config holds all viewer settings.
type Config struct {
	Window  WindowConfig  `yaml:"window"`
	Render  RenderConfig  `yaml:"render"`
	Camera  CameraConfig  `yaml:"camera"`
	Assets  AssetsConfig  `yaml:"assets"`
	Logging LoggingConfig `yaml:"logging"`
}

// WindowConfig holds display settings.
type WindowConfig struct {
	Title      string `yaml:"title"`
	Width      int    `yaml:"width"`
	Height     int    `yaml:"height"`
	Fullscreen bool   `yaml:"fullscreen"`
	VSync      bool   `yaml:"vsync"`
	FPSLimit   int    `yaml:"fps_limit"`
}

// RenderConfig holds scene settings.
type RenderConfig struct {
	LayerPoolSize int        `yaml:"layer_pool_size"`
	ClearColor    [4]float32 `yaml:"clear_color"`
	DepthEnabled  bool       `yaml:"depth_enabled"`
	ShowStats     bool       `yaml:"show_stats"`
}

// Background returns ClearColor as a color.
func (r RenderConfig) Background() color.Color {
	return color.FromArray(r.ClearColor)
}

// CameraConfig holds the initial 3D camera.
type CameraConfig struct {
	Position     [3]float32 `yaml:"position"`
	Target       [3]float32 `yaml:"target"`
	FovY         float32    `yaml:"fovy"`
	Orthographic bool       `yaml:"orthographic"`
	// OrbitSpeed is the camera orbit rate in degrees per second.
	OrbitSpeed float32 `yaml:"orbit_speed"`
}

// AssetsConfig holds model locations.
type AssetsConfig struct {
	Root   string   `yaml:"root"`
	Models []string `yaml:"models"`
	// Texture, when set, is applied to every model through the default
	// material.
	Texture     string        `yaml:"texture"`
	ColorKey    bool          `yaml:"color_key"`
	LoadTimeout time.Duration `yaml:"load_timeout"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level      string `yaml:"level"`
	LogFile    string `yaml:"log_file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Window: WindowConfig{
			Title:  "meshview",
			Width:  1280,
			Height: 720,
			VSync:  true,
		},
		Render: RenderConfig{
			LayerPoolSize: 3,
			ClearColor:    color.LightGray.Array(),
			DepthEnabled:  true,
		},
		Camera: CameraConfig{
			Position:   [3]float32{0, 6, 8},
			FovY:       45,
			OrbitSpeed: 20,
		},
		Assets: AssetsConfig{
			Root:        ".",
			LoadTimeout: 30 * time.Second,
		},
		Logging: LoggingConfig{
			Level:      "info",
			MaxSizeMB:  50,
			MaxBackups: 3,
			MaxAgeDays: 7,
		},
	}
}

// Validate reports the first setting that cannot work.
func (c *Config) Validate() error {
	switch {
	case c.Window.Width <= 0 || c.Window.Height <= 0:
		return fmt.Errorf("window size %dx%d must be positive", c.Window.Width, c.Window.Height)
	case c.Render.LayerPoolSize <= 0:
		return fmt.Errorf("render.layer_pool_size %d must be positive", c.Render.LayerPoolSize)
	case c.Camera.FovY <= 0:
		return fmt.Errorf("camera.fovy %v must be positive", c.Camera.FovY)
	case c.Assets.LoadTimeout < 0:
		return fmt.Errorf("assets.load_timeout %v must not be negative", c.Assets.LoadTimeout)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level %q is not one of debug, info, warn, error", c.Logging.Level)
	}
	return nil
}
