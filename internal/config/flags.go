package config

import (
	"flag"
	"strings"
)

// Flags holds command-line overrides. Zero values leave the config alone.
type Flags struct {
	Config     string
	Debug      bool
	Windowed   bool
	Fullscreen bool
	Width      int
	Height     int
	Assets     string
	Models     string
	Texture    string
}

// ParseFlags parses command-line arguments (without the program name).
func ParseFlags(name string, args []string) (*Flags, error) {
	f := &Flags{}
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.StringVar(&f.Config, "config", "", "Path to config file")
	fs.BoolVar(&f.Debug, "debug", false, "Enable debug logging and frame stats")
	fs.BoolVar(&f.Windowed, "windowed", false, "Run in windowed mode")
	fs.BoolVar(&f.Fullscreen, "fullscreen", false, "Run in fullscreen mode")
	fs.IntVar(&f.Width, "width", 0, "Window width")
	fs.IntVar(&f.Height, "height", 0, "Window height")
	fs.StringVar(&f.Assets, "assets", "", "Directory models are loaded from")
	fs.StringVar(&f.Models, "model", "", "Comma-separated glTF files to show")
	fs.StringVar(&f.Texture, "texture", "", "Image applied to every model")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	// Trailing arguments are models too.
	if rest := fs.Args(); len(rest) > 0 {
		if f.Models != "" {
			rest = append([]string{f.Models}, rest...)
		}
		f.Models = strings.Join(rest, ",")
	}
	return f, nil
}

// apply applies CLI flag overrides to the config.
func (f *Flags) apply(cfg *Config) {
	if f.Debug {
		cfg.Logging.Level = "debug"
		cfg.Render.ShowStats = true
	}
	if f.Windowed {
		cfg.Window.Fullscreen = false
	}
	if f.Fullscreen {
		cfg.Window.Fullscreen = true
	}
	if f.Width > 0 {
		cfg.Window.Width = f.Width
	}
	if f.Height > 0 {
		cfg.Window.Height = f.Height
	}
	if f.Assets != "" {
		cfg.Assets.Root = f.Assets
	}
	if f.Texture != "" {
		cfg.Assets.Texture = f.Texture
	}
	if f.Models != "" {
		cfg.Assets.Models = nil
		for _, m := range strings.Split(f.Models, ",") {
			if m = strings.TrimSpace(m); m != "" {
				cfg.Assets.Models = append(cfg.Assets.Models, m)
			}
		}
	}
}
