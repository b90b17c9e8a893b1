package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration
type Config struct {
	// Directory roots. All scratch and output paths derive from these;
	// nothing in the render core hardcodes a location.
	Dirs DirConfig `yaml:"dirs"`

	// FFmpeg settings
	FFmpeg FFmpegConfig `yaml:"ffmpeg"`

	// Render settings
	Render RenderConfig `yaml:"render"`

	// Audio mix settings
	Audio AudioConfig `yaml:"audio"`

	// Status API settings
	API APIConfig `yaml:"api"`

	LogLevel string `yaml:"log_level"`
}

type DirConfig struct {
	Raw     string `yaml:"raw"`     // source videos
	Inbox   string `yaml:"inbox"`   // analysis JSON documents
	Output  string `yaml:"output"`  // finished videos and thumbnails
	Scratch string `yaml:"scratch"` // per-job intermediate segments
	Assets  string `yaml:"assets"`  // reusable audio assets (bgm/, se/)
	Data    string `yaml:"data"`    // job history database
}

type FFmpegConfig struct {
	BinaryPath string `yaml:"binary_path"`
	ProbePath  string `yaml:"probe_path"`
	Threads    int    `yaml:"threads"`
	Preset     string `yaml:"preset"`
	CRF        int    `yaml:"crf"`
}

type RenderConfig struct {
	// Target frame for vertical output.
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

type AudioConfig struct {
	// Gain for the concatenated video's own track.
	MainGain float64 `yaml:"main_gain"`
	// BGM sits under narration at a low fixed gain.
	BGMGain float64 `yaml:"bgm_gain"`
	// Synthetic SE assets are mastered quiet and need extra gain.
	SEGain float64 `yaml:"se_gain"`
	// Tail fade length, ends at the planned total duration.
	FadeOut float64 `yaml:"fade_out"`
	// Fallback BGM used when the analysis names none, relative to the
	// assets root.
	FallbackBGM string `yaml:"fallback_bgm"`
}

type APIConfig struct {
	Enabled bool `yaml:"enabled"`
	Port    int  `yaml:"port"`
}

// Load reads configuration from file or returns defaults
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	if path == "" {
		path = findConfigFile()
	}

	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Save writes configuration to file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// Validate checks values that would otherwise fail deep inside a render.
func (c *Config) Validate() error {
	if c.Render.Width <= 0 || c.Render.Height <= 0 {
		return fmt.Errorf("render target must be positive, got %dx%d", c.Render.Width, c.Render.Height)
	}
	if c.FFmpeg.CRF < 0 || c.FFmpeg.CRF > 51 {
		return fmt.Errorf("crf must be between 0 and 51, got %d", c.FFmpeg.CRF)
	}
	if c.Audio.FadeOut < 0 {
		return fmt.Errorf("fade_out cannot be negative")
	}
	return nil
}

// DBPath returns the job history database location.
func (c *Config) DBPath() string {
	return filepath.Join(c.Dirs.Data, "nue.db")
}

// EnsureDirs creates every configured directory root.
func (c *Config) EnsureDirs() error {
	for _, dir := range []string{c.Dirs.Raw, c.Dirs.Inbox, c.Dirs.Output, c.Dirs.Scratch, c.Dirs.Assets, c.Dirs.Data} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	return nil
}

func defaultConfig() *Config {
	return &Config{
		Dirs: DirConfig{
			Raw:     "./data/raw",
			Inbox:   "./data/json",
			Output:  "./data/output",
			Scratch: "./data/scratch",
			Assets:  "./data/assets",
			Data:    "./data",
		},
		FFmpeg: FFmpegConfig{
			BinaryPath: "ffmpeg",
			ProbePath:  "ffprobe",
			Threads:    0,
			Preset:     "veryfast",
			CRF:        23,
		},
		Render: RenderConfig{
			Width:  1080,
			Height: 1920,
		},
		Audio: AudioConfig{
			MainGain:    1.2,
			BGMGain:     0.15,
			SEGain:      2.0,
			FadeOut:     1.0,
			FallbackBGM: "bgm/default.mp3",
		},
		API: APIConfig{
			Enabled: false,
			Port:    8787,
		},
		LogLevel: "info",
	}
}

func findConfigFile() string {
	candidates := []string{
		"./config.yaml",
		"./config.yml",
		filepath.Join(os.Getenv("HOME"), ".nue", "config.yaml"),
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}
