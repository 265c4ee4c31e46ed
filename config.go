package compositor

import (
	"bytes"
	"fmt"
	"os"

	"github.com/gogpu/compositor/glyphcache"
	"github.com/gogpu/compositor/imagecache"
	"gopkg.in/yaml.v3"
)

// Config holds compositor configuration.
//
// A YAML document mirrors the struct:
//
//	images:
//	  page_size: 1024
//	  max_texture_size: 4096
//	  padding: 1
//	  retention_frames: 8
//	glyphs:
//	  retention_frames: 8
//	  subpixel_steps: 4
type Config struct {
	Images imagecache.Config `yaml:"images"`
	Glyphs glyphcache.Config `yaml:"glyphs"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		Images: imagecache.DefaultConfig(),
		Glyphs: glyphcache.DefaultConfig(),
	}
}

// Validate checks both cache configurations.
func (c *Config) Validate() error {
	if err := c.Images.Validate(); err != nil {
		return err
	}
	return c.Glyphs.Validate()
}

// ParseConfig decodes a YAML document over the defaults and validates the
// result. Unknown keys are rejected.
func ParseConfig(data []byte) (Config, error) {
	cfg := DefaultConfig()
	if len(bytes.TrimSpace(data)) == 0 {
		return cfg, ErrEmptyConfig
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return cfg, fmt.Errorf("compositor: parsing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// LoadConfig reads a YAML configuration file. See ParseConfig.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("compositor: reading config: %w", err)
	}
	return ParseConfig(data)
}
