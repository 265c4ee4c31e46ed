package compositor

import (
	"testing"

	"github.com/gogpu/compositor/imagecache"
)

// TestNewDefaultConfig tests that New uses DefaultConfig without options.
func TestNewDefaultConfig(t *testing.T) {
	c, err := New(&boxRasterizer{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if got, want := c.Config(), DefaultConfig(); got != want {
		t.Errorf("Config() = %+v, want %+v", got, want)
	}
}

func TestOptions(t *testing.T) {
	tests := []struct {
		name  string
		opts  []Option
		check func(t *testing.T, cfg Config)
	}{
		{
			name: "retention frames",
			opts: []Option{WithRetentionFrames(16)},
			check: func(t *testing.T, cfg Config) {
				if cfg.Images.RetentionFrames != 16 || cfg.Glyphs.RetentionFrames != 16 {
					t.Errorf("retention = %d/%d, want 16/16",
						cfg.Images.RetentionFrames, cfg.Glyphs.RetentionFrames)
				}
			},
		},
		{
			name: "subpixel steps",
			opts: []Option{WithSubpixelSteps(1)},
			check: func(t *testing.T, cfg Config) {
				if cfg.Glyphs.SubpixelSteps != 1 {
					t.Errorf("SubpixelSteps = %d, want 1", cfg.Glyphs.SubpixelSteps)
				}
			},
		},
		{
			name: "max texture size clamps page size",
			opts: []Option{WithMaxTextureSize(512)},
			check: func(t *testing.T, cfg Config) {
				if cfg.Images.MaxTextureSize != 512 || cfg.Images.PageSize != 512 {
					t.Errorf("sizes = %d/%d, want 512/512",
						cfg.Images.MaxTextureSize, cfg.Images.PageSize)
				}
			},
		},
		{
			name: "max texture size keeps smaller page",
			opts: []Option{WithMaxTextureSize(8192)},
			check: func(t *testing.T, cfg Config) {
				if cfg.Images.PageSize != imagecache.DefaultPageSize {
					t.Errorf("PageSize = %d, want %d", cfg.Images.PageSize, imagecache.DefaultPageSize)
				}
			},
		},
		{
			name: "later options win",
			opts: []Option{WithRetentionFrames(4), WithConfig(DefaultConfig())},
			check: func(t *testing.T, cfg Config) {
				if cfg != DefaultConfig() {
					t.Errorf("Config = %+v, want defaults", cfg)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := New(&boxRasterizer{}, tt.opts...)
			if err != nil {
				t.Fatalf("New: %v", err)
			}
			tt.check(t, c.Config())
		})
	}
}

func TestOptionsInvalid(t *testing.T) {
	tests := []struct {
		name string
		opt  Option
	}{
		{"zero retention", WithRetentionFrames(0)},
		{"zero steps", WithSubpixelSteps(0)},
		{"too many steps", WithSubpixelSteps(17)},
		{"zero texture size", WithMaxTextureSize(0)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(&boxRasterizer{}, tt.opt); err == nil {
				t.Error("New should fail")
			}
		})
	}
}
