package compositor

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gogpu/compositor/imagecache"
)

func TestParseConfig(t *testing.T) {
	doc := `
images:
  page_size: 512
  max_pages: 4
glyphs:
  subpixel_steps: 2
`
	cfg, err := ParseConfig([]byte(doc))
	if err != nil {
		t.Fatalf("ParseConfig: %v", err)
	}
	if cfg.Images.PageSize != 512 || cfg.Images.MaxPages != 4 {
		t.Errorf("Images = %+v", cfg.Images)
	}
	if cfg.Images.MaxTextureSize != imagecache.DefaultMaxTextureSize {
		t.Errorf("MaxTextureSize = %d, want default", cfg.Images.MaxTextureSize)
	}
	if cfg.Glyphs.SubpixelSteps != 2 || cfg.Glyphs.RetentionFrames != 8 {
		t.Errorf("Glyphs = %+v", cfg.Glyphs)
	}
}

func TestParseConfig_Errors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want string
	}{
		{"unknown key", "images:\n  page_sise: 512\n", "page_sise"},
		{"bad type", "glyphs:\n  subpixel_steps: many\n", "parsing config"},
		{"invalid value", "images:\n  page_size: 8192\n", "PageSize"},
		{"invalid steps", "glyphs:\n  subpixel_steps: 0\n", "SubpixelSteps"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseConfig([]byte(tt.doc))
			if err == nil {
				t.Fatal("ParseConfig should fail")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error = %q, want it to mention %q", err, tt.want)
			}
		})
	}
}

func TestParseConfig_Empty(t *testing.T) {
	for _, doc := range []string{"", "  \n\t"} {
		cfg, err := ParseConfig([]byte(doc))
		if !errors.Is(err, ErrEmptyConfig) {
			t.Errorf("ParseConfig(%q) error = %v, want ErrEmptyConfig", doc, err)
		}
		if cfg != DefaultConfig() {
			t.Errorf("ParseConfig(%q) = %+v, want defaults", doc, cfg)
		}
	}
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "compositor.yaml")
	if err := os.WriteFile(path, []byte("images:\n  retention_frames: 30\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Images.RetentionFrames != 30 {
		t.Errorf("RetentionFrames = %d, want 30", cfg.Images.RetentionFrames)
	}

	if _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("LoadConfig(missing) error = %v, want os.ErrNotExist", err)
	}
}
