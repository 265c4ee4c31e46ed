package imagecache

// Default cache settings.
const (
	// DefaultPageSize is the side length of a freshly created page.
	DefaultPageSize = 1024

	// DefaultMaxTextureSize is the largest page side the cache will create.
	DefaultMaxTextureSize = 4096

	// DefaultPadding is the spacing between packed images.
	DefaultPadding = 1

	// DefaultRetentionFrames is how many frames an evictable image may go
	// unused before it becomes reclaimable.
	DefaultRetentionFrames = 8
)

// Config holds Cache configuration.
type Config struct {
	// PageSize is the side length of new pages. Pages grow beyond it
	// (up to MaxTextureSize) only to fit a single large image.
	// Default: 1024
	PageSize int `yaml:"page_size"`

	// MaxTextureSize is the maximum page side length. Images that do not
	// fit an empty page of this size are rejected.
	// Default: 4096
	MaxTextureSize int `yaml:"max_texture_size"`

	// Padding between images to prevent sampling bleed.
	// Default: 1
	Padding int `yaml:"padding"`

	// MaxPages limits the number of live pages. Zero means unlimited.
	MaxPages int `yaml:"max_pages"`

	// RetentionFrames is the eviction window in frames.
	// Default: 8
	RetentionFrames uint64 `yaml:"retention_frames"`
}

// DefaultConfig returns the default cache configuration.
func DefaultConfig() Config {
	return Config{
		PageSize:        DefaultPageSize,
		MaxTextureSize:  DefaultMaxTextureSize,
		Padding:         DefaultPadding,
		MaxPages:        0,
		RetentionFrames: DefaultRetentionFrames,
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.MaxTextureSize < 1 {
		return &ConfigError{Field: "MaxTextureSize", Reason: "must be at least 1"}
	}
	if c.MaxTextureSize > 16384 {
		return &ConfigError{Field: "MaxTextureSize", Reason: "must be at most 16384"}
	}
	if c.PageSize < 1 {
		return &ConfigError{Field: "PageSize", Reason: "must be at least 1"}
	}
	if c.PageSize > c.MaxTextureSize {
		return &ConfigError{Field: "PageSize", Reason: "must be at most MaxTextureSize"}
	}
	if c.Padding < 0 {
		return &ConfigError{Field: "Padding", Reason: "must be non-negative"}
	}
	if c.Padding >= c.MaxTextureSize {
		return &ConfigError{Field: "Padding", Reason: "must be less than MaxTextureSize"}
	}
	if c.MaxPages < 0 {
		return &ConfigError{Field: "MaxPages", Reason: "must be non-negative"}
	}
	if c.RetentionFrames < 1 {
		return &ConfigError{Field: "RetentionFrames", Reason: "must be at least 1"}
	}
	return nil
}

// ConfigError represents a configuration validation error.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return "imagecache: invalid config." + e.Field + ": " + e.Reason
}
