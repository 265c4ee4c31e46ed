package compositor

// Option configures a Compositor during creation.
//
// Example:
//
//	c, err := compositor.New(rast,
//	    compositor.WithRetentionFrames(16),
//	    compositor.WithSubpixelSteps(2),
//	)
type Option func(*options)

// options holds optional configuration for Compositor creation.
type options struct {
	cfg Config
}

// defaultOptions returns the default compositor options.
func defaultOptions() options {
	return options{cfg: DefaultConfig()}
}

// WithConfig replaces the whole configuration, typically one read with
// LoadConfig.
func WithConfig(cfg Config) Option {
	return func(o *options) {
		o.cfg = cfg
	}
}

// WithRetentionFrames sets the eviction window of both caches.
func WithRetentionFrames(n uint64) Option {
	return func(o *options) {
		o.cfg.Images.RetentionFrames = n
		o.cfg.Glyphs.RetentionFrames = n
	}
}

// WithSubpixelSteps sets the number of sub-pixel glyph phases per axis.
// 1 snaps glyphs to whole pixels.
func WithSubpixelSteps(n int) Option {
	return func(o *options) {
		o.cfg.Glyphs.SubpixelSteps = n
	}
}

// WithMaxTextureSize sets the largest texture page side, usually the
// device limit.
func WithMaxTextureSize(n int) Option {
	return func(o *options) {
		o.cfg.Images.MaxTextureSize = n
		o.cfg.Images.PageSize = min(o.cfg.Images.PageSize, n)
	}
}
