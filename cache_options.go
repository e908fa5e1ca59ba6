package persist

import "go.uber.org/zap"

type cacheConfig struct {
	mode     Mode
	codec    Codec
	logger   *zap.Logger
	observer Observer
	hooks    []Lifecycle
}

// Option configures a Cache.
type Option func(cacheConfig) cacheConfig

// WithMode selects normal or bypass mode.
func WithMode(mode Mode) Option {
	return func(cfg cacheConfig) cacheConfig {
		cfg.mode = mode
		return cfg
	}
}

// WithCodec overrides the record codec (XMLCodec by default).
//
// The file store names records by its own extension, ".xml" unless told
// otherwise; pair a non-XML codec with WithFileExtension(codec.Extension()).
//
// Example: YAML records on disk
//
//	store := persist.NewFileStore(ctx, dir, persist.WithFileExtension(persist.YAMLCodec.Extension()))
//	c := persist.New(store, persist.WithCodec(persist.YAMLCodec))
func WithCodec(codec Codec) Option {
	return func(cfg cacheConfig) cacheConfig {
		cfg.codec = codec
		return cfg
	}
}

// WithLogger sets the logger used for load/save diagnostics and exit flush failures.
func WithLogger(logger *zap.Logger) Option {
	return func(cfg cacheConfig) cacheConfig {
		cfg.logger = logger
		return cfg
	}
}

// WithObserver attaches an observer to receive operation events.
func WithObserver(o Observer) Option {
	return func(cfg cacheConfig) cacheConfig {
		cfg.observer = o
		return cfg
	}
}

// WithExitHook registers the exit flush with l at construction.
func WithExitHook(l Lifecycle) Option {
	return func(cfg cacheConfig) cacheConfig {
		cfg.hooks = append(cfg.hooks, l)
		return cfg
	}
}
