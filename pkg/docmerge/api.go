package docmerge

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"time"
)

// Engine provides the main API for merging templates.
// Use New() to create a new engine instance.
type Engine struct {
	config   *Config
	cache    *TemplateCache
	loader   ResourceLoader
	renderer PDFRenderer
	logger   *Logger
}

// New creates a new engine with the global configuration.
func New() *Engine {
	config := GetGlobalConfig()
	return &Engine{
		config:   config,
		cache:    defaultCache,
		loader:   FileLoader{},
		renderer: NewPopplerRenderer(config),
	}
}

// NewWithConfig creates a new engine with custom configuration.
func NewWithConfig(config *Config) *Engine {
	config = NewConfigWithDefaults(config)
	return &Engine{
		config: config,
		cache: NewTemplateCacheWithConfig(CacheConfig{
			MaxSize: config.CacheMaxSize,
			TTL:     config.CacheTTL,
		}),
		loader:   FileLoader{},
		renderer: NewPopplerRenderer(config),
	}
}

// PrepareFile loads and validates a template from a file path.
// The template is cached if caching is enabled in the configuration.
func (e *Engine) PrepareFile(path string) (*PreparedTemplate, error) {
	if e.config.CacheMaxSize > 0 && e.cache != nil {
		if tmpl, ok := e.cache.Get(path); ok {
			return tmpl, nil
		}
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open template file: %w", err)
	}
	defer file.Close()

	tmpl, err := e.Prepare(file)
	if err != nil {
		return nil, WithContext(err, "prepare", map[string]interface{}{"path": path})
	}

	if e.config.CacheMaxSize > 0 && e.cache != nil {
		e.cache.Set(path, tmpl)
	}

	return tmpl, nil
}

// Prepare loads and validates a template from an io.Reader.
func (e *Engine) Prepare(r io.Reader) (*PreparedTemplate, error) {
	return e.prepare(r)
}

// Merge prepares template and merges values into it in one step.
func (e *Engine) Merge(ctx context.Context, template []byte, values Values) (*Result, error) {
	tmpl, err := e.Prepare(bytes.NewReader(template))
	if err != nil {
		return nil, err
	}
	return tmpl.Merge(ctx, values)
}

// Placeholders lists the placeholder names of template.
func (e *Engine) Placeholders(template []byte) ([]string, error) {
	tmpl, err := e.Prepare(bytes.NewReader(template))
	if err != nil {
		return nil, err
	}
	return tmpl.Placeholders()
}

// Config returns the engine's configuration.
func (e *Engine) Config() *Config {
	return e.config
}

// SetConfig updates the engine's configuration.
// Templates prepared earlier keep the configuration they were prepared with.
func (e *Engine) SetConfig(config *Config) {
	e.config = config
}

// ClearCache removes all templates from the cache.
func (e *Engine) ClearCache() {
	if e.cache != nil {
		e.cache.Clear()
	}
}

// Close releases any resources held by the engine.
func (e *Engine) Close() error {
	e.ClearCache()
	return nil
}

// Option represents a configuration option for the engine.
type Option func(*Engine)

// WithConfig returns an option that sets the engine configuration.
func WithConfig(config *Config) Option {
	return func(e *Engine) {
		e.config = NewConfigWithDefaults(config)
		e.renderer = NewPopplerRenderer(e.config)
	}
}

// WithCache returns an option that gives the engine its own cache (0 disables caching).
func WithCache(maxSize int) Option {
	return func(e *Engine) {
		config := *e.config
		config.CacheMaxSize = maxSize
		e.config = &config
		e.cache = NewTemplateCacheWithConfig(CacheConfig{MaxSize: maxSize, TTL: config.CacheTTL})
	}
}

// WithLoader returns an option that sets how image and PDF paths are read.
func WithLoader(loader ResourceLoader) Option {
	return func(e *Engine) {
		e.loader = loader
	}
}

// WithRenderer returns an option that sets the PDF rasterizer.
func WithRenderer(renderer PDFRenderer) Option {
	return func(e *Engine) {
		e.renderer = renderer
	}
}

// WithLogger returns an option that sets the engine's logger. Without it the
// global logger is used.
func WithLogger(logger *Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// NewWithOptions creates a new engine with the specified options.
func NewWithOptions(opts ...Option) *Engine {
	engine := New()
	for _, opt := range opts {
		opt(engine)
	}
	return engine
}

// DefaultEngine is the global default engine instance.
// It uses the global configuration.
var DefaultEngine = New()

// Module-level convenience functions that use the default engine.

// PrepareFile loads and validates a template from a file path using the default engine.
func PrepareFile(path string) (*PreparedTemplate, error) {
	return DefaultEngine.PrepareFile(path)
}

// Prepare loads and validates a template from an io.Reader using the default engine.
func Prepare(r io.Reader) (*PreparedTemplate, error) {
	return DefaultEngine.Prepare(r)
}

// Merge merges values into template using the default engine.
func Merge(ctx context.Context, template []byte, values Values) (*Result, error) {
	return DefaultEngine.Merge(ctx, template, values)
}

// Placeholders lists the placeholder names of template using the default engine.
func Placeholders(template []byte) ([]string, error) {
	return DefaultEngine.Placeholders(template)
}

// ClearCache clears the global template cache.
func ClearCache() {
	DefaultEngine.ClearCache()
}

// SetCacheConfig updates the global cache configuration.
func SetCacheConfig(maxSize int, ttl time.Duration) {
	config := GetGlobalConfig()
	config.CacheMaxSize = maxSize
	config.CacheTTL = ttl
	SetGlobalConfig(config)
}
