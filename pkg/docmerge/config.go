package docmerge

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

// Config contains all configuration options for the merge engine
type Config struct {
	// CacheMaxSize is the maximum number of templates to cache. 0 disables caching.
	CacheMaxSize int `yaml:"cache_max_size"`
	// CacheTTL is the time-to-live for cached templates. 0 means no expiration.
	CacheTTL time.Duration `yaml:"cache_ttl"`
	// LogLevel controls the verbosity of logging (debug, info, warn, error, off)
	LogLevel string `yaml:"log_level"`

	// MaxImageWidthInches caps the rendered width of embedded images
	MaxImageWidthInches float64 `yaml:"max_image_width_inches"`
	// ImageDPI converts pixel dimensions to document units
	ImageDPI int `yaml:"image_dpi"`
	// FigureStyle is the paragraph style applied to generated image paragraphs
	FigureStyle string `yaml:"figure_style"`
	// HighlightResolved shades every run that received a resolved value
	HighlightResolved bool `yaml:"highlight_resolved"`
	// ResolveConcurrency bounds parallel image reads and PDF rendering
	ResolveConcurrency int `yaml:"resolve_concurrency"`

	// PDFRenderDPI is the rasterization resolution passed to pdftoppm
	PDFRenderDPI int `yaml:"pdf_render_dpi"`
	// PDFMaxPageWidth downscales rendered pages wider than this many pixels
	PDFMaxPageWidth int `yaml:"pdf_max_page_width"`
	// PDFJPEGQuality is the JPEG quality of re-encoded pages
	PDFJPEGQuality int `yaml:"pdf_jpeg_quality"`
	// PdftoppmPath locates the poppler rasterizer
	PdftoppmPath string `yaml:"pdftoppm_path"`
}

var (
	// initialized before DefaultEngine, which reads it
	globalConfig      = ConfigFromEnvironment()
	globalConfigMutex sync.RWMutex
)

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		CacheMaxSize:        100,
		CacheTTL:            0,
		LogLevel:            "info",
		MaxImageWidthInches: 6.5,
		ImageDPI:            96,
		FigureStyle:         "Caption",
		HighlightResolved:   false,
		ResolveConcurrency:  4,
		PDFRenderDPI:        150,
		PDFMaxPageWidth:     2200,
		PDFJPEGQuality:      80,
		PdftoppmPath:        "pdftoppm",
	}
}

// ConfigFromEnvironment creates a configuration from environment variables
func ConfigFromEnvironment() *Config {
	config := DefaultConfig()

	// DOCMERGE_CACHE_MAX_SIZE
	if val := os.Getenv("DOCMERGE_CACHE_MAX_SIZE"); val != "" {
		if size, err := strconv.Atoi(val); err == nil {
			config.CacheMaxSize = size
		}
	}

	// DOCMERGE_CACHE_TTL
	if val := os.Getenv("DOCMERGE_CACHE_TTL"); val != "" {
		if duration, err := time.ParseDuration(val); err == nil {
			config.CacheTTL = duration
		}
	}

	// DOCMERGE_LOG_LEVEL
	if val := os.Getenv("DOCMERGE_LOG_LEVEL"); val != "" {
		config.LogLevel = val
	}

	// DOCMERGE_MAX_IMAGE_WIDTH_INCHES
	if val := os.Getenv("DOCMERGE_MAX_IMAGE_WIDTH_INCHES"); val != "" {
		if width, err := strconv.ParseFloat(val, 64); err == nil {
			config.MaxImageWidthInches = width
		}
	}

	// DOCMERGE_FIGURE_STYLE
	if val := os.Getenv("DOCMERGE_FIGURE_STYLE"); val != "" {
		config.FigureStyle = val
	}

	// DOCMERGE_HIGHLIGHT_RESOLVED
	if val := os.Getenv("DOCMERGE_HIGHLIGHT_RESOLVED"); val != "" {
		config.HighlightResolved = parseBool(val)
	}

	// DOCMERGE_RESOLVE_CONCURRENCY
	if val := os.Getenv("DOCMERGE_RESOLVE_CONCURRENCY"); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			config.ResolveConcurrency = n
		}
	}

	// DOCMERGE_PDF_RENDER_DPI
	if val := os.Getenv("DOCMERGE_PDF_RENDER_DPI"); val != "" {
		if dpi, err := strconv.Atoi(val); err == nil {
			config.PDFRenderDPI = dpi
		}
	}

	// DOCMERGE_PDFTOPPM_PATH
	if val := os.Getenv("DOCMERGE_PDFTOPPM_PATH"); val != "" {
		config.PdftoppmPath = val
	}

	return config
}

// LoadConfigFile reads a YAML configuration file. Keys absent from the file
// keep their default values.
func LoadConfigFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, NewDocumentError("read config", path, err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, NewDocumentError("parse config", path, err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return config, nil
}

// NewConfigWithDefaults creates a new configuration with defaults applied to unset fields
func NewConfigWithDefaults(overrides *Config) *Config {
	defaults := DefaultConfig()

	if overrides == nil {
		return defaults
	}

	config := *overrides

	if config.LogLevel == "" {
		config.LogLevel = defaults.LogLevel
	}
	if config.MaxImageWidthInches == 0 {
		config.MaxImageWidthInches = defaults.MaxImageWidthInches
	}
	if config.ImageDPI == 0 {
		config.ImageDPI = defaults.ImageDPI
	}
	if config.FigureStyle == "" {
		config.FigureStyle = defaults.FigureStyle
	}
	if config.ResolveConcurrency == 0 {
		config.ResolveConcurrency = defaults.ResolveConcurrency
	}
	if config.PDFRenderDPI == 0 {
		config.PDFRenderDPI = defaults.PDFRenderDPI
	}
	if config.PDFMaxPageWidth == 0 {
		config.PDFMaxPageWidth = defaults.PDFMaxPageWidth
	}
	if config.PDFJPEGQuality == 0 {
		config.PDFJPEGQuality = defaults.PDFJPEGQuality
	}
	if config.PdftoppmPath == "" {
		config.PdftoppmPath = defaults.PdftoppmPath
	}

	return &config
}

// Validate checks if the configuration is valid. All problems are reported
// together as a *ValidationError.
func (c *Config) Validate() error {
	var issues []ValidationIssue
	add := func(field, message string) {
		issues = append(issues, ValidationIssue{Field: field, Message: message})
	}

	if c.CacheMaxSize < 0 {
		add("CacheMaxSize", "cannot be negative")
	}
	if c.CacheTTL < 0 {
		add("CacheTTL", "cannot be negative")
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
		"off":   true,
	}
	if !validLogLevels[c.LogLevel] {
		add("LogLevel", "invalid log level: "+c.LogLevel)
	}

	if c.MaxImageWidthInches <= 0 {
		add("MaxImageWidthInches", "must be positive")
	}
	if c.ImageDPI <= 0 {
		add("ImageDPI", "must be positive")
	}
	if c.ResolveConcurrency <= 0 {
		add("ResolveConcurrency", "must be positive")
	}
	if c.PDFJPEGQuality < 1 || c.PDFJPEGQuality > 100 {
		add("PDFJPEGQuality", "must be between 1 and 100")
	}

	if len(issues) > 0 {
		return &ValidationError{Issues: issues}
	}
	return nil
}

// GetGlobalConfig returns the global configuration
func GetGlobalConfig() *Config {
	globalConfigMutex.RLock()
	defer globalConfigMutex.RUnlock()

	if globalConfig == nil {
		return DefaultConfig()
	}

	// Return a copy to prevent modification
	configCopy := *globalConfig
	return &configCopy
}

// SetGlobalConfig sets the global configuration
func SetGlobalConfig(config *Config) {
	globalConfigMutex.Lock()
	globalConfig = config
	globalConfigMutex.Unlock()

	// outside the lock: the logger reads the config back
	UpdateLoggerFromConfig()
}

// maxImageWidthEMU returns the image width cap in EMU
func (c *Config) maxImageWidthEMU() int64 {
	return int64(c.MaxImageWidthInches * emuPerInch)
}

// parseBool parses a boolean value from a string
func parseBool(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	return s == "true" || s == "1" || s == "yes" || s == "on"
}
