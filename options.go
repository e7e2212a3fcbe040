package objectx

import (
	"path/filepath"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gostratum/core/logx"
)

// Options holds functional options for customizing client behavior
type Options struct {
	logger       logx.Logger
	instrumenter *Instrumenter
}

// Option is a functional option for configuring a Client
type Option func(*Options)

// WithLogger sets a custom core logx.Logger
func WithLogger(logger logx.Logger) Option {
	return func(opts *Options) {
		opts.logger = logger
	}
}

// WithInstrumenter sets the metrics/tracing instrumenter
func WithInstrumenter(i *Instrumenter) Option {
	return func(opts *Options) {
		opts.instrumenter = i
	}
}

// applyDefaults applies default values to unset options
func (opts *Options) applyDefaults() {
	if opts.logger == nil {
		opts.logger = logx.NewNoopLogger()
	}
	if opts.instrumenter == nil {
		opts.instrumenter = NewInstrumenter(nil, nil)
	}
}

// GetLogger returns the configured logger
func (opts *Options) GetLogger() logx.Logger {
	if opts.logger == nil {
		return logx.NewNoopLogger()
	}
	return opts.logger
}

// GetInstrumenter returns the configured instrumenter
func (opts *Options) GetInstrumenter() *Instrumenter {
	if opts.instrumenter == nil {
		return NewInstrumenter(nil, nil)
	}
	return opts.instrumenter
}

// GetEffectiveConfig returns a sanitized copy of the configuration with
// options applied
func GetEffectiveConfig(cfg *Config, options ...Option) (*Config, *Options) {
	opts := &Options{}
	for _, opt := range options {
		opt(opts)
	}
	opts.applyDefaults()

	return cfg.Normalize(), opts
}

// DetectContentType guesses the MIME type of a local file, first from its
// extension and then from its leading bytes. Returns "" when unknown.
func DetectContentType(path string) string {
	if known := extensionMIME(filepath.Ext(path)); known != "" {
		return known
	}

	mtype, err := mimetype.DetectFile(path)
	if err != nil || mtype.Is("application/octet-stream") {
		return ""
	}
	return mtype.String()
}

// extensionMIME covers the extensions whose content sniffing is ambiguous
func extensionMIME(ext string) string {
	switch ext {
	case ".json":
		return "application/json"
	case ".csv":
		return "text/csv"
	case ".html", ".htm":
		return "text/html"
	case ".css":
		return "text/css"
	case ".js":
		return "text/javascript"
	case ".svg":
		return "image/svg+xml"
	case ".txt":
		return "text/plain"
	case ".xml":
		return "text/xml"
	}
	return ""
}
