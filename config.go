package objectx

import (
	"fmt"
	"strings"
	"time"
)

// Config holds all client configuration options
type Config struct {
	// Bucket is the default bucket used by examples and readiness checks.
	// Operations always take an explicit bucket.
	Bucket string `mapstructure:"bucket" yaml:"bucket"`

	// Region is the AWS region (e.g., "us-west-2")
	Region string `mapstructure:"region" yaml:"region" default:"us-east-1"`

	// Endpoint is the custom endpoint URL (for MinIO, LocalStack, etc.)
	Endpoint string `mapstructure:"endpoint" yaml:"endpoint"`

	// UsePathStyle forces path-style addressing (true for MinIO)
	UsePathStyle bool `mapstructure:"use_path_style" yaml:"use_path_style" default:"false"`

	// AccessKey is the access key ID
	AccessKey string `mapstructure:"access_key" yaml:"access_key"`

	// SecretKey is the secret access key
	SecretKey string `mapstructure:"secret_key" yaml:"secret_key"`

	// SessionToken is the temporary session token (optional)
	SessionToken string `mapstructure:"session_token" yaml:"session_token"`

	// UseSDKDefaults allows a custom endpoint to rely on the AWS SDK default
	// credential chain (env, shared config, instance profile). Without an
	// endpoint the default chain is used whenever keys and profile are unset.
	UseSDKDefaults bool `mapstructure:"use_sdk_defaults" yaml:"use_sdk_defaults" default:"false"`

	// Profile selects a shared credentials/profile name
	Profile string `mapstructure:"profile" yaml:"profile"`

	// RoleARN optionally specifies a role to assume via STS
	RoleARN string `mapstructure:"role_arn" yaml:"role_arn"`

	// ExternalID is passed to STS AssumeRole when RoleARN is used
	ExternalID string `mapstructure:"external_id" yaml:"external_id"`

	// RequestTimeout is the HTTP client timeout for individual requests
	RequestTimeout time.Duration `mapstructure:"request_timeout" yaml:"request_timeout" default:"30s"`

	// MaxRetries is the number of SDK retries after the first attempt.
	// Zero disables retries; DefaultConfig sets 3.
	MaxRetries int `mapstructure:"max_retries" yaml:"max_retries" default:"3"`

	// BackoffInitial is the initial SDK retry delay
	BackoffInitial time.Duration `mapstructure:"backoff_initial" yaml:"backoff_initial" default:"200ms"`

	// BackoffMax is the maximum SDK retry delay
	BackoffMax time.Duration `mapstructure:"backoff_max" yaml:"backoff_max" default:"5s"`

	// ListPageSize is the number of keys requested per list page
	ListPageSize int32 `mapstructure:"list_page_size" yaml:"list_page_size" default:"1000"`

	// ChecksumWhenRequired only computes request checksums when the
	// operation requires them. Many S3-compatible servers need this.
	ChecksumWhenRequired bool `mapstructure:"checksum_when_required" yaml:"checksum_when_required" default:"false"`

	// DisableSSL disables SSL for connections (development only)
	DisableSSL bool `mapstructure:"disable_ssl" yaml:"disable_ssl" default:"false"`
}

// Prefix implements configx.Configurable and returns the configuration prefix
func (Config) Prefix() string { return "storage" }

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Region:         "us-east-1",
		RequestTimeout: 30 * time.Second,
		MaxRetries:     3,
		BackoffInitial: 200 * time.Millisecond,
		BackoffMax:     5 * time.Second,
		ListPageSize:   1000,
	}
}

// NewConfigFromLoader creates a Config using any loader that can unmarshal
// into a struct. Useful for standalone usage without fx.
func NewConfigFromLoader(loader interface {
	Unmarshal(any) error
}) (*Config, error) {
	cfg := DefaultConfig()
	if err := loader.Unmarshal(cfg); err != nil {
		return nil, err
	}

	cfg = cfg.Normalize()
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// HasStaticCredentials reports whether both halves of a static key pair are set
func (c *Config) HasStaticCredentials() bool {
	return c.AccessKey != "" && c.SecretKey != ""
}

// GetEndpointURL returns the full endpoint URL
func (c *Config) GetEndpointURL() string {
	if c.Endpoint == "" {
		return ""
	}

	if strings.HasPrefix(c.Endpoint, "http://") || strings.HasPrefix(c.Endpoint, "https://") {
		return c.Endpoint
	}

	scheme := "https"
	if c.DisableSSL {
		scheme = "http"
	}

	return fmt.Sprintf("%s://%s", scheme, c.Endpoint)
}

// EndpointHost returns the endpoint without scheme, as minio-go expects it
func (c *Config) EndpointHost() string {
	host := strings.TrimPrefix(c.Endpoint, "http://")
	return strings.TrimPrefix(host, "https://")
}

// Secure reports whether the endpoint should be reached over TLS
func (c *Config) Secure() bool {
	if strings.HasPrefix(c.Endpoint, "http://") {
		return false
	}
	if strings.HasPrefix(c.Endpoint, "https://") {
		return true
	}
	return !c.DisableSSL
}

// Redact returns a copy with secrets replaced, safe to log
func (c *Config) Redact() *Config {
	if c == nil {
		return nil
	}

	redacted := *c
	for _, field := range []*string{&redacted.AccessKey, &redacted.SecretKey, &redacted.SessionToken, &redacted.ExternalID} {
		if *field != "" {
			*field = "[redacted]"
		}
	}
	return &redacted
}

// Sanitize implements logx.Sanitizable so logx.Any logs the redacted copy
func (c *Config) Sanitize() any {
	return c.Redact()
}

// String returns a safe string representation (redacts secrets)
func (c *Config) String() string {
	return fmt.Sprintf("Config{Bucket:%s, Region:%s, Endpoint:%s, UsePathStyle:%v}",
		c.Bucket, c.Region, c.Endpoint, c.UsePathStyle)
}
