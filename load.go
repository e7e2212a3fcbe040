package objectx

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes the environment variables read by LoadConfig
// (OBJECTX_BUCKET, OBJECTX_ACCESS_KEY, ...)
const EnvPrefix = "OBJECTX"

// legacyEnv lists plain AWS variable names consulted after the OBJECTX_ names
var legacyEnv = map[string][]string{
	"bucket":     {"AWS_BUCKET_NAME"},
	"access_key": {"AWS_ACCESS_KEY", "AWS_ACCESS_KEY_ID"},
	"secret_key": {"AWS_SECRET_KEY", "AWS_SECRET_ACCESS_KEY"},
	"region":     {"AWS_REGION", "AWS_DEFAULT_REGION"},
	"endpoint":   {"AWS_ENDPOINT_URL_S3", "AWS_ENDPOINT_URL"},
	"profile":    {"AWS_PROFILE"},
}

// LoadConfig loads configuration from environment variables and an optional
// .env file in dir, then sanitizes and validates it.
func LoadConfig(dir string) (*Config, error) {
	// Missing .env is normal outside development
	_ = godotenv.Overload(filepath.Join(dir, ".env"))

	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v, DefaultConfig())

	for key, names := range legacyEnv {
		input := append([]string{EnvPrefix + "_" + strings.ToUpper(key)}, names...)
		if err := v.BindEnv(append([]string{key}, input...)...); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", key, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	cfg = cfg.Normalize()
	if err := ValidateConfig(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// setDefaults registers every key so AutomaticEnv can resolve it during
// Unmarshal
func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("bucket", d.Bucket)
	v.SetDefault("region", d.Region)
	v.SetDefault("endpoint", d.Endpoint)
	v.SetDefault("use_path_style", d.UsePathStyle)
	v.SetDefault("access_key", d.AccessKey)
	v.SetDefault("secret_key", d.SecretKey)
	v.SetDefault("session_token", d.SessionToken)
	v.SetDefault("use_sdk_defaults", d.UseSDKDefaults)
	v.SetDefault("profile", d.Profile)
	v.SetDefault("role_arn", d.RoleARN)
	v.SetDefault("external_id", d.ExternalID)
	v.SetDefault("request_timeout", d.RequestTimeout)
	v.SetDefault("max_retries", d.MaxRetries)
	v.SetDefault("backoff_initial", d.BackoffInitial)
	v.SetDefault("backoff_max", d.BackoffMax)
	v.SetDefault("list_page_size", d.ListPageSize)
	v.SetDefault("checksum_when_required", d.ChecksumWhenRequired)
	v.SetDefault("disable_ssl", d.DisableSSL)
}
