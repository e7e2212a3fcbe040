package objectx

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// MaxKeyLength is the longest object key S3 accepts, in bytes
const MaxKeyLength = 1024

// ValidateConfig performs comprehensive validation of client configuration
func ValidateConfig(cfg *Config) error {
	if cfg == nil {
		return &ValidationError{Field: "config", Message: "configuration cannot be nil"}
	}

	var errors []string

	// Default bucket is optional but must be well formed when set
	if cfg.Bucket != "" {
		if err := validateBucketName(cfg.Bucket); err != nil {
			errors = append(errors, fmt.Sprintf("invalid bucket name: %v", err))
		}
	}

	// Region is required for AWS, optional for custom endpoints
	if cfg.Region == "" && cfg.Endpoint == "" {
		errors = append(errors, "region is required when endpoint is not specified (AWS mode)")
	}

	// Disallow partially-specified explicit credentials
	if (cfg.AccessKey == "") != (cfg.SecretKey == "") {
		errors = append(errors, "both access_key and secret_key must be set together; do not provide only one")
	}

	// Custom endpoints rarely have STS or instance profiles, so insist on a
	// credential source up front
	if cfg.AccessKey == "" && cfg.Endpoint != "" && cfg.Profile == "" && cfg.RoleARN == "" && !cfg.UseSDKDefaults {
		errors = append(errors, "credentials required for custom endpoint: provide access_key+secret_key, profile, or enable use_sdk_defaults")
	}

	if cfg.RequestTimeout <= 0 {
		errors = append(errors, "request_timeout must be positive")
	}
	if cfg.RequestTimeout > 10*time.Minute {
		errors = append(errors, "request_timeout should not exceed 10 minutes")
	}

	if cfg.MaxRetries < 0 {
		errors = append(errors, "max_retries cannot be negative")
	}
	if cfg.MaxRetries > 10 {
		errors = append(errors, "max_retries should not exceed 10")
	}

	if cfg.BackoffInitial <= 0 {
		errors = append(errors, "backoff_initial must be positive")
	}
	if cfg.BackoffMax <= cfg.BackoffInitial {
		errors = append(errors, "backoff_max must be greater than backoff_initial")
	}

	if cfg.ListPageSize <= 0 || cfg.ListPageSize > 1000 {
		errors = append(errors, "list_page_size must be between 1 and 1000")
	}

	if cfg.Endpoint != "" {
		if err := validateEndpoint(cfg.Endpoint); err != nil {
			errors = append(errors, fmt.Sprintf("invalid endpoint: %v", err))
		}
	}

	if cfg.RoleARN != "" && !isPlausibleRoleARN(cfg.RoleARN) {
		errors = append(errors, "role_arn looks invalid: must be a valid IAM role ARN (e.g., arn:aws:iam::123456789012:role/RoleName)")
	}

	if len(errors) > 0 {
		return &ValidationError{
			Field:   "config",
			Message: strings.Join(errors, "; "),
		}
	}

	return nil
}

// ValidateBucket checks a bucket name supplied to an operation
func ValidateBucket(bucket string) error {
	if bucket == "" {
		return &ValidationError{Field: "bucket", Message: "bucket name cannot be empty"}
	}
	if err := validateBucketName(bucket); err != nil {
		return &ValidationError{Field: "bucket", Message: err.Error()}
	}
	return nil
}

// ValidateKey checks an object key supplied to an operation
func ValidateKey(key string) error {
	if key == "" {
		return &ValidationError{Field: "key", Message: "object key cannot be empty"}
	}
	if len(key) > MaxKeyLength {
		return &ValidationError{Field: "key", Message: fmt.Sprintf("object key exceeds %d bytes", MaxKeyLength)}
	}
	if !utf8.ValidString(key) {
		return &ValidationError{Field: "key", Message: "object key must be valid UTF-8"}
	}
	return nil
}

// ValidateRef checks both halves of an object reference
func ValidateRef(bucket, key string) error {
	if err := ValidateBucket(bucket); err != nil {
		return err
	}
	return ValidateKey(key)
}

// ValidatePayload checks content supplied to a write
func ValidatePayload(p Payload) error {
	if p.Data == nil {
		return &ValidationError{Field: "payload", Message: "payload data cannot be nil"}
	}
	return nil
}

// isPlausibleRoleARN performs a light-weight validation of an IAM role ARN
func isPlausibleRoleARN(arn string) bool {
	// arn:partition:service:region:account-id:resource
	parts := strings.SplitN(arn, ":", 6)
	if len(parts) != 6 || parts[0] != "arn" || parts[2] != "iam" {
		return false
	}
	if !isNumeric(parts[4]) {
		return false
	}
	return strings.HasPrefix(parts[5], "role/")
}

// validateBucketName validates S3 bucket naming rules
func validateBucketName(bucket string) error {
	if len(bucket) < 3 || len(bucket) > 63 {
		return fmt.Errorf("bucket name must be between 3 and 63 characters")
	}

	first, last := rune(bucket[0]), rune(bucket[len(bucket)-1])
	if !isAlphaNumeric(first) || !isAlphaNumeric(last) {
		return fmt.Errorf("bucket name must start and end with a lowercase letter or digit")
	}

	if strings.Contains(bucket, "..") {
		return fmt.Errorf("bucket name cannot contain consecutive periods")
	}

	for _, char := range bucket {
		if !isAlphaNumeric(char) && char != '-' && char != '.' {
			return fmt.Errorf("bucket name contains invalid character: %c", char)
		}
	}

	parts := strings.Split(bucket, ".")
	if len(parts) == 4 {
		allNumeric := true
		for _, part := range parts {
			if !isNumeric(part) {
				allNumeric = false
				break
			}
		}
		if allNumeric {
			return fmt.Errorf("bucket name cannot be formatted as an IP address")
		}
	}

	return nil
}

func isAlphaNumeric(char rune) bool {
	return (char >= 'a' && char <= 'z') || (char >= '0' && char <= '9')
}

// isNumeric checks if a string contains only digits
func isNumeric(s string) bool {
	if len(s) == 0 {
		return false
	}
	for _, char := range s {
		if char < '0' || char > '9' {
			return false
		}
	}
	return true
}

// validateEndpoint validates the endpoint URL format
func validateEndpoint(endpoint string) error {
	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" {
		return fmt.Errorf("endpoint cannot be empty")
	}

	if strings.HasPrefix(endpoint, "http://") || strings.HasPrefix(endpoint, "https://") {
		return nil
	}

	if strings.Contains(endpoint, "://") {
		return fmt.Errorf("endpoint protocol must be http or https")
	}

	if strings.Contains(endpoint, " ") {
		return fmt.Errorf("endpoint cannot contain spaces")
	}

	return nil
}

// Normalize applies automatic fixes to configuration where possible and
// returns a fixed copy without mutating the receiver.
func (cfg *Config) Normalize() *Config {
	if cfg == nil {
		return DefaultConfig()
	}

	sanitized := *cfg

	if sanitized.Region == "" && sanitized.Endpoint == "" {
		sanitized.Region = "us-east-1"
	}

	if sanitized.RequestTimeout == 0 {
		sanitized.RequestTimeout = 30 * time.Second
	}

	if sanitized.BackoffInitial == 0 {
		sanitized.BackoffInitial = 200 * time.Millisecond
	}

	if sanitized.BackoffMax == 0 {
		sanitized.BackoffMax = 5 * time.Second
	}

	if sanitized.ListPageSize == 0 {
		sanitized.ListPageSize = 1000
	}

	if sanitized.Endpoint != "" {
		sanitized.Endpoint = strings.TrimSpace(sanitized.Endpoint)
		sanitized.Endpoint = strings.TrimSuffix(sanitized.Endpoint, "/")
	}

	sanitized.Bucket = strings.TrimSpace(sanitized.Bucket)

	return &sanitized
}

// ConfigSummary returns a safe summary of the configuration for logging
func (cfg *Config) ConfigSummary() map[string]any {
	if cfg == nil {
		return map[string]any{"error": "nil config"}
	}

	summary := map[string]any{
		"bucket":                 cfg.Bucket,
		"region":                 cfg.Region,
		"endpoint":               cfg.Endpoint,
		"use_path_style":         cfg.UsePathStyle,
		"use_sdk_defaults":       cfg.UseSDKDefaults,
		"request_timeout":        cfg.RequestTimeout.String(),
		"max_retries":            cfg.MaxRetries,
		"list_page_size":         cfg.ListPageSize,
		"checksum_when_required": cfg.ChecksumWhenRequired,
		"disable_ssl":            cfg.DisableSSL,
	}

	if cfg.AccessKey != "" {
		summary["has_access_key"] = true
		summary["access_key_prefix"] = cfg.AccessKey[:min(4, len(cfg.AccessKey))] + "..."
	}

	if cfg.SecretKey != "" {
		summary["has_secret_key"] = true
	}

	if cfg.SessionToken != "" {
		summary["has_session_token"] = true
	}

	if cfg.RoleARN != "" {
		summary["role_arn"] = cfg.RoleARN
	}

	return summary
}
