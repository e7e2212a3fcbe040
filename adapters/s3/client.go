package s3

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/aws/retry"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/credentials/stscreds"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	"github.com/cenkalti/backoff/v4"

	"github.com/gostratum/core/logx"
	"github.com/gostratum/objectx"
)

// API is the subset of the S3 SDK client used by Client. *s3.Client
// satisfies it; tests may substitute their own implementation.
type API interface {
	CreateBucket(ctx context.Context, params *s3.CreateBucketInput, optFns ...func(*s3.Options)) (*s3.CreateBucketOutput, error)
	DeleteBucket(ctx context.Context, params *s3.DeleteBucketInput, optFns ...func(*s3.Options)) (*s3.DeleteBucketOutput, error)
	ListBuckets(ctx context.Context, params *s3.ListBucketsInput, optFns ...func(*s3.Options)) (*s3.ListBucketsOutput, error)
	HeadBucket(ctx context.Context, params *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
}

// Client implements objectx.Client on top of the AWS SDK v2 S3 client
type Client struct {
	api          API
	presign      *s3.PresignClient
	config       *objectx.Config
	logger       logx.Logger
	instrumenter *objectx.Instrumenter
	credSource   string
}

var _ objectx.Client = (*Client)(nil)

// NewClient builds an S3 client from configuration. Credentials are resolved
// lazily by the SDK, so no request is sent until the first operation.
func NewClient(ctx context.Context, cfg *objectx.Config, opts ...objectx.Option) (*Client, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}

	effective, options := objectx.GetEffectiveConfig(cfg, opts...)
	if err := objectx.ValidateConfig(effective); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	logger := options.GetLogger()
	logger.Debug("Creating S3 client",
		logx.Any("bucket", effective.Bucket),
		logx.Any("region", effective.Region),
		logx.Any("endpoint", effective.Endpoint),
		logx.Any("use_path_style", effective.UsePathStyle),
	)

	awsConfig, credSource, err := buildAWSConfigWithLoader(ctx, effective, logger, defaultLoader)
	if err != nil {
		return nil, fmt.Errorf("failed to build AWS config: %w", err)
	}

	logger.Info("Credential source selected", logx.Any("cred_source", credSource))

	sdk := newSDKClient(awsConfig, effective)

	c := &Client{
		api:          sdk,
		presign:      s3.NewPresignClient(sdk),
		config:       effective,
		logger:       logger,
		instrumenter: options.GetInstrumenter(),
		credSource:   credSource,
	}

	logger.Info("S3 client created", logx.Any("region", effective.Region), logx.Any("endpoint", effective.Endpoint))
	return c, nil
}

// NewFromAPI wraps an existing API implementation. Presigning is available
// only when api is an *s3.Client.
func NewFromAPI(api API, cfg *objectx.Config, opts ...objectx.Option) *Client {
	effective, options := objectx.GetEffectiveConfig(cfg, opts...)

	c := &Client{
		api:          api,
		config:       effective,
		logger:       options.GetLogger(),
		instrumenter: options.GetInstrumenter(),
		credSource:   "external",
	}
	if sdk, ok := api.(*s3.Client); ok {
		c.presign = s3.NewPresignClient(sdk)
	}
	return c
}

// newSDKClient creates the S3 service client with endpoint, addressing and
// checksum behavior taken from cfg
func newSDKClient(awsConfig aws.Config, cfg *objectx.Config) *s3.Client {
	return s3.NewFromConfig(awsConfig, func(o *s3.Options) {
		// Path-style addressing for MinIO and other S3-compatible servers
		if cfg.UsePathStyle {
			o.UsePathStyle = true
		}

		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.GetEndpointURL())
		}

		if cfg.ChecksumWhenRequired {
			o.RequestChecksumCalculation = aws.RequestChecksumCalculationWhenRequired
			o.ResponseChecksumValidation = aws.ResponseChecksumValidationWhenRequired
		}

		o.HTTPClient = &http.Client{
			Timeout: cfg.RequestTimeout,
		}
	})
}

// awsConfigLoader is a function that loads an aws.Config given LoadOptions.
type awsConfigLoader func(ctx context.Context, opts ...func(*config.LoadOptions) error) (aws.Config, error)

func defaultLoader(ctx context.Context, opts ...func(*config.LoadOptions) error) (aws.Config, error) {
	return config.LoadDefaultConfig(ctx, opts...)
}

// buildAWSConfigWithLoader builds an AWS config using the supplied loader (testable).
// It returns the loaded aws.Config and the detected credential source (one of:
// "static", "profile", "sdk-default", "assumed-role").
func buildAWSConfigWithLoader(ctx context.Context, cfg *objectx.Config, logger logx.Logger, loader awsConfigLoader) (aws.Config, string, error) {
	var options []func(*config.LoadOptions) error
	credSource := "unknown"

	if cfg.Region != "" {
		options = append(options, config.WithRegion(cfg.Region))
	}

	logger.Debug("Storage config values",
		logx.Any("access_key_set", cfg.AccessKey != ""),
		logx.Any("secret_key_set", cfg.SecretKey != ""),
		logx.Any("use_sdk_defaults", cfg.UseSDKDefaults),
		logx.Any("profile", cfg.Profile),
	)

	switch {
	case cfg.HasStaticCredentials():
		credProvider := credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, cfg.SessionToken)
		options = append(options, config.WithCredentialsProvider(credProvider))
		credSource = "static"
	case cfg.Profile != "":
		options = append(options, config.WithSharedConfigProfile(cfg.Profile))
		credSource = "profile"
	case !cfg.UseSDKDefaults && cfg.RoleARN == "" && cfg.Endpoint != "":
		return aws.Config{}, credSource, fmt.Errorf("no explicit credentials provided for custom endpoint (access_key/secret_key or profile) and use_sdk_defaults is false")
	}
	// Otherwise the loader falls back to the SDK default chain

	// The first attempt plus MaxRetries retries
	options = append(options, config.WithRetryer(func() aws.Retryer {
		return retry.NewStandard(func(o *retry.StandardOptions) {
			o.MaxAttempts = cfg.MaxRetries + 1
			o.MaxBackoff = cfg.BackoffMax
			o.Backoff = createBackoffStrategy(cfg)
		})
	}))

	awsConfig, err := loader(ctx, options...)
	if err != nil {
		return aws.Config{}, credSource, fmt.Errorf("unable to load AWS SDK config: %w", err)
	}

	if credSource == "unknown" {
		credSource = "sdk-default"
	}

	logger.Debug("AWS config loaded",
		logx.Any("region", awsConfig.Region),
		logx.Any("max_retries", cfg.MaxRetries),
		logx.Any("cred_source", credSource),
	)

	// RoleARN swaps the loaded credentials for temporary STS credentials.
	// The loaded credentials authenticate the AssumeRole call itself.
	if cfg.RoleARN != "" {
		logger.Info("Config requests STS AssumeRole", logx.Any("role_arn", cfg.RoleARN))

		stsClient := sts.NewFromConfig(awsConfig)
		assumeProv := stscreds.NewAssumeRoleProvider(stsClient, cfg.RoleARN, func(o *stscreds.AssumeRoleOptions) {
			if cfg.ExternalID != "" {
				o.ExternalID = aws.String(cfg.ExternalID)
			}
			o.RoleSessionName = "objectx-assume-role"
		})

		awsConfig.Credentials = aws.NewCredentialsCache(assumeProv)
		credSource = "assumed-role"
	}

	return awsConfig, credSource, nil
}

// createBackoffStrategy returns an exponential delay with jitter bounded by
// the configured backoff window
func createBackoffStrategy(cfg *objectx.Config) retry.BackoffDelayerFunc {
	return func(attempt int, err error) (time.Duration, error) {
		b := backoff.NewExponentialBackOff()
		b.InitialInterval = cfg.BackoffInitial
		b.MaxInterval = cfg.BackoffMax
		b.MaxElapsedTime = 0
		b.Multiplier = 2.0
		b.RandomizationFactor = 0.1
		b.Reset()

		var delay time.Duration
		for i := 0; i < attempt; i++ {
			delay = b.NextBackOff()
			if delay == backoff.Stop {
				break
			}
		}

		return delay, nil
	}
}

// CredentialSource reports where credentials were resolved from
func (c *Client) CredentialSource() string {
	return c.credSource
}

// Config returns the effective configuration
func (c *Client) Config() *objectx.Config {
	return c.config
}

// API returns the underlying SDK client
func (c *Client) API() API {
	return c.api
}

// Close performs cleanup operations
func (c *Client) Close() error {
	c.logger.Debug("Closing S3 client")
	return nil
}
