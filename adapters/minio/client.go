package minio

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/gostratum/core/logx"
	"github.com/gostratum/objectx"
)

// defaultEndpoint is used when no endpoint is configured
const defaultEndpoint = "s3.amazonaws.com"

// API is the subset of the MinIO client used by Client
type API interface {
	MakeBucket(ctx context.Context, bucketName string, opts minio.MakeBucketOptions) error
	RemoveBucket(ctx context.Context, bucketName string) error
	ListBuckets(ctx context.Context) ([]minio.BucketInfo, error)
	BucketExists(ctx context.Context, bucketName string) (bool, error)
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
	// GetObject downloads an object. Missing objects fail here, not on read.
	GetObject(ctx context.Context, bucketName, objectName string, opts minio.GetObjectOptions) (io.ReadCloser, error)
	StatObject(ctx context.Context, bucketName, objectName string, opts minio.StatObjectOptions) (minio.ObjectInfo, error)
	ListObjects(ctx context.Context, bucketName string, opts minio.ListObjectsOptions) <-chan minio.ObjectInfo
	RemoveObject(ctx context.Context, bucketName, objectName string, opts minio.RemoveObjectOptions) error
}

// Client implements objectx.Client on top of minio-go
type Client struct {
	api          API
	config       *objectx.Config
	logger       logx.Logger
	instrumenter *objectx.Instrumenter
}

var _ objectx.Client = (*Client)(nil)

// NewClient creates a MinIO client from configuration. The connection is
// lazy; no request is sent until the first operation.
func NewClient(cfg *objectx.Config, opts ...objectx.Option) (*Client, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}

	effective, options := objectx.GetEffectiveConfig(cfg, opts...)
	if err := objectx.ValidateConfig(effective); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if effective.RoleARN != "" {
		return nil, &objectx.ValidationError{Field: "role_arn", Message: "assume-role is not supported by the minio adapter"}
	}

	endpoint := effective.EndpointHost()
	secure := effective.Secure()
	if endpoint == "" {
		endpoint = defaultEndpoint
		secure = true
	}

	lookup := minio.BucketLookupAuto
	if effective.UsePathStyle {
		lookup = minio.BucketLookupPath
	}

	sdk, err := minio.New(endpoint, &minio.Options{
		Creds:        newCredentials(effective),
		Secure:       secure,
		Region:       effective.Region,
		BucketLookup: lookup,
		Transport:    newTransport(effective.RequestTimeout),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	logger := options.GetLogger()
	logger.Info("MinIO client created",
		logx.Any("endpoint", endpoint),
		logx.Any("secure", secure),
		logx.Any("region", effective.Region),
	)

	return &Client{
		api:          &sdkAPI{Client: sdk},
		config:       effective,
		logger:       logger,
		instrumenter: options.GetInstrumenter(),
	}, nil
}

// NewFromAPI wraps an existing API implementation
func NewFromAPI(api API, cfg *objectx.Config, opts ...objectx.Option) *Client {
	effective, options := objectx.GetEffectiveConfig(cfg, opts...)
	return &Client{
		api:          api,
		config:       effective,
		logger:       options.GetLogger(),
		instrumenter: options.GetInstrumenter(),
	}
}

// newCredentials uses static keys when configured and otherwise falls back
// to the AWS environment variables and shared credentials file
func newCredentials(cfg *objectx.Config) *credentials.Credentials {
	if cfg.HasStaticCredentials() {
		return credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, cfg.SessionToken)
	}
	return credentials.NewChainCredentials([]credentials.Provider{
		&credentials.EnvAWS{},
		&credentials.FileAWSCredentials{Profile: cfg.Profile},
	})
}

// newTransport bounds connection setup and time to first byte
func newTransport(timeout time.Duration) *http.Transport {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   timeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   timeout,
		ExpectContinueTimeout: 1 * time.Second,
		ResponseHeaderTimeout: timeout,
	}
}

// sdkAPI adapts *minio.Client to API
type sdkAPI struct {
	*minio.Client
}

// GetObject stats the object before returning it so a missing key is
// reported by the call itself
func (a *sdkAPI) GetObject(ctx context.Context, bucketName, objectName string, opts minio.GetObjectOptions) (io.ReadCloser, error) {
	obj, err := a.Client.GetObject(ctx, bucketName, objectName, opts)
	if err != nil {
		return nil, err
	}
	if _, err := obj.Stat(); err != nil {
		obj.Close()
		return nil, err
	}
	return obj, nil
}

// Config returns the effective configuration
func (c *Client) Config() *objectx.Config {
	return c.config
}

// Close releases resources. minio-go holds none beyond idle connections.
func (c *Client) Close() error {
	c.logger.Debug("Closing MinIO client")
	return nil
}
