package s3

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/gostratum/core/logx"
	"github.com/gostratum/objectx"
)

const (
	defaultPresignExpiry = 15 * time.Minute
	maxPresignExpiry     = 7 * 24 * time.Hour // AWS limit
)

// ErrPresignUnavailable is returned when the client wraps an API that cannot
// sign requests
var ErrPresignUnavailable = errors.New("objectx: presigning requires an *s3.Client")

// normalizeExpiry applies the default and the AWS maximum
func normalizeExpiry(opts *objectx.PresignOptions) time.Duration {
	if opts == nil || opts.Expiry <= 0 {
		return defaultPresignExpiry
	}
	if opts.Expiry > maxPresignExpiry {
		return maxPresignExpiry
	}
	return opts.Expiry
}

// PresignGet generates a presigned URL for downloading an object. The URL is
// signed locally; no request is sent.
func (c *Client) PresignGet(ctx context.Context, bucket, key string, opts *objectx.PresignOptions) (string, error) {
	if err := objectx.ValidateRef(bucket, key); err != nil {
		return "", err
	}
	if c.presign == nil {
		return "", &objectx.StorageError{Op: "presign_get", Bucket: bucket, Key: key, Err: ErrPresignUnavailable}
	}

	expiry := normalizeExpiry(opts)
	c.logger.Debug("Generating presigned GET URL",
		logx.Any("bucket", bucket),
		logx.Any("key", key),
		logx.Any("expiry", expiry),
	)

	input := &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	}
	if opts != nil && opts.ContentType != "" {
		input.ResponseContentType = aws.String(opts.ContentType)
	}

	req, err := c.presign.PresignGetObject(ctx, input, func(po *s3.PresignOptions) {
		po.Expires = expiry
	})
	if err != nil {
		return "", &objectx.StorageError{
			Op:     "presign_get",
			Bucket: bucket,
			Key:    key,
			Err:    fmt.Errorf("failed to generate presigned GET URL: %w", err),
		}
	}

	c.instrumenter.RecordPresignOperation("get")
	return req.URL, nil
}

// PresignPut generates a presigned URL for uploading an object
func (c *Client) PresignPut(ctx context.Context, bucket, key string, opts *objectx.PresignOptions) (string, error) {
	if err := objectx.ValidateRef(bucket, key); err != nil {
		return "", err
	}
	if c.presign == nil {
		return "", &objectx.StorageError{Op: "presign_put", Bucket: bucket, Key: key, Err: ErrPresignUnavailable}
	}

	expiry := normalizeExpiry(opts)
	c.logger.Debug("Generating presigned PUT URL",
		logx.Any("bucket", bucket),
		logx.Any("key", key),
		logx.Any("expiry", expiry),
	)

	input := &s3.PutObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	}
	if opts != nil && opts.ContentType != "" {
		input.ContentType = aws.String(opts.ContentType)
	}

	req, err := c.presign.PresignPutObject(ctx, input, func(po *s3.PresignOptions) {
		po.Expires = expiry
	})
	if err != nil {
		return "", &objectx.StorageError{
			Op:     "presign_put",
			Bucket: bucket,
			Key:    key,
			Err:    fmt.Errorf("failed to generate presigned PUT URL: %w", err),
		}
	}

	c.instrumenter.RecordPresignOperation("put")
	return req.URL, nil
}
