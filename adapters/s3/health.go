package s3

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gostratum/core"
)

// Ping verifies connectivity and credentials. It heads the default bucket
// when one is configured and lists buckets otherwise.
func (c *Client) Ping(ctx context.Context) error {
	if c.config.Bucket != "" {
		_, err := c.api.HeadBucket(ctx, &s3.HeadBucketInput{
			Bucket: aws.String(c.config.Bucket),
		})
		return MapS3Error(err, "ping", c.config.Bucket, "")
	}

	_, err := c.api.ListBuckets(ctx, &s3.ListBucketsInput{})
	return MapS3Error(err, "ping", "", "")
}

// s3HealthCheck implements core.Check for S3 connectivity
type s3HealthCheck struct {
	client *Client
}

func (s *s3HealthCheck) Name() string { return "objectx.s3" }

func (s *s3HealthCheck) Kind() core.Kind { return core.Readiness }

func (s *s3HealthCheck) Check(ctx context.Context) error {
	if s.client == nil {
		return fmt.Errorf("no s3 client")
	}

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := s.client.Ping(ctx); err != nil {
		return fmt.Errorf("s3 ping failed: %w", err)
	}
	return nil
}
