package s3

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"iter"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/gostratum/core/logx"
	"github.com/gostratum/objectx"
)

// CreateBucket creates a bucket in the configured region
func (c *Client) CreateBucket(ctx context.Context, bucket string) error {
	if err := objectx.ValidateBucket(bucket); err != nil {
		return err
	}

	ref := objectx.ObjectRef{Bucket: bucket}
	err := c.instrumenter.TraceOperation(ctx, "create_bucket", ref, func(ctx context.Context) error {
		input := &s3.CreateBucketInput{
			Bucket: aws.String(bucket),
		}

		// us-east-1 rejects an explicit location constraint
		if c.config.Region != "" && c.config.Region != "us-east-1" {
			input.CreateBucketConfiguration = &types.CreateBucketConfiguration{
				LocationConstraint: types.BucketLocationConstraint(c.config.Region),
			}
		}

		_, err := c.api.CreateBucket(ctx, input)
		return MapS3Error(err, "create_bucket", bucket, "")
	})

	c.logResult("Bucket created", "create_bucket", ref, err)
	return err
}

// DeleteBucket removes an empty bucket
func (c *Client) DeleteBucket(ctx context.Context, bucket string) error {
	if err := objectx.ValidateBucket(bucket); err != nil {
		return err
	}

	ref := objectx.ObjectRef{Bucket: bucket}
	err := c.instrumenter.TraceOperation(ctx, "delete_bucket", ref, func(ctx context.Context) error {
		_, err := c.api.DeleteBucket(ctx, &s3.DeleteBucketInput{Bucket: aws.String(bucket)})
		return MapS3Error(err, "delete_bucket", bucket, "")
	})

	c.logResult("Bucket deleted", "delete_bucket", ref, err)
	return err
}

// ListBuckets returns the names of all buckets visible to the credentials
func (c *Client) ListBuckets(ctx context.Context) ([]string, error) {
	names := []string{}
	err := c.instrumenter.TraceOperation(ctx, "list_buckets", objectx.ObjectRef{}, func(ctx context.Context) error {
		output, err := c.api.ListBuckets(ctx, &s3.ListBucketsInput{})
		if err != nil {
			return MapS3Error(err, "list_buckets", "", "")
		}
		for _, b := range output.Buckets {
			if b.Name != nil {
				names = append(names, aws.ToString(b.Name))
			}
		}
		return nil
	})
	if err != nil {
		c.logResult("", "list_buckets", objectx.ObjectRef{}, err)
		return nil, err
	}

	c.logger.Info("Buckets listed", logx.Any("count", len(names)))
	return names, nil
}

// Upload creates or overwrites an object from memory
func (c *Client) Upload(ctx context.Context, bucket, key string, payload objectx.Payload) error {
	if err := objectx.ValidateRef(bucket, key); err != nil {
		return err
	}
	if err := objectx.ValidatePayload(payload); err != nil {
		return err
	}

	ref := objectx.ObjectRef{Bucket: bucket, Key: key}
	err := c.instrumenter.TraceOperation(ctx, "upload", ref, func(ctx context.Context) error {
		input := &s3.PutObjectInput{
			Bucket:        aws.String(bucket),
			Key:           aws.String(key),
			Body:          bytes.NewReader(payload.Data),
			ContentLength: aws.Int64(int64(len(payload.Data))),
		}
		if payload.ContentType != "" {
			input.ContentType = aws.String(payload.ContentType)
		}

		_, err := c.api.PutObject(ctx, input)
		return MapS3Error(err, "upload", bucket, key)
	})
	if err == nil {
		c.instrumenter.RecordOperationSize("upload", int64(len(payload.Data)))
	}

	c.logResult("Object uploaded", "upload", ref, err)
	return err
}

// UploadFile creates or overwrites an object from a local file. The content
// type is detected from the file.
func (c *Client) UploadFile(ctx context.Context, bucket, key, path string) error {
	if err := objectx.ValidateRef(bucket, key); err != nil {
		return err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return &objectx.StorageError{
			Op:     "upload_file",
			Bucket: bucket,
			Key:    key,
			Err:    fmt.Errorf("failed to read file %q: %w", path, err),
		}
	}

	return c.Upload(ctx, bucket, key, objectx.Payload{
		Data:        data,
		ContentType: objectx.DetectContentType(path),
	})
}

// Download reads a whole object into memory
func (c *Client) Download(ctx context.Context, bucket, key string) (objectx.Payload, error) {
	if err := objectx.ValidateRef(bucket, key); err != nil {
		return objectx.Payload{}, err
	}

	var payload objectx.Payload
	ref := objectx.ObjectRef{Bucket: bucket, Key: key}
	err := c.instrumenter.TraceOperation(ctx, "download", ref, func(ctx context.Context) error {
		output, err := c.api.GetObject(ctx, &s3.GetObjectInput{
			Bucket: aws.String(bucket),
			Key:    aws.String(key),
		})
		if err != nil {
			return MapS3Error(err, "download", bucket, key)
		}
		defer output.Body.Close()

		data, err := io.ReadAll(output.Body)
		if err != nil {
			return MapS3Error(fmt.Errorf("failed to read body: %w", err), "download", bucket, key)
		}

		payload = objectx.Payload{
			Data:        data,
			ContentType: aws.ToString(output.ContentType),
		}
		return nil
	})
	if err != nil {
		c.logResult("", "download", ref, err)
		return objectx.Payload{}, err
	}

	c.instrumenter.RecordOperationSize("download", int64(len(payload.Data)))
	c.logResult("Object downloaded", "download", ref, nil)
	return payload, nil
}

// Head retrieves object metadata without the payload
func (c *Client) Head(ctx context.Context, bucket, key string) (objectx.ObjectInfo, error) {
	if err := objectx.ValidateRef(bucket, key); err != nil {
		return objectx.ObjectInfo{}, err
	}

	ref := objectx.ObjectRef{Bucket: bucket, Key: key}
	info := objectx.ObjectInfo{Ref: ref}
	err := c.instrumenter.TraceOperation(ctx, "head", ref, func(ctx context.Context) error {
		output, err := c.api.HeadObject(ctx, &s3.HeadObjectInput{
			Bucket: aws.String(bucket),
			Key:    aws.String(key),
		})
		if err != nil {
			return MapS3Error(err, "head", bucket, key)
		}

		info.Size = aws.ToInt64(output.ContentLength)
		info.ETag = aws.ToString(output.ETag)
		info.ContentType = aws.ToString(output.ContentType)
		info.StorageClass = string(output.StorageClass)
		info.Metadata = output.Metadata
		if output.LastModified != nil {
			info.LastModified = *output.LastModified
		}
		return nil
	})
	if err != nil {
		c.logResult("", "head", ref, err)
		return objectx.ObjectInfo{}, err
	}

	c.logger.Debug("Object head successful",
		logx.Any("bucket", bucket),
		logx.Any("key", key),
		logx.Any("size", info.Size),
		logx.Any("etag", info.ETag),
	)
	return info, nil
}

// List lazily enumerates objects whose key starts with prefix, one page at a
// time. Nothing is requested until the sequence is ranged over, and ranging
// again restarts from the first page. An invalid bucket yields a single
// validation error.
func (c *Client) List(ctx context.Context, bucket, prefix string) iter.Seq2[objectx.ObjectRef, error] {
	return func(yield func(objectx.ObjectRef, error) bool) {
		if err := objectx.ValidateBucket(bucket); err != nil {
			yield(objectx.ObjectRef{}, err)
			return
		}

		input := &s3.ListObjectsV2Input{
			Bucket:  aws.String(bucket),
			MaxKeys: aws.Int32(c.config.ListPageSize),
		}
		if prefix != "" {
			input.Prefix = aws.String(prefix)
		}

		count := 0
		defer func() { c.instrumenter.RecordListOperation(count) }()

		paginator := s3.NewListObjectsV2Paginator(c.api, input)
		for paginator.HasMorePages() {
			var page *s3.ListObjectsV2Output
			err := c.instrumenter.TraceOperation(ctx, "list_page", objectx.ObjectRef{Bucket: bucket, Key: prefix}, func(ctx context.Context) error {
				var err error
				page, err = paginator.NextPage(ctx)
				return MapS3Error(err, "list", bucket, prefix)
			})
			if err != nil {
				c.logResult("", "list", objectx.ObjectRef{Bucket: bucket, Key: prefix}, err)
				yield(objectx.ObjectRef{}, err)
				return
			}

			for _, obj := range page.Contents {
				if obj.Key == nil {
					continue
				}
				count++
				if !yield(objectx.ObjectRef{Bucket: bucket, Key: aws.ToString(obj.Key)}, nil) {
					return
				}
			}
		}

		c.logger.Debug("Objects listed",
			logx.Any("bucket", bucket),
			logx.Any("prefix", prefix),
			logx.Any("count", count),
		)
	}
}

// ListKeys collects every key under prefix
func (c *Client) ListKeys(ctx context.Context, bucket, prefix string) ([]string, error) {
	return objectx.CollectKeys(c.List(ctx, bucket, prefix))
}

// Delete removes an object. S3 reports success for missing keys, so deleting
// twice is not an error.
func (c *Client) Delete(ctx context.Context, bucket, key string) error {
	if err := objectx.ValidateRef(bucket, key); err != nil {
		return err
	}

	ref := objectx.ObjectRef{Bucket: bucket, Key: key}
	err := c.instrumenter.TraceOperation(ctx, "delete", ref, func(ctx context.Context) error {
		_, err := c.api.DeleteObject(ctx, &s3.DeleteObjectInput{
			Bucket: aws.String(bucket),
			Key:    aws.String(key),
		})
		return MapS3Error(err, "delete", bucket, key)
	})

	c.logResult("Object deleted", "delete", ref, err)
	return err
}

// DeleteDirectory removes every object under dir one at a time, stopping at
// the first failure. An empty dir empties the whole bucket.
func (c *Client) DeleteDirectory(ctx context.Context, bucket, dir string) error {
	if err := objectx.ValidateBucket(bucket); err != nil {
		return err
	}

	prefix := objectx.DirectoryPrefix(dir)

	// Collect first so deletions do not disturb the listing
	keys, err := c.ListKeys(ctx, bucket, prefix)
	if err != nil {
		return err
	}

	for _, key := range keys {
		if err := c.Delete(ctx, bucket, key); err != nil {
			return err
		}
	}

	c.logger.Info("Directory deleted",
		logx.Any("bucket", bucket),
		logx.Any("prefix", prefix),
		logx.Any("count", len(keys)),
	)
	return nil
}

// logResult logs an operation outcome: msg at info level on success, the
// error at error level otherwise
func (c *Client) logResult(msg, op string, ref objectx.ObjectRef, err error) {
	if err != nil {
		c.logger.Error("Object storage operation failed",
			logx.Any("operation", op),
			logx.Any("bucket", ref.Bucket),
			logx.Any("key", ref.Key),
			logx.Any("error", err),
		)
		return
	}
	c.logger.Info(msg,
		logx.Any("operation", op),
		logx.Any("bucket", ref.Bucket),
		logx.Any("key", ref.Key),
	)
}
