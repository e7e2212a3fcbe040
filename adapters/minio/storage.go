package minio

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"os"

	"github.com/minio/minio-go/v7"

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
		err := c.api.MakeBucket(ctx, bucket, minio.MakeBucketOptions{Region: c.config.Region})
		return MapMinioError(err, "create_bucket", bucket, "")
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
		return MapMinioError(c.api.RemoveBucket(ctx, bucket), "delete_bucket", bucket, "")
	})

	c.logResult("Bucket deleted", "delete_bucket", ref, err)
	return err
}

// ListBuckets returns the names of all visible buckets
func (c *Client) ListBuckets(ctx context.Context) ([]string, error) {
	names := []string{}
	err := c.instrumenter.TraceOperation(ctx, "list_buckets", objectx.ObjectRef{}, func(ctx context.Context) error {
		buckets, err := c.api.ListBuckets(ctx)
		if err != nil {
			return MapMinioError(err, "list_buckets", "", "")
		}
		for _, b := range buckets {
			names = append(names, b.Name)
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
		size := int64(len(payload.Data))
		_, err := c.api.PutObject(ctx, bucket, key, bytes.NewReader(payload.Data), size, minio.PutObjectOptions{
			ContentType: payload.ContentType,
		})
		return MapMinioError(err, "upload", bucket, key)
	})
	if err == nil {
		c.instrumenter.RecordOperationSize("upload", int64(len(payload.Data)))
	}

	c.logResult("Object uploaded", "upload", ref, err)
	return err
}

// UploadFile creates or overwrites an object from a local file
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

// statter is implemented by *minio.Object
type statter interface {
	Stat() (minio.ObjectInfo, error)
}

// Download reads a whole object into memory
func (c *Client) Download(ctx context.Context, bucket, key string) (objectx.Payload, error) {
	if err := objectx.ValidateRef(bucket, key); err != nil {
		return objectx.Payload{}, err
	}

	var payload objectx.Payload
	ref := objectx.ObjectRef{Bucket: bucket, Key: key}
	err := c.instrumenter.TraceOperation(ctx, "download", ref, func(ctx context.Context) error {
		body, err := c.api.GetObject(ctx, bucket, key, minio.GetObjectOptions{})
		if err != nil {
			return MapMinioError(err, "download", bucket, key)
		}
		defer body.Close()

		data, err := io.ReadAll(body)
		if err != nil {
			return MapMinioError(err, "download", bucket, key)
		}

		payload.Data = data
		if s, ok := body.(statter); ok {
			if info, err := s.Stat(); err == nil {
				payload.ContentType = info.ContentType
			}
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
		stat, err := c.api.StatObject(ctx, bucket, key, minio.StatObjectOptions{})
		if err != nil {
			return MapMinioError(err, "head", bucket, key)
		}

		info.Size = stat.Size
		info.ETag = stat.ETag
		info.ContentType = stat.ContentType
		info.LastModified = stat.LastModified
		info.StorageClass = stat.StorageClass
		info.Metadata = stat.UserMetadata
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
	)
	return info, nil
}

// List lazily enumerates objects whose key starts with prefix. minio-go
// pages in a background goroutine; stopping early cancels it.
func (c *Client) List(ctx context.Context, bucket, prefix string) iter.Seq2[objectx.ObjectRef, error] {
	return func(yield func(objectx.ObjectRef, error) bool) {
		if err := objectx.ValidateBucket(bucket); err != nil {
			yield(objectx.ObjectRef{}, err)
			return
		}

		ctx, cancel := context.WithCancel(ctx)
		defer cancel()

		count := 0
		defer func() { c.instrumenter.RecordListOperation(count) }()

		objects := c.api.ListObjects(ctx, bucket, minio.ListObjectsOptions{
			Prefix:    prefix,
			Recursive: true,
			MaxKeys:   int(c.config.ListPageSize),
		})
		for obj := range objects {
			if obj.Err != nil {
				err := MapMinioError(obj.Err, "list", bucket, prefix)
				c.logResult("", "list", objectx.ObjectRef{Bucket: bucket, Key: prefix}, err)
				yield(objectx.ObjectRef{}, err)
				return
			}

			count++
			if !yield(objectx.ObjectRef{Bucket: bucket, Key: obj.Key}, nil) {
				return
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

// Delete removes an object; missing objects are not an error
func (c *Client) Delete(ctx context.Context, bucket, key string) error {
	if err := objectx.ValidateRef(bucket, key); err != nil {
		return err
	}

	ref := objectx.ObjectRef{Bucket: bucket, Key: key}
	err := c.instrumenter.TraceOperation(ctx, "delete", ref, func(ctx context.Context) error {
		err := c.api.RemoveObject(ctx, bucket, key, minio.RemoveObjectOptions{})
		err = MapMinioError(err, "delete", bucket, key)
		if objectx.IsNotFound(err) && !isMissingBucket(err) {
			return nil
		}
		return err
	})

	c.logResult("Object deleted", "delete", ref, err)
	return err
}

// DeleteDirectory removes every object under dir, stopping at the first
// failure
func (c *Client) DeleteDirectory(ctx context.Context, bucket, dir string) error {
	if err := objectx.ValidateBucket(bucket); err != nil {
		return err
	}

	prefix := objectx.DirectoryPrefix(dir)
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

// Ping verifies connectivity. It checks the default bucket when one is
// configured and lists buckets otherwise.
func (c *Client) Ping(ctx context.Context) error {
	if c.config.Bucket == "" {
		_, err := c.api.ListBuckets(ctx)
		return MapMinioError(err, "ping", "", "")
	}

	exists, err := c.api.BucketExists(ctx, c.config.Bucket)
	if err != nil {
		return MapMinioError(err, "ping", c.config.Bucket, "")
	}
	if !exists {
		return &objectx.StorageError{
			Op:     "ping",
			Bucket: c.config.Bucket,
			Err:    fmt.Errorf("%w: bucket does not exist", objectx.ErrNotFound),
		}
	}
	return nil
}

// isMissingBucket reports whether err came from a NoSuchBucket response
func isMissingBucket(err error) bool {
	var resp minio.ErrorResponse
	return errors.As(err, &resp) && resp.Code == "NoSuchBucket"
}

// logResult logs an operation outcome
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
