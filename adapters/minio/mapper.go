package minio

import (
	"context"
	"errors"
	"fmt"

	"github.com/minio/minio-go/v7"

	"github.com/gostratum/objectx"
)

// MapMinioError converts minio-go errors to domain errors. Like the S3
// adapter, the result is always a *objectx.StorageError.
func MapMinioError(err error, op, bucket, key string) error {
	if err == nil {
		return nil
	}

	var storageErr *objectx.StorageError
	if errors.As(err, &storageErr) {
		return err
	}

	wrap := func(inner error) error {
		return &objectx.StorageError{Op: op, Bucket: bucket, Key: key, Err: inner}
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return wrap(err)
	}

	resp := minio.ToErrorResponse(err)
	if resp.Code == "" && resp.StatusCode == 0 {
		// ToErrorResponse does not unwrap
		_ = errors.As(err, &resp)
	}

	if sentinel := objectx.ClassifyCode(resp.Code, resp.StatusCode); sentinel != nil {
		return wrap(fmt.Errorf("%w: %w", sentinel, err))
	}
	return wrap(err)
}
