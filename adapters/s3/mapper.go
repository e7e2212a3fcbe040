package s3

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"

	"github.com/gostratum/objectx"
)

// MapS3Error converts S3 SDK errors to domain errors. The result is always a
// *objectx.StorageError; its chain carries a sentinel when the failure has a
// domain meaning and the original SDK error either way.
func MapS3Error(err error, op, bucket, key string) error {
	if err == nil {
		return nil
	}

	// Already mapped (e.g. by a nested call)
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

	// Modeled S3 error types
	var (
		noSuchBucket  *types.NoSuchBucket
		noSuchKey     *types.NoSuchKey
		notFound      *types.NotFound
		alreadyExists *types.BucketAlreadyExists
		alreadyOwned  *types.BucketAlreadyOwnedByYou
	)
	switch {
	case errors.As(err, &noSuchBucket):
		return wrap(fmt.Errorf("%w: bucket does not exist: %w", objectx.ErrNotFound, err))
	case errors.As(err, &noSuchKey), errors.As(err, &notFound):
		return wrap(fmt.Errorf("%w: %w", objectx.ErrNotFound, err))
	case errors.As(err, &alreadyExists):
		return wrap(fmt.Errorf("%w: bucket already exists: %w", objectx.ErrConflict, err))
	case errors.As(err, &alreadyOwned):
		return wrap(fmt.Errorf("%w: bucket already owned by you: %w", objectx.ErrConflict, err))
	}

	// Generic API errors carry a code; HTTP responses carry a status
	code, status := errorCode(err), httpStatus(err)
	if sentinel := objectx.ClassifyCode(code, status); sentinel != nil {
		return wrap(fmt.Errorf("%w: %w", sentinel, err))
	}

	return wrap(err)
}

// errorCode extracts the service error code, if any
func errorCode(err error) string {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return apiErr.ErrorCode()
	}
	return ""
}

// httpStatus extracts the HTTP status code from a response error, if any
func httpStatus(err error) int {
	var respErr interface{ HTTPStatusCode() int }
	if errors.As(err, &respErr) {
		return respErr.HTTPStatusCode()
	}
	return 0
}
