package objectx

import (
	"errors"
	"fmt"
	"net/http"
)

// Domain Errors - use errors.Is for checking
var (
	// ErrNotFound indicates the requested object or bucket does not exist
	ErrNotFound = errors.New("objectx: not found")

	// ErrPermission indicates the credentials are not authorized for the request
	ErrPermission = errors.New("objectx: permission denied")

	// ErrConflict indicates the request conflicts with existing state
	// (bucket already exists, bucket not empty)
	ErrConflict = errors.New("objectx: conflict")

	// ErrInvalidConfig indicates the client configuration is invalid
	ErrInvalidConfig = errors.New("objectx: invalid configuration")
)

// StorageError wraps underlying errors with the failed operation and target
type StorageError struct {
	Op     string // operation that failed
	Bucket string // bucket name (if applicable)
	Key    string // object key or prefix (if applicable)
	Err    error  // underlying error
}

func (e *StorageError) Error() string {
	switch {
	case e.Bucket != "" && e.Key != "":
		return fmt.Sprintf("objectx %s s3://%s/%s: %v", e.Op, e.Bucket, e.Key, e.Err)
	case e.Bucket != "":
		return fmt.Sprintf("objectx %s s3://%s: %v", e.Op, e.Bucket, e.Err)
	default:
		return fmt.Sprintf("objectx %s: %v", e.Op, e.Err)
	}
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// ValidationError reports caller input or configuration rejected before any
// request was sent
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// IsNotFound checks if an error is or wraps ErrNotFound
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsPermission checks if an error is or wraps ErrPermission
func IsPermission(err error) bool {
	return errors.Is(err, ErrPermission)
}

// IsConflict checks if an error is or wraps ErrConflict
func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict)
}

// IsValidation checks if an error is or wraps a *ValidationError
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// ClassifyCode maps a provider error code (and HTTP status as a fallback)
// to a domain sentinel. It returns nil when the error has no domain meaning.
func ClassifyCode(code string, status int) error {
	switch code {
	case "NoSuchKey", "NoSuchBucket", "NotFound", "NoSuchUpload":
		return ErrNotFound
	case "AccessDenied", "Forbidden", "AllAccessDisabled", "InvalidAccessKeyId",
		"SignatureDoesNotMatch", "AccountProblem", "InvalidToken", "ExpiredToken":
		return ErrPermission
	case "BucketAlreadyExists", "BucketAlreadyOwnedByYou", "BucketNotEmpty",
		"OperationAborted":
		return ErrConflict
	}

	switch status {
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusUnauthorized, http.StatusForbidden:
		return ErrPermission
	case http.StatusConflict:
		return ErrConflict
	}

	return nil
}
