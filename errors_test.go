package objectx

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStorageError(t *testing.T) {
	t.Run("formats bucket and key", func(t *testing.T) {
		err := &StorageError{Op: "download", Bucket: "demo", Key: "a/b.txt", Err: ErrNotFound}
		assert.Equal(t, "objectx download s3://demo/a/b.txt: objectx: not found", err.Error())
	})

	t.Run("formats bucket only", func(t *testing.T) {
		err := &StorageError{Op: "create_bucket", Bucket: "demo", Err: ErrConflict}
		assert.Equal(t, "objectx create_bucket s3://demo: objectx: conflict", err.Error())
	})

	t.Run("formats operation only", func(t *testing.T) {
		err := &StorageError{Op: "list_buckets", Err: ErrPermission}
		assert.Equal(t, "objectx list_buckets: objectx: permission denied", err.Error())
	})

	t.Run("unwraps to sentinel", func(t *testing.T) {
		err := fmt.Errorf("outer: %w", &StorageError{Op: "head", Err: fmt.Errorf("%w: gone", ErrNotFound)})
		assert.True(t, IsNotFound(err))
		assert.False(t, IsPermission(err))

		var se *StorageError
		assert.ErrorAs(t, err, &se)
		assert.Equal(t, "head", se.Op)
	})
}

func TestValidationError(t *testing.T) {
	err := &ValidationError{Field: "key", Message: "object key cannot be empty"}
	assert.Equal(t, "invalid key: object key cannot be empty", err.Error())
	assert.True(t, IsValidation(fmt.Errorf("wrapped: %w", err)))
	assert.False(t, IsValidation(errors.New("plain")))
}

func TestClassifyCode(t *testing.T) {
	tests := []struct {
		code   string
		status int
		want   error
	}{
		{"NoSuchKey", http.StatusNotFound, ErrNotFound},
		{"NoSuchBucket", http.StatusNotFound, ErrNotFound},
		{"NotFound", 0, ErrNotFound},
		{"AccessDenied", http.StatusForbidden, ErrPermission},
		{"InvalidAccessKeyId", 0, ErrPermission},
		{"SignatureDoesNotMatch", 0, ErrPermission},
		{"BucketAlreadyExists", http.StatusConflict, ErrConflict},
		{"BucketNotEmpty", 0, ErrConflict},
		{"", http.StatusNotFound, ErrNotFound},
		{"", http.StatusUnauthorized, ErrPermission},
		{"", http.StatusForbidden, ErrPermission},
		{"", http.StatusConflict, ErrConflict},
		{"InternalError", http.StatusInternalServerError, nil},
		{"", 0, nil},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s/%d", tt.code, tt.status), func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyCode(tt.code, tt.status))
		})
	}
}
