package objectx

import (
	"context"
	"iter"
	"time"
)

// ObjectRef identifies a stored object
type ObjectRef struct {
	// Bucket is the container name
	Bucket string

	// Key is the object path within the bucket
	Key string
}

// String renders the reference as s3://bucket/key
func (r ObjectRef) String() string {
	return "s3://" + r.Bucket + "/" + r.Key
}

// Payload is the content of an object
type Payload struct {
	// Data is the object body. Must be non-nil for writes.
	Data []byte

	// ContentType is the MIME type (optional)
	ContentType string
}

// ObjectInfo contains object metadata returned by Head
type ObjectInfo struct {
	Ref          ObjectRef
	Size         int64
	ETag         string
	ContentType  string
	LastModified time.Time
	StorageClass string
	Metadata     map[string]string
}

// PresignOptions configures presigned URL generation
type PresignOptions struct {
	// Expiry is how long the URL remains valid (default: 15m, max: 7 days)
	Expiry time.Duration

	// ContentType is the response content type for GET or the
	// required content type for PUT
	ContentType string
}

// Client is the object storage interface implemented by the adapters.
//
// Every call is a single synchronous request/response (or, for listing and
// directory deletion, a sequence of them). Nothing is retried or cached by
// the wrapper; retries belong to the underlying SDK.
type Client interface {
	// CreateBucket creates a bucket in the configured region
	CreateBucket(ctx context.Context, bucket string) error

	// DeleteBucket removes an empty bucket
	DeleteBucket(ctx context.Context, bucket string) error

	// ListBuckets returns the names of all visible buckets
	ListBuckets(ctx context.Context) ([]string, error)

	// Upload creates or overwrites an object from memory
	Upload(ctx context.Context, bucket, key string, payload Payload) error

	// UploadFile creates or overwrites an object from a local file
	UploadFile(ctx context.Context, bucket, key, path string) error

	// Download reads a whole object into memory
	Download(ctx context.Context, bucket, key string) (Payload, error)

	// Head retrieves object metadata without the payload
	Head(ctx context.Context, bucket, key string) (ObjectInfo, error)

	// List lazily enumerates objects whose key starts with prefix.
	// Ranging over the result again restarts the listing.
	List(ctx context.Context, bucket, prefix string) iter.Seq2[ObjectRef, error]

	// ListKeys collects the keys produced by List
	ListKeys(ctx context.Context, bucket, prefix string) ([]string, error)

	// Delete removes an object. Deleting a missing object is not an error.
	Delete(ctx context.Context, bucket, key string) error

	// DeleteDirectory removes every object under dir
	DeleteDirectory(ctx context.Context, bucket, dir string) error
}

// CollectKeys drains a listing sequence into a slice of keys, stopping at
// the first error.
func CollectKeys(seq iter.Seq2[ObjectRef, error]) ([]string, error) {
	keys := []string{}
	for ref, err := range seq {
		if err != nil {
			return nil, err
		}
		keys = append(keys, ref.Key)
	}
	return keys, nil
}

// DirectoryPrefix normalizes a directory name into a listing prefix.
// An empty dir selects the whole bucket.
func DirectoryPrefix(dir string) string {
	if dir != "" && dir[len(dir)-1] != '/' {
		return dir + "/"
	}
	return dir
}
