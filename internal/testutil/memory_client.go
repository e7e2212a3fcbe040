package testutil

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"iter"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/gostratum/objectx"
)

// MemoryClient is a thread-safe in-memory implementation of objectx.Client
// for testing code that depends on the interface
type MemoryClient struct {
	mu      sync.RWMutex
	buckets map[string]map[string]*memoryObject // bucket -> key -> object
}

type memoryObject struct {
	data         []byte
	contentType  string
	lastModified time.Time
	etag         string
}

var _ objectx.Client = (*MemoryClient)(nil)

// NewMemoryClient creates an empty in-memory client with the given buckets
func NewMemoryClient(buckets ...string) *MemoryClient {
	m := &MemoryClient{buckets: make(map[string]map[string]*memoryObject)}
	for _, b := range buckets {
		m.buckets[b] = make(map[string]*memoryObject)
	}
	return m
}

func notFound(op, bucket, key, what string) error {
	return &objectx.StorageError{Op: op, Bucket: bucket, Key: key, Err: fmt.Errorf("%w: %s", objectx.ErrNotFound, what)}
}

// CreateBucket creates an empty bucket
func (m *MemoryClient) CreateBucket(ctx context.Context, bucket string) error {
	if err := objectx.ValidateBucket(bucket); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.buckets[bucket]; ok {
		return &objectx.StorageError{Op: "create_bucket", Bucket: bucket, Err: objectx.ErrConflict}
	}
	m.buckets[bucket] = make(map[string]*memoryObject)
	return nil
}

// DeleteBucket removes an empty bucket
func (m *MemoryClient) DeleteBucket(ctx context.Context, bucket string) error {
	if err := objectx.ValidateBucket(bucket); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	objects, ok := m.buckets[bucket]
	if !ok {
		return notFound("delete_bucket", bucket, "", "bucket does not exist")
	}
	if len(objects) > 0 {
		return &objectx.StorageError{Op: "delete_bucket", Bucket: bucket, Err: objectx.ErrConflict}
	}
	delete(m.buckets, bucket)
	return nil
}

// ListBuckets returns bucket names in lexical order
func (m *MemoryClient) ListBuckets(ctx context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	names := make([]string, 0, len(m.buckets))
	for name := range m.buckets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// Upload stores a copy of the payload
func (m *MemoryClient) Upload(ctx context.Context, bucket, key string, payload objectx.Payload) error {
	if err := objectx.ValidateRef(bucket, key); err != nil {
		return err
	}
	if err := objectx.ValidatePayload(payload); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return &objectx.StorageError{Op: "upload", Bucket: bucket, Key: key, Err: err}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	objects, ok := m.buckets[bucket]
	if !ok {
		return notFound("upload", bucket, key, "bucket does not exist")
	}

	sum := md5.Sum(payload.Data)
	objects[key] = &memoryObject{
		data:         bytes.Clone(payload.Data),
		contentType:  payload.ContentType,
		lastModified: time.Now(),
		etag:         `"` + hex.EncodeToString(sum[:]) + `"`,
	}
	return nil
}

// UploadFile stores the content of a local file
func (m *MemoryClient) UploadFile(ctx context.Context, bucket, key, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return &objectx.StorageError{Op: "upload_file", Bucket: bucket, Key: key, Err: err}
	}
	return m.Upload(ctx, bucket, key, objectx.Payload{Data: data, ContentType: objectx.DetectContentType(path)})
}

// Download returns a copy of the stored payload
func (m *MemoryClient) Download(ctx context.Context, bucket, key string) (objectx.Payload, error) {
	obj, err := m.lookup("download", bucket, key)
	if err != nil {
		return objectx.Payload{}, err
	}
	return objectx.Payload{Data: bytes.Clone(obj.data), ContentType: obj.contentType}, nil
}

// Head returns object metadata
func (m *MemoryClient) Head(ctx context.Context, bucket, key string) (objectx.ObjectInfo, error) {
	obj, err := m.lookup("head", bucket, key)
	if err != nil {
		return objectx.ObjectInfo{}, err
	}
	return objectx.ObjectInfo{
		Ref:          objectx.ObjectRef{Bucket: bucket, Key: key},
		Size:         int64(len(obj.data)),
		ETag:         obj.etag,
		ContentType:  obj.contentType,
		LastModified: obj.lastModified,
		StorageClass: "STANDARD",
	}, nil
}

func (m *MemoryClient) lookup(op, bucket, key string) (*memoryObject, error) {
	if err := objectx.ValidateRef(bucket, key); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	objects, ok := m.buckets[bucket]
	if !ok {
		return nil, notFound(op, bucket, key, "bucket does not exist")
	}
	obj, ok := objects[key]
	if !ok {
		return nil, notFound(op, bucket, key, "key does not exist")
	}
	return obj, nil
}

// List yields matching keys in lexical order from a snapshot taken when
// ranging starts
func (m *MemoryClient) List(ctx context.Context, bucket, prefix string) iter.Seq2[objectx.ObjectRef, error] {
	return func(yield func(objectx.ObjectRef, error) bool) {
		if err := objectx.ValidateBucket(bucket); err != nil {
			yield(objectx.ObjectRef{}, err)
			return
		}

		m.mu.RLock()
		objects, ok := m.buckets[bucket]
		var keys []string
		for key := range objects {
			if strings.HasPrefix(key, prefix) {
				keys = append(keys, key)
			}
		}
		m.mu.RUnlock()

		if !ok {
			yield(objectx.ObjectRef{}, notFound("list", bucket, prefix, "bucket does not exist"))
			return
		}

		sort.Strings(keys)
		for _, key := range keys {
			if !yield(objectx.ObjectRef{Bucket: bucket, Key: key}, nil) {
				return
			}
		}
	}
}

// ListKeys collects the keys produced by List
func (m *MemoryClient) ListKeys(ctx context.Context, bucket, prefix string) ([]string, error) {
	return objectx.CollectKeys(m.List(ctx, bucket, prefix))
}

// Delete removes an object; missing objects are ignored
func (m *MemoryClient) Delete(ctx context.Context, bucket, key string) error {
	if err := objectx.ValidateRef(bucket, key); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	objects, ok := m.buckets[bucket]
	if !ok {
		return notFound("delete", bucket, key, "bucket does not exist")
	}
	delete(objects, key)
	return nil
}

// DeleteDirectory removes every object under dir
func (m *MemoryClient) DeleteDirectory(ctx context.Context, bucket, dir string) error {
	keys, err := m.ListKeys(ctx, bucket, objectx.DirectoryPrefix(dir))
	if err != nil {
		return err
	}
	for _, key := range keys {
		if err := m.Delete(ctx, bucket, key); err != nil {
			return err
		}
	}
	return nil
}

// Len returns the number of objects stored in bucket
func (m *MemoryClient) Len(bucket string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.buckets[bucket])
}
