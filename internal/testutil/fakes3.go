package testutil

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/johannesboyne/gofakes3"
	"github.com/johannesboyne/gofakes3/backend/s3mem"

	"github.com/gostratum/objectx"
)

// FakeS3 is an in-process S3-compatible server backed by memory
type FakeS3 struct {
	URL     string
	Backend *s3mem.Backend
}

// NewFakeS3 starts a fake S3 server that is shut down when the test ends
func NewFakeS3(t testing.TB) *FakeS3 {
	t.Helper()

	backend := s3mem.New()
	server := httptest.NewServer(gofakes3.New(backend).Server())
	t.Cleanup(server.Close)

	return &FakeS3{URL: server.URL, Backend: backend}
}

// CreateBucket creates a bucket directly in the backend, bypassing any client
func (f *FakeS3) CreateBucket(t testing.TB, name string) {
	t.Helper()
	if err := f.Backend.CreateBucket(name); err != nil {
		t.Fatalf("create bucket %q: %v", name, err)
	}
}

// Config returns a client configuration pointing at the fake server
func (f *FakeS3) Config() *objectx.Config {
	cfg := NewTestConfig()
	cfg.Endpoint = f.URL
	return cfg
}

// UniqueBucket returns a valid bucket name unique to this call
func UniqueBucket(prefix string) string {
	id := strings.ReplaceAll(uuid.NewString(), "-", "")
	return prefix + "-" + id[:12]
}
