package testutil

import (
	"time"

	"github.com/gostratum/objectx"
	"go.uber.org/fx"
)

// TestModule provides a test configuration and an in-memory client so fx
// graphs can be exercised without external configuration or a server.
//
// Example usage:
//
//	import "github.com/gostratum/objectx/internal/testutil"
//
//	func TestMyApp(t *testing.T) {
//	    app := fx.New(
//	        testutil.TestModule,
//	        fx.Invoke(func(c objectx.Client) {
//	            // Use in-memory client
//	        }),
//	    )
//	    // ...
//	}
var TestModule = fx.Module("objectx-test",
	fx.Provide(
		NewTestConfig,
		func(cfg *objectx.Config) *MemoryClient { return NewMemoryClient(cfg.Bucket) },
		func(m *MemoryClient) objectx.Client { return m },
	),
)

// NewTestConfig creates a test configuration suitable for unit tests. It uses
// static credentials, path-style addressing, and checksums only when
// required, which S3-compatible test servers expect.
func NewTestConfig() *objectx.Config {
	cfg := objectx.DefaultConfig()
	cfg.Bucket = "test-bucket"
	cfg.Endpoint = "http://localhost:9000"
	cfg.UsePathStyle = true
	cfg.AccessKey = "minioadmin"
	cfg.SecretKey = "minioadmin"
	cfg.DisableSSL = true
	cfg.ChecksumWhenRequired = true
	cfg.MaxRetries = 1
	cfg.BackoffInitial = 10 * time.Millisecond
	cfg.BackoffMax = 50 * time.Millisecond
	return cfg
}
