// Package objectx provides thin object storage client wrappers with
// S3-compatible implementations (AWS S3, MinIO).
//
// The root package holds the shared vocabulary: the Client interface, the
// error taxonomy, configuration, and optional observability. Concrete
// clients live under adapters/ and are constructed directly:
//
//	cfg, err := objectx.LoadConfig(".")
//	client, err := s3.NewClient(ctx, cfg, objectx.WithLogger(logger))
//	err = client.Upload(ctx, "demo", "a/b.txt", objectx.Payload{Data: []byte("hello")})
//
// or wired through fx with objectx.Module() and s3.Module().
//
// Each adapter is a thin pass-through. Validation runs before any request
// is sent, failures come back as *StorageError or *ValidationError, and
// nothing is retried beyond what the SDK itself is configured to do.
package objectx
