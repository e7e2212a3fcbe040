package minio

import (
	"context"
	"fmt"
	"time"

	"github.com/gostratum/core"
	"github.com/gostratum/core/logx"
	"go.uber.org/fx"

	"github.com/gostratum/objectx"
)

// Module provides the MinIO client as *Client and objectx.Client, plus a
// readiness check. Use it instead of s3.Module(), not alongside it.
func Module() fx.Option {
	return fx.Module("objectx-minio",
		fx.Provide(
			provideClient,
			func(c *Client) objectx.Client { return c },
		),
		fx.Provide(
			fx.Annotated{
				Target: func(c *Client) core.Check {
					return &minioHealthCheck{client: c}
				},
				Group: "health_checkers",
			},
		),
	)
}

type clientParams struct {
	fx.In

	Config       *objectx.Config
	Instrumenter *objectx.Instrumenter `optional:"true"`
	Logger       logx.Logger           `optional:"true"`
}

func provideClient(p clientParams) (*Client, error) {
	var opts []objectx.Option
	if p.Logger != nil {
		opts = append(opts, objectx.WithLogger(p.Logger))
	}
	if p.Instrumenter != nil {
		opts = append(opts, objectx.WithInstrumenter(p.Instrumenter))
	}
	return NewClient(p.Config, opts...)
}

// minioHealthCheck implements core.Check
type minioHealthCheck struct {
	client *Client
}

func (m *minioHealthCheck) Name() string { return "objectx.minio" }

func (m *minioHealthCheck) Kind() core.Kind { return core.Readiness }

func (m *minioHealthCheck) Check(ctx context.Context) error {
	if m.client == nil {
		return fmt.Errorf("no minio client")
	}

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := m.client.Ping(ctx); err != nil {
		return fmt.Errorf("minio ping failed: %w", err)
	}
	return nil
}
