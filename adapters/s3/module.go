package s3

import (
	"context"

	"github.com/gostratum/core"
	"github.com/gostratum/core/logx"
	"github.com/gostratum/objectx"
	"go.uber.org/fx"
)

// Module returns an fx.Module which provides the S3 client as both *Client
// and objectx.Client, plus a readiness check. It expects *objectx.Config and
// *objectx.Instrumenter in the graph, normally from objectx.Module().
func Module() fx.Option {
	return fx.Module("objectx-s3",
		fx.Provide(
			provideClient,
			func(c *Client) objectx.Client { return c },
		),
		fx.Provide(
			fx.Annotated{
				Target: func(c *Client) core.Check {
					return &s3HealthCheck{client: c}
				},
				Group: "health_checkers",
			},
		),
	)
}

// clientParams lists the dependencies of provideClient
type clientParams struct {
	fx.In

	Config       *objectx.Config
	Instrumenter *objectx.Instrumenter `optional:"true"`
	Logger       logx.Logger           `optional:"true"`
}

// provideClient builds the client at graph construction time. NewClient
// sends no requests, so there is nothing to defer to OnStart.
func provideClient(p clientParams) (*Client, error) {
	var opts []objectx.Option
	if p.Logger != nil {
		opts = append(opts, objectx.WithLogger(p.Logger))
	}
	if p.Instrumenter != nil {
		opts = append(opts, objectx.WithInstrumenter(p.Instrumenter))
	}

	return NewClient(context.Background(), p.Config, opts...)
}
