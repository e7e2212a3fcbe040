package objectx

import (
	"context"
	"fmt"

	"github.com/gostratum/core/configx"
	"github.com/gostratum/core/logx"
	"github.com/gostratum/metricsx"
	"github.com/gostratum/tracingx"
	"go.uber.org/fx"
)

// Module provides configuration, the instrumenter, and lifecycle hooks.
// It does NOT include a concrete client; add an adapter module such as
// s3.Module() to get an objectx.Client.
//
//	app := fx.New(
//	    objectx.Module(),
//	    s3.Module(),
//	    fx.Invoke(func(c objectx.Client) {
//	        // Use client...
//	    }),
//	)
func Module() fx.Option {
	return fx.Module("objectx",
		fx.Provide(
			NewConfig,
			NewObservabilityInstrumenter,
		),
		fx.Invoke(registerLifecycleIfAvailable),
	)
}

// NewConfig creates a new configuration from the configx loader
func NewConfig(loader configx.Loader) (*Config, error) {
	cfg := DefaultConfig()
	if err := loader.Bind(cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	cfg = cfg.Normalize()
	if err := ValidateConfig(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// ObservabilityDeps defines optional observability dependencies
type ObservabilityDeps struct {
	fx.In

	Metrics metricsx.Metrics `optional:"true"`
	Tracer  tracingx.Tracer  `optional:"true"`
}

// NewObservabilityInstrumenter creates an instrumenter for client operations
func NewObservabilityInstrumenter(deps ObservabilityDeps) *Instrumenter {
	return NewInstrumenter(deps.Metrics, deps.Tracer)
}

// LifecycleParams defines parameters for lifecycle management
type LifecycleParams struct {
	fx.In

	Lifecycle fx.Lifecycle
	Client    Client      `optional:"true"` // present only when an adapter module is included
	Logger    logx.Logger `optional:"true"`
}

// registerLifecycleIfAvailable registers start/stop logging and closes the
// client on shutdown when an adapter module is included
func registerLifecycleIfAvailable(params LifecycleParams) {
	if params.Client == nil {
		if params.Logger != nil {
			params.Logger.Debug("objectx module loaded without client adapter")
		}
		return
	}

	params.Lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if params.Logger != nil {
				params.Logger.Info("objectx module started")
			}
			return nil
		},
		OnStop: func(ctx context.Context) error {
			if closer, ok := params.Client.(interface{ Close() error }); ok {
				if err := closer.Close(); err != nil {
					if params.Logger != nil {
						params.Logger.Error("Error closing object storage client", logx.Any("error", err))
					}
					return err
				}
			}

			if params.Logger != nil {
				params.Logger.Info("objectx module stopped")
			}
			return nil
		},
	})
}

// WithCustomClient provides a concrete Client to the fx graph. Useful for
// tests or for applications that construct clients outside adapter modules.
func WithCustomClient(c Client) fx.Option {
	return fx.Supply(fx.Annotate(c, fx.As(new(Client))))
}
