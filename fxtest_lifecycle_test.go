package objectx_test

import (
	"context"
	"testing"

	"github.com/gostratum/core/logx"
	"github.com/gostratum/objectx"
	"github.com/gostratum/objectx/internal/testutil"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"
)

func TestModuleLifecycleProvidesClient(t *testing.T) {
	app := fxtest.New(t,
		fx.Options(
			testutil.TestModule,
			fx.Provide(func() logx.Logger { return logx.NewNoopLogger() }),
		),
		fx.Invoke(func(c objectx.Client) {
			require.NotNil(t, c)
			require.NoError(t, c.Upload(context.Background(), "test-bucket", "k", objectx.Payload{Data: []byte("v")}))
		}),
	)

	defer app.RequireStart().RequireStop()
}
