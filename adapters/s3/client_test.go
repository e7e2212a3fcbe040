package s3

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/gostratum/core/logx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gostratum/objectx"
)

// recordingLoader applies the load options to a LoadOptions value so tests
// can inspect what buildAWSConfigWithLoader asked for
func recordingLoader(captured *config.LoadOptions) awsConfigLoader {
	return func(ctx context.Context, opts ...func(*config.LoadOptions) error) (aws.Config, error) {
		for _, fn := range opts {
			if err := fn(captured); err != nil {
				return aws.Config{}, err
			}
		}
		return aws.Config{Region: captured.Region, Credentials: captured.Credentials}, nil
	}
}

func TestBuildAWSConfigWithLoader_Sources(t *testing.T) {
	logger := logx.NewNoopLogger()

	tests := []struct {
		name       string
		cfg        *objectx.Config
		wantSource string
		wantErr    bool
	}{
		{
			name:       "static creds",
			cfg:        &objectx.Config{AccessKey: "A", SecretKey: "B"},
			wantSource: "static",
		},
		{
			name:       "profile selected",
			cfg:        &objectx.Config{Profile: "dev"},
			wantSource: "profile",
		},
		{
			name:       "sdk default",
			cfg:        &objectx.Config{},
			wantSource: "sdk-default",
		},
		{
			name:       "static creds take precedence over sdk defaults",
			cfg:        &objectx.Config{AccessKey: "A", SecretKey: "B", UseSDKDefaults: true},
			wantSource: "static",
		},
		{
			name:       "role arn wraps loaded creds",
			cfg:        &objectx.Config{AccessKey: "A", SecretKey: "B", RoleARN: "arn:aws:iam::123456789012:role/TestRole"},
			wantSource: "assumed-role",
		},
		{
			name:    "custom endpoint without creds",
			cfg:     &objectx.Config{Endpoint: "http://localhost:9000"},
			wantErr: true,
		},
		{
			name:       "custom endpoint with sdk defaults",
			cfg:        &objectx.Config{Endpoint: "http://localhost:9000", UseSDKDefaults: true},
			wantSource: "sdk-default",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var captured config.LoadOptions
			_, gotSource, err := buildAWSConfigWithLoader(context.Background(), tt.cfg.Normalize(), logger, recordingLoader(&captured))
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantSource, gotSource)
		})
	}
}

func TestBuildAWSConfigWithLoader_Options(t *testing.T) {
	cfg := (&objectx.Config{Region: "eu-central-1", AccessKey: "A", SecretKey: "B", MaxRetries: 4}).Normalize()

	var captured config.LoadOptions
	awsCfg, _, err := buildAWSConfigWithLoader(context.Background(), cfg, logx.NewNoopLogger(), recordingLoader(&captured))
	require.NoError(t, err)

	assert.Equal(t, "eu-central-1", awsCfg.Region)
	require.NotNil(t, captured.Retryer)
	assert.Equal(t, 5, captured.Retryer().MaxAttempts())

	creds, err := awsCfg.Credentials.Retrieve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "A", creds.AccessKeyID)
	assert.Equal(t, "B", creds.SecretAccessKey)
}

func TestBuildAWSConfigWithLoader_ZeroRetries(t *testing.T) {
	cfg := (&objectx.Config{AccessKey: "A", SecretKey: "B", MaxRetries: 0}).Normalize()
	assert.Equal(t, 0, cfg.MaxRetries)

	var captured config.LoadOptions
	_, _, err := buildAWSConfigWithLoader(context.Background(), cfg, logx.NewNoopLogger(), recordingLoader(&captured))
	require.NoError(t, err)

	require.NotNil(t, captured.Retryer)
	assert.Equal(t, 1, captured.Retryer().MaxAttempts())
}

func TestBuildAWSConfigWithLoader_LoaderError(t *testing.T) {
	loader := func(ctx context.Context, opts ...func(*config.LoadOptions) error) (aws.Config, error) {
		return aws.Config{}, errors.New("no shared config")
	}

	_, _, err := buildAWSConfigWithLoader(context.Background(), objectx.DefaultConfig(), logx.NewNoopLogger(), loader)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no shared config")
}

func TestCreateBackoffStrategy(t *testing.T) {
	cfg := &objectx.Config{BackoffInitial: 100 * time.Millisecond, BackoffMax: 400 * time.Millisecond}
	delayer := createBackoffStrategy(cfg)

	for attempt := 1; attempt <= 6; attempt++ {
		delay, err := delayer(attempt, nil)
		require.NoError(t, err)
		assert.Greater(t, delay, time.Duration(0))
		// Randomization is 10%, so the cap can be exceeded by at most that
		assert.LessOrEqual(t, delay, 440*time.Millisecond)
	}

	first, _ := delayer(1, nil)
	assert.InDelta(t, float64(100*time.Millisecond), float64(first), float64(10*time.Millisecond))
}

func TestNewClient(t *testing.T) {
	t.Run("nil config", func(t *testing.T) {
		_, err := NewClient(context.Background(), nil)
		require.Error(t, err)
	})

	t.Run("invalid config", func(t *testing.T) {
		_, err := NewClient(context.Background(), &objectx.Config{AccessKey: "only-half"})
		require.Error(t, err)
		assert.True(t, objectx.IsValidation(err))
	})

	t.Run("sends no requests", func(t *testing.T) {
		// Nothing listens on this port; construction must still succeed
		cfg := &objectx.Config{
			Endpoint:     "http://127.0.0.1:1",
			AccessKey:    "key",
			SecretKey:    "secret",
			UsePathStyle: true,
		}

		c, err := NewClient(context.Background(), cfg)
		require.NoError(t, err)
		assert.Equal(t, "static", c.CredentialSource())
		assert.Equal(t, "http://127.0.0.1:1", c.Config().Endpoint)
		assert.NotNil(t, c.API())
		assert.NoError(t, c.Close())
	})
}
