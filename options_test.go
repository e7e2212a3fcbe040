package objectx

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/gostratum/core/logx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetEffectiveConfig(t *testing.T) {
	t.Run("applies defaults", func(t *testing.T) {
		cfg, opts := GetEffectiveConfig(&Config{Bucket: "demo"})

		assert.Equal(t, "us-east-1", cfg.Region)
		assert.NotNil(t, opts.GetLogger())
		assert.NotNil(t, opts.GetInstrumenter())
	})

	t.Run("keeps supplied options", func(t *testing.T) {
		logger := logx.NewNoopLogger()
		instrumenter := NewInstrumenter(nil, nil)

		_, opts := GetEffectiveConfig(DefaultConfig(), WithLogger(logger), WithInstrumenter(instrumenter))

		assert.Same(t, instrumenter, opts.GetInstrumenter())
		assert.Equal(t, logger, opts.GetLogger())
	})

	t.Run("zero options are safe", func(t *testing.T) {
		var opts Options
		assert.NotNil(t, opts.GetLogger())
		assert.NotNil(t, opts.GetInstrumenter())
	})
}

func TestDetectContentType(t *testing.T) {
	dir := t.TempDir()
	write := func(name string, data []byte) string {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, data, 0o600))
		return path
	}

	tests := []struct {
		name string
		path string
		want string
	}{
		{"json by extension", write("test.json", []byte(`{"name":"Bob","age":69}`)), "application/json"},
		{"csv by extension", write("rows.csv", []byte("a,b\n1,2\n")), "text/csv"},
		{"png by content", write("image", []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")), "image/png"},
		{"pdf by content", write("doc.bin", []byte("%PDF-1.4\n")), "application/pdf"},
		{"missing file", filepath.Join(dir, "missing"), ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectContentType(tt.path))
		})
	}
}
