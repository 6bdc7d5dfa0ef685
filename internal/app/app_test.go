package app

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/tealfin/candlecache/internal/config"
)

func TestNew_Localfs(t *testing.T) {
	cfg := config.Defaults()
	cfg.Storage.Path = t.TempDir()

	a, err := New(cfg, zap.NewNop())
	require.NoError(t, err)

	assert.NotNil(t, a.Manager)
	assert.Equal(t, []string{"binance"}, a.Registry.Names())
}

func TestNew_NoStorage(t *testing.T) {
	cfg := config.Defaults()
	cfg.Storage.Type = "none"

	a, err := New(cfg, nil)
	require.NoError(t, err)
	assert.NotNil(t, a.Manager)
}

func TestNew_UnknownStorage(t *testing.T) {
	cfg := config.Defaults()
	cfg.Storage.Type = "floppy"

	_, err := New(cfg, zap.NewNop())
	require.Error(t, err)
}
