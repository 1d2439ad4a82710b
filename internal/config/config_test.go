package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/mintage"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, StoreMemory, cfg.Store)
	assert.Equal(t, "mintage.near", cfg.ContractAccount)
	assert.Equal(t, 10*time.Second, cfg.ReceiverTimeout)
	assert.Empty(t, cfg.KafkaBrokers)
	assert.False(t, cfg.OTelEnabled)
	assert.Equal(t, slog.LevelInfo, cfg.Level())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("MINTAGE_KAFKA_BROKERS", "k1:9092,k2:9092")
	t.Setenv("MINTAGE_RESTRICT_MINT", "true")
	t.Setenv("MINTAGE_RECEIVER_TIMEOUT", "250ms")
	t.Setenv("MINTAGE_LOG_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	assert.True(t, cfg.RestrictMint)
	assert.Equal(t, 250*time.Millisecond, cfg.ReceiverTimeout)
	assert.Equal(t, slog.LevelDebug, cfg.Level())

	opts, err := cfg.RegistryOptions()
	require.NoError(t, err)
	assert.Len(t, opts, 4)
}

func TestLoadParseError(t *testing.T) {
	t.Setenv("MINTAGE_RECEIVER_TIMEOUT", "soon")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse env:")
}

func TestLoadValidation(t *testing.T) {
	t.Setenv("MINTAGE_STORE", "postgres")
	t.Setenv("MINTAGE_STORAGE_BYTE_PRICE", "-1")
	t.Setenv("MINTAGE_OTEL_ENABLED", "true")

	_, err := Load()
	require.Error(t, err)

	var multi mintage.MultiError
	require.ErrorAs(t, err, &multi)
	assert.Len(t, multi.Errors, 3)
	assert.True(t, mintage.IsValidation(err))
}
