package extension

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xraph/grove"

	"github.com/xraph/mintage/store/memory"
)

func TestMergeWithDefaults(t *testing.T) {
	cfg := mergeWithDefaults(Config{ContractAccount: "registry.near"})
	assert.Equal(t, "/mintage", cfg.BasePath)
	assert.Equal(t, "registry.near", cfg.ContractAccount)
	assert.Equal(t, "10000000000000000000", cfg.StorageBytePrice)
	assert.Equal(t, 10*time.Second, cfg.ReceiverTimeout)
}

func TestMergeConfigurations(t *testing.T) {
	yaml := Config{BasePath: "/nft", StorageBytePrice: "5"}
	prog := Config{
		BasePath:        "/ignored",
		DisableMigrate:  true,
		RestrictMint:    true,
		ContractAccount: "prog.near",
		JWTSecret:       "s3cret",
		ReceiverTimeout: time.Second,
	}

	cfg := mergeConfigurations(yaml, prog)
	assert.Equal(t, "/nft", cfg.BasePath, "yaml wins for strings")
	assert.Equal(t, "5", cfg.StorageBytePrice)
	assert.Equal(t, "prog.near", cfg.ContractAccount, "programmatic fills gaps")
	assert.Equal(t, "s3cret", cfg.JWTSecret)
	assert.Equal(t, time.Second, cfg.ReceiverTimeout)
	assert.True(t, cfg.DisableMigrate)
	assert.True(t, cfg.RestrictMint)
	assert.False(t, cfg.DisableRoutes)
}

func TestBuildRegistryOpts(t *testing.T) {
	e := New(WithContractAccount("registry.near"), WithStorageBytePrice("7"), WithRestrictedMint())
	e.config = mergeWithDefaults(e.config)

	opts, err := e.buildRegistryOpts()
	require.NoError(t, err)
	assert.Len(t, opts, 4)

	e = New(WithStorageBytePrice("-1"))
	_, err = e.buildRegistryOpts()
	require.Error(t, err)

	e = New(WithContractAccount("Not Valid"))
	_, err = e.buildRegistryOpts()
	require.Error(t, err)
}

func TestResolveStore(t *testing.T) {
	explicit := memory.New()
	e := New(WithStore(explicit))
	s, err := e.resolveStore()
	require.NoError(t, err)
	assert.Same(t, explicit, s)

	e = New()
	s, err = e.resolveStore()
	require.NoError(t, err)
	assert.IsType(t, &memory.Store{}, s)

	e = New()
	e.groveDB = new(grove.DB)
	e.config.GroveDriver = "oracle"
	_, err = e.resolveStore()
	require.ErrorContains(t, err, "unsupported grove driver")
}
