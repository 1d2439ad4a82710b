// Package extension provides the Forge extension adapter for Mintage.
//
// It implements the forge.Extension interface to integrate Mintage
// into a Forge application with automatic dependency discovery,
// DI registration, and lifecycle management.
//
// Configuration can be provided programmatically via Option functions
// or via YAML configuration files under "extensions.mintage" or "mintage" keys.
package extension

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/xraph/forge"
	"github.com/xraph/grove"
	"github.com/xraph/vessel"

	"github.com/xraph/mintage"
	"github.com/xraph/mintage/api"
	"github.com/xraph/mintage/store"
	"github.com/xraph/mintage/store/memory"
	"github.com/xraph/mintage/store/mongo"
	"github.com/xraph/mintage/store/postgres"
	"github.com/xraph/mintage/store/sqlite"
	"github.com/xraph/mintage/types"
)

// ExtensionName is the name registered with Forge.
const ExtensionName = "mintage"

// ExtensionDescription is the human-readable description.
const ExtensionDescription = "NFT registry with expiration, royalties and storage metering"

// ExtensionVersion is the semantic version.
const ExtensionVersion = "0.1.0"

// Grove driver names accepted by WithGroveDB.
const (
	DriverPostgres = "pg"
	DriverSQLite   = "sqlite"
	DriverMongo    = "mongo"
)

// Ensure Extension implements forge.Extension at compile time.
var _ forge.Extension = (*Extension)(nil)

// Extension adapts Mintage as a Forge extension.
type Extension struct {
	*forge.BaseExtension

	config       Config
	registry     *mintage.Registry
	store        store.Store
	groveDB      *grove.DB
	handler      http.Handler
	registryOpts []mintage.Option
}

// New creates a new Mintage Forge extension with the given options.
func New(opts ...Option) *Extension {
	e := &Extension{
		BaseExtension: forge.NewBaseExtension(ExtensionName, ExtensionVersion, ExtensionDescription),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Registry returns the underlying Mintage registry.
// This is nil until Register is called.
func (e *Extension) Registry() *mintage.Registry { return e.registry }

// Handler returns the HTTP API mounted under the configured base path.
// It is nil until Register is called, and stays nil when routes are disabled.
func (e *Extension) Handler() http.Handler { return e.handler }

// Register implements [forge.Extension]. It loads configuration,
// initializes the registry, and registers it in the DI container.
func (e *Extension) Register(fapp forge.App) error {
	if err := e.BaseExtension.Register(fapp); err != nil {
		return err
	}

	if err := e.loadConfiguration(); err != nil {
		return err
	}

	s, err := e.resolveStore()
	if err != nil {
		return err
	}
	e.store = s

	opts, err := e.buildRegistryOpts()
	if err != nil {
		return err
	}
	e.registry = mintage.New(e.store, opts...)

	if !e.config.DisableRoutes {
		e.handler = e.buildHandler()
	}

	return vessel.Provide(fapp.Container(), func() (*mintage.Registry, error) {
		return e.registry, nil
	})
}

// Start implements [forge.Extension].
func (e *Extension) Start(ctx context.Context) error {
	if e.registry == nil {
		return errors.New("mintage: extension not initialized")
	}

	if !e.config.DisableMigrate {
		if err := e.registry.Start(ctx); err != nil {
			return err
		}
	}

	e.MarkStarted()
	return nil
}

// Stop implements [forge.Extension].
func (e *Extension) Stop(_ context.Context) error {
	if e.registry != nil {
		if err := e.registry.Stop(); err != nil {
			e.MarkStopped()
			return err
		}
	}
	e.MarkStopped()
	return nil
}

// Health implements [forge.Extension].
func (e *Extension) Health(ctx context.Context) error {
	if e.store == nil {
		return errors.New("mintage: store not initialized")
	}
	return e.store.Ping(ctx)
}

// resolveStore picks the store: an explicit WithStore wins, then a grove
// database, then the in-memory store.
func (e *Extension) resolveStore() (store.Store, error) {
	if e.store != nil {
		return e.store, nil
	}
	if e.groveDB == nil {
		return memory.New(), nil
	}
	switch e.config.GroveDriver {
	case DriverPostgres:
		return postgres.New(e.groveDB), nil
	case DriverSQLite:
		return sqlite.New(e.groveDB), nil
	case DriverMongo:
		return mongo.New(e.groveDB), nil
	default:
		return nil, fmt.Errorf("mintage: unsupported grove driver %q", e.config.GroveDriver)
	}
}

// buildRegistryOpts constructs mintage.Option values from the resolved config.
func (e *Extension) buildRegistryOpts() ([]mintage.Option, error) {
	opts := make([]mintage.Option, 0, len(e.registryOpts)+4)

	if e.config.ContractAccount != "" {
		account, err := types.ParseAccountID(e.config.ContractAccount)
		if err != nil {
			return nil, fmt.Errorf("mintage: contract_account: %w", err)
		}
		opts = append(opts, mintage.WithContractAccount(account))
	}

	if e.config.StorageBytePrice != "" {
		price, err := types.ParseAmount(e.config.StorageBytePrice)
		if err != nil {
			return nil, fmt.Errorf("mintage: storage_byte_price: %w", err)
		}
		opts = append(opts, mintage.WithStorageBytePrice(price))
	}

	if e.config.RestrictMint {
		opts = append(opts, mintage.WithRestrictedMint())
	}

	if e.config.ReceiverTimeout > 0 {
		opts = append(opts, mintage.WithReceiverTimeout(e.config.ReceiverTimeout))
	}

	// Append any pass-through registry options.
	opts = append(opts, e.registryOpts...)

	return opts, nil
}

func (e *Extension) buildHandler() http.Handler {
	var apiOpts []api.Option
	if e.config.JWTSecret != "" {
		apiOpts = append(apiOpts, api.WithJWTSecret([]byte(e.config.JWTSecret)))
	}
	r := chi.NewRouter()
	r.Mount(e.config.BasePath, api.New(e.registry, apiOpts...))
	return r
}

// --- Config Loading (mirrors grove/shield extension pattern) ---

// loadConfiguration loads config from YAML files or programmatic sources.
func (e *Extension) loadConfiguration() error {
	programmaticConfig := e.config

	// Try loading from config file.
	fileConfig, configLoaded := e.tryLoadFromConfigFile()

	if !configLoaded {
		if programmaticConfig.RequireConfig {
			return errors.New("mintage: configuration is required but not found in config files; " +
				"ensure 'extensions.mintage' or 'mintage' key exists in your config")
		}

		// Use programmatic config merged with defaults.
		e.config = mergeWithDefaults(programmaticConfig)
	} else {
		// Config loaded from YAML -- merge with programmatic options.
		e.config = mergeConfigurations(fileConfig, programmaticConfig)
	}

	e.Logger().Debug("mintage: configuration loaded",
		forge.F("disable_routes", e.config.DisableRoutes),
		forge.F("disable_migrate", e.config.DisableMigrate),
		forge.F("base_path", e.config.BasePath),
		forge.F("contract_account", e.config.ContractAccount),
		forge.F("storage_byte_price", e.config.StorageBytePrice),
		forge.F("restrict_mint", e.config.RestrictMint),
		forge.F("receiver_timeout", e.config.ReceiverTimeout),
		forge.F("grove_driver", e.config.GroveDriver),
	)

	return nil
}

// tryLoadFromConfigFile attempts to load config from YAML files.
func (e *Extension) tryLoadFromConfigFile() (Config, bool) {
	cm := e.App().Config()
	var cfg Config

	// Try "extensions.mintage" first (namespaced pattern).
	if cm.IsSet("extensions.mintage") {
		if err := cm.Bind("extensions.mintage", &cfg); err == nil {
			e.Logger().Debug("mintage: loaded config from file",
				forge.F("key", "extensions.mintage"),
			)
			return cfg, true
		}
		e.Logger().Warn("mintage: failed to bind extensions.mintage config",
			forge.F("error", "bind failed"),
		)
	}

	// Try top-level "mintage" key.
	if cm.IsSet("mintage") {
		if err := cm.Bind("mintage", &cfg); err == nil {
			e.Logger().Debug("mintage: loaded config from file",
				forge.F("key", "mintage"),
			)
			return cfg, true
		}
		e.Logger().Warn("mintage: failed to bind mintage config",
			forge.F("error", "bind failed"),
		)
	}

	return Config{}, false
}

// mergeWithDefaults fills zero-valued fields with defaults.
func mergeWithDefaults(cfg Config) Config {
	defaults := DefaultConfig()
	if cfg.BasePath == "" {
		cfg.BasePath = defaults.BasePath
	}
	if cfg.ContractAccount == "" {
		cfg.ContractAccount = defaults.ContractAccount
	}
	if cfg.StorageBytePrice == "" {
		cfg.StorageBytePrice = defaults.StorageBytePrice
	}
	if cfg.ReceiverTimeout == 0 {
		cfg.ReceiverTimeout = defaults.ReceiverTimeout
	}
	return cfg
}

// mergeConfigurations merges YAML config with programmatic options.
// YAML config takes precedence for most fields; programmatic bool flags fill gaps.
func mergeConfigurations(yamlConfig, programmaticConfig Config) Config {
	// Programmatic bool flags override when true.
	if programmaticConfig.DisableRoutes {
		yamlConfig.DisableRoutes = true
	}
	if programmaticConfig.DisableMigrate {
		yamlConfig.DisableMigrate = true
	}
	if programmaticConfig.RestrictMint {
		yamlConfig.RestrictMint = true
	}

	// String fields: YAML takes precedence.
	if yamlConfig.BasePath == "" {
		yamlConfig.BasePath = programmaticConfig.BasePath
	}
	if yamlConfig.ContractAccount == "" {
		yamlConfig.ContractAccount = programmaticConfig.ContractAccount
	}
	if yamlConfig.StorageBytePrice == "" {
		yamlConfig.StorageBytePrice = programmaticConfig.StorageBytePrice
	}
	if yamlConfig.JWTSecret == "" {
		yamlConfig.JWTSecret = programmaticConfig.JWTSecret
	}
	if yamlConfig.GroveDriver == "" {
		yamlConfig.GroveDriver = programmaticConfig.GroveDriver
	}

	// Duration fields: YAML takes precedence, programmatic fills gaps.
	if yamlConfig.ReceiverTimeout == 0 {
		yamlConfig.ReceiverTimeout = programmaticConfig.ReceiverTimeout
	}

	// Fill remaining zeros with defaults.
	return mergeWithDefaults(yamlConfig)
}
