package extension

import (
	"time"

	"github.com/xraph/grove"

	"github.com/xraph/mintage"
	"github.com/xraph/mintage/plugin"
	"github.com/xraph/mintage/store"
)

// Option configures the Mintage Forge extension.
type Option func(*Extension)

// WithStore sets the store for the registry.
func WithStore(s store.Store) Option {
	return func(e *Extension) {
		e.store = s
	}
}

// WithGroveDB builds the store from an open grove database. driver is one
// of DriverPostgres, DriverSQLite or DriverMongo.
func WithGroveDB(db *grove.DB, driver string) Option {
	return func(e *Extension) {
		e.groveDB = db
		e.config.GroveDriver = driver
	}
}

// WithRegistryOption passes a mintage.Option through to the underlying registry.
func WithRegistryOption(opt mintage.Option) Option {
	return func(e *Extension) {
		e.registryOpts = append(e.registryOpts, opt)
	}
}

// WithPlugin registers a mintage plugin.
func WithPlugin(p plugin.Plugin) Option {
	return func(e *Extension) {
		e.registryOpts = append(e.registryOpts, mintage.WithPlugin(p))
	}
}

// WithConfig sets the Forge extension configuration.
func WithConfig(cfg Config) Option {
	return func(e *Extension) { e.config = cfg }
}

// WithDisableRoutes prevents the HTTP API from being built.
func WithDisableRoutes() Option {
	return func(e *Extension) { e.config.DisableRoutes = true }
}

// WithDisableMigrate prevents auto-migration on start.
func WithDisableMigrate() Option {
	return func(e *Extension) { e.config.DisableMigrate = true }
}

// WithBasePath sets the URL prefix for mintage routes.
func WithBasePath(path string) Option {
	return func(e *Extension) { e.config.BasePath = path }
}

// WithRequireConfig requires config to be present in YAML files.
// If true and no config is found, Register returns an error.
func WithRequireConfig(require bool) Option {
	return func(e *Extension) { e.config.RequireConfig = require }
}

// WithContractAccount sets the registry's own account.
func WithContractAccount(account string) Option {
	return func(e *Extension) { e.config.ContractAccount = account }
}

// WithStorageBytePrice sets the per-byte storage price as a base-10 string.
func WithStorageBytePrice(price string) Option {
	return func(e *Extension) { e.config.StorageBytePrice = price }
}

// WithRestrictedMint limits minting to the contract account.
func WithRestrictedMint() Option {
	return func(e *Extension) { e.config.RestrictMint = true }
}

// WithReceiverTimeout bounds transfer-call receiver notifications.
func WithReceiverTimeout(d time.Duration) Option {
	return func(e *Extension) { e.config.ReceiverTimeout = d }
}

// WithJWTSecret sets the HS256 secret for API caller authentication.
func WithJWTSecret(secret string) Option {
	return func(e *Extension) { e.config.JWTSecret = secret }
}
