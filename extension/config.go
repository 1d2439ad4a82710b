package extension

import "time"

// Config holds the Mintage extension configuration.
// Fields can be set programmatically via Option functions or loaded from
// YAML configuration files (under "extensions.mintage" or "mintage" keys).
type Config struct {
	// DisableRoutes prevents the HTTP API from being built.
	DisableRoutes bool `json:"disable_routes" mapstructure:"disable_routes" yaml:"disable_routes"`

	// DisableMigrate prevents auto-migration on start.
	DisableMigrate bool `json:"disable_migrate" mapstructure:"disable_migrate" yaml:"disable_migrate"`

	// BasePath is the URL prefix for mintage routes (default: "/mintage").
	BasePath string `json:"base_path" mapstructure:"base_path" yaml:"base_path"`

	// ContractAccount is the registry's own account. It collects storage
	// costs and may always read token metadata.
	ContractAccount string `json:"contract_account" mapstructure:"contract_account" yaml:"contract_account"`

	// StorageBytePrice is the yocto cost of one storage byte, as a
	// base-10 string (default: 10^19).
	StorageBytePrice string `json:"storage_byte_price" mapstructure:"storage_byte_price" yaml:"storage_byte_price"`

	// RestrictMint limits minting to the contract account.
	RestrictMint bool `json:"restrict_mint" mapstructure:"restrict_mint" yaml:"restrict_mint"`

	// ReceiverTimeout bounds transfer-call receiver notifications (default: 10s).
	ReceiverTimeout time.Duration `json:"receiver_timeout" mapstructure:"receiver_timeout" yaml:"receiver_timeout"`

	// JWTSecret is the HS256 secret used to authenticate API callers.
	// When empty, the API only serves anonymous reads.
	JWTSecret string `json:"-" mapstructure:"jwt_secret" yaml:"jwt_secret"`

	// GroveDriver names the driver of the grove.DB passed to WithGroveDB:
	// "pg", "sqlite" or "mongo".
	GroveDriver string `json:"grove_driver" mapstructure:"grove_driver" yaml:"grove_driver"`

	// RequireConfig requires config to be present in YAML files.
	// If true and no config is found, Register returns an error.
	RequireConfig bool `json:"-" yaml:"-"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		BasePath:         "/mintage",
		ContractAccount:  "mintage.near",
		StorageBytePrice: "10000000000000000000",
		ReceiverTimeout:  10 * time.Second,
	}
}
