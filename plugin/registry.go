package plugin

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"
	"sync"
	"time"

	"github.com/xraph/mintage/event"
	"github.com/xraph/mintage/meter"
	"github.com/xraph/mintage/nft"
	"github.com/xraph/mintage/payout"
	"github.com/xraph/mintage/token"
)

// DefaultTimeout bounds each plugin call.
const DefaultTimeout = 5 * time.Second

// Registry manages all registered plugins and provides efficient dispatch.
// It uses type-cached discovery so that emission does no type assertions.
type Registry struct {
	mu      sync.RWMutex
	plugins []Plugin
	logger  *slog.Logger
	timeout time.Duration

	// Type-cached plugin lists for efficient dispatch
	onInit             []OnInit
	onShutdown         []OnShutdown
	onTokenMinted      []OnTokenMinted
	onMintRejected     []OnMintRejected
	onTokenTransferred []OnTokenTransferred
	onPayoutComputed   []OnPayoutComputed
	onStorageSettled   []OnStorageSettled
	onEvent            []OnEvent
}

// NewRegistry creates a new plugin registry.
func NewRegistry() *Registry {
	return &Registry{
		logger:  slog.Default(),
		timeout: DefaultTimeout,
	}
}

// WithLogger sets the logger for the registry.
func (r *Registry) WithLogger(logger *slog.Logger) *Registry {
	r.logger = logger
	return r
}

// WithTimeout sets the per-call plugin timeout.
func (r *Registry) WithTimeout(d time.Duration) *Registry {
	r.timeout = d
	return r
}

// Register adds a plugin to the registry and caches its interfaces.
func (r *Registry) Register(p Plugin) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.plugins {
		if existing.Name() == p.Name() {
			return fmt.Errorf("plugin: duplicate registration: %s", p.Name())
		}
	}

	r.plugins = append(r.plugins, p)

	if v, ok := p.(OnInit); ok {
		r.onInit = append(r.onInit, v)
	}
	if v, ok := p.(OnShutdown); ok {
		r.onShutdown = append(r.onShutdown, v)
	}
	if v, ok := p.(OnTokenMinted); ok {
		r.onTokenMinted = append(r.onTokenMinted, v)
	}
	if v, ok := p.(OnMintRejected); ok {
		r.onMintRejected = append(r.onMintRejected, v)
	}
	if v, ok := p.(OnTokenTransferred); ok {
		r.onTokenTransferred = append(r.onTokenTransferred, v)
	}
	if v, ok := p.(OnPayoutComputed); ok {
		r.onPayoutComputed = append(r.onPayoutComputed, v)
	}
	if v, ok := p.(OnStorageSettled); ok {
		r.onStorageSettled = append(r.onStorageSettled, v)
	}
	if v, ok := p.(OnEvent); ok {
		r.onEvent = append(r.onEvent, v)
	}

	r.logger.Info("plugin registered",
		"name", p.Name(),
		"interfaces", implementedInterfaces(p),
	)

	return nil
}

// implementedInterfaces returns the hook names implemented by the plugin.
func implementedInterfaces(p Plugin) []string {
	var interfaces []string
	v := reflect.TypeOf(p)

	check := func(iface reflect.Type, name string) {
		if v.Implements(iface) {
			interfaces = append(interfaces, name)
		}
	}

	check(reflect.TypeOf((*OnInit)(nil)).Elem(), "OnInit")
	check(reflect.TypeOf((*OnShutdown)(nil)).Elem(), "OnShutdown")
	check(reflect.TypeOf((*OnTokenMinted)(nil)).Elem(), "OnTokenMinted")
	check(reflect.TypeOf((*OnMintRejected)(nil)).Elem(), "OnMintRejected")
	check(reflect.TypeOf((*OnTokenTransferred)(nil)).Elem(), "OnTokenTransferred")
	check(reflect.TypeOf((*OnPayoutComputed)(nil)).Elem(), "OnPayoutComputed")
	check(reflect.TypeOf((*OnStorageSettled)(nil)).Elem(), "OnStorageSettled")
	check(reflect.TypeOf((*OnEvent)(nil)).Elem(), "OnEvent")

	return interfaces
}

// Get returns a plugin by name.
func (r *Registry) Get(name string) Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, p := range r.plugins {
		if p.Name() == name {
			return p
		}
	}
	return nil
}

// List returns all registered plugins.
func (r *Registry) List() []Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Plugin, len(r.plugins))
	copy(result, r.plugins)
	return result
}

// Count returns the number of registered plugins.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.plugins)
}

// ──────────────────────────────────────────────────
// Event emission methods
// ──────────────────────────────────────────────────

// EmitInit calls OnInit for all plugins that implement it.
func (r *Registry) EmitInit(ctx context.Context, registry interface{}) {
	r.mu.RLock()
	plugins := r.onInit
	r.mu.RUnlock()

	for _, p := range plugins {
		r.dispatch(ctx, p.Name(), "OnInit", func() error {
			return p.OnInit(ctx, registry)
		})
	}
}

// EmitShutdown calls OnShutdown for all plugins that implement it.
func (r *Registry) EmitShutdown(ctx context.Context) {
	r.mu.RLock()
	plugins := r.onShutdown
	r.mu.RUnlock()

	for _, p := range plugins {
		r.dispatch(ctx, p.Name(), "OnShutdown", func() error {
			return p.OnShutdown(ctx)
		})
	}
}

// EmitTokenMinted emits a token minted event.
func (r *Registry) EmitTokenMinted(ctx context.Context, view *token.View) {
	r.mu.RLock()
	plugins := r.onTokenMinted
	r.mu.RUnlock()

	for _, p := range plugins {
		r.dispatch(ctx, p.Name(), "OnTokenMinted", func() error {
			return p.OnTokenMinted(ctx, view)
		})
	}
}

// EmitMintRejected emits a mint rejected event.
func (r *Registry) EmitMintRejected(ctx context.Context, tokenID string, reason error) {
	r.mu.RLock()
	plugins := r.onMintRejected
	r.mu.RUnlock()

	for _, p := range plugins {
		r.dispatch(ctx, p.Name(), "OnMintRejected", func() error {
			return p.OnMintRejected(ctx, tokenID, reason)
		})
	}
}

// EmitTokenTransferred emits a token transferred event.
func (r *Registry) EmitTokenTransferred(ctx context.Context, result *nft.TransferResult) {
	r.mu.RLock()
	plugins := r.onTokenTransferred
	r.mu.RUnlock()

	for _, p := range plugins {
		r.dispatch(ctx, p.Name(), "OnTokenTransferred", func() error {
			return p.OnTokenTransferred(ctx, result)
		})
	}
}

// EmitPayoutComputed emits a payout computed event.
func (r *Registry) EmitPayoutComputed(ctx context.Context, c *payout.Computation) {
	r.mu.RLock()
	plugins := r.onPayoutComputed
	r.mu.RUnlock()

	for _, p := range plugins {
		r.dispatch(ctx, p.Name(), "OnPayoutComputed", func() error {
			return p.OnPayoutComputed(ctx, c)
		})
	}
}

// EmitStorageSettled emits a storage settled event.
func (r *Registry) EmitStorageSettled(ctx context.Context, receipt *meter.Receipt) {
	r.mu.RLock()
	plugins := r.onStorageSettled
	r.mu.RUnlock()

	for _, p := range plugins {
		r.dispatch(ctx, p.Name(), "OnStorageSettled", func() error {
			return p.OnStorageSettled(ctx, receipt)
		})
	}
}

// EmitEvent fans a NEP-171 event out to every OnEvent plugin.
func (r *Registry) EmitEvent(ctx context.Context, e *event.Event) {
	r.mu.RLock()
	plugins := r.onEvent
	r.mu.RUnlock()

	for _, p := range plugins {
		r.dispatch(ctx, p.Name(), "OnEvent", func() error {
			return p.OnEvent(ctx, e)
		})
	}
}

func (r *Registry) dispatch(ctx context.Context, name, hook string, fn func() error) {
	if err := r.callWithTimeout(ctx, name, fn); err != nil {
		r.logger.Warn("plugin "+hook+" failed",
			"plugin", name,
			"error", err,
		)
	}
}

// callWithTimeout calls a plugin function with a timeout.
// Plugins never block a committed mutation.
func (r *Registry) callWithTimeout(ctx context.Context, pluginName string, fn func() error) error {
	done := make(chan error, 1)

	go func() {
		done <- fn()
	}()

	timer := time.NewTimer(r.timeout)
	defer timer.Stop()

	select {
	case err := <-done:
		return err
	case <-timer.C:
		return fmt.Errorf("plugin timeout: %s", pluginName)
	case <-ctx.Done():
		return ctx.Err()
	}
}
