package mintage

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/xraph/mintage/expiry"
	"github.com/xraph/mintage/meter"
	"github.com/xraph/mintage/nft"
	"github.com/xraph/mintage/plugin"
	"github.com/xraph/mintage/royalty"
	"github.com/xraph/mintage/store"
	"github.com/xraph/mintage/token"
	"github.com/xraph/mintage/types"
)

// TracerName is the instrumentation scope of Registry spans.
const TracerName = "github.com/xraph/mintage"

// DefaultReceiverTimeout bounds a transfer-call receiver notification.
const DefaultReceiverTimeout = 10 * time.Second

// Registry is the token registry: the base ledger plus expirations,
// royalties and storage metering, composed so that every mutation is
// all-or-nothing.
type Registry struct {
	store       store.Store
	ledger      nft.Ledger
	expirations expiry.Store
	royalties   royalty.Store
	meter       *meter.Meter
	plugins     *plugin.Registry
	logger      *slog.Logger
	tracer      trace.Tracer
	clock       func() time.Time

	// Configuration
	self             types.AccountID
	bytePrice        types.Amount
	restrictMint     bool
	contractMetadata token.ContractMetadata
	receiver         nft.Receiver
	receiverTimeout  time.Duration

	// mu serializes mutations.
	mu      sync.Mutex
	started bool
}

// New creates a new Registry over s. Unless WithLedger is given, the
// default nft.Core over s is used as the base ledger.
func New(s store.Store, opts ...Option) *Registry {
	r := &Registry{
		store:            s,
		expirations:      s,
		royalties:        s,
		plugins:          plugin.NewRegistry(),
		logger:           slog.Default(),
		tracer:           otel.Tracer(TracerName),
		clock:            time.Now,
		bytePrice:        meter.DefaultBytePrice,
		contractMetadata: token.DefaultContractMetadata(),
		receiverTimeout:  DefaultReceiverTimeout,
	}

	for _, opt := range opts {
		opt(r)
	}

	if r.ledger == nil {
		r.ledger = nft.NewCore(s, nft.WithClock(r.clock))
	}
	r.meter = meter.New(r.ledger,
		meter.WithBytePrice(r.bytePrice),
		meter.WithTreasury(r.self),
		meter.WithClock(r.clock),
	)

	return r
}

// Option configures a Registry instance.
type Option func(*Registry)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Registry) {
		r.logger = logger
		r.plugins.WithLogger(logger)
	}
}

// WithPlugin registers a plugin.
func WithPlugin(p plugin.Plugin) Option {
	return func(r *Registry) {
		_ = r.plugins.Register(p) //nolint:errcheck // best-effort plugin registration during init
	}
}

// WithClock sets the time source used for expiry checks and timestamps.
func WithClock(clock func() time.Time) Option {
	return func(r *Registry) { r.clock = clock }
}

// WithLedger replaces the default base ledger.
func WithLedger(l nft.Ledger) Option {
	return func(r *Registry) { r.ledger = l }
}

// WithStorageBytePrice sets the cost of one stored byte in yocto.
func WithStorageBytePrice(price types.Amount) Option {
	return func(r *Registry) { r.bytePrice = price }
}

// WithContractAccount sets the registry's own account. It may always see
// token metadata, collects storage costs and, with WithRestrictedMint, is
// the only account allowed to mint.
func WithContractAccount(account types.AccountID) Option {
	return func(r *Registry) { r.self = account }
}

// WithContractMetadata sets the NEP-177 contract metadata.
func WithContractMetadata(md token.ContractMetadata) Option {
	return func(r *Registry) { r.contractMetadata = md }
}

// WithRestrictedMint allows only the contract account to mint.
func WithRestrictedMint() Option {
	return func(r *Registry) { r.restrictMint = true }
}

// WithTracer sets the OpenTelemetry tracer.
func WithTracer(t trace.Tracer) Option {
	return func(r *Registry) { r.tracer = t }
}

// WithReceiver sets the transfer-call receiver.
func WithReceiver(rcv nft.Receiver) Option {
	return func(r *Registry) { r.receiver = rcv }
}

// WithReceiverTimeout bounds each transfer-call receiver notification.
func WithReceiverTimeout(d time.Duration) Option {
	return func(r *Registry) { r.receiverTimeout = d }
}

// Start migrates the store and initializes plugins.
func (r *Registry) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.started {
		return ErrStarted
	}

	if err := r.contractMetadata.Validate(); err != nil {
		return err
	}

	// Migrate database
	if err := r.store.Migrate(ctx); err != nil {
		return err
	}

	// Initialize plugins
	r.plugins.EmitInit(ctx, r)
	r.started = true

	r.logger.Info("mintage started",
		"contract_account", r.self,
		"storage_byte_price", r.bytePrice.String(),
		"restricted_mint", r.restrictMint,
		"plugins", r.plugins.Count(),
	)

	return nil
}

// Stop shuts down plugins and closes the store.
func (r *Registry) Stop() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.started = false

	ctx := context.Background()
	r.plugins.EmitShutdown(ctx)

	return r.store.Close()
}

// Plugins returns the plugin registry.
func (r *Registry) Plugins() *plugin.Registry { return r.plugins }

// Store returns the underlying store.
func (r *Registry) Store() store.Store { return r.store }

// Ledger returns the base ledger.
func (r *Registry) Ledger() nft.Ledger { return r.ledger }

// ContractAccount returns the registry's own account.
func (r *Registry) ContractAccount() types.AccountID { return r.self }

// StorageBytePrice returns the cost of one stored byte.
func (r *Registry) StorageBytePrice() types.Amount { return r.meter.BytePrice() }

func (r *Registry) now() uint64 {
	return expiry.Nanos(r.clock())
}

// startSpan opens a span for op tagged with the token id.
func (r *Registry) startSpan(ctx context.Context, op, tokenID string) (context.Context, trace.Span) {
	attrs := []attribute.KeyValue{}
	if tokenID != "" {
		attrs = append(attrs, attribute.String("mintage.token_id", tokenID))
	}
	return r.tracer.Start(ctx, "mintage."+op, trace.WithAttributes(attrs...))
}

// endSpan records err on span and ends it.
func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		span.SetAttributes(attribute.String("mintage.error_kind", KindOf(err).String()))
	}
	span.End()
}
