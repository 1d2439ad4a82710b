// Package mintage provides a persistent non-fungible token registry with
// expiring tokens, perpetual royalties and metered storage.
//
// Mintage is designed as a library, not a service. Import it directly into
// your Go application, or run it behind the bundled HTTP API
// (cmd/mintaged). It provides:
//
//   - Atomic minting: a token, its royalty table and its expiration are
//     written together or not at all
//   - Storage metering: callers pay exactly for the bytes they add and get
//     the excess deposit back in the same call
//   - Expiration-aware reads: expired tokens disappear from enumerations
//     and from everyone but their owner
//   - Royalty payouts computed in exact 128-bit integer arithmetic
//   - NEP-171 events, fanned out to plugins (Kafka, Redis streams, audit)
//   - Memory, SQLite, PostgreSQL and MongoDB stores via Grove
//
// # Quick Start
//
//	import (
//	    "github.com/xraph/mintage"
//	    "github.com/xraph/mintage/store/memory"
//	)
//
//	r := mintage.New(memory.New(),
//	    mintage.WithContractAccount("registry.near"),
//	)
//	if err := r.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer r.Stop()
//
// # Minting
//
// Every mutation names its caller and the amount it attaches:
//
//	ttl := "30d"
//	view, err := r.Mint(ctx,
//	    mintage.Call{Predecessor: "alice.near", Deposit: deposit},
//	    mintage.MintRequest{
//	        TokenID:    "ticket-1",
//	        Receiver:   "alice.near",
//	        Metadata:   &mintage.Metadata{Title: &title},
//	        Expiration: &ttl,
//	        Royalty:    mintage.RoyaltyTable{"artist.near": 1000},
//	    })
//
// When the deposit does not cover the storage cost the mint fails with a
// KindUnderpayment error and leaves nothing behind.
//
// # Payouts
//
// Royalty shares are basis points (1/10000). A sale of 10000 yocto on a
// token with {"artist.near": 1000} pays 1000 to the artist and 9000 to the
// owner:
//
//	b, err := r.Payout(ctx, "ticket-1", mintage.NewAmount(10000), 10)
//
// # Errors
//
// Every error belongs to exactly one Kind. Use KindOf, or the IsNotFound
// family of helpers, instead of comparing messages.
//
// # TypeID
//
// Events, storage receipts and transfers carry TypeIDs:
//
//	evt_01h2xcejqtf2nbrexx3vqjhp41   // Event ID
//	rcpt_01h2xcejqtf2nbrexx3vqjhp41  // Receipt ID
//	xfer_01h455vb4pex5vsknk084sn02q  // Transfer ID
package mintage
