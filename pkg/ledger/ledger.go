// Package ledger abstracts the ICRC-2-style token ledger every service
// pulls funds from and pays out to. Production implementations wrap a
// contractclient.ContractClient against an ERC20/ICRC-2 ledger contract;
// tests substitute InMemoryLedger.
package ledger

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// TokenID identifies a ledger/token. Reuses common.Address rather than a
// bespoke string type so pool/strategy identifiers and ledger identifiers
// share one comparable, zero-value-safe representation.
type TokenID = common.Address

// Ledger is the logical operation set the Engine, Pool-Stats and
// Strategy-History services need from a token ledger. Wire encoding and
// principal/allowance bookkeeping below this interface are out of scope
// per spec.md §1.
type Ledger interface {
	// TransferFrom pulls amount of token from 'from' into the service's own
	// account (caller -> self). Returns an opaque block index for the
	// transfer, used only for diagnostics.
	TransferFrom(ctx context.Context, token TokenID, from common.Address, amount *big.Int) (blockIndex uint64, err error)

	// Transfer pays amount of token out of the service's own account to
	// 'to'. In Test environments this is a no-op that returns amount
	// unchanged (§4.5 step 4).
	Transfer(ctx context.Context, token TokenID, to common.Address, amount *big.Int) (*big.Int, error)

	// Approve sets (not increments) an allowance for spender on token,
	// the idempotent-at-the-allowance-layer semantics §5 relies on for
	// repeated probe-deposit attempts.
	Approve(ctx context.Context, token TokenID, spender common.Address, amount *big.Int) error

	// TransferFee returns the ledger's fixed transfer fee for token, used
	// throughout §4.4/§4.5 to reserve gas before swapping/paying out.
	TransferFee(ctx context.Context, token TokenID) (*big.Int, error)
}
