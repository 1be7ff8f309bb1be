// Package router implements the swap-router abstraction (§4.6): quote and
// execute a swap across whichever venues are registered, always picking
// the maximal amount_out, ties broken by enumeration order.
package router

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/liquidops/apyvault/pkg/apyerr"
	"github.com/liquidops/apyvault/pkg/pool"
)

var buildErrorCode = apyerr.BuildErrorCode(apyerr.AreaLibraries, apyerr.DomainRouter, "01")

// Swapper is the narrow quote/swap surface a venue adaptor exposes to the
// router; venue.VenueA and venue.MockClient implement it, venue.VenueB
// does not.
type Swapper interface {
	Venue() pool.Venue
	Quote(ctx context.Context, tokenIn, tokenOut common.Address, amountIn *big.Int) (*big.Int, error)
	Swap(ctx context.Context, tokenIn, tokenOut common.Address, amountIn *big.Int) (*big.Int, error)
}

// Quote pairs a venue tag with the amount_out it quoted.
type Quote struct {
	Venue     pool.Venue
	AmountOut *big.Int
}

// Router polls its registered venues for quotes and swaps. Per Open
// Question 2, only VenueA is registered today; QuoteOptimal/SwapOptimal
// are already shaped to consult more than one.
type Router struct {
	venues []Swapper
}

func New(venues ...Swapper) *Router {
	return &Router{venues: venues}
}

// Register adds v to the router's venue list after construction, resolving
// the construction cycle a venue adaptor and the router it calls into
// often have (the adaptor's own swapRouter field needs a *Router that, in
// turn, needs that same adaptor registered as a Swapper).
func (r *Router) Register(v Swapper) {
	r.venues = append(r.venues, v)
}

// QuoteOptimal returns the quote with the maximal amount_out across every
// registered venue, ties broken by registration order (§4.6).
func (r *Router) QuoteOptimal(ctx context.Context, tokenIn, tokenOut common.Address, amount *big.Int) (Quote, error) {
	if len(r.venues) == 0 {
		return Quote{}, apyerr.ExternalService(buildErrorCode(apyerr.KindExternalService, 1), "router.QuoteOptimal",
			"no venues registered", nil)
	}
	var best Quote
	found := false
	for _, v := range r.venues {
		out, err := v.Quote(ctx, tokenIn, tokenOut, amount)
		if err != nil {
			continue
		}
		if !found || out.Cmp(best.AmountOut) > 0 {
			best = Quote{Venue: v.Venue(), AmountOut: out}
			found = true
		}
	}
	if !found {
		return Quote{}, apyerr.ExternalService(buildErrorCode(apyerr.KindExternalService, 2), "router.QuoteOptimal",
			"no venue returned a quote", nil)
	}
	return best, nil
}

// SwapOptimal quotes across all venues then executes against the winner.
func (r *Router) SwapOptimal(ctx context.Context, tokenIn, tokenOut common.Address, amount *big.Int) (*big.Int, error) {
	q, err := r.QuoteOptimal(ctx, tokenIn, tokenOut, amount)
	if err != nil {
		return nil, err
	}
	return r.Swap(ctx, tokenIn, tokenOut, amount, q.Venue)
}

// Swap executes against a specific venue, for paths that must use a
// previously-quoted venue (e.g. deposit splitting in §4.4.1).
func (r *Router) Swap(ctx context.Context, tokenIn, tokenOut common.Address, amount *big.Int, forced pool.Venue) (*big.Int, error) {
	for _, v := range r.venues {
		if v.Venue() == forced {
			return v.Swap(ctx, tokenIn, tokenOut, amount)
		}
	}
	return nil, apyerr.NotFound(buildErrorCode(apyerr.KindNotFound, 1), "router.Swap",
		"forced venue is not registered", map[string]string{"venue": forced.String()})
}
