package router

import (
	"context"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/liquidops/apyvault/pkg/pool"
	"github.com/stretchr/testify/assert"
)

type fakeSwapper struct {
	venue     pool.Venue
	quoteOut  *big.Int
	quoteErr  error
	swapOut   *big.Int
	swapErr   error
	swapCalls int
}

func (f *fakeSwapper) Venue() pool.Venue { return f.venue }

func (f *fakeSwapper) Quote(ctx context.Context, tokenIn, tokenOut common.Address, amountIn *big.Int) (*big.Int, error) {
	return f.quoteOut, f.quoteErr
}

func (f *fakeSwapper) Swap(ctx context.Context, tokenIn, tokenOut common.Address, amountIn *big.Int) (*big.Int, error) {
	f.swapCalls++
	return f.swapOut, f.swapErr
}

var (
	tokenIn  = common.HexToAddress("0x1111111111111111111111111111111111111111")
	tokenOut = common.HexToAddress("0x2222222222222222222222222222222222222222")
)

func TestQuoteOptimalNoVenues(t *testing.T) {
	r := New()
	_, err := r.QuoteOptimal(context.Background(), tokenIn, tokenOut, big.NewInt(100))
	assert.Error(t, err)
}

func TestQuoteOptimalPicksMaxAmountOut(t *testing.T) {
	a := &fakeSwapper{venue: pool.VenueA, quoteOut: big.NewInt(90)}
	b := &fakeSwapper{venue: pool.VenueB, quoteOut: big.NewInt(110)}
	r := New(a, b)

	q, err := r.QuoteOptimal(context.Background(), tokenIn, tokenOut, big.NewInt(100))
	assert.NoError(t, err)
	assert.Equal(t, pool.VenueB, q.Venue)
	assert.Equal(t, big.NewInt(110), q.AmountOut)
}

func TestQuoteOptimalSkipsErroringVenues(t *testing.T) {
	a := &fakeSwapper{venue: pool.VenueA, quoteErr: assert.AnError}
	b := &fakeSwapper{venue: pool.VenueB, quoteOut: big.NewInt(50)}
	r := New(a, b)

	q, err := r.QuoteOptimal(context.Background(), tokenIn, tokenOut, big.NewInt(100))
	assert.NoError(t, err)
	assert.Equal(t, pool.VenueB, q.Venue)
}

func TestSwapOptimalSwapsAgainstWinner(t *testing.T) {
	a := &fakeSwapper{venue: pool.VenueA, quoteOut: big.NewInt(90), swapOut: big.NewInt(90)}
	b := &fakeSwapper{venue: pool.VenueB, quoteOut: big.NewInt(110), swapOut: big.NewInt(110)}
	r := New(a, b)

	out, err := r.SwapOptimal(context.Background(), tokenIn, tokenOut, big.NewInt(100))
	assert.NoError(t, err)
	assert.Equal(t, big.NewInt(110), out)
	assert.Equal(t, 0, a.swapCalls)
	assert.Equal(t, 1, b.swapCalls)
}

func TestSwapForcedVenueNotRegistered(t *testing.T) {
	r := New()
	_, err := r.Swap(context.Background(), tokenIn, tokenOut, big.NewInt(100), pool.VenueA)
	assert.Error(t, err)
}

func TestRegisterAddsVenueAfterConstruction(t *testing.T) {
	r := New()
	a := &fakeSwapper{venue: pool.VenueA, quoteOut: big.NewInt(42)}
	r.Register(a)

	q, err := r.QuoteOptimal(context.Background(), tokenIn, tokenOut, big.NewInt(100))
	assert.NoError(t, err)
	assert.Equal(t, pool.VenueA, q.Venue)
}
