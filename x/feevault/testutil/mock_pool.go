// Package testutil provides a scriptable lending pool for fee vault tests
package testutil

import (
	"context"
	"fmt"

	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/openalpha/fee-vault/x/feevault/types"
)

// MockPool is an in-memory lending pool. Supply mints floor(amount/rate)
// b-tokens and Withdraw burns ceil(amount/rate), the same rounding the
// lendpool module uses. State lives outside the store, so it is not rolled
// back with a discarded cache context.
type MockPool struct {
	rates     map[string]math.Int
	queued    map[string][]math.Int
	positions map[string]math.Int
	paidIn    map[string]math.Int
	paidOut   map[string]math.Int

	SupplyErr   error
	WithdrawErr error
	BRateErr    error

	Calls []string
}

var _ types.PoolKeeper = (*MockPool)(nil)

// NewMockPool creates an empty mock pool
func NewMockPool() *MockPool {
	return &MockPool{
		rates:     make(map[string]math.Int),
		queued:    make(map[string][]math.Int),
		positions: make(map[string]math.Int),
		paidIn:    make(map[string]math.Int),
		paidOut:   make(map[string]math.Int),
	}
}

func reserveKey(poolID, asset string) string {
	return poolID + "/" + asset
}

func accountKey(poolID, asset string, addr sdk.AccAddress) string {
	return poolID + "/" + asset + "/" + addr.String()
}

// SetBRate sets the current rate of a reserve
func (p *MockPool) SetBRate(poolID, asset string, bRate math.Int) {
	p.rates[reserveKey(poolID, asset)] = bRate
}

// QueueBRates makes the next BRate calls return rates in order. The last
// rate returned stays current.
func (p *MockPool) QueueBRates(poolID, asset string, rates ...math.Int) {
	key := reserveKey(poolID, asset)
	p.queued[key] = append(p.queued[key], rates...)
}

// ClearFailures removes every injected error
func (p *MockPool) ClearFailures() {
	p.SupplyErr, p.WithdrawErr, p.BRateErr = nil, nil, nil
}

// Position returns owner's b-token balance
func (p *MockPool) Position(poolID, asset string, owner sdk.AccAddress) math.Int {
	if pos, ok := p.positions[accountKey(poolID, asset, owner)]; ok {
		return pos
	}
	return math.ZeroInt()
}

// PaidIn returns the underlying supplied from addr
func (p *MockPool) PaidIn(poolID, asset string, addr sdk.AccAddress) math.Int {
	if amt, ok := p.paidIn[accountKey(poolID, asset, addr)]; ok {
		return amt
	}
	return math.ZeroInt()
}

// PaidOut returns the underlying sent to addr
func (p *MockPool) PaidOut(poolID, asset string, addr sdk.AccAddress) math.Int {
	if amt, ok := p.paidOut[accountKey(poolID, asset, addr)]; ok {
		return amt
	}
	return math.ZeroInt()
}

// BRate implements types.PoolKeeper
func (p *MockPool) BRate(_ context.Context, poolID, asset string) (math.Int, error) {
	p.Calls = append(p.Calls, "b_rate")
	if p.BRateErr != nil {
		return math.ZeroInt(), p.BRateErr
	}
	key := reserveKey(poolID, asset)
	if queue := p.queued[key]; len(queue) > 0 {
		p.rates[key] = queue[0]
		p.queued[key] = queue[1:]
	}
	rate, ok := p.rates[key]
	if !ok {
		return math.ZeroInt(), fmt.Errorf("unknown reserve %s", key)
	}
	return rate, nil
}

// Supply implements types.PoolKeeper
func (p *MockPool) Supply(ctx context.Context, poolID, asset string, owner, from sdk.AccAddress, amount math.Int) (math.Int, error) {
	p.Calls = append(p.Calls, "supply")
	if p.SupplyErr != nil {
		return math.ZeroInt(), p.SupplyErr
	}
	rate, ok := p.rates[reserveKey(poolID, asset)]
	if !ok {
		return math.ZeroInt(), fmt.Errorf("unknown reserve %s", reserveKey(poolID, asset))
	}
	bTokens := types.UnderlyingToBTokensDown(amount, rate)
	if !bTokens.IsPositive() {
		return math.ZeroInt(), fmt.Errorf("supply of %s mints no b-tokens", amount)
	}

	key := accountKey(poolID, asset, owner)
	p.positions[key] = p.Position(poolID, asset, owner).Add(bTokens)
	fromKey := accountKey(poolID, asset, from)
	p.paidIn[fromKey] = p.PaidIn(poolID, asset, from).Add(amount)
	return bTokens, nil
}

// Withdraw implements types.PoolKeeper
func (p *MockPool) Withdraw(ctx context.Context, poolID, asset string, owner, to sdk.AccAddress, amount math.Int) (math.Int, error) {
	p.Calls = append(p.Calls, "withdraw")
	if p.WithdrawErr != nil {
		return math.ZeroInt(), p.WithdrawErr
	}
	rate, ok := p.rates[reserveKey(poolID, asset)]
	if !ok {
		return math.ZeroInt(), fmt.Errorf("unknown reserve %s", reserveKey(poolID, asset))
	}
	burn := types.UnderlyingToBTokensUp(amount, rate)
	position := p.Position(poolID, asset, owner)
	if burn.GT(position) {
		return math.ZeroInt(), fmt.Errorf("position %s cannot cover %s b-tokens", position, burn)
	}

	p.positions[accountKey(poolID, asset, owner)] = position.Sub(burn)
	toKey := accountKey(poolID, asset, to)
	p.paidOut[toKey] = p.PaidOut(poolID, asset, to).Add(amount)
	return burn, nil
}
