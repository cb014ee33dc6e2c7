// Package paper keeps dry-run balances and journals fills.
package paper

import (
	"errors"
	"fmt"
	"math/big"
	"sync"

	"pancakeswap-go/internal/execution"
)

var errInsufficient = errors.New("insufficient paper balance")

// Account tracks virtual token balances while trading in dry-run mode.
// Balances are keyed by the asset labels fills carry: "BNB" or a checksum address.
type Account struct {
	mu       sync.Mutex
	balances map[string]*big.Int
	fills    int
}

// NewAccount seeds balances; the native token may be keyed by its alias or the zero address.
func NewAccount(seed map[string]*big.Int) (*Account, error) {
	a := &Account{balances: make(map[string]*big.Int, len(seed))}
	for asset, amount := range seed {
		addr, err := execution.ParseAsset(asset)
		if err != nil {
			return nil, err
		}
		if amount == nil || amount.Sign() < 0 {
			return nil, fmt.Errorf("seed balance for %s must be non-negative", asset)
		}
		a.balances[label(addr.Hex())] = new(big.Int).Set(amount)
	}
	return a, nil
}

// ParseSeed converts decimal string balances, as found in config, into amounts.
func ParseSeed(raw map[string]string) (map[string]*big.Int, error) {
	out := make(map[string]*big.Int, len(raw))
	for asset, s := range raw {
		v, ok := new(big.Int).SetString(s, 10)
		if !ok {
			return nil, fmt.Errorf("balance %q for %s is not an integer", s, asset)
		}
		out[asset] = v
	}
	return out, nil
}

func label(hex string) string {
	if hex == "0x0000000000000000000000000000000000000000" {
		return execution.NativeAlias
	}
	return hex
}

// Record debits the input and credits the quoted output of a simulated fill. Other statuses are ignored.
func (a *Account) Record(fill execution.Fill) error {
	if fill.Status != execution.StatusSimulated {
		return nil
	}
	if fill.Qty == nil || fill.Qty.Sign() <= 0 {
		return errors.New("quantity must be positive")
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	have := a.balances[fill.Input]
	if have == nil || have.Cmp(fill.Qty) < 0 {
		return fmt.Errorf("%s: have %v, need %s: %w", fill.Input, have, fill.Qty, errInsufficient)
	}
	a.balances[fill.Input] = new(big.Int).Sub(have, fill.Qty)

	out := a.balances[fill.Output]
	if out == nil {
		out = new(big.Int)
	}
	if fill.QuotedOut != nil {
		out = new(big.Int).Add(out, fill.QuotedOut)
	}
	a.balances[fill.Output] = out
	a.fills++
	return nil
}

// Balance returns the paper balance of asset (alias or checksum address).
func (a *Account) Balance(asset string) *big.Int {
	a.mu.Lock()
	defer a.mu.Unlock()
	if v := a.balances[asset]; v != nil {
		return new(big.Int).Set(v)
	}
	return new(big.Int)
}

// Snapshot returns a copy of every balance.
func (a *Account) Snapshot() map[string]*big.Int {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make(map[string]*big.Int, len(a.balances))
	for k, v := range a.balances {
		out[k] = new(big.Int).Set(v)
	}
	return out
}

// Fills counts simulated fills applied so far.
func (a *Account) Fills() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.fills
}
