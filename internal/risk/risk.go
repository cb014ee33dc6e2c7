// Package risk holds the guard-rails applied before a swap is sent.
package risk

import (
	"fmt"
	"math"
	"math/big"
	"strconv"
)

// Limits bounds slippage tolerance and trade size. A nil or zero MaxTradeWei disables the size cap.
type Limits struct {
	MaxSlippage float64
	MaxTradeWei *big.Int
}

// Validate rejects slippage outside [0, 1).
func (l Limits) Validate() error {
	if math.IsNaN(l.MaxSlippage) || l.MaxSlippage < 0 || l.MaxSlippage >= 1 {
		return fmt.Errorf("max slippage %.4f outside [0, 1)", l.MaxSlippage)
	}
	return nil
}

// Allow reports whether qty fits under the per-trade cap.
func (l Limits) Allow(qty *big.Int) bool {
	if qty == nil || qty.Sign() <= 0 {
		return false
	}
	if l.MaxTradeWei == nil || l.MaxTradeWei.Sign() == 0 {
		return true
	}
	return qty.Cmp(l.MaxTradeWei) <= 0
}

// keepRatio is 1 - MaxSlippage as an exact decimal fraction, taken from the shortest
// decimal form of the float so 0.1 means one tenth rather than its binary neighbour.
func (l Limits) keepRatio() *big.Rat {
	slippage, ok := new(big.Rat).SetString(strconv.FormatFloat(l.MaxSlippage, 'f', -1, 64))
	if !ok {
		return new(big.Rat)
	}
	return slippage.Sub(big.NewRat(1, 1), slippage)
}

// MinAmountOut is floor(quote * (1 - slippage)).
func (l Limits) MinAmountOut(quote *big.Int) *big.Int {
	if quote == nil || quote.Sign() <= 0 {
		return new(big.Int)
	}
	keep := l.keepRatio()
	if keep.Sign() <= 0 {
		return new(big.Int)
	}
	out := new(big.Int).Mul(quote, keep.Num())
	return out.Quo(out, keep.Denom())
}
