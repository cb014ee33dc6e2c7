// Package execution turns user orders into swaps and records the outcome.
package execution

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"pancakeswap-go/internal/metrics"
	"pancakeswap-go/internal/pancakeswap"
	"pancakeswap-go/internal/risk"
)

// Fill statuses.
const (
	StatusSimulated = "simulated"
	StatusConfirmed = "confirmed"
	StatusReverted  = "reverted"
	StatusFailed    = "failed"
)

// NativeAlias is accepted wherever an order names the native token.
const NativeAlias = "BNB"

// Order is a swap request as typed by a user: addresses are strings, quantity is in smallest units.
type Order struct {
	Input        string
	Output       string
	Qty          *big.Int
	GasPriceGwei uint64
	Recipient    string
}

// Fill is the record of one handled order.
type Fill struct {
	ID        string    `json:"id"`
	Input     string    `json:"input"`
	Output    string    `json:"output"`
	Qty       *big.Int  `json:"qty"`
	QuotedOut *big.Int  `json:"quoted_out"`
	MinOut    *big.Int  `json:"min_out"`
	TxHash    string    `json:"tx_hash,omitempty"`
	Status    string    `json:"status"`
	DryRun    bool      `json:"dry_run"`
	Error     string    `json:"error,omitempty"`
	Ts        time.Time `json:"ts"`
}

// Trader is the part of the pancakeswap client the executor drives.
type Trader interface {
	Quote(ctx context.Context, input, output common.Address, qty *big.Int) (*big.Int, error)
	MakeTrade(ctx context.Context, trade pancakeswap.Trade) (common.Hash, error)
	WaitReceipt(ctx context.Context, hash common.Hash) (*types.Receipt, error)
}

// Recorder receives every fill the executor produces.
type Recorder interface {
	Record(Fill) error
}

// Executor validates, quotes, and submits orders.
type Executor struct {
	log       zerolog.Logger
	trader    Trader
	limits    risk.Limits
	dryRun    bool
	recorders []Recorder
	now       func() time.Time
}

// NewExecutor wires a trader with limits. In dry-run mode orders are quoted and recorded but never sent.
func NewExecutor(log zerolog.Logger, trader Trader, limits risk.Limits, dryRun bool, recorders ...Recorder) *Executor {
	return &Executor{log: log, trader: trader, limits: limits, dryRun: dryRun, recorders: recorders, now: time.Now}
}

// ParseAsset maps the native alias (or the zero address) to pancakeswap.Native and validates anything else.
func ParseAsset(s string) (common.Address, error) {
	if strings.EqualFold(strings.TrimSpace(s), NativeAlias) {
		return pancakeswap.Native, nil
	}
	return pancakeswap.ParseToken(s)
}

// Submit runs one order to completion. The returned fill is recorded even when err is non-nil, once quoting has been attempted.
func (executor *Executor) Submit(ctx context.Context, order Order) (Fill, error) {
	input, err := ParseAsset(order.Input)
	if err != nil {
		return Fill{}, err
	}
	output, err := ParseAsset(order.Output)
	if err != nil {
		return Fill{}, err
	}
	if !executor.limits.Allow(order.Qty) {
		return Fill{}, fmt.Errorf("order quantity %v rejected by risk limits", order.Qty)
	}
	var recipient *common.Address
	if order.Recipient != "" {
		addr, err := pancakeswap.ParseToken(order.Recipient)
		if err != nil {
			return Fill{}, fmt.Errorf("recipient: %w", err)
		}
		recipient = &addr
	}

	fill := Fill{
		ID:     uuid.NewString(),
		Input:  assetLabel(input),
		Output: assetLabel(output),
		Qty:    new(big.Int).Set(order.Qty),
		DryRun: executor.dryRun,
		Ts:     executor.now().UTC(),
	}
	log := executor.log.With().Str("fill", fill.ID).Str("in", fill.Input).Str("out", fill.Output).Str("qty", fill.Qty.String()).Logger()

	quote, err := executor.trader.Quote(ctx, input, output, order.Qty)
	if err != nil {
		return executor.finish(log, fill, StatusFailed, fmt.Errorf("quote: %w", err))
	}
	fill.QuotedOut = quote
	fill.MinOut = executor.limits.MinAmountOut(quote)

	if executor.dryRun {
		return executor.finish(log, fill, StatusSimulated, nil)
	}

	hash, err := executor.trader.MakeTrade(ctx, pancakeswap.Trade{
		Input:        input,
		Output:       output,
		Qty:          order.Qty,
		GasPriceGwei: order.GasPriceGwei,
		Recipient:    recipient,
	})
	if err != nil {
		return executor.finish(log, fill, StatusFailed, err)
	}
	fill.TxHash = hash.Hex()

	if _, err := executor.trader.WaitReceipt(ctx, hash); err != nil {
		status := StatusFailed
		if errors.Is(err, pancakeswap.ErrTxReverted) {
			status = StatusReverted
		}
		return executor.finish(log, fill, status, err)
	}
	return executor.finish(log, fill, StatusConfirmed, nil)
}

func (executor *Executor) finish(log zerolog.Logger, fill Fill, status string, cause error) (Fill, error) {
	fill.Status = status
	if cause != nil {
		fill.Error = cause.Error()
	}

	// A simulated fill refused by one recorder (the paper account) is failed for the rest.
	for _, r := range executor.recorders {
		if err := r.Record(fill); err != nil {
			log.Warn().Err(err).Msg("record fill")
			if cause == nil {
				cause = fmt.Errorf("record fill: %w", err)
				if fill.Status == StatusSimulated {
					fill.Status = StatusFailed
					fill.Error = cause.Error()
				}
			}
		}
	}

	mode := "live"
	if fill.DryRun {
		mode = "dry_run"
	}
	metrics.OrdersTotal.WithLabelValues(mode, fill.Status).Inc()

	if fill.Error != "" {
		log.Error().Str("error", fill.Error).Str("status", fill.Status).Msg("order failed")
	} else if cause != nil {
		log.Warn().Err(cause).Str("status", fill.Status).Str("tx", fill.TxHash).Msg("order done, not recorded")
	} else {
		log.Info().Str("status", fill.Status).Str("tx", fill.TxHash).Stringer("quoted_out", fill.QuotedOut).Msg("order done")
	}
	return fill, cause
}

func assetLabel(addr common.Address) string {
	if pancakeswap.IsNative(addr) {
		return NativeAlias
	}
	return addr.Hex()
}
