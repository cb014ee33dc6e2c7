package pancakeswap

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Trade is an exact-input swap request. Input or Output may be Native.
type Trade struct {
	Input        common.Address
	Output       common.Address
	Qty          *big.Int
	GasPriceGwei uint64
	// Recipient defaults to the wallet when nil.
	Recipient *common.Address
}

// MakeTrade validates the request, approves the input token if needed, and sends the matching swap.
// Only the input token is approved; the output token is never spent by the router, so it is left alone.
func (c *Client) MakeTrade(ctx context.Context, trade Trade) (common.Hash, error) {
	if trade.Qty == nil || trade.Qty.Sign() <= 0 {
		return common.Hash{}, fmt.Errorf("quantity must be positive")
	}
	if trade.Input == trade.Output {
		return common.Hash{}, fmt.Errorf("input and output are both %s", trade.Input.Hex())
	}
	if !c.limits.Allow(trade.Qty) {
		return common.Hash{}, fmt.Errorf("quantity %s exceeds per-trade cap %s", trade.Qty, c.limits.MaxTradeWei)
	}
	if err := c.ensureApproved(ctx, trade.Input); err != nil {
		return common.Hash{}, fmt.Errorf("approve input: %w", err)
	}

	recipient := c.address
	if trade.Recipient != nil {
		recipient = *trade.Recipient
	}
	params := txParams{}
	if trade.GasPriceGwei > 0 {
		params.GasPrice = GweiToWei(trade.GasPriceGwei)
	}

	if IsNative(trade.Input) {
		return c.ethToTokenSwapInput(ctx, trade.Output, trade.Qty, recipient, params)
	}

	balance, err := c.TokenBalance(ctx, trade.Input)
	if err != nil {
		return common.Hash{}, err
	}
	if balance.Cmp(trade.Qty) < 0 {
		return common.Hash{}, &InsufficientBalanceError{Had: balance, Needed: trade.Qty}
	}
	if IsNative(trade.Output) {
		return c.tokenToEthSwapInput(ctx, trade.Input, trade.Qty, recipient, params)
	}
	return c.tokenToTokenSwapInput(ctx, trade.Input, trade.Output, trade.Qty, recipient, params)
}

func (c *Client) ethToTokenSwapInput(ctx context.Context, output common.Address, qty *big.Int, recipient common.Address, params txParams) (common.Hash, error) {
	balance, err := c.EthBalance(ctx)
	if err != nil {
		return common.Hash{}, err
	}
	if qty.Cmp(balance) > 0 {
		return common.Hash{}, &InsufficientBalanceError{Had: balance, Needed: qty}
	}
	quote, err := c.EthTokenInputPrice(ctx, output, qty)
	if err != nil {
		return common.Hash{}, err
	}
	params.Value = qty
	return c.buildAndSend(ctx, c.router, routerABI, "swapExactETHForTokens", params,
		c.limits.MinAmountOut(quote),
		[]common.Address{c.wbnb, output},
		recipient,
		c.Deadline(),
	)
}

func (c *Client) tokenToEthSwapInput(ctx context.Context, input common.Address, qty *big.Int, recipient common.Address, params txParams) (common.Hash, error) {
	quote, err := c.TokenEthInputPrice(ctx, input, qty)
	if err != nil {
		return common.Hash{}, err
	}
	return c.buildAndSend(ctx, c.router, routerABI, "swapExactTokensForETHSupportingFeeOnTransferTokens", params,
		qty,
		c.limits.MinAmountOut(quote),
		[]common.Address{input, c.wbnb},
		recipient,
		c.Deadline(),
	)
}

func (c *Client) tokenToTokenSwapInput(ctx context.Context, input, output common.Address, qty *big.Int, recipient common.Address, params txParams) (common.Hash, error) {
	quote, err := c.TokenTokenInputPrice(ctx, input, output, qty)
	if err != nil {
		return common.Hash{}, err
	}
	return c.buildAndSend(ctx, c.router, routerABI, "swapExactTokensForTokens", params,
		qty,
		c.limits.MinAmountOut(quote),
		c.tokenPath(input, output),
		recipient,
		c.Deadline(),
	)
}

// tokenPath routes through WBNB unless either end already is WBNB.
func (c *Client) tokenPath(input, output common.Address) []common.Address {
	if input == c.wbnb || output == c.wbnb {
		return []common.Address{input, output}
	}
	return []common.Address{input, c.wbnb, output}
}
