package pancakeswap

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"pancakeswap-go/internal/metrics"
)

var gwei = big.NewInt(1_000_000_000)

// txParams carries the per-transaction knobs; a nil GasPrice asks the node for a suggestion.
type txParams struct {
	Value    *big.Int
	GasPrice *big.Int
}

// nextNonce is max(last nonce, pending nonce). Callers hold c.mu.
func (c *Client) nextNonce(ctx context.Context) (uint64, error) {
	pending, err := c.backend.PendingNonceAt(ctx, c.address)
	if err != nil {
		return 0, fmt.Errorf("pending nonce: %w", err)
	}
	if c.lastNonce > pending {
		return c.lastNonce, nil
	}
	return pending, nil
}

// buildAndSend packs method, signs a legacy transaction to contract, and submits it.
// The local nonce advances past the one used whether or not the send succeeds.
func (c *Client) buildAndSend(ctx context.Context, contract common.Address, parsed abi.ABI, method string, params txParams, args ...any) (common.Hash, error) {
	data, err := parsed.Pack(method, args...)
	if err != nil {
		return common.Hash{}, fmt.Errorf("pack %s: %w", method, err)
	}

	value := params.Value
	if value == nil {
		value = new(big.Int)
	}
	gasPrice := params.GasPrice
	if gasPrice == nil {
		if gasPrice, err = c.backend.SuggestGasPrice(ctx); err != nil {
			return common.Hash{}, fmt.Errorf("suggest gas price: %w", err)
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	nonce, err := c.nextNonce(ctx)
	if err != nil {
		return common.Hash{}, err
	}
	defer func() {
		c.log.Debug().Uint64("nonce", nonce).Str("method", method).Msg("nonce consumed")
		c.lastNonce = nonce + 1
	}()

	tx := types.NewTx(&types.LegacyTx{
		Nonce:    nonce,
		GasPrice: gasPrice,
		Gas:      c.gasLimit,
		To:       &contract,
		Value:    value,
		Data:     data,
	})
	signed, err := types.SignTx(tx, types.LatestSignerForChainID(c.chainID), c.key)
	if err != nil {
		metrics.TransactionsTotal.WithLabelValues(method, "sign_error").Inc()
		return common.Hash{}, fmt.Errorf("sign %s: %w", method, err)
	}
	if err := c.backend.SendTransaction(ctx, signed); err != nil {
		metrics.TransactionsTotal.WithLabelValues(method, "send_error").Inc()
		return common.Hash{}, fmt.Errorf("send %s: %w", method, err)
	}
	metrics.TransactionsTotal.WithLabelValues(method, "sent").Inc()
	c.log.Info().Str("method", method).Str("tx", signed.Hash().Hex()).Uint64("nonce", nonce).Msg("transaction sent")
	return signed.Hash(), nil
}

// WaitReceipt polls until hash is mined or ctx ends. A reverted transaction returns ErrTxReverted with its receipt.
func (c *Client) WaitReceipt(ctx context.Context, hash common.Hash) (*types.Receipt, error) {
	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	for {
		receipt, err := c.backend.TransactionReceipt(ctx, hash)
		switch {
		case err == nil:
			if receipt.Status != types.ReceiptStatusSuccessful {
				return receipt, fmt.Errorf("%s: %w", hash.Hex(), ErrTxReverted)
			}
			return receipt, nil
		case !errors.Is(err, ethereum.NotFound):
			return nil, fmt.Errorf("receipt %s: %w", hash.Hex(), err)
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

// Approve grants the router amount of token (nil means MaxApproval) and waits for the receipt.
func (c *Client) Approve(ctx context.Context, token common.Address, amount *big.Int) (*types.Receipt, error) {
	if IsNative(token) {
		return nil, fmt.Errorf("native token needs no approval")
	}
	if amount == nil || amount.Sign() == 0 {
		amount = MaxApproval
	}
	c.log.Info().Str("token", token.Hex()).Msg("approving")

	hash, err := c.buildAndSend(ctx, token, erc20ABI, "approve", txParams{}, c.router, amount)
	if err != nil {
		return nil, err
	}
	waitCtx, cancel := context.WithTimeout(ctx, c.receiptTimeout)
	defer cancel()
	return c.WaitReceipt(waitCtx, hash)
}

// ensureApproved approves token for the router unless it already is, or is native.
func (c *Client) ensureApproved(ctx context.Context, token common.Address) error {
	if IsNative(token) {
		return nil
	}
	ok, err := c.IsApproved(ctx, token)
	if err != nil {
		return err
	}
	if ok {
		return nil
	}
	_, err = c.Approve(ctx, token, nil)
	return err
}

// GweiToWei converts a gas price given in gwei.
func GweiToWei(g uint64) *big.Int {
	return new(big.Int).Mul(new(big.Int).SetUint64(g), gwei)
}
