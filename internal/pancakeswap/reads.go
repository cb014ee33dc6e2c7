package pancakeswap

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"golang.org/x/sync/errgroup"

	"pancakeswap-go/internal/metrics"
)

// ParseToken converts a 0x-prefixed hex string into an address.
func ParseToken(s string) (common.Address, error) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "0x") && !strings.HasPrefix(s, "0X") {
		return common.Address{}, &InvalidTokenError{Address: s}
	}
	if !common.IsHexAddress(s) {
		return common.Address{}, &InvalidTokenError{Address: s}
	}
	return common.HexToAddress(s), nil
}

// call packs method against contract, runs it at the latest block, and returns the unpacked outputs.
func (c *Client) call(ctx context.Context, contract common.Address, parsed abi.ABI, method string, args ...any) ([]any, error) {
	data, err := parsed.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("pack %s: %w", method, err)
	}
	metrics.ContractCalls.WithLabelValues(method).Inc()
	raw, err := c.backend.CallContract(ctx, ethereum.CallMsg{From: c.address, To: &contract, Data: data}, nil)
	if err != nil {
		return nil, fmt.Errorf("call %s: %w", method, err)
	}
	out, err := parsed.Unpack(method, raw)
	if err != nil {
		return nil, fmt.Errorf("unpack %s: %w", method, err)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("unpack %s: empty result", method)
	}
	return out, nil
}

func (c *Client) callBigInt(ctx context.Context, contract common.Address, parsed abi.ABI, method string, args ...any) (*big.Int, error) {
	out, err := c.call(ctx, contract, parsed, method, args...)
	if err != nil {
		return nil, err
	}
	v, ok := out[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("%s: unexpected result type %T", method, out[0])
	}
	return v, nil
}

// EthBalance returns the wallet's native balance in wei.
func (c *Client) EthBalance(ctx context.Context) (*big.Int, error) {
	bal, err := c.backend.BalanceAt(ctx, c.address, nil)
	if err != nil {
		return nil, fmt.Errorf("native balance: %w", err)
	}
	return bal, nil
}

// TokenBalance returns the wallet's balance of token; the native sentinel yields the native balance.
func (c *Client) TokenBalance(ctx context.Context, token common.Address) (*big.Int, error) {
	if IsNative(token) {
		return c.EthBalance(ctx)
	}
	bal, err := c.callBigInt(ctx, token, erc20ABI, "balanceOf", c.address)
	if err != nil {
		return nil, fmt.Errorf("balance of %s: %w", token.Hex(), err)
	}
	return bal, nil
}

// TokenBalances reads several balances concurrently.
func (c *Client) TokenBalances(ctx context.Context, tokens []common.Address) (map[common.Address]*big.Int, error) {
	var (
		mu  sync.Mutex
		out = make(map[common.Address]*big.Int, len(tokens))
	)
	g, gctx := errgroup.WithContext(ctx)
	for _, token := range tokens {
		token := token
		g.Go(func() error {
			bal, err := c.TokenBalance(gctx, token)
			if err != nil {
				return err
			}
			mu.Lock()
			out[token] = bal
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// TokenDecimals reads the ERC-20 decimals; the native token has 18.
func (c *Client) TokenDecimals(ctx context.Context, token common.Address) (uint8, error) {
	if IsNative(token) {
		return 18, nil
	}
	out, err := c.call(ctx, token, erc20ABI, "decimals")
	if err != nil {
		return 0, err
	}
	d, ok := out[0].(uint8)
	if !ok {
		return 0, fmt.Errorf("decimals: unexpected result type %T", out[0])
	}
	return d, nil
}

// amountsOut returns the last element of router.getAmountsOut(qty, path).
func (c *Client) amountsOut(ctx context.Context, qty *big.Int, path []common.Address) (*big.Int, error) {
	out, err := c.call(ctx, c.router, routerABI, "getAmountsOut", qty, path)
	if err != nil {
		return nil, err
	}
	amounts := *abi.ConvertType(out[0], new([]*big.Int)).(*[]*big.Int)
	if len(amounts) == 0 {
		return nil, fmt.Errorf("getAmountsOut: empty amounts")
	}
	return amounts[len(amounts)-1], nil
}

// EthTokenInputPrice quotes how much token qty wei of BNB buys.
func (c *Client) EthTokenInputPrice(ctx context.Context, token common.Address, qty *big.Int) (*big.Int, error) {
	return c.amountsOut(ctx, qty, []common.Address{c.wbnb, token})
}

// TokenEthInputPrice quotes how much BNB qty of token sells for.
func (c *Client) TokenEthInputPrice(ctx context.Context, token common.Address, qty *big.Int) (*big.Int, error) {
	return c.amountsOut(ctx, qty, []common.Address{token, c.wbnb})
}

// TokenTokenInputPrice quotes qty of token0 into token1, routed through WBNB.
func (c *Client) TokenTokenInputPrice(ctx context.Context, token0, token1 common.Address, qty *big.Int) (*big.Int, error) {
	switch {
	case token0 == c.wbnb:
		return c.EthTokenInputPrice(ctx, token1, qty)
	case token1 == c.wbnb:
		return c.TokenEthInputPrice(ctx, token0, qty)
	}
	return c.amountsOut(ctx, qty, []common.Address{token0, c.wbnb, token1})
}

// Quote picks the price function matching the input and output kinds.
func (c *Client) Quote(ctx context.Context, input, output common.Address, qty *big.Int) (*big.Int, error) {
	switch {
	case input == output:
		return nil, fmt.Errorf("input and output are both %s", input.Hex())
	case IsNative(input):
		return c.EthTokenInputPrice(ctx, output, qty)
	case IsNative(output):
		return c.TokenEthInputPrice(ctx, input, qty)
	default:
		return c.TokenTokenInputPrice(ctx, input, output, qty)
	}
}

// Pair returns the V2 pair for two tokens, or the zero address if none exists.
func (c *Client) Pair(ctx context.Context, tokenA, tokenB common.Address) (common.Address, error) {
	out, err := c.call(ctx, c.factory, factoryABI, "getPair", tokenA, tokenB)
	if err != nil {
		return common.Address{}, err
	}
	pair, ok := out[0].(common.Address)
	if !ok {
		return common.Address{}, fmt.Errorf("getPair: unexpected result type %T", out[0])
	}
	return pair, nil
}

// Allowance returns how much of token the router may spend for the wallet.
func (c *Client) Allowance(ctx context.Context, token common.Address) (*big.Int, error) {
	return c.callBigInt(ctx, token, erc20ABI, "allowance", c.address, c.router)
}

// IsApproved reports whether the router holds an effectively unlimited allowance on token.
func (c *Client) IsApproved(ctx context.Context, token common.Address) (bool, error) {
	amount, err := c.Allowance(ctx, token)
	if err != nil {
		return false, fmt.Errorf("allowance of %s: %w", token.Hex(), err)
	}
	return amount.Cmp(approvalThreshold) >= 0, nil
}
