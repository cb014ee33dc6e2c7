package commands

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"pancakeswap-go/internal/execution"
	"pancakeswap-go/internal/pancakeswap"
)

// quantity parses a user amount, either as smallest units or scaled by decimals.
func quantity(s string, decimals uint8, raw bool) (*big.Int, error) {
	if raw {
		return parseAmount(s, 0)
	}
	return parseAmount(s, decimals)
}

// wrappedAsset parses an asset and swaps the native alias for WBNB, which is what pairs hold.
func wrappedAsset(s string, sess *session) (common.Address, error) {
	addr, err := execution.ParseAsset(s)
	if err != nil {
		return common.Address{}, err
	}
	if pancakeswap.IsNative(addr) {
		return sess.client.WETHAddress(), nil
	}
	return addr, nil
}
