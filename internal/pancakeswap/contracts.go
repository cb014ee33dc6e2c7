package pancakeswap

import (
	"bytes"
	"embed"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

//go:embed abis/*.abi
var abiFiles embed.FS

var (
	// FactoryV2 is the PancakeSwap V2 factory on BNB Smart Chain.
	FactoryV2 = common.HexToAddress("0xcA143Ce32Fe78f1f7019d7d551a6402fC5350c73")
	// RouterV2 is the PancakeSwap V2 router02 on BNB Smart Chain.
	RouterV2 = common.HexToAddress("0x10ED43C718714eb63d5aA57B78B54704E256024E")
	// WBNB is the wrapped native token the router routes through.
	WBNB = common.HexToAddress("0xbb4CdB9CBd36B01bD1cBaEBF2De08d9173bc095c")
	// Native is the sentinel address standing in for BNB itself.
	Native = common.Address{}
)

var (
	// MaxApproval is 2^256 - 1.
	MaxApproval = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))
	// approvalThreshold is 2^196 - 1; any allowance at or above it counts as a max approval.
	approvalThreshold = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 196), big.NewInt(1))
)

var (
	routerABI  = mustLoadABI("router02")
	factoryABI = mustLoadABI("factory")
	erc20ABI   = mustLoadABI("erc20")
)

func loadABI(name string) (abi.ABI, error) {
	raw, err := abiFiles.ReadFile("abis/" + name + ".abi")
	if err != nil {
		return abi.ABI{}, fmt.Errorf("read abi %s: %w", name, err)
	}
	parsed, err := abi.JSON(bytes.NewReader(raw))
	if err != nil {
		return abi.ABI{}, fmt.Errorf("parse abi %s: %w", name, err)
	}
	return parsed, nil
}

func mustLoadABI(name string) abi.ABI {
	parsed, err := loadABI(name)
	if err != nil {
		panic(err)
	}
	return parsed
}

// IsNative reports whether token is the native sentinel.
func IsNative(token common.Address) bool { return token == Native }
