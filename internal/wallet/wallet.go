// Package wallet loads the signing key for the trading account.
package wallet

import (
	"crypto/ecdsa"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/joho/godotenv"
)

// DefaultKeyEnv is the variable LoadPrivateKeyFromEnv reads when no name is given.
const DefaultKeyEnv = "PRIVATE_KEY"

// ParsePrivateKey decodes a hex secp256k1 key, with or without a 0x prefix.
func ParsePrivateKey(hexKey string) (*ecdsa.PrivateKey, error) {
	hexKey = strings.TrimSpace(hexKey)
	hexKey = strings.TrimPrefix(strings.TrimPrefix(hexKey, "0x"), "0X")
	if hexKey == "" {
		return nil, errors.New("empty private key")
	}
	key, err := crypto.HexToECDSA(hexKey)
	if err != nil {
		return nil, fmt.Errorf("parse private key: %w", err)
	}
	return key, nil
}

func LoadPrivateKeyFromEnv(name string) (*ecdsa.PrivateKey, error) {
	if name == "" {
		name = DefaultKeyEnv
	}
	_ = godotenv.Load() // best-effort
	raw := os.Getenv(name)
	if raw == "" {
		return nil, fmt.Errorf("%s not set", name)
	}
	return ParsePrivateKey(raw)
}

// Address derives the account address owning key.
func Address(key *ecdsa.PrivateKey) common.Address {
	return crypto.PubkeyToAddress(key.PublicKey)
}

// CheckAddress fails when a configured wallet address does not belong to key. An empty configured value passes.
func CheckAddress(key *ecdsa.PrivateKey, configured string) error {
	configured = strings.TrimSpace(configured)
	if configured == "" {
		return nil
	}
	if !common.IsHexAddress(configured) {
		return fmt.Errorf("wallet address %q is not a hex address", configured)
	}
	derived := Address(key)
	if common.HexToAddress(configured) != derived {
		return fmt.Errorf("wallet address %s does not match key address %s", configured, derived.Hex())
	}
	return nil
}
