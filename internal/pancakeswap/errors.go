package pancakeswap

import (
	"errors"
	"fmt"
	"math/big"
)

var (
	// ErrUnsupportedVersion is returned for any router version other than 2.
	ErrUnsupportedVersion = errors.New("only pancakeswap v2 is supported")
	// ErrTxReverted is returned when a mined transaction has a failed status.
	ErrTxReverted = errors.New("transaction reverted")
)

// InvalidTokenError reports a value that cannot be used as a token address.
type InvalidTokenError struct {
	Address string
}

func (e *InvalidTokenError) Error() string {
	return fmt.Sprintf("invalid token address: %s", e.Address)
}

// InsufficientBalanceError reports a trade larger than the wallet holds.
type InsufficientBalanceError struct {
	Had    *big.Int
	Needed *big.Int
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("insufficient balance. had %s, needed %s", e.Had, e.Needed)
}
