package pancakeswap

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// fakeChain answers ABI-encoded router, factory, and token calls from in-memory state.
type fakeChain struct {
	mu sync.Mutex

	chainID    *big.Int
	native     map[common.Address]*big.Int
	tokens     map[common.Address]map[common.Address]*big.Int
	allowances map[common.Address]*big.Int
	pairs      map[[2]common.Address]common.Address
	// rate multiplies the amount on every hop of getAmountsOut.
	rate int64

	pendingNonce uint64
	freezeNonce  bool
	gasPrice     *big.Int
	sendErr      error
	revert       bool

	sent     []*types.Transaction
	receipts map[common.Hash]*types.Receipt
	lastPath []common.Address
}

func newFakeChain() *fakeChain {
	return &fakeChain{
		chainID:    big.NewInt(56),
		native:     make(map[common.Address]*big.Int),
		tokens:     make(map[common.Address]map[common.Address]*big.Int),
		allowances: make(map[common.Address]*big.Int),
		pairs:      make(map[[2]common.Address]common.Address),
		rate:       2,
		gasPrice:   big.NewInt(5_000_000_000),
		receipts:   make(map[common.Hash]*types.Receipt),
	}
}

func (f *fakeChain) setToken(token, owner common.Address, amount *big.Int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.tokens[token] == nil {
		f.tokens[token] = make(map[common.Address]*big.Int)
	}
	f.tokens[token][owner] = amount
}

func (f *fakeChain) abiFor(to common.Address) abi.ABI {
	switch to {
	case RouterV2:
		return routerABI
	case FactoryV2:
		return factoryABI
	default:
		return erc20ABI
	}
}

func (f *fakeChain) CallContract(ctx context.Context, msg ethereum.CallMsg, _ *big.Int) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if msg.To == nil || len(msg.Data) < 4 {
		return nil, errors.New("malformed call")
	}
	parsed := f.abiFor(*msg.To)
	method, err := parsed.MethodById(msg.Data[:4])
	if err != nil {
		return nil, err
	}
	args, err := method.Inputs.Unpack(msg.Data[4:])
	if err != nil {
		return nil, err
	}

	switch method.Name {
	case "getAmountsOut":
		amount := new(big.Int).Set(args[0].(*big.Int))
		path := args[1].([]common.Address)
		f.lastPath = path
		amounts := []*big.Int{new(big.Int).Set(amount)}
		for i := 1; i < len(path); i++ {
			amount = new(big.Int).Mul(amount, big.NewInt(f.rate))
			amounts = append(amounts, amount)
		}
		return method.Outputs.Pack(amounts)
	case "balanceOf":
		bal := f.tokens[*msg.To][args[0].(common.Address)]
		if bal == nil {
			bal = new(big.Int)
		}
		return method.Outputs.Pack(bal)
	case "allowance":
		allowance := f.allowances[*msg.To]
		if allowance == nil {
			allowance = new(big.Int)
		}
		return method.Outputs.Pack(allowance)
	case "decimals":
		return method.Outputs.Pack(uint8(18))
	case "getPair":
		a, b := args[0].(common.Address), args[1].(common.Address)
		return method.Outputs.Pack(f.pairs[[2]common.Address{a, b}])
	}
	return nil, fmt.Errorf("unhandled method %s", method.Name)
}

func (f *fakeChain) SendTransaction(ctx context.Context, tx *types.Transaction) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return f.sendErr
	}
	f.sent = append(f.sent, tx)
	if !f.freezeNonce {
		f.pendingNonce = tx.Nonce() + 1
	}

	if tx.To() != nil && *tx.To() != RouterV2 && len(tx.Data()) >= 4 {
		if method, err := erc20ABI.MethodById(tx.Data()[:4]); err == nil && method.Name == "approve" {
			args, _ := method.Inputs.Unpack(tx.Data()[4:])
			f.allowances[*tx.To()] = args[1].(*big.Int)
		}
	}

	status := types.ReceiptStatusSuccessful
	if f.revert {
		status = types.ReceiptStatusFailed
	}
	f.receipts[tx.Hash()] = &types.Receipt{Status: status, TxHash: tx.Hash()}
	return nil
}

func (f *fakeChain) BalanceAt(ctx context.Context, account common.Address, _ *big.Int) (*big.Int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if bal, ok := f.native[account]; ok {
		return new(big.Int).Set(bal), nil
	}
	return new(big.Int), nil
}

func (f *fakeChain) PendingNonceAt(ctx context.Context, _ common.Address) (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pendingNonce, nil
}

func (f *fakeChain) SuggestGasPrice(ctx context.Context) (*big.Int, error) {
	return new(big.Int).Set(f.gasPrice), nil
}

func (f *fakeChain) ChainID(ctx context.Context) (*big.Int, error) {
	return new(big.Int).Set(f.chainID), nil
}

func (f *fakeChain) TransactionReceipt(ctx context.Context, hash common.Hash) (*types.Receipt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if r, ok := f.receipts[hash]; ok {
		return r, nil
	}
	return nil, ethereum.NotFound
}

func (f *fakeChain) sentTxs() []*types.Transaction {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*types.Transaction, len(f.sent))
	copy(out, f.sent)
	return out
}

// decodeCall returns the method name and arguments carried in tx data.
func decodeCall(parsed abi.ABI, data []byte) (string, []any, error) {
	method, err := parsed.MethodById(data[:4])
	if err != nil {
		return "", nil, err
	}
	args, err := method.Inputs.Unpack(data[4:])
	return method.Name, args, err
}
