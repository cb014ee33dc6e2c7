// Package pancakeswap wraps the PancakeSwap V2 router, factory, and BEP-20 token contracts.
package pancakeswap

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"net/http"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/rs/zerolog"

	"pancakeswap-go/internal/risk"
)

// Backend is the subset of an RPC client the wrapper needs. *ethclient.Client satisfies it.
type Backend interface {
	ethereum.ContractCaller
	ethereum.TransactionSender
	BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error)
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	ChainID(ctx context.Context) (*big.Int, error)
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
}

const (
	defaultGasLimit       = 250_000
	defaultDeadline       = 10 * time.Minute
	defaultReceiptTimeout = 5 * time.Minute
	defaultPollInterval   = time.Second
	defaultRequestTimeout = 60 * time.Second
)

// Client signs and sends PancakeSwap V2 calls on behalf of a single wallet.
type Client struct {
	backend Backend
	log     zerolog.Logger
	key     *ecdsa.PrivateKey
	address common.Address
	chainID *big.Int

	version int
	factory common.Address
	router  common.Address
	wbnb    common.Address

	limits         risk.Limits
	gasLimit       uint64
	deadline       time.Duration
	receiptTimeout time.Duration
	pollInterval   time.Duration
	now            func() time.Time

	mu        sync.Mutex
	lastNonce uint64
}

// Option configures Client construction parameters.
type Option func(*Client)

// WithLogger attaches a logger; the default discards output.
func WithLogger(log zerolog.Logger) Option {
	return func(c *Client) { c.log = log }
}

// WithVersion selects the router version. Only 2 is accepted by New.
func WithVersion(v int) Option {
	return func(c *Client) { c.version = v }
}

// WithMaxSlippage overrides the default 10% slippage tolerance.
func WithMaxSlippage(s float64) Option {
	return func(c *Client) { c.limits.MaxSlippage = s }
}

// WithMaxTrade caps the input quantity of any single trade.
func WithMaxTrade(wei *big.Int) Option {
	return func(c *Client) { c.limits.MaxTradeWei = wei }
}

// WithGasLimit overrides the 250000 gas limit used for every transaction.
func WithGasLimit(gas uint64) Option {
	return func(c *Client) {
		if gas > 0 {
			c.gasLimit = gas
		}
	}
}

// WithDeadline overrides the ten minute swap deadline window.
func WithDeadline(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.deadline = d
		}
	}
}

// WithReceiptTimeout bounds how long approvals wait to be mined.
func WithReceiptTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.receiptTimeout = d
		}
	}
}

// WithPollInterval sets how often receipts are polled.
func WithPollInterval(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.pollInterval = d
		}
	}
}

// WithContracts points the client at a different router, factory, and wrapped native token.
func WithContracts(router, factory, wbnb common.Address) Option {
	return func(c *Client) {
		c.router = router
		c.factory = factory
		c.wbnb = wbnb
	}
}

// WithClock replaces time.Now, used for deadlines.
func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		if now != nil {
			c.now = now
		}
	}
}

// Dial opens an RPC connection with the given per-request HTTP timeout.
func Dial(ctx context.Context, url string, timeout time.Duration) (*ethclient.Client, error) {
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}
	rc, err := rpc.DialOptions(ctx, url, rpc.WithHTTPClient(&http.Client{Timeout: timeout}))
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}
	return ethclient.NewClient(rc), nil
}

// New builds a client for the wallet owning key. It reads the chain id and starting nonce from backend.
func New(ctx context.Context, backend Backend, key *ecdsa.PrivateKey, opts ...Option) (*Client, error) {
	if backend == nil {
		return nil, fmt.Errorf("nil backend")
	}
	if key == nil {
		return nil, fmt.Errorf("nil private key")
	}
	c := &Client{
		backend:        backend,
		log:            zerolog.Nop(),
		key:            key,
		address:        crypto.PubkeyToAddress(key.PublicKey),
		version:        2,
		factory:        FactoryV2,
		router:         RouterV2,
		wbnb:           WBNB,
		limits:         risk.Limits{MaxSlippage: 0.1},
		gasLimit:       defaultGasLimit,
		deadline:       defaultDeadline,
		receiptTimeout: defaultReceiptTimeout,
		pollInterval:   defaultPollInterval,
		now:            time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.version != 2 {
		return nil, fmt.Errorf("version %d: %w", c.version, ErrUnsupportedVersion)
	}
	if err := c.limits.Validate(); err != nil {
		return nil, err
	}

	chainID, err := backend.ChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("chain id: %w", err)
	}
	c.chainID = chainID

	nonce, err := backend.PendingNonceAt(ctx, c.address)
	if err != nil {
		return nil, fmt.Errorf("starting nonce: %w", err)
	}
	c.lastNonce = nonce

	c.log = c.log.With().Str("wallet", c.address.Hex()).Logger()
	return c, nil
}

// Address returns the wallet address derived from the signing key.
func (c *Client) Address() common.Address { return c.address }

// ChainID returns the chain id read at construction.
func (c *Client) ChainID() *big.Int { return new(big.Int).Set(c.chainID) }

// Router returns the router address swaps and approvals target.
func (c *Client) Router() common.Address { return c.router }

// Factory returns the factory address used for pair lookups.
func (c *Client) Factory() common.Address { return c.factory }

// WETHAddress returns the wrapped native token (WBNB) address.
func (c *Client) WETHAddress() common.Address { return c.wbnb }

// Limits returns the slippage and size limits in effect.
func (c *Client) Limits() risk.Limits { return c.limits }

// Deadline is the unix time, in seconds, after which a swap sent now reverts.
func (c *Client) Deadline() *big.Int {
	return big.NewInt(c.now().Add(c.deadline).Unix())
}
