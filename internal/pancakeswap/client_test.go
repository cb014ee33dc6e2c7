package pancakeswap

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

var (
	oneBNB = new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)
	dai    = common.HexToAddress("0x1af3f329e8be154074d8769d1ffa4ee058b1dbc3")
	usdc   = common.HexToAddress("0x8ac76a51cc950d9822d68b83fe1ad97b32cd580d")
)

func newTestClient(t *testing.T, chain *fakeChain, opts ...Option) (*Client, *ecdsa.PrivateKey) {
	t.Helper()
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	opts = append([]Option{WithPollInterval(time.Millisecond)}, opts...)
	client, err := New(context.Background(), chain, key, opts...)
	require.NoError(t, err)
	return client, key
}

func bnb(n int64) *big.Int { return new(big.Int).Mul(big.NewInt(n), oneBNB) }

func TestParseToken(t *testing.T) {
	addr, err := ParseToken("0x1af3f329e8be154074d8769d1ffa4ee058b1dbc3")
	require.NoError(t, err)
	require.Equal(t, dai, addr)

	upper, err := ParseToken("0X1AF3F329E8BE154074D8769D1FFA4EE058B1DBC3")
	require.NoError(t, err)
	require.Equal(t, dai, upper)

	for _, bad := range []string{"btc", "", "1af3f329e8be154074d8769d1ffa4ee058b1dbc3", "0x1234"} {
		_, err := ParseToken(bad)
		var invalid *InvalidTokenError
		require.ErrorAs(t, err, &invalid, "input %q", bad)
		require.Equal(t, bad, invalid.Address)
	}
}

func TestNewRejectsUnsupportedVersion(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	_, err = New(context.Background(), newFakeChain(), key, WithVersion(3))
	require.ErrorIs(t, err, ErrUnsupportedVersion)
}

func TestNewRejectsBadSlippage(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	_, err = New(context.Background(), newFakeChain(), key, WithMaxSlippage(1.5))
	require.Error(t, err)
}

func TestDeadlineIsTenMinutesAhead(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	client, _ := newTestClient(t, newFakeChain(), WithClock(func() time.Time { return now }))
	require.Equal(t, now.Unix()+10*60, client.Deadline().Int64())
}

func TestWETHAddress(t *testing.T) {
	client, _ := newTestClient(t, newFakeChain())
	require.Equal(t, common.HexToAddress("0xbb4CdB9CBd36B01bD1cBaEBF2De08d9173bc095c"), client.WETHAddress())
}

func TestBalances(t *testing.T) {
	chain := newFakeChain()
	client, _ := newTestClient(t, chain)
	chain.native[client.Address()] = bnb(100)
	chain.setToken(usdc, client.Address(), big.NewInt(42))

	eth, err := client.EthBalance(context.Background())
	require.NoError(t, err)
	require.Zero(t, eth.Cmp(bnb(100)))

	native, err := client.TokenBalance(context.Background(), Native)
	require.NoError(t, err)
	require.Zero(t, native.Cmp(bnb(100)))

	daiBal, err := client.TokenBalance(context.Background(), dai)
	require.NoError(t, err)
	require.Zero(t, daiBal.Sign())

	all, err := client.TokenBalances(context.Background(), []common.Address{Native, dai, usdc})
	require.NoError(t, err)
	require.Len(t, all, 3)
	require.Zero(t, all[usdc].Cmp(big.NewInt(42)))
}

func TestPricePaths(t *testing.T) {
	chain := newFakeChain()
	client, _ := newTestClient(t, chain)
	ctx := context.Background()

	cases := []struct {
		name  string
		quote func() (*big.Int, error)
		path  []common.Address
		want  int64
	}{
		{"eth to token", func() (*big.Int, error) { return client.EthTokenInputPrice(ctx, dai, big.NewInt(10)) }, []common.Address{WBNB, dai}, 20},
		{"token to eth", func() (*big.Int, error) { return client.TokenEthInputPrice(ctx, dai, big.NewInt(10)) }, []common.Address{dai, WBNB}, 20},
		{"token to token", func() (*big.Int, error) { return client.TokenTokenInputPrice(ctx, dai, usdc, big.NewInt(10)) }, []common.Address{dai, WBNB, usdc}, 40},
		{"wbnb to token", func() (*big.Int, error) { return client.TokenTokenInputPrice(ctx, WBNB, usdc, big.NewInt(10)) }, []common.Address{WBNB, usdc}, 20},
		{"token to wbnb", func() (*big.Int, error) { return client.TokenTokenInputPrice(ctx, usdc, WBNB, big.NewInt(10)) }, []common.Address{usdc, WBNB}, 20},
		{"quote native input", func() (*big.Int, error) { return client.Quote(ctx, Native, usdc, big.NewInt(10)) }, []common.Address{WBNB, usdc}, 20},
		{"quote native output", func() (*big.Int, error) { return client.Quote(ctx, usdc, Native, big.NewInt(10)) }, []common.Address{usdc, WBNB}, 20},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := tc.quote()
			require.NoError(t, err)
			require.Equal(t, tc.want, got.Int64())
			if diff := cmp.Diff(tc.path, chain.lastPath); diff != "" {
				t.Fatalf("path mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestPair(t *testing.T) {
	chain := newFakeChain()
	pair := common.HexToAddress("0x0eD7e52944161450477ee417DE9Cd3a859b14fD0")
	chain.pairs[[2]common.Address{WBNB, usdc}] = pair
	client, _ := newTestClient(t, chain)

	got, err := client.Pair(context.Background(), WBNB, usdc)
	require.NoError(t, err)
	require.Equal(t, pair, got)

	missing, err := client.Pair(context.Background(), dai, usdc)
	require.NoError(t, err)
	require.Equal(t, common.Address{}, missing)
}

func TestIsApprovedThreshold(t *testing.T) {
	chain := newFakeChain()
	client, _ := newTestClient(t, chain)

	chain.allowances[dai] = new(big.Int).Set(approvalThreshold)
	ok, err := client.IsApproved(context.Background(), dai)
	require.NoError(t, err)
	require.True(t, ok)

	chain.allowances[dai] = new(big.Int).Sub(approvalThreshold, big.NewInt(1))
	ok, err = client.IsApproved(context.Background(), dai)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestApproveSendsMaxAllowance(t *testing.T) {
	chain := newFakeChain()
	client, key := newTestClient(t, chain)

	receipt, err := client.Approve(context.Background(), dai, nil)
	require.NoError(t, err)
	require.Equal(t, types.ReceiptStatusSuccessful, receipt.Status)

	sent := chain.sentTxs()
	require.Len(t, sent, 1)
	tx := sent[0]
	require.Equal(t, dai, *tx.To())
	require.Zero(t, tx.Value().Sign())
	require.Equal(t, uint64(250_000), tx.Gas())
	require.Zero(t, tx.GasPrice().Cmp(chain.gasPrice))

	from, err := types.Sender(types.LatestSignerForChainID(big.NewInt(56)), tx)
	require.NoError(t, err)
	require.Equal(t, crypto.PubkeyToAddress(key.PublicKey), from)

	name, args, err := decodeCall(erc20ABI, tx.Data())
	require.NoError(t, err)
	require.Equal(t, "approve", name)
	require.Equal(t, RouterV2, args[0].(common.Address))
	require.Zero(t, args[1].(*big.Int).Cmp(MaxApproval))

	ok, err := client.IsApproved(context.Background(), dai)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestMakeTradeEthToToken(t *testing.T) {
	chain := newFakeChain()
	now := time.Unix(1_700_000_000, 0)
	client, _ := newTestClient(t, chain, WithClock(func() time.Time { return now }))
	chain.native[client.Address()] = bnb(100)

	hash, err := client.MakeTrade(context.Background(), Trade{Input: Native, Output: dai, Qty: bnb(2), GasPriceGwei: 5})
	require.NoError(t, err)

	sent := chain.sentTxs()
	require.Len(t, sent, 1, "native input needs no approval")
	tx := sent[0]
	require.Equal(t, hash, tx.Hash())
	require.Equal(t, RouterV2, *tx.To())
	require.Zero(t, tx.Value().Cmp(bnb(2)))
	require.Zero(t, tx.GasPrice().Cmp(big.NewInt(5_000_000_000)))

	name, args, err := decodeCall(routerABI, tx.Data())
	require.NoError(t, err)
	require.Equal(t, "swapExactETHForTokens", name)
	// quote is 4 BNB worth of dai at rate 2; 10% slippage keeps 3.6
	wantMin := new(big.Int).Div(new(big.Int).Mul(bnb(4), big.NewInt(9)), big.NewInt(10))
	require.Zero(t, args[0].(*big.Int).Cmp(wantMin))
	require.Equal(t, []common.Address{WBNB, dai}, args[1].([]common.Address))
	require.Equal(t, client.Address(), args[2].(common.Address))
	require.Equal(t, now.Unix()+600, args[3].(*big.Int).Int64())
}

func TestMakeTradeEthToTokenInsufficientBalance(t *testing.T) {
	chain := newFakeChain()
	client, _ := newTestClient(t, chain)
	chain.native[client.Address()] = bnb(1)

	_, err := client.MakeTrade(context.Background(), Trade{Input: Native, Output: dai, Qty: bnb(2)})
	var insufficient *InsufficientBalanceError
	require.ErrorAs(t, err, &insufficient)
	require.Zero(t, insufficient.Had.Cmp(bnb(1)))
	require.Zero(t, insufficient.Needed.Cmp(bnb(2)))
	require.Empty(t, chain.sentTxs())
}

func TestMakeTradeTokenToTokenApprovesFirst(t *testing.T) {
	chain := newFakeChain()
	chain.pendingNonce = 7
	client, _ := newTestClient(t, chain)
	chain.setToken(dai, client.Address(), bnb(3))
	recipient := common.HexToAddress("0x94e3361495bD110114ac0b6e35Ed75E77E6a6cFA")

	_, err := client.MakeTrade(context.Background(), Trade{Input: dai, Output: usdc, Qty: bnb(1), Recipient: &recipient})
	require.NoError(t, err)

	sent := chain.sentTxs()
	require.Len(t, sent, 2)
	require.Equal(t, dai, *sent[0].To())
	require.Equal(t, uint64(7), sent[0].Nonce())
	require.Equal(t, RouterV2, *sent[1].To())
	require.Equal(t, uint64(8), sent[1].Nonce())

	name, args, err := decodeCall(routerABI, sent[1].Data())
	require.NoError(t, err)
	require.Equal(t, "swapExactTokensForTokens", name)
	require.Zero(t, args[0].(*big.Int).Cmp(bnb(1)))
	require.Equal(t, []common.Address{dai, WBNB, usdc}, args[2].([]common.Address))
	require.Equal(t, recipient, args[3].(common.Address))
	require.Nil(t, chain.allowances[usdc], "output token is not approved")
}

func TestMakeTradeTokenToTokenDirectWithWBNB(t *testing.T) {
	cases := []struct {
		name   string
		input  common.Address
		output common.Address
	}{
		{"token to wbnb", dai, WBNB},
		{"wbnb to token", WBNB, dai},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			chain := newFakeChain()
			client, _ := newTestClient(t, chain)
			chain.allowances[tc.input] = MaxApproval
			chain.setToken(tc.input, client.Address(), bnb(2))

			_, err := client.MakeTrade(context.Background(), Trade{Input: tc.input, Output: tc.output, Qty: bnb(1)})
			require.NoError(t, err)

			sent := chain.sentTxs()
			require.Len(t, sent, 1)
			name, args, err := decodeCall(routerABI, sent[0].Data())
			require.NoError(t, err)
			require.Equal(t, "swapExactTokensForTokens", name)
			if diff := cmp.Diff([]common.Address{tc.input, tc.output}, args[2].([]common.Address)); diff != "" {
				t.Fatalf("swap path mismatch (-want +got):\n%s", diff)
			}
			// quote of 2x less 10% slippage
			require.Zero(t, args[1].(*big.Int).Cmp(new(big.Int).Div(new(big.Int).Mul(bnb(2), big.NewInt(9)), big.NewInt(10))))
		})
	}
}

func TestMakeTradeTokenToEth(t *testing.T) {
	chain := newFakeChain()
	client, _ := newTestClient(t, chain)
	chain.allowances[usdc] = MaxApproval
	chain.setToken(usdc, client.Address(), bnb(1))

	_, err := client.MakeTrade(context.Background(), Trade{Input: usdc, Output: Native, Qty: bnb(1)})
	require.NoError(t, err)

	sent := chain.sentTxs()
	require.Len(t, sent, 1, "already approved")
	name, args, err := decodeCall(routerABI, sent[0].Data())
	require.NoError(t, err)
	require.Equal(t, "swapExactTokensForETHSupportingFeeOnTransferTokens", name)
	require.Equal(t, []common.Address{usdc, WBNB}, args[2].([]common.Address))
	require.Zero(t, sent[0].Value().Sign())
}

func TestMakeTradeTokenInsufficientBalance(t *testing.T) {
	chain := newFakeChain()
	client, _ := newTestClient(t, chain)
	chain.allowances[dai] = MaxApproval

	_, err := client.MakeTrade(context.Background(), Trade{Input: dai, Output: usdc, Qty: bnb(1)})
	var insufficient *InsufficientBalanceError
	require.ErrorAs(t, err, &insufficient)
	require.Zero(t, insufficient.Had.Sign())
	require.Empty(t, chain.sentTxs())
}

func TestMakeTradeRejectsBadRequests(t *testing.T) {
	client, _ := newTestClient(t, newFakeChain(), WithMaxTrade(bnb(1)))
	ctx := context.Background()

	_, err := client.MakeTrade(ctx, Trade{Input: Native, Output: dai, Qty: big.NewInt(0)})
	require.Error(t, err)
	_, err = client.MakeTrade(ctx, Trade{Input: dai, Output: dai, Qty: big.NewInt(1)})
	require.Error(t, err)
	_, err = client.MakeTrade(ctx, Trade{Input: Native, Output: dai, Qty: bnb(2)})
	require.ErrorContains(t, err, "exceeds per-trade cap")
}

func TestNonceAdvancesPastStalePendingCount(t *testing.T) {
	chain := newFakeChain()
	chain.freezeNonce = true
	chain.pendingNonce = 3
	client, _ := newTestClient(t, chain)

	for i := 0; i < 3; i++ {
		_, err := client.Approve(context.Background(), dai, nil)
		require.NoError(t, err)
	}
	sent := chain.sentTxs()
	require.Len(t, sent, 3)
	for i, tx := range sent {
		require.Equal(t, uint64(3+i), tx.Nonce())
	}
}

func TestNonceAdvancesOnSendFailure(t *testing.T) {
	chain := newFakeChain()
	chain.freezeNonce = true
	client, _ := newTestClient(t, chain)

	chain.sendErr = errors.New("boom")
	_, err := client.Approve(context.Background(), dai, nil)
	require.ErrorContains(t, err, "boom")

	chain.sendErr = nil
	_, err = client.Approve(context.Background(), dai, nil)
	require.NoError(t, err)
	require.Equal(t, uint64(1), chain.sentTxs()[0].Nonce())
}

func TestWaitReceiptReverted(t *testing.T) {
	chain := newFakeChain()
	chain.revert = true
	client, _ := newTestClient(t, chain)

	_, err := client.Approve(context.Background(), dai, nil)
	require.ErrorIs(t, err, ErrTxReverted)
}

func TestWaitReceiptHonoursContext(t *testing.T) {
	client, _ := newTestClient(t, newFakeChain())
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := client.WaitReceipt(ctx, common.HexToHash("0x01"))
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestGweiToWei(t *testing.T) {
	require.Equal(t, "100000000000", GweiToWei(100).String())
}
