package commands

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"

	"pancakeswap-go/internal/execution"
	"pancakeswap-go/internal/pancakeswap"
	"pancakeswap-go/internal/pricefeed"
)

// priceFeedTimeout bounds the wait for the first tick; the binance provider reconnects forever.
const priceFeedTimeout = 10 * time.Second

// latestMark returns the first tick from feed, giving up after timeout.
func latestMark(ctx context.Context, feed *pricefeed.Feed, timeout time.Duration) (pricefeed.Tick, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return feed.Latest(ctx)
}

// balance [tokens...]: show native and token balances of the wallet.
func balanceCmd() *cobra.Command {
	var usd bool
	cmd := &cobra.Command{
		Use:   "balance [token...]",
		Short: "Show BNB and token balances of the wallet",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := openSession(ctx)
			if err != nil {
				return err
			}
			defer s.Close()

			tokens := []common.Address{pancakeswap.Native}
			for _, arg := range args {
				addr, err := execution.ParseAsset(arg)
				if err != nil {
					return err
				}
				if !pancakeswap.IsNative(addr) {
					tokens = append(tokens, addr)
				}
			}
			balances, err := s.client.TokenBalances(ctx, tokens)
			if err != nil {
				return err
			}

			fmt.Printf("wallet %s\n", s.client.Address().Hex())
			for _, token := range tokens {
				decimals, err := s.client.TokenDecimals(ctx, token)
				if err != nil {
					return err
				}
				name := token.Hex()
				if pancakeswap.IsNative(token) {
					name = execution.NativeAlias
				}
				fmt.Printf("%-42s %s\n", name, formatAmount(balances[token], decimals))
			}

			if usd {
				feed := pricefeed.NewFeed(cfg.PriceFeed.Provider, cfg.PriceFeed.Symbol, log)
				tick, err := latestMark(ctx, feed, priceFeedTimeout)
				if err != nil {
					return fmt.Errorf("price feed: %w", err)
				}
				native, _ := new(big.Float).SetString(formatAmount(balances[pancakeswap.Native], 18))
				value := new(big.Float).Mul(native, big.NewFloat(tick.Price))
				fmt.Printf("%-42s %s (%s @ %.4f)\n", "BNB in USD", value.Text('f', 2), tick.Symbol, tick.Price)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&usd, "usd", false, "value the BNB balance using the configured price feed")
	return cmd
}
