package commands

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"

	"pancakeswap-go/internal/execution"
)

// price <in> <out> <qty>: quote an exact-input swap through the router.
func priceCmd() *cobra.Command {
	var raw bool
	cmd := &cobra.Command{
		Use:   "price <in> <out> <qty>",
		Short: "Quote how much <out> a swap of <qty> <in> returns",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			input, err := execution.ParseAsset(args[0])
			if err != nil {
				return err
			}
			output, err := execution.ParseAsset(args[1])
			if err != nil {
				return err
			}

			s, err := openSession(ctx)
			if err != nil {
				return err
			}
			defer s.Close()

			inDecimals, err := s.client.TokenDecimals(ctx, input)
			if err != nil {
				return err
			}
			outDecimals, err := s.client.TokenDecimals(ctx, output)
			if err != nil {
				return err
			}
			qty, err := quantity(args[2], inDecimals, raw)
			if err != nil {
				return err
			}

			quote, err := s.client.Quote(ctx, input, output, qty)
			if err != nil {
				return err
			}
			minOut := s.client.Limits().MinAmountOut(quote)
			fmt.Printf("quote   %s\n", formatAmount(quote, outDecimals))
			fmt.Printf("min out %s (slippage %.2f%%)\n", formatAmount(minOut, outDecimals), s.client.Limits().MaxSlippage*100)
			return nil
		},
	}
	cmd.Flags().BoolVar(&raw, "raw", false, "treat <qty> as smallest units")
	return cmd
}

// pair <a> <b>: look up the V2 pair contract for two tokens.
func pairCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "pair <tokenA> <tokenB>",
		Short: "Print the PancakeSwap V2 pair address for two tokens",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := openSession(ctx)
			if err != nil {
				return err
			}
			defer s.Close()

			a, err := wrappedAsset(args[0], s)
			if err != nil {
				return err
			}
			b, err := wrappedAsset(args[1], s)
			if err != nil {
				return err
			}
			pair, err := s.client.Pair(ctx, a, b)
			if err != nil {
				return err
			}
			if pair == (common.Address{}) {
				return fmt.Errorf("no pair for %s / %s", a.Hex(), b.Hex())
			}
			fmt.Println(pair.Hex())
			return nil
		},
	}
}
