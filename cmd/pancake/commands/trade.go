package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"pancakeswap-go/internal/execution"
	"pancakeswap-go/internal/metrics"
	"pancakeswap-go/internal/paper"
)

// trade <in> <out> <qty>: swap an exact input amount.
func tradeCmd() *cobra.Command {
	var (
		gasGwei     uint64
		recipient   string
		dryRun      bool
		raw         bool
		withMetrics bool
	)
	cmd := &cobra.Command{
		Use:   "trade <in> <out> <qty>",
		Short: "Swap an exact amount of <in> for <out>",
		Long:  "Swap an exact amount of <in> for <out>. Use BNB for the native coin. The input token is approved for the router first if needed.",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if withMetrics && cfg.App.MetricsAddr != "" {
				srv := metrics.Serve(cfg.App.MetricsAddr)
				defer srv.Close()
				log.Info().Str("addr", cfg.App.MetricsAddr).Msg("metrics up")
			}

			s, err := openSession(ctx)
			if err != nil {
				return err
			}
			defer s.Close()

			input, err := execution.ParseAsset(args[0])
			if err != nil {
				return err
			}
			decimals, err := s.client.TokenDecimals(ctx, input)
			if err != nil {
				return err
			}
			qty, err := quantity(args[2], decimals, raw)
			if err != nil {
				return err
			}
			if gasGwei == 0 {
				gasGwei = cfg.Trade.GasPriceGwei
			}

			journal, err := paper.NewJSONLRecorder(cfg.Paper.FillsPath)
			if err != nil {
				return fmt.Errorf("fills journal: %w", err)
			}
			defer journal.Close()
			recorders := []execution.Recorder{journal}

			var account *paper.Account
			if dryRun {
				seed, err := paper.ParseSeed(cfg.Paper.Balances)
				if err != nil {
					return err
				}
				if account, err = paper.NewAccount(seed); err != nil {
					return err
				}
				history, err := paper.LoadJournal(cfg.Paper.FillsPath)
				if err != nil {
					return err
				}
				applied, err := history.Replay(account)
				if err != nil {
					return fmt.Errorf("paper balances: %w", err)
				}
				log.Debug().Int("fills", applied).Msg("paper account restored from journal")
				recorders = append([]execution.Recorder{account}, recorders...)
			}

			exec := execution.NewExecutor(log, s.client, s.client.Limits(), dryRun, recorders...)
			fill, err := exec.Submit(ctx, execution.Order{
				Input:        args[0],
				Output:       args[1],
				Qty:          qty,
				GasPriceGwei: gasGwei,
				Recipient:    recipient,
			})
			if err != nil {
				return err
			}

			fmt.Printf("%s %s -> %s qty=%s quoted=%s min=%s\n", fill.Status, fill.Input, fill.Output, fill.Qty, fill.QuotedOut, fill.MinOut)
			if fill.TxHash != "" {
				fmt.Println("tx", fill.TxHash)
			}
			if account != nil {
				for asset, bal := range account.Snapshot() {
					fmt.Printf("paper %-42s %s\n", asset, bal)
				}
			}
			return nil
		},
	}
	cmd.Flags().Uint64Var(&gasGwei, "gwei", 0, "gas price in gwei (default trade.gas_price_gwei, 0 asks the node)")
	cmd.Flags().StringVar(&recipient, "recipient", "", "address receiving the output (default: the wallet)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "quote and record against paper balances (config seed plus journaled dry-run fills) without sending")
	cmd.Flags().BoolVar(&raw, "raw", false, "treat <qty> as smallest units")
	cmd.Flags().BoolVar(&withMetrics, "metrics", false, "serve prometheus metrics on app.metrics_addr while trading")
	return cmd
}
