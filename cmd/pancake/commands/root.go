package commands

import (
	"context"
	"fmt"
	"math/big"
	"os"
	"os/signal"
	"syscall"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"pancakeswap-go/internal/config"
	"pancakeswap-go/internal/pancakeswap"
	"pancakeswap-go/internal/util"
	"pancakeswap-go/internal/wallet"
)

const defaultConfigPath = "internal/config/config.yaml"

var (
	configPath string
	logLevel   string

	cfg *config.Config
	log zerolog.Logger
)

func Execute() error {
	root := &cobra.Command{
		Use:           "pancake",
		Short:         "Quote and trade on PancakeSwap V2",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			loaded, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if logLevel != "" {
				loaded.App.LogLevel = logLevel
			}
			cfg = loaded
			log = util.NewConsoleLogger(cfg.App.LogLevel)
			return nil
		},
	}

	root.PersistentFlags().StringVarP(&configPath, "config", "c", defaultConfigPath, "path to YAML config")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "override app.log_level")

	root.AddCommand(balanceCmd(), priceCmd(), pairCmd(), allowanceCmd(), approveCmd(), tradeCmd(), fillsCmd(), configCmd())

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		return err
	}
	return nil
}

// session bundles the live RPC connection and client for one command run.
type session struct {
	backend *ethclient.Client
	client  *pancakeswap.Client
}

func (s *session) Close() { s.backend.Close() }

func openSession(ctx context.Context) (*session, error) {
	key, err := wallet.LoadPrivateKeyFromEnv(cfg.Wallet.KeyEnv)
	if err != nil {
		return nil, fmt.Errorf("wallet: %w", err)
	}
	if err := wallet.CheckAddress(key, cfg.Wallet.Address); err != nil {
		return nil, err
	}

	backend, err := pancakeswap.Dial(ctx, cfg.Chain.Provider, cfg.RequestTimeout())
	if err != nil {
		return nil, err
	}

	opts, err := clientOptions()
	if err != nil {
		backend.Close()
		return nil, err
	}
	client, err := pancakeswap.New(ctx, backend, key, opts...)
	if err != nil {
		backend.Close()
		return nil, err
	}
	if cfg.Chain.ChainID != 0 && client.ChainID().Int64() != cfg.Chain.ChainID {
		log.Warn().Int64("expected", cfg.Chain.ChainID).Stringer("got", client.ChainID()).Msg("chain id differs from config")
	}
	return &session{backend: backend, client: client}, nil
}

func clientOptions() ([]pancakeswap.Option, error) {
	opts := []pancakeswap.Option{
		pancakeswap.WithLogger(log),
		pancakeswap.WithVersion(cfg.Pancake.Version),
		pancakeswap.WithMaxSlippage(cfg.Trade.MaxSlippage),
		pancakeswap.WithGasLimit(cfg.Trade.GasLimit),
		pancakeswap.WithDeadline(cfg.Deadline()),
		pancakeswap.WithReceiptTimeout(cfg.ReceiptTimeout()),
	}
	if cfg.Trade.MaxTradeWei != "" {
		maxTrade, ok := new(big.Int).SetString(cfg.Trade.MaxTradeWei, 10)
		if !ok {
			return nil, fmt.Errorf("trade.max_trade_wei %q is not an integer", cfg.Trade.MaxTradeWei)
		}
		opts = append(opts, pancakeswap.WithMaxTrade(maxTrade))
	}
	if cfg.Pancake.Router != "" || cfg.Pancake.Factory != "" || cfg.Pancake.WBNB != "" {
		router, err := addressOr(cfg.Pancake.Router, pancakeswap.RouterV2)
		if err != nil {
			return nil, fmt.Errorf("pancake.router: %w", err)
		}
		factory, err := addressOr(cfg.Pancake.Factory, pancakeswap.FactoryV2)
		if err != nil {
			return nil, fmt.Errorf("pancake.factory: %w", err)
		}
		wbnb, err := addressOr(cfg.Pancake.WBNB, pancakeswap.WBNB)
		if err != nil {
			return nil, fmt.Errorf("pancake.wbnb: %w", err)
		}
		opts = append(opts, pancakeswap.WithContracts(router, factory, wbnb))
	}
	return opts, nil
}

func addressOr(s string, def common.Address) (common.Address, error) {
	if s == "" {
		return def, nil
	}
	return pancakeswap.ParseToken(s)
}
