// Package localnet runs a disposable ganache-cli fork for integration tests.
package localnet

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/rs/zerolog"
)

// ErrNotInstalled means the ganache-cli binary is not on PATH.
var ErrNotInstalled = errors.New("ganache-cli was not found in PATH, install it with `npm install -g ganache-cli`")

const (
	// Binary is the node executable looked up on PATH.
	Binary = "ganache-cli"

	// FundedAddress is account #1 when ganache runs with `-s test`; it starts with 100 native coins.
	FundedAddress = "0x94e3361495bD110114ac0b6e35Ed75E77E6a6cFA"
	// FundedKey signs for FundedAddress.
	FundedKey = "0x6f1313062db38875fb01ee52682cbf6a8420e92bfbc578c5d4fdc0a32c50266f"

	DefaultFork      = "https://bsc-dataseed.binance.org/"
	DefaultPort      = 10999
	DefaultNetworkID = 56
	defaultSeed      = "test"
	defaultReadyWait = 30 * time.Second
)

// Options controls how the node is launched. Zero values take the defaults above.
type Options struct {
	Fork      string
	Port      int
	NetworkID int
	Seed      string
	ReadyWait time.Duration
	Log       zerolog.Logger
}

// Node is a running ganache process.
type Node struct {
	URL        string
	Address    string
	PrivateKey string

	cmd  *exec.Cmd
	once sync.Once
	done chan struct{}
	log  zerolog.Logger
}

// Args renders the ganache-cli command line for opts.
func Args(opts Options) []string {
	opts = withDefaults(opts)
	return []string{
		"--port", strconv.Itoa(opts.Port),
		"-s", opts.Seed,
		"--networkId", strconv.Itoa(opts.NetworkID),
		"--fork", opts.Fork,
	}
}

func withDefaults(opts Options) Options {
	if opts.Fork == "" {
		opts.Fork = DefaultFork
	}
	if opts.Port == 0 {
		opts.Port = DefaultPort
	}
	if opts.NetworkID == 0 {
		opts.NetworkID = DefaultNetworkID
	}
	if opts.Seed == "" {
		opts.Seed = defaultSeed
	}
	if opts.ReadyWait <= 0 {
		opts.ReadyWait = defaultReadyWait
	}
	return opts
}

// Start launches ganache and blocks until its RPC endpoint answers or ReadyWait elapses.
func Start(ctx context.Context, opts Options) (*Node, error) {
	path, err := exec.LookPath(Binary)
	if err != nil {
		return nil, ErrNotInstalled
	}
	opts = withDefaults(opts)

	cmd := exec.Command(path, Args(opts)...)
	cmd.Stdout = os.Stderr
	cmd.Stderr = os.Stderr
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start %s: %w", Binary, err)
	}

	n := &Node{
		URL:        fmt.Sprintf("http://127.0.0.1:%d", opts.Port),
		Address:    FundedAddress,
		PrivateKey: FundedKey,
		cmd:        cmd,
		done:       make(chan struct{}),
		log:        opts.Log,
	}
	go func() {
		_ = cmd.Wait()
		close(n.done)
	}()
	n.log.Info().Str("url", n.URL).Str("fork", opts.Fork).Msg("ganache starting")

	readyCtx, cancel := context.WithTimeout(ctx, opts.ReadyWait)
	defer cancel()
	if err := n.waitReady(readyCtx); err != nil {
		n.Stop()
		return nil, err
	}
	return n, nil
}

func (n *Node) waitReady(ctx context.Context) error {
	ticker := time.NewTicker(250 * time.Millisecond)
	defer ticker.Stop()
	for {
		if client, err := ethclient.DialContext(ctx, n.URL); err == nil {
			_, err = client.ChainID(ctx)
			client.Close()
			if err == nil {
				return nil
			}
		}
		select {
		case <-n.done:
			return fmt.Errorf("%s exited before becoming ready", Binary)
		case <-ctx.Done():
			return fmt.Errorf("%s not ready: %w", Binary, ctx.Err())
		case <-ticker.C:
		}
	}
}

// Stop kills the process and waits for it to exit. Safe to call more than once.
func (n *Node) Stop() {
	n.once.Do(func() {
		if n.cmd.Process != nil {
			_ = n.cmd.Process.Kill()
		}
		<-n.done
		n.log.Info().Str("url", n.URL).Msg("ganache stopped")
	})
}
