package pricefeed

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/websocket"
)

type binanceEnvelope struct {
	Stream string       `json:"stream"`
	Data   binanceTrade `json:"data"`
}

type binanceTrade struct {
	Price        string `json:"p"`
	Quantity     string `json:"q"`
	TradeTime    int64  `json:"T"`
	IsBuyerMaker bool   `json:"m"`
}

func (f *Feed) runBinance(ctx context.Context, out chan<- Tick) error {
	url := fmt.Sprintf("%s/stream?streams=%s@trade", f.binanceURL, strings.ToLower(f.symbol))
	backoff := time.Second
	const maxBackoff = 30 * time.Second

	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := f.consumeBinanceStream(ctx, url, out); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			f.log.Warn().Err(err).Dur("backoff", backoff).Msg("binance feed disconnected, retrying")
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return ctx.Err()
			}
			backoff = nextBackoff(backoff, maxBackoff)
			continue
		}
		return nil
	}
}

func nextBackoff(cur, ceiling time.Duration) time.Duration {
	return time.Duration(math.Min(float64(ceiling), float64(cur)*1.8))
}

func (f *Feed) consumeBinanceStream(ctx context.Context, url string, out chan<- Tick) error {
	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.DialContext(ctx, url, nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	f.log.Info().Str("provider", ProviderBinance).Str("symbol", f.symbol).Msg("connected price feed")

	conn.SetReadLimit(1 << 20)
	conn.SetReadDeadline(time.Now().Add(30 * time.Second))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(30 * time.Second))
		return nil
	})

	pingCtx, pingCancel := context.WithCancel(ctx)
	defer pingCancel()
	go func() {
		ticker := time.NewTicker(15 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
				if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					f.log.Warn().Err(err).Msg("binance ping failed")
					return
				}
			case <-pingCtx.Done():
				return
			}
		}
	}()

	// unblock ReadMessage when the caller gives up
	go func() {
		<-pingCtx.Done()
		conn.SetReadDeadline(time.Now())
	}()

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return err
		}

		tick, err := parseBinanceTrade(message)
		if err != nil {
			f.log.Warn().Err(err).Msg("failed to decode binance message")
			continue
		}
		if err := f.emit(ctx, out, tick); err != nil {
			return err
		}
	}
}

func parseBinanceTrade(message []byte) (Tick, error) {
	var env binanceEnvelope
	if err := json.Unmarshal(message, &env); err != nil {
		return Tick{}, err
	}
	px, err := strconv.ParseFloat(env.Data.Price, 64)
	if err != nil {
		return Tick{}, fmt.Errorf("invalid price: %w", err)
	}
	qty, err := strconv.ParseFloat(env.Data.Quantity, 64)
	if err != nil {
		return Tick{}, fmt.Errorf("invalid quantity: %w", err)
	}
	side := 1
	if env.Data.IsBuyerMaker {
		side = -1
	}
	return Tick{
		Symbol: parseBinanceSymbol(env.Stream),
		Price:  px,
		Size:   qty,
		Side:   side,
		Ts:     time.UnixMilli(env.Data.TradeTime),
	}, nil
}

func parseBinanceSymbol(stream string) string {
	parts := strings.Split(stream, "@")
	if len(parts) == 0 || parts[0] == "" {
		return strings.ToUpper(stream)
	}
	return strings.ToUpper(parts[0])
}
