package binance

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"TrueVol/internal/domain/models"
	drepo "TrueVol/internal/domain/repository"
)

// Stream implements a MarketStream backed by the Binance kline WebSocket.
// Only closed candles are emitted; in-progress updates are skipped so a
// downstream store never sees a bar twice.
type Stream struct {
	websocketURL   string
	symbols        []string
	interval       string
	reconnectDelay time.Duration
	pingInterval   time.Duration

	conn      *websocket.Conn
	connected bool
}

// NewStream creates a Binance kline MarketStream.
func NewStream(websocketURL string, symbols []string, interval string, reconnectDelay, pingInterval time.Duration) drepo.MarketStream {
	return &Stream{
		websocketURL:   websocketURL,
		symbols:        symbols,
		interval:       interval,
		reconnectDelay: reconnectDelay,
		pingInterval:   pingInterval,
	}
}

// Connect establishes the WebSocket connection.
func (s *Stream) Connect(ctx context.Context) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, s.websocketURL, nil)
	if err != nil {
		return fmt.Errorf("binance connect: %w", err)
	}
	s.conn = conn
	s.connected = true
	log.Printf("binance: connected")
	return nil
}

// Subscribe subscribes to kline streams for the configured symbols.
func (s *Stream) Subscribe(ctx context.Context) error {
	if s.conn == nil || !s.connected {
		return fmt.Errorf("binance not connected")
	}
	params := make([]string, 0, len(s.symbols))
	for _, sym := range s.symbols {
		params = append(params, fmt.Sprintf("%s@kline_%s", strings.ToLower(sym), s.interval))
	}
	msg := map[string]any{"method": "SUBSCRIBE", "params": params, "id": 1}
	if err := s.conn.WriteJSON(msg); err != nil {
		return fmt.Errorf("subscribe: %w", err)
	}
	log.Printf("binance: subscribed %v", params)
	return nil
}

type wsKline struct {
	StartTime int64  `json:"t"` // ms
	Open      string `json:"o"`
	High      string `json:"h"`
	Low       string `json:"l"`
	Close     string `json:"c"`
	Final     bool   `json:"x"`
}

type wsKlineEvent struct {
	Event  string  `json:"e"`
	Symbol string  `json:"s"`
	Kline  wsKline `json:"k"`
}

// Read streams closed bars until the first read error, then closes both
// channels. Callers reconnect and call Read again for a fresh session.
func (s *Stream) Read(ctx context.Context) (<-chan *models.BarEvent, <-chan error) {
	bars := make(chan *models.BarEvent, 1024)
	errs := make(chan error, 1)
	sessionDone := make(chan struct{})

	// ping loop, scoped to this read session
	go func() {
		ticker := time.NewTicker(s.pingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-sessionDone:
				return
			case <-ticker.C:
				if s.conn != nil {
					_ = s.conn.WriteMessage(websocket.PongMessage, nil)
				}
			}
		}
	}()

	// read loop
	go func() {
		defer close(bars)
		defer close(errs)
		defer close(sessionDone)
		for {
			select {
			case <-ctx.Done():
				return
			default:
				if s.conn == nil {
					errs <- fmt.Errorf("binance conn nil")
					return
				}
				_, b, err := s.conn.ReadMessage()
				if err != nil {
					errs <- fmt.Errorf("binance read: %w", err)
					return
				}
				var ev wsKlineEvent
				if err := json.Unmarshal(b, &ev); err != nil {
					// ignore non-kline frames
					continue
				}
				if ev.Event != "kline" || !ev.Kline.Final {
					continue
				}
				bar, err := ev.Kline.toBar()
				if err != nil {
					continue
				}
				out := &models.BarEvent{Symbol: ev.Symbol, Granularity: s.interval, Bar: *bar}
				select {
				case bars <- out:
				default:
					// drop on backpressure
				}
			}
		}
	}()

	return bars, errs
}

func (k wsKline) toBar() (*models.Bar, error) {
	open, err := strconv.ParseFloat(k.Open, 64)
	if err != nil {
		return nil, err
	}
	high, err := strconv.ParseFloat(k.High, 64)
	if err != nil {
		return nil, err
	}
	low, err := strconv.ParseFloat(k.Low, 64)
	if err != nil {
		return nil, err
	}
	closep, err := strconv.ParseFloat(k.Close, 64)
	if err != nil {
		return nil, err
	}
	return &models.Bar{
		Timestamp: time.UnixMilli(k.StartTime).UTC(),
		Open:      open,
		High:      high,
		Low:       low,
		Close:     closep,
	}, nil
}

// Reconnect closes and reconnects.
func (s *Stream) Reconnect(ctx context.Context) error {
	_ = s.Close()
	time.Sleep(s.reconnectDelay)
	if err := s.Connect(ctx); err != nil {
		return err
	}
	return s.Subscribe(ctx)
}

// Close closes the WS connection.
func (s *Stream) Close() error {
	s.connected = false
	if s.conn != nil {
		return s.conn.Close()
	}
	return nil
}

// IsConnected indicates status.
func (s *Stream) IsConnected() bool { return s.connected }
