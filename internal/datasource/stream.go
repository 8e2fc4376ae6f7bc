package datasource

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/cci-trader/internal/models"
)

const defaultStreamBaseURL = "wss://stream.binance.com:9443/ws"

// CandleHandler is called for every closed candle received on the stream
type CandleHandler func(symbol string, timeframe models.Timeframe, candle models.Candle)

// ReconnectConfig controls stream reconnection behavior
type ReconnectConfig struct {
	MaxRetries        int
	InitialBackoff    time.Duration
	MaxBackoff        time.Duration
	BackoffMultiplier float64
}

// DefaultReconnectConfig returns reconnect defaults
func DefaultReconnectConfig() ReconnectConfig {
	return ReconnectConfig{
		MaxRetries:        10,
		InitialBackoff:    time.Second,
		MaxBackoff:        time.Minute,
		BackoffMultiplier: 2.0,
	}
}

// klineEvent is the exchange's kline stream payload
type klineEvent struct {
	EventType string `json:"e"`
	Symbol    string `json:"s"`
	Kline     struct {
		OpenTime int64  `json:"t"`
		Interval string `json:"i"`
		Open     string `json:"o"`
		High     string `json:"h"`
		Low      string `json:"l"`
		Close    string `json:"c"`
		Volume   string `json:"v"`
		Closed   bool   `json:"x"`
	} `json:"k"`
}

// StreamClient maintains a websocket subscription to live kline updates for
// one symbol/timeframe and forwards closed candles to a handler. Open
// (still-forming) candles are ignored so downstream indicator windows only
// ever see final bars.
type StreamClient struct {
	baseURL   string
	symbol    string
	timeframe models.Timeframe
	handler   CandleHandler
	reconnect ReconnectConfig
	logger    *logrus.Logger

	mu     sync.Mutex
	conn   *websocket.Conn
	closed bool
}

// NewStreamClient creates a live kline stream client
func NewStreamClient(baseURL, symbol string, timeframe models.Timeframe, handler CandleHandler, logger *logrus.Logger) *StreamClient {
	if baseURL == "" {
		baseURL = defaultStreamBaseURL
	}
	if logger == nil {
		logger = logrus.New()
	}
	return &StreamClient{
		baseURL:   baseURL,
		symbol:    symbol,
		timeframe: timeframe,
		handler:   handler,
		reconnect: DefaultReconnectConfig(),
		logger:    logger,
	}
}

// Run connects and consumes the stream until the context is cancelled or the
// reconnect attempts run out.
func (s *StreamClient) Run(ctx context.Context) error {
	backoff := s.reconnect.InitialBackoff
	retries := 0

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := s.consume(ctx)
		if err == nil || ctx.Err() != nil {
			return ctx.Err()
		}

		retries++
		if retries > s.reconnect.MaxRetries {
			return fmt.Errorf("kline stream gave up after %d reconnect attempts: %w", s.reconnect.MaxRetries, err)
		}

		s.logger.WithError(err).WithFields(logrus.Fields{
			"symbol":  s.symbol,
			"attempt": retries,
			"backoff": backoff,
		}).Warn("Kline stream disconnected, reconnecting")

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		backoff = time.Duration(float64(backoff) * s.reconnect.BackoffMultiplier)
		if backoff > s.reconnect.MaxBackoff {
			backoff = s.reconnect.MaxBackoff
		}
	}
}

// Close terminates the current connection
func (s *StreamClient) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	if s.conn != nil {
		return s.conn.Close()
	}
	return nil
}

func (s *StreamClient) consume(ctx context.Context) error {
	streamURL := fmt.Sprintf("%s/%s@kline_%s", s.baseURL, strings.ToLower(s.symbol), s.timeframe)

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, streamURL, nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", streamURL, err)
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		conn.Close()
		return nil
	}
	s.conn = conn
	s.mu.Unlock()

	defer conn.Close()

	// Unblock ReadJSON when the context is cancelled.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	for {
		var event klineEvent
		if err := conn.ReadJSON(&event); err != nil {
			return err
		}
		if event.EventType != "kline" || !event.Kline.Closed {
			continue
		}

		candle, err := candleFromKlineEvent(event)
		if err != nil {
			s.logger.WithError(err).Warn("Skipping malformed kline event")
			continue
		}
		s.handler(event.Symbol, models.Timeframe(event.Kline.Interval), candle)
	}
}

func candleFromKlineEvent(event klineEvent) (models.Candle, error) {
	fields := []string{event.Kline.Open, event.Kline.High, event.Kline.Low, event.Kline.Close, event.Kline.Volume}
	values := make([]float64, len(fields))
	for i, s := range fields {
		d, err := decimal.NewFromString(s)
		if err != nil {
			return models.Candle{}, fmt.Errorf("field %d is not a decimal: %w", i, err)
		}
		values[i] = d.InexactFloat64()
	}
	return models.Candle{
		Timestamp: event.Kline.OpenTime,
		Open:      values[0],
		High:      values[1],
		Low:       values[2],
		Close:     values[3],
		Volume:    values[4],
	}, nil
}
