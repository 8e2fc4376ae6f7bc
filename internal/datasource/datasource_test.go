package datasource

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/cci-trader/internal/models"
)

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func testHTTPClient() *RateLimitedHTTPClient {
	cfg := DefaultHTTPClientConfig()
	cfg.MaxRetries = 0
	cfg.RateLimit = 1000
	return NewRateLimitedHTTPClient(cfg, quietLogger())
}

func klineRow(openTime int64, o, h, l, c, v string) string {
	return fmt.Sprintf(`[%d,"%s","%s","%s","%s","%s",%d,"0",0,"0","0","0"]`,
		openTime, o, h, l, c, v, openTime+899999)
}

func TestBinanceClientFetchCandles(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v3/klines", r.URL.Path)
		assert.Equal(t, "BTCUSDT", r.URL.Query().Get("symbol"))
		assert.Equal(t, "15m", r.URL.Query().Get("interval"))

		fmt.Fprintf(w, "[%s,%s,%s]",
			klineRow(1700000000000, "100.5", "101.2", "99.8", "100.9", "1234.5"),
			klineRow(1700000900000, "100.9", "102.0", "100.1", "101.7", "2345.6"),
			klineRow(1700001800000, "101.7", "101.9", "100.4", "100.6", "987.3"),
		)
	}))
	defer server.Close()

	client := NewBinanceClient(testHTTPClient(), server.URL, quietLogger())
	candles, err := client.FetchCandles(context.Background(), "BTCUSDT", models.Timeframe15m, 3)
	require.NoError(t, err)
	require.Len(t, candles, 3)

	assert.Equal(t, int64(1700000000000), candles[0].Timestamp)
	assert.InDelta(t, 100.5, candles[0].Open, 1e-9)
	assert.InDelta(t, 101.2, candles[0].High, 1e-9)
	assert.InDelta(t, 99.8, candles[0].Low, 1e-9)
	assert.InDelta(t, 100.9, candles[0].Close, 1e-9)
	assert.InDelta(t, 1234.5, candles[0].Volume, 1e-9)
}

func TestBinanceClientEmptyResponseIsError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, "[]")
	}))
	defer server.Close()

	client := NewBinanceClient(testHTTPClient(), server.URL, quietLogger())
	_, err := client.FetchCandles(context.Background(), "BTCUSDT", models.Timeframe1h, 10)
	assert.ErrorIs(t, err, models.ErrNoData)
}

func TestBinanceClientNormalizesOrderAndDuplicates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		// Out of order and with a duplicate timestamp.
		fmt.Fprintf(w, "[%s,%s,%s]",
			klineRow(1700000900000, "2", "2", "2", "2", "1"),
			klineRow(1700000000000, "1", "1", "1", "1", "1"),
			klineRow(1700000900000, "3", "3", "3", "3", "1"),
		)
	}))
	defer server.Close()

	client := NewBinanceClient(testHTTPClient(), server.URL, quietLogger())
	candles, err := client.FetchCandles(context.Background(), "ETHUSDT", models.Timeframe15m, 3)
	require.NoError(t, err)
	require.Len(t, candles, 2)
	assert.Equal(t, int64(1700000000000), candles[0].Timestamp)
	assert.Equal(t, int64(1700000900000), candles[1].Timestamp)
	require.NoError(t, models.ValidateCandles(candles))
}

func TestBinanceClientRejectsInvalidTimeframe(t *testing.T) {
	client := NewBinanceClient(testHTTPClient(), "http://localhost:1", quietLogger())
	_, err := client.FetchCandles(context.Background(), "BTCUSDT", models.Timeframe("7m"), 10)
	require.Error(t, err)

	var srcErr *SourceError
	require.ErrorAs(t, err, &srcErr)
	assert.Equal(t, ErrCodeInvalidData, srcErr.Code)
}

func TestBinanceClientServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "teapot refuses", http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewBinanceClient(testHTTPClient(), server.URL, quietLogger())
	_, err := client.FetchCandles(context.Background(), "BTCUSDT", models.Timeframe1h, 10)
	require.Error(t, err)

	var srcErr *SourceError
	require.ErrorAs(t, err, &srcErr)
	assert.Equal(t, ErrCodeServerError, srcErr.Code)
}

func TestSyntheticSourceDeterminism(t *testing.T) {
	source := NewSyntheticSource(42, 100)

	first, err := source.FetchCandles(context.Background(), "BTCUSDT", models.Timeframe1h, 50)
	require.NoError(t, err)
	second, err := source.FetchCandles(context.Background(), "BTCUSDT", models.Timeframe1h, 50)
	require.NoError(t, err)

	require.Len(t, first, 50)
	for i := range first {
		assert.Equal(t, first[i].Open, second[i].Open)
		assert.Equal(t, first[i].Close, second[i].Close)
	}
	require.NoError(t, models.ValidateCandles(first))
}

func TestSyntheticSourceSymbolsDiverge(t *testing.T) {
	source := NewSyntheticSource(42, 100)

	btc, err := source.FetchCandles(context.Background(), "BTCUSDT", models.Timeframe1h, 20)
	require.NoError(t, err)
	eth, err := source.FetchCandles(context.Background(), "ETHUSDT", models.Timeframe1h, 20)
	require.NoError(t, err)

	assert.NotEqual(t, btc[len(btc)-1].Close, eth[len(eth)-1].Close)
}

type failingSource struct{}

func (failingSource) Name() string { return "failing" }

func (failingSource) FetchCandles(context.Context, string, models.Timeframe, int) ([]models.Candle, error) {
	return nil, NewSourceError("failing", ErrCodeNetworkError, "unreachable", nil)
}

func TestFallbackSourceSubstitutes(t *testing.T) {
	fallback := NewFallbackSource(failingSource{}, NewSyntheticSource(7, 100), quietLogger())

	candles, err := fallback.FetchCandles(context.Background(), "BTCUSDT", models.Timeframe1h, 30)
	require.NoError(t, err)
	assert.Len(t, candles, 30)
	assert.Equal(t, "failing+synthetic", fallback.Name())
}

func TestFallbackSourceBothFailing(t *testing.T) {
	fallback := NewFallbackSource(failingSource{}, failingSource{}, quietLogger())

	_, err := fallback.FetchCandles(context.Background(), "BTCUSDT", models.Timeframe1h, 30)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fallback failed too")
}

func TestFactoryCreate(t *testing.T) {
	factory := NewFactory(testHTTPClient(), "", quietLogger())

	binance, err := factory.Create(BinanceSourceType)
	require.NoError(t, err)
	assert.Equal(t, "binance", binance.Name())

	synthetic, err := factory.Create(SyntheticSourceType)
	require.NoError(t, err)
	assert.Equal(t, "synthetic", synthetic.Name())

	_, err = factory.Create(SourceType("csv"))
	assert.Error(t, err)
}

func TestCircuitBreakerOpens(t *testing.T) {
	cfg := DefaultHTTPClientConfig()
	cfg.MaxRetries = 0
	cfg.RateLimit = 1000
	cfg.CircuitBreakerMax = 2
	cfg.Timeout = 200 * time.Millisecond
	client := NewRateLimitedHTTPClient(cfg, quietLogger())

	// Nothing listens on this port, so every request errors.
	for i := 0; i < 2; i++ {
		_, err := client.Get(context.Background(), "http://127.0.0.1:1/klines")
		require.Error(t, err)
	}

	_, err := client.Get(context.Background(), "http://127.0.0.1:1/klines")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "circuit breaker open")
}

func TestCircuitBreakerConcurrentRequests(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "bad gateway", http.StatusBadGateway)
	}))
	defer server.Close()

	cfg := DefaultHTTPClientConfig()
	cfg.MaxRetries = 0
	cfg.RateLimit = 1000
	cfg.CircuitBreakerMax = 3
	client := NewRateLimitedHTTPClient(cfg, quietLogger())

	// One client is shared between the scheduled scan and the per-symbol
	// stream handlers, so Do must be safe for concurrent callers.
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 4; j++ {
				_, err := client.Get(context.Background(), server.URL)
				assert.Error(t, err)
			}
		}()
	}
	wg.Wait()

	_, err := client.Get(context.Background(), server.URL)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "circuit breaker open")
}
