package datasource

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/cci-trader/internal/models"
)

const (
	binanceSourceName     = "binance"
	defaultBinanceBaseURL = "https://api.binance.com"
	maxKlinesPerRequest   = 1000
)

// BinanceClient fetches klines from the Binance REST API and normalizes them
// to canonical candles
type BinanceClient struct {
	httpClient *RateLimitedHTTPClient
	baseURL    string
	logger     *logrus.Logger
}

// NewBinanceClient creates a new Binance candle source
func NewBinanceClient(httpClient *RateLimitedHTTPClient, baseURL string, logger *logrus.Logger) *BinanceClient {
	if baseURL == "" {
		baseURL = defaultBinanceBaseURL
	}
	if logger == nil {
		logger = logrus.New()
		logger.SetOutput(io.Discard)
	}
	return &BinanceClient{
		httpClient: httpClient,
		baseURL:    baseURL,
		logger:     logger,
	}
}

// Name returns the source name
func (c *BinanceClient) Name() string {
	return binanceSourceName
}

// FetchCandles retrieves klines for the symbol and timeframe, normalized to
// ascending, deduplicated candles. An empty exchange response is reported as
// models.ErrNoData, never silently converted to an empty success.
func (c *BinanceClient) FetchCandles(ctx context.Context, symbol string, timeframe models.Timeframe, count int) ([]models.Candle, error) {
	if count <= 0 || count > maxKlinesPerRequest {
		count = maxKlinesPerRequest
	}
	if !timeframe.Valid() {
		return nil, NewSourceError(binanceSourceName, ErrCodeInvalidData,
			fmt.Sprintf("unsupported timeframe %q", timeframe), nil)
	}

	endpoint := fmt.Sprintf("%s/api/v3/klines?%s", c.baseURL, url.Values{
		"symbol":   {symbol},
		"interval": {string(timeframe)},
		"limit":    {strconv.Itoa(count)},
	}.Encode())

	resp, err := c.httpClient.Get(ctx, endpoint)
	if err != nil {
		return nil, NewSourceError(binanceSourceName, ErrCodeNetworkError, "klines request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		code := ErrCodeServerError
		if resp.StatusCode == http.StatusTooManyRequests {
			code = ErrCodeRateLimitExceeded
		}
		return nil, NewSourceError(binanceSourceName, code,
			fmt.Sprintf("klines request returned %d: %s", resp.StatusCode, string(body)), nil)
	}

	var rows [][]json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&rows); err != nil {
		return nil, NewSourceError(binanceSourceName, ErrCodeInvalidData, "failed to decode klines response", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%s: %w", binanceSourceName, models.ErrNoData)
	}

	candles := make([]models.Candle, 0, len(rows))
	for i, row := range rows {
		candle, err := parseKline(row)
		if err != nil {
			c.logger.WithError(err).WithField("row", i).Warn("Skipping malformed kline")
			continue
		}
		candles = append(candles, candle)
	}
	if len(candles) == 0 {
		return nil, fmt.Errorf("%s: %w", binanceSourceName, models.ErrNoData)
	}

	return normalizeCandles(candles), nil
}

// parseKline decodes one kline row:
// [openTime, open, high, low, close, volume, closeTime, ...].
// Prices arrive as decimal strings; they are parsed exactly before conversion
// so "0.00000001" survives the trip.
func parseKline(row []json.RawMessage) (models.Candle, error) {
	if len(row) < 6 {
		return models.Candle{}, fmt.Errorf("kline row has %d fields, want at least 6", len(row))
	}

	var openTime int64
	if err := json.Unmarshal(row[0], &openTime); err != nil {
		return models.Candle{}, fmt.Errorf("invalid open time: %w", err)
	}

	values := make([]float64, 5)
	for i := 1; i <= 5; i++ {
		var s string
		if err := json.Unmarshal(row[i], &s); err != nil {
			return models.Candle{}, fmt.Errorf("field %d is not a string: %w", i, err)
		}
		d, err := decimal.NewFromString(s)
		if err != nil {
			return models.Candle{}, fmt.Errorf("field %d is not a decimal: %w", i, err)
		}
		values[i-1] = d.InexactFloat64()
	}

	return models.Candle{
		Timestamp: openTime,
		Open:      values[0],
		High:      values[1],
		Low:       values[2],
		Close:     values[3],
		Volume:    values[4],
	}, nil
}

// normalizeCandles sorts ascending by timestamp and drops duplicates
func normalizeCandles(candles []models.Candle) []models.Candle {
	sort.Slice(candles, func(i, j int) bool {
		return candles[i].Timestamp < candles[j].Timestamp
	})
	out := candles[:0]
	var lastTS int64 = -1
	for _, c := range candles {
		if c.Timestamp == lastTS {
			continue
		}
		out = append(out, c)
		lastTS = c.Timestamp
	}
	return out
}
