package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"signal_bridge/internal/models"
)

// Candles returns up to limit closed OHLC bars for the derivatives
// instrument, oldest first.
func (c *Client) Candles(ctx context.Context, instrument, bar string, limit int) ([]models.Candle, error) {
	instID := c.swapInstID(instrument)
	q := url.Values{}
	q.Set("instId", instID)
	q.Set("bar", bar)
	q.Set("limit", strconv.Itoa(limit))

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodGet,
		c.restBase+"/api/v5/market/candles?"+q.Encode(),
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("http %d: %s", resp.StatusCode, string(b))
	}

	var payload struct {
		Code string     `json:"code"`
		Msg  string     `json:"msg"`
		Data [][]string `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	if payload.Code != "0" {
		return nil, fmt.Errorf("venue error %s: %s", payload.Code, payload.Msg)
	}

	// rows arrive newest first: [ts, o, h, l, c, vol, ...]
	out := make([]models.Candle, 0, len(payload.Data))
	for i := len(payload.Data) - 1; i >= 0; i-- {
		row := payload.Data[i]
		if len(row) < 6 {
			continue
		}
		ts, _ := strconv.ParseInt(row[0], 10, 64)
		o, _ := strconv.ParseFloat(row[1], 64)
		h, _ := strconv.ParseFloat(row[2], 64)
		l, _ := strconv.ParseFloat(row[3], 64)
		cl, err := strconv.ParseFloat(row[4], 64)
		if err != nil || cl <= 0 {
			return nil, fmt.Errorf("candle %s: bad close %q", instID, row[4])
		}
		v, _ := strconv.ParseFloat(row[5], 64)
		start := time.UnixMilli(ts)
		out = append(out, models.Candle{
			Open: o, High: h, Low: l, Close: cl, Volume: v,
			Start: start,
			End:   start.Add(barDuration(bar)),
		})
	}
	return out, nil
}

func barDuration(bar string) time.Duration {
	switch bar {
	case "1m":
		return time.Minute
	case "5m":
		return 5 * time.Minute
	case "15m":
		return 15 * time.Minute
	case "1h", "1H":
		return time.Hour
	case "4h", "4H":
		return 4 * time.Hour
	case "1d", "1D":
		return 24 * time.Hour
	default:
		return time.Minute
	}
}
