package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
)

// LastSpot returns the last traded price on the spot venue.
func (c *Client) LastSpot(ctx context.Context, instrument string) (float64, error) {
	return c.lastPrice(ctx, c.spotInstID(instrument))
}

// LastDerivatives returns the last traded price on the derivatives venue.
func (c *Client) LastDerivatives(ctx context.Context, instrument string) (float64, error) {
	return c.lastPrice(ctx, c.swapInstID(instrument))
}

func (c *Client) lastPrice(ctx context.Context, instID string) (float64, error) {
	if px, ok := c.cachedPrice(instID); ok {
		return px, nil
	}
	c.ensureStream(instID)

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodGet,
		c.restBase+"/api/v5/market/ticker?instId="+url.QueryEscape(instID),
		nil,
	)
	if err != nil {
		return 0, fmt.Errorf("build request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		b, _ := io.ReadAll(resp.Body)
		return 0, fmt.Errorf("http %d: %s", resp.StatusCode, string(b))
	}

	var payload struct {
		Code string `json:"code"`
		Msg  string `json:"msg"`
		Data []struct {
			Last string `json:"last"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return 0, fmt.Errorf("decode: %w", err)
	}
	if payload.Code != "0" {
		return 0, fmt.Errorf("venue error %s: %s", payload.Code, payload.Msg)
	}
	if len(payload.Data) == 0 {
		return 0, fmt.Errorf("ticker %s not found", instID)
	}

	px, err := strconv.ParseFloat(payload.Data[0].Last, 64)
	if err != nil || px <= 0 {
		return 0, fmt.Errorf("ticker %s: bad last price %q", instID, payload.Data[0].Last)
	}

	c.setPrice(instID, px)
	return px, nil
}
