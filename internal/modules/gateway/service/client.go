package service

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"time"

	"github.com/bytedance/sonic"
	"github.com/pkg/errors"

	"signal_bridge/internal/models"
	"signal_bridge/pkg/logger"
)

const maxAttempts = 3

// Client posts normalized order instructions to the trading gateway webhook.
// Retry and backoff live here, not in the pipeline: the core makes a single
// forward decision per block and this client owns transport reliability.
type Client struct {
	http *http.Client

	url       string
	apiKey    string
	apiSecret string

	backoffUnit time.Duration
}

func NewClient(url, apiKey, apiSecret string) *Client {
	return &Client{
		http:        &http.Client{Timeout: 20 * time.Second},
		url:         url,
		apiKey:      apiKey,
		apiSecret:   apiSecret,
		backoffUnit: 1500 * time.Millisecond,
	}
}

// SetURL repoints the webhook. Tests use it.
func (c *Client) SetURL(u string) { c.url = u }

// webhookPayload injects the credentials next to the order instruction; the
// creds are a transport concern and never appear in the core order value.
type webhookPayload struct {
	APIKey    string `json:"api_key"`
	APISecret string `json:"api_secret"`
	models.OrderInstruction
}

type rateLimited struct {
	RetryAfter float64 `json:"retry_after"`
}

// PlaceOrder delivers one instruction, retrying transient failures with a
// linear backoff and honoring 429 retry_after.
func (c *Client) PlaceOrder(ctx context.Context, order models.OrderInstruction) error {
	payload, err := sonic.Marshal(webhookPayload{
		APIKey:           c.apiKey,
		APISecret:        c.apiSecret,
		OrderInstruction: order,
	})
	if err != nil {
		return errors.Wrap(err, "gateway: marshal order")
	}

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(attempt) * c.backoffUnit
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
		}

		retryAfter, err := c.post(ctx, payload)
		if err == nil {
			return nil
		}
		lastErr = err
		if retryAfter > 0 {
			logger.Warn("gateway: rate limited, retrying in %s", retryAfter)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(retryAfter):
			}
		}
	}
	return errors.Wrapf(lastErr, "gateway: giving up after %d attempts", maxAttempts)
}

func (c *Client) post(ctx context.Context, payload []byte) (time.Duration, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return 0, errors.Wrap(err, "build request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, errors.Wrap(err, "do request")
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)

	if resp.StatusCode == http.StatusTooManyRequests {
		var rl rateLimited
		retry := 2 * time.Second
		if err := sonic.Unmarshal(body, &rl); err == nil && rl.RetryAfter > 0 {
			retry = time.Duration(rl.RetryAfter*1000)*time.Millisecond + 250*time.Millisecond
		}
		return retry, errors.New("rate limited")
	}
	if resp.StatusCode/100 != 2 {
		return 0, errors.Errorf("http %d: %s", resp.StatusCode, truncate(string(body), 200))
	}
	return 0, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
