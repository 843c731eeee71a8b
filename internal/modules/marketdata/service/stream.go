package service

import (
	"context"
	"strconv"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gorilla/websocket"

	"signal_bridge/pkg/logger"
)

const (
	maxStreamRetries = 8
	pingInterval     = 15 * time.Second
)

// ensureStream registers instID for streaming and spawns its reader once.
// When streaming is disabled or the client has no lifecycle context yet,
// callers fall through to REST.
func (c *Client) ensureStream(instID string) {
	if !c.stream {
		return
	}
	c.mu.Lock()
	if c.ctx == nil {
		c.mu.Unlock()
		return
	}
	if _, ok := c.watched[instID]; ok {
		c.mu.Unlock()
		return
	}
	c.watched[instID] = struct{}{}
	ctx := c.ctx
	c.mu.Unlock()

	go c.streamTicker(ctx, instID)
}

func (c *Client) streamTicker(ctx context.Context, instID string) {
	retry := 0
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		conn, _, err := c.wsDialer.DialContext(ctx, c.wsURL, nil)
		if err != nil {
			retry++
			if retry > maxStreamRetries {
				logger.Warn("marketdata: stream %s gave up after %d dial attempts: %v", instID, retry-1, err)
				c.forget(instID)
				return
			}
			time.Sleep(time.Duration(300*retry) * time.Millisecond)
			continue
		}
		retry = 0

		sub := map[string]any{
			"op": "subscribe",
			"args": []map[string]string{
				{"channel": "tickers", "instId": instID},
			},
		}
		if err := conn.WriteJSON(sub); err != nil {
			_ = conn.Close()
			continue
		}

		stopPing := make(chan struct{})
		go func() {
			t := time.NewTicker(pingInterval)
			defer t.Stop()
			for {
				select {
				case <-stopPing:
					return
				case <-ctx.Done():
					_ = conn.Close()
					return
				case <-t.C:
					_ = conn.WriteMessage(websocket.TextMessage, []byte("ping"))
				}
			}
		}()

		for {
			_, msg, err := conn.ReadMessage()
			if err != nil {
				close(stopPing)
				_ = conn.Close()
				break
			}
			if string(msg) == "pong" {
				continue
			}
			var frame struct {
				Data []struct {
					InstID string `json:"instId"`
					Last   string `json:"last"`
				} `json:"data"`
			}
			if err := sonic.Unmarshal(msg, &frame); err != nil {
				continue
			}
			for _, d := range frame.Data {
				if px, err := strconv.ParseFloat(d.Last, 64); err == nil && px > 0 {
					c.setPrice(d.InstID, px)
				}
			}
		}

		select {
		case <-ctx.Done():
			return
		default:
			time.Sleep(time.Second)
		}
	}
}

func (c *Client) forget(instID string) {
	c.mu.Lock()
	delete(c.watched, instID)
	c.mu.Unlock()
}
