package service

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// cacheTTL bounds how stale a streamed price may be before the REST path is
// used instead.
const cacheTTL = 5 * time.Second

type pricePoint struct {
	px float64
	at time.Time
}

// Client is the price-reference and price-history collaborator: REST last
// price for the spot and derivatives venues, candle history, and an optional
// websocket ticker stream that keeps a last-price cache warm for the touch
// dispatcher's polling.
type Client struct {
	http     *http.Client
	wsDialer *websocket.Dialer

	restBase string
	wsURL    string
	quote    string
	stream   bool

	mu      sync.RWMutex
	prices  map[string]pricePoint
	watched map[string]struct{}

	ctx context.Context
}

func NewClient(restBase, wsURL, quote string, stream bool) *Client {
	return &Client{
		http:     &http.Client{Timeout: 10 * time.Second},
		wsDialer: &websocket.Dialer{},
		restBase: strings.TrimRight(restBase, "/"),
		wsURL:    wsURL,
		quote:    strings.ToUpper(quote),
		stream:   stream,
		prices:   make(map[string]pricePoint),
		watched:  make(map[string]struct{}),
	}
}

// Start hands the client the lifecycle context its stream goroutines run
// under. Without it streaming stays off and every query goes through REST.
func (c *Client) Start(ctx context.Context) {
	c.mu.Lock()
	c.ctx = ctx
	c.mu.Unlock()
}

func (c *Client) setPrice(instID string, px float64) {
	c.mu.Lock()
	c.prices[instID] = pricePoint{px: px, at: time.Now()}
	c.mu.Unlock()
}

func (c *Client) cachedPrice(instID string) (float64, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	p, ok := c.prices[instID]
	if !ok || time.Since(p.at) > cacheTTL {
		return 0, false
	}
	return p.px, true
}

// spotInstID / swapInstID build venue instrument ids from the normalized
// base asset.
func (c *Client) spotInstID(instrument string) string {
	return strings.ToUpper(instrument) + "-" + c.quote
}

func (c *Client) swapInstID(instrument string) string {
	return c.spotInstID(instrument) + "-SWAP"
}
