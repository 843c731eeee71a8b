package service

import (
	"context"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/pkg/errors"

	"signal_bridge/internal/models"
)

const defaultBaseURL = "https://discord.com/api/v10"

// Client reads the newest message of one channel. That is the whole inbound
// surface: the bridge never pages history, it only compares the newest id
// against the watermark.
type Client struct {
	http      *http.Client
	baseURL   string
	authz     string
	channelID string
}

func NewClient(token, channelID string) *Client {
	// the API expects 'Bot <token>'; don't double the prefix when the
	// operator already included one
	authz := token
	if !strings.HasPrefix(token, "Bot ") && !strings.HasPrefix(token, "Bearer ") {
		authz = "Bot " + token
	}
	return &Client{
		http:      &http.Client{Timeout: 15 * time.Second},
		baseURL:   defaultBaseURL,
		authz:     authz,
		channelID: channelID,
	}
}

// SetBaseURL points the client at a different API host. Tests use it.
func (c *Client) SetBaseURL(u string) { c.baseURL = strings.TrimRight(u, "/") }

func (c *Client) ChannelID() string { return c.channelID }

type apiMessage struct {
	ID      string `json:"id"`
	Content string `json:"content"`
	Embeds  []struct {
		Description string `json:"description"`
		Footer      struct {
			Text string `json:"text"`
		} `json:"footer"`
	} `json:"embeds"`
}

type rateLimited struct {
	RetryAfter float64 `json:"retry_after"`
}

// Latest fetches the newest message in the channel, or nil when the channel
// is empty. A single 429 is retried after the advertised delay.
func (c *Client) Latest(ctx context.Context) (*models.ChannelMessage, error) {
	msg, retry, err := c.fetch(ctx)
	if err != nil {
		return nil, err
	}
	if retry > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(retry):
		}
		msg, retry, err = c.fetch(ctx)
		if err != nil {
			return nil, err
		}
		if retry > 0 {
			return nil, errors.New("discord: still rate limited after retry")
		}
	}
	return msg, nil
}

func (c *Client) fetch(ctx context.Context) (*models.ChannelMessage, time.Duration, error) {
	url := c.baseURL + "/channels/" + c.channelID + "/messages?limit=1"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, 0, errors.Wrap(err, "discord: build request")
	}
	req.Header.Set("Authorization", c.authz)
	req.Header.Set("User-Agent", "SignalBridge/1.0")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, 0, errors.Wrap(err, "discord: do request")
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)

	if resp.StatusCode == http.StatusTooManyRequests {
		var rl rateLimited
		retry := 5 * time.Second
		if err := sonic.Unmarshal(body, &rl); err == nil && rl.RetryAfter > 0 {
			retry = time.Duration(rl.RetryAfter*1000)*time.Millisecond + 500*time.Millisecond
		}
		return nil, retry, nil
	}
	if resp.StatusCode/100 != 2 {
		return nil, 0, errors.Errorf("discord: http %d: %s", resp.StatusCode, string(body))
	}

	var raw []apiMessage
	if err := sonic.Unmarshal(body, &raw); err != nil {
		return nil, 0, errors.Wrap(err, "discord: decode messages")
	}
	if len(raw) == 0 {
		return nil, 0, nil
	}
	return toModel(raw[0])
}

func toModel(m apiMessage) (*models.ChannelMessage, time.Duration, error) {
	id, err := strconv.ParseInt(m.ID, 10, 64)
	if err != nil {
		return nil, 0, errors.Wrapf(err, "discord: message id %q", m.ID)
	}
	out := &models.ChannelMessage{
		ID:      id,
		Content: m.Content,
	}
	for _, e := range m.Embeds {
		out.Embeds = append(out.Embeds, models.Embed{
			Description: e.Description,
			Footer:      e.Footer.Text,
		})
	}
	return out, 0, nil
}
