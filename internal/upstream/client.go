// Package upstream fetches the full message corpus from the upstream
// messages API.
package upstream

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"
	"unicode/utf8"

	"github.com/cenkalti/backoff/v4"
	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"

	"github.com/SHUB2205/Aurora-technical-assessment/internal/model"
)

const messagesPath = "/messages/"

// Config controls the upstream client.
type Config struct {
	BaseURL     string
	Timeout     time.Duration // per HTTP request
	PageLimit   int           // items requested per page
	MaxRetries  int           // retries per page after the first attempt
	BaseBackoff time.Duration
	MaxBackoff  time.Duration
}

func (c *Config) defaults() {
	if c.Timeout <= 0 {
		c.Timeout = 30 * time.Second
	}
	if c.PageLimit <= 0 {
		c.PageLimit = 100
	}
	if c.MaxRetries < 0 {
		c.MaxRetries = 0
	}
	if c.BaseBackoff <= 0 {
		c.BaseBackoff = 250 * time.Millisecond
	}
	if c.MaxBackoff <= 0 {
		c.MaxBackoff = 5 * time.Second
	}
}

// Client pages through GET /messages/?skip=&limit=.
type Client struct {
	http *resty.Client
	cfg  Config
	log  zerolog.Logger
}

type pageResponse struct {
	Total int                `json:"total"`
	Items []model.RawMessage `json:"items"`
}

// New creates a Client for cfg.BaseURL.
func New(cfg Config, log zerolog.Logger) *Client {
	cfg.defaults()
	c := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetHeader("Accept", "application/json").
		SetTimeout(cfg.Timeout)
	return &Client{http: c, cfg: cfg, log: log.With().Str("component", "upstream").Logger()}
}

// FetchAll returns every upstream message in fetch order. Any failure aborts
// the whole fetch with a model.FetchError; a partial corpus is never returned.
func (c *Client) FetchAll(ctx context.Context) ([]model.Message, error) {
	var all []model.Message
	skip := 0
	for {
		page, err := c.fetchPage(ctx, skip, c.cfg.PageLimit)
		if err != nil {
			return nil, model.NewFetchError(fmt.Sprintf("page skip=%d", skip), err)
		}
		if len(page.Items) == 0 {
			break
		}
		for i, raw := range page.Items {
			m, err := model.NewMessage(raw)
			if err != nil {
				return nil, model.NewFetchError(fmt.Sprintf("item %d", skip+i), err)
			}
			all = append(all, m)
		}
		skip += c.cfg.PageLimit
		if skip >= page.Total {
			break
		}
	}
	c.log.Debug().Int("records", len(all)).Msg("upstream fetch complete")
	if all == nil {
		all = []model.Message{}
	}
	return all, nil
}

// HealthPing issues a single one-item request against the upstream.
func (c *Client) HealthPing(ctx context.Context) error {
	_, err := c.get(ctx, 0, 1)
	return err
}

// fetchPage retries transient failures with exponential backoff.
func (c *Client) fetchPage(ctx context.Context, skip, limit int) (*pageResponse, error) {
	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = c.cfg.BaseBackoff
	exp.Multiplier = 2
	exp.MaxInterval = c.cfg.MaxBackoff
	exp.Reset()

	var page *pageResponse
	op := func() error {
		p, err := c.get(ctx, skip, limit)
		if err != nil {
			return err
		}
		page = p
		return nil
	}
	notify := func(err error, wait time.Duration) {
		c.log.Warn().Err(err).Int("skip", skip).Dur("backoff", wait).Msg("retrying upstream page")
	}
	policy := backoff.WithContext(backoff.WithMaxRetries(exp, uint64(c.cfg.MaxRetries)), ctx)
	if err := backoff.RetryNotify(op, policy, notify); err != nil {
		return nil, err
	}
	return page, nil
}

func (c *Client) get(ctx context.Context, skip, limit int) (*pageResponse, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("skip", strconv.Itoa(skip)).
		SetQueryParam("limit", strconv.Itoa(limit)).
		Get(messagesPath)
	if err != nil {
		if ctx.Err() != nil {
			return nil, backoff.Permanent(ctx.Err())
		}
		return nil, fmt.Errorf("upstream request: %w", err)
	}
	status := resp.StatusCode()
	if status != http.StatusOK {
		err := fmt.Errorf("upstream status %d: %s", status, truncate(resp.String(), 200))
		// Client errors will not improve on retry.
		if status >= 400 && status < 500 && status != http.StatusTooManyRequests {
			return nil, backoff.Permanent(err)
		}
		return nil, err
	}

	var out pageResponse
	if err := json.Unmarshal(resp.Body(), &out); err != nil {
		return nil, backoff.Permanent(fmt.Errorf("decode upstream page: %w", err))
	}
	return &out, nil
}

// truncate cuts s to at most n bytes without splitting a rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "..."
}
