package marketdata

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/camuig/signal-desk/internal/logger"
)

type FinnhubOptions struct {
	BaseURL       string
	APIKey        string
	Timeout       time.Duration
	MaxRetries    int
	RetryInterval time.Duration
}

// FinnhubClient proxies candle requests to Finnhub, keeping the key server side.
type FinnhubClient struct {
	httpClient *http.Client
	opts       FinnhubOptions
	logger     *logger.Logger
}

func NewFinnhubClient(opts FinnhubOptions, log *logger.Logger) *FinnhubClient {
	if opts.Timeout <= 0 {
		opts.Timeout = 15 * time.Second
	}
	if opts.RetryInterval <= 0 {
		opts.RetryInterval = 300 * time.Millisecond
	}
	opts.BaseURL = strings.TrimRight(opts.BaseURL, "/")
	return &FinnhubClient{
		httpClient: &http.Client{Timeout: opts.Timeout},
		opts:       opts,
		logger:     log,
	}
}

// Candles fetches /stock/candle. Transport errors and 5xx replies are retried
// with exponential backoff; a final non-2xx reply comes back as *StatusError.
func (c *FinnhubClient) Candles(ctx context.Context, req CandleRequest) ([]byte, error) {
	if strings.TrimSpace(req.Symbol) == "" {
		return nil, ErrMissingSymbol
	}
	if c.opts.APIKey == "" {
		return nil, ErrMissingAPIKey
	}
	req = req.Resolve(time.Now())

	q := url.Values{}
	q.Set("symbol", req.Symbol)
	q.Set("resolution", req.Resolution)
	q.Set("from", strconv.FormatInt(req.From, 10))
	q.Set("to", strconv.FormatInt(req.To, 10))
	endpoint := c.opts.BaseURL + "/stock/candle?" + q.Encode()

	var body []byte
	attempt := 0
	op := func() error {
		attempt++
		b, err := c.fetch(ctx, endpoint)
		if err != nil {
			if se, ok := err.(*StatusError); ok && se.Code < 500 {
				return backoff.Permanent(se)
			}
			return err
		}
		body = b
		return nil
	}

	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = c.opts.RetryInterval
	var policy backoff.BackOff = eb
	if c.opts.MaxRetries >= 0 {
		policy = backoff.WithMaxRetries(eb, uint64(c.opts.MaxRetries))
	}

	notify := func(err error, wait time.Duration) {
		c.logger.Warn("finnhub request failed, retrying", "symbol", req.Symbol, "attempt", attempt, "wait", wait, "error", err)
	}
	if err := backoff.RetryNotify(op, backoff.WithContext(policy, ctx), notify); err != nil {
		return nil, err
	}
	return body, nil
}

func (c *FinnhubClient) fetch(ctx context.Context, endpoint string) ([]byte, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("X-Finnhub-Token", c.opts.APIKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("fetch candles: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{Code: resp.StatusCode, Body: body}
	}
	return body, nil
}
