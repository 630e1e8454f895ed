// Package inference is a client for a hosted token-classification endpoint
package inference

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"helix/internal/core/extract"
	perr "helix/internal/platform/errors"
	"helix/internal/platform/logger"
)

const (
	defaultTimeout   = 30 * time.Second
	defaultUA        = "helix-worker"
	defaultMaxRetry  = 4
	defaultRetryBase = 500 * time.Millisecond
	maxBackoff       = 30 * time.Second
)

// Options configures the Client
type Options struct {
	URL       string
	Token     string
	UserAgent string
	Timeout   time.Duration

	// Retry config for transient and rate limited responses
	MaxRetries int
	RetryBase  time.Duration
}

// Client calls the endpoint with retries and implements extract.Classifier
type Client struct {
	http  *http.Client
	opts  Options
	log   logger.Logger
	now   func() time.Time
	sleep func(context.Context, time.Duration) error
}

type request struct {
	Inputs     string            `json:"inputs"`
	Parameters map[string]string `json:"parameters"`
}

type entity struct {
	EntityGroup string  `json:"entity_group"`
	Entity      string  `json:"entity"`
	Score       float64 `json:"score"`
	Word        string  `json:"word"`
	Start       int     `json:"start"`
	End         int     `json:"end"`
}

type loading struct {
	Error         string  `json:"error"`
	EstimatedTime float64 `json:"estimated_time"`
}

// New creates a Client with sane defaults
func New(o Options) *Client {
	if o.UserAgent == "" {
		o.UserAgent = defaultUA
	}
	if o.Timeout <= 0 {
		o.Timeout = defaultTimeout
	}
	if o.MaxRetries < 0 {
		o.MaxRetries = 0
	} else if o.MaxRetries == 0 {
		o.MaxRetries = defaultMaxRetry
	}
	if o.RetryBase <= 0 {
		o.RetryBase = defaultRetryBase
	}
	return &Client{
		http:  &http.Client{Timeout: o.Timeout},
		opts:  o,
		log:   *logger.Named("inference"),
		now:   time.Now,
		sleep: sleepCtx,
	}
}

var _ extract.Classifier = (*Client)(nil)

// Classify posts text and returns the endpoint's spans in order
func (c *Client) Classify(ctx context.Context, text string) ([]extract.RawSpan, error) {
	body, err := json.Marshal(request{
		Inputs:     text,
		Parameters: map[string]string{"aggregation_strategy": "simple"},
	})
	if err != nil {
		return nil, perr.Wrap(err, perr.ErrorCodeJSON, "inference encode request")
	}

	attempts := 0
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.opts.URL, bytes.NewReader(body))
		if err != nil {
			return nil, perr.Wrap(err, perr.ErrorCodeInvalidArgument, "inference new request")
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "application/json")
		req.Header.Set("User-Agent", c.opts.UserAgent)
		if c.opts.Token != "" {
			req.Header.Set("Authorization", "Bearer "+c.opts.Token)
		}

		start := c.now()
		resp, err := c.http.Do(req)
		lat := c.now().Sub(start)

		if err != nil {
			if ctx.Err() != nil || !c.shouldRetry(attempts) {
				return nil, perr.Wrap(err, perr.ErrorCodeUnavailable, "inference request failed")
			}
			if err := c.wait(ctx, c.backoff(attempts), attempts, "transport error"); err != nil {
				return nil, err
			}
			attempts++
			continue
		}

		c.log.Debug().
			Int("status", resp.StatusCode).
			Int("attempt", attempts).
			Dur("latency", lat).
			Int("text_len", len(text)).
			Msg("inference response")

		switch resp.StatusCode {
		case http.StatusOK:
			spans, err := decodeSpans(resp.Body)
			_ = resp.Body.Close()
			return spans, err

		case http.StatusTooManyRequests:
			wait := retryAfter(resp.Header)
			_ = drainAndClose(resp.Body)
			if !c.shouldRetry(attempts) {
				return nil, perr.New(perr.ErrorCodeTooManyRequests, "inference rate limited")
			}
			if wait <= 0 {
				wait = c.backoff(attempts)
			}
			if err := c.wait(ctx, wait, attempts, "rate limited"); err != nil {
				return nil, err
			}
			attempts++
			continue

		case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			wait := modelLoading(resp)
			_ = drainAndClose(resp.Body)
			if !c.shouldRetry(attempts) {
				return nil, perr.Newf(perr.ErrorCodeUnavailable, "inference unavailable status %d", resp.StatusCode)
			}
			if wait <= 0 {
				wait = c.backoff(attempts)
			}
			if err := c.wait(ctx, wait, attempts, "transient server error"); err != nil {
				return nil, err
			}
			attempts++
			continue

		default:
			tail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			_ = resp.Body.Close()
			return nil, perr.Newf(perr.ErrorCodeUnknown, "inference unexpected status %d body %s",
				resp.StatusCode, strings.TrimSpace(string(tail)))
		}
	}
}

// decodeSpans accepts a flat array or a single-element batch array
func decodeSpans(r io.Reader) ([]extract.RawSpan, error) {
	raw, err := io.ReadAll(io.LimitReader(r, 8<<20))
	if err != nil {
		return nil, perr.Wrap(err, perr.ErrorCodeUnavailable, "inference read body")
	}
	var flat []entity
	if err := json.Unmarshal(raw, &flat); err != nil {
		var batch [][]entity
		if berr := json.Unmarshal(raw, &batch); berr != nil {
			return nil, perr.Wrap(err, perr.ErrorCodeJSON, "inference decode response")
		}
		if len(batch) > 0 {
			flat = batch[0]
		}
	}
	out := make([]extract.RawSpan, 0, len(flat))
	for _, e := range flat {
		label := e.EntityGroup
		if label == "" {
			label = e.Entity
		}
		out = append(out, extract.RawSpan{
			Word:  e.Word,
			Label: label,
			Score: e.Score,
			Start: e.Start,
			End:   e.End,
		})
	}
	return out, nil
}

func (c *Client) wait(ctx context.Context, d time.Duration, attempt int, why string) error {
	c.log.Warn().Dur("retry_in", d).Int("attempt", attempt).Msg("inference " + why + " retrying")
	return c.sleep(ctx, d)
}

func (c *Client) backoff(attempt int) time.Duration {
	d := c.opts.RetryBase
	for i := 0; i < attempt && d < maxBackoff; i++ {
		d *= 2
	}
	return min(d, maxBackoff)
}

func (c *Client) shouldRetry(attempt int) bool { return attempt < c.opts.MaxRetries }

func retryAfter(h http.Header) time.Duration {
	s := strings.TrimSpace(h.Get("Retry-After"))
	if s == "" {
		return 0
	}
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return time.Duration(n) * time.Second
	}
	return 0
}

// modelLoading reads the hosted API's cold-start hint from a 503 body
func modelLoading(resp *http.Response) time.Duration {
	if resp.StatusCode != http.StatusServiceUnavailable {
		return 0
	}
	var l loading
	if err := json.NewDecoder(io.LimitReader(resp.Body, 4096)).Decode(&l); err != nil || l.EstimatedTime <= 0 {
		return 0
	}
	return min(time.Duration(l.EstimatedTime*float64(time.Second)), maxBackoff)
}

func drainAndClose(rc io.ReadCloser) error {
	_, _ = io.Copy(io.Discard, io.LimitReader(rc, 512))
	return rc.Close()
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
