// Package ensembl fetches gene structure and sequence from the Ensembl REST
// API and builds annotated sequences from them.
package ensembl

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/KowalskiBio/Primerool/config"
)

// errNotFound is a 400 or 404 from Ensembl, its answer to unknown ids
var errNotFound = errors.New("not found")

// Client is a rate limited Ensembl REST client.
type Client struct {
	base    string
	species string
	retries int
	http    *http.Client
	limiter *rate.Limiter
	log     zerolog.Logger
}

// New creates a Client from the Ensembl settings.
func New(conf *config.Config, log zerolog.Logger) *Client {
	return &Client{
		base:    conf.Ensembl.URL,
		species: conf.Ensembl.Species,
		retries: conf.Ensembl.Retries,
		http:    &http.Client{Timeout: conf.Ensembl.Timeout},
		limiter: rate.NewLimiter(rate.Limit(conf.Ensembl.RateLimit), 1),
		log:     log.With().Str("component", "ensembl").Logger(),
	}
}

// get decodes the JSON response of an endpoint into v. Rate limited
// responses are retried after their Retry-After.
func (c *Client) get(ctx context.Context, endpoint string, params url.Values, v interface{}) error {
	u := c.base + endpoint
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	for attempt := 0; ; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "application/json")

		resp, err := c.http.Do(req)
		if err != nil {
			return err
		}
		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", endpoint, err)
		}

		switch {
		case resp.StatusCode == http.StatusTooManyRequests && attempt < c.retries:
			wait := retryAfter(resp.Header.Get("Retry-After"))
			c.log.Warn().Str("endpoint", endpoint).Dur("wait", wait).Msg("rate limited")
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(wait):
			}
			continue
		case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusBadRequest:
			return fmt.Errorf("%s: %w", endpoint, errNotFound)
		case resp.StatusCode != http.StatusOK:
			return fmt.Errorf("%s returned %s", endpoint, resp.Status)
		}

		if err := json.Unmarshal(body, v); err != nil {
			return fmt.Errorf("failed to decode %s: %w", endpoint, err)
		}
		return nil
	}
}

// retryAfter reads a Retry-After header in seconds, defaulting to 1s
func retryAfter(header string) time.Duration {
	secs, err := strconv.ParseFloat(header, 64)
	if err != nil || secs < 0 {
		return time.Second
	}
	return time.Duration(secs * float64(time.Second))
}
