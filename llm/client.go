// Package llm implements the HTTP client that submits prepared requests to
// a completion provider, with retries and request pacing.
package llm

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/cachelab/promptcache/config"
	"github.com/cachelab/promptcache/providers"
	"github.com/cachelab/promptcache/utils"
)

// Client sends provider requests over HTTP. Transient failures are retried
// up to MaxRetries times; a rate limiter paces successive requests so demo
// loops stay inside provider quotas.
type Client struct {
	Provider   providers.Provider
	client     *http.Client
	limiter    *rate.Limiter
	logger     utils.Logger
	MaxRetries int
	RetryDelay time.Duration
}

// NewClient wires a Client from config: it resolves the provider from the
// registry, applies default options, and sizes the rate limiter from
// RequestsPerMinute.
func NewClient(cfg *config.Config, logger utils.Logger, registry *providers.ProviderRegistry) (*Client, error) {
	provider, err := registry.Get(cfg.Provider, cfg.APIKeys[cfg.Provider], cfg.Model, cfg.ExtraHeaders)
	if err != nil {
		return nil, NewLLMError(ErrorTypeProvider, "failed to resolve provider", err)
	}

	provider.SetDefaultOptions(cfg)
	provider.SetLogger(logger)

	return &Client{
		Provider:   provider,
		client:     &http.Client{Timeout: cfg.Timeout},
		limiter:    rate.NewLimiter(rate.Limit(cfg.RequestsPerMinute/60.0), 1),
		logger:     logger,
		MaxRetries: cfg.MaxRetries,
		RetryDelay: cfg.RetryDelay,
	}, nil
}

// Generate submits the request and returns the parsed response. Failed
// attempts are retried with a fixed delay; context cancellation aborts both
// the in-flight request and any pending wait.
func (c *Client) Generate(ctx context.Context, req *providers.Request) (*providers.Response, error) {
	var lastErr error
	for attempt := 0; attempt <= c.MaxRetries; attempt++ {
		c.logger.Debug("Sending request", "provider", c.Provider.Name(), "attempt", attempt+1)

		if err := c.limiter.Wait(ctx); err != nil {
			return nil, NewLLMError(ErrorTypeRateLimit, "rate limiter wait aborted", err)
		}

		response, err := c.attemptGenerate(ctx, req)
		if err == nil {
			return response, nil
		}
		lastErr = err

		c.logger.Warn("Request attempt failed", "error", err, "attempt", attempt+1)

		if attempt < c.MaxRetries {
			c.logger.Debug("Retrying", "delay", c.RetryDelay)
			if err := c.wait(ctx); err != nil {
				return nil, err
			}
		}
	}

	return nil, fmt.Errorf("failed to generate after %d attempts: %w", c.MaxRetries+1, lastErr)
}

func (c *Client) wait(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(c.RetryDelay):
		return nil
	}
}

func (c *Client) attemptGenerate(ctx context.Context, req *providers.Request) (*providers.Response, error) {
	reqBody, err := c.Provider.PrepareRequest(req, nil)
	if err != nil {
		return nil, NewLLMError(ErrorTypeRequest, "failed to prepare request", err)
	}
	c.logger.Debug("Request body", "provider", c.Provider.Name(), "body", string(reqBody))

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Provider.Endpoint(), bytes.NewReader(reqBody))
	if err != nil {
		return nil, NewLLMError(ErrorTypeRequest, "failed to create request", err)
	}

	for k, v := range c.Provider.Headers() {
		httpReq.Header.Set(k, v)
	}

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, NewLLMError(ErrorTypeRequest, "failed to send request", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, NewLLMError(ErrorTypeResponse, "failed to read response body", err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, NewLLMError(ErrorTypeAuthentication, fmt.Sprintf("API error: status code %d", resp.StatusCode), nil)
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, NewLLMError(ErrorTypeRateLimit, "API error: rate limited", nil)
	case resp.StatusCode != http.StatusOK:
		c.logger.Error("API error", "provider", c.Provider.Name(), "status", resp.StatusCode, "body", string(body))
		return nil, NewLLMError(ErrorTypeAPI, fmt.Sprintf("API error: status code %d", resp.StatusCode), nil)
	}

	result, err := c.Provider.ParseResponse(body)
	if err != nil {
		return nil, NewLLMError(ErrorTypeResponse, "failed to parse response", err)
	}

	c.logger.Debug("Response received",
		"input_tokens", result.Usage.InputTokens,
		"cache_creation_input_tokens", result.Usage.CacheCreationInputTokens,
		"cache_read_input_tokens", result.Usage.CacheReadInputTokens,
		"output_tokens", result.Usage.OutputTokens)
	return result, nil
}
