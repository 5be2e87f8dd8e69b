// Package issues provides a client for the external issue tracker counter.
package issues

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"

	"healthwatch/internal/config"
)

// CountResponse is the payload returned by the issue tracker endpoint.
type CountResponse struct {
	Count int    `json:"count"`
	Err   string `json:"error,omitempty"`
}

// Client fetches the number of open issues from the issue tracker.
type Client struct {
	endpoint   string
	timeout    time.Duration
	httpClient *resty.Client
	logger     zerolog.Logger
}

// NewClient creates a new issue tracker client.
func NewClient(cfg *config.IssueTrackerConfig, retryCfg *config.RetryConfig, logger zerolog.Logger) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 5 * time.Second
	}

	retry := config.RetryConfig{MaxRetries: 1, BaseDelay: 200 * time.Millisecond}
	if retryCfg != nil {
		retry = *retryCfg
	}

	httpClient := resty.New().
		SetTimeout(timeout).
		SetHeader("Accept", "application/json").
		SetRetryCount(retry.MaxRetries).
		SetRetryWaitTime(retry.BaseDelay)
	if cfg.Token != "" {
		httpClient.SetAuthToken(cfg.Token)
	}

	return &Client{
		endpoint:   cfg.Endpoint,
		timeout:    timeout,
		httpClient: httpClient,
		logger:     logger.With().Str("component", "issues-client").Logger(),
	}
}

// OpenIssues returns the open-issue count reported by the tracker.
func (c *Client) OpenIssues(ctx context.Context) (int, error) {
	var result CountResponse

	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetResult(&result).
		Get(c.endpoint)
	if err != nil {
		c.logger.Warn().Err(err).Msg("failed to fetch open issue count")
		return 0, fmt.Errorf("failed to fetch open issues: %w", err)
	}

	if resp.StatusCode() != http.StatusOK {
		c.logger.Warn().
			Int("status_code", resp.StatusCode()).
			Str("body", string(resp.Body())).
			Msg("issue tracker returned non-200 status")
		return 0, fmt.Errorf("issue tracker returned status %d", resp.StatusCode())
	}

	if result.Err != "" {
		return 0, fmt.Errorf("issue tracker error: %s", result.Err)
	}

	return result.Count, nil
}
