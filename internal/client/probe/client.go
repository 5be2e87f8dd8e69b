// Package probe provides timeout-bounded health probes for dependent services.
package probe

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"

	"healthwatch/internal/config"
	"healthwatch/internal/model"
)

// Client probes http and tcp dependencies. Each call is bounded by the
// service timeout, which also caps any retries.
type Client struct {
	retry      config.RetryConfig
	httpClient *resty.Client
	dialer     *net.Dialer
	logger     zerolog.Logger
}

// NewClient creates a new probe client.
func NewClient(retryCfg *config.RetryConfig, logger zerolog.Logger) *Client {
	retry := config.RetryConfig{
		MaxRetries: 0,
		BaseDelay:  200 * time.Millisecond,
	}
	if retryCfg != nil {
		retry = *retryCfg
	}

	httpClient := resty.New().
		SetHeader("User-Agent", "healthwatch-probe").
		SetRetryCount(retry.MaxRetries).
		SetRetryWaitTime(retry.BaseDelay).
		SetRetryMaxWaitTime(retry.BaseDelay * 8).
		AddRetryCondition(retryCondition)

	return &Client{
		retry:      retry,
		httpClient: httpClient,
		dialer:     &net.Dialer{},
		logger:     logger.With().Str("component", "probe-client").Logger(),
	}
}

// retryCondition retries on transport errors and 5xx responses only.
func retryCondition(resp *resty.Response, err error) bool {
	if err != nil {
		return true
	}
	if resp != nil && resp.StatusCode() >= 500 {
		return true
	}
	return false
}

// Probe runs the probe matching the service kind under the service timeout.
// Mock services are never probed; callers handle them before calling Probe.
func (c *Client) Probe(ctx context.Context, svc model.ServiceDefinition) model.ProbeResult {
	if svc.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, svc.Timeout)
		defer cancel()
	}

	switch svc.Kind.Normalize() {
	case model.ServiceKindHTTP:
		return c.probeHTTP(ctx, svc)
	case model.ServiceKindTCP:
		return c.probeTCP(ctx, svc)
	default:
		return model.ProbeFailure(fmt.Sprintf("unsupported probe kind %q", svc.Kind))
	}
}

// probeHTTP issues a GET against the service target; any status below 400 is success.
func (c *Client) probeHTTP(ctx context.Context, svc model.ServiceDefinition) model.ProbeResult {
	start := time.Now()
	resp, err := c.httpClient.R().
		SetContext(ctx).
		Get(svc.Target)
	latency := time.Since(start)

	if err != nil {
		reason := describeError(ctx, err, svc.Timeout)
		c.logger.Warn().Err(err).Str("service", svc.Name).Msg("http probe failed")
		return model.ProbeFailure(reason)
	}

	if resp.StatusCode() >= 400 {
		c.logger.Warn().
			Int("status_code", resp.StatusCode()).
			Str("service", svc.Name).
			Msg("http probe returned error status")
		return model.ProbeFailure(fmt.Sprintf("HTTP %d", resp.StatusCode()))
	}

	c.logger.Debug().
		Str("service", svc.Name).
		Dur("latency", latency).
		Msg("http probe succeeded")
	return model.ProbeSuccess(latency)
}

// probeTCP opens and immediately closes a TCP connection to the target.
func (c *Client) probeTCP(ctx context.Context, svc model.ServiceDefinition) model.ProbeResult {
	start := time.Now()
	conn, err := c.dialer.DialContext(ctx, "tcp", svc.Target)
	latency := time.Since(start)

	if err != nil {
		c.logger.Warn().Err(err).Str("service", svc.Name).Msg("tcp probe failed")
		return model.ProbeFailure(describeError(ctx, err, svc.Timeout))
	}
	_ = conn.Close()

	c.logger.Debug().
		Str("service", svc.Name).
		Dur("latency", latency).
		Msg("tcp probe succeeded")
	return model.ProbeSuccess(latency)
}

// describeError turns a probe error into a short reason, naming timeouts explicitly.
func describeError(ctx context.Context, err error, timeout time.Duration) string {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Sprintf("timeout after %s", timeout)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Sprintf("timeout after %s", timeout)
	}
	return err.Error()
}
