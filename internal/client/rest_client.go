package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"time"

	"github.com/brenthale/elassandra/internal/core/domain"
	"github.com/brenthale/elassandra/internal/core/ports"
)

// A dispatch stops issuing attempts slightly before maxRetryTimeout so
// a fresh attempt is never started with a near-zero budget.
const retryBudgetFactor = 0.98

type attemptOutcome int

const (
	outcomeSuccess attemptOutcome = iota
	outcomeRetryable
	outcomeTerminal
)

// Options carries the dispatcher's collaborators beyond transport and
// pool. Zero values get sensible defaults except MaxRetryTimeout, which
// must be positive.
type Options struct {
	Logger          *slog.Logger
	Tracer          *slog.Logger
	Stats           ports.StatsCollector
	OnFailure       func(node *domain.Node)
	MaxRetryTimeout time.Duration
}

// RestClient walks the pool's connection order for each logical
// request, retrying transport and gateway failures against successive
// nodes until one answers, the pool is exhausted or the retry budget
// elapses. Health callbacks for attempt k land before attempt k+1.
type RestClient struct {
	transport ports.Transport
	pool      ports.NodePool
	stats     ports.StatsCollector
	logger    *slog.Logger
	tracer    *slog.Logger
	onFailure func(node *domain.Node)
	budget    time.Duration
}

func New(transport ports.Transport, nodePool ports.NodePool, opts Options) (*RestClient, error) {
	if transport == nil {
		return nil, &domain.ConfigValidationError{Field: "transport", Value: nil, Reason: "transport is required"}
	}
	if nodePool == nil {
		return nil, &domain.ConfigValidationError{Field: "pool", Value: nil, Reason: "node pool is required"}
	}
	if opts.MaxRetryTimeout <= 0 {
		return nil, &domain.ConfigValidationError{Field: "client.max_retry_timeout", Value: opts.MaxRetryTimeout, Reason: "must be positive"}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	tracer := opts.Tracer
	if tracer == nil {
		tracer = logger.With("logger", "trace.request")
	}

	return &RestClient{
		transport: transport,
		pool:      nodePool,
		stats:     opts.Stats,
		logger:    logger,
		tracer:    tracer,
		onFailure: opts.OnFailure,
		budget:    retryBudget(opts.MaxRetryTimeout),
	}, nil
}

func retryBudget(maxRetryTimeout time.Duration) time.Duration {
	return time.Duration(math.Round(float64(maxRetryTimeout) * retryBudgetFactor))
}

// PerformRequest executes one logical request with retries. On success
// the returned response's body is still open and owned by the caller.
// On failure exactly one error is returned; its suppressed chain holds
// the per-attempt history in chronological order.
func (c *RestClient) PerformRequest(ctx context.Context, method, endpoint string, params map[string]string, body []byte) (*http.Response, error) {
	req, err := BuildRequest(method, endpoint, params, body)
	if err != nil {
		return nil, err
	}

	conns := c.pool.Next()
	if len(conns) == 0 {
		lastResort := c.pool.LastResort()
		if lastResort == nil {
			return nil, fmt.Errorf("connection pool has no nodes")
		}
		c.logger.Info(fmt.Sprintf("no healthy nodes available, trying %s", lastResort.Node.URLString))
		conns = []*domain.Connection{lastResort}
	}

	start := time.Now()
	var lastErr error
	var suppressed []error
	chain := func(e error) {
		if lastErr != nil {
			suppressed = append(suppressed, lastErr)
		}
		lastErr = e
	}

	for _, conn := range conns {
		if lastErr != nil {
			if elapsed := time.Since(start); elapsed >= c.budget {
				return nil, &domain.RetryTimeoutError{
					Err:        lastErr,
					Elapsed:    elapsed,
					Budget:     c.budget,
					Suppressed: suppressed,
				}
			}
		}

		c.traceRequest(ctx, conn.Node, req)

		attemptStart := time.Now()
		resp, err := c.transport.Execute(ctx, conn.Node, req)
		latency := time.Since(attemptStart)

		if err != nil {
			c.logger.Debug("request failed",
				"method", req.Method.String(),
				"node", conn.Node.URLString,
				"uri", req.Path,
				"error", err,
				"latency", latency)
			c.failConnection(conn, latency, err)
			chain(&domain.TransportError{
				Err:    err,
				Node:   conn.Node,
				Method: req.Method,
				Path:   req.Path,
			})
			continue
		}

		switch classify(req.Method, resp.StatusCode) {
		case outcomeSuccess:
			c.logger.Debug("request succeeded",
				"method", req.Method.String(),
				"node", conn.Node.URLString,
				"uri", req.Path,
				"status", resp.StatusCode,
				"latency", latency)
			c.traceResponse(ctx, resp)
			c.pool.MarkSuccess(conn)
			if c.stats != nil {
				c.stats.RecordSuccess(conn.Node.URLString, resp.StatusCode, latency)
			}
			return resp, nil

		case outcomeRetryable:
			httpErr := c.drainResponse(ctx, conn.Node, req, resp)
			c.logger.Debug("request failed",
				"method", req.Method.String(),
				"node", conn.Node.URLString,
				"uri", req.Path,
				"status", resp.StatusCode,
				"latency", latency)
			c.failConnection(conn, latency, httpErr)
			chain(httpErr)

		case outcomeTerminal:
			httpErr := c.drainResponse(ctx, conn.Node, req, resp)
			c.logger.Debug("request failed",
				"method", req.Method.String(),
				"node", conn.Node.URLString,
				"uri", req.Path,
				"status", resp.StatusCode,
				"latency", latency)
			// The node answered; the request is the caller's problem.
			c.pool.MarkSuccess(conn)
			if c.stats != nil {
				c.stats.RecordSuccess(conn.Node.URLString, resp.StatusCode, latency)
			}
			chain(httpErr)
			httpErr.Suppressed = suppressed
			return nil, httpErr
		}
	}

	if lastErr == nil {
		return nil, fmt.Errorf("connection pool has no nodes")
	}
	if sc, ok := lastErr.(interface{ SetSuppressed([]error) }); ok {
		sc.SetSuppressed(suppressed)
	}
	return nil, lastErr
}

// classify buckets one attempt's HTTP status. A HEAD 404 counts as
// success, preserving the backend's existence-probe convention.
func classify(method domain.Method, status int) attemptOutcome {
	if status >= http.StatusOK && status < http.StatusMultipleChoices {
		return outcomeSuccess
	}
	if method == domain.MethodHead && status == http.StatusNotFound {
		return outcomeSuccess
	}
	switch status {
	case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return outcomeRetryable
	}
	return outcomeTerminal
}

func (c *RestClient) failConnection(conn *domain.Connection, latency time.Duration, err error) {
	c.pool.MarkFailure(conn)
	if c.stats != nil {
		c.stats.RecordFailure(conn.Node.URLString, latency, err)
	}
	if c.onFailure != nil {
		c.onFailure(conn.Node)
	}
}

// drainResponse buffers a failed response into an HTTPError. The body
// stream is closed here; the buffered copy travels with the error.
func (c *RestClient) drainResponse(ctx context.Context, node *domain.Node, req *domain.Request, resp *http.Response) *domain.HTTPError {
	c.traceResponse(ctx, resp)
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.logger.Debug("failed to buffer error response body", "node", node.URLString, "error", err)
		body = nil
	}
	_ = resp.Body.Close()

	return &domain.HTTPError{
		Node:       node,
		Method:     req.Method,
		Path:       req.Path,
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
		Header:     resp.Header.Clone(),
		Body:       body,
	}
}

func (c *RestClient) traceRequest(ctx context.Context, node *domain.Node, req *domain.Request) {
	if !c.tracer.Enabled(ctx, slog.LevelDebug) {
		return
	}
	c.tracer.Debug(CurlRequest(node, req))
}

func (c *RestClient) traceResponse(ctx context.Context, resp *http.Response) {
	if !c.tracer.Enabled(ctx, slog.LevelDebug) {
		return
	}
	rendered, err := CurlResponse(resp)
	if err != nil {
		// Trace failure never aborts a real request.
		c.logger.Debug("failed to render response trace", "error", err)
		return
	}
	c.tracer.Debug(rendered)
}

// Close releases the pool and then the transport. Both are attempted
// even if the first fails.
func (c *RestClient) Close() error {
	return errors.Join(c.pool.Close(), c.transport.Close())
}
