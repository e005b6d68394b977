package puzzle

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
)

// HTTPSource fetches a JSON puzzle collection from a remote URL.
type HTTPSource struct {
	url    string
	http   *fasthttp.Client
	logger *zap.Logger

	timeout  time.Duration
	retryMax int
}

type HTTPOption func(*HTTPSource)

func WithTimeout(d time.Duration) HTTPOption {
	return func(s *HTTPSource) { s.timeout = d }
}

func WithRetry(max int) HTTPOption {
	return func(s *HTTPSource) { s.retryMax = max }
}

func NewHTTPSource(url string, logger *zap.Logger, opts ...HTTPOption) *HTTPSource {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &HTTPSource{
		url:      url,
		http:     &fasthttp.Client{ReadTimeout: 10 * time.Second, WriteTimeout: 10 * time.Second, MaxConnsPerHost: 8},
		logger:   logger,
		timeout:  10 * time.Second,
		retryMax: 3,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *HTTPSource) Load(ctx context.Context) ([]Puzzle, error) {
	body, err := s.get(ctx)
	if err != nil {
		return nil, err
	}
	return decodeCollection(body, json.Unmarshal, s.logger)
}

func (s *HTTPSource) get(ctx context.Context) ([]byte, error) {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer func() {
		fasthttp.ReleaseRequest(req)
		fasthttp.ReleaseResponse(resp)
	}()

	req.Header.SetMethod(fasthttp.MethodGet)
	req.SetRequestURI(s.url)
	req.Header.Set("Accept", "application/json")

	attempts := s.retryMax
	if attempts <= 0 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		err := s.http.DoDeadline(req, resp, s.computeDeadline(ctx))
		if err == nil {
			status := resp.StatusCode()
			if status >= 200 && status < 300 {
				body := make([]byte, len(resp.Body()))
				copy(body, resp.Body())
				return body, nil
			}
			err = fmt.Errorf("puzzle source error: status=%d", status)
			if !shouldRetryStatus(status) {
				return nil, err
			}
		}
		lastErr = err
		if attempt == attempts {
			break
		}
		if sleepErr := sleepWithContext(ctx, backoffDuration(attempt)); sleepErr != nil {
			return nil, lastErr
		}
	}
	return nil, fmt.Errorf("fetch puzzle collection: %w", lastErr)
}

func (s *HTTPSource) computeDeadline(ctx context.Context) time.Time {
	clientDL := time.Now().Add(s.timeout)
	if dl, ok := ctx.Deadline(); ok && dl.Before(clientDL) {
		return dl
	}
	return clientDL
}

func sleepWithContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func backoffDuration(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	if attempt > 6 {
		attempt = 6
	}
	base := 100 * time.Millisecond
	return time.Duration(1<<uint(attempt-1)) * base // 100ms, 200ms ...
}

func shouldRetryStatus(code int) bool {
	switch code {
	case 500, 502, 503, 504:
		return true
	default:
		return false
	}
}
