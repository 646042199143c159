package common

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
)

var (
	ErrNotFound    = errors.New("data not found")
	ErrRateLimited = errors.New("rate limit exceeded")
)

type Proxy struct {
	header      map[string]string
	client      *http.Client
	rateLimiter *RateLimiter
}

func NewProxy(header map[string]string, rateLimiter *RateLimiter, timeout time.Duration) *Proxy {
	return &Proxy{header, &http.Client{Timeout: timeout}, rateLimiter}
}

// Make a GET request to the provided url, indicating if it is vital.
// The request will be performed depending on the status of the rate limiter
func (proxy *Proxy) Request(ctx context.Context, url string, vital bool) ([]byte, error) {
	return proxy.do(ctx, http.MethodGet, url, nil, vital)
}

// Same as Request but POSTs a JSON body
func (proxy *Proxy) Post(ctx context.Context, url string, body []byte, vital bool) ([]byte, error) {
	return proxy.do(ctx, http.MethodPost, url, body, vital)
}

func (proxy *Proxy) do(ctx context.Context, method string, url string, body []byte, vital bool) ([]byte, error) {

	// ask for permission to execute the request
	// and wait if necessary
	if !proxy.rateLimiter.Allowed(ctx, vital) {
		log.Warn().Msg("Rate limiter is not allowing the request")
		return nil, ErrRateLimited
	}

	// Create the request and add the header
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	request, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, fmt.Errorf("could not create request for url %s: %w", url, err)
	}
	for key, value := range proxy.header {
		request.Header.Set(key, value)
	}
	if body != nil {
		request.Header.Set("Content-Type", "application/json")
	}

	// Perform the request
	res, err := proxy.client.Do(request)
	if err != nil {
		return nil, fmt.Errorf("could not perform request to %s: %w", url, err)
	}
	defer res.Body.Close()
	log.Debug().Msg(fmt.Sprintf("%s %s: %d %s", method, url, res.StatusCode, http.StatusText(res.StatusCode)))

	switch res.StatusCode {
	case http.StatusOK:
		stream, err := io.ReadAll(res.Body)
		if err != nil {
			return nil, fmt.Errorf("could not extract the response for url %s: %w", url, err)
		}
		return stream, nil
	case http.StatusNotFound:
		return nil, ErrNotFound
	case http.StatusTooManyRequests:
		proxy.rateLimiter.ReceivedRateLimit()
		return nil, ErrRateLimited
	default:
		return nil, fmt.Errorf("request to %s failed with status %d (%s)", url, res.StatusCode, http.StatusText(res.StatusCode))
	}
}
