package telegram

import (
	"net"
	"net/http"
	"time"

	"github.com/m3rciful/grocerybot/core/telegram/netutil"
)

// HTTPOptions tunes the client used for Bot API calls.
type HTTPOptions struct {
	// LongPoll is the getUpdates timeout; responses may take that long to start.
	LongPoll time.Duration
	// Retries is the number of extra attempts for requests that never left the host.
	Retries int
	Backoff time.Duration
}

// NewHTTPClient returns a client for Bot API calls. Only requests that failed
// before reaching Telegram are retried here; everything else is left to the
// sender dispatcher, which knows whether a call is safe to repeat.
func NewHTTPClient(opts HTTPOptions) *http.Client {
	if opts.LongPoll <= 0 {
		opts.LongPoll = defaultLongPollTimeout
	}
	if opts.Retries < 0 {
		opts.Retries = 0
	}
	if opts.Backoff <= 0 {
		opts.Backoff = 500 * time.Millisecond
	}
	base := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           (&net.Dialer{Timeout: 5 * time.Second, KeepAlive: 30 * time.Second}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          32,
		MaxIdleConnsPerHost:   16,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   5 * time.Second,
		ResponseHeaderTimeout: opts.LongPoll + 10*time.Second,
		ExpectContinueTimeout: time.Second,
	}
	return &http.Client{
		Timeout:   opts.LongPoll + 20*time.Second,
		Transport: &dialRetry{base: base, retries: opts.Retries, backoff: opts.Backoff},
	}
}

// dialRetry repeats a round trip whose connection could not be established.
type dialRetry struct {
	base    http.RoundTripper
	retries int
	backoff time.Duration
}

func (t *dialRetry) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := t.base.RoundTrip(req)
	for attempt := 1; err != nil && attempt <= t.retries && netutil.Unsent(err); attempt++ {
		if req.Body != nil && req.GetBody == nil {
			return nil, err
		}
		select {
		case <-req.Context().Done():
			return nil, req.Context().Err()
		case <-time.After(t.backoff * time.Duration(attempt)):
		}
		next := req.Clone(req.Context())
		if req.GetBody != nil {
			body, bodyErr := req.GetBody()
			if bodyErr != nil {
				return nil, bodyErr
			}
			next.Body = body
		}
		resp, err = t.base.RoundTrip(next)
	}
	return resp, err
}
