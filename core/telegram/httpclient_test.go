package telegram

import (
	"errors"
	"net"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

func TestDialRetryRepeatsUnsentRequests(t *testing.T) {
	calls := 0
	rt := &dialRetry{retries: 2, backoff: time.Millisecond, base: roundTripFunc(func(*http.Request) (*http.Response, error) {
		calls++
		if calls < 3 {
			return nil, &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")}
		}
		return &http.Response{StatusCode: http.StatusOK}, nil
	})}

	req, err := http.NewRequest(http.MethodPost, "https://api.telegram.org/bot1:x/sendMessage", strings.NewReader("text=hi"))
	require.NoError(t, err)
	resp, err := rt.RoundTrip(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 3, calls)
}

func TestDialRetryLeavesDeliveredRequestsAlone(t *testing.T) {
	calls := 0
	readErr := &net.OpError{Op: "read", Net: "tcp", Err: errors.New("connection reset by peer")}
	rt := &dialRetry{retries: 3, backoff: time.Millisecond, base: roundTripFunc(func(*http.Request) (*http.Response, error) {
		calls++
		return nil, readErr
	})}

	req, err := http.NewRequest(http.MethodPost, "https://api.telegram.org/bot1:x/sendMessage", strings.NewReader("text=hi"))
	require.NoError(t, err)
	_, err = rt.RoundTrip(req)
	assert.ErrorIs(t, err, readErr)
	assert.Equal(t, 1, calls)
}

func TestNewHTTPClientOutlivesLongPoll(t *testing.T) {
	c := NewHTTPClient(HTTPOptions{LongPoll: 50 * time.Second})
	assert.Greater(t, c.Timeout, 50*time.Second)
}
