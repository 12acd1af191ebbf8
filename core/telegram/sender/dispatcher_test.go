package sender

import (
	"context"
	"errors"
	"net"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/grocerybot/core/logger"
)

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

var _ net.Error = timeoutErr{}

func TestDispatcherRunsJobs(t *testing.T) {
	d := NewDispatcher(Options{Workers: 2, QueueSize: 8})
	var runs atomic.Int32
	for range 5 {
		require.NoError(t, d.Enqueue(context.Background(), "send.text", "sendMessage", func() error {
			runs.Add(1)
			return nil
		}))
	}
	d.Close()
	assert.Equal(t, int32(5), runs.Load())
	assert.Zero(t, d.ErrorCount())
	assert.ErrorIs(t, d.Enqueue(context.Background(), "x", "", func() error { return nil }), ErrQueueClosed)
}

func TestDispatcherRetriesTransientErrors(t *testing.T) {
	d := NewDispatcher(Options{Workers: 1, MaxRetries: 2, RetryBackoff: time.Millisecond})
	var runs atomic.Int32
	require.NoError(t, d.Enqueue(context.Background(), "send.text", "sendMessage", func() error {
		if runs.Add(1) < 3 {
			return timeoutErr{}
		}
		return nil
	}))
	d.Close()
	assert.Equal(t, int32(3), runs.Load())
	assert.Zero(t, d.ErrorCount())
}

func TestDispatcherCountsPermanentFailures(t *testing.T) {
	d := NewDispatcher(Options{Workers: 1, MaxRetries: 3, RetryBackoff: time.Millisecond})
	var runs atomic.Int32
	require.NoError(t, d.Enqueue(context.Background(), "send.text", "sendMessage", func() error {
		runs.Add(1)
		return tele.ErrBlockedByUser
	}))
	d.Close()
	assert.Equal(t, int32(1), runs.Load())
	assert.Equal(t, uint64(1), d.ErrorCount())
}

func TestDispatcherKeepsChatOrder(t *testing.T) {
	d := NewDispatcher(Options{Workers: 4, QueueSize: 64})
	var mu sync.Mutex
	var got []int
	ctx := ForChat(context.Background(), 500)
	for i := range 50 {
		require.NoError(t, d.Enqueue(ctx, "edit.status", "editMessageText", func() error {
			mu.Lock()
			got = append(got, i)
			mu.Unlock()
			return nil
		}))
	}
	d.Close()
	require.Len(t, got, 50)
	for i, v := range got {
		assert.Equal(t, i, v)
	}
}

func TestChatOfPrefersExplicitChat(t *testing.T) {
	ctx := logger.WithUpdateMeta(context.Background(), 1, 7, 700)
	assert.Equal(t, int64(700), chatOf(ctx))
	assert.Equal(t, int64(900), chatOf(ForChat(ctx, 900)))
}

func TestDispatcherRejectsWhenFull(t *testing.T) {
	d := NewDispatcher(Options{Workers: 1, QueueSize: 1})
	release := make(chan struct{})
	started := make(chan struct{})
	ctx := ForChat(context.Background(), 1)
	require.NoError(t, d.Enqueue(ctx, "send.text", "", func() error {
		close(started)
		<-release
		return nil
	}))
	<-started
	require.NoError(t, d.Enqueue(ctx, "send.text", "", func() error { return nil }))
	assert.ErrorIs(t, d.Enqueue(ctx, "send.text", "", func() error { return nil }), ErrQueueFull)
	close(release)
	d.Close()
}

func TestRedactMasksToken(t *testing.T) {
	err := errors.New(`Post "https://api.telegram.org/bot123456:AAbb-cc_DD/sendMessage": EOF`)
	assert.Equal(t, `Post "https://api.telegram.org/bot<redacted>/sendMessage": EOF`, Redact(err))
	assert.Empty(t, Redact(nil))
}

func TestRetryDelayHonoursFloodControl(t *testing.T) {
	d := &Dispatcher{opts: Options{RetryBackoff: time.Second}}
	assert.Equal(t, 2*time.Second, d.retryDelay(timeoutErr{}, 2))
	assert.Equal(t, 7*time.Second, d.retryDelay(tele.FloodError{RetryAfter: 7}, 1))
	assert.True(t, shouldRetry(tele.FloodError{RetryAfter: 1}))
	assert.False(t, shouldRetry(tele.ErrBlockedByUser))
}

func TestErrorKind(t *testing.T) {
	assert.Equal(t, "timeout", errorKind(timeoutErr{}))
	assert.Equal(t, "flood", errorKind(tele.FloodError{RetryAfter: 3}))
	assert.Equal(t, "http_4xx", errorKind(tele.ErrBlockedByUser))
	assert.Equal(t, "http_5xx", errorKind(tele.NewError(502, "Bad Gateway")))
	assert.Equal(t, "dial", errorKind(&net.OpError{Op: "dial", Err: errors.New("refused")}))
	assert.Equal(t, "unknown", errorKind(errors.New("boom")))
}
