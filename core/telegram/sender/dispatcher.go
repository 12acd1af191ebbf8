package sender

import (
	"context"
	"crypto/tls"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"regexp"
	"sync"
	"sync/atomic"
	"time"

	"github.com/m3rciful/grocerybot/core/logger"
	"github.com/m3rciful/grocerybot/core/telegram/netutil"

	tele "gopkg.in/telebot.v4"
)

var (
	// ErrQueueClosed is returned when enqueue is attempted after dispatcher stop.
	ErrQueueClosed = errors.New("telegram sender: queue closed")
	// ErrQueueFull indicates the queue is saturated and the job was not accepted.
	ErrQueueFull = errors.New("telegram sender: queue full")

	tokenRe = regexp.MustCompile(`bot[0-9]+:[A-Za-z0-9_-]+`)
)

// Options controls the behaviour of the outbound dispatcher.
type Options struct {
	// QueueSize bounds the pending jobs of each worker.
	QueueSize int
	Workers   int
	// MaxRetries counts extra attempts after the first one.
	MaxRetries   int
	RetryBackoff time.Duration
	// MaxDuration bounds the time spent retrying a single job.
	MaxDuration time.Duration
}

func (o Options) withDefaults() Options {
	if o.QueueSize <= 0 {
		o.QueueSize = 64
	}
	if o.Workers <= 0 {
		o.Workers = 4
	}
	o.MaxRetries = max(o.MaxRetries, 0)
	if o.RetryBackoff <= 0 {
		o.RetryBackoff = 2 * time.Second
	}
	if o.MaxDuration <= 0 {
		o.MaxDuration = 12 * time.Second
	}
	return o
}

type job struct {
	ctx      context.Context
	action   string
	endpoint string
	run      func() error
}

// Dispatcher executes outbound Telegram calls asynchronously with retries.
// Jobs for the same chat go to the same worker and run in enqueue order, so
// successive edits of one message never overtake each other.
type Dispatcher struct {
	opts   Options
	queues []chan job
	next   atomic.Uint64

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
	errs   atomic.Uint64
}

// NewDispatcher starts the workers; zero options take defaults.
func NewDispatcher(opts Options) *Dispatcher {
	opts = opts.withDefaults()
	d := &Dispatcher{opts: opts, queues: make([]chan job, opts.Workers)}
	d.wg.Add(opts.Workers)
	for i := range d.queues {
		d.queues[i] = make(chan job, opts.QueueSize)
		go d.worker(d.queues[i])
	}
	return d
}

type chatKey struct{}

// ForChat marks ctx so jobs enqueued with it are ordered with other jobs
// for chatID. Without it the chat of the current update is used.
func ForChat(ctx context.Context, chatID int64) context.Context {
	return context.WithValue(ctx, chatKey{}, chatID)
}

func chatOf(ctx context.Context) int64 {
	if id, ok := ctx.Value(chatKey{}).(int64); ok {
		return id
	}
	return logger.ChatIDFrom(ctx)
}

// queueFor picks the worker queue: by chat when known, round robin otherwise.
func (d *Dispatcher) queueFor(ctx context.Context) chan job {
	n := uint64(len(d.queues))
	if chat := chatOf(ctx); chat != 0 {
		return d.queues[uint64(chat)%n]
	}
	return d.queues[d.next.Add(1)%n]
}

// Enqueue schedules run. run must be safe to repeat when retries are enabled.
func (d *Dispatcher) Enqueue(ctx context.Context, action, endpoint string, run func() error) error {
	if run == nil {
		return errors.New("telegram sender: nil run function")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return ErrQueueClosed
	}
	select {
	case d.queueFor(ctx) <- job{ctx: ctx, action: action, endpoint: endpoint, run: run}:
		return nil
	default:
		return ErrQueueFull
	}
}

// ErrorCount returns the number of jobs that finally failed.
func (d *Dispatcher) ErrorCount() uint64 {
	return d.errs.Load()
}

// Close refuses new jobs and waits until the queued ones are done.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		for _, q := range d.queues {
			close(q)
		}
	}
	d.mu.Unlock()
	d.wg.Wait()
}

func (d *Dispatcher) worker(q <-chan job) {
	defer d.wg.Done()
	for j := range q {
		d.handleJob(j)
	}
}

func (d *Dispatcher) handleJob(j job) {
	ctx := j.ctx
	deadline, cancel := context.WithTimeout(ctx, d.opts.MaxDuration)
	defer cancel()

	start := time.Now()
	attempts, err := d.attempt(deadline, j)
	attrs := append(sendLogAttrs(ctx, j),
		slog.Int("attempts", attempts),
		slog.Int("elapsed_ms", durationToMS(time.Since(start))),
	)
	if err == nil {
		logger.Debug(ctx, "tg.sender", "send.success", attrs...)
		return
	}
	d.errs.Add(1)
	logger.Error(ctx, "tg.sender", "send.fail", append(attrs,
		slog.String("err", Redact(err)),
		slog.String("error_kind", errorKind(err)),
	)...)
}

// attempt runs j until it succeeds, fails permanently, exhausts retries or
// hits the deadline. It returns the number of runs.
func (d *Dispatcher) attempt(ctx context.Context, j job) (int, error) {
	var err error
	for n := 1; ; n++ {
		if err = j.run(); err == nil {
			return n, nil
		}
		if n > d.opts.MaxRetries || !shouldRetry(err) {
			return n, err
		}
		delay := d.retryDelay(err, n)
		logger.Debug(ctx, "tg.sender", "send.retry",
			append(sendLogAttrs(ctx, j), slog.Int("attempt", n), slog.Duration("delay", delay))...)
		select {
		case <-ctx.Done():
			return n, errors.Join(err, ctx.Err())
		case <-time.After(delay):
		}
	}
}

// shouldRetry accepts flood control and transient network failures.
func shouldRetry(err error) bool {
	var flood tele.FloodError
	if errors.As(err, &flood) {
		return true
	}
	return netutil.Transient(err)
}

func (d *Dispatcher) retryDelay(err error, attempt int) time.Duration {
	var flood tele.FloodError
	if errors.As(err, &flood) && flood.RetryAfter > 0 {
		return time.Duration(flood.RetryAfter) * time.Second
	}
	return d.opts.RetryBackoff * time.Duration(attempt)
}

func sendLogAttrs(ctx context.Context, j job) []slog.Attr {
	attrs := []slog.Attr{slog.String("action", j.action)}
	if j.endpoint != "" {
		attrs = append(attrs, slog.String("endpoint", j.endpoint))
	}
	if rid := logger.RIDFrom(ctx); rid != "" {
		attrs = append(attrs, slog.String("rid", rid))
	}
	if chatID := logger.ChatIDFrom(ctx); chatID != 0 {
		attrs = append(attrs, slog.Int64("chat_id", chatID))
	}
	return attrs
}

func durationToMS(d time.Duration) int {
	return int(logger.RoundMS(d) / time.Millisecond)
}

// errorKind buckets a send failure for the error_kind log field.
func errorKind(err error) string {
	var (
		flood  tele.FloodError
		group  tele.GroupError
		apiErr *tele.Error
		alert  tls.AlertError
		netErr net.Error
	)
	switch {
	case err == nil:
		return ""
	case errors.Is(err, context.DeadlineExceeded), errors.As(err, &netErr) && netErr.Timeout():
		return "timeout"
	case errors.As(err, &flood):
		return "flood"
	case errors.As(err, &group):
		return "http_4xx"
	case errors.As(err, &apiErr):
		if apiErr.Code >= http.StatusInternalServerError {
			return "http_5xx"
		}
		return "http_4xx"
	case netutil.Unsent(err):
		return "dial"
	case errors.As(err, &alert):
		return "tls"
	}
	return "unknown"
}

// Redact renders err with Telegram bot tokens masked.
func Redact(err error) string {
	if err == nil {
		return ""
	}
	return tokenRe.ReplaceAllString(err.Error(), "bot<redacted>")
}
