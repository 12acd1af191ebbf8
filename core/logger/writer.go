package logger

import (
	"bufio"
	"errors"
	"io"
	"sync"
)

// asyncWriter decouples handlers from slow sinks. A single goroutine drains
// the queue, writes every pending line and flushes once per batch.
type asyncWriter struct {
	queue  chan []byte
	flush  chan chan error
	done   chan struct{}
	closed sync.Once

	sinks []*bufio.Writer

	mu  sync.Mutex
	err error
}

func newAsyncWriter(writers []io.Writer, bufSize int) *asyncWriter {
	if bufSize <= 0 {
		bufSize = 64 * 1024
	}
	w := &asyncWriter{
		queue: make(chan []byte, 1024),
		flush: make(chan chan error),
		done:  make(chan struct{}),
	}
	for _, out := range writers {
		if out != nil {
			w.sinks = append(w.sinks, bufio.NewWriterSize(out, bufSize))
		}
	}
	go w.run()
	return w
}

func (w *asyncWriter) run() {
	defer close(w.done)
	for {
		select {
		case line, ok := <-w.queue:
			if !ok {
				w.record(w.flushSinks())
				return
			}
			w.record(w.writeLine(line))
			w.drain()
			w.record(w.flushSinks())
		case ack := <-w.flush:
			w.drain()
			ack <- w.flushSinks()
		}
	}
}

// drain writes whatever is queued right now without blocking.
func (w *asyncWriter) drain() {
	for {
		select {
		case line, ok := <-w.queue:
			if !ok {
				return
			}
			w.record(w.writeLine(line))
		default:
			return
		}
	}
}

// Write queues a copy of p. A full queue blocks the caller rather than drop logs.
func (w *asyncWriter) Write(p []byte) error {
	if err := w.lastErr(); err != nil {
		return err
	}
	if len(p) == 0 {
		return nil
	}
	w.queue <- append([]byte(nil), p...)
	return nil
}

// Flush returns once everything queued before the call reached the sinks.
func (w *asyncWriter) Flush() error {
	ack := make(chan error, 1)
	select {
	case w.flush <- ack:
		return <-ack
	case <-w.done:
		return w.lastErr()
	}
}

// Close drains the queue, flushes the sinks and reports the first write error.
func (w *asyncWriter) Close() error {
	w.closed.Do(func() { close(w.queue) })
	<-w.done
	return w.lastErr()
}

func (w *asyncWriter) writeLine(line []byte) error {
	var errs []error
	for _, s := range w.sinks {
		if _, err := s.Write(line); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (w *asyncWriter) flushSinks() error {
	var errs []error
	for _, s := range w.sinks {
		if err := s.Flush(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (w *asyncWriter) record(err error) {
	if err == nil {
		return
	}
	w.mu.Lock()
	if w.err == nil {
		w.err = err
	}
	w.mu.Unlock()
}

func (w *asyncWriter) lastErr() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.err
}
