// Package netutil classifies network failures of Telegram API calls.
package netutil

import (
	"errors"
	"io"
	"net"
	"net/url"
	"syscall"
)

// Transient reports whether err is a network failure that may succeed on
// another attempt: timeouts, refused or reset connections, truncated replies.
func Transient(err error) bool {
	if err == nil {
		return false
	}
	if Unsent(err) {
		return true
	}
	if errors.Is(err, syscall.ECONNRESET) || errors.Is(err, io.ErrUnexpectedEOF) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	var urlErr *url.Error
	return errors.As(err, &urlErr) && urlErr.Timeout()
}

// Unsent reports whether err happened before the request reached Telegram.
// Repeating such a call cannot deliver a message twice.
func Unsent(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, syscall.ECONNREFUSED) {
		return true
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}
	var opErr *net.OpError
	return errors.As(err, &opErr) && opErr.Op == "dial"
}
