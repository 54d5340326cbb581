package resilience

import (
	"context"
	"errors"
	"net"
	"strings"
	"syscall"
)

// Classification is the retry disposition of a fault.
type Classification int

const (
	// Retryable faults are transient network or service failures worth
	// another attempt.
	Retryable Classification = iota

	// AuthFatal faults mean the session credential was rejected. Retrying
	// cannot help and risks further throttling.
	AuthFatal

	// OtherFatal faults are unexpected (malformed payloads, programming
	// errors) and are surfaced immediately.
	OtherFatal
)

func (c Classification) String() string {
	switch c {
	case Retryable:
		return "retryable"
	case AuthFatal:
		return "auth_fatal"
	default:
		return "other_fatal"
	}
}

// statusCoder is implemented by faults that carry an HTTP response status.
type statusCoder interface {
	HTTPStatus() int
}

// Classify maps a fault to its retry disposition. This is the single source
// of truth consulted by the retry loop; callers must not reinterpret it.
func Classify(err error) Classification {
	if err == nil {
		return OtherFatal
	}

	// HTTP status faults: credential rejection is fatal, everything else
	// (429, 5xx, even unexpected 4xx) is treated as service instability.
	var sc statusCoder
	if errors.As(err, &sc) {
		switch sc.HTTPStatus() {
		case 401, 403:
			return AuthFatal
		default:
			return Retryable
		}
	}

	if errors.Is(err, context.Canceled) {
		return OtherFatal
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return Retryable
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return Retryable
	}

	if errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNABORTED) ||
		errors.Is(err, syscall.EPIPE) {
		return Retryable
	}

	// String heuristics for wrapped transport errors that lose their type.
	msg := strings.ToLower(err.Error())
	transientPatterns := []string{
		"connection reset by peer",
		"connection refused",
		"broken pipe",
		"proxyconnect",
		"temporary failure in name resolution",
		"no such host",
		"tls handshake timeout",
		"i/o timeout",
		"server closed idle connection",
		"transport connection broken",
	}
	for _, p := range transientPatterns {
		if strings.Contains(msg, p) {
			return Retryable
		}
	}

	return OtherFatal
}
