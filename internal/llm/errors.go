package llm

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"strings"
)

// Kind tags the cause of a provider failure. Classification happens once,
// at the boundary where the raw provider error is received; callers branch
// on the tag instead of re-inspecting error text.
type Kind int

const (
	KindUnknown Kind = iota
	KindNotConfigured
	KindRateLimit
	KindTimeout
	KindNetwork
	KindUnavailable
	KindBadRequest
	KindBadResponse
)

func (k Kind) String() string {
	switch k {
	case KindNotConfigured:
		return "not_configured"
	case KindRateLimit:
		return "rate_limit"
	case KindTimeout:
		return "timeout"
	case KindNetwork:
		return "network"
	case KindUnavailable:
		return "unavailable"
	case KindBadRequest:
		return "bad_request"
	case KindBadResponse:
		return "bad_response"
	default:
		return "unknown"
	}
}

// Retryable reports whether another attempt could plausibly succeed.
func (k Kind) Retryable() bool {
	switch k {
	case KindRateLimit, KindTimeout, KindNetwork, KindUnavailable:
		return true
	}
	return false
}

// Error is the tagged failure returned by the completion client. Attempts
// records how many calls were made before giving up.
type Error struct {
	Kind     Kind
	Attempts int
	Err      error
}

func (e *Error) Error() string {
	if e.Attempts > 1 {
		return fmt.Sprintf("llm: %s after %d attempts: %v", e.Kind, e.Attempts, e.Err)
	}
	return fmt.Sprintf("llm: %s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// IsNotConfigured reports whether err is the missing-credential condition.
func IsNotConfigured(err error) bool {
	var le *Error
	return errors.As(err, &le) && le.Kind == KindNotConfigured
}

// retryableFragments is the textual vocabulary used when a provider error
// carries no usable status code. Matched case-insensitively.
var retryableFragments = []string{
	"rate limit",
	"timeout",
	"connection",
	"network",
	"temporary",
	"temporarily unavailable",
	"service unavailable",
	"429",
	"502",
	"503",
	"504",
}

// classifyTransport tags an error from the HTTP round trip itself.
func classifyTransport(err error) Kind {
	var nerr net.Error
	if errors.As(err, &nerr) && nerr.Timeout() {
		return KindTimeout
	}
	if os.IsTimeout(err) {
		return KindTimeout
	}
	return KindNetwork
}

// classifyStatus tags a non-200 HTTP response.
func classifyStatus(code int, body string) Kind {
	switch code {
	case http.StatusTooManyRequests:
		return KindRateLimit
	case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return KindUnavailable
	case http.StatusBadRequest, http.StatusUnauthorized, http.StatusForbidden, http.StatusNotFound:
		return KindBadRequest
	}
	return classifyText(body)
}

// classifyText falls back to fragment matching on the provider's message.
func classifyText(msg string) Kind {
	lower := strings.ToLower(msg)
	for _, frag := range retryableFragments {
		if strings.Contains(lower, frag) {
			switch {
			case strings.Contains(frag, "rate limit"), frag == "429":
				return KindRateLimit
			case frag == "timeout":
				return KindTimeout
			case frag == "connection", frag == "network":
				return KindNetwork
			default:
				return KindUnavailable
			}
		}
	}
	return KindUnknown
}
