package runner

import (
	"context"
	"errors"
	"net"
	"strings"

	"github.com/vietddude/mend/internal/core/domain"
)

// Classify maps an error from a watch task to a failure category. Typed
// checks run first; string matching is the fallback since automation drivers
// rarely expose typed errors for these conditions.
func Classify(err error) domain.FailureCategory {
	if err == nil {
		return domain.CategoryUnknown
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return domain.CategoryTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return domain.CategoryTimeout
		}
		return domain.CategoryNetwork
	}

	s := strings.ToLower(err.Error())

	switch {
	case strings.Contains(s, "captcha"),
		strings.Contains(s, "challenge"),
		strings.Contains(s, "verification required"):
		return domain.CategoryChallenge

	case strings.Contains(s, "429"),
		strings.Contains(s, "rate limit"),
		strings.Contains(s, "too many requests"):
		return domain.CategoryRateLimit

	case strings.Contains(s, "proxy"),
		strings.Contains(s, "407"),
		strings.Contains(s, "403"),
		strings.Contains(s, "forbidden"),
		strings.Contains(s, "tunnel"):
		return domain.CategoryProxy

	case strings.Contains(s, "timeout"),
		strings.Contains(s, "timed out"),
		strings.Contains(s, "deadline exceeded"):
		return domain.CategoryTimeout

	case strings.Contains(s, "crash"),
		strings.Contains(s, "target closed"),
		strings.Contains(s, "session closed"),
		strings.Contains(s, "browser disconnected"):
		return domain.CategoryCrash

	case strings.Contains(s, "connection refused"),
		strings.Contains(s, "connection reset"),
		strings.Contains(s, "no such host"),
		strings.Contains(s, "network"),
		strings.Contains(s, "eof"):
		return domain.CategoryNetwork
	}

	return domain.CategoryUnknown
}
