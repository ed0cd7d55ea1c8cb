package retry

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/mossygate/parley/pkg/logger"
)

// Policy bounds the retry behavior of an Executor. The per-attempt timeout
// belongs to the operation itself; the executor only bounds retry time.
type Policy struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}

func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts:  3,
		InitialDelay: 500 * time.Millisecond,
		MaxDelay:     30 * time.Second,
		Multiplier:   2.0,
	}
}

func (p Policy) normalized() Policy {
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = 3
	}
	if p.InitialDelay <= 0 {
		p.InitialDelay = 500 * time.Millisecond
	}
	if p.MaxDelay <= 0 {
		p.MaxDelay = 30 * time.Second
	}
	if p.Multiplier < 1 {
		p.Multiplier = 2.0
	}
	return p
}

// Executor wraps unreliable external calls with classify-and-backoff
// retries. Non-retryable failures surface immediately; retryable ones are
// reattempted with exponential backoff until the policy is exhausted.
type Executor struct {
	policy Policy
}

func NewExecutor(policy Policy) *Executor {
	return &Executor{policy: policy.normalized()}
}

// Error wraps a failed execution with the operation name and how many
// attempts were spent on it.
type Error struct {
	Name      string
	Attempts  int
	Permanent bool
	Err       error
}

func (e *Error) Error() string {
	if e.Permanent {
		return fmt.Sprintf("%s: non-retryable failure on attempt %d: %v", e.Name, e.Attempts, e.Err)
	}
	return fmt.Sprintf("%s: attempts exhausted after %d: %v", e.Name, e.Attempts, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// retryableError is implemented by errors that carry their own
// classification (the generator's typed errors do).
type retryableError interface {
	Retryable() bool
}

var permanentMarkers = []string{
	"unauthorized", "forbidden", "invalid api key", "authentication",
	"malformed", "validation", "bad request", "status=400", "status=401", "status=403",
}

var retryableMarkers = []string{
	"timeout", "timed out", "connection reset", "connection refused",
	"temporarily unavailable", "rate limit", "too many requests",
	"status=429", "status=502", "status=503", "status=504",
	"bad gateway", "service unavailable", "gateway timeout", "eof",
}

// Retryable classifies an error. Errors that self-classify win; otherwise
// the message is inspected, permanent markers first so "bad request while
// connecting" never loops. Unknown errors default to retryable, matching
// how flaky upstream text generation actually fails.
func Retryable(err error) bool {
	if err == nil {
		return false
	}
	var rerr retryableError
	if errors.As(err, &rerr) {
		return rerr.Retryable()
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, m := range permanentMarkers {
		if strings.Contains(msg, m) {
			return false
		}
	}
	for _, m := range retryableMarkers {
		if strings.Contains(msg, m) {
			return true
		}
	}
	return true
}

// Do runs op under the executor's policy. The backoff wait is a suspension
// point on the context, never a busy wait or a blocked thread.
func Do[T any](ctx context.Context, e *Executor, name string, op func(context.Context) (T, error)) (T, error) {
	var zero T
	p := e.policy
	delay := p.InitialDelay

	var lastErr error
	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		result, err := op(ctx)
		if err == nil {
			return result, nil
		}
		lastErr = err

		if !Retryable(err) {
			return zero, &Error{Name: name, Attempts: attempt, Permanent: true, Err: err}
		}
		if attempt == p.MaxAttempts {
			break
		}

		logger.WarnCF("retry", "Operation failed, backing off", map[string]interface{}{
			"operation": name,
			"attempt":   attempt,
			"delay_ms":  delay.Milliseconds(),
			"error":     err.Error(),
		})

		timer := time.NewTimer(delay)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return zero, &Error{Name: name, Attempts: attempt, Err: ctx.Err()}
		}

		delay = time.Duration(float64(delay) * p.Multiplier)
		if delay > p.MaxDelay {
			delay = p.MaxDelay
		}
	}

	return zero, &Error{Name: name, Attempts: p.MaxAttempts, Err: lastErr}
}
