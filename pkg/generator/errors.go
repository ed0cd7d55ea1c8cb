package generator

import (
	"fmt"
	"net/http"
)

// Category splits generation failures into the two classes the resilient
// executor cares about.
type Category string

const (
	CategoryRetryable Category = "retryable"
	CategoryPermanent Category = "permanent"
)

// Error is a typed generation failure carrying its retry classification.
type Error struct {
	Op       string
	Status   int
	Category Category
	Err      error
}

func (e *Error) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s: status=%d (%s): %v", e.Op, e.Status, e.Category, e.Err)
	}
	return fmt.Sprintf("%s (%s): %v", e.Op, e.Category, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Retryable satisfies the executor's self-classification hook.
func (e *Error) Retryable() bool { return e.Category == CategoryRetryable }

// categoryForStatus maps an HTTP status class to a retry category.
// Upstream throttling and gateway-class failures are worth retrying;
// auth and malformed-input failures never are.
func categoryForStatus(status int) Category {
	switch status {
	case http.StatusRequestTimeout,
		http.StatusTooManyRequests,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return CategoryRetryable
	}
	if status >= 500 {
		return CategoryRetryable
	}
	return CategoryPermanent
}

func retryableErr(op string, err error) *Error {
	return &Error{Op: op, Category: CategoryRetryable, Err: err}
}

func permanentErr(op string, err error) *Error {
	return &Error{Op: op, Category: CategoryPermanent, Err: err}
}

func statusErr(op string, status int, err error) *Error {
	return &Error{Op: op, Status: status, Category: categoryForStatus(status), Err: err}
}
