// Package businessflow contains the core business logic for the link and reward pipeline
package businessflow

import (
	"errors"
	"fmt"
)

// Business flow error constants
var (
	// Link-related errors
	ErrLinkNotFound     = errors.New("short link not found")
	ErrInvalidShortCode = errors.New("invalid short code")

	// Short code generation errors
	ErrShortCodeSpaceExhausted = errors.New("short code generation exhausted retry budget")

	// Filter errors
	ErrInvalidPage     = errors.New("page must be at least 1")
	ErrInvalidPageSize = errors.New("page size must be between 1 and 100")
)

type BusinessError struct {
	Code    string
	Message string
	Err     error
}

func (e *BusinessError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *BusinessError) Unwrap() error {
	return e.Err
}

func NewBusinessError(code, message string, err error) *BusinessError {
	return &BusinessError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

func NewBusinessErrorf(code, message string, err error, args ...any) *BusinessError {
	return &BusinessError{
		Code:    code,
		Message: fmt.Sprintf(message, args...),
		Err:     err,
	}
}

func IsLinkNotFound(err error) bool {
	return errors.Is(err, ErrLinkNotFound)
}

func IsInvalidShortCode(err error) bool {
	return errors.Is(err, ErrInvalidShortCode)
}

func IsShortCodeSpaceExhausted(err error) bool {
	return errors.Is(err, ErrShortCodeSpaceExhausted)
}

func IsInvalidPage(err error) bool {
	return errors.Is(err, ErrInvalidPage)
}

func IsInvalidPageSize(err error) bool {
	return errors.Is(err, ErrInvalidPageSize)
}

// IsRewardReconcileFailed reports whether the reward outcome could not be
// committed; the job must stay unacked so the queue redelivers it.
func IsRewardReconcileFailed(err error) bool {
	var be *BusinessError
	return errors.As(err, &be) && be.Code == "REWARD_RECONCILE_FAILED"
}
