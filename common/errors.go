package common

import (
	"errors"
	"fmt"
)

//
// Base Types
//

type BaseError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Cause   error                  `json:"cause"`
	Details map[string]interface{} `json:"details"`
}

func (e *BaseError) Unwrap() error {
	return e.Cause
}

func (e *BaseError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %s", e.Code, e.Message, e.Cause.Error())
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *BaseError) CodeChain() string {
	if e.Cause != nil {
		if be, ok := e.Cause.(*BaseError); ok {
			return fmt.Sprintf("%s <- %s", e.Code, be.CodeChain())
		}
	}

	return e.Code
}

func (e *BaseError) ErrorCode() string {
	return e.Code
}

// HasCode reports whether code appears anywhere in the error chain. Typed
// errors embed BaseError, so the promoted ErrorCode/Unwrap pair walks
// through every wrapper.
func HasCode(err error, code string) bool {
	for err != nil {
		if ce, ok := err.(interface{ ErrorCode() string }); ok && ce.ErrorCode() == code {
			return true
		}
		err = errors.Unwrap(err)
	}
	return false
}

//
// Reference / decoding errors
//

type ErrInvalidJson struct{ BaseError }

var NewErrInvalidJson = func(cause error) error {
	return &ErrInvalidJson{
		BaseError{
			Code:    "ErrInvalidJson",
			Message: "failed to parse body as json",
			Cause:   cause,
		},
	}
}

type ErrNoReference struct{ BaseError }

var NewErrNoReference = func() error {
	return &ErrNoReference{
		BaseError{
			Code:    "ErrNoReference",
			Message: "on-chain record carries no metadata reference",
		},
	}
}

//
// Fetch / resolution errors
//

// ErrFetchFailed covers every way a single candidate URL can fail: timeout,
// connection error, non-2xx status, or a body that is not parseable JSON.
// Callers treat all of these identically and move to the next candidate.
type ErrFetchFailed struct{ BaseError }

var NewErrFetchFailed = func(cause error, url string, statusCode int) error {
	return &ErrFetchFailed{
		BaseError{
			Code:    "ErrFetchFailed",
			Message: "candidate url did not yield a json document",
			Cause:   cause,
			Details: map[string]interface{}{
				"url":        url,
				"statusCode": statusCode,
			},
		},
	}
}

func (e *ErrFetchFailed) ErrorStatusCode() int {
	if sc, ok := e.Details["statusCode"].(int); ok && sc > 0 {
		return sc
	}
	return 503
}

type ErrResolutionExhausted struct{ BaseError }

var NewErrResolutionExhausted = func(reference string, attempts int, lastErr error) error {
	return &ErrResolutionExhausted{
		BaseError{
			Code:    "ErrResolutionExhausted",
			Message: "all gateway candidates failed for reference",
			Cause:   lastErr,
			Details: map[string]interface{}{
				"reference": reference,
				"attempts":  attempts,
			},
		},
	}
}

//
// Failsafe errors (policy construction and translation)
//

type ErrFailsafeConfiguration struct{ BaseError }

var NewErrFailsafeConfiguration = func(cause error, details map[string]interface{}) error {
	return &ErrFailsafeConfiguration{
		BaseError{
			Code:    "ErrFailsafeConfiguration",
			Message: "failed to configure failsafe policy",
			Cause:   cause,
			Details: details,
		},
	}
}

type ErrFailsafeTimeoutExceeded struct{ BaseError }

var NewErrFailsafeTimeoutExceeded = func(cause error) error {
	return &ErrFailsafeTimeoutExceeded{
		BaseError{
			Code:    "ErrFailsafeTimeoutExceeded",
			Message: "failsafe timeout policy exceeded",
			Cause:   cause,
		},
	}
}

type ErrFailsafeRetryExceeded struct{ BaseError }

var NewErrFailsafeRetryExceeded = func(cause error) error {
	return &ErrFailsafeRetryExceeded{
		BaseError{
			Code:    "ErrFailsafeRetryExceeded",
			Message: "failsafe retry policy exceeded",
			Cause:   cause,
		},
	}
}
