package types

import (
	"errors"
	"net/http"
)

type ErrorCode string

func (e ErrorCode) String() string {
	return string(e)
}

const (
	InternalServiceError ErrorCode = "INTERNAL_SERVICE_ERROR"
	ValidationError      ErrorCode = "VALIDATION_ERROR"
	NotFound             ErrorCode = "NOT_FOUND"
	BadRequest           ErrorCode = "BAD_REQUEST"
	Unauthorized         ErrorCode = "UNAUTHORIZED"

	InvalidBorrower        ErrorCode = "INVALID_BORROWER"
	InsufficientCollateral ErrorCode = "INSUFFICIENT_COLLATERAL"
	RiskTooHigh            ErrorCode = "RISK_TOO_HIGH"
	MarketVolatility       ErrorCode = "MARKET_VOLATILITY"
)

// Error carries the HTTP status and machine-readable code a failure should
// surface with at the API boundary.
type Error struct {
	Err        error
	StatusCode int
	ErrorCode  ErrorCode
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return "internal server error"
}

func (e *Error) Unwrap() error {
	return e.Err
}

func NewError(statusCode int, errorCode ErrorCode, err error) *Error {
	return &Error{Err: err, StatusCode: statusCode, ErrorCode: errorCode}
}

func NewErrorWithMsg(statusCode int, errorCode ErrorCode, msg string) *Error {
	return NewError(statusCode, errorCode, errors.New(msg))
}

func NewInternalServiceError(err error) *Error {
	return &Error{
		Err:        err,
		StatusCode: http.StatusInternalServerError,
		ErrorCode:  InternalServiceError,
	}
}

func NewValidationFailedError(err error) *Error {
	return &Error{
		Err:        err,
		StatusCode: http.StatusBadRequest,
		ErrorCode:  ValidationError,
	}
}

func NewUnauthorizedError(err error) *Error {
	return &Error{
		Err:        err,
		StatusCode: http.StatusForbidden,
		ErrorCode:  Unauthorized,
	}
}
