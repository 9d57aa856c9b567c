package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vijay-prabhu/bursary-matcher/internal/embeddings"
	"github.com/vijay-prabhu/bursary-matcher/internal/matching"
)

// Code is a machine-readable error class in API responses
type Code string

const (
	CodeInvalidArgument Code = "INVALID_ARGUMENT"
	CodeNotFound        Code = "NOT_FOUND"
	CodeProvider        Code = "PROVIDER_FAILED"
	CodeUnavailable     Code = "UNAVAILABLE"
	CodeTimeout         Code = "TIMEOUT"
	CodeInternal        Code = "INTERNAL"
)

var errNotFound = errors.New("not found")

// APIError is the JSON error body
type APIError struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
}

// requestError is a problem with the request itself
type requestError struct {
	msg string
	err error
}

func (e *requestError) Error() string {
	if e.err != nil {
		return e.msg + ": " + e.err.Error()
	}
	return e.msg
}

func (e *requestError) Unwrap() error { return e.err }

func badRequest(msg string, err error) error {
	return &requestError{msg: msg, err: err}
}

// classify maps an error to its status, code and client-safe message
func classify(err error) (int, Code, string) {
	var reqErr *requestError
	var provErr *matching.ProviderError

	switch {
	case errors.As(err, &reqErr):
		return http.StatusBadRequest, CodeInvalidArgument, reqErr.Error()
	case errors.Is(err, matching.ErrUserRequired), errors.Is(err, matching.ErrUnknownStrategy):
		return http.StatusBadRequest, CodeInvalidArgument, err.Error()
	case errors.Is(err, errNotFound):
		return http.StatusNotFound, CodeNotFound, err.Error()
	case errors.Is(err, embeddings.ErrDisabled):
		return http.StatusServiceUnavailable, CodeUnavailable, err.Error()
	case errors.As(err, &provErr):
		return http.StatusBadGateway, CodeProvider, provErr.Error()
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, CodeTimeout, "request timed out"
	default:
		return http.StatusInternalServerError, CodeInternal, http.StatusText(http.StatusInternalServerError)
	}
}

func writeError(c *gin.Context, err error) {
	status, code, msg := classify(err)
	_ = c.Error(err)
	c.AbortWithStatusJSON(status, APIError{Code: code, Message: msg})
}
