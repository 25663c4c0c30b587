// Package common provides shared utilities used across all features
package common

import (
	"fmt"
	"net/http"
)

// HttpError represents an HTTP error with status code and message
type HttpError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *HttpError) Error() string {
	return fmt.Sprintf("HTTP error: %d %s %s", e.StatusCode, e.Code, e.Message)
}

func messageOrDefault(msg string, defaultMsg string) string {
	if msg != "" {
		return msg
	}
	return defaultMsg
}

func HTTPErrorBadRequest(code, msg string) *HttpError {
	return &HttpError{
		StatusCode: http.StatusBadRequest,
		Code:       code,
		Message:    messageOrDefault(msg, "Bad request"),
	}
}

func HTTPErrorNotFound(code, msg string) *HttpError {
	return &HttpError{
		StatusCode: http.StatusNotFound,
		Code:       code,
		Message:    messageOrDefault(msg, "Not found"),
	}
}

func HTTPErrorUnprocessable(code, msg string) *HttpError {
	return &HttpError{
		StatusCode: http.StatusUnprocessableEntity,
		Code:       code,
		Message:    messageOrDefault(msg, "Unprocessable request"),
	}
}

// HTTPErrorUpstream is used when a quote, pool or chain collaborator cannot be reached.
func HTTPErrorUpstream(code, msg string) *HttpError {
	return &HttpError{
		StatusCode: http.StatusBadGateway,
		Code:       code,
		Message:    messageOrDefault(msg, "Upstream unavailable"),
	}
}

func HTTPErrorInternalError(code, msg string) *HttpError {
	return &HttpError{
		StatusCode: http.StatusInternalServerError,
		Code:       code,
		Message:    messageOrDefault(msg, "Internal server error"),
	}
}

func HTTPErrorServiceUnavailable(code, msg string) *HttpError {
	return &HttpError{
		StatusCode: http.StatusServiceUnavailable,
		Code:       code,
		Message:    messageOrDefault(msg, "Service unavailable"),
	}
}
