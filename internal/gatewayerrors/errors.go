// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package gatewayerrors defines the gateway's error taxonomy: a small
// closed set of kinds that the HTTP facade maps to status codes, plus a
// wrapped-cause error type that carries one of those kinds.
package gatewayerrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a gateway error for the purposes of HTTP status mapping
// and caller-visible diagnostics. It is not a substitute for Go's error
// wrapping; every GatewayError still carries its underlying cause.
type Kind string

const (
	BadRequest     Kind = "bad_request"
	NotFound       Kind = "not_found"
	CLINotFound    Kind = "cli_not_found"
	Connection     Kind = "connection"
	Transport      Kind = "transport"
	Parse          Kind = "parse"
	ControlRequest Kind = "control_request"
	Timeout        Kind = "timeout"
	ClaudeProcess  Kind = "claude_process"
	Config         Kind = "config"
	NotSupported   Kind = "not_supported"
	Internal       Kind = "internal"
)

// GatewayError is the error type returned from every exported gateway
// operation that can fail for a reason the caller should distinguish.
type GatewayError struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *GatewayError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *GatewayError) Unwrap() error { return e.Cause }

// New builds a GatewayError with no wrapped cause.
func New(kind Kind, message string) *GatewayError {
	return &GatewayError{Kind: kind, Message: message}
}

// Wrap builds a GatewayError around an existing error, preserving it for
// errors.Is/errors.As.
func Wrap(kind Kind, message string, cause error) *GatewayError {
	return &GatewayError{Kind: kind, Message: message, Cause: cause}
}

// Errorf is the fmt.Sprintf-style constructor used throughout the gateway:
// it formats the message and attaches a Kind but records no cause (a %w
// verb does not wrap; use Wrap to keep a cause).
func Errorf(kind Kind, format string, args ...any) *GatewayError {
	return &GatewayError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// KindOf extracts the Kind from err if it is (or wraps) a *GatewayError,
// defaulting to Internal otherwise.
func KindOf(err error) Kind {
	var ge *GatewayError
	if errors.As(err, &ge) {
		return ge.Kind
	}
	return Internal
}

// Is reports whether err is a *GatewayError of the given kind.
func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// HTTPStatus maps a Kind to the status code the HTTP facade returns,
// per spec.md §7's "User-visible failure" table.
func HTTPStatus(kind Kind) int {
	switch kind {
	case BadRequest:
		return http.StatusBadRequest
	case NotFound:
		return http.StatusNotFound
	case Timeout:
		return http.StatusGatewayTimeout
	case ClaudeProcess, Connection, Transport, CLINotFound:
		return http.StatusBadGateway
	case Config, Internal, Parse, ControlRequest:
		return http.StatusInternalServerError
	case NotSupported:
		return http.StatusNotImplemented
	default:
		return http.StatusInternalServerError
	}
}
