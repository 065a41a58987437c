// Copyright (c) 2025 BVK Chaitanya

// Package errs defines the error kinds shared by the order engines and the
// exchange gateways. Callers should match on the sentinel values with
// errors.Is and extract details with errors.As.
package errs

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	ErrConfig     = errors.New("invalid configuration")
	ErrValidation = errors.New("validation failed")
	ErrGateway    = errors.New("gateway operation failed")
)

// ConfigError reports an invalid static configuration for an engine.
type ConfigError struct {
	Field  string
	Reason string
}

func NewConfigError(field, format string, args ...any) *ConfigError {
	return &ConfigError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("%s: %s: %s", ErrConfig, e.Field, e.Reason)
}

func (e *ConfigError) Is(target error) bool {
	return target == ErrConfig
}

// ValidationError reports a pre-flight input check failure for a single order
// attempt.
type ValidationError struct {
	Field  string
	Value  string
	Reason string
}

func NewValidationError(field string, value any, format string, args ...any) *ValidationError {
	return &ValidationError{
		Field:  field,
		Value:  fmt.Sprint(value),
		Reason: fmt.Sprintf(format, args...),
	}
}

func (e *ValidationError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("%s: %s: %s", ErrValidation, e.Field, e.Reason)
	}
	return fmt.Sprintf("%s: %s %q: %s", ErrValidation, e.Field, e.Value, e.Reason)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// GatewayError wraps a failure surfaced by an exchange gateway call with the
// order context it was made for.
type GatewayError struct {
	Op     string
	Symbol string
	Side   string

	Price    decimal.Decimal
	Quantity decimal.Decimal

	// Code and Message hold the exchange reported error, if any.
	Code    int
	Message string

	Err error
}

func (e *GatewayError) Error() string {
	var sb strings.Builder
	sb.WriteString(e.Op)
	if e.Symbol != "" {
		fmt.Fprintf(&sb, " %s", e.Symbol)
	}
	if e.Side != "" {
		fmt.Fprintf(&sb, " %s", e.Side)
	}
	if !e.Quantity.IsZero() {
		fmt.Fprintf(&sb, " qty=%s", e.Quantity)
	}
	if !e.Price.IsZero() {
		fmt.Fprintf(&sb, " price=%s", e.Price)
	}
	sb.WriteString(": ")
	switch {
	case e.Code != 0 || e.Message != "":
		fmt.Fprintf(&sb, "exchange error code=%d msg=%q", e.Code, e.Message)
	case e.Err != nil:
		sb.WriteString(e.Err.Error())
	default:
		sb.WriteString(ErrGateway.Error())
	}
	return sb.String()
}

func (e *GatewayError) Unwrap() error {
	return e.Err
}

func (e *GatewayError) Is(target error) bool {
	return target == ErrGateway
}

// IsConfig returns true if err is a configuration error.
func IsConfig(err error) bool {
	return errors.Is(err, ErrConfig)
}

// IsValidation returns true if err is a validation error.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}

// IsGateway returns true if err is a gateway error.
func IsGateway(err error) bool {
	return errors.Is(err, ErrGateway)
}
