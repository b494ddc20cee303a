// Package domain provides shared domain-level sentinel errors.
package domain

import "errors"

// ErrValidation indicates the caller supplied malformed input. The wrapped
// message is safe to echo back to the client.
var ErrValidation = errors.New("validation error")

// ErrUpstream indicates the upstream news service returned an error or could
// not be reached.
var ErrUpstream = errors.New("upstream error")

// ErrTimeout indicates an outbound call exceeded its deadline.
var ErrTimeout = errors.New("upstream timeout")

// ErrNotConfigured indicates a required server-side credential is missing.
var ErrNotConfigured = errors.New("not configured")
