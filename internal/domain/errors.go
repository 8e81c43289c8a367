// Package domain provides shared domain-level sentinel errors.
package domain

import "errors"

// ErrNotFound indicates the requested entity does not exist.
var ErrNotFound = errors.New("not found")

// ErrValidation indicates a malformed request. Wrapped errors carry the
// field-level detail after a ": " separator.
var ErrValidation = errors.New("validation failed")

// ErrSubscriptionRequired indicates the caller lacks the paid entitlement a
// multi-city plan needs.
var ErrSubscriptionRequired = errors.New("subscription required")
