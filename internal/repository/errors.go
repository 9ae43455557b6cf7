// Package repository contains the data access layer, separated from HTTP
// handlers. This file defines error values shared across repositories.
// Sentinel errors let handlers map failures onto HTTP statuses without
// inspecting driver-specific error strings themselves.
package repository

import "errors"

// ErrConflict is returned when a write collides with existing state,
// such as creating a tag whose value is already taken. Handlers should
// translate this into an HTTP 409 response.
var ErrConflict = errors.New("conflict")

// ErrValidation is returned when input fails a repository-level check
// before any write happens (empty place name, malformed tag slug).
// Handlers should translate this into an HTTP 400 response.
var ErrValidation = errors.New("validation failed")
