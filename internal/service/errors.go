package service

import "errors"

// Common service errors
var (
	// ErrPermissionDenied is returned when a user doesn't have permission for an action
	ErrPermissionDenied = errors.New("permission denied")

	// ErrNotFound is returned when a resource is not found
	ErrNotFound = errors.New("resource not found")

	// ErrInvalidInput is returned when input validation fails
	ErrInvalidInput = errors.New("invalid input")

	// ErrConflict is returned when there's a conflict (e.g., duplicate)
	ErrConflict = errors.New("resource conflict")

	// ErrUnauthorized is returned when user is not authenticated
	ErrUnauthorized = errors.New("unauthorized")

	// ErrUserNotFound is returned when a user is not found
	ErrUserNotFound = errors.New("user not found")

	// ErrInvalidStatus is returned when a prospect status value is not recognized
	ErrInvalidStatus = errors.New("invalid prospect status")

	// ErrInvalidStage is returned when a stage value is not recognized
	ErrInvalidStage = errors.New("invalid stage")

	// ErrProspectConverted is returned when mutating a converted prospect
	ErrProspectConverted = errors.New("prospect has already been converted")

	// ErrInvalidCursor is returned when a pagination cursor cannot be decoded
	ErrInvalidCursor = errors.New("invalid pagination cursor")

	// ErrExportTooLarge is returned when an export would exceed the configured row cap
	ErrExportTooLarge = errors.New("export exceeds maximum row count")
)
