package repository

import "errors"

// Common repository errors
var (
	// ErrUserNotFound is returned when a targeted user row does not exist
	ErrUserNotFound = errors.New("user not found")

	// ErrTaskNotFound is returned when a targeted task row does not exist
	ErrTaskNotFound = errors.New("task not found")
)
