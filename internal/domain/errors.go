// Package domain provides shared domain-level sentinel errors.
package domain

import "errors"

// ErrNotFound indicates the requested entity does not exist.
var ErrNotFound = errors.New("not found")

// ErrValidation indicates that user input failed validation.
var ErrValidation = errors.New("validation failed")

// ErrNoTasks is returned when a prioritization round is requested for an empty task set.
var ErrNoTasks = errors.New("no tasks to prioritize")

// ErrInFlight is returned when a prioritization round is already outstanding.
var ErrInFlight = errors.New("prioritization already in progress")
