package booking

import (
	"errors"
	"strings"
)

// Status is a booking status as delivered by the booking feed.
type Status string

const (
	StatusPending    Status = "pending"
	StatusAccepted   Status = "accepted"
	StatusArrived    Status = "arrived"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
)

var ErrInvalidStatus = errors.New("invalid booking status")

// ParseStatus normalizes (lowercases+trims) and validates a status string.
func ParseStatus(in string) (Status, error) {
	status := Status(strings.ToLower(strings.TrimSpace(in)))
	if status.Valid() {
		return status, nil
	}
	return "", ErrInvalidStatus
}

// Valid reports whether status is one of the allowed booking status constants.
func (status Status) Valid() bool {
	switch status {
	case StatusPending, StatusAccepted, StatusArrived, StatusInProgress, StatusCompleted:
		return true
	default:
		return false
	}
}

// String returns the string representation of the Status.
func (status Status) String() string {
	return string(status)
}

// CanTransitionTo specifies if the status can transition to the next status.
// The driver lifecycle is strictly linear; everything else is rejected.
func (status Status) CanTransitionTo(next Status) bool {
	switch status {
	case StatusPending:
		return next == StatusAccepted

	case StatusAccepted:
		return next == StatusArrived

	case StatusArrived:
		return next == StatusInProgress

	case StatusInProgress:
		return next == StatusCompleted

	default:
		return false
	}
}

// Active indicates that a booking in this status occupies the driver's
// single active-trip slot.
func (status Status) Active() bool {
	switch status {
	case StatusAccepted, StatusArrived, StatusInProgress:
		return true
	default:
		return false
	}
}

// Terminal indicates if the status is in a terminal state.
func (status Status) Terminal() bool {
	return status == StatusCompleted
}
