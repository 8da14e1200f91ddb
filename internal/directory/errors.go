package directory

import "errors"

var (
	ErrUnknownBooking    = errors.New("unknown booking id")
	ErrIllegalTransition = errors.New("illegal booking status transition")
	ErrActiveTripExists  = errors.New("another trip is already active")
	ErrClosed            = errors.New("booking directory is closed")
)
