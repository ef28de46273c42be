package ride

import "errors"

var (
	ErrInvalidLocation   = errors.New("pickup or dropoff location missing")
	ErrUnknownStatus     = errors.New("invalid ride status")
	ErrRideNotFound      = errors.New("ride not found")
	ErrUnmodifiedStatus  = errors.New("unmodified ride status")
	ErrInvalidTransition = errors.New("ride status may not move backwards")
)
