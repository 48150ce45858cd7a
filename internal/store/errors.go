package store

import "errors"

var (
	ErrVenueNotFound       = errors.New("venue not found")
	ErrQueueNotFound       = errors.New("queue not found")
	ErrQueueInactive       = errors.New("queue inactive")
	ErrReservationNotFound = errors.New("reservation not found")
	ErrInvalidState        = errors.New("invalid reservation state")
	ErrNegativeCount       = errors.New("queue count below zero")
)
