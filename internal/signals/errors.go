package signals

import "errors"

var (
	ErrMissingTicker   = errors.New("ticker is required")
	ErrDuplicateTicker = errors.New("ticker already exists")
	ErrNotFound        = errors.New("record not found")

	ErrClosePrecondition = errors.New("signal needs buy price and buy amount to close")
	ErrInvalidClosePrice = errors.New("close price must be a finite number")
	ErrMissingCloseDate  = errors.New("close date is required")
)
