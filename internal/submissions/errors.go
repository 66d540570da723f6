package submissions

import "errors"

var (
	ErrRateLimited        = errors.New("rate limited")
	ErrSpamDetected       = errors.New("spam detected")
	ErrValidationFailed   = errors.New("validation failed")
	ErrPersistenceFailed  = errors.New("persistence failed")
	ErrNotificationFailed = errors.New("notification failed")
)
