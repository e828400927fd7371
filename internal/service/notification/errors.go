package notification

import "errors"

var (
	ErrNotFound     = errors.New("notification not found")
	ErrInvalidEvent = errors.New("notification event is missing user or type")
	ErrMissingUser  = errors.New("notification prefs require a user")
)
