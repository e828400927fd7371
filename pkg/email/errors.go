package email

import "fmt"

// ErrDisabled is returned by Send when email is turned off in config.
type ErrDisabled struct{}

func (ErrDisabled) Error() string { return "email is disabled" }

// ErrConfig rejects an enabled client with incomplete SMTP settings.
type ErrConfig struct{ Reason string }

func (e ErrConfig) Error() string { return "email config: " + e.Reason }

type ErrInvalidMessage struct{ Reason string }

func (e ErrInvalidMessage) Error() string { return "invalid email message: " + e.Reason }

// ErrSend wraps a transport failure from the SMTP dialer.
type ErrSend struct {
	Provider string
	Err      error
}

func (e ErrSend) Error() string { return fmt.Sprintf("email send via %s: %v", e.Provider, e.Err) }
func (e ErrSend) Unwrap() error { return e.Err }
