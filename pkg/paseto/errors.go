package pasetotoken

import "fmt"

// ErrConfig reports unusable key material or manager settings.
type ErrConfig struct{ Msg string }

func (e ErrConfig) Error() string { return "paseto config error: " + e.Msg }

func configError(format string, args ...any) ErrConfig {
	return ErrConfig{Msg: fmt.Sprintf(format, args...)}
}

// ErrInvalidToken wraps any parse, signature or claim failure from Verify.
// The middleware maps it to 401 without inspecting the cause.
type ErrInvalidToken struct{ Err error }

func (e ErrInvalidToken) Error() string { return "invalid token: " + e.Err.Error() }
func (e ErrInvalidToken) Unwrap() error { return e.Err }
