package authorize

import "github.com/muthu-2006-p/employeetimesheettracker-sub000/config"

// Config holds configuration for the authorization system
type Config struct {
	// EnableAudit enables audit logging for all authorization decisions
	EnableAudit bool

	// PolicyPath optionally points at a CSV policy file loaded on top of the defaults
	PolicyPath string
}

// DefaultConfig returns sensible defaults for authorization configuration
func DefaultConfig() Config {
	return Config{
		EnableAudit: true,
	}
}

// FromCentralConfig converts central config.AuthorizationConfig to package Config
func FromCentralConfig(c config.AuthorizationConfig) Config {
	return Config{
		EnableAudit: c.EnableAudit,
		PolicyPath:  c.PolicyPath,
	}
}
