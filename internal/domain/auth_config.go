package domain

import (
	"fmt"
	"strings"
)

// Environment selects the M-Pesa host a client talks to
type Environment string

const (
	EnvironmentSandbox    Environment = "sandbox"
	EnvironmentProduction Environment = "production"
)

// ParseEnvironment maps a configuration value to an Environment.
// Empty input selects the sandbox.
func ParseEnvironment(value string) (Environment, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "sandbox":
		return EnvironmentSandbox, nil
	case "production":
		return EnvironmentProduction, nil
	default:
		return "", NewDomainError(ErrorCodeConfigError, fmt.Sprintf("unknown environment %q", value))
	}
}

// AuthConfig holds the resolved credentials for one M-Pesa application.
// It is treated as an immutable value once constructed.
type AuthConfig struct {
	ConsumerKey    string
	ConsumerSecret string
	Passkey        string // STK passkey used to derive the transaction password
	Environment    Environment
}

// IsSandbox reports whether the config targets the sandbox host
func (c AuthConfig) IsSandbox() bool {
	return c.Environment != EnvironmentProduction
}

// Validate checks that the credentials needed for the token endpoint are present
func (c AuthConfig) Validate() error {
	if strings.TrimSpace(c.ConsumerKey) == "" {
		return NewDomainError(ErrorCodeConfigError, "consumer key is required")
	}
	if strings.TrimSpace(c.ConsumerSecret) == "" {
		return NewDomainError(ErrorCodeConfigError, "consumer secret is required")
	}
	return nil
}
