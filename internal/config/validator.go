package config

import (
	"fmt"
	"strings"
)

// Validator validates configuration values
type Validator struct{}

// NewValidator creates a new validator
func NewValidator() *Validator {
	return &Validator{}
}

// ValidateSigningSecret validates a webhook signing secret
func (v *Validator) ValidateSigningSecret(secret string, source string) error {
	if secret == "" {
		return fmt.Errorf("%s signing secret cannot be empty", source)
	}
	if len(secret) < 8 {
		return fmt.Errorf("%s signing secret is suspiciously short", source)
	}
	return nil
}

// ValidateSlackToken validates a Slack bot token
func (v *Validator) ValidateSlackToken(token string) error {
	if token == "" {
		return fmt.Errorf("slack API key cannot be empty")
	}

	// Bot tokens start with xoxb-, user tokens with xoxp-
	if !strings.HasPrefix(token, "xoxb-") && !strings.HasPrefix(token, "xoxp-") {
		return fmt.Errorf("invalid Slack token format (should start with xoxb- or xoxp-)")
	}

	return nil
}
