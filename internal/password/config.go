package password

import (
	"fmt"

	dErrors "pwreset/pkg/domain-errors"
)

const (
	DefaultMinLength        = 8
	DefaultMaxLength        = 32
	DefaultRequiredCriteria = 4
)

// indicatorCount is the number of displayed checklist indicators.
const indicatorCount = 5

// Config is the threshold policy. It is copied into the Engine on
// construction; changing a policy means building a new Engine.
//
// With RequireLength unset, RequiredCriteria counts all five indicators.
// With RequireLength set, the length/whitespace indicator must be met and
// RequiredCriteria counts only the four character-class indicators.
type Config struct {
	MinLength        int
	MaxLength        int
	RequiredCriteria int
	RequireLength    bool
}

// DefaultConfig returns the 8-32 characters, 4 of 5 indicators policy.
func DefaultConfig() Config {
	return Config{
		MinLength:        DefaultMinLength,
		MaxLength:        DefaultMaxLength,
		RequiredCriteria: DefaultRequiredCriteria,
	}
}

// Validate checks the policy bounds.
func (c Config) Validate() error {
	if c.MinLength < 0 {
		return dErrors.New(dErrors.CodeInvalidConfig, "min length must not be negative")
	}
	if c.MaxLength < 1 {
		return dErrors.New(dErrors.CodeInvalidConfig, "max length must be positive")
	}
	if c.MaxLength < c.MinLength {
		return dErrors.New(dErrors.CodeInvalidConfig,
			fmt.Sprintf("max length %d is below min length %d", c.MaxLength, c.MinLength))
	}
	if c.RequiredCriteria < 0 || c.RequiredCriteria > c.countedIndicators() {
		return dErrors.New(dErrors.CodeInvalidConfig,
			fmt.Sprintf("required criteria must be between 0 and %d", c.countedIndicators()))
	}
	return nil
}

// countedIndicators is how many indicators RequiredCriteria is compared against.
func (c Config) countedIndicators() int {
	if c.RequireLength {
		return indicatorCount - 1
	}
	return indicatorCount
}
