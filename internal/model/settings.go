package model

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

// ReviewFrequency is the review cadence.
type ReviewFrequency string

const (
	FrequencyDaily   ReviewFrequency = "daily"
	FrequencyWeekly  ReviewFrequency = "weekly"
	FrequencyMonthly ReviewFrequency = "monthly"
)

// Span returns the fixed length of the review window for the frequency.
// Anything that is not daily or weekly is treated as monthly.
func (f ReviewFrequency) Span() time.Duration {
	switch f {
	case FrequencyDaily:
		return 24 * time.Hour
	case FrequencyWeekly:
		return 7 * 24 * time.Hour
	default:
		return 30 * 24 * time.Hour
	}
}

// Valid reports whether f is one of the known frequencies.
func (f ReviewFrequency) Valid() bool {
	switch f {
	case FrequencyDaily, FrequencyWeekly, FrequencyMonthly:
		return true
	}
	return false
}

// ParseFrequency converts user input into a ReviewFrequency.
func ParseFrequency(s string) (ReviewFrequency, error) {
	f := ReviewFrequency(s)
	if !f.Valid() {
		return "", fmt.Errorf("unknown review frequency %q", s)
	}
	return f, nil
}

// AppSettings is the singleton settings record.
type AppSettings struct {
	ReviewFrequency ReviewFrequency `json:"reviewFrequency" yaml:"reviewFrequency" validate:"required,oneof=daily weekly monthly"`
	ReviewTime      string          `json:"reviewTime" yaml:"reviewTime" validate:"required,datetime=15:04"`
}

// DefaultSettings is used until the user saves their own settings.
func DefaultSettings() AppSettings {
	return AppSettings{
		ReviewFrequency: FrequencyDaily,
		ReviewTime:      "20:00",
	}
}

var validate = validator.New()

// Validate checks the frequency enum and the HH:MM review time.
func (s AppSettings) Validate() error {
	if err := validate.Struct(s); err != nil {
		return fmt.Errorf("invalid settings: %w", err)
	}
	return nil
}

// ReviewClock returns the hour and minute of ReviewTime.
func (s AppSettings) ReviewClock() (hour, minute int, err error) {
	t, err := time.Parse("15:04", s.ReviewTime)
	if err != nil {
		return 0, 0, fmt.Errorf("parse review time %q: %w", s.ReviewTime, err)
	}
	return t.Hour(), t.Minute(), nil
}
