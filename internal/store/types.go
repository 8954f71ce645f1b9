package store

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

var ErrNotFound = errors.New("schedule not found")

// Frequency is how often a schedule's recurring trigger fires.
type Frequency string

const (
	FreqDaily   Frequency = "daily"
	FreqWeekly  Frequency = "weekly"
	FreqMonthly Frequency = "monthly"
)

func (f Frequency) Valid() bool {
	switch f {
	case FreqDaily, FreqWeekly, FreqMonthly:
		return true
	}
	return false
}

// Config configures the schedule store.
//
// Driver values:
//   - "file": JSON map file, rewritten as a whole on every mutation
//   - "sqlite": SQLite database file (optional build tag)
//
// If Driver is empty, "file" is assumed.
type Config struct {
	Driver      string
	Path        string
	BusyTimeout time.Duration // sqlite only; 0 means default
}

// Schedule is one persisted analysis definition.
//
// JSON field names match the wire format of the control API and the
// on-disk schedules file (camelCase, months for the lookback window).
type Schedule struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	APIKey         string    `json:"apiKey"`
	Channels       []string  `json:"channels"`
	LookbackMonths int       `json:"months"`
	Frequency      Frequency `json:"frequency"`
	SendTime       string    `json:"sendTime"` // wall clock "HH:MM"
	Email          string    `json:"email"`
	Active         bool      `json:"active"`
	CreatedAt      time.Time `json:"createdAt"`
}

// Validate checks the fields required at creation time.
// A schedule that fails validation must never reach the scheduler.
func (s Schedule) Validate() error {
	if strings.TrimSpace(s.Name) == "" {
		return errors.New("name is required")
	}
	if strings.TrimSpace(s.APIKey) == "" {
		return errors.New("apiKey is required")
	}
	if len(s.Channels) == 0 {
		return errors.New("at least one channel is required")
	}
	for _, c := range s.Channels {
		if strings.TrimSpace(c) == "" {
			return errors.New("channel names must be non-empty")
		}
	}
	if !s.Frequency.Valid() {
		return fmt.Errorf("invalid frequency %q", s.Frequency)
	}
	if strings.TrimSpace(s.Email) == "" {
		return errors.New("email is required")
	}
	if s.LookbackMonths <= 0 {
		return errors.New("months must be positive")
	}
	if _, _, err := ParseSendTime(s.SendTime); err != nil {
		return err
	}
	return nil
}

// ParseSendTime parses a wall-clock "HH:MM" string.
func ParseSendTime(s string) (hour int, minute int, err error) {
	s = strings.TrimSpace(s)
	parts := strings.Split(s, ":")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid time %q, expected HH:MM", s)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return 0, 0, fmt.Errorf("invalid hour in %q", s)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0, 0, fmt.Errorf("invalid minute in %q", s)
	}
	return h, m, nil
}
