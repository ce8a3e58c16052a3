package store

import (
	"errors"

	"wear-and-tear-backend/internal/wear"
)

// ErrConfigNotFound is returned when no configuration record has the requested public id.
var ErrConfigNotFound = errors.New("config not found")

// ErrInvalidSequence is returned when a patched sequence is not a JSON array.
var ErrInvalidSequence = errors.New("sequence is not a JSON array")

// Alert is raised when an item's wear level escalates to warning or exceeded.
type Alert struct {
	ItemID    string     `json:"itemId"`
	ConfigID  string     `json:"configId"`
	Name      string     `json:"name"`
	Level     wear.Level `json:"level"`
	Usage     float64    `json:"usage"`
	Remaining float64    `json:"remaining"`
}

// ConfigPatch updates selected fields of a configuration record. Both
// sequences are carried as JSON-encoded strings, as on the platform API.
type ConfigPatch struct {
	PublicID    string  `json:"publicId"`
	Values      *string `json:"values,omitempty"`
	StateValues *string `json:"stateValues,omitempty"`
}
