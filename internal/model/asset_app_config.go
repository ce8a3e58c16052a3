package model

import (
	"time"

	"gorm.io/datatypes"
)

// AssetAppConfig is a stored configuration record. Values holds the static
// item definitions and StateValues their mutable runtime state, both as JSON
// arrays that are kept index-aligned.
type AssetAppConfig struct {
	PublicID    string         `gorm:"primaryKey;size:64"`
	Values      datatypes.JSON `gorm:"not null"`
	StateValues datatypes.JSON `gorm:"not null"`
	CreatedAt   time.Time      `gorm:"not null"`
	UpdatedAt   time.Time      `gorm:"not null"`
}
