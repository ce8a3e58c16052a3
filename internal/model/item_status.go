package model

import "time"

// ItemStatus is the most recently evaluated wear level of an item (hot table).
type ItemStatus struct {
	ItemID     string    `gorm:"primaryKey;size:64"`
	ConfigID   string    `gorm:"index;size:64;not null"`
	Name       string    `gorm:"size:256;not null"`
	Level      string    `gorm:"size:16;not null"`
	Usage      float64   `gorm:"not null"`
	Remaining  float64   `gorm:"not null"`
	ObservedAt time.Time `gorm:"not null"`
}
