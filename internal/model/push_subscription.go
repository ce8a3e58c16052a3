package model

import "time"

// PushSubscription holds the information for a browser push subscription.
type PushSubscription struct {
	Endpoint  string    `gorm:"primaryKey"`
	P256DH    string    `gorm:"column:p256dh;not null"`
	Auth      string    `gorm:"not null"`
	CreatedAt time.Time `gorm:"not null"`

	// Associations
	Configs []SubscriptionConfig `gorm:"foreignKey:Endpoint;constraint:OnDelete:CASCADE"`
}

// SubscriptionConfig links a push subscription to a configuration record
// whose items it wants alerts for.
type SubscriptionConfig struct {
	Endpoint string `gorm:"primaryKey"`
	ConfigID string `gorm:"primaryKey;size:64"`
}
