package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Base holds the columns shared by every mutable table.
// IDs are opaque UUID strings assigned on insert when the caller leaves them empty.
type Base struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	CreatedAt time.Time `gorm:"column:created_at" json:"createdAt"`
	UpdatedAt time.Time `gorm:"column:updated_at" json:"updatedAt"`
}

// BeforeCreate assigns a new UUID when none was supplied.
func (b *Base) BeforeCreate(_ *gorm.DB) error {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	return nil
}

// GetID returns the record id.
func (b *Base) GetID() string { return b.ID }

// All returns one zero value of every persisted model, in dependency order.
// It is the single schema definition used by migrations.
func All() []interface{} {
	return []interface{}{
		&Profile{},
		&Property{},
		&Tenant{},
		&Bill{},
		&Payment{},
		&Notification{},
	}
}
