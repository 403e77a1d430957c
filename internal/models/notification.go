package models

import "gorm.io/datatypes"

// Notification is one message sent to one recipient. Only Read may change after creation.
type Notification struct {
	Base
	UserID         *string           `gorm:"size:36;index;column:user_id" json:"userId,omitempty"`
	User           *Profile          `gorm:"foreignKey:UserID" json:"-"`
	TenantID       *string           `gorm:"size:36;index;column:tenant_id" json:"tenantId,omitempty"`
	Tenant         *Tenant           `gorm:"foreignKey:TenantID" json:"-"`
	Type           NotificationType  `gorm:"size:20;not null;column:type" json:"type"`
	Title          string            `gorm:"size:255;not null;column:title" json:"title"`
	Message        string            `gorm:"type:text;not null;column:message" json:"message"`
	Recipient      string            `gorm:"size:255;column:recipient" json:"recipient"`
	DeliveryID     *string           `gorm:"size:100;column:delivery_id" json:"deliveryId,omitempty"`
	DeliveryStatus DeliveryStatus    `gorm:"size:20;not null;column:delivery_status" json:"deliveryStatus"`
	DeliveryError  *string           `gorm:"type:text;column:delivery_error" json:"deliveryError,omitempty"`
	Variables      datatypes.JSONMap `gorm:"column:variables" json:"variables,omitempty"`
	Read           bool              `gorm:"not null;column:read" json:"read"`
}

// TableName specifies the table name for GORM.
func (Notification) TableName() string {
	return "notifications"
}
