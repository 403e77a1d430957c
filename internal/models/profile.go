package models

// Profile is the application-side view of an identity-provider user.
type Profile struct {
	Base
	FullName *string `gorm:"size:255;column:full_name" json:"fullName,omitempty"`
	Email    *string `gorm:"size:255;index;column:email" json:"email,omitempty"`
	Phone    *string `gorm:"size:50;column:phone" json:"phone,omitempty"`
	Role     Role    `gorm:"size:20;not null;column:role" json:"role"`
}

// TableName specifies the table name for GORM.
func (Profile) TableName() string {
	return "profiles"
}
