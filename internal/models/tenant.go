package models

import "gorm.io/datatypes"

// Tenant is a person or business occupying a unit of a property.
type Tenant struct {
	Base
	UserID           *string         `gorm:"size:36;index;column:user_id" json:"userId,omitempty"`
	User             *Profile        `gorm:"foreignKey:UserID" json:"-"`
	PropertyID       *string         `gorm:"size:36;index;column:property_id" json:"propertyId,omitempty"`
	Property         *Property       `gorm:"foreignKey:PropertyID" json:"property,omitempty"`
	FullName         string          `gorm:"size:255;not null;index;column:full_name" json:"fullName"`
	Phone            string          `gorm:"size:50;not null;column:phone" json:"phone"`
	Email            *string         `gorm:"size:255;column:email" json:"email,omitempty"`
	NationalID       *string         `gorm:"size:50;column:national_id" json:"nationalId,omitempty"`
	EmergencyContact *string         `gorm:"size:255;column:emergency_contact" json:"emergencyContact,omitempty"`
	EmergencyPhone   *string         `gorm:"size:50;column:emergency_phone" json:"emergencyPhone,omitempty"`
	Unit             string          `gorm:"size:100;column:unit" json:"unit"`
	MonthlyRent      int64           `gorm:"not null;column:monthly_rent" json:"monthlyRent"`
	DepositPaid      int64           `gorm:"not null;column:deposit_paid" json:"depositPaid"`
	LeaseStart       *datatypes.Date `gorm:"column:lease_start" json:"leaseStart,omitempty"`
	LeaseEnd         *datatypes.Date `gorm:"column:lease_end" json:"leaseEnd,omitempty"`
	Status           TenantStatus    `gorm:"size:20;not null;column:status" json:"status"`
}

// TableName specifies the table name for GORM.
func (Tenant) TableName() string {
	return "tenants"
}

// PropertyName returns the name of the preloaded property, or "" when absent.
func (t Tenant) PropertyName() string {
	if t.Property == nil {
		return ""
	}
	return t.Property.Name
}
