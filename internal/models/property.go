package models

// Property is a building or complex that is let out unit by unit.
// All nullable fields use pointers to distinguish between zero values and NULL.
type Property struct {
	Base
	OwnerID       *string        `gorm:"size:36;index;column:owner_id" json:"ownerId,omitempty"`
	Owner         *Profile       `gorm:"foreignKey:OwnerID" json:"-"`
	Name          string         `gorm:"size:255;not null;index;column:name" json:"name"`
	Type          PropertyType   `gorm:"size:20;not null;column:type" json:"type"`
	Address       string         `gorm:"type:text;not null;column:address" json:"address"`
	Description   *string        `gorm:"type:text;column:description" json:"description,omitempty"`
	Amenities     StringList     `gorm:"column:amenities" json:"amenities"`
	TotalUnits    int            `gorm:"not null;column:total_units" json:"totalUnits"`
	OccupiedUnits int            `gorm:"not null;column:occupied_units" json:"occupiedUnits"`
	MonthlyRent   int64          `gorm:"not null;column:monthly_rent" json:"monthlyRent"`
	DepositAmount *int64         `gorm:"column:deposit_amount" json:"depositAmount,omitempty"`
	Status        PropertyStatus `gorm:"size:20;not null;column:status" json:"status"`
}

// TableName specifies the table name for GORM.
func (Property) TableName() string {
	return "properties"
}

// IsCommercial reports whether VAT applies to bills for this property.
func (p Property) IsCommercial() bool {
	return p.Type == PropertyCommercial
}
