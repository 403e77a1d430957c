package models

import (
	"fmt"
	"strings"

	"gorm.io/datatypes"
)

// Component names one line item of a bill.
type Component string

const (
	ComponentRent          Component = "rent"
	ComponentServiceCharge Component = "service_charge"
	ComponentWater         Component = "water"
	ComponentElectricity   Component = "electricity"
	ComponentGarbage       Component = "garbage"
	ComponentSecurity      Component = "security"
)

// Components lists every bill component in display order.
func Components() []Component {
	return []Component{
		ComponentRent,
		ComponentServiceCharge,
		ComponentWater,
		ComponentElectricity,
		ComponentGarbage,
		ComponentSecurity,
	}
}

// ParseComponents parses a comma separated component list. An empty string yields all components.
func ParseComponents(s string) ([]Component, error) {
	if strings.TrimSpace(s) == "" {
		return Components(), nil
	}

	var out []Component
	for _, raw := range strings.Split(s, ",") {
		c := Component(strings.ToLower(strings.TrimSpace(raw)))
		if c == "" {
			continue
		}
		if !c.Valid() {
			return nil, fmt.Errorf("unknown bill component %q", raw)
		}
		out = append(out, c)
	}
	return out, nil
}

// Valid reports whether c is a known component.
func (c Component) Valid() bool {
	for _, known := range Components() {
		if c == known {
			return true
		}
	}
	return false
}

// Charges holds the per-component amounts of a bill, in shillings.
type Charges struct {
	Rent          int64 `gorm:"not null;column:rent" json:"rent"`
	ServiceCharge int64 `gorm:"not null;column:service_charge" json:"serviceCharge"`
	Water         int64 `gorm:"not null;column:water" json:"water"`
	Electricity   int64 `gorm:"not null;column:electricity" json:"electricity"`
	Garbage       int64 `gorm:"not null;column:garbage" json:"garbage"`
	Security      int64 `gorm:"not null;column:security" json:"security"`
}

// Amount returns the amount charged for c.
func (c Charges) Amount(comp Component) int64 {
	switch comp {
	case ComponentRent:
		return c.Rent
	case ComponentServiceCharge:
		return c.ServiceCharge
	case ComponentWater:
		return c.Water
	case ComponentElectricity:
		return c.Electricity
	case ComponentGarbage:
		return c.Garbage
	case ComponentSecurity:
		return c.Security
	}
	return 0
}

// Sum returns the total over all components.
func (c Charges) Sum() int64 {
	return c.Rent + c.ServiceCharge + c.Water + c.Electricity + c.Garbage + c.Security
}

// Bill is a charge issued to a tenant for a period.
type Bill struct {
	Base
	TenantID    *string         `gorm:"size:36;index;column:tenant_id" json:"tenantId,omitempty"`
	Tenant      *Tenant         `gorm:"foreignKey:TenantID" json:"tenant,omitempty"`
	PropertyID  *string         `gorm:"size:36;index;column:property_id" json:"propertyId,omitempty"`
	Property    *Property       `gorm:"foreignKey:PropertyID" json:"property,omitempty"`
	BillType    BillType        `gorm:"size:20;not null;column:bill_type" json:"billType"`
	Period      string          `gorm:"size:7;index;column:period" json:"period"`
	Description *string         `gorm:"type:text;column:description" json:"description,omitempty"`

	Charges `gorm:"embedded"`

	Total      int64           `gorm:"not null;column:total" json:"total"`
	VAT        *int64          `gorm:"column:vat" json:"vat,omitempty"`
	GrandTotal int64           `gorm:"not null;column:grand_total" json:"grandTotal"`
	DueDate    datatypes.Date  `gorm:"not null;index;column:due_date" json:"dueDate"`
	Status     BillStatus      `gorm:"size:20;not null;index;column:status" json:"status"`
	PaidDate   *datatypes.Date `gorm:"column:paid_date" json:"paidDate,omitempty"`
}

// TableName specifies the table name for GORM.
func (Bill) TableName() string {
	return "billing"
}

// AmountDue is the grand total, falling back to the total when no grand total was recorded.
func (b Bill) AmountDue() int64 {
	if b.GrandTotal != 0 {
		return b.GrandTotal
	}
	return b.Total
}

// TenantName returns the name of the preloaded tenant, or "" when absent.
func (b Bill) TenantName() string {
	if b.Tenant == nil {
		return ""
	}
	return b.Tenant.FullName
}

// PropertyName returns the name of the preloaded property, or "" when absent.
func (b Bill) PropertyName() string {
	if b.Property == nil {
		return ""
	}
	return b.Property.Name
}
