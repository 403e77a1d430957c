package models

import (
	"errors"
	"fmt"
)

// ErrUnknownStatus is returned when a status or enum string is outside its closed set.
var ErrUnknownStatus = errors.New("unknown status")

// Category is the display category a status maps to.
type Category string

const (
	CategorySuccess Category = "success"
	CategoryWarning Category = "warning"
	CategoryDanger  Category = "danger"
	CategoryInfo    Category = "info"
	CategoryNeutral Category = "neutral"
)

// Status is implemented by every status enumeration.
type Status interface {
	fmt.Stringer
	Category() (Category, error)
}

// StatusToCategory maps any status value to its display category.
// Unknown values are rejected with ErrUnknownStatus rather than defaulted.
func StatusToCategory(s Status) (Category, error) {
	if s == nil {
		return "", fmt.Errorf("%w: nil status", ErrUnknownStatus)
	}
	return s.Category()
}

// PropertyType distinguishes residential from commercial property (VAT applies to commercial).
type PropertyType string

const (
	PropertyResidential PropertyType = "residential"
	PropertyCommercial  PropertyType = "commercial"
)

// PropertyStatus is the operational status of a property.
type PropertyStatus string

const (
	PropertyActive      PropertyStatus = "active"
	PropertyMaintenance PropertyStatus = "maintenance"
	PropertyInactive    PropertyStatus = "inactive"
)

// TenantStatus is the payment standing of a tenant.
type TenantStatus string

const (
	TenantCurrent TenantStatus = "current"
	TenantOverdue TenantStatus = "overdue"
	TenantPending TenantStatus = "pending"
)

// BillType classifies a bill.
type BillType string

const (
	BillMonthly BillType = "monthly"
	BillUtility BillType = "utility"
	BillDeposit BillType = "deposit"
	BillOther   BillType = "other"
)

// BillStatus is the settlement status of a bill.
type BillStatus string

const (
	BillPaid    BillStatus = "paid"
	BillPending BillStatus = "pending"
	BillOverdue BillStatus = "overdue"
)

// PaymentMethod is how a payment was made.
type PaymentMethod string

const (
	MethodMobileMoney PaymentMethod = "mobile-money"
	MethodBank        PaymentMethod = "bank"
	MethodCash        PaymentMethod = "cash"
)

// PaymentStatus is the processing state of a payment.
type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentCompleted PaymentStatus = "completed"
	PaymentFailed    PaymentStatus = "failed"
)

// NotificationType is the delivery channel of a notification.
type NotificationType string

const (
	ChannelSMS      NotificationType = "sms"
	ChannelEmail    NotificationType = "email"
	ChannelWhatsApp NotificationType = "whatsapp"
)

// DeliveryStatus records what happened when a notification was handed to its provider.
type DeliveryStatus string

const (
	DeliveryPending DeliveryStatus = "pending"
	DeliverySent    DeliveryStatus = "sent"
	DeliveryFailed  DeliveryStatus = "failed"
)

// Role is a profile's role.
type Role string

const (
	RoleOwner  Role = "owner"
	RoleTenant Role = "tenant"
	RoleAdmin  Role = "admin"
)

// Valid reports whether t is residential or commercial.
func (t PropertyType) Valid() bool {
	return t == PropertyResidential || t == PropertyCommercial
}

// Valid reports whether s is a known property status.
func (s PropertyStatus) Valid() bool {
	_, err := s.Category()
	return err == nil
}

// Valid reports whether s is a known tenant status.
func (s TenantStatus) Valid() bool {
	_, err := s.Category()
	return err == nil
}

// Valid reports whether t is a known bill type.
func (t BillType) Valid() bool {
	switch t {
	case BillMonthly, BillUtility, BillDeposit, BillOther:
		return true
	}
	return false
}

// Valid reports whether s is a known bill status.
func (s BillStatus) Valid() bool {
	_, err := s.Category()
	return err == nil
}

// Valid reports whether m is a supported payment method.
func (m PaymentMethod) Valid() bool {
	switch m {
	case MethodMobileMoney, MethodBank, MethodCash:
		return true
	}
	return false
}

// Valid reports whether s is a known payment status.
func (s PaymentStatus) Valid() bool {
	_, err := s.Category()
	return err == nil
}

// Valid reports whether t is a supported delivery channel.
func (t NotificationType) Valid() bool {
	switch t {
	case ChannelSMS, ChannelEmail, ChannelWhatsApp:
		return true
	}
	return false
}

// Valid reports whether s is a known delivery status.
func (s DeliveryStatus) Valid() bool {
	_, err := s.Category()
	return err == nil
}

// Valid reports whether r is an application role.
func (r Role) Valid() bool {
	switch r {
	case RoleOwner, RoleTenant, RoleAdmin:
		return true
	}
	return false
}

// String returns the stored value of the property status.
func (s PropertyStatus) String() string {
	return string(s)
}

// String returns the stored value of the tenant status.
func (s TenantStatus) String() string {
	return string(s)
}

// String returns the stored value of the bill status.
func (s BillStatus) String() string {
	return string(s)
}

// String returns the stored value of the payment status.
func (s PaymentStatus) String() string {
	return string(s)
}

// String returns the stored value of the delivery status.
func (s DeliveryStatus) String() string {
	return string(s)
}

// Category implements Status.
func (s PropertyStatus) Category() (Category, error) {
	switch s {
	case PropertyActive:
		return CategorySuccess, nil
	case PropertyMaintenance:
		return CategoryWarning, nil
	case PropertyInactive:
		return CategoryNeutral, nil
	}
	return "", fmt.Errorf("%w: property status %q", ErrUnknownStatus, string(s))
}

// Category implements Status.
func (s TenantStatus) Category() (Category, error) {
	switch s {
	case TenantCurrent:
		return CategorySuccess, nil
	case TenantPending:
		return CategoryWarning, nil
	case TenantOverdue:
		return CategoryDanger, nil
	}
	return "", fmt.Errorf("%w: tenant status %q", ErrUnknownStatus, string(s))
}

// Category implements Status.
func (s BillStatus) Category() (Category, error) {
	switch s {
	case BillPaid:
		return CategorySuccess, nil
	case BillPending:
		return CategoryWarning, nil
	case BillOverdue:
		return CategoryDanger, nil
	}
	return "", fmt.Errorf("%w: bill status %q", ErrUnknownStatus, string(s))
}

// Category implements Status.
func (s PaymentStatus) Category() (Category, error) {
	switch s {
	case PaymentCompleted:
		return CategorySuccess, nil
	case PaymentPending:
		return CategoryWarning, nil
	case PaymentFailed:
		return CategoryDanger, nil
	}
	return "", fmt.Errorf("%w: payment status %q", ErrUnknownStatus, string(s))
}

// Category implements Status.
func (s DeliveryStatus) Category() (Category, error) {
	switch s {
	case DeliverySent:
		return CategoryInfo, nil
	case DeliveryPending:
		return CategoryWarning, nil
	case DeliveryFailed:
		return CategoryDanger, nil
	}
	return "", fmt.Errorf("%w: delivery status %q", ErrUnknownStatus, string(s))
}

// CanTransitionTo reports whether a payment may move from s to next.
// Payments only leave pending; completed and failed are terminal.
func (s PaymentStatus) CanTransitionTo(next PaymentStatus) bool {
	if s == next {
		return true
	}
	return s == PaymentPending && (next == PaymentCompleted || next == PaymentFailed)
}

// ParseStatus parses raw into the status named by kind
// ("property", "tenant", "bill", "payment" or "delivery").
func ParseStatus(kind, raw string) (Status, error) {
	var s Status
	switch kind {
	case "property":
		s = PropertyStatus(raw)
	case "tenant":
		s = TenantStatus(raw)
	case "bill":
		s = BillStatus(raw)
	case "payment":
		s = PaymentStatus(raw)
	case "delivery":
		s = DeliveryStatus(raw)
	default:
		return nil, fmt.Errorf("%w: status kind %q", ErrUnknownStatus, kind)
	}
	if _, err := s.Category(); err != nil {
		return nil, err
	}
	return s, nil
}
