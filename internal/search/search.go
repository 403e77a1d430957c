// Package search narrows record lists by a free-text term.
package search

import (
	"strings"

	"github.com/Lelcaren/mwangaza-rentals/internal/models"
)

// Search returns the records where any field contains term, case-insensitively.
// Each field extracts one searchable string from a record.
// The result preserves input order. A blank term returns records unchanged.
func Search[T any](records []T, term string, fields ...func(T) string) []T {
	needle := strings.ToLower(strings.TrimSpace(term))
	if needle == "" {
		return records
	}

	out := make([]T, 0, len(records))
	for _, r := range records {
		if matches(r, needle, fields) {
			out = append(out, r)
		}
	}
	return out
}

func matches[T any](r T, needle string, fields []func(T) string) bool {
	for _, f := range fields {
		if f == nil {
			continue
		}
		if strings.Contains(strings.ToLower(f(r)), needle) {
			return true
		}
	}
	return false
}

// Tenants searches tenants by full name, property name and unit.
func Tenants(tenants []models.Tenant, term string) []models.Tenant {
	return Search(tenants, term,
		func(t models.Tenant) string { return t.FullName },
		func(t models.Tenant) string { return t.PropertyName() },
		func(t models.Tenant) string { return t.Unit },
	)
}

// Properties searches properties by name and address.
func Properties(properties []models.Property, term string) []models.Property {
	return Search(properties, term,
		func(p models.Property) string { return p.Name },
		func(p models.Property) string { return p.Address },
	)
}

// Bills searches bills by tenant name and property name.
func Bills(bills []models.Bill, term string) []models.Bill {
	return Search(bills, term,
		func(b models.Bill) string { return b.TenantName() },
		func(b models.Bill) string { return b.PropertyName() },
	)
}

// Payments searches payments by tenant name and M-Pesa receipt.
func Payments(payments []models.Payment, term string) []models.Payment {
	return Search(payments, term,
		func(p models.Payment) string {
			if p.Tenant == nil {
				return ""
			}
			return p.Tenant.FullName
		},
		func(p models.Payment) string {
			if p.MpesaReceipt == nil {
				return ""
			}
			return *p.MpesaReceipt
		},
	)
}

// Notifications searches notifications by title, recipient and message.
func Notifications(notifications []models.Notification, term string) []models.Notification {
	return Search(notifications, term,
		func(n models.Notification) string { return n.Title },
		func(n models.Notification) string { return n.Recipient },
		func(n models.Notification) string { return n.Message },
	)
}

// Profiles searches profiles by name and email.
func Profiles(profiles []models.Profile, term string) []models.Profile {
	return Search(profiles, term,
		func(p models.Profile) string { return deref(p.FullName) },
		func(p models.Profile) string { return deref(p.Email) },
	)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
