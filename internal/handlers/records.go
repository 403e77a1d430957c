package handlers

import (
	"github.com/Lelcaren/mwangaza-rentals/internal/models"
	"github.com/Lelcaren/mwangaza-rentals/internal/services"
)

type (
	PropertyHandler     = Resource[models.Property, services.PropertyDraft, services.PropertyPatch, services.PropertyFilter]
	TenantHandler       = Resource[models.Tenant, services.TenantDraft, services.TenantPatch, services.TenantFilter]
	billRecords         = Resource[models.Bill, services.BillDraft, services.BillPatch, services.BillFilter]
	PaymentHandler      = Resource[models.Payment, services.PaymentDraft, services.PaymentPatch, services.PaymentFilter]
	notificationRecords = Resource[models.Notification, services.NotificationDraft, services.NotificationPatch, services.NotificationFilter]
	ProfileHandler      = Resource[models.Profile, services.ProfileDraft, services.ProfilePatch, services.ProfileFilter]
)

// NewPropertyHandler serves /properties.
func NewPropertyHandler(service services.PropertyService) PropertyHandler {
	return PropertyHandler{name: "Property", service: service}
}

// NewTenantHandler serves /tenants.
func NewTenantHandler(service services.TenantService) TenantHandler {
	return TenantHandler{name: "Tenant", service: service}
}

// NewPaymentHandler serves /payments.
func NewPaymentHandler(service services.PaymentService) PaymentHandler {
	return PaymentHandler{name: "Payment", service: service}
}

// NewProfileHandler serves /profiles.
func NewProfileHandler(service services.ProfileService) ProfileHandler {
	return ProfileHandler{name: "Profile", service: service}
}
