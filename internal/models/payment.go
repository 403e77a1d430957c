package models

import "time"

// Payment records money received from a tenant, optionally against a bill.
type Payment struct {
	Base
	TenantID      *string       `gorm:"size:36;index;column:tenant_id" json:"tenantId,omitempty"`
	Tenant        *Tenant       `gorm:"foreignKey:TenantID" json:"tenant,omitempty"`
	BillingID     *string       `gorm:"size:36;index;column:billing_id" json:"billingId,omitempty"`
	Bill          *Bill         `gorm:"foreignKey:BillingID" json:"-"`
	Amount        int64         `gorm:"not null;column:amount" json:"amount"`
	Method        PaymentMethod `gorm:"size:20;not null;column:payment_method" json:"paymentMethod"`
	TransactionID *string       `gorm:"size:100;column:transaction_id" json:"transactionId,omitempty"`
	MpesaReceipt  *string       `gorm:"size:50;index;column:mpesa_receipt" json:"mpesaReceipt,omitempty"`
	Phone         *string       `gorm:"size:50;column:phone_number" json:"phoneNumber,omitempty"`
	Notes         *string       `gorm:"type:text;column:notes" json:"notes,omitempty"`
	Status        PaymentStatus `gorm:"size:20;not null;index;column:status" json:"status"`
	PaymentDate   *time.Time    `gorm:"column:payment_date" json:"paymentDate,omitempty"`
}

// TableName specifies the table name for GORM.
func (Payment) TableName() string {
	return "payments"
}
