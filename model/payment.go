package model

import (
	"gorm.io/gorm"
	"time"
)

// Payment lifecycle states
const (
	PaymentStatusPending  = "pending"
	PaymentStatusPaid     = "paid"
	PaymentStatusFailed   = "failed"
	PaymentStatusRefunded = "refunded"
)

// Payment represents a billing event recorded from Stripe
type Payment struct {
	ID                   uint           `gorm:"primaryKey" json:"id"`
	UserID               uint           `gorm:"not null;index" json:"user_id"`
	StripeSessionID      string         `gorm:"type:varchar(100);uniqueIndex" json:"stripe_session_id"`
	StripeCustomerID     string         `gorm:"type:varchar(100);index" json:"stripe_customer_id"`
	StripeSubscriptionID string         `gorm:"type:varchar(100)" json:"stripe_subscription_id"`
	StripeInvoiceID      string         `gorm:"type:varchar(100)" json:"stripe_invoice_id"`
	AmountCents          int64          `gorm:"not null" json:"amount_cents"`
	Currency             string         `gorm:"type:varchar(10);default:'usd'" json:"currency"`
	Plan                 string         `gorm:"type:varchar(20);not null" json:"plan"`
	Status               string         `gorm:"type:varchar(20);default:'pending'" json:"status"` // pending, paid, failed, refunded
	PaidAt               *time.Time     `json:"paid_at"`
	CreatedAt            time.Time      `json:"created_at"`
	UpdatedAt            time.Time      `json:"updated_at"`
	DeletedAt            gorm.DeletedAt `gorm:"index" json:"-"`

	// Relationships
	User User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"user,omitempty"`
}

// TableName specifies the table name for Payment
func (Payment) TableName() string {
	return "payments"
}
