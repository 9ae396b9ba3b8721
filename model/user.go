package model

import (
	"time"

	"gorm.io/gorm"
)

// Plan identifiers stored in users.current_plan
const (
	PlanFree  = "free"
	PlanPro   = "pro"
	PlanAdmin = "admin"
)

// Role identifiers stored in users.role
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User represents a registered user in the system
type User struct {
	ID            uint           `gorm:"primaryKey" json:"id"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
	Email         string         `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash  string         `gorm:"not null" json:"-"` // Never expose password in JSON
	Name          string         `gorm:"not null" json:"name"`
	Role          string         `gorm:"type:varchar(20);default:'user'" json:"role"`         // user, admin
	CurrentPlan   string         `gorm:"type:varchar(20);default:'free'" json:"current_plan"` // free, pro, admin
	EmailVerified bool           `gorm:"default:false" json:"email_verified"`
	IsActive      bool           `gorm:"default:true" json:"is_active"`
	LastLoginAt   *time.Time     `json:"last_login_at,omitempty"`
	TokenVersion  int            `gorm:"default:0" json:"-"` // Increment to invalidate all user tokens

	// Stripe linkage, empty until the user first opens checkout
	StripeCustomerID     string `gorm:"type:varchar(100);index" json:"-"`
	StripeSubscriptionID string `gorm:"type:varchar(100)" json:"-"`

	// Relationships
	Settings       *UserSettings            `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"settings,omitempty"`
	Payments       []Payment                `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Exports        []ExportRecord           `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	AdminAuditLog  []AdminAuditLog          `gorm:"foreignKey:AdminID;constraint:OnDelete:CASCADE" json:"-"`
	TokenBlacklist []JWTTokenBlacklist      `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	ResetTokens    []PasswordResetToken     `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	VerifyTokens   []EmailVerificationToken `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}

// IsAdmin reports whether the user holds the admin role
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// HasPaidPlan reports whether the user is on a plan without export quotas
func (u *User) HasPaidPlan() bool {
	return u.CurrentPlan == PlanPro || u.CurrentPlan == PlanAdmin
}
