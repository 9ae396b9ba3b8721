package model

// EmailVerificationToken is the single-use token behind the confirmation
// link in the verification email.
type EmailVerificationToken struct {
	SingleUseToken

	User User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"user,omitempty"`
}

func (EmailVerificationToken) TableName() string {
	return "email_verification_tokens"
}
