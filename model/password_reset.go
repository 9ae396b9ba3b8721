package model

// PasswordResetToken is the single-use token mailed to a user who asked
// for a password reset.
type PasswordResetToken struct {
	SingleUseToken

	User User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"user,omitempty"`
}

func (PasswordResetToken) TableName() string {
	return "password_reset_tokens"
}
