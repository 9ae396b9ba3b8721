package auth

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

var (
	ErrPasswordTooShort = errors.New("password must be at least 8 characters")
	ErrPasswordTooLong  = errors.New("password must be at most 72 characters")
	ErrPasswordMismatch = errors.New("password does not match")
)

const (
	// hashCost is the bcrypt work factor for new hashes
	hashCost = 12

	// MinPasswordLength is the shortest password accepted anywhere
	MinPasswordLength = 8
	// MaxPasswordLength is bcrypt's input ceiling; longer inputs
	// would be silently truncated, so they are rejected instead
	MaxPasswordLength = 72
)

func checkPasswordLength(password string) error {
	if len(password) < MinPasswordLength {
		return ErrPasswordTooShort
	}
	if len(password) > MaxPasswordLength {
		return ErrPasswordTooLong
	}
	return nil
}

// HashPassword generates a bcrypt hash after bounds-checking the input
func HashPassword(password string) (string, error) {
	if err := checkPasswordLength(password); err != nil {
		return "", err
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), hashCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// VerifyPassword compares a bcrypt hash against a candidate password
func VerifyPassword(hashedPassword, password string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return ErrPasswordMismatch
	}
	return err
}

// IsPasswordValid reports whether the password length is acceptable
func IsPasswordValid(password string) bool {
	return checkPasswordLength(password) == nil
}
