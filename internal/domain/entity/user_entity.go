package entity

import (
	"strings"
	"time"

	"github.com/oksasatya/tourguide-auth/pkg/validation"
)

// User is the aggregate root for the account domain.
// PasswordHash and the reset challenge never leave the service: they are excluded from JSON.
type User struct {
	ID    string `json:"id"`
	Name  string `json:"name" validate:"required,max=100"`
	Email string `json:"email" validate:"required,email"`
	Photo string `json:"photo,omitempty"`
	Role  Role   `json:"role" validate:"required,oneof=admin user lead-guide guide"`

	PasswordHash      string     `json:"-" validate:"required"`
	PasswordChangedAt *time.Time `json:"-"`

	PasswordResetTokenHash string     `json:"-"`
	PasswordResetExpiresAt *time.Time `json:"-"`

	Active    bool      `json:"-"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

var validate = validation.New()

// NormalizeEmail trims and lower-cases an address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Validate checks the stored shape of the user.
func (u *User) Validate() error {
	return validate.Struct(u)
}

// PasswordChangedAfter reports whether the password was rotated after a token issued at iat.
// Both sides are compared at second precision, the resolution of the iat claim.
func (u *User) PasswordChangedAfter(iat time.Time) bool {
	if u.PasswordChangedAt == nil {
		return false
	}
	return u.PasswordChangedAt.Unix() > iat.Unix()
}

// SetResetChallenge stores a reset token digest together with its expiry.
func (u *User) SetResetChallenge(hash string, expiresAt time.Time) {
	exp := expiresAt
	u.PasswordResetTokenHash = hash
	u.PasswordResetExpiresAt = &exp
}

// ClearResetChallenge removes both reset fields at once.
func (u *User) ClearResetChallenge() {
	u.PasswordResetTokenHash = ""
	u.PasswordResetExpiresAt = nil
}

// HasLiveResetChallenge reports whether a stored challenge is still usable at now.
func (u *User) HasLiveResetChallenge(now time.Time) bool {
	return u.PasswordResetTokenHash != "" &&
		u.PasswordResetExpiresAt != nil &&
		u.PasswordResetExpiresAt.After(now)
}
