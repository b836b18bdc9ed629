package users

import (
	"time"
)

// Account is the persisted credential record shared by every role. Role-specific
// profile fields are left empty for roles that do not use them.
type Account struct {
	ID               string    `json:"id"`                    // Unique identifier assigned by the store
	Username         string    `json:"username"`              // Unique username
	Email            string    `json:"email"`                 // Unique email address
	PasswordHash     string    `json:"-"`                     // bcrypt hash - never serialize
	Role             Role      `json:"role"`                  // influencer, brand, admin or superuser
	RefreshTokenHash string    `json:"-"`                     // Digest of the current refresh token, empty when logged out
	FirstName        string    `json:"firstName,omitempty"`   // Influencer profile
	LastName         string    `json:"lastName,omitempty"`    // Influencer profile
	Niche            string    `json:"niche,omitempty"`       // Influencer profile
	CompanyName      string    `json:"companyName,omitempty"` // Brand profile
	Website          string    `json:"website,omitempty"`     // Brand profile
	Industry         string    `json:"industry,omitempty"`    // Brand profile
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

// IsSuperUser returns true if the account holds the superuser role
func (a *Account) IsSuperUser() bool {
	return a.Role == RoleSuperUser
}

// CheckPassword verifies a plaintext password against the stored hash
func (a *Account) CheckPassword(password string) bool {
	return CheckPasswordHash(password, a.PasswordHash)
}

// Clone returns a copy so callers never share a pointer with a store's internals
func (a *Account) Clone() *Account {
	if a == nil {
		return nil
	}
	c := *a
	return &c
}
