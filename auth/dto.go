package auth

import (
	"strings"

	"github.com/jrsteele09/go-collab-server/users"
	"github.com/jrsteele09/go-collab-server/validation"
)

const (
	usernameRule = "required,min=3,max=30,pattern=username"
	emailRule    = "required,email,max=254"
	passwordRule = "required,max=72,pattern=password"
)

// InfluencerRegistration is the body of POST /auth/influencer/register
type InfluencerRegistration struct {
	Username        string `json:"username"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
	FirstName       string `json:"firstName"`
	LastName        string `json:"lastName"`
	Niche           string `json:"niche,omitempty"`
}

func (r InfluencerRegistration) Rules() []validation.Rule {
	return []validation.Rule{
		{Field: "username", Value: strings.TrimSpace(r.Username), Tag: usernameRule},
		{Field: "email", Value: normalizeEmail(r.Email), Tag: emailRule},
		{Field: "password", Value: r.Password, Tag: passwordRule},
		{Field: "confirmPassword", Value: r.ConfirmPassword, Tag: "required,eqfield", Other: r.Password, Message: "confirmPassword must match password"},
		{Field: "firstName", Value: r.FirstName, Tag: "required,max=50"},
		{Field: "lastName", Value: r.LastName, Tag: "required,max=50"},
		{Field: "niche", Value: r.Niche, Tag: "omitempty,max=50"},
	}
}

func (r InfluencerRegistration) account() *users.Account {
	return &users.Account{
		Username:  strings.TrimSpace(r.Username),
		Email:     normalizeEmail(r.Email),
		Role:      users.RoleInfluencer,
		FirstName: strings.TrimSpace(r.FirstName),
		LastName:  strings.TrimSpace(r.LastName),
		Niche:     strings.TrimSpace(r.Niche),
	}
}

// BrandRegistration is the body of POST /auth/brand/register
type BrandRegistration struct {
	Username        string `json:"username"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
	CompanyName     string `json:"companyName"`
	Website         string `json:"website,omitempty"`
	Industry        string `json:"industry,omitempty"`
}

func (r BrandRegistration) Rules() []validation.Rule {
	return []validation.Rule{
		{Field: "username", Value: strings.TrimSpace(r.Username), Tag: usernameRule},
		{Field: "email", Value: normalizeEmail(r.Email), Tag: emailRule},
		{Field: "password", Value: r.Password, Tag: passwordRule},
		{Field: "confirmPassword", Value: r.ConfirmPassword, Tag: "required,eqfield", Other: r.Password, Message: "confirmPassword must match password"},
		{Field: "companyName", Value: r.CompanyName, Tag: "required,min=2,max=100"},
		{Field: "website", Value: r.Website, Tag: "omitempty,url"},
		{Field: "industry", Value: r.Industry, Tag: "omitempty,max=50"},
	}
}

func (r BrandRegistration) account() *users.Account {
	return &users.Account{
		Username:    strings.TrimSpace(r.Username),
		Email:       normalizeEmail(r.Email),
		Role:        users.RoleBrand,
		CompanyName: strings.TrimSpace(r.CompanyName),
		Website:     strings.TrimSpace(r.Website),
		Industry:    strings.TrimSpace(r.Industry),
	}
}

// LoginRequest is the body of the login endpoints. Either username or email identifies the account.
type LoginRequest struct {
	Username string `json:"username,omitempty"`
	Email    string `json:"email,omitempty"`
	Password string `json:"password"`
}

// Identifier returns the username if given, otherwise the normalized email
func (r LoginRequest) Identifier() string {
	if u := strings.TrimSpace(r.Username); u != "" {
		return u
	}
	return normalizeEmail(r.Email)
}

func (r LoginRequest) Rules() []validation.Rule {
	return []validation.Rule{
		{Field: "username", Value: r.Identifier(), Tag: "required,max=254", Message: "username or email is required"},
		{Field: "password", Value: r.Password, Tag: "required,max=72"},
	}
}

// RefreshRequest is the body of POST /auth/refresh
type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

func (r RefreshRequest) Rules() []validation.Rule {
	return []validation.Rule{
		{Field: "refreshToken", Value: r.RefreshToken, Tag: "required"},
	}
}

// ForgotPasswordRequest is the body of POST /auth/forgot-password
type ForgotPasswordRequest struct {
	Email string `json:"email"`
}

func (r ForgotPasswordRequest) Rules() []validation.Rule {
	return []validation.Rule{
		{Field: "email", Value: normalizeEmail(r.Email), Tag: emailRule},
	}
}

// ResetPasswordRequest is the body of POST /auth/reset-password
type ResetPasswordRequest struct {
	Token           string `json:"token"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
}

func (r ResetPasswordRequest) Rules() []validation.Rule {
	return []validation.Rule{
		{Field: "token", Value: r.Token, Tag: "required,uuid4"},
		{Field: "password", Value: r.Password, Tag: passwordRule},
		{Field: "confirmPassword", Value: r.ConfirmPassword, Tag: "required,eqfield", Other: r.Password, Message: "confirmPassword must match password"},
	}
}

// ChangePasswordRequest is the body of POST /auth/change-password
type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

func (r ChangePasswordRequest) Rules() []validation.Rule {
	return []validation.Rule{
		{Field: "currentPassword", Value: r.CurrentPassword, Tag: "required"},
		{Field: "newPassword", Value: r.NewPassword, Tag: passwordRule},
		{Field: "newPassword", Value: r.NewPassword, Tag: "nefield", Other: r.CurrentPassword, Message: "newPassword must differ from currentPassword"},
	}
}

// normalizeEmail is applied before validation and storage so both see the same value
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
