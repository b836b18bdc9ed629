package admin

import (
	"strings"

	"github.com/jrsteele09/go-collab-server/validation"
)

// PromoteRequest is the body of POST /admin/promote
type PromoteRequest struct {
	SuperUserID string `json:"superUserId"`
	UserID      string `json:"userId"`
}

func (r PromoteRequest) Rules() []validation.Rule {
	return []validation.Rule{
		{Field: "superUserId", Value: r.SuperUserID, Tag: "required"},
		{Field: "userId", Value: r.UserID, Tag: "required"},
		{Field: "userId", Value: r.UserID, Tag: "nefield", Other: r.SuperUserID, Message: "userId must differ from superUserId"},
	}
}

// CreateAdminRequest is the body of POST /admin/admins, and the shape of the bootstrap superuser
type CreateAdminRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r CreateAdminRequest) Rules() []validation.Rule {
	n := r.normalized()
	return []validation.Rule{
		{Field: "username", Value: n.Username, Tag: "required,min=3,max=30,pattern=username"},
		{Field: "email", Value: n.Email, Tag: "required,email,max=254"},
		{Field: "password", Value: r.Password, Tag: "required,max=72,pattern=password"},
	}
}

func (r CreateAdminRequest) normalized() CreateAdminRequest {
	r.Username = strings.TrimSpace(r.Username)
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
	return r
}
