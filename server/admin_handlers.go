package server

import (
	"net/http"

	"github.com/jrsteele09/go-collab-server/admin"
	"github.com/jrsteele09/go-collab-server/guard"
	apperrors "github.com/jrsteele09/go-collab-server/internal/errors"
	"github.com/jrsteele09/go-collab-server/users"
	"github.com/jrsteele09/go-collab-server/validation"
)

const MsgActorMismatch = "superUserId does not match the authenticated user"

// PromoteHandler promotes a user to admin. The acting superuser named in the body must be
// the authenticated caller.
func (s *Server) PromoteHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// The caller is checked before the body so a non-superuser is refused whatever it sent
		id := guard.FromContext(r.Context())
		if id.Role != users.RoleSuperUser {
			writeError(w, r, apperrors.Forbidden(admin.MsgSuperUserOnly))
			return
		}

		var req admin.PromoteRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, r, err)
			return
		}
		if id.UserID != req.SuperUserID {
			writeError(w, r, apperrors.Forbidden(MsgActorMismatch))
			return
		}
		if err := validation.Validate(req); err != nil {
			writeError(w, r, err)
			return
		}

		account, err := s.deps.Admin.PromoteUserToAdmin(r.Context(), req.SuperUserID, req.UserID)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, account)
	}
}

// ListUsersHandler lists every account
func (s *Server) ListUsersHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		accounts, err := s.deps.Admin.FindAllUsers(r.Context())
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, accounts)
	}
}

// CreateAdminHandler lets the superuser create an admin account
func (s *Server) CreateAdminHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req admin.CreateAdminRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, r, err)
			return
		}
		id := guard.FromContext(r.Context())
		account, err := s.deps.Admin.CreateAdmin(r.Context(), id.UserID, req)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, account)
	}
}
