package server

import (
	"net/http"

	"github.com/jrsteele09/go-collab-server/auth"
	"github.com/jrsteele09/go-collab-server/guard"
	apperrors "github.com/jrsteele09/go-collab-server/internal/errors"
	"github.com/jrsteele09/go-collab-server/users"
)

const MsgLoggedOut = "Logged out"

// RefreshResponse is returned by POST /auth/refresh
type RefreshResponse struct {
	AccessToken string `json:"access_token"`
}

func (s *Server) RegisterInfluencerHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req auth.InfluencerRegistration
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, r, err)
			return
		}
		account, err := s.deps.Auth.RegisterInfluencer(r.Context(), req)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, account)
	}
}

func (s *Server) RegisterBrandHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req auth.BrandRegistration
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, r, err)
			return
		}
		account, err := s.deps.Auth.RegisterBrand(r.Context(), req)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, account)
	}
}

// LoginHandler logs in an account of the given role. The token pair is returned in the
// body and the session token is set as the session_id cookie.
func (s *Server) LoginHandler(role users.Role) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req auth.LoginRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, r, err)
			return
		}
		result, err := s.deps.Auth.Login(r.Context(), role, req)
		if err != nil {
			writeError(w, r, err)
			return
		}
		s.setSessionCookie(w, r, result.SessionToken, int(s.sessionTTL.Seconds()))
		writeJSON(w, http.StatusCreated, result.Tokens)
	}
}

func (s *Server) RefreshHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req auth.RefreshRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, r, err)
			return
		}
		accessToken, err := s.deps.Auth.Refresh(r.Context(), req)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, RefreshResponse{AccessToken: accessToken})
	}
}

func (s *Server) LogoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := guard.FromContext(r.Context())
		if err := s.deps.Auth.Logout(r.Context(), id.UserID, id.Claims); err != nil {
			writeError(w, r, err)
			return
		}
		s.setSessionCookie(w, r, "", -1)
		writeJSON(w, http.StatusCreated, MessageResponse{Message: MsgLoggedOut})
	}
}

func (s *Server) ForgotPasswordHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req auth.ForgotPasswordRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, r, err)
			return
		}
		resp, err := s.deps.PasswordReset.SendResetEmail(r.Context(), req)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, resp)
	}
}

func (s *Server) ResetPasswordHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req auth.ResetPasswordRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, r, err)
			return
		}
		if err := s.deps.PasswordReset.ResetPassword(r.Context(), req); err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, MessageResponse{Message: auth.MsgPasswordReset})
	}
}

func (s *Server) ChangePasswordHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req auth.ChangePasswordRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, r, err)
			return
		}
		id := guard.FromContext(r.Context())
		if err := s.deps.Auth.ChangePassword(r.Context(), id.UserID, req); err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, MessageResponse{Message: auth.MsgPasswordChanged})
	}
}

// ProfileHandler returns the identity carried by the bearer token
func (s *Server) ProfileHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, guard.FromContext(r.Context()))
	}
}

// SessionHandler returns the server-side session behind the session cookie
func (s *Server) SessionHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := guard.FromContext(r.Context())
		if id.Session == nil {
			writeError(w, r, apperrors.Unauthorized(guard.MsgInvalidSession))
			return
		}
		writeJSON(w, http.StatusOK, id.Session)
	}
}

func (s *Server) setSessionCookie(w http.ResponseWriter, r *http.Request, value string, maxAge int) {
	http.SetCookie(w, &http.Cookie{
		Name:     guard.SessionCookieName,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   getScheme(r) == "https",
		SameSite: http.SameSiteLaxMode,
		MaxAge:   maxAge,
	})
}
