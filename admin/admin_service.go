// Package admin manages the single superuser and the admin accounts it appoints.
package admin

import (
	"context"

	"github.com/jrsteele09/go-collab-server/internal/config"
	apperrors "github.com/jrsteele09/go-collab-server/internal/errors"
	"github.com/jrsteele09/go-collab-server/users"
	"github.com/jrsteele09/go-collab-server/validation"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

const (
	MsgSuperUserExists     = "Superuser already exists"
	MsgUserNotFound        = "User not found"
	MsgSuperUserOnly       = "Only the superuser can perform this action"
	MsgSuperUserImmutable  = "The superuser's role cannot be changed"
	MsgUserAlreadyExists   = "User with this username or email already exists"
	MsgBootstrapIncomplete = "superuser bootstrap credentials are incomplete"
)

type AdminService struct {
	users users.Repo
}

func NewAdminService(repo users.Repo) (*AdminService, error) {
	if repo == nil {
		return nil, errors.New("[NewAdminService] Users repo is required")
	}
	return &AdminService{users: repo}, nil
}

// CreateSuperUser creates the superuser. It fails with Conflict if one already exists.
// The store's single-superuser constraint settles concurrent calls that both pass the check.
func (s *AdminService) CreateSuperUser(ctx context.Context, req CreateAdminRequest) (*users.Account, error) {
	if err := validation.Validate(req); err != nil {
		return nil, err
	}

	exists, err := s.superUserExists(ctx)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, apperrors.Conflict(MsgSuperUserExists)
	}

	account, err := s.create(ctx, req.normalized(), users.RoleSuperUser)
	if apperrors.IsKind(err, apperrors.KindConflict) {
		if exists, checkErr := s.superUserExists(ctx); checkErr == nil && exists {
			return nil, apperrors.Conflict(MsgSuperUserExists)
		}
	}
	return account, err
}

// CreateAdmin lets the superuser create a new admin account directly
func (s *AdminService) CreateAdmin(ctx context.Context, actorID string, req CreateAdminRequest) (*users.Account, error) {
	if err := validation.Validate(req); err != nil {
		return nil, err
	}
	if err := s.requireSuperUser(ctx, actorID); err != nil {
		return nil, err
	}
	return s.create(ctx, req.normalized(), users.RoleAdmin)
}

// PromoteUserToAdmin gives userID the admin role. superUserID must be the superuser,
// checked before the target is looked up. Promoting an existing admin is a no-op.
func (s *AdminService) PromoteUserToAdmin(ctx context.Context, superUserID, userID string) (*users.Account, error) {
	if err := s.requireSuperUser(ctx, superUserID); err != nil {
		return nil, err
	}

	target, err := s.users.GetByID(ctx, userID)
	if errors.Is(err, users.ErrNotFound) {
		return nil, apperrors.NotFound(MsgUserNotFound)
	} else if err != nil {
		return nil, apperrors.Internal(errors.Wrap(err, "[AdminService.PromoteUserToAdmin] target lookup failed"))
	}

	switch target.Role {
	case users.RoleAdmin:
		return target, nil
	case users.RoleSuperUser:
		return nil, apperrors.Forbidden(MsgSuperUserImmutable)
	}

	target.Role = users.RoleAdmin
	if err := s.users.Update(ctx, target); err != nil {
		return nil, apperrors.Internal(errors.Wrap(err, "[AdminService.PromoteUserToAdmin] update failed"))
	}
	log.Info().Str("userId", target.ID).Str("by", superUserID).Msg("user promoted to admin")
	return target, nil
}

// FindAllUsers returns every account, oldest first
func (s *AdminService) FindAllUsers(ctx context.Context) ([]*users.Account, error) {
	all, err := s.users.List(ctx)
	if err != nil {
		return nil, apperrors.Internal(errors.Wrap(err, "[AdminService.FindAllUsers] list failed"))
	}
	return all, nil
}

// EnsureSuperUser creates the superuser from creds unless one exists. It is safe to run on
// every start, including from several instances at once. Empty creds skip seeding.
func (s *AdminService) EnsureSuperUser(ctx context.Context, creds config.SuperUserCredentials) (created bool, err error) {
	if !creds.IsSet() {
		if creds != (config.SuperUserCredentials{}) {
			return false, errors.New("[AdminService.EnsureSuperUser] " + MsgBootstrapIncomplete)
		}
		log.Warn().Msg("superuser bootstrap skipped, no credentials configured")
		return false, nil
	}

	_, err = s.CreateSuperUser(ctx, CreateAdminRequest{Username: creds.Username, Email: creds.Email, Password: creds.Password})
	if apperrors.IsKind(err, apperrors.KindConflict) {
		var appErr *apperrors.Error
		if apperrors.As(err, &appErr) && appErr.Message == MsgSuperUserExists {
			log.Debug().Msg("superuser already exists")
			return false, nil
		}
	}
	if err != nil {
		return false, errors.Wrap(err, "[AdminService.EnsureSuperUser]")
	}
	log.Info().Str("username", creds.Username).Msg("superuser created")
	return true, nil
}

func (s *AdminService) requireSuperUser(ctx context.Context, actorID string) error {
	actor, err := s.users.GetByID(ctx, actorID)
	if errors.Is(err, users.ErrNotFound) {
		return apperrors.Forbidden(MsgSuperUserOnly)
	} else if err != nil {
		return apperrors.Internal(errors.Wrap(err, "[AdminService.requireSuperUser] lookup failed"))
	}
	if !actor.IsSuperUser() {
		return apperrors.Forbidden(MsgSuperUserOnly)
	}
	return nil
}

func (s *AdminService) superUserExists(ctx context.Context) (bool, error) {
	found, err := s.users.FindByRole(ctx, users.RoleSuperUser)
	if err != nil {
		return false, apperrors.Internal(errors.Wrap(err, "[AdminService.superUserExists] lookup failed"))
	}
	return len(found) > 0, nil
}

func (s *AdminService) create(ctx context.Context, req CreateAdminRequest, role users.Role) (*users.Account, error) {
	exists, err := s.users.ExistsByUsernameOrEmail(ctx, req.Username, req.Email)
	if err != nil {
		return nil, apperrors.Internal(errors.Wrap(err, "[AdminService.create] uniqueness check failed"))
	}
	if exists {
		return nil, apperrors.Conflict(MsgUserAlreadyExists)
	}

	hash, err := users.HashPassword(req.Password)
	if err != nil {
		return nil, apperrors.Internal(errors.Wrap(err, "[AdminService.create] hash failed"))
	}
	account := &users.Account{Username: req.Username, Email: req.Email, PasswordHash: hash, Role: role}
	if err := s.users.Create(ctx, account); err != nil {
		if errors.Is(err, users.ErrDuplicate) {
			return nil, apperrors.Conflict(MsgUserAlreadyExists)
		}
		return nil, apperrors.Internal(errors.Wrap(err, "[AdminService.create] create failed"))
	}
	return account, nil
}
