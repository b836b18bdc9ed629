package admin_test

import (
	"context"
	"sync"
	"testing"

	"github.com/jrsteele09/go-collab-server/admin"
	"github.com/jrsteele09/go-collab-server/internal/config"
	apperrors "github.com/jrsteele09/go-collab-server/internal/errors"
	"github.com/jrsteele09/go-collab-server/users"
	fakeuserrepo "github.com/jrsteele09/go-collab-server/users/repofake"
	"github.com/stretchr/testify/require"
)

const testPassword = "Secret1!"

type testFixture struct {
	service *admin.AdminService
	repo    *fakeuserrepo.FakeUserRepo
}

func setupTestFixture(t *testing.T) testFixture {
	t.Helper()
	repo := fakeuserrepo.NewFakeUserRepo()
	service, err := admin.NewAdminService(repo)
	require.NoError(t, err)
	return testFixture{service: service, repo: repo}
}

func (f testFixture) createAccount(t *testing.T, username string, role users.Role) *users.Account {
	t.Helper()
	account := &users.Account{Username: username, Email: username + "@example.com", PasswordHash: "x", Role: role}
	require.NoError(t, f.repo.Create(context.Background(), account))
	return account
}

func requireKind(t *testing.T, err error, kind apperrors.Kind, message string) {
	t.Helper()
	var appErr *apperrors.Error
	require.True(t, apperrors.As(err, &appErr), "expected classified error, got %v", err)
	require.Equal(t, kind, appErr.Kind)
	if message != "" {
		require.Equal(t, message, appErr.Message)
	}
}

func rootRequest() admin.CreateAdminRequest {
	return admin.CreateAdminRequest{Username: "root", Email: "Root@Example.com", Password: testPassword}
}

// TestNewAdminService tests the repo is required
func TestNewAdminService(t *testing.T) {
	_, err := admin.NewAdminService(nil)
	require.Error(t, err)
}

// TestAdminService_CreateSuperUser tests only one superuser can ever be created
func TestAdminService_CreateSuperUser(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()

	account, err := f.service.CreateSuperUser(ctx, rootRequest())
	require.NoError(t, err)
	require.Equal(t, users.RoleSuperUser, account.Role)
	require.Equal(t, "root@example.com", account.Email)
	require.True(t, account.CheckPassword(testPassword))

	_, err = f.service.CreateSuperUser(ctx, admin.CreateAdminRequest{Username: "root2", Email: "root2@example.com", Password: testPassword})
	requireKind(t, err, apperrors.KindConflict, admin.MsgSuperUserExists)

	t.Run("invalid request", func(t *testing.T) {
		_, err := f.service.CreateSuperUser(ctx, admin.CreateAdminRequest{Username: "r", Email: "x", Password: "weak"})
		requireKind(t, err, apperrors.KindValidation, "")
	})
}

// TestAdminService_CreateSuperUserConcurrent tests concurrent creation leaves exactly one superuser
func TestAdminService_CreateSuperUserConcurrent(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()

	const attempts = 6
	var wg sync.WaitGroup
	errs := make([]error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			req := admin.CreateAdminRequest{
				Username: "root" + string(rune('a'+i)),
				Email:    "root" + string(rune('a'+i)) + "@example.com",
				Password: testPassword,
			}
			_, errs[i] = f.service.CreateSuperUser(ctx, req)
		}(i)
	}
	wg.Wait()

	var created int
	for _, err := range errs {
		if err == nil {
			created++
			continue
		}
		requireKind(t, err, apperrors.KindConflict, admin.MsgSuperUserExists)
	}
	require.Equal(t, 1, created)

	supers, err := f.repo.FindByRole(ctx, users.RoleSuperUser)
	require.NoError(t, err)
	require.Len(t, supers, 1)
}

// TestAdminService_PromoteUserToAdmin tests promotion rules
func TestAdminService_PromoteUserToAdmin(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()
	root := f.createAccount(t, "root", users.RoleSuperUser)
	alice := f.createAccount(t, "alice", users.RoleInfluencer)
	bob := f.createAccount(t, "bob", users.RoleBrand)
	carol := f.createAccount(t, "carol", users.RoleAdmin)

	t.Run("superuser promotes", func(t *testing.T) {
		promoted, err := f.service.PromoteUserToAdmin(ctx, root.ID, alice.ID)
		require.NoError(t, err)
		require.Equal(t, users.RoleAdmin, promoted.Role)

		stored, err := f.repo.GetByID(ctx, alice.ID)
		require.NoError(t, err)
		require.Equal(t, users.RoleAdmin, stored.Role)
	})

	t.Run("already admin", func(t *testing.T) {
		promoted, err := f.service.PromoteUserToAdmin(ctx, root.ID, carol.ID)
		require.NoError(t, err)
		require.Equal(t, users.RoleAdmin, promoted.Role)
	})

	t.Run("missing target", func(t *testing.T) {
		_, err := f.service.PromoteUserToAdmin(ctx, root.ID, "missing")
		requireKind(t, err, apperrors.KindNotFound, admin.MsgUserNotFound)
	})

	t.Run("superuser target", func(t *testing.T) {
		_, err := f.service.PromoteUserToAdmin(ctx, root.ID, root.ID)
		requireKind(t, err, apperrors.KindForbidden, admin.MsgSuperUserImmutable)
	})

	forbidden := []struct {
		name    string
		actorID string
		target  string
	}{
		{"admin actor", carol.ID, bob.ID},
		{"brand actor", bob.ID, bob.ID},
		{"unknown actor", "ghost", bob.ID},
		{"non-superuser with missing target", carol.ID, "missing"},
	}
	for _, tt := range forbidden {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.service.PromoteUserToAdmin(ctx, tt.actorID, tt.target)
			requireKind(t, err, apperrors.KindForbidden, admin.MsgSuperUserOnly)
			require.Equal(t, 403, apperrors.StatusCode(err))
		})
	}

	stored, err := f.repo.GetByID(ctx, bob.ID)
	require.NoError(t, err)
	require.Equal(t, users.RoleBrand, stored.Role)
}

// TestAdminService_CreateAdmin tests that only the superuser can create admins
func TestAdminService_CreateAdmin(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()
	root := f.createAccount(t, "root", users.RoleSuperUser)
	carol := f.createAccount(t, "carol", users.RoleAdmin)
	req := admin.CreateAdminRequest{Username: "dave", Email: "dave@example.com", Password: testPassword}

	_, err := f.service.CreateAdmin(ctx, carol.ID, req)
	requireKind(t, err, apperrors.KindForbidden, admin.MsgSuperUserOnly)

	account, err := f.service.CreateAdmin(ctx, root.ID, req)
	require.NoError(t, err)
	require.Equal(t, users.RoleAdmin, account.Role)

	_, err = f.service.CreateAdmin(ctx, root.ID, req)
	requireKind(t, err, apperrors.KindConflict, admin.MsgUserAlreadyExists)
}

// TestAdminService_FindAllUsers tests every account is listed
func TestAdminService_FindAllUsers(t *testing.T) {
	f := setupTestFixture(t)
	f.createAccount(t, "root", users.RoleSuperUser)
	f.createAccount(t, "alice", users.RoleInfluencer)
	f.createAccount(t, "bob", users.RoleBrand)

	all, err := f.service.FindAllUsers(context.Background())
	require.NoError(t, err)
	require.Len(t, all, 3)
}

// TestAdminService_EnsureSuperUser tests bootstrap is idempotent
func TestAdminService_EnsureSuperUser(t *testing.T) {
	ctx := context.Background()
	creds := config.SuperUserCredentials{Username: "root", Email: "root@example.com", Password: testPassword}

	t.Run("creates once", func(t *testing.T) {
		f := setupTestFixture(t)
		created, err := f.service.EnsureSuperUser(ctx, creds)
		require.NoError(t, err)
		require.True(t, created)

		created, err = f.service.EnsureSuperUser(ctx, creds)
		require.NoError(t, err)
		require.False(t, created)

		created, err = f.service.EnsureSuperUser(ctx, config.SuperUserCredentials{Username: "other", Email: "o@example.com", Password: testPassword})
		require.NoError(t, err)
		require.False(t, created)

		supers, err := f.repo.FindByRole(ctx, users.RoleSuperUser)
		require.NoError(t, err)
		require.Len(t, supers, 1)
		require.Equal(t, "root", supers[0].Username)
	})

	t.Run("no credentials", func(t *testing.T) {
		f := setupTestFixture(t)
		created, err := f.service.EnsureSuperUser(ctx, config.SuperUserCredentials{})
		require.NoError(t, err)
		require.False(t, created)
	})

	t.Run("partial credentials", func(t *testing.T) {
		f := setupTestFixture(t)
		_, err := f.service.EnsureSuperUser(ctx, config.SuperUserCredentials{Username: "root"})
		require.Error(t, err)
	})

	t.Run("weak password", func(t *testing.T) {
		f := setupTestFixture(t)
		_, err := f.service.EnsureSuperUser(ctx, config.SuperUserCredentials{Username: "root", Email: "root@example.com", Password: "weak"})
		require.Error(t, err)
	})
}
