package fakeuserrepo

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jrsteele09/go-collab-server/users"
)

var _ users.Repo = (*FakeUserRepo)(nil)

// FakeUserRepo is an in-memory credential store. It enforces the same uniqueness
// rules as the database stores so services behave identically against it.
type FakeUserRepo struct {
	accounts map[string]*users.Account
	lock     sync.RWMutex
	nowFunc  func() time.Time
}

func NewFakeUserRepo() *FakeUserRepo {
	return &FakeUserRepo{
		accounts: make(map[string]*users.Account),
		nowFunc:  time.Now,
	}
}

func (ur *FakeUserRepo) Create(_ context.Context, account *users.Account) error {
	ur.lock.Lock()
	defer ur.lock.Unlock()

	if ur.conflicts(account, "") {
		return users.ErrDuplicate
	}

	if account.ID == "" {
		account.ID = uuid.New().String()
	}
	now := ur.nowFunc()
	account.CreatedAt = now
	account.UpdatedAt = now
	ur.accounts[account.ID] = account.Clone()
	return nil
}

func (ur *FakeUserRepo) Update(_ context.Context, account *users.Account) error {
	ur.lock.Lock()
	defer ur.lock.Unlock()

	if _, ok := ur.accounts[account.ID]; !ok {
		return users.ErrNotFound
	}
	if ur.conflicts(account, account.ID) {
		return users.ErrDuplicate
	}
	account.UpdatedAt = ur.nowFunc()
	ur.accounts[account.ID] = account.Clone()
	return nil
}

// conflicts must be called with the lock held
func (ur *FakeUserRepo) conflicts(account *users.Account, skipID string) bool {
	for id, existing := range ur.accounts {
		if id == skipID {
			continue
		}
		if existing.Username == account.Username || existing.Email == account.Email {
			return true
		}
		if account.Role == users.RoleSuperUser && existing.Role == users.RoleSuperUser {
			return true
		}
	}
	return false
}

func (ur *FakeUserRepo) GetByID(_ context.Context, id string) (*users.Account, error) {
	ur.lock.RLock()
	defer ur.lock.RUnlock()

	account, ok := ur.accounts[id]
	if !ok {
		return nil, users.ErrNotFound
	}
	return account.Clone(), nil
}

func (ur *FakeUserRepo) FindByLogin(_ context.Context, identifier string, role users.Role) (*users.Account, error) {
	return ur.findOne(func(a *users.Account) bool {
		return a.Role == role && (a.Username == identifier || a.Email == identifier)
	})
}

func (ur *FakeUserRepo) GetByEmail(_ context.Context, email string) (*users.Account, error) {
	return ur.findOne(func(a *users.Account) bool {
		return a.Email == email
	})
}

func (ur *FakeUserRepo) FindByRefreshTokenHash(_ context.Context, hash string) (*users.Account, error) {
	if hash == "" {
		return nil, users.ErrNotFound
	}
	return ur.findOne(func(a *users.Account) bool {
		return a.RefreshTokenHash == hash
	})
}

func (ur *FakeUserRepo) ExistsByUsernameOrEmail(_ context.Context, username, email string) (bool, error) {
	_, err := ur.findOne(func(a *users.Account) bool {
		return a.Username == username || a.Email == email
	})
	if err == users.ErrNotFound {
		return false, nil
	}
	return err == nil, err
}

func (ur *FakeUserRepo) FindByRole(_ context.Context, role users.Role) ([]*users.Account, error) {
	return ur.filter(func(a *users.Account) bool { return a.Role == role }), nil
}

func (ur *FakeUserRepo) List(_ context.Context) ([]*users.Account, error) {
	return ur.filter(func(*users.Account) bool { return true }), nil
}

func (ur *FakeUserRepo) Ping(context.Context) error {
	return nil
}

func (ur *FakeUserRepo) findOne(match func(*users.Account) bool) (*users.Account, error) {
	found := ur.filter(match)
	if len(found) == 0 {
		return nil, users.ErrNotFound
	}
	return found[0], nil
}

func (ur *FakeUserRepo) filter(match func(*users.Account) bool) []*users.Account {
	ur.lock.RLock()
	defer ur.lock.RUnlock()

	list := make([]*users.Account, 0)
	for _, a := range ur.accounts {
		if match(a) {
			list = append(list, a.Clone())
		}
	}

	sort.Slice(list, func(i, j int) bool {
		if list[i].CreatedAt.Equal(list[j].CreatedAt) {
			return list[i].ID < list[j].ID
		}
		return list[i].CreatedAt.Before(list[j].CreatedAt)
	})
	return list
}
