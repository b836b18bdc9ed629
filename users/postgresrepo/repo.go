package postgresrepo

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jrsteele09/go-collab-server/users"
	"github.com/pkg/errors"
)

const uniqueViolation = "23505"

const selectColumns = `id, username, email, password_hash, role, COALESCE(refresh_token_hash, ''),
	first_name, last_name, niche, company_name, website, industry, created_at, updated_at`

var _ users.Repo = (*Repo)(nil)

// Repo stores accounts in the PostgreSQL accounts table
type Repo struct {
	db      *sql.DB
	nowFunc func() time.Time
}

func New(db *sql.DB) *Repo {
	return &Repo{db: db, nowFunc: time.Now}
}

// WithNowFunc replaces the clock used for timestamps (primarily for testing)
func (r *Repo) WithNowFunc(now func() time.Time) *Repo {
	r.nowFunc = now
	return r
}

func (r *Repo) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *Repo) Create(ctx context.Context, account *users.Account) error {
	id := uuid.New().String()
	now := r.nowFunc().UTC()

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO accounts (id, username, email, password_hash, role, refresh_token_hash,
			first_name, last_name, niche, company_name, website, industry, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), $7, $8, $9, $10, $11, $12, $13, $14)`,
		id, account.Username, account.Email, account.PasswordHash, string(account.Role), account.RefreshTokenHash,
		account.FirstName, account.LastName, account.Niche, account.CompanyName, account.Website, account.Industry,
		now, now,
	)
	if err != nil {
		return translate(err, "[postgresrepo.Create] insert failed")
	}

	account.ID = id
	account.CreatedAt = now
	account.UpdatedAt = now
	return nil
}

func (r *Repo) Update(ctx context.Context, account *users.Account) error {
	if _, err := uuid.Parse(account.ID); err != nil {
		return users.ErrNotFound
	}
	now := r.nowFunc().UTC()

	res, err := r.db.ExecContext(ctx, `
		UPDATE accounts SET username = $2, email = $3, password_hash = $4, role = $5,
			refresh_token_hash = NULLIF($6, ''), first_name = $7, last_name = $8, niche = $9,
			company_name = $10, website = $11, industry = $12, updated_at = $13
		WHERE id = $1`,
		account.ID, account.Username, account.Email, account.PasswordHash, string(account.Role), account.RefreshTokenHash,
		account.FirstName, account.LastName, account.Niche, account.CompanyName, account.Website, account.Industry,
		now,
	)
	if err != nil {
		return translate(err, "[postgresrepo.Update] update failed")
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "[postgresrepo.Update] rows affected")
	}
	if affected == 0 {
		return users.ErrNotFound
	}
	account.UpdatedAt = now
	return nil
}

func (r *Repo) GetByID(ctx context.Context, id string) (*users.Account, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, users.ErrNotFound
	}
	return r.queryOne(ctx, `SELECT `+selectColumns+` FROM accounts WHERE id = $1`, id)
}

func (r *Repo) FindByLogin(ctx context.Context, identifier string, role users.Role) (*users.Account, error) {
	return r.queryOne(ctx, `SELECT `+selectColumns+` FROM accounts WHERE role = $1 AND (username = $2 OR email = $2)`,
		string(role), identifier)
}

func (r *Repo) GetByEmail(ctx context.Context, email string) (*users.Account, error) {
	return r.queryOne(ctx, `SELECT `+selectColumns+` FROM accounts WHERE email = $1`, email)
}

func (r *Repo) FindByRefreshTokenHash(ctx context.Context, hash string) (*users.Account, error) {
	if hash == "" {
		return nil, users.ErrNotFound
	}
	return r.queryOne(ctx, `SELECT `+selectColumns+` FROM accounts WHERE refresh_token_hash = $1`, hash)
}

func (r *Repo) ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM accounts WHERE username = $1 OR email = $2)`, username, email,
	).Scan(&exists)
	if err != nil {
		return false, errors.Wrap(err, "[postgresrepo.ExistsByUsernameOrEmail] query failed")
	}
	return exists, nil
}

func (r *Repo) FindByRole(ctx context.Context, role users.Role) ([]*users.Account, error) {
	return r.query(ctx, `SELECT `+selectColumns+` FROM accounts WHERE role = $1 ORDER BY created_at`, string(role))
}

func (r *Repo) List(ctx context.Context) ([]*users.Account, error) {
	return r.query(ctx, `SELECT `+selectColumns+` FROM accounts ORDER BY created_at`)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanAccount(row scanner) (*users.Account, error) {
	var (
		a    users.Account
		role string
	)
	err := row.Scan(&a.ID, &a.Username, &a.Email, &a.PasswordHash, &role, &a.RefreshTokenHash,
		&a.FirstName, &a.LastName, &a.Niche, &a.CompanyName, &a.Website, &a.Industry, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	a.Role = users.Role(role)
	return &a, nil
}

func (r *Repo) queryOne(ctx context.Context, query string, args ...any) (*users.Account, error) {
	account, err := scanAccount(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, users.ErrNotFound
		}
		return nil, errors.Wrap(err, "[postgresrepo.queryOne] query failed")
	}
	return account, nil
}

func (r *Repo) query(ctx context.Context, query string, args ...any) ([]*users.Account, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "[postgresrepo.query] query failed")
	}
	defer rows.Close()

	accounts := make([]*users.Account, 0)
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, errors.Wrap(err, "[postgresrepo.query] scan failed")
		}
		accounts = append(accounts, account)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "[postgresrepo.query] iteration failed")
	}
	return accounts, nil
}

// translate maps a unique-constraint violation onto users.ErrDuplicate
func translate(err error, msg string) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return users.ErrDuplicate
	}
	return errors.Wrap(err, msg)
}
