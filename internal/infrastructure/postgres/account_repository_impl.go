package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shopsphere/accounts/internal/domain/entity"
	"github.com/shopsphere/accounts/internal/domain/repository"
)

const accountColumns = `
	id, email, password_hash, name, address, role, is_verified, is_active,
	verification_token, reset_password_token, reset_password_expires_at,
	login_attempts, lock_until, last_login_at, created_at, updated_at`

type AccountRepository struct {
	pool *pgxpool.Pool
}

func NewAccountRepository(pool *pgxpool.Pool) *AccountRepository {
	return &AccountRepository{pool: pool}
}

func scanAccount(row pgx.Row) (*entity.Account, error) {
	a := &entity.Account{}
	var verifyTok, resetTok *string
	if err := row.Scan(&a.ID, &a.Email, &a.PasswordHash, &a.Name, &a.Address,
		&a.Role, &a.IsVerified, &a.IsActive,
		&verifyTok, &resetTok, &a.ResetPasswordExpiresAt,
		&a.LoginAttempts, &a.LockUntil, &a.LastLoginAt,
		&a.CreatedAt, &a.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	if verifyTok != nil {
		a.VerificationToken = *verifyTok
	}
	if resetTok != nil {
		a.ResetPasswordToken = *resetTok
	}
	return a, nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func (r *AccountRepository) Create(ctx context.Context, a *entity.Account) error {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO accounts (email, password_hash, name, address, role, is_verified, is_active, verification_token)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at
	`, a.Email, a.PasswordHash, a.Name, a.Address, a.Role, a.IsVerified, a.IsActive, nullable(a.VerificationToken))

	if err := row.Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt); err != nil {
		if isUniqueViolation(err) {
			return repository.ErrDuplicateEmail
		}
		return err
	}
	return nil
}

func (r *AccountRepository) GetByID(ctx context.Context, id string) (*entity.Account, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = $1`, id)
	return scanAccount(row)
}

func (r *AccountRepository) GetByEmail(ctx context.Context, email string) (*entity.Account, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE email = $1`, email)
	return scanAccount(row)
}

func (r *AccountRepository) GetByEmailAndRole(ctx context.Context, email string, role entity.Role) (*entity.Account, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE email = $1 AND role = $2`, email, role)
	return scanAccount(row)
}

func (r *AccountRepository) List(ctx context.Context) ([]*entity.Account, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+accountColumns+` FROM accounts ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collect(rows)
}

func (r *AccountRepository) ListByRole(ctx context.Context, role entity.Role) ([]*entity.Account, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+accountColumns+` FROM accounts WHERE role = $1 ORDER BY created_at`, role)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collect(rows)
}

func collect(rows pgx.Rows) ([]*entity.Account, error) {
	var out []*entity.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *AccountRepository) Update(ctx context.Context, a *entity.Account) error {
	a.UpdatedAt = time.Now()
	res, err := r.pool.Exec(ctx, `
		UPDATE accounts
		SET email = $1, name = $2, address = $3, role = $4, is_verified = $5, is_active = $6, updated_at = $7
		WHERE id = $8
	`, a.Email, a.Name, a.Address, a.Role, a.IsVerified, a.IsActive, a.UpdatedAt, a.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return repository.ErrDuplicateEmail
		}
		return err
	}
	if res.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *AccountRepository) Delete(ctx context.Context, id string) error {
	res, err := r.pool.Exec(ctx, `DELETE FROM accounts WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *AccountRepository) SetVerificationToken(ctx context.Context, id, token string) error {
	res, err := r.pool.Exec(ctx, `
		UPDATE accounts SET verification_token = $1, updated_at = now()
		WHERE id = $2 AND is_verified = false
	`, token, id)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// ConfirmVerification relies on the single UPDATE being the commit point:
// two racing confirms on one token get one row and zero rows respectively.
func (r *AccountRepository) ConfirmVerification(ctx context.Context, token string) (*entity.Account, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE accounts
		SET is_verified = true, verification_token = NULL, updated_at = now()
		WHERE verification_token = $1
		RETURNING `+accountColumns, token)
	return scanAccount(row)
}

func (r *AccountRepository) SetResetToken(ctx context.Context, id, token string, expiresAt time.Time) error {
	res, err := r.pool.Exec(ctx, `
		UPDATE accounts
		SET reset_password_token = $1, reset_password_expires_at = $2, updated_at = now()
		WHERE id = $3
	`, token, expiresAt, id)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *AccountRepository) ConfirmReset(ctx context.Context, token string, role entity.Role, now time.Time, newHash string, clearLockout bool) (*entity.Account, error) {
	query := `
		UPDATE accounts
		SET password_hash = $1,
		    reset_password_token = NULL,
		    reset_password_expires_at = NULL,`
	if clearLockout {
		query += `
		    login_attempts = 0,
		    lock_until = NULL,`
	}
	query += `
		    updated_at = now()
		WHERE reset_password_token = $2 AND reset_password_expires_at > $3`
	args := []any{newHash, token, now}
	if role != "" {
		query += ` AND role = $4`
		args = append(args, role)
	}
	query += ` RETURNING ` + accountColumns

	row := r.pool.QueryRow(ctx, query, args...)
	return scanAccount(row)
}

func (r *AccountRepository) UpdatePassword(ctx context.Context, id, hash string) error {
	res, err := r.pool.Exec(ctx, `
		UPDATE accounts
		SET password_hash = $1, reset_password_token = NULL, reset_password_expires_at = NULL, updated_at = now()
		WHERE id = $2
	`, hash, id)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *AccountRepository) RecordLoginSuccess(ctx context.Context, id string, now time.Time) error {
	res, err := r.pool.Exec(ctx, `
		UPDATE accounts
		SET login_attempts = 0, lock_until = NULL, last_login_at = $1, updated_at = now()
		WHERE id = $2
	`, now, id)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// RecordLoginFailure keeps the increment and the threshold decision in one
// statement; the counter is not reset at the threshold, so further failures
// keep pushing the lock forward.
func (r *AccountRepository) RecordLoginFailure(ctx context.Context, id string, threshold int, lockUntil time.Time) error {
	res, err := r.pool.Exec(ctx, `
		UPDATE accounts
		SET login_attempts = login_attempts + 1,
		    lock_until = CASE WHEN login_attempts + 1 >= $1 THEN $2 ELSE lock_until END,
		    updated_at = now()
		WHERE id = $3
	`, threshold, lockUntil, id)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

var _ repository.AccountRepository = (*AccountRepository)(nil)
