package repository

import (
	"context"
	"errors"
	"fmt"

	"account_service/internal/common"
	"account_service/internal/domain/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/samber/oops"
)

// AccountRepository is the storage collaborator of the account service.
// Finders return (nil, nil) when no row matches. Update writes every column, so a
// row read for an Update must come from a locking finder inside WithinTx.
type AccountRepository interface {
	FindByEmail(ctx context.Context, email string) (*model.Account, error)
	FindByID(ctx context.Context, id uuid.UUID) (*model.Account, error)
	FindByEmailForUpdate(ctx context.Context, email string) (*model.Account, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Account, error)
	FindByVerificationToken(ctx context.Context, token string) (*model.Account, error)
	FindByResetToken(ctx context.Context, token string) (*model.Account, error)
	Insert(ctx context.Context, account *model.Account) (*model.Account, error)
	Update(ctx context.Context, account *model.Account) (*model.Account, error)
	List(ctx context.Context, offset, limit int) ([]*model.Account, error)
	Count(ctx context.Context) (int64, error)

	// WithinTx runs fn against a repository bound to one transaction. The transaction
	// commits only if fn returns nil.
	WithinTx(ctx context.Context, fn func(repo AccountRepository) error) error
}

// DBTX is satisfied by *pgxpool.Pool, pgx.Tx and pgxmock pools.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

const uniqueViolation = "23505"

const accountColumns = `id, name, email, password, role, verified,
	verification_token, token_expires_at, reset_token, reset_token_expires_at,
	created_at, updated_at`

type pgAccountRepository struct {
	db DBTX
}

func NewPgAccountRepository(db DBTX) AccountRepository {
	return &pgAccountRepository{db: db}
}

func (r *pgAccountRepository) WithinTx(ctx context.Context, fn func(repo AccountRepository) error) error {
	return pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		return fn(&pgAccountRepository{db: tx})
	})
}

func (r *pgAccountRepository) FindByEmail(ctx context.Context, email string) (*model.Account, error) {
	return r.findOne(ctx, "FindByEmail", `SELECT `+accountColumns+` FROM users WHERE email = $1`, email)
}

func (r *pgAccountRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Account, error) {
	return r.findOne(ctx, "FindByID", `SELECT `+accountColumns+` FROM users WHERE id = $1`, id)
}

func (r *pgAccountRepository) FindByEmailForUpdate(ctx context.Context, email string) (*model.Account, error) {
	return r.findOne(ctx, "FindByEmailForUpdate",
		`SELECT `+accountColumns+` FROM users WHERE email = $1 FOR UPDATE`, email)
}

func (r *pgAccountRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Account, error) {
	return r.findOne(ctx, "FindByIDForUpdate",
		`SELECT `+accountColumns+` FROM users WHERE id = $1 FOR UPDATE`, id)
}

func (r *pgAccountRepository) FindByVerificationToken(ctx context.Context, token string) (*model.Account, error) {
	return r.findOne(ctx, "FindByVerificationToken",
		`SELECT `+accountColumns+` FROM users WHERE verification_token = $1 FOR UPDATE`, token)
}

func (r *pgAccountRepository) FindByResetToken(ctx context.Context, token string) (*model.Account, error) {
	return r.findOne(ctx, "FindByResetToken",
		`SELECT `+accountColumns+` FROM users WHERE reset_token = $1 FOR UPDATE`, token)
}

func (r *pgAccountRepository) Insert(ctx context.Context, a *model.Account) (*model.Account, error) {
	query := `INSERT INTO users (id, name, email, password, role, verified, verification_token, token_expires_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	          RETURNING ` + accountColumns
	row := r.db.QueryRow(ctx, query,
		a.ID, a.Name, a.Email, a.PasswordHash, a.Role.String(), a.Verified,
		a.VerificationToken, a.VerificationTokenExpiresAt,
	)
	created, err := scanAccount(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, fmt.Errorf("user with given email already exists: %w", common.ErrEmailExist)
		}
		return nil, oops.Code("ACCOUNT_INSERT_FAILED").
			With("operation", "insert account").
			Wrap(err)
	}
	return created, nil
}

func (r *pgAccountRepository) Update(ctx context.Context, a *model.Account) (*model.Account, error) {
	query := `UPDATE users SET name = $2, email = $3, password = $4, role = $5, verified = $6,
	              verification_token = $7, token_expires_at = $8,
	              reset_token = $9, reset_token_expires_at = $10,
	              updated_at = $11
	          WHERE id = $1
	          RETURNING ` + accountColumns
	row := r.db.QueryRow(ctx, query,
		a.ID, a.Name, a.Email, a.PasswordHash, a.Role.String(), a.Verified,
		a.VerificationToken, a.VerificationTokenExpiresAt,
		a.ResetToken, a.ResetTokenExpiresAt,
		a.UpdatedAt,
	)
	updated, err := scanAccount(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, common.ErrUserNoLongerExist
		}
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, fmt.Errorf("user with given email already exists: %w", common.ErrEmailExist)
		}
		return nil, oops.Code("ACCOUNT_UPDATE_FAILED").
			With("operation", "update account").
			With("account_id", a.ID.String()).
			Wrap(err)
	}
	return updated, nil
}

func (r *pgAccountRepository) List(ctx context.Context, offset, limit int) ([]*model.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM users ORDER BY created_at DESC LIMIT $1 OFFSET $2`
	rows, err := r.db.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, oops.Code("ACCOUNT_LIST_FAILED").With("operation", "query accounts").Wrap(err)
	}
	defer rows.Close()

	accounts := make([]*model.Account, 0, limit)
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, oops.Code("ACCOUNT_LIST_FAILED").With("operation", "scan account").Wrap(err)
		}
		accounts = append(accounts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, oops.Code("ACCOUNT_LIST_FAILED").With("operation", "iterate accounts").Wrap(err)
	}
	return accounts, nil
}

func (r *pgAccountRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&n); err != nil {
		return 0, oops.Code("ACCOUNT_COUNT_FAILED").With("operation", "count accounts").Wrap(err)
	}
	return n, nil
}

func (r *pgAccountRepository) findOne(ctx context.Context, op, query string, arg any) (*model.Account, error) {
	a, err := scanAccount(r.db.QueryRow(ctx, query, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, oops.Code("ACCOUNT_LOOKUP_FAILED").With("operation", op).Wrap(err)
	}
	return a, nil
}

func scanAccount(row pgx.Row) (*model.Account, error) {
	a := &model.Account{}
	var role string
	err := row.Scan(
		&a.ID, &a.Name, &a.Email, &a.PasswordHash, &role, &a.Verified,
		&a.VerificationToken, &a.VerificationTokenExpiresAt,
		&a.ResetToken, &a.ResetTokenExpiresAt,
		&a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if a.Role, err = model.ParseRole(role); err != nil {
		return nil, fmt.Errorf("scan account %s: %w", a.ID, err)
	}
	return a, nil
}
