package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/samber/oops"

	"github.com/oksasatya/tourguide-auth/internal/domain/entity"
	"github.com/oksasatya/tourguide-auth/internal/domain/repository"
)

const defaultListLimit = 100

const userColumns = `id, name, email, photo, role, password_hash, password_changed_at,
		password_reset_token_hash, password_reset_expires_at, active, created_at, updated_at`

type UserRepository struct {
	db DBTX
}

func NewUserRepository(db DBTX) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(ctx context.Context, u *entity.User) error {
	if err := u.Validate(); err != nil {
		return err
	}
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	row := r.db.QueryRow(ctx, `
		INSERT INTO users (id, name, email, photo, role, password_hash, password_changed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING active, created_at, updated_at
	`, u.ID, u.Name, u.Email, u.Photo, string(u.Role), u.PasswordHash, u.PasswordChangedAt)

	if err := row.Scan(&u.Active, &u.CreatedAt, &u.UpdatedAt); err != nil {
		if isUniqueViolation(err) {
			return repository.ErrDuplicateEmail
		}
		return oops.Code("USER_CREATE_FAILED").
			With("operation", "insert user").
			Wrap(err)
	}
	return nil
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (*entity.User, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, repository.ErrNotFound
	}
	row := r.db.QueryRow(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE id = $1 AND active = TRUE
	`, id)
	return r.scanOne(row, "find by id")
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	row := r.db.QueryRow(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE email = $1 AND active = TRUE
	`, email)
	return r.scanOne(row, "find by email")
}

func (r *UserRepository) FindByResetTokenHash(ctx context.Context, hash string, notExpiredBefore time.Time) (*entity.User, error) {
	if hash == "" {
		return nil, repository.ErrNotFound
	}
	row := r.db.QueryRow(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE password_reset_token_hash = $1
		  AND password_reset_expires_at > $2
		  AND active = TRUE
	`, hash, notExpiredBefore)
	return r.scanOne(row, "find by reset token hash")
}

// Save writes the whole row in a single UPDATE, so a password change and the clearing of the
// reset challenge land atomically.
func (r *UserRepository) Save(ctx context.Context, u *entity.User, opts repository.SaveOptions) error {
	if !opts.SkipValidation {
		if err := u.Validate(); err != nil {
			return err
		}
	}
	u.UpdatedAt = time.Now()

	sql := `
		UPDATE users
		SET name = $2, email = $3, photo = $4, role = $5, password_hash = $6,
		    password_changed_at = $7, password_reset_token_hash = $8, password_reset_expires_at = $9,
		    active = $10, updated_at = $11
		WHERE id = $1 AND active = TRUE`
	args := []any{u.ID, u.Name, u.Email, u.Photo, string(u.Role), u.PasswordHash,
		u.PasswordChangedAt, nullString(u.PasswordResetTokenHash), u.PasswordResetExpiresAt,
		u.Active, u.UpdatedAt}
	if opts.ExpectResetHash != "" {
		sql += `
		  AND password_reset_token_hash = $12
		  AND password_reset_expires_at > $13`
		args = append(args, opts.ExpectResetHash, opts.ExpectResetLiveAt)
	}

	res, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		if isUniqueViolation(err) {
			return repository.ErrDuplicateEmail
		}
		return oops.Code("USER_UPDATE_FAILED").
			With("operation", "update user").
			With("user_id", u.ID).
			Wrap(err)
	}

	if res.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

func (r *UserRepository) List(ctx context.Context, opts repository.ListOptions) ([]*entity.User, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	offset := opts.Offset
	if offset < 0 {
		offset = 0
	}
	rows, err := r.db.Query(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE active = TRUE
		ORDER BY created_at, id
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, oops.Code("USER_QUERY_FAILED").With("operation", "list users").Wrap(err)
	}
	defer rows.Close()

	out := make([]*entity.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, oops.Code("USER_QUERY_FAILED").With("operation", "scan user").Wrap(err)
		}
		out = append(out, u)
	}
	if err := rows.Err(); err != nil {
		return nil, oops.Code("USER_QUERY_FAILED").With("operation", "list users").Wrap(err)
	}
	return out, nil
}

func (r *UserRepository) scanOne(row pgx.Row, op string) (*entity.User, error) {
	u, err := scanUser(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, oops.Code("USER_QUERY_FAILED").With("operation", op).Wrap(err)
	}
	return u, nil
}

func scanUser(row pgx.Row) (*entity.User, error) {
	var (
		u         entity.User
		role      string
		resetHash *string
	)
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &u.Photo, &role, &u.PasswordHash, &u.PasswordChangedAt,
		&resetHash, &u.PasswordResetExpiresAt, &u.Active, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	u.Role = entity.Role(role)
	if resetHash != nil {
		u.PasswordResetTokenHash = *resetHash
	}
	return &u, nil
}

func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}

var _ repository.UserRepository = (*UserRepository)(nil)
