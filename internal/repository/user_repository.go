package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/user-service/internal/domain"
)

// UserRepository defines persistence access for accounts.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	Update(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByRecoveryToken(ctx context.Context, token string) (*domain.User, error)
}

type userRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository returns a Postgres-backed implementation.
func NewUserRepository(pool *pgxpool.Pool) UserRepository {
	return &userRepository{pool: pool}
}

const userColumns = `id, name, last_name, email, phone, address, password_hash, external_id,
        role_id, verified, confirmation_code, confirmation_expires, recovery_token,
        recovery_token_expires, created_at, updated_at`

func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	const query = `
        INSERT INTO users (id, name, last_name, email, phone, address, password_hash, external_id,
            role_id, verified, confirmation_code, confirmation_expires)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
        RETURNING created_at, updated_at`

	return r.pool.QueryRow(ctx, query,
		user.ID,
		user.Name,
		user.LastName,
		user.Email,
		user.Phone,
		user.Address,
		user.PasswordHash,
		user.ExternalID,
		user.RoleID,
		user.Verified,
		user.ConfirmationCode,
		user.ConfirmationExpires,
	).Scan(&user.CreatedAt, &user.UpdatedAt)
}

func (r *userRepository) Update(ctx context.Context, user *domain.User) error {
	const query = `
        UPDATE users SET name=$1, last_name=$2, email=$3, phone=$4, address=$5, password_hash=$6,
            external_id=$7, role_id=$8, verified=$9, confirmation_code=$10, confirmation_expires=$11,
            recovery_token=$12, recovery_token_expires=$13, updated_at=NOW()
        WHERE id=$14`

	cmd, err := r.pool.Exec(ctx, query,
		user.Name,
		user.LastName,
		user.Email,
		user.Phone,
		user.Address,
		user.PasswordHash,
		user.ExternalID,
		user.RoleID,
		user.Verified,
		user.ConfirmationCode,
		user.ConfirmationExpires,
		user.RecoveryToken,
		user.RecoveryTokenExpires,
		user.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE id=$1`, id)
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE email=$1`, email)
}

func (r *userRepository) GetByRecoveryToken(ctx context.Context, token string) (*domain.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE recovery_token=$1`, token)
}

func (r *userRepository) getOne(ctx context.Context, query string, arg any) (*domain.User, error) {
	var user domain.User
	if err := r.pool.QueryRow(ctx, query, arg).Scan(
		&user.ID,
		&user.Name,
		&user.LastName,
		&user.Email,
		&user.Phone,
		&user.Address,
		&user.PasswordHash,
		&user.ExternalID,
		&user.RoleID,
		&user.Verified,
		&user.ConfirmationCode,
		&user.ConfirmationExpires,
		&user.RecoveryToken,
		&user.RecoveryTokenExpires,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &user, nil
}
