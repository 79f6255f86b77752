package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"eventplanner/internal/domain"
)

type userRepository struct {
	DB *sql.DB
}

func NewUserRepository(db *sql.DB) domain.UserRepository {
	return &userRepository{DB: db}
}

func (r *userRepository) Create(ctx context.Context, u *domain.User) error {
	query := `
		INSERT INTO users (id, email, password_hash, salt, name, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	if u.Status == "" {
		u.Status = domain.UserStatusActive
	}
	_, err := r.DB.ExecContext(ctx, query, u.ID, strings.ToLower(u.Email), u.PasswordHash, u.Salt, u.Name, string(u.Status), u.CreatedAt, u.UpdatedAt)
	if err != nil {
		if pqCode(err) == codeUniqueViolation {
			return domain.ErrDuplicateEmail
		}
		return err
	}
	return nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := `
		SELECT id, email, password_hash, salt, name, status, created_at, updated_at
		FROM users
		WHERE email = $1
	`
	return r.scanOne(ctx, query, strings.ToLower(email))
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	query := `
		SELECT id, email, password_hash, salt, name, status, created_at, updated_at
		FROM users
		WHERE id = $1
	`
	return r.scanOne(ctx, query, id)
}

func (r *userRepository) Update(ctx context.Context, u *domain.User) error {
	query := `
		UPDATE users
		SET name = $2, updated_at = $3
		WHERE id = $1
	`
	res, err := r.DB.ExecContext(ctx, query, u.ID, u.Name, u.UpdatedAt)
	if err != nil {
		if pqCode(err) == codeInvalidText {
			return domain.ErrUserNotFound
		}
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func (r *userRepository) scanOne(ctx context.Context, query string, arg string) (*domain.User, error) {
	u := &domain.User{}
	var status string
	err := r.DB.QueryRowContext(ctx, query, arg).Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Salt, &u.Name, &status, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) || pqCode(err) == codeInvalidText {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	u.Status = domain.UserStatus(status)
	return u, nil
}
