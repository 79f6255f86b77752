package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"eventplanner/internal/domain"
)

type vendorProfileRepository struct {
	DB *sql.DB
}

func NewVendorProfileRepository(db *sql.DB) domain.VendorProfileRepository {
	return &vendorProfileRepository{DB: db}
}

// Create inserts a profile. vendor_profiles.user_id is unique, so a second profile
// for the same user surfaces as ErrAlreadyVendor.
func (r *vendorProfileRepository) Create(ctx context.Context, p *domain.VendorProfile) error {
	query := `
		INSERT INTO vendor_profiles (id, user_id, business_name, created_at)
		VALUES ($1, $2, $3, $4)
	`
	if _, err := r.DB.ExecContext(ctx, query, p.ID, p.UserID, p.BusinessName, p.CreatedAt); err != nil {
		if pqCode(err) == codeUniqueViolation {
			return domain.ErrAlreadyVendor
		}
		return err
	}
	return nil
}

func (r *vendorProfileRepository) GetByID(ctx context.Context, id string) (*domain.VendorProfile, error) {
	query := `
		SELECT id, user_id, business_name, created_at
		FROM vendor_profiles
		WHERE id = $1
	`
	return r.scanOne(ctx, query, id)
}

func (r *vendorProfileRepository) GetByUserID(ctx context.Context, userID string) (*domain.VendorProfile, error) {
	query := `
		SELECT id, user_id, business_name, created_at
		FROM vendor_profiles
		WHERE user_id = $1
	`
	return r.scanOne(ctx, query, userID)
}

func (r *vendorProfileRepository) scanOne(ctx context.Context, query, arg string) (*domain.VendorProfile, error) {
	p := &domain.VendorProfile{}
	err := r.DB.QueryRowContext(ctx, query, arg).Scan(&p.ID, &p.UserID, &p.BusinessName, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) || pqCode(err) == codeInvalidText {
			return nil, fmt.Errorf("%w: vendor profile", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get vendor profile: %w", err)
	}
	return p, nil
}
