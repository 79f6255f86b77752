package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"eventplanner/internal/domain"
)

type userService struct {
	userRepo       domain.UserRepository
	vendorRepo     domain.VendorProfileRepository
	contextTimeout time.Duration
}

// NewUserService returns a UserService backed by the given repositories.
func NewUserService(userRepo domain.UserRepository, vendorRepo domain.VendorProfileRepository, timeout time.Duration) domain.UserService {
	return &userService{
		userRepo:       userRepo,
		vendorRepo:     vendorRepo,
		contextTimeout: timeout,
	}
}

func (s *userService) GetByID(ctx context.Context, id string) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()
	return s.userRepo.GetByID(ctx, id)
}

func (s *userService) Me(ctx context.Context, id string) (*domain.User, error) {
	user, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := user.CheckActive(); err != nil {
		return nil, err
	}
	return user, nil
}

// UpdateProfile renames the user. The name must not be blank.
func (s *userService) UpdateProfile(ctx context.Context, id, name string) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", domain.ErrValidation)
	}
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := user.CheckActive(); err != nil {
		return nil, err
	}
	user.Name = name
	user.UpdatedAt = time.Now().UTC()
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}
	return user, nil
}

func (s *userService) VendorProfile(ctx context.Context, userID string) (*domain.VendorProfile, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()
	return s.vendorRepo.GetByUserID(ctx, userID)
}

// BecomeVendor opens a vendor profile for userID. A user holds at most one.
func (s *userService) BecomeVendor(ctx context.Context, userID, businessName string) (*domain.VendorProfile, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	businessName = strings.TrimSpace(businessName)
	if businessName == "" {
		return nil, fmt.Errorf("%w: business name is required", domain.ErrValidation)
	}
	if _, err := s.userRepo.GetByID(ctx, userID); err != nil {
		return nil, err
	}
	profile := &domain.VendorProfile{
		ID:           uuid.NewString(),
		UserID:       userID,
		BusinessName: businessName,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.vendorRepo.Create(ctx, profile); err != nil {
		return nil, err
	}
	return profile, nil
}
