package memory

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"eventplanner/internal/domain"
)

type userRepository struct {
	mu      sync.RWMutex
	byID    map[string]*domain.User
	byEmail map[string]string
}

func NewUserRepository() domain.UserRepository {
	return &userRepository{
		byID:    make(map[string]*domain.User),
		byEmail: make(map[string]string),
	}
}

func (r *userRepository) Create(ctx context.Context, u *domain.User) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	email := strings.ToLower(u.Email)
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byEmail[email]; ok {
		return domain.ErrDuplicateEmail
	}
	stored := *u
	stored.Email = email
	if stored.Status == "" {
		stored.Status = domain.UserStatusActive
	}
	r.byID[u.ID] = &stored
	r.byEmail[email] = u.ID
	return nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byEmail[strings.ToLower(email)]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	u := *r.byID[id]
	return &u, nil
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	out := *u
	return &out, nil
}

func (r *userRepository) Update(ctx context.Context, u *domain.User) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.byID[u.ID]
	if !ok {
		return domain.ErrUserNotFound
	}
	stored.Name = u.Name
	stored.UpdatedAt = u.UpdatedAt
	return nil
}

type vendorProfileRepository struct {
	mu     sync.RWMutex
	byID   map[string]*domain.VendorProfile
	byUser map[string]string
}

func NewVendorProfileRepository() domain.VendorProfileRepository {
	return &vendorProfileRepository{
		byID:   make(map[string]*domain.VendorProfile),
		byUser: make(map[string]string),
	}
}

func (r *vendorProfileRepository) Create(ctx context.Context, p *domain.VendorProfile) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byUser[p.UserID]; ok {
		return domain.ErrAlreadyVendor
	}
	stored := *p
	r.byID[p.ID] = &stored
	r.byUser[p.UserID] = p.ID
	return nil
}

func (r *vendorProfileRepository) GetByID(ctx context.Context, id string) (*domain.VendorProfile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: vendor profile", domain.ErrNotFound)
	}
	out := *p
	return &out, nil
}

func (r *vendorProfileRepository) GetByUserID(ctx context.Context, userID string) (*domain.VendorProfile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byUser[userID]
	if !ok {
		return nil, fmt.Errorf("%w: vendor profile", domain.ErrNotFound)
	}
	out := *r.byID[id]
	return &out, nil
}
