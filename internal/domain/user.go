package domain

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Sentinel errors for user operations.
var (
	ErrUserNotFound       = errors.New("user not found")
	ErrDuplicateEmail     = errors.New("email already in use")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAlreadyVendor      = errors.New("user is already a vendor")
	ErrUserInactive       = errors.New("user is not active")
)

// UserStatus is the account state. Only active users may sign in.
type UserStatus string

const (
	UserStatusActive   UserStatus = "active"
	UserStatusInactive UserStatus = "inactive"
	UserStatusBlocked  UserStatus = "blocked"
)

// User represents a registered user
// swagger:model User
type User struct {
	ID           string     `json:"id"`
	Email        string     `json:"email"`
	Name         string     `json:"name"`
	Status       UserStatus `json:"status"`
	PasswordHash string     `json:"-"`
	Salt         string     `json:"-"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// NewUser returns a new active User with the given fields.
func NewUser(id, email, name string, createdAt, updatedAt time.Time) *User {
	return &User{
		ID:        id,
		Email:     email,
		Name:      name,
		Status:    UserStatusActive,
		CreatedAt: createdAt,
		UpdatedAt: updatedAt,
	}
}

// CheckActive returns ErrUserInactive for inactive and blocked accounts.
// An unset status counts as active.
func (u *User) CheckActive() error {
	switch u.Status {
	case "", UserStatusActive:
		return nil
	default:
		return fmt.Errorf("%w: user is %s", ErrUserInactive, u.Status)
	}
}

// VendorProfile is the marketplace identity a user offers services under.
// swagger:model VendorProfile
type VendorProfile struct {
	ID           string    `json:"id"`
	UserID       string    `json:"user_id"`
	BusinessName string    `json:"business_name"`
	CreatedAt    time.Time `json:"created_at"`
}

// PasswordHasher handles salt generation, hashing, and verification.
type PasswordHasher interface {
	GenerateSalt() (string, error)
	Hash(salt, password string) (hash string, err error)
	Compare(hash, salt, password string) error
}

// TokenIssuer issues session tokens for an authenticated user.
type TokenIssuer interface {
	Issue(userID, email string, expiry time.Duration) (string, error)
}

// TokenVerifier verifies a session token and returns the authenticated user ID.
type TokenVerifier interface {
	Verify(token string) (userID string, err error)
}

// UserRepository defines the interface for user storage
type UserRepository interface {
	Create(ctx context.Context, user *User) error
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByID(ctx context.Context, id string) (*User, error)
	// Update writes name and updated_at. It returns ErrUserNotFound for unknown ids.
	Update(ctx context.Context, user *User) error
}

// VendorProfileRepository defines storage for vendor profiles.
type VendorProfileRepository interface {
	Create(ctx context.Context, profile *VendorProfile) error
	GetByID(ctx context.Context, id string) (*VendorProfile, error)
	GetByUserID(ctx context.Context, userID string) (*VendorProfile, error)
}

// AuthService signs users up and in.
type AuthService interface {
	SignUp(ctx context.Context, email, password, name string) (*User, error)
	Login(ctx context.Context, email, password string) (token string, user *User, err error)
}

// UserService exposes profile lookups, profile updates and the vendor upgrade.
type UserService interface {
	GetByID(ctx context.Context, id string) (*User, error)
	// Me returns the caller's own profile and rejects inactive accounts.
	Me(ctx context.Context, id string) (*User, error)
	UpdateProfile(ctx context.Context, id, name string) (*User, error)
	VendorProfile(ctx context.Context, userID string) (*VendorProfile, error)
	BecomeVendor(ctx context.Context, userID, businessName string) (*VendorProfile, error)
}
