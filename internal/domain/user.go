package domain

import (
	"context"
	"time"
)

// Role is an application role carried in the access token.
type Role string

// Application roles.
const (
	RoleAdminOrg    Role = "ADMIN_ORG"
	RoleParticipant Role = "PARTICIPANT"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleAdminOrg || r == RoleParticipant
}

// User represents a registered user
// swagger:model User
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// NewUser returns a new User with the given fields. ID is typically set by the repository on create.
func NewUser(email, firstName, lastName, passwordHash string, role Role, createdAt, updatedAt time.Time) *User {
	return &User{
		Email:        email,
		FirstName:    firstName,
		LastName:     lastName,
		PasswordHash: passwordHash,
		Role:         role,
		CreatedAt:    createdAt,
		UpdatedAt:    updatedAt,
	}
}

// FullName returns the user's display name for ticket rendering.
func (u *User) FullName() string {
	return u.FirstName + " " + u.LastName
}

// PasswordHasher hashes and verifies user passwords.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) error
}

// TokenIssuer issues signed tokens for an authenticated user.
type TokenIssuer interface {
	Issue(userID, email string, role Role, expiry time.Duration) (string, error)
}

// TokenVerifier verifies a token and returns the authenticated user ID and role.
type TokenVerifier interface {
	Verify(token string) (userID string, role Role, err error)
}

// UserRepository defines the interface for user storage
type UserRepository interface {
	Create(ctx context.Context, user *User) error
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByID(ctx context.Context, id string) (*User, error)
}

// RefreshTokenRepository stores issued refresh tokens so they can be
// rotated and revoked.
type RefreshTokenRepository interface {
	Create(ctx context.Context, token, userID string, expiresAt time.Time) error
	Get(ctx context.Context, token string) (userID string, expiresAt time.Time, err error)
	Delete(ctx context.Context, token string) error
}

// TokenPair bundles the access and refresh tokens returned on login and refresh.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// AuthService defines registration and credential issuance.
type AuthService interface {
	Register(ctx context.Context, email, firstName, lastName, password string) (*User, error)
	Login(ctx context.Context, email, password string) (*TokenPair, *User, error)
	Refresh(ctx context.Context, refreshToken string) (*TokenPair, error)
	// Logout revokes the stored refresh token. Best effort: an unknown
	// or expired token is not an error from the caller's point of view.
	Logout(ctx context.Context, refreshToken string) error
}
