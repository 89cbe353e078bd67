package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"eventreserve/internal/domain"
)

type authService struct {
	userRepo        domain.UserRepository
	tokenRepo       domain.RefreshTokenRepository
	hasher          domain.PasswordHasher
	issuer          domain.TokenIssuer
	verifier        domain.TokenVerifier
	accessTokenTTL  time.Duration
	refreshTokenTTL time.Duration
	contextTimeout  time.Duration
}

func NewAuthService(
	userRepo domain.UserRepository,
	tokenRepo domain.RefreshTokenRepository,
	hasher domain.PasswordHasher,
	issuer domain.TokenIssuer,
	verifier domain.TokenVerifier,
	accessTokenTTL, refreshTokenTTL, timeout time.Duration,
) domain.AuthService {
	return &authService{
		userRepo:        userRepo,
		tokenRepo:       tokenRepo,
		hasher:          hasher,
		issuer:          issuer,
		verifier:        verifier,
		accessTokenTTL:  accessTokenTTL,
		refreshTokenTTL: refreshTokenTTL,
		contextTimeout:  timeout,
	}
}

// Register creates a participant account. New accounts always get the
// PARTICIPANT role; organizer accounts are provisioned out of band.
func (s *authService) Register(ctx context.Context, email, firstName, lastName, password string) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	email = strings.ToLower(strings.TrimSpace(email))
	if _, err := s.userRepo.GetByEmail(ctx, email); err == nil {
		return nil, domain.ErrDuplicateEmail
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("get user by email: %w", err)
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := time.Now()
	user := domain.NewUser(email, firstName, lastName, hash, domain.RoleParticipant, now, now)
	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, domain.ErrDuplicateEmail) {
			return nil, domain.ErrDuplicateEmail
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}

func (s *authService) Login(ctx context.Context, email, password string) (*domain.TokenPair, *domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	user, err := s.userRepo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, nil, domain.ErrInvalidCredentials
		}
		return nil, nil, fmt.Errorf("get user by email: %w", err)
	}
	if err := s.hasher.Compare(user.PasswordHash, password); err != nil {
		return nil, nil, domain.ErrInvalidCredentials
	}

	pair, err := s.issuePair(ctx, user)
	if err != nil {
		return nil, nil, err
	}
	return pair, user, nil
}

// Refresh rotates the token pair: the presented refresh token must be
// on record and carry a valid signature, and is replaced by a new one.
func (s *authService) Refresh(ctx context.Context, refreshToken string) (*domain.TokenPair, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	userID, expiresAt, err := s.tokenRepo.Get(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("refresh token %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get refresh token: %w", err)
	}
	if time.Now().After(expiresAt) {
		_ = s.tokenRepo.Delete(ctx, refreshToken)
		return nil, domain.ErrInvalidCredentials
	}
	tokenUserID, _, err := s.verifier.Verify(refreshToken)
	if err != nil || tokenUserID != userID {
		return nil, domain.ErrInvalidCredentials
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("user %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	pair, err := s.issuePair(ctx, user)
	if err != nil {
		return nil, err
	}
	_ = s.tokenRepo.Delete(ctx, refreshToken)
	return pair, nil
}

// Logout is best effort: from the caller's point of view logging out
// with an unknown or expired token still succeeds.
func (s *authService) Logout(ctx context.Context, refreshToken string) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	_ = s.tokenRepo.Delete(ctx, refreshToken)
	return nil
}

func (s *authService) issuePair(ctx context.Context, user *domain.User) (*domain.TokenPair, error) {
	access, err := s.issuer.Issue(user.ID, user.Email, user.Role, s.accessTokenTTL)
	if err != nil {
		return nil, fmt.Errorf("issue access token: %w", err)
	}
	refresh, err := s.issuer.Issue(user.ID, user.Email, user.Role, s.refreshTokenTTL)
	if err != nil {
		return nil, fmt.Errorf("issue refresh token: %w", err)
	}
	if err := s.tokenRepo.Create(ctx, refresh, user.ID, time.Now().Add(s.refreshTokenTTL)); err != nil {
		return nil, fmt.Errorf("store refresh token: %w", err)
	}
	return &domain.TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}
