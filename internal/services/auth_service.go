package services

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"social-go/internal/auth"
	"social-go/internal/config"
	"social-go/internal/models"
	"social-go/internal/storage"
)

var (
	ErrUserAlreadyExists  = errors.New("a user with this email already exists")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUserNotFound       = errors.New("user not found")
)

// AuthService handles registration and the two login paths: email/password
// and federated identity.
type AuthService interface {
	Register(ctx context.Context, email, name, password string) (string, *models.User, error)
	Login(ctx context.Context, email, password string) (string, *models.User, error)
	GoogleLogin(ctx context.Context, idToken string) (string, *models.User, error)
}

type authService struct {
	userRepo storage.UserRepository
	verifier auth.IdentityVerifier
	cfg      config.AuthConfig
}

// NewAuthService creates a new AuthService instance. verifier may be nil when
// federated login is disabled.
func NewAuthService(userRepo storage.UserRepository, verifier auth.IdentityVerifier, cfg config.AuthConfig) AuthService {
	return &authService{
		userRepo: userRepo,
		verifier: verifier,
		cfg:      cfg,
	}
}

// Register creates a new account and returns a token for it.
func (s *authService) Register(ctx context.Context, email, name, password string) (string, *models.User, error) {
	_, err := s.userRepo.GetByEmail(ctx, email)
	if err == nil {
		return "", nil, ErrUserAlreadyExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil, fmt.Errorf("failed to check email: %w", err)
	}

	hashedPassword, err := auth.HashPassword(password)
	if err != nil {
		return "", nil, fmt.Errorf("failed to hash password: %w", err)
	}

	newUser := &models.User{
		Email:        email,
		Name:         name,
		PasswordHash: hashedPassword,
	}
	if err := s.userRepo.Create(ctx, newUser); err != nil {
		return "", nil, fmt.Errorf("failed to create user: %w", err)
	}

	token, err := auth.GenerateToken(newUser.ID, newUser.Email, s.cfg)
	if err != nil {
		return "", nil, fmt.Errorf("failed to generate token: %w", err)
	}
	return token, newUser, nil
}

// Login authenticates by email and password. Unknown email and wrong password
// both map to ErrInvalidCredentials so the response does not leak which one
// it was.
func (s *authService) Login(ctx context.Context, email, password string) (string, *models.User, error) {
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil, ErrInvalidCredentials
		}
		return "", nil, fmt.Errorf("failed to look up user by email: %w", err)
	}

	if !auth.CheckPasswordHash(password, user.PasswordHash) {
		return "", nil, ErrInvalidCredentials
	}

	token, err := auth.GenerateToken(user.ID, user.Email, s.cfg)
	if err != nil {
		return "", nil, fmt.Errorf("failed to generate token: %w", err)
	}
	return token, user, nil
}

// GoogleLogin verifies the identity token through the configured oracle and
// finds or creates the matching account.
func (s *authService) GoogleLogin(ctx context.Context, idToken string) (string, *models.User, error) {
	if s.verifier == nil {
		return "", nil, auth.ErrIdentityTokenInvalid
	}

	claims, err := s.verifier.Verify(ctx, idToken)
	if err != nil {
		if errors.Is(err, auth.ErrIdentityTokenInvalid) {
			return "", nil, err
		}
		return "", nil, fmt.Errorf("identity verification failed: %w", err)
	}

	user, err := s.userRepo.GetByEmail(ctx, claims.Email)
	switch {
	case err == nil:
		// Known account: refresh the federated fields and fill blanks.
		user.IsGoogleUser = true
		user.GoogleID = claims.Subject
		if user.Name == "" && claims.Name != "" {
			user.Name = claims.Name
		}
		if user.AvatarURL == "" && claims.Picture != "" {
			user.AvatarURL = claims.Picture
		}
		if err := s.userRepo.Update(ctx, user); err != nil {
			return "", nil, fmt.Errorf("failed to update google user: %w", err)
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
		user = &models.User{
			Email:        claims.Email,
			Name:         claims.Name,
			AvatarURL:    claims.Picture,
			IsGoogleUser: true,
			GoogleID:     claims.Subject,
		}
		if err := s.userRepo.Create(ctx, user); err != nil {
			return "", nil, fmt.Errorf("failed to create google user: %w", err)
		}
	default:
		return "", nil, fmt.Errorf("failed to look up user by email: %w", err)
	}

	token, err := auth.GenerateToken(user.ID, user.Email, s.cfg)
	if err != nil {
		return "", nil, fmt.Errorf("failed to generate token: %w", err)
	}
	return token, user, nil
}
