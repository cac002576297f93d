package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/shrimpsizemoose/dragning/internal/models"
	"github.com/shrimpsizemoose/dragning/internal/store"
)

// Login checks credentials and issues a bearer token. Unknown emails,
// wrong passwords and deactivated users all get the same error.
func (s *Service) Login(ctx context.Context, actor Actor, req *models.LoginRequest) (string, *models.User, error) {
	if err := req.Validate(); err != nil {
		return "", nil, validationError(err)
	}

	user, err := s.Store.GetUserByEmail(ctx, req.Email)
	if err != nil {
		return "", nil, err
	}
	if user == nil || !user.IsActive || !CheckPassword(user.PasswordHash, req.Password) {
		return "", nil, fmt.Errorf("%w: invalid credentials", ErrUnauthorized)
	}

	token, _, err := s.Auth.IssueToken(user)
	if err != nil {
		return "", nil, err
	}

	if err := s.Store.TouchLastLogin(ctx, user.ID); err != nil {
		logger.Error.Printf("Failed to update last login for user %d: %v", user.ID, err)
	}

	actor.UserID = &user.ID
	s.audit(ctx, actor, "LOGIN", "users", &user.ID, nil, nil)

	return token, user, nil
}

func (s *Service) Logout(ctx context.Context, actor Actor, claims *Claims) error {
	if err := s.Auth.Revoke(ctx, claims); err != nil {
		return err
	}
	s.audit(ctx, actor, "LOGOUT", "users", &claims.UserID, nil, nil)
	return nil
}

// BootstrapAdmin creates the configured admin account when no users exist.
// Running it again is harmless. It returns true when an account was made.
func (s *Service) BootstrapAdmin(ctx context.Context) (bool, error) {
	count, err := s.Store.CountUsers(ctx)
	if err != nil {
		return false, err
	}
	if count > 0 {
		return false, nil
	}

	email := s.Config.Auth.AdminEmail
	if email == "" {
		return false, fmt.Errorf("no users exist and no admin email is configured")
	}

	password := s.Config.Auth.AdminPassword
	generated := password == ""
	if generated {
		password, err = randomHex(12)
		if err != nil {
			return false, fmt.Errorf("failed to generate admin password: %w", err)
		}
	}

	hash, err := HashPassword(password)
	if err != nil {
		return false, err
	}

	_, err = s.Store.CreateUser(ctx, &models.User{
		Email:        email,
		PasswordHash: hash,
		Role:         models.RoleAdmin,
		Name:         s.Config.Auth.AdminName,
	})
	if errors.Is(err, store.ErrConflict) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	logger.Info.Printf("Created admin account %s", email)
	if generated {
		logger.Info.Printf("Generated admin password: %s (change it after first login)", password)
	}
	return true, nil
}

// CreateUser adds an account with a hashed password. Used by tooling and tests.
func (s *Service) CreateUser(ctx context.Context, email, password, name string, role models.Role) (*models.User, error) {
	if !role.Valid() {
		return nil, fmt.Errorf("%w: unknown role %q", ErrValidation, role)
	}
	hash, err := HashPassword(password)
	if err != nil {
		return nil, err
	}
	user := &models.User{Email: email, PasswordHash: hash, Role: role, Name: name, IsActive: true}
	if _, err := s.Store.CreateUser(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}
