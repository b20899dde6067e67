package services

import (
	"context"
	"errors"
	"time"

	"esn-monitor/backend/app/models"
	"esn-monitor/backend/app/repo"

	"golang.org/x/crypto/bcrypt"
)

type UserService struct{ users *repo.UserRepository }

func NewUserService(users *repo.UserRepository) *UserService { return &UserService{users: users} }

// EnsureAdmin creates the bootstrap administrator when no user with that
// name exists yet.
func (s *UserService) EnsureAdmin(ctx context.Context, username, password string) error {
	if username == "" || password == "" {
		return validationf("admin username and password are required")
	}
	count, err := s.users.CountByUsername(ctx, username)
	if err != nil {
		return storeErr("ensure admin", err)
	}
	if count > 0 {
		return nil
	}
	return s.CreateUser(ctx, username, password, models.RoleAdmin)
}

func (s *UserService) CreateUser(ctx context.Context, username, password, role string) error {
	if role == "" {
		role = models.RoleViewer
	}
	if role != models.RoleAdmin && role != models.RoleViewer {
		return validationf("unknown role %q", role)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	return storeErr("create user", s.users.Create(ctx, &models.AdminUser{Username: username, PasswordHash: string(hash), Role: role}))
}

// ValidateCredentials returns ErrUnauthorized for an unknown user or a wrong
// password alike.
func (s *UserService) ValidateCredentials(ctx context.Context, username, password string) (*models.AdminUser, error) {
	u, err := s.users.FindByUsername(ctx, username)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrUnauthorized
	}
	if err != nil {
		return nil, storeErr("validate credentials", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return nil, ErrUnauthorized
	}
	now := time.Now().UTC()
	if err := s.users.TouchLogin(ctx, u.ID, now); err == nil {
		u.LastLogin = &now
	}
	return u, nil
}
