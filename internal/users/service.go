package users

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

type Service struct {
	Repo Repo
}

func NewService(repo Repo) *Service {
	return &Service{Repo: repo}
}

// Upsert persists a directory entry so allocations and audit records
// reference stable user IDs.
func (s *Service) Upsert(ctx context.Context, user User) error {
	if s == nil || s.Repo == nil {
		return errors.New("users service not configured")
	}
	if strings.TrimSpace(user.ID) == "" || strings.TrimSpace(user.Email) == "" {
		return errors.New("user id and email are required")
	}
	if !user.Role.Valid() {
		return fmt.Errorf("unknown role %q", user.Role)
	}
	return s.Repo.Upsert(ctx, user)
}

func (s *Service) GetByID(ctx context.Context, userID string) (User, error) {
	if s == nil || s.Repo == nil {
		return User{}, errors.New("users service not configured")
	}
	if strings.TrimSpace(userID) == "" {
		return User{}, errors.New("user id is required")
	}
	return s.Repo.GetByID(ctx, userID)
}

func (s *Service) ListByRole(ctx context.Context, role Role) ([]User, error) {
	if s == nil || s.Repo == nil {
		return nil, errors.New("users service not configured")
	}
	if !role.Valid() {
		return nil, fmt.Errorf("unknown role %q", role)
	}
	return s.Repo.ListByRole(ctx, role)
}
