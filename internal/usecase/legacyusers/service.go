// Package legacyusers implements CRUD over the plain users_table.
package legacyusers

import (
	"context"
	"errors"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/eci4ever/bizadmin/internal/boundaries/in"
	"github.com/eci4ever/bizadmin/internal/boundaries/out"
	"github.com/eci4ever/bizadmin/internal/domain"
	"github.com/eci4ever/bizadmin/pkg/sanitize"
)

var _ in.LegacyUserService = (*Service)(nil)

// Service implements in.LegacyUserService.
type Service struct {
	repo out.LegacyUserRepository
	log  *log.Logger
}

// NewService creates a new legacy user service.
func NewService(repo out.LegacyUserRepository, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.Default()
	}
	return &Service{repo: repo, log: logger}
}

func (s *Service) List(ctx context.Context) ([]domain.LegacyUser, error) {
	return s.repo.List(ctx)
}

func (s *Service) Get(ctx context.Context, id int64) (*domain.LegacyUser, error) {
	u, err := s.repo.Get(ctx, id)
	if errors.Is(err, out.ErrNoRows) {
		return nil, domain.NotFound("User not found")
	}
	return u, err
}

func (s *Service) Create(ctx context.Context, input in.CreateLegacyUserInput) (*domain.LegacyUser, error) {
	name, err := sanitize.PlainText("name", input.Name)
	if err != nil {
		return nil, domain.Validation(err.Error())
	}
	email := strings.TrimSpace(input.Email)
	if name == "" || email == "" || input.Age == 0 {
		return nil, domain.Validation("name, age, and email are required")
	}
	if input.Age < 0 {
		return nil, domain.Validation("age must be a positive number")
	}
	if !domain.ValidEmail(email) {
		return nil, domain.Validation("invalid email format")
	}

	u, err := s.repo.Insert(ctx, name, input.Age, email)
	if errors.Is(err, out.ErrUniqueViolation) {
		return nil, domain.Conflict("Email already exists")
	}
	if err != nil {
		return nil, err
	}
	s.log.Debug("legacy user created", "id", u.ID)
	return u, nil
}

func (s *Service) Update(ctx context.Context, id int64, patch domain.LegacyUserPatch) (*domain.LegacyUser, error) {
	if patch.Name != nil {
		name, err := sanitize.PlainText("name", *patch.Name)
		if err != nil {
			return nil, domain.Validation(err.Error())
		}
		if name == "" {
			return nil, domain.Validation("name cannot be empty")
		}
		patch.Name = &name
	}
	if patch.Age != nil && *patch.Age < 0 {
		return nil, domain.Validation("age must be a positive number")
	}
	if patch.Email != nil {
		email := strings.TrimSpace(*patch.Email)
		if !domain.ValidEmail(email) {
			return nil, domain.Validation("invalid email format")
		}
		patch.Email = &email
	}

	u, err := s.repo.Update(ctx, id, patch)
	switch {
	case errors.Is(err, out.ErrNoRows):
		return nil, domain.NotFound("User not found")
	case errors.Is(err, out.ErrUniqueViolation):
		return nil, domain.Conflict("Email already exists")
	case err != nil:
		return nil, err
	}
	return u, nil
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	err := s.repo.Delete(ctx, id)
	if errors.Is(err, out.ErrNoRows) {
		return domain.NotFound("User not found")
	}
	return err
}
