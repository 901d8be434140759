package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/alexanderramin/loopmode/internal/db"
	"github.com/alexanderramin/loopmode/internal/domain"
	"github.com/alexanderramin/loopmode/internal/repository"
	"github.com/google/uuid"
)

type profileService struct {
	profiles repository.ProfileRepo
	uow      db.UnitOfWork
}

// NewProfileService manages treatment profiles. Activation runs inside uow so
// the previous profile is never left deactivated on failure.
func NewProfileService(profiles repository.ProfileRepo, uow db.UnitOfWork) ProfileService {
	return &profileService{profiles: profiles, uow: uow}
}

func (s *profileService) Add(ctx context.Context, name string, activate bool) (*domain.Profile, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.New("profile name is required")
	}
	p := &domain.Profile{
		ID:        uuid.New().String(),
		Name:      name,
		CreatedAt: time.Now().UTC(),
	}

	err := s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		repo := repository.NewSQLiteProfileRepo(tx)
		if err := repo.Create(ctx, p); err != nil {
			return err
		}
		if !activate {
			return nil
		}
		return repo.SetActive(ctx, p.ID)
	})
	if err != nil {
		return nil, fmt.Errorf("adding profile: %w", err)
	}
	p.Active = activate
	return p, nil
}

func (s *profileService) Use(ctx context.Context, name string) (*domain.Profile, error) {
	var p *domain.Profile
	err := s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		repo := repository.NewSQLiteProfileRepo(tx)
		found, err := repo.GetByName(ctx, name)
		if err != nil {
			return err
		}
		if err := repo.SetActive(ctx, found.ID); err != nil {
			return err
		}
		found.Active = true
		p = found
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("activating profile: %w", err)
	}
	return p, nil
}

func (s *profileService) List(ctx context.Context) ([]*domain.Profile, error) {
	return s.profiles.List(ctx)
}

func (s *profileService) CurrentProfile(ctx context.Context) (*domain.Profile, error) {
	p, err := s.profiles.Active(ctx)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	return p, err
}
