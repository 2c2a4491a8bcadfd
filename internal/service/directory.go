package service

import (
	"context"

	"hotdesk/internal/domain"
	"hotdesk/internal/models"

	"github.com/rs/zerolog"
)

// Directory serves user lookups for the workflow: responder names for the
// ledger occupant label and notification targets.
type Directory struct {
	store  domain.Store
	logger *zerolog.Logger
}

func NewDirectory(store domain.Store, logger *zerolog.Logger) *Directory {
	return &Directory{
		store:  store,
		logger: logger,
	}
}

func (s *Directory) SaveUser(ctx context.Context, user *models.User) error {
	return s.store.CreateOrUpdateUser(ctx, user)
}

func (s *Directory) GetUser(ctx context.Context, id int64) (*models.User, error) {
	return s.store.GetUser(ctx, id)
}

func (s *Directory) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.store.GetUserByEmail(ctx, email)
}

func (s *Directory) GetAllUsers(ctx context.Context) ([]*models.User, error) {
	return s.store.GetAllUsers(ctx)
}

func (s *Directory) UpdateUserActivity(ctx context.Context, id int64) error {
	return s.store.UpdateUserActivity(ctx, id)
}
