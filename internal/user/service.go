package user

import (
	"context"
	"errors"
	"time"

	"studioslot/internal/logger"
)

type Service interface {
	GetByID(ctx context.Context, userID int) (*User, error)
	SignWaiver(ctx context.Context, userID int) (*User, error)
	WaiverSigned(ctx context.Context, userID int) (bool, error)
}

type service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) Service {
	return &service{repo: repo, now: time.Now}
}

func (s *service) GetByID(ctx context.Context, userID int) (*User, error) {
	return s.repo.FindByID(ctx, userID)
}

func (s *service) SignWaiver(ctx context.Context, userID int) (*User, error) {
	u, err := s.repo.SignWaiver(ctx, userID, s.now().UTC())
	if err != nil {
		return nil, err
	}
	logger.WithContext(ctx).Info("waiver signed", "user_id", userID)
	return u, nil
}

// WaiverSigned reports false for members the identity provider has not synced yet.
func (s *service) WaiverSigned(ctx context.Context, userID int) (bool, error) {
	u, err := s.repo.FindByID(ctx, userID)
	if errors.Is(err, ErrUserNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return u.HasSignedWaiver(), nil
}
