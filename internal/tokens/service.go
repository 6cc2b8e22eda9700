package tokens

import (
	"context"

	"github.com/threadline/threadline-backend/pkg/errors"
	"github.com/threadline/threadline-backend/pkg/logger"
)

// Service is the device token registry. Tokens only accumulate; stale ones
// surface as push failures at dispatch time and are never pruned here.
type Service interface {
	Register(ctx context.Context, userName, token string) error
	TokensFor(ctx context.Context, userName string) ([]string, error)
	Revoke(ctx context.Context, userName string) (int64, error)
}

type service struct {
	repo Repository
	logg *logger.Logger
}

func NewService(repo Repository, logg *logger.Logger) Service {
	if repo == nil {
		panic("tokens: repo is required")
	}
	if logg == nil {
		panic("tokens: logger is required")
	}
	return &service{repo: repo, logg: logg}
}

func (s *service) Register(ctx context.Context, userName, token string) error {
	if userName == "" {
		return errors.New(errors.CodeValidation, "userName is required")
	}
	if token == "" {
		return errors.New(errors.CodeValidation, "token is required")
	}
	if err := s.repo.Upsert(ctx, userName, token); err != nil {
		return err
	}
	s.logg.Info(s.logg.WithWorker(ctx, userName), "device token registered")
	return nil
}

func (s *service) TokensFor(ctx context.Context, userName string) ([]string, error) {
	if userName == "" {
		return nil, errors.New(errors.CodeValidation, "userName is required")
	}
	return s.repo.TokensFor(ctx, userName)
}

// Revoke drops every token for a user. Exposed for admin cleanup when a
// worker leaves; nothing in the pipeline calls it automatically.
func (s *service) Revoke(ctx context.Context, userName string) (int64, error) {
	if userName == "" {
		return 0, errors.New(errors.CodeValidation, "userName is required")
	}
	return s.repo.DeleteForUser(ctx, userName)
}
