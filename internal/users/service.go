package users

import (
	"context"
	"strings"

	"github.com/weaveapp/weave/backend/go-services/internal/models"
	"github.com/weaveapp/weave/backend/go-services/internal/revalidate"
	"github.com/weaveapp/weave/backend/go-services/pkg/metrics"
)

// ProfileEditPath is the only route whose save triggers a stale-page signal.
// First-time onboarding saves do not revalidate.
const ProfileEditPath = "/profile/edit"

// Service encapsulates user-related business logic.
type Service struct {
	repo  Repository
	reval revalidate.Revalidator
}

func NewService(r Repository, rv revalidate.Revalidator) *Service {
	if rv == nil {
		rv = revalidate.Noop{}
	}
	return &Service{repo: r, reval: rv}
}

// UpsertUser saves a profile; the username is stored lowercased and the user
// is marked onboarded on every call.
func (s *Service) UpsertUser(ctx context.Context, p UpsertParams, path string) (*models.User, error) {
	p.Username = strings.ToLower(p.Username)
	u, err := s.repo.Upsert(ctx, p)
	metrics.ObserveRepoOp("users", "upsert", err)
	if err != nil {
		return nil, err
	}
	if path == ProfileEditPath {
		s.reval.Revalidate(ctx, path)
	}
	return u, nil
}

func (s *Service) FetchUser(ctx context.Context, sub string) (*models.User, error) {
	return s.repo.Fetch(ctx, sub)
}

func (s *Service) FetchUserThreads(ctx context.Context, sub string) (*ProfileThreads, error) {
	return s.repo.FetchThreads(ctx, sub)
}

func (s *Service) FetchUsers(ctx context.Context, p ListParams) ([]*models.User, bool, error) {
	if p.PageNumber < 1 {
		p.PageNumber = 1
	}
	if p.PageSize < 1 {
		p.PageSize = 20
	}
	if p.SortBy != "asc" {
		p.SortBy = "desc"
	}
	return s.repo.List(ctx, p)
}
