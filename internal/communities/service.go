package communities

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/weaveapp/weave/backend/go-services/internal/models"
	"github.com/weaveapp/weave/backend/go-services/pkg/metrics"
)

// Service is a thin wrapper over the repository. Community mutations carry
// no render paths, so no revalidator is involved here.
type Service struct {
	repo Repository
}

func NewService(r Repository) *Service { return &Service{repo: r} }

func (s *Service) CreateCommunity(ctx context.Context, orgID, name, username, image, bio, createdBySub string) (*models.Community, error) {
	c, err := s.repo.Create(ctx, orgID, name, username, image, bio, createdBySub)
	metrics.ObserveRepoOp("communities", "create", err)
	return c, err
}

func (s *Service) FetchCommunityDetails(ctx context.Context, orgID string) (*Details, error) {
	return s.repo.FetchDetails(ctx, orgID)
}

func (s *Service) FetchCommunityPosts(ctx context.Context, id primitive.ObjectID) (*Posts, error) {
	return s.repo.FetchPosts(ctx, id)
}

func (s *Service) FetchCommunities(ctx context.Context, p ListParams) ([]*Summary, bool, error) {
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

func (s *Service) AddMemberToCommunity(ctx context.Context, orgID, memberSub string) (*models.Community, error) {
	c, err := s.repo.AddMember(ctx, orgID, memberSub)
	metrics.ObserveRepoOp("communities", "add_member", err)
	return c, err
}

func (s *Service) RemoveUserFromCommunity(ctx context.Context, memberSub, orgID string) error {
	err := s.repo.RemoveMember(ctx, memberSub, orgID)
	metrics.ObserveRepoOp("communities", "remove_member", err)
	return err
}

func (s *Service) UpdateCommunityInfo(ctx context.Context, orgID, name, username, image string) (*models.Community, error) {
	c, err := s.repo.UpdateInfo(ctx, orgID, name, username, image)
	metrics.ObserveRepoOp("communities", "update_info", err)
	return c, err
}

func (s *Service) DeleteCommunity(ctx context.Context, orgID string) (*models.Community, error) {
	c, err := s.repo.Delete(ctx, orgID)
	metrics.ObserveRepoOp("communities", "delete", err)
	return c, err
}
