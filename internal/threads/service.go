package threads

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/weaveapp/weave/backend/go-services/internal/models"
	"github.com/weaveapp/weave/backend/go-services/internal/revalidate"
	"github.com/weaveapp/weave/backend/go-services/pkg/metrics"
)

// Service wraps the repository with input normalization and stale-page
// signalling after mutations.
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

// CreateThread inserts a top-level post and signals that path is stale.
func (s *Service) CreateThread(ctx context.Context, text string, authorID primitive.ObjectID, communityID *primitive.ObjectID, path string) (*models.Thread, error) {
	t, err := s.repo.Create(ctx, text, authorID, communityID)
	metrics.ObserveRepoOp("threads", "create", err)
	if err != nil {
		return nil, err
	}
	s.reval.Revalidate(ctx, path)
	return t, nil
}

func (s *Service) FetchPosts(ctx context.Context, pageNumber, pageSize int) ([]*Node, bool, error) {
	if pageNumber < 1 {
		pageNumber = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	return s.repo.FetchPosts(ctx, pageNumber, pageSize)
}

func (s *Service) FetchThreadByID(ctx context.Context, id primitive.ObjectID) (*Node, error) {
	return s.repo.FetchByID(ctx, id)
}

// AddCommentToThread creates a reply and signals that path is stale.
func (s *Service) AddCommentToThread(ctx context.Context, threadID primitive.ObjectID, text string, authorID primitive.ObjectID, path string) (*models.Thread, error) {
	t, err := s.repo.AddComment(ctx, threadID, text, authorID)
	metrics.ObserveRepoOp("threads", "add_comment", err)
	if err != nil {
		return nil, err
	}
	s.reval.Revalidate(ctx, path)
	return t, nil
}

// GetActivity answers "who replied to my threads".
func (s *Service) GetActivity(ctx context.Context, userID primitive.ObjectID) ([]*Node, error) {
	return s.repo.Activity(ctx, userID)
}
