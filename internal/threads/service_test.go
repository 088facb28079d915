package threads

import (
	"context"
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/weaveapp/weave/backend/go-services/internal/models"
	"github.com/weaveapp/weave/backend/go-services/internal/revalidate"
)

type fakeRepo struct {
	createCalls  int
	commentCalls int
	lastPage     int
	lastSize     int
}

func (f *fakeRepo) Create(ctx context.Context, text string, authorID primitive.ObjectID, communityID *primitive.ObjectID) (*models.Thread, error) {
	f.createCalls++
	return &models.Thread{ID: primitive.NewObjectID(), Text: text, Author: authorID}, nil
}

func (f *fakeRepo) FetchPosts(ctx context.Context, pageNumber, pageSize int) ([]*Node, bool, error) {
	f.lastPage = pageNumber
	f.lastSize = pageSize
	return []*Node{}, false, nil
}

func (f *fakeRepo) FetchByID(ctx context.Context, id primitive.ObjectID) (*Node, error) {
	return &Node{ID: id}, nil
}

func (f *fakeRepo) AddComment(ctx context.Context, threadID primitive.ObjectID, text string, authorID primitive.ObjectID) (*models.Thread, error) {
	f.commentCalls++
	return &models.Thread{ID: primitive.NewObjectID(), Text: text, Author: authorID, ParentID: &threadID}, nil
}

func (f *fakeRepo) Activity(ctx context.Context, userID primitive.ObjectID) ([]*Node, error) {
	return []*Node{}, nil
}

func TestCreateThreadSignalsRevalidation(t *testing.T) {
	repo := &fakeRepo{}
	rec := &revalidate.Recorder{}
	svc := NewService(repo, rec)

	if _, err := svc.CreateThread(context.Background(), "hi", primitive.NewObjectID(), nil, "/"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.createCalls != 1 {
		t.Fatalf("expected repo create to be called once, got %d", repo.createCalls)
	}
	if len(rec.Paths) != 1 || rec.Paths[0] != "/" {
		t.Fatalf("expected revalidation of %q, got %v", "/", rec.Paths)
	}
}

func TestAddCommentSignalsRevalidation(t *testing.T) {
	repo := &fakeRepo{}
	rec := &revalidate.Recorder{}
	svc := NewService(repo, rec)

	parentID := primitive.NewObjectID()
	if _, err := svc.AddCommentToThread(context.Background(), parentID, "re", primitive.NewObjectID(), "/thread/x"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.commentCalls != 1 {
		t.Fatalf("expected repo add comment to be called once, got %d", repo.commentCalls)
	}
	if len(rec.Paths) != 1 || rec.Paths[0] != "/thread/x" {
		t.Fatalf("expected revalidation of /thread/x, got %v", rec.Paths)
	}
}

func TestFetchPostsClampsPaging(t *testing.T) {
	repo := &fakeRepo{}
	svc := NewService(repo, nil)

	if _, _, err := svc.FetchPosts(context.Background(), 0, -3); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.lastPage != 1 || repo.lastSize != 20 {
		t.Fatalf("expected clamped paging (1, 20), got (%d, %d)", repo.lastPage, repo.lastSize)
	}
}
