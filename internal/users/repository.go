package users

import (
	"context"

	"github.com/weaveapp/weave/backend/go-services/internal/models"
	"github.com/weaveapp/weave/backend/go-services/internal/threads"
)

// UpsertParams carries a profile save. Username is expected to arrive
// already normalized (the service lowercases it).
type UpsertParams struct {
	Sub      string
	Username string
	Name     string
	Image    string
	Bio      string
}

// ListParams controls the paginated, searchable user listing. Sub names the
// requesting user, who is excluded from the results. SortBy is "asc" or
// "desc" on creation time.
type ListParams struct {
	Sub          string
	SearchString string
	PageNumber   int
	PageSize     int
	SortBy       string
}

// ProfileThreads is a user together with their authored threads, each
// populated with one level of replies and the reply authors.
type ProfileThreads struct {
	User    models.User     `json:"user"`
	Threads []*threads.Node `json:"threads"`
}

// Repository defines persistence operations for users.
type Repository interface {
	// Upsert creates or updates the record matched by Sub. Every call
	// marks the user onboarded.
	Upsert(ctx context.Context, p UpsertParams) (*models.User, error)

	// Fetch returns the user matched by sub, or apperrors.ErrNotFound.
	// Communities are returned as raw ids, deliberately unpopulated.
	Fetch(ctx context.Context, sub string) (*models.User, error)

	// FetchThreads returns the user's authored threads populated one
	// reply level deep.
	FetchThreads(ctx context.Context, sub string) (*ProfileThreads, error)

	// List returns one page of users matching the search, excluding the
	// requester. The boolean reports whether further pages exist.
	List(ctx context.Context, p ListParams) ([]*models.User, bool, error)
}
