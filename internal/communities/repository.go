package communities

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/weaveapp/weave/backend/go-services/internal/models"
	"github.com/weaveapp/weave/backend/go-services/internal/threads"
)

// MemberRef is the field-limited member projection returned by detail and
// listing queries.
type MemberRef struct {
	ID       primitive.ObjectID `json:"id"`
	Sub      string             `json:"sub,omitempty"`
	Name     string             `json:"name,omitempty"`
	Username string             `json:"username,omitempty"`
	Image    string             `json:"image,omitempty"`
}

// Details is a community populated with its creator and members.
type Details struct {
	Community models.Community `json:"community"`
	CreatedBy MemberRef        `json:"createdBy"`
	Members   []MemberRef      `json:"members"`
}

// Posts is a community with its threads populated one reply level deep.
type Posts struct {
	Community models.Community `json:"community"`
	Threads   []*threads.Node  `json:"threads"`
}

// Summary is a listing row: the community plus populated members.
type Summary struct {
	Community models.Community `json:"community"`
	Members   []MemberRef      `json:"members"`
}

// ListParams mirrors the user listing contract: case-insensitive substring
// search over username OR name, 1-based pagination, createdAt sort.
type ListParams struct {
	SearchString string
	PageNumber   int
	PageSize     int
	SortBy       string
}

// Repository defines persistence operations for communities. Membership is a
// bidirectional reference pair; every mutation updates both sides within one
// call, never as two independent operations.
type Repository interface {
	// Create inserts a community and records it on the creator. The
	// creator is not added to members automatically.
	Create(ctx context.Context, orgID, name, username, image, bio, createdBySub string) (*models.Community, error)

	// FetchDetails returns the community matched by external org id.
	FetchDetails(ctx context.Context, orgID string) (*Details, error)

	// FetchPosts returns the community matched by internal record id with
	// populated threads.
	FetchPosts(ctx context.Context, id primitive.ObjectID) (*Posts, error)

	// List returns one page of communities matching the search.
	List(ctx context.Context, p ListParams) ([]*Summary, bool, error)

	// AddMember joins memberSub to the community. Duplicate joins yield
	// apperrors.ErrAlreadyMember and leave the membership untouched.
	AddMember(ctx context.Context, orgID, memberSub string) (*models.Community, error)

	// RemoveMember severs both sides of the membership. Removing an
	// absent membership is not an error; missing records are.
	RemoveMember(ctx context.Context, memberSub, orgID string) error

	// UpdateInfo updates name, username and image.
	UpdateInfo(ctx context.Context, orgID, name, username, image string) (*models.Community, error)

	// Delete removes the community, deletes its threads and pulls its id
	// out of every member's communities list. The per-member updates run
	// concurrently and are best-effort: one failed save does not undo the
	// deletion or the other saves.
	Delete(ctx context.Context, orgID string) (*models.Community, error)
}
