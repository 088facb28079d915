package threads

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/weaveapp/weave/backend/go-services/internal/models"
)

// AuthorRef is the field-limited author projection attached to populated
// threads (enough for cards and avatars, nothing more).
type AuthorRef struct {
	ID    primitive.ObjectID `json:"id"`
	Sub   string             `json:"sub,omitempty"`
	Name  string             `json:"name,omitempty"`
	Image string             `json:"image,omitempty"`
}

// Node is a thread populated with its author and, depending on the query,
// one or two levels of replies. Children of the deepest populated level are
// left empty rather than carrying raw ids.
type Node struct {
	ID        primitive.ObjectID  `json:"id"`
	Text      string              `json:"text"`
	ParentID  *primitive.ObjectID `json:"parentId,omitempty"`
	Community *primitive.ObjectID `json:"community,omitempty"`
	Author    AuthorRef           `json:"author"`
	CreatedAt time.Time           `json:"createdAt"`
	Children  []*Node             `json:"children"`
}

// Repository defines persistence operations for threads.
//
// Create and AddComment maintain both sides of the parent/child and
// author/thread reference pairs; the store itself enforces nothing.
type Repository interface {
	// Create inserts a new top-level thread and appends its id to the
	// author's thread list. communityID is accepted but new posts always
	// start unattached; attaching happens through the community flow.
	Create(ctx context.Context, text string, authorID primitive.ObjectID, communityID *primitive.ObjectID) (*models.Thread, error)

	// FetchPosts returns one page of top-level threads, newest first, each
	// populated with its author and one level of replies. The boolean
	// reports whether more matching threads exist beyond this page.
	FetchPosts(ctx context.Context, pageNumber, pageSize int) ([]*Node, bool, error)

	// FetchByID returns a single thread with two levels of replies
	// populated. Missing threads yield apperrors.ErrNotFound.
	FetchByID(ctx context.Context, id primitive.ObjectID) (*Node, error)

	// AddComment creates a reply under threadID and records it in the
	// parent's children list.
	AddComment(ctx context.Context, threadID primitive.ObjectID, text string, authorID primitive.ObjectID) (*models.Thread, error)

	// Activity returns replies made by other users to threads authored by
	// userID, each populated with the replier's name, image and id.
	Activity(ctx context.Context, userID primitive.ObjectID) ([]*Node, error)
}
