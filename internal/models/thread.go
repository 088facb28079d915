package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Thread is a post or a reply. A reply carries a non-nil ParentID and must
// also appear in its parent's Children list; the repository keeps both sides
// in sync because the store itself enforces nothing.
type Thread struct {
	ID        primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	Text      string               `bson:"text" json:"text"`
	Author    primitive.ObjectID   `bson:"author" json:"author"`
	Community *primitive.ObjectID  `bson:"community,omitempty" json:"community,omitempty"`
	ParentID  *primitive.ObjectID  `bson:"parentId,omitempty" json:"parentId,omitempty"`
	Children  []primitive.ObjectID `bson:"children" json:"children"`
	CreatedAt time.Time            `bson:"createdAt" json:"createdAt"`
}

// IsTopLevel reports whether the thread is an original post rather than a reply.
func (t *Thread) IsTopLevel() bool { return t.ParentID == nil }
