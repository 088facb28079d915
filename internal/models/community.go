package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Community groups users and their threads. OrgID is the identifier assigned
// by the identity provider's organization feature and is distinct from the
// internal record id.
type Community struct {
	ID        primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	OrgID     string               `bson:"id" json:"orgId"`
	Name      string               `bson:"name" json:"name"`
	Username  string               `bson:"username" json:"username"`
	Image     string               `bson:"image,omitempty" json:"image,omitempty"`
	Bio       string               `bson:"bio,omitempty" json:"bio,omitempty"`
	CreatedBy primitive.ObjectID   `bson:"createdBy" json:"createdBy"`
	Members   []primitive.ObjectID `bson:"members" json:"members"`
	Threads   []primitive.ObjectID `bson:"threads" json:"threads"`
	CreatedAt time.Time            `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time            `bson:"updatedAt" json:"updatedAt"`
}
