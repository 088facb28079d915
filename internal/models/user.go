package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User represents an application user (mapped from identity-provider claims).
// The record mirrors the external identity; it is never hard-deleted here.
type User struct {
	ID          primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	Sub         string               `bson:"sub" json:"sub"` // OIDC subject
	Username    string               `bson:"username" json:"username"`
	Name        string               `bson:"name" json:"name"`
	Image       string               `bson:"image,omitempty" json:"image,omitempty"`
	Bio         string               `bson:"bio,omitempty" json:"bio,omitempty"`
	Onboarded   bool                 `bson:"onboarded" json:"onboarded"`
	Threads     []primitive.ObjectID `bson:"threads" json:"threads"`
	Communities []primitive.ObjectID `bson:"communities" json:"communities"`
	CreatedAt   time.Time            `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time            `bson:"updatedAt" json:"updatedAt"`
}
