package users

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/weaveapp/weave/backend/go-services/internal/apperrors"
	"github.com/weaveapp/weave/backend/go-services/internal/models"
	"github.com/weaveapp/weave/backend/go-services/internal/threads"
)

// MongoUserRepository implements Repository using MongoDB.
type MongoUserRepository struct {
	users       *mongo.Collection
	threadsRepo *threads.MongoRepository
	threadsCol  *mongo.Collection
}

// NewMongoUserRepository creates a repository over the given database.
// An index on "sub" keeps identity lookups fast; subjects are unique.
func NewMongoUserRepository(db *mongo.Database) *MongoUserRepository {
	col := db.Collection("users")
	idx := mongo.IndexModel{Keys: bson.D{{Key: "sub", Value: 1}}, Options: options.Index().SetUnique(true)}
	col.Indexes().CreateOne(context.Background(), idx)
	return &MongoUserRepository{
		users:       col,
		threadsRepo: threads.NewMongoRepository(db),
		threadsCol:  db.Collection("threads"),
	}
}

func (r *MongoUserRepository) Upsert(ctx context.Context, p UpsertParams) (*models.User, error) {
	now := time.Now().UTC()
	filter := bson.M{"sub": p.Sub}
	update := bson.M{
		"$set": bson.M{
			"username":  p.Username,
			"name":      p.Name,
			"image":     p.Image,
			"bio":       p.Bio,
			"onboarded": true,
			"updatedAt": now,
		},
		"$setOnInsert": bson.M{
			"createdAt":   now,
			"threads":     []primitive.ObjectID{},
			"communities": []primitive.ObjectID{},
		},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)
	var u models.User
	if err := r.users.FindOneAndUpdate(ctx, filter, update, opts).Decode(&u); err != nil {
		return nil, fmt.Errorf("upsert user: %v: %w", err, apperrors.ErrPersistence)
	}
	return &u, nil
}

func (r *MongoUserRepository) Fetch(ctx context.Context, sub string) (*models.User, error) {
	var u models.User
	if err := r.users.FindOne(ctx, bson.M{"sub": sub}).Decode(&u); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, fmt.Errorf("user %s: %w", sub, apperrors.ErrNotFound)
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return &u, nil
}

func (r *MongoUserRepository) FetchThreads(ctx context.Context, sub string) (*ProfileThreads, error) {
	u, err := r.Fetch(ctx, sub)
	if err != nil {
		return nil, err
	}
	if len(u.Threads) == 0 {
		return &ProfileThreads{User: *u, Threads: []*threads.Node{}}, nil
	}

	cur, err := r.threadsCol.Find(ctx, bson.M{"_id": bson.M{"$in": u.Threads}},
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		return nil, fmt.Errorf("find user threads: %w", err)
	}
	var owned []models.Thread
	if err := cur.All(ctx, &owned); err != nil {
		return nil, fmt.Errorf("decode user threads: %w", err)
	}

	nodes, err := r.threadsRepo.Populate(ctx, owned, 1)
	if err != nil {
		return nil, err
	}
	return &ProfileThreads{User: *u, Threads: nodes}, nil
}

func (r *MongoUserRepository) List(ctx context.Context, p ListParams) ([]*models.User, bool, error) {
	skip := int64(p.PageNumber-1) * int64(p.PageSize)

	filter := bson.M{"sub": bson.M{"$ne": p.Sub}}
	if p.SearchString != "" {
		re := primitive.Regex{Pattern: p.SearchString, Options: "i"}
		filter["$or"] = bson.A{
			bson.M{"username": bson.M{"$regex": re}},
			bson.M{"name": bson.M{"$regex": re}},
		}
	}

	order := -1
	if p.SortBy == "asc" {
		order = 1
	}

	total, err := r.users.CountDocuments(ctx, filter)
	if err != nil {
		return nil, false, fmt.Errorf("count users: %w", err)
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: order}}).
		SetSkip(skip).
		SetLimit(int64(p.PageSize))
	cur, err := r.users.Find(ctx, filter, opts)
	if err != nil {
		return nil, false, fmt.Errorf("find users: %w", err)
	}
	var page []*models.User
	if err := cur.All(ctx, &page); err != nil {
		return nil, false, fmt.Errorf("decode users: %w", err)
	}
	return page, total > skip+int64(len(page)), nil
}
