package threads

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
)

// topLevelFilter matches threads with no parent. parentId is stored with
// omitempty, so nil matches both an absent and an explicit null field.
var topLevelFilter = bson.M{"parentId": nil}

// MongoRepository implements Repository against the threads and users
// collections of one database.
type MongoRepository struct {
	threads *mongo.Collection
	users   *mongo.Collection
}

func NewMongoRepository(db *mongo.Database) *MongoRepository {
	return &MongoRepository{
		threads: db.Collection("threads"),
		users:   db.Collection("users"),
	}
}

func (m *MongoRepository) Create(ctx context.Context, text string, authorID primitive.ObjectID, communityID *primitive.ObjectID) (*models.Thread, error) {
	t := &models.Thread{
		Text:      text,
		Author:    authorID,
		Children:  []primitive.ObjectID{},
		CreatedAt: time.Now().UTC(),
	}
	res, err := m.threads.InsertOne(ctx, t)
	if err != nil {
		return nil, fmt.Errorf("insert thread: %v: %w", err, apperrors.ErrPersistence)
	}
	t.ID = res.InsertedID.(primitive.ObjectID)

	upd, err := m.users.UpdateByID(ctx, authorID, bson.M{"$push": bson.M{"threads": t.ID}})
	if err != nil {
		return nil, fmt.Errorf("record thread on author: %v: %w", err, apperrors.ErrPersistence)
	}
	if upd.MatchedCount == 0 {
		return nil, fmt.Errorf("author %s does not resolve: %w", authorID.Hex(), apperrors.ErrPersistence)
	}
	return t, nil
}

func (m *MongoRepository) FetchPosts(ctx context.Context, pageNumber, pageSize int) ([]*Node, bool, error) {
	skip := int64(pageNumber-1) * int64(pageSize)

	total, err := m.threads.CountDocuments(ctx, topLevelFilter)
	if err != nil {
		return nil, false, fmt.Errorf("count posts: %w", err)
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetSkip(skip).
		SetLimit(int64(pageSize))
	cur, err := m.threads.Find(ctx, topLevelFilter, opts)
	if err != nil {
		return nil, false, fmt.Errorf("find posts: %w", err)
	}
	var page []models.Thread
	if err := cur.All(ctx, &page); err != nil {
		return nil, false, fmt.Errorf("decode posts: %w", err)
	}

	nodes, err := m.Populate(ctx, page, 1)
	if err != nil {
		return nil, false, err
	}
	isNext := total > skip+int64(len(nodes))
	return nodes, isNext, nil
}

func (m *MongoRepository) FetchByID(ctx context.Context, id primitive.ObjectID) (*Node, error) {
	var t models.Thread
	if err := m.threads.FindOne(ctx, bson.M{"_id": id}).Decode(&t); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, fmt.Errorf("thread %s: %w", id.Hex(), apperrors.ErrNotFound)
		}
		return nil, fmt.Errorf("find thread: %w", err)
	}
	nodes, err := m.Populate(ctx, []models.Thread{t}, 2)
	if err != nil {
		return nil, err
	}
	return nodes[0], nil
}

func (m *MongoRepository) AddComment(ctx context.Context, threadID primitive.ObjectID, text string, authorID primitive.ObjectID) (*models.Thread, error) {
	var parent models.Thread
	if err := m.threads.FindOne(ctx, bson.M{"_id": threadID}).Decode(&parent); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, fmt.Errorf("thread %s: %w", threadID.Hex(), apperrors.ErrNotFound)
		}
		return nil, fmt.Errorf("find parent thread: %w", err)
	}

	child := &models.Thread{
		Text:      text,
		Author:    authorID,
		ParentID:  &threadID,
		Children:  []primitive.ObjectID{},
		CreatedAt: time.Now().UTC(),
	}
	res, err := m.threads.InsertOne(ctx, child)
	if err != nil {
		return nil, fmt.Errorf("insert comment: %v: %w", err, apperrors.ErrPersistence)
	}
	child.ID = res.InsertedID.(primitive.ObjectID)

	if _, err := m.threads.UpdateByID(ctx, threadID, bson.M{"$push": bson.M{"children": child.ID}}); err != nil {
		return nil, fmt.Errorf("record comment on parent: %v: %w", err, apperrors.ErrPersistence)
	}
	return child, nil
}

func (m *MongoRepository) Activity(ctx context.Context, userID primitive.ObjectID) ([]*Node, error) {
	cur, err := m.threads.Find(ctx, bson.M{"author": userID})
	if err != nil {
		return nil, fmt.Errorf("find authored threads: %w", err)
	}
	var authored []models.Thread
	if err := cur.All(ctx, &authored); err != nil {
		return nil, fmt.Errorf("decode authored threads: %w", err)
	}

	var replyIDs []primitive.ObjectID
	for _, t := range authored {
		replyIDs = append(replyIDs, t.Children...)
	}
	if len(replyIDs) == 0 {
		return []*Node{}, nil
	}

	cur, err = m.threads.Find(ctx, bson.M{
		"_id":    bson.M{"$in": replyIDs},
		"author": bson.M{"$ne": userID},
	})
	if err != nil {
		return nil, fmt.Errorf("find replies: %w", err)
	}
	var replies []models.Thread
	if err := cur.All(ctx, &replies); err != nil {
		return nil, fmt.Errorf("decode replies: %w", err)
	}
	return m.Populate(ctx, replies, 0)
}

// Populate resolves authors for the given threads and recursively attaches
// up to depth levels of replies, each with its own author resolved.
func (m *MongoRepository) Populate(ctx context.Context, page []models.Thread, depth int) ([]*Node, error) {
	authorIDs := make([]primitive.ObjectID, 0, len(page))
	childIDs := make([]primitive.ObjectID, 0)
	for _, t := range page {
		authorIDs = append(authorIDs, t.Author)
		if depth > 0 {
			childIDs = append(childIDs, t.Children...)
		}
	}

	authors, err := m.loadAuthors(ctx, authorIDs)
	if err != nil {
		return nil, err
	}

	var childNodes map[primitive.ObjectID]*Node
	if depth > 0 && len(childIDs) > 0 {
		children, err := m.loadThreads(ctx, childIDs)
		if err != nil {
			return nil, err
		}
		populated, err := m.Populate(ctx, children, depth-1)
		if err != nil {
			return nil, err
		}
		childNodes = make(map[primitive.ObjectID]*Node, len(populated))
		for _, n := range populated {
			childNodes[n.ID] = n
		}
	}

	nodes := make([]*Node, 0, len(page))
	for _, t := range page {
		n := &Node{
			ID:        t.ID,
			Text:      t.Text,
			ParentID:  t.ParentID,
			Community: t.Community,
			Author:    authors[t.Author],
			CreatedAt: t.CreatedAt,
			Children:  []*Node{},
		}
		for _, cid := range t.Children {
			if c, ok := childNodes[cid]; ok {
				n.Children = append(n.Children, c)
			}
		}
		nodes = append(nodes, n)
	}
	return nodes, nil
}

func (m *MongoRepository) loadAuthors(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]AuthorRef, error) {
	out := make(map[primitive.ObjectID]AuthorRef, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	cur, err := m.users.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, fmt.Errorf("find authors: %w", err)
	}
	var users []models.User
	if err := cur.All(ctx, &users); err != nil {
		return nil, fmt.Errorf("decode authors: %w", err)
	}
	for _, u := range users {
		out[u.ID] = AuthorRef{ID: u.ID, Sub: u.Sub, Name: u.Name, Image: u.Image}
	}
	return out, nil
}

func (m *MongoRepository) loadThreads(ctx context.Context, ids []primitive.ObjectID) ([]models.Thread, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	cur, err := m.threads.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, fmt.Errorf("find child threads: %w", err)
	}
	var out []models.Thread
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode child threads: %w", err)
	}
	return out, nil
}
