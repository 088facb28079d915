package communities

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"golang.org/x/sync/errgroup"

	"github.com/weaveapp/weave/backend/go-services/internal/apperrors"
	"github.com/weaveapp/weave/backend/go-services/internal/models"
	"github.com/weaveapp/weave/backend/go-services/internal/threads"
	"github.com/weaveapp/weave/backend/go-services/pkg/logger"
)

// MongoRepository implements Repository against the communities, users and
// threads collections of one database.
type MongoRepository struct {
	communities *mongo.Collection
	users       *mongo.Collection
	threadsCol  *mongo.Collection
	threadsRepo *threads.MongoRepository
}

// NewMongoRepository creates a repository over the given database with a
// unique index on the external org id.
func NewMongoRepository(db *mongo.Database) *MongoRepository {
	col := db.Collection("communities")
	idx := mongo.IndexModel{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)}
	col.Indexes().CreateOne(context.Background(), idx)
	return &MongoRepository{
		communities: col,
		users:       db.Collection("users"),
		threadsCol:  db.Collection("threads"),
		threadsRepo: threads.NewMongoRepository(db),
	}
}

func (m *MongoRepository) Create(ctx context.Context, orgID, name, username, image, bio, createdBySub string) (*models.Community, error) {
	var creator models.User
	if err := m.users.FindOne(ctx, bson.M{"sub": createdBySub}).Decode(&creator); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, fmt.Errorf("creator %s: %w", createdBySub, apperrors.ErrNotFound)
		}
		return nil, fmt.Errorf("find creator: %w", err)
	}

	c := &models.Community{
		OrgID:     orgID,
		Name:      name,
		Username:  username,
		Image:     image,
		Bio:       bio,
		CreatedBy: creator.ID,
		Members:   []primitive.ObjectID{},
		Threads:   []primitive.ObjectID{},
		CreatedAt: time.Now().UTC(),
	}
	res, err := m.communities.InsertOne(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("insert community: %v: %w", err, apperrors.ErrPersistence)
	}
	c.ID = res.InsertedID.(primitive.ObjectID)

	if _, err := m.users.UpdateByID(ctx, creator.ID, bson.M{"$push": bson.M{"communities": c.ID}}); err != nil {
		return nil, fmt.Errorf("record community on creator: %v: %w", err, apperrors.ErrPersistence)
	}
	return c, nil
}

func (m *MongoRepository) FetchDetails(ctx context.Context, orgID string) (*Details, error) {
	c, err := m.byOrgID(ctx, orgID)
	if err != nil {
		return nil, err
	}

	refs, err := m.loadMembers(ctx, append([]primitive.ObjectID{c.CreatedBy}, c.Members...))
	if err != nil {
		return nil, err
	}
	d := &Details{Community: *c, CreatedBy: refs[c.CreatedBy], Members: []MemberRef{}}
	for _, id := range c.Members {
		if ref, ok := refs[id]; ok {
			d.Members = append(d.Members, ref)
		}
	}
	return d, nil
}

func (m *MongoRepository) FetchPosts(ctx context.Context, id primitive.ObjectID) (*Posts, error) {
	var c models.Community
	if err := m.communities.FindOne(ctx, bson.M{"_id": id}).Decode(&c); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, fmt.Errorf("community %s: %w", id.Hex(), apperrors.ErrNotFound)
		}
		return nil, fmt.Errorf("find community: %w", err)
	}

	out := &Posts{Community: c, Threads: []*threads.Node{}}
	if len(c.Threads) == 0 {
		return out, nil
	}
	cur, err := m.threadsCol.Find(ctx, bson.M{"_id": bson.M{"$in": c.Threads}},
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		return nil, fmt.Errorf("find community threads: %w", err)
	}
	var owned []models.Thread
	if err := cur.All(ctx, &owned); err != nil {
		return nil, fmt.Errorf("decode community threads: %w", err)
	}
	nodes, err := m.threadsRepo.Populate(ctx, owned, 1)
	if err != nil {
		return nil, err
	}
	out.Threads = nodes
	return out, nil
}

func (m *MongoRepository) List(ctx context.Context, p ListParams) ([]*Summary, bool, error) {
	skip := int64(p.PageNumber-1) * int64(p.PageSize)

	filter := bson.M{}
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

	total, err := m.communities.CountDocuments(ctx, filter)
	if err != nil {
		return nil, false, fmt.Errorf("count communities: %w", err)
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: order}}).
		SetSkip(skip).
		SetLimit(int64(p.PageSize))
	cur, err := m.communities.Find(ctx, filter, opts)
	if err != nil {
		return nil, false, fmt.Errorf("find communities: %w", err)
	}
	var page []models.Community
	if err := cur.All(ctx, &page); err != nil {
		return nil, false, fmt.Errorf("decode communities: %w", err)
	}

	memberIDs := make([]primitive.ObjectID, 0)
	for _, c := range page {
		memberIDs = append(memberIDs, c.Members...)
	}
	refs, err := m.loadMembers(ctx, memberIDs)
	if err != nil {
		return nil, false, err
	}

	out := make([]*Summary, 0, len(page))
	for _, c := range page {
		s := &Summary{Community: c, Members: []MemberRef{}}
		for _, id := range c.Members {
			if ref, ok := refs[id]; ok {
				s.Members = append(s.Members, ref)
			}
		}
		out = append(out, s)
	}
	return out, total > skip+int64(len(out)), nil
}

func (m *MongoRepository) AddMember(ctx context.Context, orgID, memberSub string) (*models.Community, error) {
	c, err := m.byOrgID(ctx, orgID)
	if err != nil {
		return nil, err
	}
	var u models.User
	if err := m.users.FindOne(ctx, bson.M{"sub": memberSub}).Decode(&u); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, fmt.Errorf("user %s: %w", memberSub, apperrors.ErrNotFound)
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	for _, id := range c.Members {
		if id == u.ID {
			return nil, fmt.Errorf("user %s in community %s: %w", memberSub, orgID, apperrors.ErrAlreadyMember)
		}
	}

	if _, err := m.communities.UpdateByID(ctx, c.ID, bson.M{"$push": bson.M{"members": u.ID}}); err != nil {
		return nil, fmt.Errorf("record member on community: %v: %w", err, apperrors.ErrPersistence)
	}
	if _, err := m.users.UpdateByID(ctx, u.ID, bson.M{"$push": bson.M{"communities": c.ID}}); err != nil {
		return nil, fmt.Errorf("record community on member: %v: %w", err, apperrors.ErrPersistence)
	}
	c.Members = append(c.Members, u.ID)
	return c, nil
}

func (m *MongoRepository) RemoveMember(ctx context.Context, memberSub, orgID string) error {
	var u models.User
	if err := m.users.FindOne(ctx, bson.M{"sub": memberSub}).Decode(&u); err != nil {
		if err == mongo.ErrNoDocuments {
			return fmt.Errorf("user %s: %w", memberSub, apperrors.ErrNotFound)
		}
		return fmt.Errorf("find user: %w", err)
	}
	c, err := m.byOrgID(ctx, orgID)
	if err != nil {
		return err
	}

	if _, err := m.communities.UpdateByID(ctx, c.ID, bson.M{"$pull": bson.M{"members": u.ID}}); err != nil {
		return fmt.Errorf("remove member from community: %v: %w", err, apperrors.ErrPersistence)
	}
	if _, err := m.users.UpdateByID(ctx, u.ID, bson.M{"$pull": bson.M{"communities": c.ID}}); err != nil {
		return fmt.Errorf("remove community from member: %v: %w", err, apperrors.ErrPersistence)
	}
	return nil
}

func (m *MongoRepository) UpdateInfo(ctx context.Context, orgID, name, username, image string) (*models.Community, error) {
	update := bson.M{"$set": bson.M{
		"name":      name,
		"username":  username,
		"image":     image,
		"updatedAt": time.Now().UTC(),
	}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var c models.Community
	if err := m.communities.FindOneAndUpdate(ctx, bson.M{"id": orgID}, update, opts).Decode(&c); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, fmt.Errorf("community %s: %w", orgID, apperrors.ErrNotFound)
		}
		return nil, fmt.Errorf("update community: %v: %w", err, apperrors.ErrPersistence)
	}
	return &c, nil
}

func (m *MongoRepository) Delete(ctx context.Context, orgID string) (*models.Community, error) {
	var c models.Community
	if err := m.communities.FindOneAndDelete(ctx, bson.M{"id": orgID}).Decode(&c); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, fmt.Errorf("community %s: %w", orgID, apperrors.ErrNotFound)
		}
		return nil, fmt.Errorf("delete community: %v: %w", err, apperrors.ErrPersistence)
	}

	if _, err := m.threadsCol.DeleteMany(ctx, bson.M{"community": c.ID}); err != nil {
		logger.Warnf("delete community %s: thread cleanup failed: %v", orgID, err)
	}

	cur, err := m.users.Find(ctx, bson.M{"communities": c.ID})
	if err != nil {
		return nil, fmt.Errorf("find community members: %w", err)
	}
	var members []models.User
	if err := cur.All(ctx, &members); err != nil {
		return nil, fmt.Errorf("decode community members: %w", err)
	}

	// best-effort concurrent fan-out; a failed save never rolls back the
	// deletion or its siblings
	g, gctx := errgroup.WithContext(ctx)
	for _, member := range members {
		uid := member.ID
		g.Go(func() error {
			if _, err := m.users.UpdateByID(gctx, uid, bson.M{"$pull": bson.M{"communities": c.ID}}); err != nil {
				logger.Warnf("delete community %s: member %s cleanup failed: %v", orgID, uid.Hex(), err)
			}
			return nil
		})
	}
	_ = g.Wait()
	return &c, nil
}

func (m *MongoRepository) byOrgID(ctx context.Context, orgID string) (*models.Community, error) {
	var c models.Community
	if err := m.communities.FindOne(ctx, bson.M{"id": orgID}).Decode(&c); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, fmt.Errorf("community %s: %w", orgID, apperrors.ErrNotFound)
		}
		return nil, fmt.Errorf("find community: %w", err)
	}
	return &c, nil
}

func (m *MongoRepository) loadMembers(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]MemberRef, error) {
	out := make(map[primitive.ObjectID]MemberRef, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	cur, err := m.users.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, fmt.Errorf("find members: %w", err)
	}
	var users []models.User
	if err := cur.All(ctx, &users); err != nil {
		return nil, fmt.Errorf("decode members: %w", err)
	}
	for _, u := range users {
		out[u.ID] = MemberRef{ID: u.ID, Sub: u.Sub, Name: u.Name, Username: u.Username, Image: u.Image}
	}
	return out, nil
}
