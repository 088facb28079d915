package threads

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/weaveapp/weave/backend/go-services/internal/apperrors"
	"github.com/weaveapp/weave/backend/go-services/internal/memstore"
	"github.com/weaveapp/weave/backend/go-services/internal/models"
)

// MemoryRepository implements Repository on a memstore.Store. It honors the
// full contract (pagination, population depth, bidirectional references) so
// unit tests and the standalone feed binary can run without MongoDB.
type MemoryRepository struct {
	store *memstore.Store
}

func NewMemoryRepository(s *memstore.Store) *MemoryRepository {
	return &MemoryRepository{store: s}
}

func (m *MemoryRepository) Create(ctx context.Context, text string, authorID primitive.ObjectID, communityID *primitive.ObjectID) (*models.Thread, error) {
	m.store.Lock()
	defer m.store.Unlock()

	author, ok := m.store.Users[authorID]
	if !ok {
		return nil, fmt.Errorf("author %s does not resolve: %w", authorID.Hex(), apperrors.ErrPersistence)
	}
	t := &models.Thread{
		ID:        primitive.NewObjectID(),
		Text:      text,
		Author:    authorID,
		Children:  []primitive.ObjectID{},
		CreatedAt: time.Now().UTC(),
	}
	m.store.Threads[t.ID] = t
	author.Threads = append(author.Threads, t.ID)
	return t, nil
}

func (m *MemoryRepository) FetchPosts(ctx context.Context, pageNumber, pageSize int) ([]*Node, bool, error) {
	m.store.RLock()
	defer m.store.RUnlock()

	var top []*models.Thread
	for _, t := range m.store.Threads {
		if t.IsTopLevel() {
			top = append(top, t)
		}
	}
	sort.Slice(top, func(i, j int) bool { return top[i].CreatedAt.After(top[j].CreatedAt) })

	skip := (pageNumber - 1) * pageSize
	total := len(top)
	if skip > total {
		skip = total
	}
	end := skip + pageSize
	if end > total {
		end = total
	}
	page := top[skip:end]

	nodes := make([]*Node, 0, len(page))
	for _, t := range page {
		nodes = append(nodes, m.View(t, 1))
	}
	return nodes, total > skip+len(nodes), nil
}

func (m *MemoryRepository) FetchByID(ctx context.Context, id primitive.ObjectID) (*Node, error) {
	m.store.RLock()
	defer m.store.RUnlock()

	t, ok := m.store.Threads[id]
	if !ok {
		return nil, fmt.Errorf("thread %s: %w", id.Hex(), apperrors.ErrNotFound)
	}
	return m.View(t, 2), nil
}

func (m *MemoryRepository) AddComment(ctx context.Context, threadID primitive.ObjectID, text string, authorID primitive.ObjectID) (*models.Thread, error) {
	m.store.Lock()
	defer m.store.Unlock()

	parent, ok := m.store.Threads[threadID]
	if !ok {
		return nil, fmt.Errorf("thread %s: %w", threadID.Hex(), apperrors.ErrNotFound)
	}
	child := &models.Thread{
		ID:        primitive.NewObjectID(),
		Text:      text,
		Author:    authorID,
		ParentID:  &threadID,
		Children:  []primitive.ObjectID{},
		CreatedAt: time.Now().UTC(),
	}
	m.store.Threads[child.ID] = child
	parent.Children = append(parent.Children, child.ID)
	return child, nil
}

func (m *MemoryRepository) Activity(ctx context.Context, userID primitive.ObjectID) ([]*Node, error) {
	m.store.RLock()
	defer m.store.RUnlock()

	nodes := []*Node{}
	for _, t := range m.store.Threads {
		if t.Author != userID {
			continue
		}
		for _, cid := range t.Children {
			reply, ok := m.store.Threads[cid]
			if !ok || reply.Author == userID {
				continue
			}
			nodes = append(nodes, m.View(reply, 0))
		}
	}
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].CreatedAt.After(nodes[j].CreatedAt) })
	return nodes, nil
}

// View builds a populated view with up to depth levels of replies.
// Caller must hold at least the read lock.
func (m *MemoryRepository) View(t *models.Thread, depth int) *Node {
	n := &Node{
		ID:        t.ID,
		Text:      t.Text,
		ParentID:  t.ParentID,
		Community: t.Community,
		CreatedAt: t.CreatedAt,
		Children:  []*Node{},
	}
	if u, ok := m.store.Users[t.Author]; ok {
		n.Author = AuthorRef{ID: u.ID, Sub: u.Sub, Name: u.Name, Image: u.Image}
	}
	if depth > 0 {
		for _, cid := range t.Children {
			if c, ok := m.store.Threads[cid]; ok {
				n.Children = append(n.Children, m.View(c, depth-1))
			}
		}
	}
	return n
}
