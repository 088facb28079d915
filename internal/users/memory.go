package users

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/weaveapp/weave/backend/go-services/internal/apperrors"
	"github.com/weaveapp/weave/backend/go-services/internal/memstore"
	"github.com/weaveapp/weave/backend/go-services/internal/models"
	"github.com/weaveapp/weave/backend/go-services/internal/threads"
)

// MemoryUserRepository implements Repository on a memstore.Store.
type MemoryUserRepository struct {
	store       *memstore.Store
	threadViews *threads.MemoryRepository
}

func NewMemoryUserRepository(s *memstore.Store) *MemoryUserRepository {
	return &MemoryUserRepository{store: s, threadViews: threads.NewMemoryRepository(s)}
}

func (r *MemoryUserRepository) Upsert(ctx context.Context, p UpsertParams) (*models.User, error) {
	r.store.Lock()
	defer r.store.Unlock()

	now := time.Now().UTC()
	u := r.store.UserBySub(p.Sub)
	if u == nil {
		u = &models.User{
			ID:          primitive.NewObjectID(),
			Sub:         p.Sub,
			Threads:     []primitive.ObjectID{},
			Communities: []primitive.ObjectID{},
			CreatedAt:   now,
		}
		r.store.Users[u.ID] = u
	}
	u.Username = p.Username
	u.Name = p.Name
	u.Image = p.Image
	u.Bio = p.Bio
	u.Onboarded = true
	u.UpdatedAt = now

	cp := *u
	return &cp, nil
}

func (r *MemoryUserRepository) Fetch(ctx context.Context, sub string) (*models.User, error) {
	r.store.RLock()
	defer r.store.RUnlock()

	u := r.store.UserBySub(sub)
	if u == nil {
		return nil, fmt.Errorf("user %s: %w", sub, apperrors.ErrNotFound)
	}
	cp := *u
	return &cp, nil
}

func (r *MemoryUserRepository) FetchThreads(ctx context.Context, sub string) (*ProfileThreads, error) {
	r.store.RLock()
	defer r.store.RUnlock()

	u := r.store.UserBySub(sub)
	if u == nil {
		return nil, fmt.Errorf("user %s: %w", sub, apperrors.ErrNotFound)
	}
	out := &ProfileThreads{User: *u, Threads: []*threads.Node{}}
	for _, tid := range u.Threads {
		if t, ok := r.store.Threads[tid]; ok {
			out.Threads = append(out.Threads, r.threadViews.View(t, 1))
		}
	}
	sort.Slice(out.Threads, func(i, j int) bool {
		return out.Threads[i].CreatedAt.After(out.Threads[j].CreatedAt)
	})
	return out, nil
}

func (r *MemoryUserRepository) List(ctx context.Context, p ListParams) ([]*models.User, bool, error) {
	r.store.RLock()
	defer r.store.RUnlock()

	needle := strings.ToLower(p.SearchString)
	var matched []*models.User
	for _, u := range r.store.Users {
		if u.Sub == p.Sub {
			continue
		}
		if needle != "" &&
			!strings.Contains(strings.ToLower(u.Username), needle) &&
			!strings.Contains(strings.ToLower(u.Name), needle) {
			continue
		}
		matched = append(matched, u)
	}

	asc := p.SortBy == "asc"
	sort.Slice(matched, func(i, j int) bool {
		if asc {
			return matched[i].CreatedAt.Before(matched[j].CreatedAt)
		}
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	skip := (p.PageNumber - 1) * p.PageSize
	total := len(matched)
	if skip > total {
		skip = total
	}
	end := skip + p.PageSize
	if end > total {
		end = total
	}

	page := make([]*models.User, 0, end-skip)
	for _, u := range matched[skip:end] {
		cp := *u
		page = append(page, &cp)
	}
	return page, total > skip+len(page), nil
}
