package communities

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

// MemoryRepository implements Repository on a memstore.Store.
type MemoryRepository struct {
	store       *memstore.Store
	threadViews *threads.MemoryRepository
}

func NewMemoryRepository(s *memstore.Store) *MemoryRepository {
	return &MemoryRepository{store: s, threadViews: threads.NewMemoryRepository(s)}
}

func (r *MemoryRepository) Create(ctx context.Context, orgID, name, username, image, bio, createdBySub string) (*models.Community, error) {
	r.store.Lock()
	defer r.store.Unlock()

	creator := r.store.UserBySub(createdBySub)
	if creator == nil {
		return nil, fmt.Errorf("creator %s: %w", createdBySub, apperrors.ErrNotFound)
	}
	c := &models.Community{
		ID:        primitive.NewObjectID(),
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
	r.store.Communities[c.ID] = c
	creator.Communities = append(creator.Communities, c.ID)

	cp := *c
	return &cp, nil
}

func (r *MemoryRepository) FetchDetails(ctx context.Context, orgID string) (*Details, error) {
	r.store.RLock()
	defer r.store.RUnlock()

	c := r.store.CommunityByOrg(orgID)
	if c == nil {
		return nil, fmt.Errorf("community %s: %w", orgID, apperrors.ErrNotFound)
	}
	d := &Details{Community: *c, Members: []MemberRef{}}
	if u, ok := r.store.Users[c.CreatedBy]; ok {
		d.CreatedBy = memberRef(u)
	}
	for _, id := range c.Members {
		if u, ok := r.store.Users[id]; ok {
			d.Members = append(d.Members, memberRef(u))
		}
	}
	return d, nil
}

func (r *MemoryRepository) FetchPosts(ctx context.Context, id primitive.ObjectID) (*Posts, error) {
	r.store.RLock()
	defer r.store.RUnlock()

	c, ok := r.store.Communities[id]
	if !ok {
		return nil, fmt.Errorf("community %s: %w", id.Hex(), apperrors.ErrNotFound)
	}
	out := &Posts{Community: *c, Threads: []*threads.Node{}}
	for _, tid := range c.Threads {
		if t, ok := r.store.Threads[tid]; ok {
			out.Threads = append(out.Threads, r.threadViews.View(t, 1))
		}
	}
	sort.Slice(out.Threads, func(i, j int) bool {
		return out.Threads[i].CreatedAt.After(out.Threads[j].CreatedAt)
	})
	return out, nil
}

func (r *MemoryRepository) List(ctx context.Context, p ListParams) ([]*Summary, bool, error) {
	r.store.RLock()
	defer r.store.RUnlock()

	needle := strings.ToLower(p.SearchString)
	var matched []*models.Community
	for _, c := range r.store.Communities {
		if needle != "" &&
			!strings.Contains(strings.ToLower(c.Username), needle) &&
			!strings.Contains(strings.ToLower(c.Name), needle) {
			continue
		}
		matched = append(matched, c)
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

	out := make([]*Summary, 0, end-skip)
	for _, c := range matched[skip:end] {
		s := &Summary{Community: *c, Members: []MemberRef{}}
		for _, id := range c.Members {
			if u, ok := r.store.Users[id]; ok {
				s.Members = append(s.Members, memberRef(u))
			}
		}
		out = append(out, s)
	}
	return out, total > skip+len(out), nil
}

func (r *MemoryRepository) AddMember(ctx context.Context, orgID, memberSub string) (*models.Community, error) {
	r.store.Lock()
	defer r.store.Unlock()

	c := r.store.CommunityByOrg(orgID)
	if c == nil {
		return nil, fmt.Errorf("community %s: %w", orgID, apperrors.ErrNotFound)
	}
	u := r.store.UserBySub(memberSub)
	if u == nil {
		return nil, fmt.Errorf("user %s: %w", memberSub, apperrors.ErrNotFound)
	}
	for _, id := range c.Members {
		if id == u.ID {
			return nil, fmt.Errorf("user %s in community %s: %w", memberSub, orgID, apperrors.ErrAlreadyMember)
		}
	}
	c.Members = append(c.Members, u.ID)
	u.Communities = append(u.Communities, c.ID)

	cp := *c
	return &cp, nil
}

func (r *MemoryRepository) RemoveMember(ctx context.Context, memberSub, orgID string) error {
	r.store.Lock()
	defer r.store.Unlock()

	u := r.store.UserBySub(memberSub)
	if u == nil {
		return fmt.Errorf("user %s: %w", memberSub, apperrors.ErrNotFound)
	}
	c := r.store.CommunityByOrg(orgID)
	if c == nil {
		return fmt.Errorf("community %s: %w", orgID, apperrors.ErrNotFound)
	}
	c.Members = pull(c.Members, u.ID)
	u.Communities = pull(u.Communities, c.ID)
	return nil
}

func (r *MemoryRepository) UpdateInfo(ctx context.Context, orgID, name, username, image string) (*models.Community, error) {
	r.store.Lock()
	defer r.store.Unlock()

	c := r.store.CommunityByOrg(orgID)
	if c == nil {
		return nil, fmt.Errorf("community %s: %w", orgID, apperrors.ErrNotFound)
	}
	c.Name = name
	c.Username = username
	c.Image = image
	c.UpdatedAt = time.Now().UTC()

	cp := *c
	return &cp, nil
}

func (r *MemoryRepository) Delete(ctx context.Context, orgID string) (*models.Community, error) {
	r.store.Lock()
	defer r.store.Unlock()

	c := r.store.CommunityByOrg(orgID)
	if c == nil {
		return nil, fmt.Errorf("community %s: %w", orgID, apperrors.ErrNotFound)
	}
	delete(r.store.Communities, c.ID)

	for id, t := range r.store.Threads {
		if t.Community != nil && *t.Community == c.ID {
			delete(r.store.Threads, id)
		}
	}
	for _, u := range r.store.Users {
		u.Communities = pull(u.Communities, c.ID)
	}

	cp := *c
	return &cp, nil
}

func memberRef(u *models.User) MemberRef {
	return MemberRef{ID: u.ID, Sub: u.Sub, Name: u.Name, Username: u.Username, Image: u.Image}
}

func pull(ids []primitive.ObjectID, id primitive.ObjectID) []primitive.ObjectID {
	out := ids[:0]
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}
