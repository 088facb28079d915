package communities

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/weaveapp/weave/backend/go-services/internal/apperrors"
	"github.com/weaveapp/weave/backend/go-services/internal/memstore"
	"github.com/weaveapp/weave/backend/go-services/internal/models"
)

func seedUser(t *testing.T, s *memstore.Store, sub, name string) *models.User {
	t.Helper()
	u := &models.User{
		ID:          primitive.NewObjectID(),
		Sub:         sub,
		Username:    sub,
		Name:        name,
		Threads:     []primitive.ObjectID{},
		Communities: []primitive.ObjectID{},
		CreatedAt:   time.Now().UTC(),
	}
	s.Lock()
	s.Users[u.ID] = u
	s.Unlock()
	return u
}

func TestCreateRecordsCommunityOnCreator(t *testing.T) {
	store := memstore.New()
	repo := NewMemoryRepository(store)
	creator := seedUser(t, store, "u1", "Creator")

	c, err := repo.Create(context.Background(), "org_1", "Acme", "acme", "", "", "u1")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if c.CreatedBy != creator.ID {
		t.Fatalf("expected createdBy=%s, got %s", creator.ID.Hex(), c.CreatedBy.Hex())
	}
	if len(c.Members) != 0 {
		t.Fatal("creator must not be auto-enrolled as member")
	}

	store.RLock()
	defer store.RUnlock()
	if len(store.Users[creator.ID].Communities) != 1 || store.Users[creator.ID].Communities[0] != c.ID {
		t.Fatal("expected community recorded on creator")
	}
}

func TestCreateUnknownCreator(t *testing.T) {
	repo := NewMemoryRepository(memstore.New())
	_, err := repo.Create(context.Background(), "org_1", "Acme", "acme", "", "", "ghost")
	if !errors.Is(err, apperrors.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestAddMemberBidirectional(t *testing.T) {
	store := memstore.New()
	repo := NewMemoryRepository(store)
	seedUser(t, store, "u1", "Creator")
	member := seedUser(t, store, "u2", "Member")
	ctx := context.Background()

	if _, err := repo.Create(ctx, "org_1", "Acme", "acme", "", "", "u1"); err != nil {
		t.Fatalf("create: %v", err)
	}

	c, err := repo.AddMember(ctx, "org_1", "u2")
	if err != nil {
		t.Fatalf("add member: %v", err)
	}
	if len(c.Members) != 1 || c.Members[0] != member.ID {
		t.Fatalf("expected member recorded on community, got %v", c.Members)
	}

	store.RLock()
	got := len(store.Users[member.ID].Communities)
	store.RUnlock()
	if got != 1 {
		t.Fatal("expected community recorded on member")
	}
}

func TestAddMemberDuplicate(t *testing.T) {
	store := memstore.New()
	repo := NewMemoryRepository(store)
	seedUser(t, store, "u1", "Creator")
	member := seedUser(t, store, "u2", "Member")
	ctx := context.Background()

	if _, err := repo.Create(ctx, "org_1", "Acme", "acme", "", "", "u1"); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := repo.AddMember(ctx, "org_1", "u2"); err != nil {
		t.Fatalf("first join: %v", err)
	}
	_, err := repo.AddMember(ctx, "org_1", "u2")
	if !errors.Is(err, apperrors.ErrAlreadyMember) {
		t.Fatalf("expected ErrAlreadyMember, got %v", err)
	}

	store.RLock()
	defer store.RUnlock()
	if len(store.Users[member.ID].Communities) != 1 {
		t.Fatal("failed join must leave membership untouched")
	}
}

func TestRemoveMemberIdempotent(t *testing.T) {
	store := memstore.New()
	repo := NewMemoryRepository(store)
	seedUser(t, store, "u1", "Creator")
	member := seedUser(t, store, "u2", "Member")
	ctx := context.Background()

	if _, err := repo.Create(ctx, "org_1", "Acme", "acme", "", "", "u1"); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := repo.AddMember(ctx, "org_1", "u2"); err != nil {
		t.Fatalf("join: %v", err)
	}

	if err := repo.RemoveMember(ctx, "u2", "org_1"); err != nil {
		t.Fatalf("leave: %v", err)
	}
	// leaving again is not an error
	if err := repo.RemoveMember(ctx, "u2", "org_1"); err != nil {
		t.Fatalf("second leave: %v", err)
	}

	store.RLock()
	defer store.RUnlock()
	if len(store.Users[member.ID].Communities) != 0 {
		t.Fatal("expected membership severed on user side")
	}
	c := store.CommunityByOrg("org_1")
	if len(c.Members) != 0 {
		t.Fatal("expected membership severed on community side")
	}
}

func TestRemoveMemberMissingCommunity(t *testing.T) {
	store := memstore.New()
	repo := NewMemoryRepository(store)
	seedUser(t, store, "u1", "U")

	err := repo.RemoveMember(context.Background(), "u1", "nope")
	if !errors.Is(err, apperrors.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUpdateInfo(t *testing.T) {
	store := memstore.New()
	repo := NewMemoryRepository(store)
	seedUser(t, store, "u1", "Creator")
	ctx := context.Background()

	orig, err := repo.Create(ctx, "org_1", "Acme", "acme", "", "old bio", "u1")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	c, err := repo.UpdateInfo(ctx, "org_1", "Acme Inc", "acme-inc", "img.png")
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if c.Name != "Acme Inc" || c.Username != "acme-inc" || c.Image != "img.png" {
		t.Fatalf("expected fields updated, got %+v", c)
	}
	if c.Bio != orig.Bio {
		t.Fatal("bio must survive an info update")
	}
}

func TestDeleteCascades(t *testing.T) {
	store := memstore.New()
	repo := NewMemoryRepository(store)
	creator := seedUser(t, store, "u1", "Creator")
	member := seedUser(t, store, "u2", "Member")
	ctx := context.Background()

	c, err := repo.Create(ctx, "org_1", "Acme", "acme", "", "", "u1")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := repo.AddMember(ctx, "org_1", "u2"); err != nil {
		t.Fatalf("join: %v", err)
	}

	// attach one community thread and one free-standing thread
	inCommunity := &models.Thread{
		ID:        primitive.NewObjectID(),
		Text:      "inside",
		Author:    member.ID,
		Community: &c.ID,
		Children:  []primitive.ObjectID{},
		CreatedAt: time.Now().UTC(),
	}
	outside := &models.Thread{
		ID:        primitive.NewObjectID(),
		Text:      "outside",
		Author:    member.ID,
		Children:  []primitive.ObjectID{},
		CreatedAt: time.Now().UTC(),
	}
	store.Lock()
	store.Threads[inCommunity.ID] = inCommunity
	store.Threads[outside.ID] = outside
	store.Communities[c.ID].Threads = append(store.Communities[c.ID].Threads, inCommunity.ID)
	store.Unlock()

	deleted, err := repo.Delete(ctx, "org_1")
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if deleted.ID != c.ID {
		t.Fatal("expected the deleted community returned")
	}

	store.RLock()
	defer store.RUnlock()
	if store.CommunityByOrg("org_1") != nil {
		t.Fatal("community record must be gone")
	}
	if _, ok := store.Threads[inCommunity.ID]; ok {
		t.Fatal("community threads must be deleted")
	}
	if _, ok := store.Threads[outside.ID]; !ok {
		t.Fatal("unrelated threads must survive")
	}
	for _, u := range []*models.User{creator, member} {
		if len(store.Users[u.ID].Communities) != 0 {
			t.Fatalf("expected community pulled from %s", u.Sub)
		}
	}
}

func TestFetchDetailsPopulates(t *testing.T) {
	store := memstore.New()
	repo := NewMemoryRepository(store)
	seedUser(t, store, "u1", "Creator")
	seedUser(t, store, "u2", "Member")
	ctx := context.Background()

	if _, err := repo.Create(ctx, "org_1", "Acme", "acme", "", "", "u1"); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := repo.AddMember(ctx, "org_1", "u2"); err != nil {
		t.Fatalf("join: %v", err)
	}

	d, err := repo.FetchDetails(ctx, "org_1")
	if err != nil {
		t.Fatalf("details: %v", err)
	}
	if d.CreatedBy.Name != "Creator" {
		t.Fatalf("expected creator populated, got %+v", d.CreatedBy)
	}
	if len(d.Members) != 1 || d.Members[0].Name != "Member" {
		t.Fatalf("expected members populated, got %+v", d.Members)
	}
}

func TestListSearchAndPagination(t *testing.T) {
	store := memstore.New()
	repo := NewMemoryRepository(store)
	seedUser(t, store, "u1", "Creator")
	ctx := context.Background()

	for _, name := range []string{"Alpha Corp", "Beta Corp", "Alphabet"} {
		if _, err := repo.Create(ctx, "org_"+name, name, name, "", "", "u1"); err != nil {
			t.Fatalf("seed %s: %v", name, err)
		}
		time.Sleep(time.Millisecond)
	}

	page, isNext, err := repo.List(ctx, ListParams{SearchString: "alpha", PageNumber: 1, PageSize: 1, SortBy: "desc"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(page) != 1 || !isNext {
		t.Fatalf("expected one row with a next page, got %d/%v", len(page), isNext)
	}

	page, isNext, err = repo.List(ctx, ListParams{SearchString: "alpha", PageNumber: 2, PageSize: 1, SortBy: "desc"})
	if err != nil {
		t.Fatalf("list page 2: %v", err)
	}
	if len(page) != 1 || isNext {
		t.Fatalf("expected last page, got %d/%v", len(page), isNext)
	}
}

func TestFetchPostsPopulatesThreads(t *testing.T) {
	store := memstore.New()
	repo := NewMemoryRepository(store)
	author := seedUser(t, store, "u1", "Author")
	ctx := context.Background()

	c, err := repo.Create(ctx, "org_1", "Acme", "acme", "", "", "u1")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	th := &models.Thread{
		ID:        primitive.NewObjectID(),
		Text:      "hello",
		Author:    author.ID,
		Community: &c.ID,
		Children:  []primitive.ObjectID{},
		CreatedAt: time.Now().UTC(),
	}
	store.Lock()
	store.Threads[th.ID] = th
	store.Communities[c.ID].Threads = append(store.Communities[c.ID].Threads, th.ID)
	store.Unlock()

	posts, err := repo.FetchPosts(ctx, c.ID)
	if err != nil {
		t.Fatalf("posts: %v", err)
	}
	if len(posts.Threads) != 1 || posts.Threads[0].Author.Name != "Author" {
		t.Fatalf("expected one populated thread, got %+v", posts.Threads)
	}
}
