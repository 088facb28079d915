package memstore

import (
	"sync"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/weaveapp/weave/backend/go-services/internal/models"
)

// Store is a process-local stand-in for the three MongoDB collections.
// The domain packages build memory repositories on top of it for unit tests
// and for running service binaries without a database. Locking is the
// caller's job: repositories take the embedded mutex around multi-step
// mutations so bidirectional reference updates stay atomic in-process.
type Store struct {
	sync.RWMutex

	Users       map[primitive.ObjectID]*models.User
	Threads     map[primitive.ObjectID]*models.Thread
	Communities map[primitive.ObjectID]*models.Community
}

func New() *Store {
	return &Store{
		Users:       make(map[primitive.ObjectID]*models.User),
		Threads:     make(map[primitive.ObjectID]*models.Thread),
		Communities: make(map[primitive.ObjectID]*models.Community),
	}
}

// UserBySub looks up a user by external subject. Caller must hold the lock.
func (s *Store) UserBySub(sub string) *models.User {
	for _, u := range s.Users {
		if u.Sub == sub {
			return u
		}
	}
	return nil
}

// CommunityByOrg looks up a community by its external org id. Caller must hold the lock.
func (s *Store) CommunityByOrg(orgID string) *models.Community {
	for _, c := range s.Communities {
		if c.OrgID == orgID {
			return c
		}
	}
	return nil
}
