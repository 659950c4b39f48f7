package repofake

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/teamforge/auth-service/users"
)

var _ users.UserRepo = (*FakeUserRepo)(nil)

// FakeUserRepo is an in-memory UserRepo for tests and local development.
type FakeUserRepo struct {
	users    map[string]*users.User
	emailIds map[string]string // normalized email to user id
	lock     sync.RWMutex
}

func NewFakeUserRepo() *FakeUserRepo {
	return &FakeUserRepo{
		users:    make(map[string]*users.User),
		emailIds: make(map[string]string),
	}
}

func (ur *FakeUserRepo) Create(user *users.User) (*users.User, error) {
	ur.lock.Lock()
	defer ur.lock.Unlock()

	stored := *user
	if stored.ID == "" {
		stored.ID = uuid.New().String()
	}
	stored.Email = users.NormalizeEmail(stored.Email)

	ur.users[stored.ID] = &stored
	ur.emailIds[stored.Email] = stored.ID
	return &stored, nil
}

func (ur *FakeUserRepo) GetByEmail(email string) (*users.User, error) {
	ur.lock.RLock()
	defer ur.lock.RUnlock()

	id, ok := ur.emailIds[users.NormalizeEmail(email)]
	if !ok {
		return nil, users.ErrNotFound
	}
	copied := *ur.users[id]
	return &copied, nil
}

func (ur *FakeUserRepo) GetByID(id string) (*users.User, error) {
	ur.lock.RLock()
	defer ur.lock.RUnlock()

	user, ok := ur.users[id]
	if !ok {
		return nil, users.ErrNotFound
	}
	copied := *user
	return &copied, nil
}

func (ur *FakeUserRepo) Update(user *users.User) (*users.User, error) {
	ur.lock.Lock()
	defer ur.lock.Unlock()

	existing, ok := ur.users[user.ID]
	if !ok {
		return nil, users.ErrNotFound
	}
	delete(ur.emailIds, existing.Email)

	stored := *user
	stored.Email = users.NormalizeEmail(stored.Email)
	ur.users[stored.ID] = &stored
	ur.emailIds[stored.Email] = stored.ID
	return &stored, nil
}

func (ur *FakeUserRepo) UpdateLastSeen(id string, at time.Time) error {
	ur.lock.Lock()
	defer ur.lock.Unlock()

	user, ok := ur.users[id]
	if !ok {
		return users.ErrNotFound
	}
	user.LastSeenAt = at
	return nil
}
