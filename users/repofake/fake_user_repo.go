package fakeuserrepo

import (
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jrsteele09/enertrack-console/internal/errors"
	"github.com/jrsteele09/enertrack-console/users"
)

var _ users.UserRepo = (*FakeUserRepo)(nil)

type FakeUserRepo struct {
	users       map[string]*users.User
	usernameIds map[string]string // lower-cased username to user id
	lock        sync.RWMutex
}

func NewFakeUserRepo() users.UserRepo {
	return &FakeUserRepo{
		users:       make(map[string]*users.User),
		usernameIds: make(map[string]string),
	}
}

func key(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}

func (ur *FakeUserRepo) Upsert(user *users.User) error {
	ur.lock.Lock()
	defer ur.lock.Unlock()

	if user.ID == "" {
		if existing, ok := ur.usernameIds[key(user.Username)]; ok {
			user.ID = existing
		} else {
			user.ID = uuid.New().String()
		}
	}
	ur.users[user.ID] = user
	ur.usernameIds[key(user.Username)] = user.ID
	return nil
}

func (ur *FakeUserRepo) Delete(username string) error {
	ur.lock.Lock()
	defer ur.lock.Unlock()

	userID, ok := ur.usernameIds[key(username)]
	if !ok {
		return errors.ErrNotFound
	}
	delete(ur.usernameIds, key(username))
	delete(ur.users, userID)
	return nil
}

func (ur *FakeUserRepo) GetByUsername(username string) (*users.User, error) {
	ur.lock.RLock()
	defer ur.lock.RUnlock()

	userID, ok := ur.usernameIds[key(username)]
	if !ok {
		return nil, errors.ErrNotFound
	}
	return ur.users[userID], nil
}

func (ur *FakeUserRepo) GetByID(ID string) (*users.User, error) {
	ur.lock.RLock()
	defer ur.lock.RUnlock()

	u, ok := ur.users[ID]
	if !ok {
		return nil, errors.ErrNotFound
	}
	return u, nil
}

func (ur *FakeUserRepo) SetBlocked(username string, blocked bool) error {
	return ur.update(username, func(u *users.User) { u.Blocked = blocked })
}

func (ur *FakeUserRepo) SetLastLogin(username string) error {
	return ur.update(username, func(u *users.User) { u.LastLogin = time.Now() })
}

func (ur *FakeUserRepo) update(username string, fn func(u *users.User)) error {
	ur.lock.Lock()
	defer ur.lock.Unlock()

	userID, ok := ur.usernameIds[key(username)]
	if !ok {
		return errors.ErrNotFound
	}
	fn(ur.users[userID])
	return nil
}
