// Package store keeps the client-side cache of users in sync with the
// backend. It is the only writer of the cached collection.
package store

import (
	"context"
	"slices"

	"go.uber.org/zap"

	"github.com/and161185/rubrica/internal/model"
	"github.com/and161185/rubrica/internal/reactive"
)

// API is the remote users resource. It is implemented by *usersapi.Client.
type API interface {
	List(ctx context.Context) ([]model.User, error)
	Get(ctx context.Context, id int64) (model.User, error)
	Create(ctx context.Context, d model.UserDraft) (model.User, error)
	Update(ctx context.Context, id int64, d model.UserDraft) (model.User, error)
	Delete(ctx context.Context, id int64) error
}

// UserStore is a cache over API. Every operation returns a cold task; the
// cache changes only after the backend acknowledged a mutation.
type UserStore struct {
	api   API
	log   *zap.Logger
	users *reactive.Cell[[]model.User]
}

// New returns a store with an empty cache.
func New(api API, log *zap.Logger) *UserStore {
	if log == nil {
		log = zap.NewNop()
	}
	return &UserStore{
		api:   api,
		log:   log,
		users: reactive.NewCell([]model.User{}),
	}
}

// Open returns a store whose cache has been loaded from the backend.
func Open(ctx context.Context, api API, log *zap.Logger) (*UserStore, error) {
	s := New(api, log)
	if _, err := s.FetchAll().Run(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// Users returns a copy of the cached collection in server order.
func (s *UserStore) Users() []model.User { return slices.Clone(s.users.Get()) }

// Watch registers fn to be called after every cache change.
func (s *UserStore) Watch(fn func()) (unwatch func()) { return s.users.Watch(fn) }

// FetchAll loads every user and replaces the cache with them.
func (s *UserStore) FetchAll() reactive.Task[[]model.User] {
	return reactive.NewTask(func(ctx context.Context) ([]model.User, error) {
		s.log.Debug("fetch all users")
		users, err := s.api.List(ctx)
		if err != nil {
			s.log.Warn("fetch all users", zap.Error(err))
			return nil, err
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		cached := slices.Clone(users)
		s.users.Set(cached)
		return slices.Clone(cached), nil
	})
}

// FetchByID loads a single user. The cache is not touched.
func (s *UserStore) FetchByID(id int64) reactive.Task[model.User] {
	return reactive.NewTask(func(ctx context.Context) (model.User, error) {
		s.log.Debug("fetch user", zap.Int64("id", id))
		u, err := s.api.Get(ctx, id)
		if err != nil {
			s.log.Warn("fetch user", zap.Int64("id", id), zap.Error(err))
			return model.User{}, err
		}
		return u, nil
	})
}

// Create stores d and appends the returned record to the cache. A record
// whose id is already cached replaces that entry.
func (s *UserStore) Create(d model.UserDraft) reactive.Task[model.User] {
	return reactive.NewTask(func(ctx context.Context) (model.User, error) {
		s.log.Debug("create user", zap.String("email", d.Email))
		u, err := s.api.Create(ctx, d)
		if err != nil {
			s.log.Warn("create user", zap.String("email", d.Email), zap.Error(err))
			return model.User{}, err
		}
		if ctx.Err() != nil {
			return model.User{}, ctx.Err()
		}
		s.users.Update(func(cur []model.User) []model.User {
			next := slices.Clone(cur)
			if i := indexOf(next, u.ID); i >= 0 {
				next[i] = u
				return next
			}
			return append(next, u)
		})
		return u, nil
	})
}

// Update replaces the user with the given id and swaps the returned record
// into the cache. Other entries keep their values and positions.
func (s *UserStore) Update(id int64, d model.UserDraft) reactive.Task[model.User] {
	return reactive.NewTask(func(ctx context.Context) (model.User, error) {
		s.log.Debug("update user", zap.Int64("id", id))
		u, err := s.api.Update(ctx, id, d)
		if err != nil {
			s.log.Warn("update user", zap.Int64("id", id), zap.Error(err))
			return model.User{}, err
		}
		if ctx.Err() != nil {
			return model.User{}, ctx.Err()
		}
		s.users.Update(func(cur []model.User) []model.User {
			i := indexOf(cur, id)
			if i < 0 {
				return cur
			}
			next := slices.Clone(cur)
			next[i] = u
			return next
		})
		return u, nil
	})
}

// Delete removes the user with the given id and drops it from the cache.
func (s *UserStore) Delete(id int64) reactive.Task[struct{}] {
	return reactive.NewTask(func(ctx context.Context) (struct{}, error) {
		s.log.Debug("delete user", zap.Int64("id", id))
		if err := s.api.Delete(ctx, id); err != nil {
			s.log.Warn("delete user", zap.Int64("id", id), zap.Error(err))
			return struct{}{}, err
		}
		if ctx.Err() != nil {
			return struct{}{}, ctx.Err()
		}
		s.users.Update(func(cur []model.User) []model.User {
			return slices.DeleteFunc(slices.Clone(cur), func(u model.User) bool { return u.ID == id })
		})
		return struct{}{}, nil
	})
}

func indexOf(users []model.User, id int64) int {
	return slices.IndexFunc(users, func(u model.User) bool { return u.ID == id })
}
