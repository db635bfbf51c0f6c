// Package memory is an in-process user repository used when no database is
// configured.
package memory

import (
	"cmp"
	"context"
	"slices"
	"strings"
	"sync"

	"github.com/and161185/rubrica/internal/errs"
	"github.com/and161185/rubrica/internal/model"
)

// Repo keeps users in id order. It is safe for concurrent use.
type Repo struct {
	mu     sync.RWMutex
	users  []model.User
	nextID int64
}

// New returns a repository holding seed; later ids continue after the
// highest seeded id.
func New(seed ...model.User) *Repo {
	r := &Repo{}
	for _, u := range seed {
		r.users = append(r.users, u)
		r.nextID = max(r.nextID, u.ID)
	}
	slices.SortFunc(r.users, func(a, b model.User) int { return cmp.Compare(a.ID, b.ID) })
	return r
}

func (r *Repo) List(ctx context.Context) ([]model.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]model.User{}, r.users...), nil
}

func (r *Repo) Get(ctx context.Context, id int64) (model.User, error) {
	if err := ctx.Err(); err != nil {
		return model.User{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	i := r.index(id)
	if i < 0 {
		return model.User{}, errs.ErrNotFound
	}
	return r.users[i], nil
}

func (r *Repo) Create(ctx context.Context, d model.UserDraft) (model.User, error) {
	if err := ctx.Err(); err != nil {
		return model.User{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.emailFree(d.Email, 0); err != nil {
		return model.User{}, err
	}
	r.nextID++
	u := d.WithID(r.nextID)
	r.users = append(r.users, u)
	return u, nil
}

func (r *Repo) Update(ctx context.Context, id int64, d model.UserDraft) (model.User, error) {
	if err := ctx.Err(); err != nil {
		return model.User{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	i := r.index(id)
	if i < 0 {
		return model.User{}, errs.ErrNotFound
	}
	if err := r.emailFree(d.Email, id); err != nil {
		return model.User{}, err
	}
	r.users[i] = d.WithID(id)
	return r.users[i], nil
}

func (r *Repo) Delete(ctx context.Context, id int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	i := r.index(id)
	if i < 0 {
		return errs.ErrNotFound
	}
	r.users = slices.Delete(r.users, i, i+1)
	return nil
}

// index must be called with r.mu held.
func (r *Repo) index(id int64) int {
	return slices.IndexFunc(r.users, func(u model.User) bool { return u.ID == id })
}

// emailFree must be called with r.mu held; self is the id allowed to own it.
func (r *Repo) emailFree(email string, self int64) error {
	for _, u := range r.users {
		if u.ID != self && strings.EqualFold(u.Email, email) {
			return &errs.ValidationError{
				Message: "email already in use",
				Fields:  map[string]string{"email": "is already in use"},
			}
		}
	}
	return nil
}
