// Package service contains the application service for the address book.
package service

import (
	"context"
	"fmt"

	"github.com/and161185/rubrica/internal/errs"
	"github.com/and161185/rubrica/internal/model"
	"github.com/and161185/rubrica/internal/repository"
)

// UserService defines the operations behind the /users resource.
type UserService interface {
	// List returns every user ordered by id.
	List(ctx context.Context) ([]model.User, error)
	// Get returns a single user.
	Get(ctx context.Context, id int64) (model.User, error)
	// Create validates the draft and stores a new user.
	Create(ctx context.Context, d model.UserDraft) (model.User, error)
	// Update validates the draft and overwrites the user.
	Update(ctx context.Context, id int64, d model.UserDraft) (model.User, error)
	// Delete removes the user.
	Delete(ctx context.Context, id int64) error
}

type UserServiceImpl struct {
	repo repository.UserRepository
}

// NewUserService constructs UserService over repo.
func NewUserService(repo repository.UserRepository) *UserServiceImpl {
	return &UserServiceImpl{repo: repo}
}

// List delegates to the repository.
func (s *UserServiceImpl) List(ctx context.Context) ([]model.User, error) {
	return s.repo.List(ctx)
}

// Get rejects non-positive ids before hitting the repository.
func (s *UserServiceImpl) Get(ctx context.Context, id int64) (model.User, error) {
	if err := checkID(id); err != nil {
		return model.User{}, err
	}
	return s.repo.Get(ctx, id)
}

// Create trims and validates the draft, then stores it.
func (s *UserServiceImpl) Create(ctx context.Context, d model.UserDraft) (model.User, error) {
	d = d.Trimmed()
	if err := d.Validate(); err != nil {
		return model.User{}, err
	}
	return s.repo.Create(ctx, d)
}

// Update trims and validates the draft, then overwrites the user.
func (s *UserServiceImpl) Update(ctx context.Context, id int64, d model.UserDraft) (model.User, error) {
	if err := checkID(id); err != nil {
		return model.User{}, err
	}
	d = d.Trimmed()
	if err := d.Validate(); err != nil {
		return model.User{}, err
	}
	return s.repo.Update(ctx, id, d)
}

// Delete removes the user.
func (s *UserServiceImpl) Delete(ctx context.Context, id int64) error {
	if err := checkID(id); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}

// checkID maps ids the backend never assigns to not found.
func checkID(id int64) error {
	if id <= 0 {
		return fmt.Errorf("user %d: %w", id, errs.ErrNotFound)
	}
	return nil
}
