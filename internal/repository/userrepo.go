// Package repository defines storage interfaces implemented by concrete backends.
package repository

import (
	"context"

	"github.com/and161185/rubrica/internal/model"
)

// UserRepository provides CRUD access to the address book.
type UserRepository interface {
	// List returns every user ordered by id.
	List(ctx context.Context) ([]model.User, error)
	// Get loads a user by id.
	Get(ctx context.Context, id int64) (model.User, error)
	// Create inserts a user and returns it with its new id.
	Create(ctx context.Context, d model.UserDraft) (model.User, error)
	// Update overwrites the user with the given id.
	Update(ctx context.Context, id int64, d model.UserDraft) (model.User, error)
	// Delete removes the user with the given id.
	Delete(ctx context.Context, id int64) error
}
