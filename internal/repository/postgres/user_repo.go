package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/and161185/rubrica/internal/errs"
	"github.com/and161185/rubrica/internal/model"
)

// UserRepo implements UserRepository using PostgreSQL.
type UserRepo struct{ db *DB }

// NewUserRepo constructs a user repository.
func NewUserRepo(db *DB) *UserRepo { return &UserRepo{db: db} }

const userColumns = `id, name, surname, address, location, municipality, province, email, notes`

// List selects every user ordered by id.
func (r *UserRepo) List(ctx context.Context) ([]model.User, error) {
	const q = `
SELECT ` + userColumns + `
FROM users ORDER BY id`
	rows, err := r.db.Pool.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.User{}
	for rows.Next() {
		var u model.User
		if err := scanUser(rows, &u); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// Get selects a user by id.
func (r *UserRepo) Get(ctx context.Context, id int64) (model.User, error) {
	const q = `
SELECT ` + userColumns + `
FROM users WHERE id=$1`
	var u model.User
	if err := scanUser(r.db.Pool.QueryRow(ctx, q, id), &u); err != nil {
		return model.User{}, notFound(err)
	}
	return u, nil
}

// Create inserts a user row and returns it with the generated id.
func (r *UserRepo) Create(ctx context.Context, d model.UserDraft) (model.User, error) {
	const q = `
INSERT INTO users (name, surname, address, location, municipality, province, email, notes)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
RETURNING ` + userColumns
	var u model.User
	row := r.db.Pool.QueryRow(ctx, q, d.Name, d.Surname, d.Address, d.Location, d.Municipality, d.Province, d.Email, d.Notes)
	if err := scanUser(row, &u); err != nil {
		return model.User{}, uniqueEmail(err)
	}
	return u, nil
}

// Update overwrites every editable column of the user.
func (r *UserRepo) Update(ctx context.Context, id int64, d model.UserDraft) (model.User, error) {
	const q = `
UPDATE users
SET name=$2, surname=$3, address=$4, location=$5, municipality=$6, province=$7, email=$8, notes=$9, updated_at=now()
WHERE id=$1
RETURNING ` + userColumns
	var u model.User
	row := r.db.Pool.QueryRow(ctx, q, id, d.Name, d.Surname, d.Address, d.Location, d.Municipality, d.Province, d.Email, d.Notes)
	if err := scanUser(row, &u); err != nil {
		return model.User{}, uniqueEmail(notFound(err))
	}
	return u, nil
}

// Delete removes the user row.
func (r *UserRepo) Delete(ctx context.Context, id int64) error {
	const q = `DELETE FROM users WHERE id=$1`
	tag, err := r.db.Pool.Exec(ctx, q, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}

func scanUser(row pgx.Row, u *model.User) error {
	return row.Scan(&u.ID, &u.Name, &u.Surname, &u.Address, &u.Location, &u.Municipality, &u.Province, &u.Email, &u.Notes)
}

func notFound(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return errs.ErrNotFound
	}
	return err
}

func uniqueEmail(err error) error {
	if isUniqueViolation(err) {
		return &errs.ValidationError{
			Message: "email already in use",
			Fields:  map[string]string{"email": "is already in use"},
		}
	}
	if err != nil && !errors.Is(err, errs.ErrNotFound) {
		return fmt.Errorf("store user: %w", err)
	}
	return err
}
