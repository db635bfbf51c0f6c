package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/and161185/rubrica/internal/errs"
	"github.com/and161185/rubrica/internal/model"
	"github.com/and161185/rubrica/internal/repository"
)

type fakeUserRepo struct {
	createIn  model.UserDraft
	createOut model.User
	createErr error

	updateInID int64
	updateIn   model.UserDraft
	updateOut  model.User
	updateErr  error

	getInID int64
	getOut  model.User
	getErr  error

	delInID int64
	delErr  error

	listOut []model.User
	listErr error

	calls int
}

var _ repository.UserRepository = (*fakeUserRepo)(nil)

func (f *fakeUserRepo) List(context.Context) ([]model.User, error) {
	f.calls++
	return f.listOut, f.listErr
}

func (f *fakeUserRepo) Get(_ context.Context, id int64) (model.User, error) {
	f.calls++
	f.getInID = id
	return f.getOut, f.getErr
}

func (f *fakeUserRepo) Create(_ context.Context, d model.UserDraft) (model.User, error) {
	f.calls++
	f.createIn = d
	return f.createOut, f.createErr
}

func (f *fakeUserRepo) Update(_ context.Context, id int64, d model.UserDraft) (model.User, error) {
	f.calls++
	f.updateInID, f.updateIn = id, d
	return f.updateOut, f.updateErr
}

func (f *fakeUserRepo) Delete(_ context.Context, id int64) error {
	f.calls++
	f.delInID = id
	return f.delErr
}

func okDraft() model.UserDraft {
	return model.UserDraft{Name: "Anna", Surname: "Rossi", Email: "anna@x.it"}
}

func TestUserService_Create(t *testing.T) {
	t.Parallel()

	repo := &fakeUserRepo{createOut: okDraft().WithID(1)}
	svc := NewUserService(repo)

	d := okDraft()
	d.Email = "  anna@x.it "
	u, err := svc.Create(context.Background(), d)
	require.NoError(t, err)
	assert.Equal(t, int64(1), u.ID)
	assert.Equal(t, "anna@x.it", repo.createIn.Email, "draft is trimmed")
}

func TestUserService_CreateInvalid(t *testing.T) {
	t.Parallel()

	repo := &fakeUserRepo{}
	svc := NewUserService(repo)

	_, err := svc.Create(context.Background(), model.UserDraft{Name: "A"})
	require.ErrorIs(t, err, errs.ErrValidation)
	var verr *errs.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "name")
	assert.Contains(t, verr.Fields, "surname")
	assert.Contains(t, verr.Fields, "email")
	assert.Equal(t, 0, repo.calls)
}

func TestUserService_Update(t *testing.T) {
	t.Parallel()

	repo := &fakeUserRepo{updateOut: okDraft().WithID(4)}
	svc := NewUserService(repo)

	u, err := svc.Update(context.Background(), 4, okDraft())
	require.NoError(t, err)
	assert.Equal(t, int64(4), u.ID)
	assert.Equal(t, int64(4), repo.updateInID)

	repo.updateErr = errs.ErrNotFound
	_, err = svc.Update(context.Background(), 4, okDraft())
	assert.ErrorIs(t, err, errs.ErrNotFound)

	d := okDraft()
	d.Notes = string(make([]byte, 301))
	_, err = svc.Update(context.Background(), 4, d)
	assert.ErrorIs(t, err, errs.ErrValidation)
}

func TestUserService_BadIDs(t *testing.T) {
	t.Parallel()

	repo := &fakeUserRepo{}
	svc := NewUserService(repo)
	ctx := context.Background()

	_, err := svc.Get(ctx, 0)
	assert.ErrorIs(t, err, errs.ErrNotFound)
	_, err = svc.Update(ctx, -1, okDraft())
	assert.ErrorIs(t, err, errs.ErrNotFound)
	assert.ErrorIs(t, svc.Delete(ctx, 0), errs.ErrNotFound)
	assert.Equal(t, 0, repo.calls)
}

func TestUserService_Passthrough(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	repo := &fakeUserRepo{listOut: []model.User{{ID: 1}}, getOut: model.User{ID: 2}, delErr: boom}
	svc := NewUserService(repo)
	ctx := context.Background()

	users, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 1)

	u, err := svc.Get(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(2), u.ID)
	assert.Equal(t, int64(2), repo.getInID)

	assert.ErrorIs(t, svc.Delete(ctx, 3), boom)
	assert.Equal(t, int64(3), repo.delInID)
}
