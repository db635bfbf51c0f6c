// Package editor holds the state of the create/edit user form.
package editor

import (
	"context"
	"errors"
	"maps"

	"go.uber.org/zap"

	"github.com/and161185/rubrica/internal/errs"
	"github.com/and161185/rubrica/internal/model"
	"github.com/and161185/rubrica/internal/nav"
	"github.com/and161185/rubrica/internal/reactive"
)

// Store is the part of the user store the form needs.
type Store interface {
	FetchByID(id int64) reactive.Task[model.User]
	Create(d model.UserDraft) reactive.Task[model.User]
	Update(id int64, d model.UserDraft) reactive.Task[model.User]
}

// Mode tells whether the form creates or edits a user.
type Mode int

const (
	ModeCreate Mode = iota
	ModeEdit
)

// Editor is the form state. A zero userID means create mode.
type Editor struct {
	store  Store
	log    *zap.Logger
	scope  *reactive.Scope
	userID int64

	draft     *reactive.Cell[model.UserDraft]
	loading   *reactive.Cell[bool]
	errMsg    *reactive.Cell[string]
	fieldErrs *reactive.Cell[map[string]string]
}

// New returns a form for userID, or an empty create form when userID is 0.
func New(parent context.Context, st Store, userID int64, log *zap.Logger) *Editor {
	if log == nil {
		log = zap.NewNop()
	}
	return &Editor{
		store:     st,
		log:       log,
		scope:     reactive.NewScope(parent),
		userID:    userID,
		draft:     reactive.NewCell(model.UserDraft{}),
		loading:   reactive.NewCell(false),
		errMsg:    reactive.NewCell(""),
		fieldErrs: reactive.NewCell(map[string]string{}),
	}
}

func (e *Editor) Mode() Mode {
	if e.userID == 0 {
		return ModeCreate
	}
	return ModeEdit
}

// UserID is the edited user, 0 in create mode.
func (e *Editor) UserID() int64 { return e.userID }

// Load prefills the draft with the stored user in edit mode. It is a no-op
// in create mode.
func (e *Editor) Load() error {
	if e.Mode() == ModeCreate {
		return nil
	}
	e.loading.Set(true)
	defer e.loading.Set(false)

	u, err := e.store.FetchByID(e.userID).Run(e.scope.Context())
	e.scope.Run(func() {
		e.errMsg.Set(errs.Message(err))
		if err == nil {
			e.draft.Set(u.Draft())
		}
	})
	if err != nil {
		e.log.Warn("load user", zap.Int64("id", e.userID), zap.Error(err))
	}
	return err
}

// Draft returns the current form content.
func (e *Editor) Draft() model.UserDraft { return e.draft.Get() }

// SetDraft replaces the form content.
func (e *Editor) SetDraft(d model.UserDraft) { e.draft.Set(d) }

func (e *Editor) Loading() bool { return e.loading.Get() }

// Err returns the message of the last failure, or "".
func (e *Editor) Err() string { return e.errMsg.Get() }

// FieldErrors returns the per-field messages of the last rejected submit.
func (e *Editor) FieldErrors() map[string]string { return maps.Clone(e.fieldErrs.Get()) }

// Subscribe calls fn after any change of the form state.
func (e *Editor) Subscribe(fn func()) (unsubscribe func()) {
	unwatch := []func(){e.draft.Watch(fn), e.loading.Watch(fn), e.errMsg.Watch(fn), e.fieldErrs.Watch(fn)}
	off := func() {
		for _, u := range unwatch {
			u()
		}
	}
	e.scope.Defer(off)
	return off
}

// Validate checks d against the draft rules.
func Validate(d model.UserDraft) error { return d.Validate() }

// Submit validates d and stores it. On success it returns the listing route
// highlighting the saved user.
func (e *Editor) Submit(d model.UserDraft) (string, error) {
	d = d.Trimmed()
	e.draft.Set(d)
	if err := Validate(d); err != nil {
		e.fail(err)
		return "", err
	}

	e.loading.Set(true)
	defer e.loading.Set(false)

	var task reactive.Task[model.User]
	if e.Mode() == ModeCreate {
		task = e.store.Create(d)
	} else {
		task = e.store.Update(e.userID, d)
	}
	u, err := task.Run(e.scope.Context())
	if err != nil {
		e.log.Warn("save user", zap.Int64("id", e.userID), zap.Error(err))
		e.fail(err)
		return "", err
	}
	e.scope.Run(func() {
		e.errMsg.Set("")
		e.fieldErrs.Set(map[string]string{})
		e.draft.Set(u.Draft())
	})
	return nav.Home(u.Email), nil
}

func (e *Editor) fail(err error) {
	fields := map[string]string{}
	var verr *errs.ValidationError
	if errors.As(err, &verr) {
		maps.Copy(fields, verr.Fields)
	}
	e.scope.Run(func() {
		e.fieldErrs.Set(fields)
		e.errMsg.Set(errs.Message(err))
	})
}

// Reset clears the form.
func (e *Editor) Reset() {
	e.draft.Set(model.UserDraft{})
	e.errMsg.Set("")
	e.fieldErrs.Set(map[string]string{})
}

// Close cancels in-flight work. It is idempotent.
func (e *Editor) Close() { e.scope.Close() }
