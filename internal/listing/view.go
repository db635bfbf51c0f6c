package listing

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/text/language"

	"github.com/and161185/rubrica/internal/errs"
	"github.com/and161185/rubrica/internal/model"
	"github.com/and161185/rubrica/internal/reactive"
)

// DefaultScrollDelay is how long the view waits after activation before
// scrolling to the highlighted row.
const DefaultScrollDelay = time.Second

// Source is the user cache the view projects. *store.UserStore implements it.
type Source interface {
	reactive.Source
	Users() []model.User
	FetchAll() reactive.Task[[]model.User]
	Delete(id int64) reactive.Task[struct{}]
}

// Scroller brings a row into view, centered.
type Scroller interface {
	ScrollTo(row int, u model.User)
}

// Confirmer asks the user to confirm a destructive action. It blocks until
// the user answers.
type Confirmer interface {
	Confirm(ctx context.Context, prompt string) bool
}

// ScrollFunc adapts a function to Scroller.
type ScrollFunc func(row int, u model.User)

func (f ScrollFunc) ScrollTo(row int, u model.User) { f(row, u) }

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(ctx context.Context, prompt string) bool

func (f ConfirmFunc) Confirm(ctx context.Context, prompt string) bool { return f(ctx, prompt) }

// Params are the navigation parameters of the listing route.
type Params struct {
	Highlight string
}

// Option configures a View.
type Option func(*View)

func WithLogger(log *zap.Logger) Option { return func(v *View) { v.log = log } }

func WithScroller(s Scroller) Option { return func(v *View) { v.scroller = s } }

func WithConfirmer(c Confirmer) Option { return func(v *View) { v.confirmer = c } }

func WithScrollDelay(d time.Duration) Option { return func(v *View) { v.scrollDelay = d } }

func WithLocale(tag language.Tag) Option { return func(v *View) { v.locale = tag } }

// View is the listing screen state. All asynchronous work it starts belongs
// to its scope and stops on Close.
//
// Subscribers are called from whichever goroutine changed the state and must
// not call Close.
type View struct {
	src         Source
	log         *zap.Logger
	scroller    Scroller
	confirmer   Confirmer
	scrollDelay time.Duration
	locale      language.Tag

	scope     *reactive.Scope
	filter    *reactive.Cell[Filter]
	sort      *reactive.Cell[Sort]
	highlight *reactive.Cell[string]
	loading   *reactive.Cell[bool]
	errMsg    *reactive.Cell[string]
	rows      *reactive.Derived[[]model.User]

	fetchMu     sync.Mutex
	fetchSeq    uint64
	cancelFetch func()
}

// NewView builds a listing over src. Without a Confirmer every delete is
// declined.
func NewView(parent context.Context, src Source, opts ...Option) *View {
	v := &View{
		src:         src,
		log:         zap.NewNop(),
		scroller:    ScrollFunc(func(int, model.User) {}),
		confirmer:   ConfirmFunc(func(context.Context, string) bool { return false }),
		scrollDelay: DefaultScrollDelay,
		locale:      DefaultLocale,
		scope:       reactive.NewScope(parent),
		filter:      reactive.NewCell(Filter{}),
		sort:        reactive.NewCell(Sort{}),
		highlight:   reactive.NewCell(""),
		loading:     reactive.NewCell(false),
		errMsg:      reactive.NewCell(""),
	}
	for _, o := range opts {
		o(v)
	}
	v.rows = reactive.Derive(func() []model.User {
		return ProjectLocale(v.locale, v.src.Users(), v.filter.Get(), v.sort.Get())
	}, src, v.filter, v.sort)
	v.scope.Defer(v.rows.Close)
	v.scope.Defer(v.stopFetch)
	return v
}

// Activate loads the users and, when p names a row, highlights it and
// schedules a scroll to it.
func (v *View) Activate(p Params) {
	if p.Highlight != "" {
		v.highlight.Set(p.Highlight)
		v.scope.AfterFunc(v.scrollDelay, v.scrollToHighlight)
	}
	v.Refresh()
}

// Refresh reloads the users from the backend. A refresh still in flight is
// cancelled and only the latest one updates the loading and error state.
func (v *View) Refresh() {
	if v.scope.Closed() {
		return
	}
	v.fetchMu.Lock()
	if v.cancelFetch != nil {
		v.cancelFetch()
		v.cancelFetch = nil
	}
	v.fetchSeq++
	seq := v.fetchSeq
	v.fetchMu.Unlock()

	v.loading.Set(true)
	cancel := v.src.FetchAll().Go(v.scope.Context(), func(_ []model.User, err error) {
		v.scope.Run(func() {
			if !v.latestFetch(seq) {
				return
			}
			v.loading.Set(false)
			if err != nil {
				v.log.Warn("load users", zap.Error(err))
			}
			v.errMsg.Set(errs.Message(err))
		})
	})

	v.fetchMu.Lock()
	defer v.fetchMu.Unlock()
	if v.fetchSeq != seq {
		cancel()
		return
	}
	v.cancelFetch = cancel
}

func (v *View) latestFetch(seq uint64) bool {
	v.fetchMu.Lock()
	defer v.fetchMu.Unlock()
	return v.fetchSeq == seq
}

func (v *View) stopFetch() {
	v.fetchMu.Lock()
	defer v.fetchMu.Unlock()
	if v.cancelFetch != nil {
		v.cancelFetch()
		v.cancelFetch = nil
	}
}

func (v *View) scrollToHighlight() {
	token := v.highlight.Get()
	if token == "" {
		return
	}
	rows := v.rows.Get()
	i := slices.IndexFunc(rows, func(u model.User) bool { return Matches(token, u) })
	if i < 0 {
		v.log.Debug("highlighted row not shown", zap.String("highlight", token))
		return
	}
	v.scroller.ScrollTo(i, rows[i])
}

// Close tears down every subscription, fetch and timer. It is idempotent.
func (v *View) Close() { v.scope.Close() }

// Subscribe calls fn after any change of the view state.
func (v *View) Subscribe(fn func()) (unsubscribe func()) {
	unwatch := []func(){
		v.rows.Watch(fn),
		v.highlight.Watch(fn),
		v.loading.Watch(fn),
		v.errMsg.Watch(fn),
	}
	off := func() {
		for _, u := range unwatch {
			u()
		}
	}
	v.scope.Defer(off)
	return off
}

// Rows returns the projected rows.
func (v *View) Rows() []model.User { return slices.Clone(v.rows.Get()) }

func (v *View) Filter() Filter { return v.filter.Get() }

func (v *View) Sort() Sort { return v.sort.Get() }

// SortOrder returns the direction shown on column f.
func (v *View) SortOrder(f Field) Order { return v.sort.Get().OrderOf(f) }

func (v *View) Highlight() string { return v.highlight.Get() }

// IsHighlighted reports whether u is the highlighted row.
func (v *View) IsHighlighted(u model.User) bool { return Matches(v.highlight.Get(), u) }

func (v *View) Loading() bool { return v.loading.Get() }

// Err returns the message of the last failure, or "".
func (v *View) Err() string { return v.errMsg.Get() }

// SetFilterField changes the filtered column, keeping the filter text.
func (v *View) SetFilterField(f Field) {
	v.filter.Update(func(cur Filter) Filter { return Filter{Field: f, Value: cur.Value} })
}

// SetFilterValue changes the filter text, keeping the column.
func (v *View) SetFilterValue(s string) {
	v.filter.Update(func(cur Filter) Filter { return Filter{Field: cur.Field, Value: s} })
}

// ToggleSort applies a click on column f.
func (v *View) ToggleSort(f Field) {
	v.sort.Update(func(cur Sort) Sort { return cur.Toggle(f) })
}

// SetSort replaces the sort state.
func (v *View) SetSort(s Sort) { v.sort.Set(NewSort(s.Field, s.Order)) }

// ClearHighlight drops the highlight.
func (v *View) ClearHighlight() { v.highlight.Set("") }

// Delete asks for confirmation and then deletes the user. It reports
// whether the user confirmed. The rows shrink through the cache.
func (v *View) Delete(id int64) (bool, error) {
	ctx := v.scope.Context()
	if !v.confirmer.Confirm(ctx, v.deletePrompt(id)) {
		return false, nil
	}
	_, err := v.src.Delete(id).Run(ctx)
	v.scope.Run(func() { v.errMsg.Set(errs.Message(err)) })
	if err != nil {
		v.log.Warn("delete user", zap.Int64("id", id), zap.Error(err))
		return true, err
	}
	return true, nil
}

func (v *View) deletePrompt(id int64) string {
	users := v.src.Users()
	if i := slices.IndexFunc(users, func(u model.User) bool { return u.ID == id }); i >= 0 {
		u := users[i]
		return fmt.Sprintf("Delete %s %s <%s>?", u.Name, u.Surname, u.Email)
	}
	return fmt.Sprintf("Delete user #%d?", id)
}
