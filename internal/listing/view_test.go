package listing

import (
	"context"
	"errors"
	"slices"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/and161185/rubrica/internal/errs"
	"github.com/and161185/rubrica/internal/model"
	"github.com/and161185/rubrica/internal/reactive"
)

// fakeSource mimics the user store: fetch publishes server, delete removes
// from both server and cache.
type fakeSource struct {
	cache *reactive.Cell[[]model.User]

	mu       sync.Mutex
	server   []model.User
	fetchErr error
	gate     chan struct{}
	deleted  []int64
}

func newFakeSource(users ...model.User) *fakeSource {
	return &fakeSource{cache: reactive.NewCell([]model.User{}), server: users}
}

func (f *fakeSource) Watch(fn func()) func() { return f.cache.Watch(fn) }

func (f *fakeSource) Users() []model.User { return slices.Clone(f.cache.Get()) }

func (f *fakeSource) FetchAll() reactive.Task[[]model.User] {
	return reactive.NewTask(func(ctx context.Context) ([]model.User, error) {
		f.mu.Lock()
		gate, err, users := f.gate, f.fetchErr, slices.Clone(f.server)
		f.mu.Unlock()
		if gate != nil {
			select {
			case <-gate:
			case <-ctx.Done():
			}
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
		}
		if err != nil {
			return nil, err
		}
		f.cache.Set(users)
		return users, nil
	})
}

func (f *fakeSource) Delete(id int64) reactive.Task[struct{}] {
	return reactive.NewTask(func(ctx context.Context) (struct{}, error) {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.deleted = append(f.deleted, id)
		i := slices.IndexFunc(f.server, func(u model.User) bool { return u.ID == id })
		if i < 0 {
			return struct{}{}, errs.ErrNotFound
		}
		f.server = slices.Delete(f.server, i, i+1)
		f.cache.Update(func(cur []model.User) []model.User {
			return slices.DeleteFunc(slices.Clone(cur), func(u model.User) bool { return u.ID == id })
		})
		return struct{}{}, nil
	})
}

func people() []model.User {
	return []model.User{
		{ID: 1, Name: "Ann", Surname: "Rossi", Email: "ann@x.it", Municipality: "Roma"},
		{ID: 2, Name: "bob", Surname: "Bianchi", Email: "bob@x.it", Municipality: "Milano"},
		{ID: 3, Name: "Carla", Surname: "Abate", Email: "carla@x.it", Municipality: "Roma"},
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	require.Eventually(t, cond, time.Second, 5*time.Millisecond)
}

func TestView_ActivateLoadsRows(t *testing.T) {
	t.Parallel()

	src := newFakeSource(people()...)
	v := NewView(context.Background(), src, WithLogger(zaptest.NewLogger(t)))
	defer v.Close()

	v.Activate(Params{})
	waitFor(t, func() bool { return !v.Loading() && len(v.Rows()) == 3 })
	assert.Empty(t, v.Err())
	assert.Empty(t, v.Highlight())
}

func TestView_FilterAndSortRecompute(t *testing.T) {
	t.Parallel()

	src := newFakeSource(people()...)
	v := NewView(context.Background(), src)
	defer v.Close()
	v.Activate(Params{})
	waitFor(t, func() bool { return len(v.Rows()) == 3 })

	v.SetFilterField(FieldMunicipality)
	assert.Len(t, v.Rows(), 3, "no text means no filtering")
	v.SetFilterValue("ROM")
	assert.Equal(t, []int64{1, 3}, ids(v.Rows()))
	assert.Equal(t, Filter{Field: FieldMunicipality, Value: "ROM"}, v.Filter())

	v.ToggleSort(FieldSurname)
	assert.Equal(t, []int64{3, 1}, ids(v.Rows()))
	assert.Equal(t, OrderAsc, v.SortOrder(FieldSurname))
	assert.Equal(t, OrderNone, v.SortOrder(FieldName))

	v.ToggleSort(FieldSurname)
	assert.Equal(t, []int64{1, 3}, ids(v.Rows()))
	v.ToggleSort(FieldSurname)
	assert.Equal(t, Sort{}, v.Sort())

	v.SetFilterValue("")
	assert.Equal(t, []int64{1, 2, 3}, ids(v.Rows()))
}

func TestView_LoadFailureSetsMessage(t *testing.T) {
	t.Parallel()

	src := newFakeSource()
	src.fetchErr = &errs.TransportError{Op: "list users", Err: errors.New("refused")}
	v := NewView(context.Background(), src)
	defer v.Close()

	v.Activate(Params{})
	waitFor(t, func() bool { return v.Err() != "" })
	assert.False(t, v.Loading())
	assert.Equal(t, "There are problems with the request. Try again later!", v.Err())
}

func TestView_HighlightScrollsOnce(t *testing.T) {
	t.Parallel()

	src := newFakeSource(people()...)
	var scrolls atomic.Int32
	var gotRow atomic.Int32
	v := NewView(context.Background(), src,
		WithScrollDelay(50*time.Millisecond),
		WithScroller(ScrollFunc(func(row int, u model.User) {
			gotRow.Store(int32(row))
			scrolls.Add(1)
		})),
	)
	defer v.Close()

	v.Activate(Params{Highlight: "bob@x.it"})
	assert.Equal(t, "bob@x.it", v.Highlight())
	waitFor(t, func() bool { return scrolls.Load() == 1 })
	assert.Equal(t, int32(1), gotRow.Load())

	assert.True(t, v.IsHighlighted(people()[1]))
	assert.False(t, v.IsHighlighted(people()[0]))

	time.Sleep(80 * time.Millisecond)
	assert.Equal(t, int32(1), scrolls.Load(), "one-shot")

	v.ClearHighlight()
	assert.Empty(t, v.Highlight())
	assert.False(t, v.IsHighlighted(people()[1]))
}

func TestView_CloseBeforeScrollSuppressesIt(t *testing.T) {
	t.Parallel()

	src := newFakeSource(people()...)
	var scrolled atomic.Bool
	v := NewView(context.Background(), src,
		WithScrollDelay(20*time.Millisecond),
		WithScroller(ScrollFunc(func(int, model.User) { scrolled.Store(true) })),
	)
	v.Activate(Params{Highlight: "2"})
	v.Close()
	v.Close()

	time.Sleep(50 * time.Millisecond)
	assert.False(t, scrolled.Load())
}

func TestView_CloseCancelsPendingFetch(t *testing.T) {
	t.Parallel()

	src := newFakeSource(people()...)
	src.gate = make(chan struct{})
	v := NewView(context.Background(), src)

	var notified atomic.Int32
	v.Subscribe(func() { notified.Add(1) })

	v.Activate(Params{})
	require.True(t, v.Loading())
	before := notified.Load()
	v.Close()
	close(src.gate)

	time.Sleep(20 * time.Millisecond)
	assert.True(t, v.Loading(), "no callback ran after close")
	assert.Equal(t, before, notified.Load())
	assert.Empty(t, src.Users())
}

func TestView_DeleteNeedsConfirmation(t *testing.T) {
	t.Parallel()

	src := newFakeSource(people()...)
	answer := false
	var prompts []string
	v := NewView(context.Background(), src, WithConfirmer(ConfirmFunc(func(_ context.Context, prompt string) bool {
		prompts = append(prompts, prompt)
		return answer
	})))
	defer v.Close()
	v.Activate(Params{})
	waitFor(t, func() bool { return len(v.Rows()) == 3 })

	ok, err := v.Delete(2)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, src.deleted)
	assert.Len(t, v.Rows(), 3)
	assert.Equal(t, []string{"Delete bob Bianchi <bob@x.it>?"}, prompts)

	answer = true
	ok, err = v.Delete(2)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []int64{2}, src.deleted)
	assert.Equal(t, []int64{1, 3}, ids(v.Rows()))

	ok, err = v.Delete(2)
	assert.True(t, ok)
	assert.ErrorIs(t, err, errs.ErrNotFound)
	assert.Equal(t, "The requested user does not exist anymore.", v.Err())
	assert.Equal(t, []int64{1, 3}, ids(v.Rows()))
	assert.Equal(t, "Delete user #2?", prompts[len(prompts)-1])
}

func TestView_DefaultConfirmerDeclines(t *testing.T) {
	t.Parallel()

	src := newFakeSource(people()...)
	v := NewView(context.Background(), src)
	defer v.Close()

	ok, err := v.Delete(1)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, src.deleted)
}

func TestView_SubscriberMaySendIntents(t *testing.T) {
	t.Parallel()

	src := newFakeSource(people()...)
	v := NewView(context.Background(), src)
	defer v.Close()

	var once sync.Once
	v.Subscribe(func() {
		if len(v.Rows()) > 0 {
			once.Do(func() { v.ToggleSort(FieldName) })
		}
	})
	v.Activate(Params{})
	waitFor(t, func() bool { return !v.Loading() })

	done := make(chan error, 1)
	go func() {
		_, err := src.FetchAll().Run(context.Background())
		done <- err
	}()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("cache update blocked by a subscriber intent")
	}
	assert.Equal(t, Sort{Field: FieldName, Order: OrderAsc}, v.Sort())
	assert.Equal(t, []int64{1, 2, 3}, ids(v.Rows()))
}

func TestView_CloseWhileSubscriberRetries(t *testing.T) {
	t.Parallel()

	src := newFakeSource()
	src.fetchErr = &errs.TransportError{Op: "list users", Err: errors.New("refused")}
	v := NewView(context.Background(), src)

	hit := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	v.Subscribe(func() {
		if v.Err() == "" {
			return
		}
		once.Do(func() {
			close(hit)
			<-release
			v.Refresh()
		})
	})
	v.Activate(Params{})

	select {
	case <-hit:
	case <-time.After(2 * time.Second):
		t.Fatal("load error never reached the subscriber")
	}
	closed := make(chan struct{})
	go func() {
		v.Close()
		close(closed)
	}()
	time.Sleep(20 * time.Millisecond)
	close(release)

	select {
	case <-closed:
	case <-time.After(2 * time.Second):
		t.Fatal("Close and the retrying subscriber wait on each other")
	}
}

func TestView_OverlappingRefreshKeepsLoading(t *testing.T) {
	t.Parallel()

	src := newFakeSource(people()...)
	src.gate = make(chan struct{})
	v := NewView(context.Background(), src)
	defer v.Close()

	v.Activate(Params{})
	v.Refresh()
	v.Refresh()

	time.Sleep(20 * time.Millisecond)
	assert.True(t, v.Loading(), "superseded fetches do not end the loading state")
	assert.Empty(t, v.Rows())

	close(src.gate)
	waitFor(t, func() bool { return !v.Loading() })
	assert.Len(t, v.Rows(), 3)
	assert.Empty(t, v.Err())
}
