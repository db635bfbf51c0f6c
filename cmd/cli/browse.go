package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/and161185/rubrica/internal/editor"
	"github.com/and161185/rubrica/internal/listing"
	"github.com/and161185/rubrica/internal/nav"
)

const browseHelp = `commands:
  sort <col>              cycle the sort of a column (name, surname, email, municipality)
  filter <col> [text]     keep rows whose column contains text
  unfilter                drop the filter
  next | prev             page through the rows
  show <id>               print one user
  add field=value ...     create a user
  edit <id> field=value   change a user
  rm <id>                 delete a user
  unhighlight             clear the highlighted row
  refresh                 reload from the backend
  quit
Quote values with spaces: name="Anna Maria".
`

// browser is an interactive listing fed by lines of input.
type browser struct {
	*app
	view  *listing.View
	pager *pager
	lines <-chan string
	dirty chan struct{}
}

func (a *app) browse(ctx context.Context, args []string) error {
	fs := a.flags("browse")
	hl := fs.String("highlight", "", "id or email of the row to highlight")
	if err := parse(fs, args); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	b := a.newBrowser(ctx, readLines(ctx, a.in))
	defer b.view.Close()
	b.view.Activate(listing.Params{Highlight: *hl})

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-b.dirty:
			b.draw()
		case line, ok := <-b.lines:
			if !ok {
				return nil
			}
			quit, err := b.exec(ctx, splitWords(line))
			if err != nil {
				describeError(a.errOut, err)
			}
			if quit {
				return nil
			}
			b.markDirty()
		}
	}
}

func (a *app) newBrowser(ctx context.Context, lines <-chan string) *browser {
	b := &browser{
		app:   a,
		lines: lines,
		dirty: make(chan struct{}, 1),
	}
	b.pager = newPager(a.cfg.PageSize, b.markDirty)
	b.view = a.newView(ctx, b.st,
		listing.WithScroller(b.pager),
		listing.WithConfirmer(lineConfirmer{out: a.out, lines: lines}),
	)
	b.view.Subscribe(b.markDirty)
	return b
}

func (b *browser) markDirty() {
	select {
	case b.dirty <- struct{}{}:
	default:
	}
}

func (b *browser) draw() {
	v := b.view
	if v.Loading() {
		fmt.Fprintln(b.out, "loading...")
		return
	}
	if msg := v.Err(); msg != "" {
		fmt.Fprintln(b.out, "error:", msg)
	}
	rows := v.Rows()
	from, to := b.pager.Window(len(rows))
	if err := b.printRows(v, rows[from:to]); err != nil {
		b.log.Debug("draw", zap.Error(err))
	}
	if len(rows) > 0 {
		fmt.Fprintf(b.out, "rows %d-%d of %d\n", from+1, to, len(rows))
	}
	fmt.Fprint(b.out, "> ")
}

// exec runs one browse command. It reports whether the session ends.
func (b *browser) exec(ctx context.Context, words []string) (bool, error) {
	if len(words) == 0 {
		return false, nil
	}
	v := b.view
	cmd, rest := strings.ToLower(words[0]), words[1:]
	switch cmd {
	case "quit", "exit", "q":
		return true, nil
	case "help", "?":
		fmt.Fprint(b.out, browseHelp)
	case "sort":
		if len(rest) != 1 {
			return false, usageError("usage: sort <col>")
		}
		f, err := listing.ParseField(rest[0])
		if err != nil {
			return false, usageError(err.Error())
		}
		v.ToggleSort(f)
	case "filter":
		if len(rest) == 0 {
			return false, usageError("usage: filter <col> [text]")
		}
		f, err := listing.ParseField(rest[0])
		if err != nil {
			return false, usageError(err.Error())
		}
		v.SetFilterField(f)
		v.SetFilterValue(strings.Join(rest[1:], " "))
	case "unfilter":
		v.SetFilterValue("")
		v.SetFilterField(listing.FieldNone)
	case "next":
		b.pager.Move(1)
	case "prev":
		b.pager.Move(-1)
	case "unhighlight":
		v.ClearHighlight()
	case "refresh":
		v.Refresh()
	case "show":
		id, err := argID(rest)
		if err != nil {
			return false, err
		}
		u, err := b.st.FetchByID(id).Run(ctx)
		if err != nil {
			return false, err
		}
		return false, renderUser(b.out, u)
	case "rm":
		id, err := argID(rest)
		if err != nil {
			return false, err
		}
		confirmed, err := v.Delete(id)
		if err != nil {
			return false, err
		}
		if !confirmed {
			fmt.Fprintln(b.out, "cancelled")
		}
	case "add":
		return false, b.save(ctx, 0, rest)
	case "edit":
		id, err := argID(rest)
		if err != nil {
			return false, err
		}
		return false, b.save(ctx, id, rest[1:])
	default:
		return false, usageError(fmt.Sprintf("unknown command %q, try help", cmd))
	}
	return false, nil
}

// save submits a form built from assignments and returns to the listing
// with the saved user highlighted.
func (b *browser) save(ctx context.Context, id int64, assignments []string) error {
	e := editor.New(ctx, b.st, id, b.log)
	defer e.Close()
	if err := e.Load(); err != nil {
		return err
	}
	d := e.Draft()
	if err := applyAssignments(&d, assignments); err != nil {
		return err
	}
	redirect, err := e.Submit(d)
	if err != nil {
		return err
	}
	b.view.Activate(listing.Params{Highlight: nav.Parse(redirect).Highlight})
	return nil
}

func argID(words []string) (int64, error) {
	if len(words) == 0 {
		return 0, usageError("missing user id")
	}
	id, err := strconv.ParseInt(words[0], 10, 64)
	if err != nil || id <= 0 {
		return 0, usageError(fmt.Sprintf("bad user id %q", words[0]))
	}
	return id, nil
}
