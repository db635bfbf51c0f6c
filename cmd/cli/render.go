package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"text/tabwriter"

	"github.com/and161185/rubrica/internal/listing"
	"github.com/and161185/rubrica/internal/model"
)

type column struct {
	title string
	field listing.Field
	value func(model.User) string
}

var columns = []column{
	{"ID", listing.FieldNone, func(u model.User) string { return strconv.FormatInt(u.ID, 10) }},
	{"NAME", listing.FieldName, listing.FieldName.Value},
	{"SURNAME", listing.FieldSurname, listing.FieldSurname.Value},
	{"EMAIL", listing.FieldEmail, listing.FieldEmail.Value},
	{"MUNICIPALITY", listing.FieldMunicipality, listing.FieldMunicipality.Value},
	{"PROVINCE", listing.FieldNone, func(u model.User) string { return u.Province }},
}

func orderMark(o listing.Order) string {
	switch o {
	case listing.OrderAsc:
		return " ^"
	case listing.OrderDesc:
		return " v"
	default:
		return ""
	}
}

// renderTable writes rows as an aligned table. Sorted columns carry an
// arrow and the highlighted row a leading "*".
func renderTable(w io.Writer, v *listing.View, rows []model.User) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	head := make([]string, 0, len(columns)+1)
	head = append(head, " ")
	for _, c := range columns {
		title := c.title
		if c.field != listing.FieldNone {
			title += orderMark(v.SortOrder(c.field))
		}
		head = append(head, title)
	}
	fmt.Fprintln(tw, strings.Join(head, "\t"))

	for _, u := range rows {
		cells := make([]string, 0, len(columns)+1)
		mark := " "
		if v.IsHighlighted(u) {
			mark = "*"
		}
		cells = append(cells, mark)
		for _, c := range columns {
			cells = append(cells, c.value(u))
		}
		fmt.Fprintln(tw, strings.Join(cells, "\t"))
	}
	return tw.Flush()
}

// renderUser writes the detail of one user, one field per line.
func renderUser(w io.Writer, u model.User) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	if u.ID != 0 {
		fmt.Fprintf(tw, "id:\t%d\n", u.ID)
	}
	d := u.Draft()
	for _, f := range draftFields {
		fmt.Fprintf(tw, "%s:\t%s\n", f.name, *f.ptr(&d))
	}
	return tw.Flush()
}

// pager is the visible window of the browse table. As a listing.Scroller it
// centers the requested row.
type pager struct {
	mu     sync.Mutex
	size   int
	offset int
	moved  func()
}

func newPager(size int, moved func()) *pager {
	if moved == nil {
		moved = func() {}
	}
	return &pager{size: size, moved: moved}
}

func (p *pager) ScrollTo(row int, _ model.User) {
	p.mu.Lock()
	p.offset = max(0, row-p.size/2)
	p.mu.Unlock()
	p.moved()
}

// Window returns the bounds of the visible rows out of n, clamping the
// offset to the last page.
func (p *pager) Window(n int) (from, to int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.offset = min(p.offset, max(0, n-p.size))
	return p.offset, min(n, p.offset+p.size)
}

// Move shifts the window by pages.
func (p *pager) Move(pages int) {
	p.mu.Lock()
	p.offset = max(0, p.offset+pages*p.size)
	p.mu.Unlock()
}

// readLines feeds the lines of r into the returned channel until r ends or
// ctx is done.
func readLines(ctx context.Context, r io.Reader) <-chan string {
	out := make(chan string)
	go func() {
		defer close(out)
		sc := bufio.NewScanner(r)
		for sc.Scan() {
			select {
			case out <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

// lineConfirmer asks on out and takes the next line as the answer. Only
// "y" and "yes" confirm.
type lineConfirmer struct {
	out   io.Writer
	lines <-chan string
}

func (c lineConfirmer) Confirm(ctx context.Context, prompt string) bool {
	fmt.Fprintf(c.out, "%s [y/N] ", prompt)
	select {
	case <-ctx.Done():
		return false
	case line, ok := <-c.lines:
		if !ok {
			fmt.Fprintln(c.out)
			return false
		}
		switch strings.ToLower(strings.TrimSpace(line)) {
		case "y", "yes":
			return true
		default:
			return false
		}
	}
}
