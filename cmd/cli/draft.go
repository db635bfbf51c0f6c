package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/and161185/rubrica/internal/errs"
	"github.com/and161185/rubrica/internal/model"
)

// draftField binds one editable field to its flag and key=value name.
type draftField struct {
	name  string
	usage string
	ptr   func(d *model.UserDraft) *string
}

var draftFields = []draftField{
	{"name", "first name (2-20 chars)", func(d *model.UserDraft) *string { return &d.Name }},
	{"surname", "last name (2-20 chars)", func(d *model.UserDraft) *string { return &d.Surname }},
	{"email", "email address", func(d *model.UserDraft) *string { return &d.Email }},
	{"address", "street address (5-75 chars)", func(d *model.UserDraft) *string { return &d.Address }},
	{"location", "location (3-25 chars)", func(d *model.UserDraft) *string { return &d.Location }},
	{"municipality", "municipality (3-25 chars)", func(d *model.UserDraft) *string { return &d.Municipality }},
	{"province", "province", func(d *model.UserDraft) *string { return &d.Province }},
	{"notes", "notes (max 300 chars)", func(d *model.UserDraft) *string { return &d.Notes }},
}

// bindDraft registers one string flag per draft field, writing into d.
func bindDraft(fs *flag.FlagSet, d *model.UserDraft) {
	for _, f := range draftFields {
		fs.StringVar(f.ptr(d), f.name, *f.ptr(d), f.usage)
	}
}

// overlaySet copies into dst the draft fields whose flags were set on fs.
func overlaySet(fs *flag.FlagSet, dst *model.UserDraft, src model.UserDraft) {
	fs.Visit(func(fl *flag.Flag) {
		for _, f := range draftFields {
			if f.name == fl.Name {
				*f.ptr(dst) = *f.ptr(&src)
			}
		}
	})
}

// applyAssignments parses "field=value" words onto d.
func applyAssignments(d *model.UserDraft, words []string) error {
	for _, w := range words {
		key, val, ok := strings.Cut(w, "=")
		if !ok {
			return usageError(fmt.Sprintf("expected field=value, got %q", w))
		}
		found := false
		for _, f := range draftFields {
			if f.name == strings.ToLower(key) {
				*f.ptr(d) = val
				found = true
				break
			}
		}
		if !found {
			return usageError(fmt.Sprintf("unknown field %q", key))
		}
	}
	return nil
}

// splitWords splits a browse command line on spaces, keeping double-quoted
// runs together.
func splitWords(line string) []string {
	var (
		out    []string
		cur    strings.Builder
		quoted bool
		inWord bool
	)
	for _, r := range line {
		switch {
		case r == '"':
			quoted = !quoted
			inWord = true
		case r == ' ' || r == '\t':
			if quoted {
				cur.WriteRune(r)
				continue
			}
			if inWord {
				out = append(out, cur.String())
				cur.Reset()
				inWord = false
			}
		default:
			cur.WriteRune(r)
			inWord = true
		}
	}
	if inWord {
		out = append(out, cur.String())
	}
	return out
}

// usageError is a mistake in how rb was invoked; it is printed verbatim.
type usageError string

func (e usageError) Error() string { return string(e) }

// describeError renders err for the terminal.
func describeError(w io.Writer, err error) {
	var ue usageError
	if errors.As(err, &ue) {
		if ue != "" {
			fmt.Fprintln(w, ue)
		}
		return
	}
	var ve viewError
	if errors.As(err, &ve) {
		fmt.Fprintln(w, ve)
		return
	}
	var verr *errs.ValidationError
	if errors.As(err, &verr) {
		msg := verr.Message
		if msg == "" {
			msg = "invalid user"
		}
		fmt.Fprintln(w, msg)
		keys := make([]string, 0, len(verr.Fields))
		for k := range verr.Fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(w, "  %s: %s\n", k, verr.Fields[k])
		}
		return
	}
	fmt.Fprintln(w, errs.Message(err))
}

func printJSON(w io.Writer, v any) {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}
