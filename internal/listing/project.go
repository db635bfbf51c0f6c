package listing

import (
	"slices"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/and161185/rubrica/internal/model"
)

// DefaultLocale drives collation when none is configured.
var DefaultLocale = language.Italian

// Project returns the rows of users that pass f, ordered by s, using the
// default locale. users is never modified and the result is always a fresh
// slice.
func Project(users []model.User, f Filter, s Sort) []model.User {
	return ProjectLocale(DefaultLocale, users, f, s)
}

// ProjectLocale is Project with an explicit collation locale.
func ProjectLocale(tag language.Tag, users []model.User, f Filter, s Sort) []model.User {
	out := filterUsers(users, f)
	if !s.Active() {
		return out
	}
	// collators and casers keep internal buffers; one per call
	col := collate.New(tag)
	field := s.Field
	sign := 1
	if s.Order == OrderDesc {
		sign = -1
	}
	slices.SortStableFunc(out, func(a, b model.User) int {
		return sign * col.CompareString(field.Value(a), field.Value(b))
	})
	return out
}

func filterUsers(users []model.User, f Filter) []model.User {
	out := make([]model.User, 0, len(users))
	if !f.Active() {
		return append(out, users...)
	}
	fold := cases.Fold()
	needle := fold.String(f.Value)
	for _, u := range users {
		if strings.Contains(fold.String(f.Field.Value(u)), needle) {
			out = append(out, u)
		}
	}
	return out
}
