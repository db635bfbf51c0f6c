// Package listing projects the cached users into the rows a listing shows
// and holds the listing's filter, sort and highlight state.
package listing

import (
	"fmt"
	"strings"

	"github.com/and161185/rubrica/internal/model"
)

// Field names a filterable and sortable column.
type Field string

// Columns. The zero value is FieldNone.
const (
	FieldNone         Field = ""
	FieldName         Field = "name"
	FieldSurname      Field = "surname"
	FieldEmail        Field = "email"
	FieldMunicipality Field = "municipality"
)

// Fields lists the columns in display order.
var Fields = []Field{FieldName, FieldSurname, FieldEmail, FieldMunicipality}

// ParseField accepts a column name; "" and "none" mean FieldNone.
func ParseField(s string) (Field, error) {
	switch f := Field(strings.ToLower(strings.TrimSpace(s))); f {
	case "", "none":
		return FieldNone, nil
	case FieldName, FieldSurname, FieldEmail, FieldMunicipality:
		return f, nil
	default:
		return FieldNone, fmt.Errorf("unknown column %q", s)
	}
}

func (f Field) String() string {
	if f == FieldNone {
		return "none"
	}
	return string(f)
}

// Value returns the column value of u, or "" for FieldNone.
func (f Field) Value(u model.User) string {
	switch f {
	case FieldName:
		return u.Name
	case FieldSurname:
		return u.Surname
	case FieldEmail:
		return u.Email
	case FieldMunicipality:
		return u.Municipality
	default:
		return ""
	}
}

// Order is a sort direction.
type Order int

const (
	OrderNone Order = iota
	OrderAsc
	OrderDesc
)

// ParseOrder accepts "asc", "desc", "none" or "".
func ParseOrder(s string) (Order, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return OrderNone, nil
	case "asc":
		return OrderAsc, nil
	case "desc":
		return OrderDesc, nil
	default:
		return OrderNone, fmt.Errorf("unknown order %q", s)
	}
}

func (o Order) String() string {
	switch o {
	case OrderAsc:
		return "asc"
	case OrderDesc:
		return "desc"
	default:
		return "none"
	}
}

// Filter keeps rows whose Field contains Value, ignoring case.
type Filter struct {
	Field Field
	Value string
}

// Active reports whether the filter removes anything.
func (f Filter) Active() bool { return f.Field != FieldNone && f.Value != "" }

// Sort orders rows by Field. Order is OrderNone exactly when Field is
// FieldNone.
type Sort struct {
	Field Field
	Order Order
}

// NewSort builds a Sort, collapsing half-set states to the empty sort.
func NewSort(f Field, o Order) Sort {
	if f == FieldNone || o == OrderNone {
		return Sort{}
	}
	return Sort{Field: f, Order: o}
}

// Active reports whether rows get reordered.
func (s Sort) Active() bool { return s.Field != FieldNone && s.Order != OrderNone }

// Toggle returns the state after a click on column f: another column starts
// at ascending, the current one cycles asc, desc, then back to unsorted.
func (s Sort) Toggle(f Field) Sort {
	if f == FieldNone {
		return Sort{}
	}
	if s.Field != f {
		return Sort{Field: f, Order: OrderAsc}
	}
	switch s.Order {
	case OrderAsc:
		return Sort{Field: f, Order: OrderDesc}
	case OrderDesc:
		return Sort{}
	default:
		return Sort{Field: f, Order: OrderAsc}
	}
}

// OrderOf returns the direction shown on column f.
func (s Sort) OrderOf(f Field) Order {
	if f == FieldNone || s.Field != f {
		return OrderNone
	}
	return s.Order
}

// Matches reports whether token designates u: its id or, ignoring case,
// its email.
func Matches(token string, u model.User) bool {
	token = strings.TrimSpace(token)
	if token == "" {
		return false
	}
	return token == u.Key() || strings.EqualFold(token, u.Email)
}
