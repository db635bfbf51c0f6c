package listing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/and161185/rubrica/internal/model"
)

func TestSort_ToggleSequence(t *testing.T) {
	t.Parallel()

	var s Sort
	s = s.Toggle(FieldName)
	assert.Equal(t, Sort{Field: FieldName, Order: OrderAsc}, s)
	s = s.Toggle(FieldName)
	assert.Equal(t, Sort{Field: FieldName, Order: OrderDesc}, s)
	s = s.Toggle(FieldName)
	assert.Equal(t, Sort{}, s)
	s = s.Toggle(FieldName)
	assert.Equal(t, Sort{Field: FieldName, Order: OrderAsc}, s)
}

func TestSort_ToggleOtherColumnResets(t *testing.T) {
	t.Parallel()

	s := Sort{Field: FieldName, Order: OrderDesc}
	s = s.Toggle(FieldEmail)
	assert.Equal(t, Sort{Field: FieldEmail, Order: OrderAsc}, s)
	assert.Equal(t, OrderNone, s.OrderOf(FieldName))
	assert.Equal(t, OrderAsc, s.OrderOf(FieldEmail))
	assert.Equal(t, Sort{}, s.Toggle(FieldNone))
}

func TestNewSort_KeepsFieldAndOrderTogether(t *testing.T) {
	t.Parallel()

	assert.Equal(t, Sort{}, NewSort(FieldName, OrderNone))
	assert.Equal(t, Sort{}, NewSort(FieldNone, OrderDesc))
	assert.Equal(t, Sort{Field: FieldSurname, Order: OrderDesc}, NewSort(FieldSurname, OrderDesc))
}

func TestParseFieldAndOrder(t *testing.T) {
	t.Parallel()

	f, err := ParseField(" Surname ")
	require.NoError(t, err)
	assert.Equal(t, FieldSurname, f)

	f, err = ParseField("none")
	require.NoError(t, err)
	assert.Equal(t, FieldNone, f)
	assert.Equal(t, "none", f.String())

	_, err = ParseField("province")
	assert.Error(t, err)

	o, err := ParseOrder("DESC")
	require.NoError(t, err)
	assert.Equal(t, OrderDesc, o)
	assert.Equal(t, "desc", o.String())

	_, err = ParseOrder("up")
	assert.Error(t, err)
}

func TestMatches(t *testing.T) {
	t.Parallel()

	u := model.User{ID: 12, Email: "Ann@X.it"}
	assert.True(t, Matches("12", u))
	assert.True(t, Matches("ann@x.IT", u))
	assert.False(t, Matches("", u))
	assert.False(t, Matches("1", u))
}
