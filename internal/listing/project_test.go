package listing

import (
	"fmt"
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/collate"

	"github.com/and161185/rubrica/internal/model"
)

func annBob() []model.User {
	return []model.User{
		{ID: 1, Name: "Ann"},
		{ID: 2, Name: "bob"},
	}
}

func ids(users []model.User) []int64 {
	out := make([]int64, 0, len(users))
	for _, u := range users {
		out = append(out, u.ID)
	}
	return out
}

func TestProject_FilterScenario(t *testing.T) {
	t.Parallel()

	got := Project(annBob(), Filter{Field: FieldName, Value: "A"}, Sort{})
	assert.Equal(t, []int64{1}, ids(got))
}

func TestProject_SortDescScenario(t *testing.T) {
	t.Parallel()

	got := Project(annBob(), Filter{}, Sort{Field: FieldName, Order: OrderDesc})
	assert.Equal(t, []int64{2, 1}, ids(got))

	got = Project(annBob(), Filter{}, Sort{Field: FieldName, Order: OrderAsc})
	assert.Equal(t, []int64{1, 2}, ids(got))
}

func TestProject_InactiveFilterKeepsAll(t *testing.T) {
	t.Parallel()

	in := annBob()
	assert.Equal(t, in, Project(in, Filter{Field: FieldName}, Sort{}))
	assert.Equal(t, in, Project(in, Filter{Value: "zzz"}, Sort{}))
}

func TestProject_DoesNotTouchInput(t *testing.T) {
	t.Parallel()

	in := []model.User{{ID: 1, Name: "zoe"}, {ID: 2, Name: "amy"}}
	out := Project(in, Filter{}, Sort{Field: FieldName, Order: OrderAsc})
	require.Equal(t, []int64{2, 1}, ids(out))
	assert.Equal(t, []int64{1, 2}, ids(in))

	out[0].Name = "changed"
	assert.Equal(t, "amy", in[1].Name)
}

func TestProject_ItalianCollation(t *testing.T) {
	t.Parallel()

	in := []model.User{
		{ID: 1, Surname: "Zanetti"},
		{ID: 2, Surname: "Èrcoli"},
		{ID: 3, Surname: "esposito"},
		{ID: 4, Surname: "D'Amico"},
	}
	got := Project(in, Filter{}, Sort{Field: FieldSurname, Order: OrderAsc})
	assert.Equal(t, []int64{4, 2, 3, 1}, ids(got))
}

func TestProject_StableOnTies(t *testing.T) {
	t.Parallel()

	in := []model.User{
		{ID: 1, Municipality: "Roma"},
		{ID: 2, Municipality: "Milano"},
		{ID: 3, Municipality: "Roma"},
		{ID: 4, Municipality: "Milano"},
	}
	asc := Project(in, Filter{}, Sort{Field: FieldMunicipality, Order: OrderAsc})
	assert.Equal(t, []int64{2, 4, 1, 3}, ids(asc))

	desc := Project(in, Filter{}, Sort{Field: FieldMunicipality, Order: OrderDesc})
	assert.Equal(t, []int64{1, 3, 2, 4}, ids(desc))
}

var words = []string{"Anna", "anna", "Bruno", "bruno", "Città", "citta", "Élise", "elise", "Zeno", "", "Marco"}

func randomUsers(r *rand.Rand, n int) []model.User {
	users := make([]model.User, n)
	for i := range users {
		users[i] = model.User{
			ID:           int64(i + 1),
			Name:         words[r.Intn(len(words))],
			Surname:      words[r.Intn(len(words))],
			Email:        strings.ToLower(words[r.Intn(len(words))]) + "@x.it",
			Municipality: words[r.Intn(len(words))],
		}
	}
	return users
}

func TestProject_FilterProperty(t *testing.T) {
	t.Parallel()

	r := rand.New(rand.NewSource(7))
	for round := 0; round < 50; round++ {
		users := randomUsers(r, 20)
		f := Filter{Field: Fields[r.Intn(len(Fields))], Value: []string{"a", "AN", "ti", "É", "o"}[r.Intn(5)]}
		got := Project(users, f, Sort{})

		kept := map[int64]bool{}
		for _, u := range got {
			kept[u.ID] = true
		}
		for _, u := range users {
			match := strings.Contains(strings.ToLower(f.Field.Value(u)), strings.ToLower(f.Value))
			assert.Equal(t, match, kept[u.ID], "round %d user %d field %s=%q value %q", round, u.ID, f.Field, f.Field.Value(u), f.Value)
		}
	}
}

func TestProject_SortProperty(t *testing.T) {
	t.Parallel()

	r := rand.New(rand.NewSource(11))
	col := collate.New(DefaultLocale)
	for round := 0; round < 50; round++ {
		users := randomUsers(r, 25)
		s := Sort{Field: Fields[r.Intn(len(Fields))], Order: []Order{OrderAsc, OrderDesc}[r.Intn(2)]}
		got := Project(users, Filter{}, s)
		require.Len(t, got, len(users))

		pos := map[int64]int{}
		for i, u := range users {
			pos[u.ID] = i
		}
		for i := 1; i < len(got); i++ {
			c := col.CompareString(s.Field.Value(got[i-1]), s.Field.Value(got[i]))
			if s.Order == OrderDesc {
				c = -c
			}
			require.LessOrEqual(t, c, 0, fmt.Sprintf("round %d: out of order at %d", round, i))
			if c == 0 {
				require.Less(t, pos[got[i-1].ID], pos[got[i].ID], "round %d: unstable at %d", round, i)
			}
		}
		assert.Equal(t, got, Project(users, Filter{}, s), "idempotent")
	}
}
