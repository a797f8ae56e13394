package catalog

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rec(id int, name string) Record {
	return Record{ID: id, Name: name, Weight: id * 10}
}

func ids(records []Record) []int {
	out := make([]int, len(records))
	for i, r := range records {
		out[i] = r.ID
	}
	return out
}

func TestStore_AppendPreservesOrder(t *testing.T) {
	s := NewStore()

	assert.Equal(t, 3, s.Append([]Record{rec(3, "c"), rec(1, "a"), rec(2, "b")}))
	assert.Equal(t, 2, s.Append([]Record{rec(10, "j"), rec(7, "g")}))

	assert.Equal(t, []int{3, 1, 2, 10, 7}, ids(s.All()))
	assert.Equal(t, 5, s.Len())
}

func TestStore_AppendDropsDuplicates(t *testing.T) {
	s := NewStore()
	s.Append([]Record{rec(1, "bulbasaur"), rec(2, "ivysaur")})

	dup := rec(1, "impostor")
	dup.Weight = 999
	added := s.Append([]Record{dup, rec(3, "venusaur")})

	assert.Equal(t, 1, added)
	assert.Equal(t, []int{1, 2, 3}, ids(s.All()))

	got, ok := s.ByID(1)
	require.True(t, ok)
	assert.Equal(t, "bulbasaur", got.Name)
	assert.Equal(t, 10, got.Weight)
}

func TestStore_AppendDropsDuplicatesWithinBatch(t *testing.T) {
	s := NewStore()
	added := s.Append([]Record{rec(4, "first"), rec(5, "x"), rec(4, "second")})

	assert.Equal(t, 2, added)
	got, _ := s.ByID(4)
	assert.Equal(t, "first", got.Name)
}

func TestStore_VersionBumps(t *testing.T) {
	s := NewStore()
	v0 := s.Version()

	s.Append([]Record{rec(1, "a")})
	v1 := s.Version()
	assert.Greater(t, v1, v0)

	s.Append([]Record{rec(1, "a")})
	assert.Equal(t, v1, s.Version(), "all-duplicate append must not change version")

	s.Append(nil)
	assert.Equal(t, v1, s.Version())

	require.True(t, s.ToggleDetails(1))
	assert.Greater(t, s.Version(), v1)
}

func TestStore_ToggleDetails(t *testing.T) {
	s := NewStore()
	s.Append([]Record{rec(25, "pikachu")})

	assert.True(t, s.ToggleDetails(25))
	got, _ := s.ByID(25)
	assert.True(t, got.UI.DetailsExpanded)

	assert.True(t, s.ToggleDetails(25))
	got, _ = s.ByID(25)
	assert.False(t, got.UI.DetailsExpanded)

	before := s.Version()
	assert.False(t, s.ToggleDetails(404))
	assert.Equal(t, before, s.Version())
}

func TestStore_ReturnsCopies(t *testing.T) {
	s := NewStore()
	s.Append([]Record{rec(1, "a")})

	all := s.All()
	all[0].Name = "mutated"
	all[0].UI.DetailsExpanded = true

	got, _ := s.ByID(1)
	assert.Equal(t, "a", got.Name)
	assert.False(t, got.UI.DetailsExpanded)
}

func TestStore_ByIDMissing(t *testing.T) {
	s := NewStore()
	_, ok := s.ByID(1)
	assert.False(t, ok)
}

func TestStore_ConcurrentAppendAndRead(t *testing.T) {
	s := NewStore()
	var wg sync.WaitGroup

	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func(base int) {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				s.Append([]Record{rec(base*1000+i, "x")})
				_ = s.All()
			}
		}(w)
	}
	wg.Wait()

	assert.Equal(t, 200, s.Len())
}

func TestStore_RecordsDoNotShareSlices(t *testing.T) {
	s := NewStore()
	in := rec(1, "bulbasaur")
	in.Stats = []Stat{{Name: "hp", BaseValue: 45}}
	in.Types = []Type{{Slot: 1, Name: "grass"}}
	s.Append([]Record{in})

	in.Stats[0].BaseValue = 1
	in.Types[0].Name = "fire"

	got, ok := s.ByID(1)
	require.True(t, ok)
	assert.Equal(t, 45, got.Stats[0].BaseValue)
	assert.Equal(t, "grass", got.Types[0].Name)

	got.Stats[0].BaseValue = 2
	s.All()[0].Types[0].Name = "water"

	again, _ := s.ByID(1)
	assert.Equal(t, 45, again.Stats[0].BaseValue)
	assert.Equal(t, "grass", again.Types[0].Name)
}
