package raffle

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedSource(v int64) Source {
	return func(n int64) (int64, error) {
		return v, nil
	}
}

func TestComputeChances(t *testing.T) {
	testCases := []struct {
		name          string
		entries       []int
		expected      []float64
		expectedTotal int
	}{
		{"round numbers", []int{10, 30, 60}, []float64{10, 30, 60}, 100},
		{"single participant", []int{7}, []float64{100}, 7},
		{"thirds", []int{1, 1, 1}, []float64{33.33, 33.33, 33.33}, 3},
		{"two thirds", []int{1, 2}, []float64{33.33, 66.67}, 3},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			pool := make([]Participant, len(tc.entries))
			for i, e := range tc.entries {
				pool[i] = Participant{ID: int64(i + 1), Name: "p", Entries: e}
			}

			got, total, err := ComputeChances(pool)
			require.NoError(t, err)
			assert.Equal(t, tc.expectedTotal, total)
			for i := range got {
				assert.Equal(t, tc.expected[i], got[i].Chance)
				assert.Equal(t, pool[i].ID, got[i].ID, "order is preserved")
			}
		})
	}
}

func TestComputeChances_SumsToHundred(t *testing.T) {
	pool := []Participant{
		{ID: 1, Entries: 3}, {ID: 2, Entries: 7}, {ID: 3, Entries: 11},
		{ID: 4, Entries: 1}, {ID: 5, Entries: 9},
	}

	got, _, err := ComputeChances(pool)
	require.NoError(t, err)

	sum := 0.0
	for _, p := range got {
		sum += p.Chance
	}
	assert.InDelta(t, 100, sum, 0.01*float64(len(pool)))
}

func TestComputeChances_Errors(t *testing.T) {
	_, _, err := ComputeChances(nil)
	assert.ErrorIs(t, err, ErrEmptyPool)

	_, _, err = ComputeChances([]Participant{{ID: 1, Name: "Jane", Entries: 0}})
	assert.ErrorIs(t, err, ErrInvalidEntries)
}

func TestDraw_CumulativePartition(t *testing.T) {
	pool := []Participant{
		{ID: 1, Name: "A", Entries: 10},
		{ID: 2, Name: "B", Entries: 30},
		{ID: 3, Name: "C", Entries: 60},
	}

	testCases := []struct {
		rnd      int64
		expected int64
	}{
		{0, 1},
		{9, 1},
		{10, 2},
		{39, 2},
		{40, 3},
		{99, 3},
	}

	for _, tc := range testCases {
		s := &Selector{Source: fixedSource(tc.rnd)}
		winner, err := s.Draw(pool)
		require.NoError(t, err)
		assert.Equal(t, tc.expected, winner.ID, "rnd=%d", tc.rnd)
	}
}

func TestDraw_ExactProbabilities(t *testing.T) {
	pool := []Participant{
		{ID: 1, Entries: 1},
		{ID: 2, Entries: 3},
	}

	// every value of [0, total) maps to exactly one participant, so
	// walking the whole range counts each participant's share exactly
	counts := map[int64]int{}
	for v := int64(0); v < 4; v++ {
		s := &Selector{Source: fixedSource(v)}
		winner, err := s.Draw(pool)
		require.NoError(t, err)
		counts[winner.ID]++
	}

	assert.Equal(t, 1, counts[1])
	assert.Equal(t, 3, counts[2])
}

func TestDraw_Errors(t *testing.T) {
	s := NewSelector()

	_, err := s.Draw(nil)
	assert.ErrorIs(t, err, ErrEmptyPool)

	broken := &Selector{Source: func(int64) (int64, error) { return 0, errors.New("entropy gone") }}
	_, err = broken.Draw([]Participant{{ID: 1, Entries: 1}})
	assert.Error(t, err)

	outOfRange := &Selector{Source: fixedSource(5)}
	_, err = outOfRange.Draw([]Participant{{ID: 1, Entries: 5}})
	assert.Error(t, err)
}

func TestDraw_CryptoSourceStaysInPool(t *testing.T) {
	s := NewSelector()
	pool := []Participant{{ID: 1, Entries: 2}, {ID: 2, Entries: 5}, {ID: 3, Entries: 1}}

	for i := 0; i < 200; i++ {
		winner, err := s.Draw(pool)
		require.NoError(t, err)
		assert.Contains(t, []int64{1, 2, 3}, winner.ID)
	}
}

func TestTakeSnapshot(t *testing.T) {
	pool := []Participant{{ID: 1, Entries: 10}, {ID: 2, Entries: 30}, {ID: 3, Entries: 60}}

	snap := TakeSnapshot(pool, 2)
	assert.Equal(t, Snapshot{Participants: 3, TotalEntries: 100, Chance: 30}, snap)

	outsider := TakeSnapshot(pool, 99)
	assert.Equal(t, 0.0, outsider.Chance)

	empty := TakeSnapshot(nil, 1)
	assert.Equal(t, Snapshot{}, empty)
}
