// Package raffle computes winning chances and picks weighted winners.
package raffle

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math"
	"math/big"
	"sort"
)

var (
	ErrEmptyPool      = errors.New("no eligible participants")
	ErrInvalidEntries = errors.New("participant entries must be positive")
)

type Participant struct {
	ID      int64   `json:"id"`
	Name    string  `json:"name"`
	Entries int     `json:"entries"`
	Chance  float64 `json:"chance"`
}

// Source returns a uniformly distributed integer in [0, n).
type Source func(n int64) (int64, error)

func CryptoSource(n int64) (int64, error) {
	v, err := rand.Int(rand.Reader, big.NewInt(n))
	if err != nil {
		return 0, fmt.Errorf("failed to read random value: %w", err)
	}
	return v.Int64(), nil
}

type Selector struct {
	Source Source
}

func NewSelector() *Selector {
	return &Selector{Source: CryptoSource}
}

// ComputeChances fills Chance for every participant (percent, two decimals)
// and returns the pool total. Input order is preserved.
func ComputeChances(pool []Participant) ([]Participant, int, error) {
	total, err := totalEntries(pool)
	if err != nil {
		return nil, 0, err
	}

	out := make([]Participant, len(pool))
	for i, p := range pool {
		p.Chance = Chance(p.Entries, total)
		out[i] = p
	}
	return out, total, nil
}

func Chance(entries, total int) float64 {
	if total <= 0 {
		return 0
	}
	return math.Round(float64(entries)/float64(total)*100*100) / 100
}

// Draw picks one participant with probability entries/total. The random
// value lands in the cumulative-sum partition of [0, total).
func (s *Selector) Draw(pool []Participant) (Participant, error) {
	total, err := totalEntries(pool)
	if err != nil {
		return Participant{}, err
	}

	cumulative := make([]int64, len(pool))
	var running int64
	for i, p := range pool {
		running += int64(p.Entries)
		cumulative[i] = running
	}

	source := s.Source
	if source == nil {
		source = CryptoSource
	}
	rnd, err := source(int64(total))
	if err != nil {
		return Participant{}, err
	}
	if rnd < 0 || rnd >= int64(total) {
		return Participant{}, fmt.Errorf("random value %d outside [0, %d)", rnd, total)
	}

	idx := sort.Search(len(cumulative), func(i int) bool {
		return rnd < cumulative[i]
	})

	winner := pool[idx]
	winner.Chance = Chance(winner.Entries, total)
	return winner, nil
}

// Snapshot describes the pool at the moment a winner is fixed.
type Snapshot struct {
	Participants int
	TotalEntries int
	Chance       float64
}

// TakeSnapshot summarises the pool for winnerID. A winner outside the pool
// gets a zero chance; the caller decides whether that is acceptable.
func TakeSnapshot(pool []Participant, winnerID int64) Snapshot {
	snap := Snapshot{Participants: len(pool)}
	winnerEntries := 0
	for _, p := range pool {
		snap.TotalEntries += p.Entries
		if p.ID == winnerID {
			winnerEntries = p.Entries
		}
	}
	snap.Chance = Chance(winnerEntries, snap.TotalEntries)
	return snap
}

func totalEntries(pool []Participant) (int, error) {
	if len(pool) == 0 {
		return 0, ErrEmptyPool
	}
	total := 0
	for _, p := range pool {
		if p.Entries <= 0 {
			return 0, fmt.Errorf("%w: %s has %d", ErrInvalidEntries, p.Name, p.Entries)
		}
		total += p.Entries
	}
	return total, nil
}
