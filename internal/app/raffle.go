package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/shrimpsizemoose/dragning/internal/metrics"
	"github.com/shrimpsizemoose/dragning/internal/models"
	"github.com/shrimpsizemoose/dragning/internal/raffle"
	"github.com/shrimpsizemoose/dragning/internal/store"
)

func participantsFrom(pool []models.Employee) []raffle.Participant {
	participants := make([]raffle.Participant, len(pool))
	for i, e := range pool {
		participants[i] = raffle.Participant{ID: e.ID, Name: e.Name, Entries: e.TotalEntries}
	}
	return participants
}

// ConductRaffle lists the eligible pool with each participant's chance.
// It does not pick or record anything.
func (s *Service) ConductRaffle(ctx context.Context) ([]raffle.Participant, int, error) {
	pool, err := s.Store.ListActiveEmployeesWithEntries(ctx)
	if err != nil {
		return nil, 0, err
	}
	metrics.EligiblePoolSize.Set(float64(len(pool)))

	return raffle.ComputeChances(participantsFrom(pool))
}

// DrawWinner picks a weighted winner on the server and records the round
// in the same transaction that read the pool.
func (s *Service) DrawWinner(ctx context.Context, actor Actor, req *models.DrawRequest) (*models.RaffleResult, error) {
	if err := req.Validate(); err != nil {
		return nil, validationError(err)
	}
	prize := s.prizeOrDefault(req.Prize)

	result, err := s.Store.RecordRaffle(ctx, func(pool []models.Employee) (*models.RaffleResult, error) {
		participants := participantsFrom(pool)
		winner, err := s.Selector.Draw(participants)
		if err != nil {
			return nil, err
		}
		snap := raffle.TakeSnapshot(participants, winner.ID)
		return &models.RaffleResult{
			WinnerID:          winner.ID,
			Prize:             prize,
			TotalParticipants: snap.Participants,
			TotalEntries:      snap.TotalEntries,
			WinningChance:     snap.Chance,
			ConductedBy:       actor.UserID,
		}, nil
	})
	if err != nil {
		return nil, err
	}

	s.afterRaffle(ctx, actor, "server", result)
	return result, nil
}

// RecordWinner stores a winner chosen outside the server. The pool figures
// are recomputed here rather than taken from the client.
func (s *Service) RecordWinner(ctx context.Context, actor Actor, req *models.RecordWinnerRequest) (*models.RaffleResult, error) {
	if err := req.Validate(); err != nil {
		return nil, validationError(err)
	}
	prize := s.prizeOrDefault(req.Prize)

	result, err := s.Store.RecordRaffle(ctx, func(pool []models.Employee) (*models.RaffleResult, error) {
		snap := raffle.TakeSnapshot(participantsFrom(pool), req.WinnerID)
		return &models.RaffleResult{
			WinnerID:          req.WinnerID,
			Prize:             prize,
			TotalParticipants: snap.Participants,
			TotalEntries:      snap.TotalEntries,
			WinningChance:     snap.Chance,
			ConductedBy:       actor.UserID,
		}, nil
	})
	if errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("%w: %d", ErrInvalidWinner, req.WinnerID)
	}
	if err != nil {
		return nil, err
	}

	if result.WinningChance == 0 {
		logger.Info.Printf("Recorded winner %d had no entries in the current pool", result.WinnerID)
	}
	s.afterRaffle(ctx, actor, "manual", result)
	return result, nil
}

func (s *Service) RaffleHistory(ctx context.Context, limit int) ([]models.RaffleResult, error) {
	if limit <= 0 || limit > s.Config.Raffle.HistoryLimit {
		limit = s.Config.Raffle.HistoryLimit
	}
	return s.Store.ListRaffleHistory(ctx, limit)
}

func (s *Service) afterRaffle(ctx context.Context, actor Actor, mode string, result *models.RaffleResult) {
	metrics.RafflesTotal.WithLabelValues(mode).Inc()
	logger.Info.Printf("Raffle %d: %s won %q (%.2f%% of %d entries)",
		result.ID, result.WinnerName, result.Prize, result.WinningChance, result.TotalEntries)
	s.audit(ctx, actor, "RECORD_WINNER", "raffle_history", &result.ID, nil, result)
}

func (s *Service) prizeOrDefault(prize string) string {
	prize = strings.TrimSpace(prize)
	if prize == "" {
		return s.Config.Raffle.DefaultPrize
	}
	return prize
}
