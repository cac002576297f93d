package handlers

import (
	"encoding/csv"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/shrimpsizemoose/dragning/internal/app"
	"github.com/shrimpsizemoose/dragning/internal/models"
)

const utf8BOM = "\xEF\xBB\xBF"

type RaffleHandler struct {
	service *app.Service
}

func NewRaffleHandler(service *app.Service) *RaffleHandler {
	return &RaffleHandler{service: service}
}

func (h *RaffleHandler) HandleConduct(w http.ResponseWriter, r *http.Request) {
	participants, total, err := h.service.ConductRaffle(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":            true,
		"participants":       participants,
		"total_entries":      total,
		"total_participants": len(participants),
	})
}

func (h *RaffleHandler) HandleDraw(w http.ResponseWriter, r *http.Request) {
	var req models.DrawRequest
	if err := decodeBody(r, &req); err != nil {
		writeFailure(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := h.service.DrawWinner(r.Context(), actorFor(r), &req)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":     true,
		"message":     fmt.Sprintf("%s won %s", result.WinnerName, result.Prize),
		"winner_name": result.WinnerName,
		"raffle_id":   result.ID,
		"result":      result,
	})
}

func (h *RaffleHandler) HandleRecordWinner(w http.ResponseWriter, r *http.Request) {
	var req models.RecordWinnerRequest
	if err := decodeBody(r, &req); err != nil {
		writeFailure(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := h.service.RecordWinner(r.Context(), actorFor(r), &req)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":     true,
		"message":     fmt.Sprintf("Recorded %s as the winner of %s", result.WinnerName, result.Prize),
		"winner_name": result.WinnerName,
		"raffle_id":   result.ID,
	})
}

func (h *RaffleHandler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	history, err := h.service.RaffleHistory(r.Context(), limit)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"history": history,
	})
}

// HandleHistoryCSV writes the raffle history as a spreadsheet-friendly CSV.
// The BOM makes Excel pick UTF-8 for non-ASCII names.
func (h *RaffleHandler) HandleHistoryCSV(w http.ResponseWriter, r *http.Request) {
	history, err := h.service.RaffleHistory(r.Context(), 0)
	if err != nil {
		writeError(w, r, err)
		return
	}

	filename := fmt.Sprintf("raffle_history_%s.csv", time.Now().Format("20060102"))
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))

	if _, err := w.Write([]byte(utf8BOM)); err != nil {
		logger.Error.Printf("Failed to write csv: %v", err)
		return
	}

	cw := csv.NewWriter(w)
	cw.Write([]string{"Raffle ID", "Date", "Winner", "Prize", "Participants", "Total Entries", "Winning Chance %"})
	for _, res := range history {
		cw.Write([]string{
			strconv.FormatInt(res.ID, 10),
			res.CreatedAt.Format("2006-01-02 15:04:05"),
			res.WinnerName,
			res.Prize,
			strconv.Itoa(res.TotalParticipants),
			strconv.Itoa(res.TotalEntries),
			strconv.FormatFloat(res.WinningChance, 'f', 2, 64),
		})
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		logger.Error.Printf("Failed to write csv: %v", err)
	}
}
