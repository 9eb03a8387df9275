package handler

import (
	"database/sql"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/firehall-dev/duty-roster/backend/internal/domain"
	"github.com/firehall-dev/duty-roster/backend/internal/roster"
)

// DayRoster is the computed duty picture of one calendar day: every
// shift whose cycle day falls on the date, its base crew and the
// ad-hoc assignment rows layered on top.
type DayRoster struct {
	Date        string               `json:"date"`
	CycleDay    int32                `json:"cycleDay"`
	Shifts      []*DayRosterShift    `json:"shifts"`
	Assignments []*domain.Assignment `json:"assignments"`
}

type DayRosterShift struct {
	Shift *domain.Shift  `json:"shift"`
	Crew  []*domain.User `json:"crew"`
}

func (h *Handler) GetDayRoster(w http.ResponseWriter, r *http.Request) {
	dateParam := chi.URLParam(r, "date")
	date, err := time.Parse(dateLayout, dateParam)
	if err != nil {
		h.errorResponse(w, r, "invalid date, expected YYYY-MM-DD")
		return
	}
	date = roster.TruncateToDate(date)

	var cached DayRoster
	if h.rosterCache.Get(r.Context(), date, &cached) {
		h.successResponse(w, r, "roster fetched", &cached)
		return
	}

	cycleCfg, err := h.repository.GetActiveCycleConfig()
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			h.errorResponse(w, r, "no active cycle configuration")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	cycleDay, err := roster.CycleDayOfConfig(date, cycleCfg)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	shifts, err := h.repository.GetShiftsByCycleDay(cycleDay)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	day := &DayRoster{
		Date:     date.Format(dateLayout),
		CycleDay: cycleDay,
		Shifts:   []*DayRosterShift{},
	}

	for _, shift := range shifts {
		crew, err := h.repository.GetTeamMembers(shift.TeamID)
		if err != nil {
			h.internalServerError(w, r, err)
			return
		}
		day.Shifts = append(day.Shifts, &DayRosterShift{Shift: shift, Crew: crew})
	}

	assignments, err := h.repository.GetAssignmentsForDate(date)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}
	day.Assignments = assignments

	// A failed cache write only costs the next reader a recompute.
	_ = h.rosterCache.Set(r.Context(), date, day)

	h.successResponse(w, r, "roster fetched", day)
}
