package handler

import (
	"database/sql"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/firehall-dev/duty-roster/backend/internal/domain"
	"github.com/firehall-dev/duty-roster/backend/internal/roster"
	"github.com/firehall-dev/duty-roster/backend/internal/utils"
)

const dateLayout = "2006-01-02"

func (h *Handler) GetActiveCycleConfig(w http.ResponseWriter, r *http.Request) {
	cfg, err := h.repository.GetActiveCycleConfig()
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			h.errorResponse(w, r, "no active cycle configuration")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	h.successResponse(w, r, "cycle configuration fetched", cfg)
}

func (h *Handler) CreateCycleConfig(w http.ResponseWriter, r *http.Request) {
	var req struct {
		StartDate       string `json:"startDate" validate:"required"`
		CycleLengthDays int32  `json:"cycleLengthDays" validate:"required,min=1"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	startDate, err := time.Parse(dateLayout, req.StartDate)
	if err != nil {
		h.errorResponse(w, r, "invalid start date")
		return
	}

	cfg := &domain.CycleConfig{
		StartDate:       roster.TruncateToDate(startDate),
		CycleLengthDays: req.CycleLengthDays,
	}
	if err := h.repository.CreateCycleConfig(cfg); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	if actorID, err := h.currentUserID(r); err == nil {
		h.auditor.Record(r.Context(), actorID, "create", "cycle_configs", cfg.ID, nil, cfg, "cycle configuration activated")
	}

	h.successResponse(w, r, "cycle configuration created", cfg)
}

func (h *Handler) CreateShift(w http.ResponseWriter, r *http.Request) {
	var req struct {
		TeamID    int64  `json:"teamID" validate:"required"`
		CycleDay  int32  `json:"cycleDay" validate:"required,min=1"`
		Type      string `json:"type" validate:"required,oneof=day night 24h"`
		StartTime string `json:"startTime" validate:"required"`
		EndTime   string `json:"endTime" validate:"required"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
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

	shift := &domain.Shift{
		TeamID:    req.TeamID,
		CycleDay:  req.CycleDay,
		Type:      domain.ShiftType(req.Type),
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
	}
	if err := utils.ValidateShift(shift, cycleCfg.CycleLengthDays); err != nil {
		h.errorResponse(w, r, err.Error())
		return
	}

	if err := h.repository.CreateShift(shift); err != nil {
		switch {
		case errors.Is(err, roster.ErrConflict):
			h.errorResponse(w, r, "the team already has a shift of this type on this cycle day")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	h.successResponse(w, r, "shift created", shift)
}

func (h *Handler) GetShifts(w http.ResponseWriter, r *http.Request) {
	if teamParam := r.URL.Query().Get("teamID"); teamParam != "" {
		teamID, err := strconv.ParseInt(teamParam, 10, 64)
		if err != nil {
			h.errorResponse(w, r, "invalid team id")
			return
		}

		shifts, err := h.repository.GetShiftsByTeam(teamID)
		if err != nil {
			h.internalServerError(w, r, err)
			return
		}
		h.successResponse(w, r, "shifts fetched", shifts)
		return
	}

	dayParam := r.URL.Query().Get("cycleDay")
	if dayParam == "" {
		h.errorResponse(w, r, "provide teamID or cycleDay")
		return
	}

	cycleDay, err := strconv.ParseInt(dayParam, 10, 32)
	if err != nil {
		h.errorResponse(w, r, "invalid cycle day")
		return
	}

	shifts, err := h.repository.GetShiftsByCycleDay(int32(cycleDay))
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "shifts fetched", shifts)
}

func (h *Handler) UpdateShift(w http.ResponseWriter, r *http.Request) {
	shiftIDParam := chi.URLParam(r, "id")
	shiftID, err := strconv.ParseInt(shiftIDParam, 10, 64)
	if err != nil {
		h.errorResponse(w, r, "invalid shift id")
		return
	}

	var req struct {
		StartTime *string `json:"startTime"`
		EndTime   *string `json:"endTime"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	shift, err := h.repository.GetShiftByID(shiftID)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			h.errorResponse(w, r, "shift not found")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	if req.StartTime != nil {
		shift.StartTime = *req.StartTime
	}
	if req.EndTime != nil {
		shift.EndTime = *req.EndTime
	}

	cycleCfg, err := h.repository.GetActiveCycleConfig()
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}
	if err := utils.ValidateShift(shift, cycleCfg.CycleLengthDays); err != nil {
		h.errorResponse(w, r, err.Error())
		return
	}

	if err := h.repository.UpdateShift(shift); err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			h.errorResponse(w, r, "the shift was modified concurrently, please retry")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	h.successResponse(w, r, "shift updated", shift)
}

func (h *Handler) DeleteShift(w http.ResponseWriter, r *http.Request) {
	shiftIDParam := chi.URLParam(r, "id")
	shiftID, err := strconv.ParseInt(shiftIDParam, 10, 64)
	if err != nil {
		h.errorResponse(w, r, "invalid shift id")
		return
	}

	if err := h.repository.DeleteShift(shiftID); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "shift deleted", nil)
}
