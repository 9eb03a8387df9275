package handler

import (
	"database/sql"
	"errors"
	"net/http"
	"time"

	"github.com/firehall-dev/duty-roster/backend/internal/domain"
	"github.com/firehall-dev/duty-roster/backend/internal/roster"
	"github.com/firehall-dev/duty-roster/backend/internal/utils"
)

// CreateDirectAssignment lets a commander or admin place someone on a
// shift directly, bypassing the application workflow. A nil
// replacedUserID creates an extra slot on top of the base crew.
func (h *Handler) CreateDirectAssignment(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ShiftDate        string  `json:"shiftDate" validate:"required"`
		ShiftType        string  `json:"shiftType" validate:"required,oneof=day night 24h"`
		TeamID           int64   `json:"teamID" validate:"required"`
		ReplacedUserID   *int64  `json:"replacedUserID"`
		AssigneeID       int64   `json:"assigneeID" validate:"required"`
		IsPartial        bool    `json:"isPartial"`
		StartTime        *string `json:"startTime"`
		EndTime          *string `json:"endTime"`
		ActingLieutenant bool    `json:"actingLieutenant"`
		ActingCaptain    bool    `json:"actingCaptain"`
		Force            bool    `json:"force"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	shiftDate, err := time.Parse(dateLayout, req.ShiftDate)
	if err != nil {
		h.errorResponse(w, r, "invalid shift date")
		return
	}
	shiftDate = roster.TruncateToDate(shiftDate)

	shift, err := h.repository.ShiftFor(r.Context(), req.TeamID, domain.ShiftType(req.ShiftType), shiftDate)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			h.errorResponse(w, r, "no such shift on this date")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	var iv *roster.Interval
	if req.IsPartial {
		if err := utils.ValidatePartialWindow(shift, req.StartTime, req.EndTime); err != nil {
			h.errorResponse(w, r, err.Error())
			return
		}
		parsed, err := roster.NewInterval(shift, *req.StartTime, *req.EndTime)
		if err != nil {
			h.errorResponse(w, r, err.Error())
			return
		}
		iv = &parsed
	}

	result, err := h.assigner.CreateDirectAssignment(r.Context(), roster.DirectAssignmentInput{
		Shift:            shift,
		Date:             shiftDate,
		ReplacedUserID:   req.ReplacedUserID,
		AssigneeID:       req.AssigneeID,
		Interval:         iv,
		ActingLieutenant: req.ActingLieutenant,
		ActingCaptain:    req.ActingCaptain,
		IsDirect:         true,
		Force:            req.Force,
	})
	if err != nil {
		switch {
		case errors.Is(err, roster.ErrMiddleInsertion):
			h.errorResponse(w, r, "the requested window splits existing coverage in the middle")
		case errors.Is(err, roster.ErrSlotFullyLayered):
			h.errorResponse(w, r, "both replacement slots are already taken, withdraw one first")
		case errors.Is(err, roster.ErrConflict):
			h.errorResponse(w, r, "the slot was modified concurrently, please retry")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}
	if result.HoursExceeded != nil {
		h.errorResponse(w, r, "the assignee would exceed the consecutive on-duty hours limit")
		return
	}

	_ = h.rosterCache.Invalidate(r.Context(), shiftDate)

	if actorID, err := h.currentUserID(r); err == nil {
		h.auditor.Record(r.Context(), actorID, "create", "assignments", result.Assignment.ID, nil, result.Assignment, "direct assignment")
	}

	h.successResponse(w, r, "assignment created", result.Assignment)
}

// WithdrawReplacementAssignment removes one replacement-order row.
// Whichever order is withdrawn, the surviving row takes back the
// shift's full window.
func (h *Handler) WithdrawReplacementAssignment(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ShiftID        int64  `json:"shiftID" validate:"required"`
		ShiftDate      string `json:"shiftDate" validate:"required"`
		ReplacedUserID int64  `json:"replacedUserID" validate:"required"`
		Order          int16  `json:"order" validate:"required,oneof=1 2"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	shiftDate, err := time.Parse(dateLayout, req.ShiftDate)
	if err != nil {
		h.errorResponse(w, r, "invalid shift date")
		return
	}
	shiftDate = roster.TruncateToDate(shiftDate)

	if err := h.repository.DeleteReplacement(r.Context(), req.ShiftID, shiftDate, req.ReplacedUserID, req.Order); err != nil {
		switch {
		case errors.Is(err, roster.ErrReplacementNotFound):
			h.errorResponse(w, r, "no replacement with that order on this slot")
		case errors.Is(err, roster.ErrConflict):
			h.errorResponse(w, r, "the slot was modified concurrently, please retry")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	_ = h.rosterCache.Invalidate(r.Context(), shiftDate)

	if actorID, err := h.currentUserID(r); err == nil {
		h.auditor.Record(r.Context(), actorID, "delete", "assignments", req.ShiftID, req, nil, "replacement withdrawn")
	}

	h.successResponse(w, r, "assignment withdrawn", nil)
}

func (h *Handler) GetAuditLog(w http.ResponseWriter, r *http.Request) {
	entries, err := h.repository.GetAuditEntries(200)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "audit log fetched", entries)
}
