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

func (h *Handler) CreateExchange(w http.ResponseWriter, r *http.Request) {
	var req struct {
		TargetID           int64   `json:"targetID" validate:"required"`
		RequesterShiftDate string  `json:"requesterShiftDate" validate:"required"`
		RequesterShiftType string  `json:"requesterShiftType" validate:"required,oneof=day night 24h"`
		RequesterTeamID    int64   `json:"requesterTeamID" validate:"required"`
		TargetShiftDate    string  `json:"targetShiftDate" validate:"required"`
		TargetShiftType    string  `json:"targetShiftType" validate:"required,oneof=day night 24h"`
		TargetTeamID       int64   `json:"targetTeamID" validate:"required"`
		IsPartial          bool    `json:"isPartial"`
		RequesterStartTime *string `json:"requesterStartTime"`
		RequesterEndTime   *string `json:"requesterEndTime"`
		TargetStartTime    *string `json:"targetStartTime"`
		TargetEndTime      *string `json:"targetEndTime"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	requesterID, err := h.currentUserID(r)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	reqDate, err := time.Parse(dateLayout, req.RequesterShiftDate)
	if err != nil {
		h.errorResponse(w, r, "invalid requester shift date")
		return
	}
	tgtDate, err := time.Parse(dateLayout, req.TargetShiftDate)
	if err != nil {
		h.errorResponse(w, r, "invalid target shift date")
		return
	}

	ex := &domain.ShiftExchange{
		RequesterID:        requesterID,
		TargetID:           req.TargetID,
		RequesterShiftDate: roster.TruncateToDate(reqDate),
		RequesterShiftType: domain.ShiftType(req.RequesterShiftType),
		RequesterTeamID:    req.RequesterTeamID,
		TargetShiftDate:    roster.TruncateToDate(tgtDate),
		TargetShiftType:    domain.ShiftType(req.TargetShiftType),
		TargetTeamID:       req.TargetTeamID,
		IsPartial:          req.IsPartial,
		RequesterStartTime: req.RequesterStartTime,
		RequesterEndTime:   req.RequesterEndTime,
		TargetStartTime:    req.TargetStartTime,
		TargetEndTime:      req.TargetEndTime,
	}
	if err := utils.ValidateExchangeRequest(ex); err != nil {
		h.errorResponse(w, r, err.Error())
		return
	}

	// Both named shift instances must exist on their dates.
	reqShift, err := h.repository.ShiftFor(r.Context(), ex.RequesterTeamID, ex.RequesterShiftType, ex.RequesterShiftDate)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			h.errorResponse(w, r, "the requester's shift does not run on that date")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}
	tgtShift, err := h.repository.ShiftFor(r.Context(), ex.TargetTeamID, ex.TargetShiftType, ex.TargetShiftDate)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			h.errorResponse(w, r, "the target's shift does not run on that date")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	if ex.IsPartial {
		if err := utils.ValidatePartialWindow(reqShift, ex.RequesterStartTime, ex.RequesterEndTime); err != nil {
			h.errorResponse(w, r, err.Error())
			return
		}
		if err := utils.ValidatePartialWindow(tgtShift, ex.TargetStartTime, ex.TargetEndTime); err != nil {
			h.errorResponse(w, r, err.Error())
			return
		}
	}

	if err := h.repository.CreateExchange(ex); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.auditor.Record(r.Context(), requesterID, "create", "shift_exchanges", ex.ID, nil, ex, "exchange requested")

	h.successResponse(w, r, "exchange requested", ex)
}

func (h *Handler) GetMyExchanges(w http.ResponseWriter, r *http.Request) {
	userID, err := h.currentUserID(r)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	exchanges, err := h.repository.GetExchangesByUser(userID)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "exchanges fetched", exchanges)
}

func (h *Handler) GetPendingExchanges(w http.ResponseWriter, r *http.Request) {
	exchanges, err := h.repository.GetExchangesByStatus(domain.ExchangePending)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "exchanges fetched", exchanges)
}

// ApproveExchange applies the two-person swap atomically. The response
// carries soft warnings for parties closing in on their yearly
// exchange allowance.
func (h *Handler) ApproveExchange(w http.ResponseWriter, r *http.Request) {
	exchangeID, ok := h.exchangeID(w, r)
	if !ok {
		return
	}

	approverID, err := h.currentUserID(r)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	force := r.URL.Query().Get("force") == "true"

	outcome, err := h.coordinator.Approve(r.Context(), exchangeID, approverID, force)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			h.errorResponse(w, r, "exchange not found")
		case errors.Is(err, roster.ErrExchangeNotPending):
			h.errorResponse(w, r, "the exchange is not pending")
		case errors.Is(err, roster.ErrConflict):
			h.errorResponse(w, r, "the exchange was modified concurrently, please retry")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}
	if outcome.Exceeded != nil {
		h.errorResponse(w, r, "a party would exceed the consecutive on-duty hours limit")
		return
	}

	ex, err := h.repository.ExchangeByID(r.Context(), exchangeID)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	_ = h.rosterCache.Invalidate(r.Context(), ex.RequesterShiftDate, ex.TargetShiftDate)

	h.notifyExchangeParties(r, ex, "approved")

	h.auditor.Record(r.Context(), approverID, "approve", "shift_exchanges", ex.ID, nil, ex, "exchange approved")

	h.successResponse(w, r, "exchange approved", outcome)
}

func (h *Handler) RejectExchange(w http.ResponseWriter, r *http.Request) {
	exchangeID, ok := h.exchangeID(w, r)
	if !ok {
		return
	}

	ex, err := h.repository.ExchangeByID(r.Context(), exchangeID)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			h.errorResponse(w, r, "exchange not found")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	if err := h.repository.RejectExchange(ex.ID, ex.Version); err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			h.errorResponse(w, r, "the exchange is not pending")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	h.notifyExchangeParties(r, ex, "rejected")

	h.successResponse(w, r, "exchange rejected", nil)
}

// CancelExchange reverts an approved swap exactly. If the swapped rows
// were modified after approval the revert aborts and nothing changes.
func (h *Handler) CancelExchange(w http.ResponseWriter, r *http.Request) {
	exchangeID, ok := h.exchangeID(w, r)
	if !ok {
		return
	}

	actorID, err := h.currentUserID(r)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	err = h.coordinator.Cancel(r.Context(), exchangeID, actorID)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			h.errorResponse(w, r, "exchange not found")
		case errors.Is(err, roster.ErrExchangeNotApproved):
			h.errorResponse(w, r, "the exchange is not approved")
		case errors.Is(err, roster.ErrSwapStateDrift):
			h.errorResponse(w, r, "the swapped assignments were modified after approval, cancellation aborted")
		case errors.Is(err, roster.ErrConflict):
			h.errorResponse(w, r, "the exchange was modified concurrently, please retry")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	ex, err := h.repository.ExchangeByID(r.Context(), exchangeID)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	_ = h.rosterCache.Invalidate(r.Context(), ex.RequesterShiftDate, ex.TargetShiftDate)

	h.notifyExchangeParties(r, ex, "cancelled")

	h.auditor.Record(r.Context(), actorID, "cancel", "shift_exchanges", ex.ID, nil, ex, "exchange cancelled")

	h.successResponse(w, r, "exchange cancelled", nil)
}

func (h *Handler) exchangeID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	idParam := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(idParam, 10, 64)
	if err != nil {
		h.errorResponse(w, r, "invalid exchange id")
		return 0, false
	}
	return id, true
}

func (h *Handler) notifyExchangeParties(r *http.Request, ex *domain.ShiftExchange, decision string) {
	parties := []struct {
		userID    int64
		shiftDate time.Time
		shiftType domain.ShiftType
	}{
		{ex.RequesterID, ex.TargetShiftDate, ex.TargetShiftType},
		{ex.TargetID, ex.RequesterShiftDate, ex.RequesterShiftType},
	}

	for _, p := range parties {
		user, err := h.repository.GetUserByID(p.userID)
		if err != nil {
			h.logInternalServerError(r, err)
			continue
		}

		data := domain.ExchangeDecisionData{
			FullName:  user.FullName,
			Decision:  decision,
			ShiftDate: p.shiftDate.Format(dateLayout),
			ShiftType: string(p.shiftType),
		}
		if err := h.publisher.NotifyUser(user, "exchange_decision", data); err != nil {
			h.logInternalServerError(r, err)
		}
	}
}
