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

func (h *Handler) CreateReplacement(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ShiftDate           string  `json:"shiftDate" validate:"required"`
		ShiftType           string  `json:"shiftType" validate:"required,oneof=day night 24h"`
		TeamID              int64   `json:"teamID" validate:"required"`
		OriginalUserID      *int64  `json:"originalUserID"`
		IsPartial           bool    `json:"isPartial"`
		StartTime           *string `json:"startTime"`
		EndTime             *string `json:"endTime"`
		ApplicationDeadline string  `json:"applicationDeadline" validate:"required"`
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

	deadline, err := time.Parse(time.RFC3339, req.ApplicationDeadline)
	if err != nil {
		h.errorResponse(w, r, "invalid application deadline")
		return
	}
	if err := utils.ValidateApplicationDeadline(deadline, shiftDate); err != nil {
		h.errorResponse(w, r, err.Error())
		return
	}

	// The shift must actually run on this date.
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

	if req.IsPartial {
		if err := utils.ValidatePartialWindow(shift, req.StartTime, req.EndTime); err != nil {
			h.errorResponse(w, r, err.Error())
			return
		}
	}

	rep := &domain.Replacement{
		ShiftDate:           shiftDate,
		ShiftType:           domain.ShiftType(req.ShiftType),
		TeamID:              req.TeamID,
		OriginalUserID:      req.OriginalUserID,
		IsPartial:           req.IsPartial,
		StartTime:           req.StartTime,
		EndTime:             req.EndTime,
		ApplicationDeadline: deadline,
	}
	if err := h.repository.CreateReplacement(rep); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	if actorID, err := h.currentUserID(r); err == nil {
		h.auditor.Record(r.Context(), actorID, "create", "replacements", rep.ID, nil, rep, "replacement opened")
	}

	h.successResponse(w, r, "replacement opened", rep)
}

func (h *Handler) GetReplacements(w http.ResponseWriter, r *http.Request) {
	status := domain.ReplacementStatus(r.URL.Query().Get("status"))
	if status == "" {
		status = domain.ReplacementOpen
	}

	reps, err := h.repository.GetReplacementsByStatus(status)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "replacements fetched", reps)
}

func (h *Handler) CancelReplacement(w http.ResponseWriter, r *http.Request) {
	rep, ok := h.loadReplacement(w, r)
	if !ok {
		return
	}

	actorID, err := h.currentUserID(r)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	isOwner := rep.OriginalUserID != nil && *rep.OriginalUserID == actorID
	if !isOwner && h.currentRole(r) == domain.RoleFirefighter {
		h.errorResponse(w, r, "insufficient permissions")
		return
	}

	if err := h.repository.CancelReplacement(rep.ID, rep.Version); err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			h.errorResponse(w, r, "the replacement is no longer open")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	h.auditor.Record(r.Context(), actorID, "cancel", "replacements", rep.ID, rep, nil, "replacement cancelled")

	h.successResponse(w, r, "replacement cancelled", nil)
}

func (h *Handler) ApplyForReplacement(w http.ResponseWriter, r *http.Request) {
	rep, ok := h.loadReplacement(w, r)
	if !ok {
		return
	}

	if rep.Status != domain.ReplacementOpen {
		h.errorResponse(w, r, "the replacement is no longer open")
		return
	}
	if time.Now().After(rep.ApplicationDeadline) {
		h.errorResponse(w, r, "the application deadline has passed")
		return
	}

	applicantID, err := h.currentUserID(r)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}
	if rep.OriginalUserID != nil && *rep.OriginalUserID == applicantID {
		h.errorResponse(w, r, "cannot apply to cover your own shift")
		return
	}

	app := &domain.ReplacementApplication{
		ReplacementID: rep.ID,
		ApplicantID:   applicantID,
	}
	if err := h.repository.CreateApplication(app); err != nil {
		switch {
		case errors.Is(err, roster.ErrConflict):
			h.errorResponse(w, r, "you have already applied")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	h.successResponse(w, r, "application submitted", app)
}

func (h *Handler) GetReplacementApplications(w http.ResponseWriter, r *http.Request) {
	rep, ok := h.loadReplacement(w, r)
	if !ok {
		return
	}

	apps, err := h.repository.GetApplicationsByReplacement(rep.ID)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "applications fetched", apps)
}

// ApproveApplication turns an accepted application into assignment
// rows. The overlap resolver decides how the new coverage layers onto
// anything already covering the same person, and the consecutive-hours
// guard can refuse the applicant unless force is set.
func (h *Handler) ApproveApplication(w http.ResponseWriter, r *http.Request) {
	app, ok := h.loadApplication(w, r)
	if !ok {
		return
	}
	if app.Status != domain.ApplicationPending {
		h.errorResponse(w, r, "the application is not pending")
		return
	}

	rep, err := h.repository.GetReplacementByID(app.ReplacementID)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}
	if rep.Status != domain.ReplacementOpen {
		h.errorResponse(w, r, "the replacement is no longer open")
		return
	}

	shift, err := h.repository.ShiftFor(r.Context(), rep.TeamID, rep.ShiftType, rep.ShiftDate)
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
	if rep.IsPartial {
		parsed, err := roster.NewInterval(shift, *rep.StartTime, *rep.EndTime)
		if err != nil {
			h.errorResponse(w, r, err.Error())
			return
		}
		iv = &parsed
	}

	force := r.URL.Query().Get("force") == "true"

	result, err := h.assigner.CreateDirectAssignment(r.Context(), roster.DirectAssignmentInput{
		Shift:          shift,
		Date:           rep.ShiftDate,
		ReplacedUserID: rep.OriginalUserID,
		AssigneeID:     app.ApplicantID,
		Interval:       iv,
		Force:          force,
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
		h.errorResponse(w, r, "the applicant would exceed the consecutive on-duty hours limit")
		return
	}

	if err := h.repository.ApproveApplication(r.Context(), app); err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			h.errorResponse(w, r, "the application was modified concurrently, please retry")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	_ = h.rosterCache.Invalidate(r.Context(), rep.ShiftDate)

	h.notifyApplicant(r, app, rep)

	if actorID, err := h.currentUserID(r); err == nil {
		h.auditor.Record(r.Context(), actorID, "approve", "replacement_applications", app.ID, nil, result.Assignment, "application approved")
	}

	h.successResponse(w, r, "application approved", result.Assignment)
}

func (h *Handler) RejectApplication(w http.ResponseWriter, r *http.Request) {
	app, ok := h.loadApplication(w, r)
	if !ok {
		return
	}

	if err := h.repository.RejectApplication(app); err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			h.errorResponse(w, r, "the application is not pending")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	h.successResponse(w, r, "application rejected", app)
}

func (h *Handler) notifyApplicant(r *http.Request, app *domain.ReplacementApplication, rep *domain.Replacement) {
	applicant, err := h.repository.GetUserByID(app.ApplicantID)
	if err != nil {
		h.logInternalServerError(r, err)
		return
	}

	data := domain.ReplacementAssignedData{
		FullName:  applicant.FullName,
		ShiftDate: rep.ShiftDate.Format(dateLayout),
		ShiftType: string(rep.ShiftType),
	}
	if rep.IsPartial {
		data.StartTime = *rep.StartTime
		data.EndTime = *rep.EndTime
	}

	if err := h.publisher.NotifyUser(applicant, "replacement_assigned", data); err != nil {
		h.logInternalServerError(r, err)
	}
}

func (h *Handler) loadReplacement(w http.ResponseWriter, r *http.Request) (*domain.Replacement, bool) {
	idParam := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(idParam, 10, 64)
	if err != nil {
		h.errorResponse(w, r, "invalid replacement id")
		return nil, false
	}

	rep, err := h.repository.GetReplacementByID(id)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			h.errorResponse(w, r, "replacement not found")
		default:
			h.internalServerError(w, r, err)
		}
		return nil, false
	}

	return rep, true
}

func (h *Handler) loadApplication(w http.ResponseWriter, r *http.Request) (*domain.ReplacementApplication, bool) {
	idParam := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(idParam, 10, 64)
	if err != nil {
		h.errorResponse(w, r, "invalid application id")
		return nil, false
	}

	app, err := h.repository.GetApplicationByID(id)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			h.errorResponse(w, r, "application not found")
		default:
			h.internalServerError(w, r, err)
		}
		return nil, false
	}

	return app, true
}
