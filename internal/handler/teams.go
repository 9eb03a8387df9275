package handler

import (
	"database/sql"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/firehall-dev/duty-roster/backend/internal/domain"
)

func (h *Handler) CreateTeam(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name" validate:"required"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	team := &domain.Team{Name: req.Name}
	if err := h.repository.CreateTeam(team); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "team created", team)
}

func (h *Handler) GetAllTeams(w http.ResponseWriter, r *http.Request) {
	teams, err := h.repository.GetAllTeams()
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "teams fetched", teams)
}

func (h *Handler) GetTeamMembers(w http.ResponseWriter, r *http.Request) {
	teamIDParam := chi.URLParam(r, "id")
	teamID, err := strconv.ParseInt(teamIDParam, 10, 64)
	if err != nil {
		h.errorResponse(w, r, "invalid team id")
		return
	}

	if _, err := h.repository.GetTeamByID(teamID); err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			h.errorResponse(w, r, "team not found")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	members, err := h.repository.GetTeamMembers(teamID)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "team members fetched", members)
}
