package handler

import (
	"database/sql"
	"errors"
	"net/http"

	"golang.org/x/crypto/bcrypt"

	"github.com/firehall-dev/duty-roster/backend/internal/domain"
	"github.com/firehall-dev/duty-roster/backend/internal/utils"
)

func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username" validate:"required"`
		FullName string `json:"fullName" validate:"required"`
		Email    string `json:"email" validate:"required,email"`
		Role     string `json:"role" validate:"required,oneof=firefighter commander admin"`
		TeamID   *int64 `json:"teamID"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	password := utils.GenerateRandomPassword(h.config.NewUser.PasswordLength)
	passwordHash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	user := &domain.User{
		Username:      req.Username,
		PasswordHash:  string(passwordHash),
		FullName:      req.FullName,
		Email:         req.Email,
		Role:          domain.Role(req.Role),
		TeamID:        req.TeamID,
		NotifyChannel: domain.NotifyByEmail,
	}

	if err := h.repository.CreateUser(user); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	data := domain.CreateUserData{
		FullName: req.FullName,
		Username: req.Username,
		Password: password,
	}
	if err := h.publisher.NotifyUser(user, "create_user", data); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	if actorID, err := h.currentUserID(r); err == nil {
		h.auditor.Record(r.Context(), actorID, "create", "users", user.ID, nil, user, "user created")
	}

	h.successResponse(w, r, "user created", user)
}

func (h *Handler) GetUserInfo(w http.ResponseWriter, r *http.Request) {
	user := r.Context().Value(UserInfoCtx).(*domain.User)
	h.successResponse(w, r, "user fetched", user)
}

func (h *Handler) GetAllUserInfo(w http.ResponseWriter, r *http.Request) {
	users, err := h.repository.GetAllUsers()
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "users fetched", users)
}

func (h *Handler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	var req struct {
		FullName *string `json:"fullName"`
		Email    *string `json:"email" validate:"omitempty,email"`
		Role     *string `json:"role" validate:"omitempty,oneof=firefighter commander admin"`
		TeamID   *int64  `json:"teamID"`
		IsActive *bool   `json:"isActive"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	user := r.Context().Value(UserInfoCtx).(*domain.User)
	before := *user

	if req.FullName != nil {
		user.FullName = *req.FullName
	}
	if req.Email != nil {
		user.Email = *req.Email
	}
	if req.Role != nil {
		user.Role = domain.Role(*req.Role)
	}
	if req.TeamID != nil {
		user.TeamID = req.TeamID
	}
	if req.IsActive != nil {
		user.IsActive = *req.IsActive
	}

	if err := h.repository.UpdateUser(user); err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			h.errorResponse(w, r, "the user was modified concurrently, please retry")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	if actorID, err := h.currentUserID(r); err == nil {
		h.auditor.Record(r.Context(), actorID, "update", "users", user.ID, &before, user, "user updated")
	}

	h.successResponse(w, r, "user updated", user)
}

func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	user := r.Context().Value(UserInfoCtx).(*domain.User)

	if err := h.repository.DeleteUser(user.ID); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	if actorID, err := h.currentUserID(r); err == nil {
		h.auditor.Record(r.Context(), actorID, "delete", "users", user.ID, user, nil, "user deleted")
	}

	h.successResponse(w, r, "user deleted", nil)
}
