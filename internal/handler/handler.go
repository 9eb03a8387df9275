package handler

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
	"github.com/redis/go-redis/v9"

	"github.com/firehall-dev/duty-roster/backend/internal/audit"
	"github.com/firehall-dev/duty-roster/backend/internal/cache"
	"github.com/firehall-dev/duty-roster/backend/internal/config"
	"github.com/firehall-dev/duty-roster/backend/internal/domain"
	"github.com/firehall-dev/duty-roster/backend/internal/notifier"
	"github.com/firehall-dev/duty-roster/backend/internal/repository"
	"github.com/firehall-dev/duty-roster/backend/internal/roster"
)

type Handler struct {
	validate    *validator.Validate
	config      *config.Config
	repository  *repository.Repository
	translator  ut.Translator
	publisher   *notifier.Publisher
	redisClient *redis.Client
	rosterCache *cache.RosterCache
	assigner    *roster.Assigner
	coordinator *roster.Coordinator
	auditor     *audit.Sink

	Mux *chi.Mux
}

func NewHandler(cfg *config.Config, repo *repository.Repository, publisher *notifier.Publisher, rdb *redis.Client, auditor *audit.Sink) (*Handler, error) {
	validate := validator.New(validator.WithRequiredStructEnabled())
	enLocale := en.New()
	uni := ut.New(enLocale, enLocale)
	trans, _ := uni.GetTranslator("en")
	if err := en_translations.RegisterDefaultTranslations(validate, trans); err != nil {
		return nil, err
	}

	hours := roster.NewHoursChecker(repo, cfg.Roster.ConsecutiveHoursLimit)

	return &Handler{
		validate:    validate,
		config:      cfg,
		repository:  repo,
		translator:  trans,
		publisher:   publisher,
		redisClient: rdb,
		rosterCache: cache.NewRosterCache(cfg, rdb),
		assigner:    roster.NewAssigner(repo, hours),
		coordinator: roster.NewCoordinator(repo, hours, cfg.Roster.ExchangeWarnThreshold),
		auditor:     auditor,

		Mux: chi.NewRouter(),
	}, nil
}

func (h *Handler) RegisterRoutes() {
	h.Mux.Use(h.requestID)
	h.Mux.Use(h.logger)
	h.Mux.Use(h.recoverer)

	h.Mux.Route("/auth", func(r chi.Router) {
		r.Post("/login", h.Login)
		r.Post("/logout", h.Logout)
		r.Route("/reset-password", func(r chi.Router) {
			r.Post("/require", h.RequireResetPassword)
			r.Post("/confirm", h.ConfirmResetPassword)
		})
	})

	// Everything below requires a logged-in user.
	h.Mux.Group(func(r chi.Router) {
		r.Use(h.auth)

		r.Route("/my-info", func(r chi.Router) {
			r.Use(h.myInfo)
			r.Get("/", h.GetMyInfo)
			r.Patch("/password", h.UpdateMyPassword)
			r.Patch("/notify-channel", h.UpdateMyNotifyChannel)
		})

		r.Route("/users", func(r chi.Router) {
			r.With(h.RequiredRole([]domain.Role{domain.RoleAdmin})).Post("/", h.CreateUser)
			r.Get("/", h.GetAllUserInfo)
			r.Route("/{id}", func(r chi.Router) {
				r.Use(h.userInfo)
				r.Get("/", h.GetUserInfo)
				r.With(h.RequiredRole([]domain.Role{domain.RoleAdmin}), h.preventOperateInitialAdmin).Patch("/", h.UpdateUser)
				r.With(h.RequiredRole([]domain.Role{domain.RoleAdmin}), h.preventOperateInitialAdmin).Delete("/", h.DeleteUser)
			})
		})

		r.Route("/teams", func(r chi.Router) {
			r.With(h.RequiredRole([]domain.Role{domain.RoleAdmin})).Post("/", h.CreateTeam)
			r.Get("/", h.GetAllTeams)
			r.Get("/{id}/members", h.GetTeamMembers)
		})

		r.Route("/cycle-configs", func(r chi.Router) {
			r.Get("/active", h.GetActiveCycleConfig)
			r.With(h.RequiredRole([]domain.Role{domain.RoleAdmin})).Post("/", h.CreateCycleConfig)
		})

		r.Route("/shifts", func(r chi.Router) {
			r.With(h.RequiredRole([]domain.Role{domain.RoleAdmin, domain.RoleCommander})).Post("/", h.CreateShift)
			r.Get("/", h.GetShifts)
			r.With(h.RequiredRole([]domain.Role{domain.RoleAdmin, domain.RoleCommander})).Patch("/{id}", h.UpdateShift)
			r.With(h.RequiredRole([]domain.Role{domain.RoleAdmin, domain.RoleCommander})).Delete("/{id}", h.DeleteShift)
		})

		r.Get("/roster/{date}", h.GetDayRoster)

		r.Route("/replacements", func(r chi.Router) {
			r.Post("/", h.CreateReplacement)
			r.Get("/", h.GetReplacements)
			r.Route("/{id}", func(r chi.Router) {
				r.Delete("/", h.CancelReplacement)
				r.Post("/applications", h.ApplyForReplacement)
				r.Get("/applications", h.GetReplacementApplications)
			})
		})

		r.Route("/applications/{id}", func(r chi.Router) {
			r.With(h.RequiredRole([]domain.Role{domain.RoleAdmin, domain.RoleCommander})).Post("/approve", h.ApproveApplication)
			r.With(h.RequiredRole([]domain.Role{domain.RoleAdmin, domain.RoleCommander})).Post("/reject", h.RejectApplication)
		})

		r.Route("/assignments", func(r chi.Router) {
			r.With(h.RequiredRole([]domain.Role{domain.RoleAdmin, domain.RoleCommander})).Post("/", h.CreateDirectAssignment)
			r.With(h.RequiredRole([]domain.Role{domain.RoleAdmin, domain.RoleCommander})).Delete("/", h.WithdrawReplacementAssignment)
		})

		r.Route("/exchanges", func(r chi.Router) {
			r.Post("/", h.CreateExchange)
			r.Get("/", h.GetMyExchanges)
			r.With(h.RequiredRole([]domain.Role{domain.RoleAdmin, domain.RoleCommander})).Get("/pending", h.GetPendingExchanges)
			r.Route("/{id}", func(r chi.Router) {
				r.With(h.RequiredRole([]domain.Role{domain.RoleAdmin, domain.RoleCommander})).Post("/approve", h.ApproveExchange)
				r.With(h.RequiredRole([]domain.Role{domain.RoleAdmin, domain.RoleCommander})).Post("/reject", h.RejectExchange)
				r.With(h.RequiredRole([]domain.Role{domain.RoleAdmin})).Post("/cancel", h.CancelExchange)
			})
		})

		r.With(h.RequiredRole([]domain.Role{domain.RoleAdmin})).Get("/audit-log", h.GetAuditLog)
	})
}
