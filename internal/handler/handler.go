package handler

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/locales/zh"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	zh_translations "github.com/go-playground/validator/v10/translations/zh"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"github.com/shiftcash-dev/shift-planner/backend/internal/config"
	"github.com/shiftcash-dev/shift-planner/backend/internal/domain"
	"github.com/shiftcash-dev/shift-planner/backend/internal/notifier"
	"github.com/shiftcash-dev/shift-planner/backend/internal/optimizer"
	"github.com/shiftcash-dev/shift-planner/backend/internal/repository"
)

type Handler struct {
	validate      *validator.Validate
	config        *config.Config
	repository    *repository.Repository
	translator    ut.Translator
	notifyChannel *amqp.Channel
	redisClient   *redis.Client
	manager       *optimizer.Manager
	notifier      *notifier.Notifier

	Mux *chi.Mux
}

func NewHandler(cfg *config.Config, repo *repository.Repository, notifyCh *amqp.Channel, rdb *redis.Client, manager *optimizer.Manager, ntf *notifier.Notifier) (*Handler, error) {
	validate := validator.New(validator.WithRequiredStructEnabled())
	zh := zh.New()
	uni := ut.New(zh, zh)
	trans, _ := uni.GetTranslator("zh")
	if err := zh_translations.RegisterDefaultTranslations(validate, trans); err != nil {
		return nil, err
	}

	return &Handler{
		validate:      validate,
		config:        cfg,
		repository:    repo,
		translator:    trans,
		notifyChannel: notifyCh,
		redisClient:   rdb,
		manager:       manager,
		notifier:      ntf,

		Mux: chi.NewRouter(),
	}, nil
}

func (h *Handler) RegisterRoutes() {
	h.Mux.Use(h.logger)
	h.Mux.Use(h.recoverer)

	// 认证相关
	h.Mux.Route("/auth", func(r chi.Router) {
		r.Post("/login", h.Login)
		r.Post("/logout", h.Logout)
	})

	// 以下 API 必须要在登录后才允许调用
	h.Mux.Group(func(r chi.Router) {
		r.Use(h.auth)
		r.Route("/my-info", func(r chi.Router) {
			r.Use(h.myInfo)
			r.Get("/", h.GetMyInfo)
			r.Patch("/password", h.UpdateMyPassword)
		})

		r.Route("/users", func(r chi.Router) {
			r.With(h.RequiredRole([]domain.Role{domain.RoleAdmin})).Post("/", h.CreateUser)
			r.With(h.RequiredRole([]domain.Role{domain.RoleAdmin})).Get("/", h.GetAllUserInfo)
			r.Route("/{id}", func(r chi.Router) {
				r.Use(h.userInfo)
				r.Get("/", h.GetUserInfo)
				r.With(h.preventOperateInitialAdmin).With(h.RequiredRole([]domain.Role{domain.RoleAdmin})).Patch("/", h.UpdateUser)
				r.With(h.preventOperateInitialAdmin).With(h.RequiredRole([]domain.Role{domain.RoleAdmin})).Delete("/", h.DeleteUser)
				r.With(h.RequiredRole([]domain.Role{domain.RoleAdmin})).Patch("/password", h.UpdateUserPassword)
			})
		})

		r.Route("/plans", func(r chi.Router) {
			r.Use(h.myInfo)
			r.Post("/", h.CreatePlan)
			r.Get("/", h.GetAllMyPlans)
			r.Route("/{id}", func(r chi.Router) {
				r.Use(h.plan)
				r.Get("/", h.GetPlanByID)
				r.Patch("/", h.UpdatePlan)
				r.Delete("/", h.DeletePlan)
				r.Route("/optimizations", func(r chi.Router) {
					r.Post("/", h.StartOptimization)
					r.Get("/", h.GetPlanOptimizations)
				})
			})
		})

		r.Route("/optimizations/{id}", func(r chi.Router) {
			r.Use(h.myInfo)
			r.Use(h.optimizationRun)
			r.Get("/", h.GetOptimizationRun)
			r.Post("/pause", h.PauseOptimization)
			r.Post("/resume", h.ResumeOptimization)
			r.Post("/cancel", h.CancelOptimization)
			r.Get("/progress", h.GetOptimizationProgress)
			r.Get("/result", h.GetOptimizationResult)
		})
	})
}
