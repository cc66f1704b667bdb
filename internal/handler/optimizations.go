package handler

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shiftcash-dev/shift-planner/backend/internal/domain"
	"github.com/shiftcash-dev/shift-planner/backend/internal/notifier"
	"github.com/shiftcash-dev/shift-planner/backend/internal/optimizer"
)

func (h *Handler) StartOptimization(w http.ResponseWriter, r *http.Request) {
	plan := r.Context().Value(PlanCtx).(*domain.Plan)
	myInfo := r.Context().Value(MyInfoCtx).(*domain.User)

	var req struct {
		PopulationSize    int                        `json:"populationSize"`
		Generations       int                        `json:"generations"`
		ManualConstraints *[]domain.ManualConstraint `json:"manualConstraints"`
		Seed              *int64                     `json:"seed"`
		Debug             bool                       `json:"debug"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	params := optimizer.DefaultParameters()
	if req.PopulationSize == 0 {
		req.PopulationSize = params.PopulationSize
	}
	if req.Generations == 0 {
		req.Generations = params.Generations
	}

	// 请求中的手动约束覆盖计划中的手动约束
	constraints := plan.ManualConstraints
	if req.ManualConstraints != nil {
		constraints = *req.ManualConstraints
	}

	cfg := domain.OptimizationConfig{
		StartingBalance:     plan.StartingBalance,
		TargetEndingBalance: plan.TargetEndingBalance,
		MinimumBalance:      plan.MinimumBalance,
		PopulationSize:      req.PopulationSize,
		Generations:         req.Generations,
		ManualConstraints:   constraints,
		Debug:               req.Debug,
	}

	run := &domain.OptimizationRun{
		PlanID: plan.ID,
		Status: domain.RunStatusPending,
		Config: cfg,
	}

	if err := h.repository.CreateOptimizationRun(run); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	// 不指定种子则每次运行都不同，指定种子可以完整复现一次运行
	seed := time.Now().UnixNano()
	if req.Seed != nil {
		seed = *req.Seed
	}

	input := optimizer.Input{
		Config:     cfg,
		Expenses:   plan.Expenses,
		Deposits:   plan.Deposits,
		ShiftTypes: plan.ShiftTypes,
	}

	// 先落库 running 再启动引擎：代数极少的任务可能在启动后立刻结束，
	// 终态由 Sink 写入，绝不允许被这里的 running 覆盖
	if err := h.repository.UpdateOptimizationRunStatus(run.ID, domain.RunStatusRunning, ""); err != nil {
		h.internalServerError(w, r, err)
		return
	}
	run.Status = domain.RunStatusRunning

	sink := h.notifier.SinkFor(plan, myInfo)
	if _, err := h.manager.Start(plan.ID, run.ID, input, params, optimizer.DefaultWeights(), seed, sink); err != nil {
		// 约束不可行之类的致命错误，状态已经由 Sink 置为 failed
		h.errorResponse(w, r, err.Error())
		return
	}

	h.successResponse(w, r, "优化任务已启动", run)
}

func (h *Handler) GetPlanOptimizations(w http.ResponseWriter, r *http.Request) {
	plan := r.Context().Value(PlanCtx).(*domain.Plan)

	runs, err := h.repository.GetOptimizationRunsByPlanID(plan.ID)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "获取优化任务列表成功", runs)
}

func (h *Handler) GetOptimizationRun(w http.ResponseWriter, r *http.Request) {
	run := r.Context().Value(RunCtx).(*domain.OptimizationRun)

	h.successResponse(w, r, "获取优化任务成功", run)
}

func (h *Handler) PauseOptimization(w http.ResponseWriter, r *http.Request) {
	run := r.Context().Value(RunCtx).(*domain.OptimizationRun)
	if run.Status.IsTerminal() {
		h.errorResponse(w, r, "优化任务已结束")
		return
	}

	engine, ok := h.manager.Get(run.ID)
	if !ok {
		h.errorResponse(w, r, "优化任务已结束")
		return
	}

	engine.Pause()
	h.successResponse(w, r, "暂停请求已发出", nil)
}

func (h *Handler) ResumeOptimization(w http.ResponseWriter, r *http.Request) {
	run := r.Context().Value(RunCtx).(*domain.OptimizationRun)
	if run.Status.IsTerminal() {
		h.errorResponse(w, r, "优化任务已结束")
		return
	}

	engine, ok := h.manager.Get(run.ID)
	if !ok {
		h.errorResponse(w, r, "优化任务已结束")
		return
	}

	engine.Resume()
	h.successResponse(w, r, "恢复请求已发出", nil)
}

func (h *Handler) CancelOptimization(w http.ResponseWriter, r *http.Request) {
	run := r.Context().Value(RunCtx).(*domain.OptimizationRun)
	if run.Status.IsTerminal() {
		h.errorResponse(w, r, "优化任务已结束")
		return
	}

	engine, ok := h.manager.Get(run.ID)
	if !ok {
		h.errorResponse(w, r, "优化任务已结束")
		return
	}

	engine.Cancel()
	h.successResponse(w, r, "取消请求已发出", nil)
}

func (h *Handler) GetOptimizationProgress(w http.ResponseWriter, r *http.Request) {
	run := r.Context().Value(RunCtx).(*domain.OptimizationRun)

	ctx, cancel := context.WithTimeout(r.Context(), time.Duration(h.config.Redis.OperationExpiration)*time.Minute)
	defer cancel()

	data, err := h.redisClient.Get(ctx, notifier.ProgressKey(run.ID)).Bytes()
	if err != nil {
		switch {
		case errors.Is(err, redis.Nil):
			h.successResponse(w, r, "暂无进度", nil)
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	var progress domain.OptimizationProgress
	if err := json.Unmarshal(data, &progress); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "获取进度成功", progress)
}

func (h *Handler) GetOptimizationResult(w http.ResponseWriter, r *http.Request) {
	run := r.Context().Value(RunCtx).(*domain.OptimizationRun)

	result, err := h.repository.GetOptimizationResultByRunID(run.ID)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			h.errorResponse(w, r, "优化结果不存在")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	h.successResponse(w, r, "获取优化结果成功", result)
}
