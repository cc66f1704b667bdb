package handler

import (
	"errors"
	"net/http"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shiftcash-dev/shift-planner/backend/internal/domain"
	"github.com/shiftcash-dev/shift-planner/backend/internal/utils"
)

func (h *Handler) CreatePlan(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name                string                    `json:"name" validate:"required"`
		Description         string                    `json:"description"`
		StartingBalance     float64                   `json:"startingBalance"`
		TargetEndingBalance float64                   `json:"targetEndingBalance"`
		MinimumBalance      float64                   `json:"minimumBalance"`
		Expenses            []domain.Expense          `json:"expenses"`
		Deposits            []domain.Deposit          `json:"deposits"`
		ShiftTypes          domain.ShiftTypeTable     `json:"shiftTypes"`
		ManualConstraints   []domain.ManualConstraint `json:"manualConstraints"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	myInfo := r.Context().Value(MyInfoCtx).(*domain.User)

	plan := &domain.Plan{
		OwnerID:             myInfo.ID,
		Name:                req.Name,
		Description:         req.Description,
		StartingBalance:     req.StartingBalance,
		TargetEndingBalance: req.TargetEndingBalance,
		MinimumBalance:      req.MinimumBalance,
		Expenses:            req.Expenses,
		Deposits:            req.Deposits,
		ShiftTypes:          req.ShiftTypes,
		ManualConstraints:   req.ManualConstraints,
	}
	if plan.Expenses == nil {
		plan.Expenses = []domain.Expense{}
	}
	if plan.Deposits == nil {
		plan.Deposits = []domain.Deposit{}
	}
	if plan.ShiftTypes == nil {
		plan.ShiftTypes = domain.DefaultShiftTypes()
	}
	if plan.ManualConstraints == nil {
		plan.ManualConstraints = []domain.ManualConstraint{}
	}

	// 检查计划的各个数据表是否合法
	if err := utils.ValidatePlanTables(plan); err != nil {
		h.badRequest(w, r, err)
		return
	}

	// 插入数据到数据库中
	if err := h.repository.CreatePlan(plan); err != nil {
		var pgErr *pgconn.PgError
		switch {
		case errors.As(err, &pgErr):
			switch pgErr.ConstraintName {
			case "plans_owner_id_name_key":
				h.errorResponse(w, r, "计划名称已存在")
			default:
				h.internalServerError(w, r, err)
			}
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	h.successResponse(w, r, "创建计划成功", plan)
}

func (h *Handler) GetPlanByID(w http.ResponseWriter, r *http.Request) {
	plan := r.Context().Value(PlanCtx).(*domain.Plan)

	h.successResponse(w, r, "获取计划成功", plan)
}

func (h *Handler) GetAllMyPlans(w http.ResponseWriter, r *http.Request) {
	myInfo := r.Context().Value(MyInfoCtx).(*domain.User)

	plans, err := h.repository.GetAllPlansByOwnerID(myInfo.ID)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "获取计划列表成功", plans)
}

func (h *Handler) UpdatePlan(w http.ResponseWriter, r *http.Request) {
	plan := r.Context().Value(PlanCtx).(*domain.Plan)

	var req struct {
		Name                *string                    `json:"name"`
		Description         *string                    `json:"description"`
		StartingBalance     *float64                   `json:"startingBalance"`
		TargetEndingBalance *float64                   `json:"targetEndingBalance"`
		MinimumBalance      *float64                   `json:"minimumBalance"`
		Expenses            *[]domain.Expense          `json:"expenses"`
		Deposits            *[]domain.Deposit          `json:"deposits"`
		ShiftTypes          *domain.ShiftTypeTable     `json:"shiftTypes"`
		ManualConstraints   *[]domain.ManualConstraint `json:"manualConstraints"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	// 将输入的参数解析到 plan 中
	if req.Name != nil {
		plan.Name = *req.Name
	}
	if req.Description != nil {
		plan.Description = *req.Description
	}
	if req.StartingBalance != nil {
		plan.StartingBalance = *req.StartingBalance
	}
	if req.TargetEndingBalance != nil {
		plan.TargetEndingBalance = *req.TargetEndingBalance
	}
	if req.MinimumBalance != nil {
		plan.MinimumBalance = *req.MinimumBalance
	}
	if req.Expenses != nil {
		plan.Expenses = *req.Expenses
	}
	if req.Deposits != nil {
		plan.Deposits = *req.Deposits
	}
	if req.ShiftTypes != nil {
		plan.ShiftTypes = *req.ShiftTypes
	}
	if req.ManualConstraints != nil {
		plan.ManualConstraints = *req.ManualConstraints
	}

	// 检查计划的各个数据表是否合法
	if err := utils.ValidatePlanTables(plan); err != nil {
		h.badRequest(w, r, err)
		return
	}

	// 更新计划
	if err := h.repository.UpdatePlan(plan); err != nil {
		var pgErr *pgconn.PgError
		switch {
		case errors.As(err, &pgErr):
			switch pgErr.ConstraintName {
			case "plans_owner_id_name_key":
				h.errorResponse(w, r, "计划名称已存在")
			default:
				h.internalServerError(w, r, err)
			}
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	h.successResponse(w, r, "更新计划成功", plan)
}

func (h *Handler) DeletePlan(w http.ResponseWriter, r *http.Request) {
	plan := r.Context().Value(PlanCtx).(*domain.Plan)

	if err := h.repository.DeletePlan(plan.ID); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "删除计划成功", nil)
}
