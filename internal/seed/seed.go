package seed

import (
	"log/slog"

	"github.com/shiftcash-dev/shift-planner/backend/internal/domain"
	"github.com/shiftcash-dev/shift-planner/backend/internal/repository"
)

func float64Ptr(v float64) *float64 { return &v }

// SeedDemoData 为指定用户插入一个贴近真实月度现金流的演示计划
// 数据的形状参考了一个典型的学生月度开销：月初房租、月中话费、分散的伙食费，月末一笔兼职入账
func SeedDemoData(r *repository.Repository, ownerID int64) {
	plan := &domain.Plan{
		OwnerID:             ownerID,
		Name:                "演示计划",
		Description:         "一个典型的月度现金流计划，用于演示优化引擎的效果",
		StartingBalance:     1500,
		TargetEndingBalance: 2000,
		MinimumBalance:      300,
		Expenses: []domain.Expense{
			{Day: 1, Name: "房租", Amount: 800},
			{Day: 5, Name: "水电费", Amount: 120},
			{Day: 10, Name: "话费", Amount: 58},
			{Day: 8, Name: "伙食费", Amount: 200},
			{Day: 16, Name: "伙食费", Amount: 200},
			{Day: 24, Name: "伙食费", Amount: 200},
			{Day: 20, Name: "日用品", Amount: 90},
		},
		Deposits: []domain.Deposit{
			{Day: 25, Name: "兼职收入", Amount: 400},
		},
		ShiftTypes: domain.DefaultShiftTypes(),
		ManualConstraints: []domain.ManualConstraint{
			{Day: 15, Shifts: &[]string{}}, // 15 号有事，强制休息
			{Day: 30, Balance: float64Ptr(2000)},
		},
	}

	if err := r.CreatePlan(plan); err != nil {
		slog.Error("插入演示计划失败", "error", err)
		return
	}

	slog.Info("插入演示计划完成", "planID", plan.ID)
}
