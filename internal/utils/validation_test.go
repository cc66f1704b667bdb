package utils

import (
	"testing"

	"github.com/shiftcash-dev/shift-planner/backend/internal/domain"
	"github.com/stretchr/testify/require"
)

func validPlan() *domain.Plan {
	balance := 800.0
	rest := []string{}
	return &domain.Plan{
		OwnerID:             1,
		Name:                "测试计划",
		StartingBalance:     1000,
		TargetEndingBalance: 1500,
		MinimumBalance:      300,
		Expenses: []domain.Expense{
			{Day: 1, Name: "房租", Amount: 500},
		},
		Deposits: []domain.Deposit{
			{Day: 20, Name: "工资", Amount: 300},
		},
		ShiftTypes: domain.DefaultShiftTypes(),
		ManualConstraints: []domain.ManualConstraint{
			{Day: 10, Shifts: &rest},
			{Day: 30, Balance: &balance},
		},
	}
}

func TestValidatePlanTables(t *testing.T) {
	require.NoError(t, ValidatePlanTables(validPlan()))
}

func TestValidatePlanTablesRejectsEmptyShiftTypes(t *testing.T) {
	plan := validPlan()
	plan.ShiftTypes = domain.ShiftTypeTable{}
	require.Error(t, ValidatePlanTables(plan))
}

func TestValidatePlanTablesRejectsNegativeNet(t *testing.T) {
	plan := validPlan()
	plan.ShiftTypes["bad"] = domain.ShiftType{Name: "bad", Net: -1, Gross: 10}
	require.Error(t, ValidatePlanTables(plan))
}

func TestValidatePlanTablesRejectsGrossBelowNet(t *testing.T) {
	plan := validPlan()
	plan.ShiftTypes["bad"] = domain.ShiftType{Name: "bad", Net: 100, Gross: 50}
	require.Error(t, ValidatePlanTables(plan))
}

func TestValidatePlanTablesRejectsOutOfRangeDays(t *testing.T) {
	plan := validPlan()
	plan.Expenses = append(plan.Expenses, domain.Expense{Day: 31, Name: "越界", Amount: 10})
	require.Error(t, ValidatePlanTables(plan))

	plan = validPlan()
	plan.Deposits = append(plan.Deposits, domain.Deposit{Day: 0, Name: "越界", Amount: 10})
	require.Error(t, ValidatePlanTables(plan))

	plan = validPlan()
	plan.ManualConstraints = append(plan.ManualConstraints, domain.ManualConstraint{Day: 99, Balance: new(float64)})
	require.Error(t, ValidatePlanTables(plan))
}

func TestValidatePlanTablesRejectsNegativeAmounts(t *testing.T) {
	plan := validPlan()
	plan.Expenses[0].Amount = -1
	require.Error(t, ValidatePlanTables(plan))

	plan = validPlan()
	plan.Deposits[0].Amount = -1
	require.Error(t, ValidatePlanTables(plan))
}

func TestValidatePlanTablesRejectsEmptyConstraint(t *testing.T) {
	plan := validPlan()
	plan.ManualConstraints = []domain.ManualConstraint{{Day: 5}}
	require.Error(t, ValidatePlanTables(plan))
}

func TestValidatePlanTablesRejectsUnknownShiftInConstraint(t *testing.T) {
	unknown := []string{"ghost"}
	plan := validPlan()
	plan.ManualConstraints = []domain.ManualConstraint{
		{Day: 5, Shifts: &unknown},
	}
	require.Error(t, ValidatePlanTables(plan))
}
