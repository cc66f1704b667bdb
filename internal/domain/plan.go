package domain

import "time"

// HorizonDays: 规划周期的长度（天），整个系统都以 30 天为一个周期
const HorizonDays = 30

// Expense: 某一天的固定支出
type Expense struct {
	Day    int     `json:"day"` // 1 ~ HorizonDays
	Name   string  `json:"name"`
	Amount float64 `json:"amount"`
}

// Deposit: 某一天的固定入账（比如发薪日）
type Deposit struct {
	Day    int     `json:"day"`
	Name   string  `json:"name"`
	Amount float64 `json:"amount"`
}

// ManualConstraint: 对某一天的手动约束
// Shifts 非 nil 时表示强制这一天的班次（空数组表示强制休息）
// Balance 非 nil 时表示强制这一天结束时的余额
type ManualConstraint struct {
	Day     int       `json:"day"`
	Shifts  *[]string `json:"shifts,omitempty"`
	Balance *float64  `json:"balance,omitempty"`
}

// Plan: 一个月度现金流排班计划，包含优化所需的全部只读数据表
type Plan struct {
	ID                   int64              `json:"id"`
	OwnerID              int64              `json:"ownerID"`
	Name                 string             `json:"name"`
	Description          string             `json:"description"`
	StartingBalance      float64            `json:"startingBalance"`
	TargetEndingBalance  float64            `json:"targetEndingBalance"`
	MinimumBalance       float64            `json:"minimumBalance"`
	Expenses             []Expense          `json:"expenses"`
	Deposits             []Deposit          `json:"deposits"`
	ShiftTypes           ShiftTypeTable     `json:"shiftTypes"`
	ManualConstraints    []ManualConstraint `json:"manualConstraints"`
	CreatedAt            time.Time          `json:"createdAt"`
	Version              int32              `json:"-"`
}
