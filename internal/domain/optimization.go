package domain

import "time"

// 优化任务的状态机: pending -> running <-> paused -> completed | cancelled | failed
type RunStatus string

const (
	RunStatusPending   RunStatus = "pending"
	RunStatusRunning   RunStatus = "running"
	RunStatusPaused    RunStatus = "paused"
	RunStatusCompleted RunStatus = "completed"
	RunStatusCancelled RunStatus = "cancelled"
	RunStatusFailed    RunStatus = "failed"
)

// IsTerminal 判断一个状态是否为终态，处于终态的任务不再接受任何控制命令
func (s RunStatus) IsTerminal() bool {
	return s == RunStatusCompleted || s == RunStatusCancelled || s == RunStatusFailed
}

// OptimizationConfig: 一次优化任务的输入配置
// 数值字段超出范围时引擎会修正后继续运行，而不是直接报错
type OptimizationConfig struct {
	StartingBalance     float64            `json:"startingBalance"`
	TargetEndingBalance float64            `json:"targetEndingBalance"`
	MinimumBalance      float64            `json:"minimumBalance"`
	PopulationSize      int                `json:"populationSize"`
	Generations         int                `json:"generations"`
	ManualConstraints   []ManualConstraint `json:"manualConstraints,omitempty"`
	Debug               bool               `json:"debug,omitempty"`
}

// OptimizationRun: 一次优化任务的持久化记录
type OptimizationRun struct {
	ID        int64              `json:"id"`
	PlanID    int64              `json:"planID"`
	Status    RunStatus          `json:"status"`
	Config    OptimizationConfig `json:"config"`
	Error     string             `json:"error,omitempty"`
	CreatedAt time.Time          `json:"createdAt"`
	Version   int32              `json:"-"`
}

// DaySchedule: 基因组解码后某一天的完整排班信息
// 不变量: day[i].StartBalance == day[i-1].EndBalance，且第一天的 StartBalance 等于起始余额
type DaySchedule struct {
	Day          int      `json:"day"` // 1 ~ HorizonDays
	Shifts       []string `json:"shifts"`
	Earnings     float64  `json:"earnings"`
	Expenses     float64  `json:"expenses"`
	Deposit      float64  `json:"deposit"`
	StartBalance float64  `json:"startBalance"`
	EndBalance   float64  `json:"endBalance"`
}

// OptimizationResult: 优化任务正常结束时返回的最终结果
type OptimizationResult struct {
	Schedule          []DaySchedule `json:"schedule"`
	WorkDays          []int         `json:"workDays"`
	TotalEarnings     float64       `json:"totalEarnings"`
	FinalBalance      float64       `json:"finalBalance"`
	MinBalanceReached float64       `json:"minBalanceReached"`
	Violations        int           `json:"violations"`
	BestFitness       float64       `json:"bestFitness"`
	Generations       int           `json:"generations"`
	ComputationTime   int64         `json:"computationTime"` // 毫秒
}

// OptimizationProgress: 优化过程中周期性上报的进度快照
type OptimizationProgress struct {
	Generation      int     `json:"generation"`
	PercentComplete float64 `json:"percentComplete"`
	BestFitness     float64 `json:"bestFitness"`
	BestWorkDays    int     `json:"bestWorkDays"`
	BestBalance     float64 `json:"bestBalance"`
	BestViolations  int     `json:"bestViolations"`
}

// GenerationStatistics: 每一代记录一条，用于事后分析收敛情况
type GenerationStatistics struct {
	Generation     int       `json:"generation"`
	Timestamp      time.Time `json:"timestamp"`
	BestFitness    float64   `json:"bestFitness"`
	BestWorkDays   int       `json:"bestWorkDays"`
	BestViolations int       `json:"bestViolations"`
	BestBalance    float64   `json:"bestBalance"`
}

// 引擎向宿主上报的通知类型，对应控制协议中 engine -> host 的消息
const (
	NotifyProgress  = "progress"
	NotifyPaused    = "paused"
	NotifyResumed   = "resumed"
	NotifyComplete  = "complete"
	NotifyCancelled = "cancelled"
	NotifyError     = "error"
)

// EngineNotification: 引擎与宿主之间消息边界上传递的值快照
type EngineNotification struct {
	Type     string                `json:"type"`
	RunID    int64                 `json:"runID"`
	Progress *OptimizationProgress `json:"progress,omitempty"`
	Result   *OptimizationResult   `json:"result,omitempty"`
	Error    string                `json:"error,omitempty"`
}
