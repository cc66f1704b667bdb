package optimizer

import (
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"slices"
	"sync"
	"time"

	"github.com/shiftcash-dev/shift-planner/backend/internal/domain"
)

// 引擎的状态机: Idle -> Running <-> Paused -> Completed | Cancelled | Error
type State string

const (
	StateIdle      State = "idle"
	StateRunning   State = "running"
	StatePaused    State = "paused"
	StateCompleted State = "completed"
	StateCancelled State = "cancelled"
	StateError     State = "error"
)

// Sink: 引擎向宿主上报通知的出口
// 引擎对宿主的 UI 和存储一无所知，所有载荷都是值快照
type Sink interface {
	Notify(n domain.EngineNotification)
}

// SinkFunc 让一个普通函数充当 Sink
type SinkFunc func(n domain.EngineNotification)

func (f SinkFunc) Notify(n domain.EngineNotification) {
	f(n)
}

type command int

const (
	cmdPause command = iota + 1
	cmdResume
	cmdCancel
)

// 统计历史的上限，超出后丢弃最旧的记录
const maxStatisticsHistory = 500

// 分阶段的提前终止检查点：剩余代数到达检查点时，
// 用逐级收紧的阈值判断当前解是否已经足够好，足够好就不再把剩余的代数跑完
// 最后一个检查点除了适应度之外还要求最终余额足够接近目标
var earlyExitStages = []struct {
	remaining    int
	threshold    float64
	checkBalance bool
}{
	{remaining: 300, threshold: 3000, checkBalance: false},
	{remaining: 100, threshold: 1500, checkBalance: false},
	{remaining: 50, threshold: 500, checkBalance: true},
}

const earlyExitBalanceTolerance = 100.0

// Engine: 一次优化任务的执行引擎
// 引擎运行在自己的 goroutine 上，宿主通过 Pause/Resume/Cancel 发送命令，
// 暂停和取消都是协作式的，只在每一代的开头检查，不会打断适应度计算
// 一个 Engine 实例只能执行一次优化
type Engine struct {
	runID   int64
	params  Parameters
	weights Weights
	cfg     domain.OptimizationConfig

	expenses   []domain.Expense
	deposits   []domain.Deposit
	shiftTypes domain.ShiftTypeTable

	// 预计算的逐天查询表，下标 1 ~ HorizonDays
	expByDay   []float64
	depByDay   []float64
	forcedDays map[int]bool

	rng  *rand.Rand
	sink Sink

	cmds chan command
	done chan struct{}

	mu    sync.Mutex
	state State
	stats []domain.GenerationStatistics
}

// New 创建一个优化引擎
// 随机源由调用方显式注入种子，保证基因组生成和整次运行的结果都可以复现
func New(runID int64, input Input, params Parameters, weights Weights, seed int64, sink Sink) *Engine {
	e := &Engine{
		runID:      runID,
		params:     params,
		weights:    weights,
		cfg:        clampConfig(input.Config),
		expenses:   input.Expenses,
		deposits:   input.Deposits,
		shiftTypes: input.ShiftTypes,
		expByDay:   make([]float64, domain.HorizonDays+1),
		depByDay:   make([]float64, domain.HorizonDays+1),
		forcedDays: make(map[int]bool),
		rng:        rand.New(rand.NewSource(seed)),
		sink:       sink,
		cmds:       make(chan command, 16),
		done:       make(chan struct{}),
		state:      StateIdle,
	}

	// 种群大小和迭代次数跟随配置（修正后的值）
	e.params.PopulationSize = e.cfg.PopulationSize
	e.params.Generations = e.cfg.Generations

	for _, exp := range e.expenses {
		if exp.Day >= 1 && exp.Day <= domain.HorizonDays {
			e.expByDay[exp.Day] += exp.Amount
		}
	}
	for _, dep := range e.deposits {
		if dep.Day >= 1 && dep.Day <= domain.HorizonDays {
			e.depByDay[dep.Day] += dep.Amount
		}
	}
	for _, mc := range e.cfg.ManualConstraints {
		if mc.Shifts != nil {
			e.forcedDays[mc.Day] = true
		}
	}

	return e
}

// Start 校验输入并启动优化
// 手动约束不可行属于致命错误：向宿主上报 error 通知并返回错误，不会部分执行
func (e *Engine) Start() error {
	e.mu.Lock()
	if e.state != StateIdle {
		e.mu.Unlock()
		return fmt.Errorf("引擎已经启动过了")
	}

	if err := e.validateConstraints(); err != nil {
		e.state = StateError
		e.mu.Unlock()
		e.sink.Notify(domain.EngineNotification{
			Type:  domain.NotifyError,
			RunID: e.runID,
			Error: err.Error(),
		})
		return err
	}

	e.state = StateRunning
	e.mu.Unlock()

	go e.run()
	return nil
}

func (e *Engine) Pause()  { e.signal(cmdPause) }
func (e *Engine) Resume() { e.signal(cmdResume) }
func (e *Engine) Cancel() { e.signal(cmdCancel) }

// 引擎结束（不论何种方式）后关闭，宿主可以用来等待引擎退出
func (e *Engine) Done() <-chan struct{} {
	return e.done
}

func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Statistics 返回每代统计历史的一份拷贝
func (e *Engine) Statistics() []domain.GenerationStatistics {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]domain.GenerationStatistics{}, e.stats...)
}

func (e *Engine) signal(c command) {
	select {
	case e.cmds <- c:
	case <-e.done:
		// 引擎已经结束，命令直接丢弃
	}
}

func (e *Engine) setState(s State) {
	e.mu.Lock()
	e.state = s
	e.mu.Unlock()
}

// run 是引擎的主循环，在独立的 goroutine 上执行
func (e *Engine) run() {
	defer close(e.done)
	defer func() {
		// 评估或解码过程中任何未预期的异常都转为 error 通知，不返回部分结果
		if r := recover(); r != nil {
			e.setState(StateError)
			e.sink.Notify(domain.EngineNotification{
				Type:  domain.NotifyError,
				RunID: e.runID,
				Error: fmt.Sprintf("优化过程中发生了未预期的异常: %v", r),
			})
		}
	}()

	startedAt := time.Now()

	// 初始化种群
	pop := make([]*Individual, e.params.PopulationSize)
	for i := range pop {
		pop[i] = &Individual{genome: e.randomGenome()}
	}

	var best *Individual
	var bestSchedule []domain.DaySchedule
	stagnation := 0
	gen := 0

	for gen = 0; gen < e.params.Generations; gen++ {
		// 协作式检查点：暂停会阻塞在这里直到恢复，取消则直接丢弃种群退出
		if !e.checkpoint() {
			e.setState(StateCancelled)
			e.sink.Notify(domain.EngineNotification{
				Type:  domain.NotifyCancelled,
				RunID: e.runID,
			})
			return
		}

		// 评估所有没有缓存适应度的个体（精英带着上一代的缓存跳过）
		for _, ind := range pop {
			if ind.scored {
				continue
			}
			schedule := e.decode(ind.genome)
			ind.fitness = Evaluate(schedule, e.cfg, e.weights, e.shiftTypes)
			ind.scored = true
		}

		// 找到本代最佳个体
		genBest := pop[0]
		for _, ind := range pop[1:] {
			if ind.fitness < genBest.fitness {
				genBest = ind
			}
		}

		// 更新历史最优；只有相对改进超过阈值才算打破停滞
		improved := false
		if best == nil {
			best = e.cloneIndividual(genBest)
			bestSchedule = e.decode(best.genome)
			improved = true
			stagnation = 0
		} else if genBest.fitness < best.fitness {
			if best.fitness-genBest.fitness > e.params.ImprovementThreshold*math.Max(math.Abs(best.fitness), 1) {
				stagnation = 0
			} else {
				stagnation++
			}
			best = e.cloneIndividual(genBest)
			bestSchedule = e.decode(best.genome)
			improved = true
		} else {
			stagnation++
		}

		e.appendStatistics(gen, best, bestSchedule)

		// 有改进或者到达上报间隔时发出进度快照
		if improved || gen%e.params.ProgressInterval == 0 {
			progress := e.snapshot(gen, best, bestSchedule)
			e.sink.Notify(domain.EngineNotification{
				Type:     domain.NotifyProgress,
				RunID:    e.runID,
				Progress: &progress,
			})
		}

		if e.cfg.Debug && gen%e.params.ProgressInterval == 0 {
			slog.Debug("迭代中", "run_id", e.runID, "generation", gen, "best_fitness", best.fitness, "stagnation", stagnation)
		}

		// 终止策略：停滞和分阶段的提前终止，先满足者生效
		if stagnation >= e.params.StagnationLimit {
			gen++
			break
		}
		if e.earlyExit(gen, best.fitness, bestSchedule) {
			gen++
			break
		}

		// 繁殖下一代：精英原样复制进入下一代，剩余名额用选择+交叉+变异填充
		sortByFitness(pop)
		next := make([]*Individual, 0, e.params.PopulationSize)
		for i := 0; i < e.eliteCount() && i < len(pop); i++ {
			next = append(next, e.cloneIndividual(pop[i]))
		}
		for len(next) < e.params.PopulationSize {
			p1 := e.tournamentSelect(pop)
			p2 := e.tournamentSelect(pop)

			child := e.crossover(p1, p2)
			e.mutate(child)
			// 变异和交叉都不允许破坏手动约束
			e.applyManualConstraints(child)

			next = append(next, &Individual{genome: child})
		}
		pop = next
	}

	result := e.buildResult(best, bestSchedule, gen, time.Since(startedAt))
	e.setState(StateCompleted)
	e.sink.Notify(domain.EngineNotification{
		Type:   domain.NotifyComplete,
		RunID:  e.runID,
		Result: &result,
	})
}

// checkpoint 处理积压的命令，返回 false 表示任务被取消
// 暂停时在这里阻塞，直到收到 resume 或 cancel
func (e *Engine) checkpoint() bool {
	for {
		select {
		case cmd := <-e.cmds:
			switch cmd {
			case cmdCancel:
				return false
			case cmdPause:
				e.setState(StatePaused)
				e.sink.Notify(domain.EngineNotification{Type: domain.NotifyPaused, RunID: e.runID})

				for paused := true; paused; {
					switch <-e.cmds {
					case cmdCancel:
						return false
					case cmdResume:
						e.setState(StateRunning)
						e.sink.Notify(domain.EngineNotification{Type: domain.NotifyResumed, RunID: e.runID})
						paused = false
					}
				}
			case cmdResume:
				// 没有暂停时收到 resume，忽略
			}
		default:
			return true
		}
	}
}

func (e *Engine) decode(g Genome) []domain.DaySchedule {
	return Decode(g, e.cfg, e.expenses, e.deposits, e.shiftTypes)
}

func (e *Engine) cloneIndividual(ind *Individual) *Individual {
	return &Individual{
		genome:  ind.genome.Clone(),
		fitness: ind.fitness,
		scored:  true,
	}
}

func (e *Engine) snapshot(gen int, best *Individual, schedule []domain.DaySchedule) domain.OptimizationProgress {
	return domain.OptimizationProgress{
		Generation:      gen,
		PercentComplete: float64(gen+1) / float64(e.params.Generations) * 100,
		BestFitness:     best.fitness,
		BestWorkDays:    len(WorkDayIndices(schedule)),
		BestBalance:     schedule[len(schedule)-1].EndBalance,
		BestViolations:  CountViolations(schedule, e.cfg.MinimumBalance),
	}
}

func (e *Engine) appendStatistics(gen int, best *Individual, schedule []domain.DaySchedule) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.stats = append(e.stats, domain.GenerationStatistics{
		Generation:     gen,
		Timestamp:      time.Now(),
		BestFitness:    best.fitness,
		BestWorkDays:   len(WorkDayIndices(schedule)),
		BestViolations: CountViolations(schedule, e.cfg.MinimumBalance),
		BestBalance:    schedule[len(schedule)-1].EndBalance,
	})

	if len(e.stats) > maxStatisticsHistory {
		e.stats = e.stats[len(e.stats)-maxStatisticsHistory:]
	}
}

func (e *Engine) earlyExit(gen int, bestFitness float64, schedule []domain.DaySchedule) bool {
	remaining := e.params.Generations - gen
	for _, stage := range earlyExitStages {
		if remaining != stage.remaining {
			continue
		}
		if bestFitness >= stage.threshold {
			return false
		}
		if stage.checkBalance {
			final := schedule[len(schedule)-1].EndBalance
			if math.Abs(final-e.cfg.TargetEndingBalance) > earlyExitBalanceTolerance {
				return false
			}
		}
		return true
	}
	return false
}

func (e *Engine) buildResult(best *Individual, schedule []domain.DaySchedule, generations int, elapsed time.Duration) domain.OptimizationResult {
	totalEarnings := 0.0
	minReached := math.Inf(1)
	for _, day := range schedule {
		totalEarnings += day.Earnings
		if day.EndBalance < minReached {
			minReached = day.EndBalance
		}
	}

	return domain.OptimizationResult{
		Schedule:          schedule,
		WorkDays:          WorkDayIndices(schedule),
		TotalEarnings:     totalEarnings,
		FinalBalance:      schedule[len(schedule)-1].EndBalance,
		MinBalanceReached: minReached,
		Violations:        CountViolations(schedule, e.cfg.MinimumBalance),
		BestFitness:       best.fitness,
		Generations:       generations,
		ComputationTime:   elapsed.Milliseconds(),
	}
}

// clampConfig 对超出范围的数值字段进行修正并记录日志，然后继续运行，而不是中止
func clampConfig(cfg domain.OptimizationConfig) domain.OptimizationConfig {
	if cfg.StartingBalance < 0 {
		slog.Warn("起始余额小于 0，已修正为 0", "starting_balance", cfg.StartingBalance)
		cfg.StartingBalance = 0
	}
	if cfg.TargetEndingBalance < 0 {
		slog.Warn("目标余额小于 0，已修正为 0", "target_ending_balance", cfg.TargetEndingBalance)
		cfg.TargetEndingBalance = 0
	}
	if cfg.MinimumBalance < 0 {
		slog.Warn("最低余额小于 0，已修正为 0", "minimum_balance", cfg.MinimumBalance)
		cfg.MinimumBalance = 0
	}
	if cfg.MinimumBalance > cfg.StartingBalance {
		slog.Warn("最低余额大于起始余额，已修正为起始余额", "minimum_balance", cfg.MinimumBalance, "starting_balance", cfg.StartingBalance)
		cfg.MinimumBalance = cfg.StartingBalance
	}
	if cfg.PopulationSize < 10 {
		slog.Warn("种群大小小于 10，已修正为 10", "population_size", cfg.PopulationSize)
		cfg.PopulationSize = 10
	}
	if cfg.Generations < 1 {
		slog.Warn("迭代次数小于 1，已修正为 1", "generations", cfg.Generations)
		cfg.Generations = 1
	}
	return cfg
}

// validateConstraints 检查手动约束是否可行
// 引用排班范围之外的天、同一天相互冲突的约束、不存在的班次类型都是致命错误
func (e *Engine) validateConstraints() error {
	seen := make(map[int]domain.ManualConstraint)

	for _, mc := range e.cfg.ManualConstraints {
		if mc.Day < 1 || mc.Day > domain.HorizonDays {
			return fmt.Errorf("手动约束引用了排班范围之外的天数 %d", mc.Day)
		}

		if mc.Shifts != nil {
			for _, name := range *mc.Shifts {
				if _, ok := e.shiftTypes[name]; !ok {
					return fmt.Errorf("第 %d 天的手动约束使用了不存在的班次类型 %s", mc.Day, name)
				}
			}
		}

		if prev, ok := seen[mc.Day]; ok {
			if conflicts(prev, mc) {
				return fmt.Errorf("第 %d 天存在相互冲突的手动约束", mc.Day)
			}
		}
		seen[mc.Day] = mc
	}

	return nil
}

// 同一天的两条约束只有在强制值不一致时才算冲突
func conflicts(a, b domain.ManualConstraint) bool {
	if a.Shifts != nil && b.Shifts != nil && !slices.Equal(*a.Shifts, *b.Shifts) {
		return true
	}
	if a.Balance != nil && b.Balance != nil && *a.Balance != *b.Balance {
		return true
	}
	return false
}
