package optimizer

import (
	"sync"
	"testing"
	"time"

	"github.com/shiftcash-dev/shift-planner/backend/internal/domain"
	"github.com/stretchr/testify/require"
)

// recordingSink 线程安全地记录引擎发出的所有通知
type recordingSink struct {
	mu    sync.Mutex
	notes []domain.EngineNotification
}

func (s *recordingSink) Notify(n domain.EngineNotification) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notes = append(s.notes, n)
}

func (s *recordingSink) byType(typ string) []domain.EngineNotification {
	s.mu.Lock()
	defer s.mu.Unlock()

	matched := []domain.EngineNotification{}
	for _, n := range s.notes {
		if n.Type == typ {
			matched = append(matched, n)
		}
	}
	return matched
}

func waitDone(t *testing.T, e *Engine) {
	t.Helper()
	select {
	case <-e.Done():
	case <-time.After(30 * time.Second):
		t.Fatal("引擎没有在限定时间内结束")
	}
}

func waitState(t *testing.T, e *Engine, want State) {
	t.Helper()
	require.Eventually(t, func() bool {
		return e.State() == want
	}, 5*time.Second, 5*time.Millisecond)
}

// 只有一种班次、没有任何支出入账时，引擎必须收敛到目标余额附近且零违规
func TestEngineConvergesOnSimpleConfig(t *testing.T) {
	sink := &recordingSink{}
	input := Input{
		Config: domain.OptimizationConfig{
			StartingBalance:     1000,
			TargetEndingBalance: 1200,
			MinimumBalance:      500,
			PopulationSize:      30,
			Generations:         50,
		},
		ShiftTypes: domain.ShiftTypeTable{
			domain.ShiftLarge: {Name: domain.ShiftLarge, Net: 86.5, Gross: 100},
		},
	}

	e := New(1, input, DefaultParameters(), DefaultWeights(), 42, sink)
	require.NoError(t, e.Start())
	waitDone(t, e)

	require.Equal(t, StateCompleted, e.State())

	completes := sink.byType(domain.NotifyComplete)
	require.Len(t, completes, 1)
	result := completes[0].Result
	require.NotNil(t, result)

	require.Zero(t, result.Violations)
	require.InDelta(t, 1200, result.FinalBalance, 100)
	require.GreaterOrEqual(t, result.MinBalanceReached, 500.0)
	require.Len(t, result.Schedule, domain.HorizonDays)
	require.NotEmpty(t, sink.byType(domain.NotifyProgress))
	require.NotEmpty(t, e.Statistics())
}

// 相同的种子必须产生完全相同的结果
func TestEngineIsReproducibleWithSeed(t *testing.T) {
	input := Input{
		Config: domain.OptimizationConfig{
			StartingBalance:     800,
			TargetEndingBalance: 1500,
			MinimumBalance:      300,
			PopulationSize:      20,
			Generations:         30,
		},
		Expenses: []domain.Expense{
			{Day: 5, Name: "房租", Amount: 400},
		},
		Deposits: []domain.Deposit{
			{Day: 20, Name: "工资", Amount: 300},
		},
		ShiftTypes: testShiftTypes(),
	}

	run := func() *domain.OptimizationResult {
		sink := &recordingSink{}
		e := New(1, input, DefaultParameters(), DefaultWeights(), 1234, sink)
		require.NoError(t, e.Start())
		waitDone(t, e)
		completes := sink.byType(domain.NotifyComplete)
		require.Len(t, completes, 1)
		return completes[0].Result
	}

	first := run()
	second := run()

	require.Equal(t, first.Schedule, second.Schedule)
	require.Equal(t, first.BestFitness, second.BestFitness)
	require.Equal(t, first.WorkDays, second.WorkDays)
	require.Equal(t, first.Generations, second.Generations)
}

// 精英原样进入下一代，因此历史最优适应度必须随代数单调不增
func TestEngineBestFitnessNeverRegresses(t *testing.T) {
	sink := &recordingSink{}
	input := Input{
		Config: domain.OptimizationConfig{
			StartingBalance:     800,
			TargetEndingBalance: 1500,
			MinimumBalance:      300,
			PopulationSize:      20,
			Generations:         60,
		},
		Expenses: []domain.Expense{
			{Day: 12, Name: "房租", Amount: 500},
		},
		ShiftTypes: testShiftTypes(),
	}

	e := New(1, input, DefaultParameters(), DefaultWeights(), 21, sink)
	require.NoError(t, e.Start())
	waitDone(t, e)

	stats := e.Statistics()
	require.NotEmpty(t, stats)
	for i := 1; i < len(stats); i++ {
		require.LessOrEqual(t, stats[i].BestFitness, stats[i-1].BestFitness,
			"第 %d 代的最优适应度出现了回退", stats[i].Generation)
	}
}

// 长期没有明显改进时由停滞检测提前终止，而不是跑完全部的代数预算
func TestEngineStopsOnStagnation(t *testing.T) {
	sink := &recordingSink{}
	input := Input{
		Config: domain.OptimizationConfig{
			StartingBalance:     1000,
			TargetEndingBalance: 1000,
			MinimumBalance:      200,
			PopulationSize:      10,
			Generations:         5_000_000,
		},
		ShiftTypes: testShiftTypes(),
	}

	params := DefaultParameters()
	params.StagnationLimit = 20

	e := New(1, input, params, DefaultWeights(), 5, sink)
	require.NoError(t, e.Start())
	waitDone(t, e)

	require.Equal(t, StateCompleted, e.State())
	completes := sink.byType(domain.NotifyComplete)
	require.Len(t, completes, 1)
	// 实际运行的代数远小于预算
	require.Less(t, completes[0].Result.Generations, 10_000)
}

func longRunningEngine(sink Sink) *Engine {
	input := Input{
		Config: domain.OptimizationConfig{
			StartingBalance:     1000,
			TargetEndingBalance: 1200,
			MinimumBalance:      500,
			PopulationSize:      10,
			Generations:         5_000_000,
		},
		ShiftTypes: testShiftTypes(),
	}

	params := DefaultParameters()
	params.StagnationLimit = 1 << 30 // 不让停滞终止干扰控制协议的测试
	return New(1, input, params, DefaultWeights(), 99, sink)
}

func TestEnginePauseResumeCancel(t *testing.T) {
	sink := &recordingSink{}
	e := longRunningEngine(sink)
	require.NoError(t, e.Start())

	e.Pause()
	waitState(t, e, StatePaused)
	require.Len(t, sink.byType(domain.NotifyPaused), 1)

	e.Resume()
	waitState(t, e, StateRunning)
	require.Len(t, sink.byType(domain.NotifyResumed), 1)

	e.Cancel()
	waitDone(t, e)

	require.Equal(t, StateCancelled, e.State())
	require.Len(t, sink.byType(domain.NotifyCancelled), 1)
	// 被取消的任务绝不返回部分结果
	require.Empty(t, sink.byType(domain.NotifyComplete))
}

func TestEngineCancelWhilePaused(t *testing.T) {
	sink := &recordingSink{}
	e := longRunningEngine(sink)
	require.NoError(t, e.Start())

	e.Pause()
	waitState(t, e, StatePaused)

	e.Cancel()
	waitDone(t, e)

	require.Equal(t, StateCancelled, e.State())
	require.Empty(t, sink.byType(domain.NotifyComplete))
}

func TestEngineSignalAfterDoneIsIgnored(t *testing.T) {
	sink := &recordingSink{}
	e := longRunningEngine(sink)
	require.NoError(t, e.Start())

	e.Cancel()
	waitDone(t, e)

	// 引擎结束后命令直接丢弃，不阻塞也不 panic
	e.Pause()
	e.Resume()
	e.Cancel()
	require.Equal(t, StateCancelled, e.State())
}

func TestEngineStartTwice(t *testing.T) {
	sink := &recordingSink{}
	e := longRunningEngine(sink)
	require.NoError(t, e.Start())
	require.Error(t, e.Start())

	e.Cancel()
	waitDone(t, e)
}

func TestEngineRejectsInfeasibleConstraints(t *testing.T) {
	unknown := []string{"ghost"}
	sink := &recordingSink{}
	input := Input{
		Config: domain.OptimizationConfig{
			StartingBalance:     1000,
			TargetEndingBalance: 1200,
			MinimumBalance:      500,
			PopulationSize:      30,
			Generations:         50,
			ManualConstraints: []domain.ManualConstraint{
				{Day: 3, Shifts: &unknown},
			},
		},
		ShiftTypes: testShiftTypes(),
	}

	e := New(1, input, DefaultParameters(), DefaultWeights(), 1, sink)
	require.Error(t, e.Start())
	require.Equal(t, StateError, e.State())
	require.Len(t, sink.byType(domain.NotifyError), 1)
}

func TestEngineRejectsConflictingConstraints(t *testing.T) {
	a := []string{domain.ShiftLarge}
	b := []string{domain.ShiftSmall}
	sink := &recordingSink{}
	input := Input{
		Config: domain.OptimizationConfig{
			StartingBalance:     1000,
			TargetEndingBalance: 1200,
			MinimumBalance:      500,
			PopulationSize:      30,
			Generations:         50,
			ManualConstraints: []domain.ManualConstraint{
				{Day: 3, Shifts: &a},
				{Day: 3, Shifts: &b},
			},
		},
		ShiftTypes: testShiftTypes(),
	}

	e := New(1, input, DefaultParameters(), DefaultWeights(), 1, sink)
	require.Error(t, e.Start())
	require.Equal(t, StateError, e.State())
}

// 数值字段超出范围时修正后继续运行，而不是直接报错
func TestClampConfig(t *testing.T) {
	cfg := clampConfig(domain.OptimizationConfig{
		StartingBalance:     -100,
		TargetEndingBalance: -50,
		MinimumBalance:      -10,
		PopulationSize:      3,
		Generations:         0,
	})

	require.Zero(t, cfg.StartingBalance)
	require.Zero(t, cfg.TargetEndingBalance)
	require.Zero(t, cfg.MinimumBalance)
	require.Equal(t, 10, cfg.PopulationSize)
	require.Equal(t, 1, cfg.Generations)
}

func TestClampConfigMinimumAboveStarting(t *testing.T) {
	cfg := clampConfig(domain.OptimizationConfig{
		StartingBalance:     500,
		TargetEndingBalance: 800,
		MinimumBalance:      900,
		PopulationSize:      30,
		Generations:         50,
	})

	require.Equal(t, 500.0, cfg.MinimumBalance)
}

// 强制指定班次的天在整个进化过程中都不允许被破坏
func TestEngineHonorsForcedShifts(t *testing.T) {
	forced := []string{domain.ShiftLarge, domain.ShiftMedium}
	restDay := []string{}
	sink := &recordingSink{}
	input := Input{
		Config: domain.OptimizationConfig{
			StartingBalance:     1000,
			TargetEndingBalance: 1400,
			MinimumBalance:      300,
			PopulationSize:      20,
			Generations:         40,
			ManualConstraints: []domain.ManualConstraint{
				{Day: 10, Shifts: &forced},
				{Day: 20, Shifts: &restDay},
			},
		},
		ShiftTypes: testShiftTypes(),
	}

	e := New(1, input, DefaultParameters(), DefaultWeights(), 7, sink)
	require.NoError(t, e.Start())
	waitDone(t, e)

	completes := sink.byType(domain.NotifyComplete)
	require.Len(t, completes, 1)
	schedule := completes[0].Result.Schedule

	require.Equal(t, forced, schedule[9].Shifts)
	require.Empty(t, schedule[19].Shifts)
}
