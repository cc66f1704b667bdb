package optimizer

import (
	"testing"

	"github.com/shiftcash-dev/shift-planner/backend/internal/domain"
	"github.com/stretchr/testify/require"
)

func testShiftTypes() domain.ShiftTypeTable {
	return domain.ShiftTypeTable{
		domain.ShiftLarge:  {Name: domain.ShiftLarge, Net: 86.5, Gross: 100},
		domain.ShiftMedium: {Name: domain.ShiftMedium, Net: 60, Gross: 70},
		domain.ShiftSmall:  {Name: domain.ShiftSmall, Net: 43.5, Gross: 50},
	}
}

func TestDecodeBalanceChain(t *testing.T) {
	cfg := domain.OptimizationConfig{
		StartingBalance:     1000,
		TargetEndingBalance: 1500,
		MinimumBalance:      200,
	}
	expenses := []domain.Expense{
		{Day: 1, Name: "房租", Amount: 300},
		{Day: 1, Name: "水电费", Amount: 50},
		{Day: 15, Name: "伙食费", Amount: 120},
	}
	deposits := []domain.Deposit{
		{Day: 10, Name: "工资", Amount: 400},
	}

	g := make(Genome, domain.HorizonDays)
	for i := range g {
		g[i] = []string{}
	}
	g[0] = []string{domain.ShiftLarge}
	g[9] = []string{domain.ShiftMedium, domain.ShiftSmall}

	schedule := Decode(g, cfg, expenses, deposits, testShiftTypes())
	require.Len(t, schedule, domain.HorizonDays)

	require.Equal(t, cfg.StartingBalance, schedule[0].StartBalance)
	for i, day := range schedule {
		require.Equal(t, i+1, day.Day)
		if i > 0 {
			require.Equal(t, schedule[i-1].EndBalance, day.StartBalance)
		}
		require.InDelta(t, day.StartBalance+day.Earnings-day.Expenses+day.Deposit, day.EndBalance, 1e-9)
	}

	// 第一天: 1000 + 86.5 - 350 = 736.5
	require.InDelta(t, 736.5, schedule[0].EndBalance, 1e-9)
	// 第十天: 两个班次 + 入账
	require.InDelta(t, 103.5, schedule[9].Earnings, 1e-9)
	require.InDelta(t, 400, schedule[9].Deposit, 1e-9)
}

func TestDecodeForcedBalanceOverride(t *testing.T) {
	forced := 888.0
	cfg := domain.OptimizationConfig{
		StartingBalance: 1000,
		ManualConstraints: []domain.ManualConstraint{
			{Day: 5, Balance: &forced},
		},
	}

	g := make(Genome, domain.HorizonDays)
	schedule := Decode(g, cfg, nil, nil, testShiftTypes())

	require.InDelta(t, forced, schedule[4].EndBalance, 1e-9)
	// 后续天从强制余额继续推演
	require.InDelta(t, forced, schedule[5].StartBalance, 1e-9)
}

func TestDecodeUnknownShiftEarnsNothing(t *testing.T) {
	cfg := domain.OptimizationConfig{StartingBalance: 500}

	g := make(Genome, domain.HorizonDays)
	g[0] = []string{"nonexistent"}

	schedule := Decode(g, cfg, nil, nil, testShiftTypes())
	require.Zero(t, schedule[0].Earnings)
	require.InDelta(t, 500, schedule[0].EndBalance, 1e-9)
}

func TestDecodeShortGenomePadsRestDays(t *testing.T) {
	cfg := domain.OptimizationConfig{StartingBalance: 100}

	g := Genome{{domain.ShiftLarge}}
	schedule := Decode(g, cfg, nil, nil, testShiftTypes())

	require.Len(t, schedule, domain.HorizonDays)
	for _, day := range schedule[1:] {
		require.Empty(t, day.Shifts)
	}
}

func TestRandomGenomeRespectsManualConstraints(t *testing.T) {
	restDay := []string{}
	workDay := []string{domain.ShiftLarge, domain.ShiftMedium}
	input := Input{
		Config: domain.OptimizationConfig{
			StartingBalance:     1000,
			TargetEndingBalance: 1200,
			MinimumBalance:      200,
			PopulationSize:      30,
			Generations:         50,
			ManualConstraints: []domain.ManualConstraint{
				{Day: 3, Shifts: &restDay},
				{Day: 7, Shifts: &workDay},
			},
		},
		ShiftTypes: testShiftTypes(),
	}

	e := New(1, input, DefaultParameters(), DefaultWeights(), 7, SinkFunc(func(domain.EngineNotification) {}))

	for i := 0; i < 20; i++ {
		g := e.randomGenome()
		require.Empty(t, g[2])
		require.Equal(t, workDay, []string(g[6]))
	}
}

func TestFirstProjectedViolation(t *testing.T) {
	input := Input{
		Config: domain.OptimizationConfig{
			StartingBalance: 500,
			MinimumBalance:  200,
			PopulationSize:  30,
			Generations:     50,
		},
		Expenses: []domain.Expense{
			{Day: 10, Name: "房租", Amount: 400},
		},
		ShiftTypes: testShiftTypes(),
	}

	e := New(1, input, DefaultParameters(), DefaultWeights(), 1, SinkFunc(func(domain.EngineNotification) {}))
	require.Equal(t, 10, e.firstProjectedViolation())
}

func TestFirstProjectedViolationNoneWhenFeasible(t *testing.T) {
	input := Input{
		Config: domain.OptimizationConfig{
			StartingBalance: 1000,
			MinimumBalance:  200,
			PopulationSize:  30,
			Generations:     50,
		},
		ShiftTypes: testShiftTypes(),
	}

	e := New(1, input, DefaultParameters(), DefaultWeights(), 1, SinkFunc(func(domain.EngineNotification) {}))
	require.Zero(t, e.firstProjectedViolation())
}

func TestFillCrisisWindow(t *testing.T) {
	input := Input{
		Config: domain.OptimizationConfig{
			StartingBalance: 500,
			MinimumBalance:  200,
			PopulationSize:  30,
			Generations:     50,
		},
		Expenses: []domain.Expense{
			{Day: 15, Name: "房租", Amount: 800},
		},
		ShiftTypes: testShiftTypes(),
	}

	params := DefaultParameters()
	params.CrisisFillRatio = 1 // 窗口内每一天都必须被填充
	e := New(1, input, params, DefaultWeights(), 3, SinkFunc(func(domain.EngineNotification) {}))

	g := make(Genome, domain.HorizonDays)
	e.fillCrisisWindow(g, 15)

	filled := 0
	for day := 1; day < 15; day++ {
		if len(g[day-1]) > 0 {
			filled++
		}
	}
	require.GreaterOrEqual(t, filled, params.CrisisMinLookback)
	require.LessOrEqual(t, filled, params.CrisisMaxLookback)

	// 临界日当天和之后的天不受危机窗口影响
	for day := 15; day <= domain.HorizonDays; day++ {
		require.Nil(t, g[day-1])
	}
}

func TestFillCrisisWindowNoRoom(t *testing.T) {
	input := Input{
		Config: domain.OptimizationConfig{
			StartingBalance: 100,
			MinimumBalance:  50,
			PopulationSize:  30,
			Generations:     50,
		},
		Expenses: []domain.Expense{
			{Day: 1, Name: "房租", Amount: 800},
		},
		ShiftTypes: testShiftTypes(),
	}

	e := New(1, input, DefaultParameters(), DefaultWeights(), 3, SinkFunc(func(domain.EngineNotification) {}))

	g := make(Genome, domain.HorizonDays)
	e.fillCrisisWindow(g, 1)
	for i := range g {
		require.Nil(t, g[i])
	}
}

func TestGenomeCloneIsIndependent(t *testing.T) {
	g := Genome{{domain.ShiftLarge}, {}}
	cp := g.Clone()

	cp[0][0] = domain.ShiftSmall
	require.Equal(t, domain.ShiftLarge, g[0][0])
}
