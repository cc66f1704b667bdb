package optimizer

import (
	"testing"

	"github.com/shiftcash-dev/shift-planner/backend/internal/domain"
	"github.com/stretchr/testify/require"
)

func newTestEngine(t *testing.T, cfg domain.OptimizationConfig, params Parameters, seed int64) *Engine {
	t.Helper()
	input := Input{
		Config:     cfg,
		ShiftTypes: testShiftTypes(),
	}
	return New(1, input, params, DefaultWeights(), seed, SinkFunc(func(domain.EngineNotification) {}))
}

func baseConfig() domain.OptimizationConfig {
	return domain.OptimizationConfig{
		StartingBalance:     1000,
		TargetEndingBalance: 1200,
		MinimumBalance:      500,
		PopulationSize:      30,
		Generations:         50,
	}
}

func TestTournamentSelectPrefersLowerFitness(t *testing.T) {
	params := DefaultParameters()
	params.TournamentSize = 64 // 远大于种群，几乎必然抽到每个个体
	e := newTestEngine(t, baseConfig(), params, 11)

	pop := []*Individual{
		{fitness: 400, scored: true},
		{fitness: 100, scored: true},
		{fitness: 900, scored: true},
		{fitness: 250, scored: true},
	}

	winner := e.tournamentSelect(pop)
	require.Equal(t, 100.0, winner.fitness)
}

func TestCrossoverTakesDaysFromParents(t *testing.T) {
	params := DefaultParameters()
	params.CrossoverRate = 1
	e := newTestEngine(t, baseConfig(), params, 5)

	a := &Individual{genome: make(Genome, domain.HorizonDays)}
	b := &Individual{genome: make(Genome, domain.HorizonDays)}
	for i := range a.genome {
		a.genome[i] = []string{domain.ShiftLarge}
		b.genome[i] = []string{domain.ShiftSmall}
	}

	child := e.crossover(a, b)
	require.Len(t, child, domain.HorizonDays)

	fromA, fromB := 0, 0
	for _, shifts := range child {
		require.Len(t, shifts, 1)
		switch shifts[0] {
		case domain.ShiftLarge:
			fromA++
		case domain.ShiftSmall:
			fromB++
		default:
			t.Fatalf("某一天的班次不来自任何一个父本: %v", shifts)
		}
	}
	require.Equal(t, domain.HorizonDays, fromA+fromB)
}

func TestCrossoverSkippedCopiesFirstParent(t *testing.T) {
	params := DefaultParameters()
	params.CrossoverRate = 0
	e := newTestEngine(t, baseConfig(), params, 5)

	a := &Individual{genome: make(Genome, domain.HorizonDays)}
	b := &Individual{genome: make(Genome, domain.HorizonDays)}
	for i := range a.genome {
		a.genome[i] = []string{domain.ShiftMedium}
		b.genome[i] = []string{}
	}

	child := e.crossover(a, b)
	require.Equal(t, a.genome, child)

	// 返回的是深拷贝，修改子代不影响父本
	child[0][0] = domain.ShiftSmall
	require.Equal(t, domain.ShiftMedium, a.genome[0][0])
}

func TestMutateSkipsForcedDays(t *testing.T) {
	forced := []string{domain.ShiftLarge}
	cfg := baseConfig()
	cfg.ManualConstraints = []domain.ManualConstraint{
		{Day: 1, Shifts: &forced},
	}

	params := DefaultParameters()
	params.MutationRate = 1
	params.DayMutationRate = 1
	e := newTestEngine(t, cfg, params, 13)

	for i := 0; i < 50; i++ {
		g := make(Genome, domain.HorizonDays)
		for j := range g {
			g[j] = []string{domain.ShiftMedium}
		}
		g[0] = append([]string{}, forced...)

		e.mutate(g)
		require.Equal(t, forced, []string(g[0]))
	}
}

func TestMutateDayNeverExceedsTwoShifts(t *testing.T) {
	params := DefaultParameters()
	e := newTestEngine(t, baseConfig(), params, 17)

	for i := 0; i < 200; i++ {
		next := e.mutateDay([]string{domain.ShiftLarge, domain.ShiftMedium})
		require.LessOrEqual(t, len(next), 2)
	}
}

func TestEliteCount(t *testing.T) {
	params := DefaultParameters()
	params.MinEliteSize = 2
	params.ElitePercentage = 0.05

	// 比例算出来不足下限时取下限
	params.PopulationSize = 20
	e := newTestEngine(t, baseConfig(), params, 1)
	e.params.PopulationSize = 20
	require.Equal(t, 2, e.eliteCount())

	// 比例高于下限时取比例
	e.params.PopulationSize = 200
	require.Equal(t, 10, e.eliteCount())
}

func TestSortByFitnessAscending(t *testing.T) {
	pop := []*Individual{
		{fitness: 30, scored: true},
		{fitness: 10, scored: true},
		{fitness: 20, scored: true},
	}
	sortByFitness(pop)
	require.Equal(t, 10.0, pop[0].fitness)
	require.Equal(t, 20.0, pop[1].fitness)
	require.Equal(t, 30.0, pop[2].fitness)
}

func TestIsWellSpaced(t *testing.T) {
	e := newTestEngine(t, baseConfig(), DefaultParameters(), 1)

	g := make(Genome, domain.HorizonDays)
	g[5] = []string{domain.ShiftLarge}
	g[10] = []string{domain.ShiftLarge}
	require.True(t, e.isWellSpaced(g, 5))

	g[7] = []string{domain.ShiftSmall}
	require.False(t, e.isWellSpaced(g, 5))
}
