package optimizer

import (
	"testing"
	"time"

	"github.com/shiftcash-dev/shift-planner/backend/internal/domain"
	"github.com/stretchr/testify/require"
)

func managerInput() Input {
	return Input{
		Config: domain.OptimizationConfig{
			StartingBalance:     1000,
			TargetEndingBalance: 1200,
			MinimumBalance:      500,
			PopulationSize:      10,
			Generations:         5_000_000,
		},
		ShiftTypes: testShiftTypes(),
	}
}

func managerParams() Parameters {
	params := DefaultParameters()
	params.StagnationLimit = 1 << 30
	return params
}

func TestManagerStartAndGet(t *testing.T) {
	m := NewManager()
	sink := SinkFunc(func(domain.EngineNotification) {})

	engine, err := m.Start(1, 100, managerInput(), managerParams(), DefaultWeights(), 1, sink)
	require.NoError(t, err)

	got, ok := m.Get(100)
	require.True(t, ok)
	require.Same(t, engine, got)

	engine.Cancel()
	waitDone(t, engine)
}

func TestManagerReplacesRunForSamePlan(t *testing.T) {
	m := NewManager()
	sink := SinkFunc(func(domain.EngineNotification) {})

	first, err := m.Start(1, 100, managerInput(), managerParams(), DefaultWeights(), 1, sink)
	require.NoError(t, err)

	// 同一个计划再次启动会取消掉之前的任务
	second, err := m.Start(1, 101, managerInput(), managerParams(), DefaultWeights(), 2, sink)
	require.NoError(t, err)

	waitDone(t, first)
	require.Equal(t, StateCancelled, first.State())

	_, ok := m.Get(100)
	require.False(t, ok)
	got, ok := m.Get(101)
	require.True(t, ok)
	require.Same(t, second, got)

	second.Cancel()
	waitDone(t, second)
}

func TestManagerRelease(t *testing.T) {
	m := NewManager()
	sink := SinkFunc(func(domain.EngineNotification) {})

	engine, err := m.Start(1, 100, managerInput(), managerParams(), DefaultWeights(), 1, sink)
	require.NoError(t, err)

	engine.Cancel()
	waitDone(t, engine)

	m.Release(1, 100)
	_, ok := m.Get(100)
	require.False(t, ok)

	// 释放后同一个计划可以立刻启动新任务
	next, err := m.Start(1, 102, managerInput(), managerParams(), DefaultWeights(), 3, sink)
	require.NoError(t, err)
	next.Cancel()

	select {
	case <-next.Done():
	case <-time.After(30 * time.Second):
		t.Fatal("引擎没有在限定时间内结束")
	}
}

func TestManagerStartFailsOnInvalidInput(t *testing.T) {
	m := NewManager()
	sink := SinkFunc(func(domain.EngineNotification) {})

	unknown := []string{"ghost"}
	input := managerInput()
	input.Config.ManualConstraints = []domain.ManualConstraint{
		{Day: 1, Shifts: &unknown},
	}

	_, err := m.Start(1, 100, input, managerParams(), DefaultWeights(), 1, sink)
	require.Error(t, err)

	_, ok := m.Get(100)
	require.False(t, ok)
}
