package optimizer

import "sync"

// Manager 管理所有存活的引擎实例
// 同一个计划同一时间最多只有一个优化任务在运行：
// 对同一个计划再次启动时会先取消掉之前的任务
type Manager struct {
	mu     sync.Mutex
	byPlan map[int64]*managedEngine
	byRun  map[int64]*Engine
}

type managedEngine struct {
	runID  int64
	engine *Engine
}

func NewManager() *Manager {
	return &Manager{
		byPlan: make(map[int64]*managedEngine),
		byRun:  make(map[int64]*Engine),
	}
}

// Start 为指定的计划和任务创建并启动一个引擎
func (m *Manager) Start(planID int64, runID int64, input Input, params Parameters, weights Weights, seed int64, sink Sink) (*Engine, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	// 上一个任务还在的话先取消掉
	if old, ok := m.byPlan[planID]; ok {
		old.engine.Cancel()
		delete(m.byRun, old.runID)
		delete(m.byPlan, planID)
	}

	engine := New(runID, input, params, weights, seed, sink)
	if err := engine.Start(); err != nil {
		return nil, err
	}

	m.byPlan[planID] = &managedEngine{runID: runID, engine: engine}
	m.byRun[runID] = engine

	return engine, nil
}

// Get 根据任务 ID 查找存活的引擎
func (m *Manager) Get(runID int64) (*Engine, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	engine, ok := m.byRun[runID]
	return engine, ok
}

// Release 在任务结束后把引擎从管理器中移除
func (m *Manager) Release(planID int64, runID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if managed, ok := m.byPlan[planID]; ok && managed.runID == runID {
		delete(m.byPlan, planID)
	}
	delete(m.byRun, runID)
}
