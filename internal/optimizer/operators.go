package optimizer

import (
	"sort"

	"github.com/shiftcash-dev/shift-planner/backend/internal/domain"
)

// tournamentSelect 锦标赛选择：均匀随机抽取固定数量的个体，适应度最低者胜出
// 平局时保留先被抽到的个体
// 这是唯一的选择机制，单次选择 O(1)，而且不容易让少数个体过早垄断种群
func (e *Engine) tournamentSelect(pop []*Individual) *Individual {
	best := pop[e.rng.Intn(len(pop))]
	for i := 1; i < e.params.TournamentSize; i++ {
		candidate := pop[e.rng.Intn(len(pop))]
		if candidate.fitness < best.fitness {
			best = candidate
		}
	}
	return best
}

// crossover 均匀交叉：每一天独立地从父本 A 或 B 中等概率取班次
// 相比单点交叉，均匀交叉更能保留逐天的可行性（聚集、间隔这些惩罚都是空间局部的）
// 不满足交叉概率时直接复制父本 A
func (e *Engine) crossover(a, b *Individual) Genome {
	if e.rng.Float64() >= e.params.CrossoverRate {
		return a.genome.Clone()
	}

	child := make(Genome, domain.HorizonDays)
	for i := range child {
		src := a
		if e.rng.Float64() < 0.5 {
			src = b
		}
		child[i] = append([]string{}, src.genome[i]...)
	}
	return child
}

// mutate 对基因组做两级变异：
// 		1. 班次级：每一天独立地按概率触发，触发后按权重选择移除/替换/添加班次
// 		2. 天级：独立地微调工作日的分布，直接针对间隔惩罚
// 手动约束强制指定的天不参与变异
func (e *Engine) mutate(g Genome) {
	for i := range g {
		if e.forcedDays[i+1] {
			continue
		}
		if e.rng.Float64() < e.params.MutationRate {
			g[i] = e.mutateDay(g[i])
		}
	}
	e.mutateSpacing(g)
}

// 班次级变异的各个子情况本身也是按权重随机的
// remove 0.25 / toSmall 0.15 / toMedium 0.15 / toLarge 0.20 / addShift 0.25
func (e *Engine) mutateDay(shifts []string) []string {
	r := e.rng.Float64()
	switch {
	case r < 0.25: // 移除一个已有班次
		if len(shifts) == 0 {
			return []string{}
		}
		idx := e.rng.Intn(len(shifts))
		next := make([]string, 0, len(shifts)-1)
		next = append(next, shifts[:idx]...)
		next = append(next, shifts[idx+1:]...)
		return next
	case r < 0.40:
		return replaceOrSet(shifts, domain.ShiftSmall, e)
	case r < 0.55:
		return replaceOrSet(shifts, domain.ShiftMedium, e)
	case r < 0.75:
		return replaceOrSet(shifts, domain.ShiftLarge, e)
	default: // 给休息日加一个班次，工作日最多加到两个班次
		if len(shifts) >= 2 {
			return append([]string{}, shifts...)
		}
		next := append([]string{}, shifts...)
		return append(next, e.weightedShift())
	}
}

// 把某一天随机的一个班次替换成指定类型，休息日则直接设为该类型
func replaceOrSet(shifts []string, name string, e *Engine) []string {
	if len(shifts) == 0 {
		return []string{name}
	}
	next := append([]string{}, shifts...)
	next[e.rng.Intn(len(next))] = name
	return next
}

// mutateSpacing 天级变异：间隔良好的工作日大概率保持不变，
// 否则要么在相邻的休息日加一个工作日，要么把这个工作日改成休息
func (e *Engine) mutateSpacing(g Genome) {
	for i := range g {
		if e.forcedDays[i+1] {
			continue
		}
		if len(g[i]) == 0 {
			continue
		}
		if e.rng.Float64() >= e.params.DayMutationRate {
			continue
		}
		if e.isWellSpaced(g, i) && e.rng.Float64() < 0.8 {
			continue
		}

		if e.rng.Float64() < 0.5 {
			// 在相邻的休息日加一个工作日
			neighbor := i + 1
			if e.rng.Float64() < 0.5 {
				neighbor = i - 1
			}
			if neighbor < 0 || neighbor >= len(g) || e.forcedDays[neighbor+1] || len(g[neighbor]) > 0 {
				continue
			}
			g[neighbor] = []string{e.weightedShift()}
		} else {
			g[i] = []string{}
		}
	}
}

// 某个工作日前后 MinGapDays 天之内没有其他工作日就算间隔良好
func (e *Engine) isWellSpaced(g Genome, i int) bool {
	for j := max(0, i-e.weights.MinGapDays); j <= min(len(g)-1, i+e.weights.MinGapDays); j++ {
		if j != i && len(g[j]) > 0 {
			return false
		}
	}
	return true
}

// eliteCount 计算精英数量: max(MinEliteSize, ElitePercentage * populationSize)
func (e *Engine) eliteCount() int {
	n := int(e.params.ElitePercentage * float64(e.params.PopulationSize))
	if n < e.params.MinEliteSize {
		n = e.params.MinEliteSize
	}
	if n > e.params.PopulationSize {
		n = e.params.PopulationSize
	}
	return n
}

// 按适应度从低到高排序（稳定排序保证确定性）
func sortByFitness(pop []*Individual) {
	sort.SliceStable(pop, func(i, j int) bool {
		return pop[i].fitness < pop[j].fitness
	})
}
