package optimizer

import (
	"github.com/shiftcash-dev/shift-planner/backend/internal/domain"
)

// Decode 把抽象的基因组解码成逐天的余额推演结果
// 纯函数，没有任何副作用，复杂度 O(HorizonDays)
// 即使某一天光靠固定支出就已经跌破最低余额，这里也照常解码，违规交给适应度函数去惩罚
func Decode(g Genome, cfg domain.OptimizationConfig, expenses []domain.Expense, deposits []domain.Deposit, shiftTypes domain.ShiftTypeTable) []domain.DaySchedule {
	expByDay := make([]float64, domain.HorizonDays+1)
	for _, exp := range expenses {
		if exp.Day >= 1 && exp.Day <= domain.HorizonDays {
			expByDay[exp.Day] += exp.Amount
		}
	}

	depByDay := make([]float64, domain.HorizonDays+1)
	for _, dep := range deposits {
		if dep.Day >= 1 && dep.Day <= domain.HorizonDays {
			depByDay[dep.Day] += dep.Amount
		}
	}

	// 手动约束中强制指定的余额会覆盖推演出来的余额
	forcedBalance := make(map[int]float64)
	for _, mc := range cfg.ManualConstraints {
		if mc.Balance != nil {
			forcedBalance[mc.Day] = *mc.Balance
		}
	}

	schedule := make([]domain.DaySchedule, 0, domain.HorizonDays)
	balance := cfg.StartingBalance

	for day := 1; day <= domain.HorizonDays; day++ {
		var shifts []string
		if day-1 < len(g) {
			shifts = append([]string{}, g[day-1]...)
		} else {
			shifts = []string{}
		}

		earnings := shiftTypes.TotalNet(shifts)
		end := balance + earnings - expByDay[day] + depByDay[day]
		if forced, ok := forcedBalance[day]; ok {
			end = forced
		}

		schedule = append(schedule, domain.DaySchedule{
			Day:          day,
			Shifts:       shifts,
			Earnings:     earnings,
			Expenses:     expByDay[day],
			Deposit:      depByDay[day],
			StartBalance: balance,
			EndBalance:   end,
		})

		balance = end
	}

	return schedule
}

// randomGenome 随机初始化一个基因组
// 有两种生成模式：普通模式逐天独立抽取班次；
// 当逐天推演显示临界日之前余额会跌破最低线时，有一定概率进入危机模式，
// 在临界日之前的一个窗口内密集地填入高价值的班次组合（包括一天打两份工）
func (e *Engine) randomGenome() Genome {
	g := make(Genome, domain.HorizonDays)

	if critical := e.firstProjectedViolation(); critical > 0 && e.rng.Float64() < e.params.CrisisProbability {
		e.fillCrisisWindow(g, critical)
	}

	for i := range g {
		if g[i] != nil {
			// 危机窗口已经填过的天不再重新生成
			continue
		}
		g[i] = e.randomDay()
	}

	e.applyManualConstraints(g)
	return g
}

// firstProjectedViolation 在不安排任何班次的前提下逐天推演余额，
// 返回第一个跌破最低余额的天（1-based），没有则返回 0
func (e *Engine) firstProjectedViolation() int {
	balance := e.cfg.StartingBalance
	for day := 1; day <= domain.HorizonDays; day++ {
		balance += e.depByDay[day] - e.expByDay[day]
		if balance < e.cfg.MinimumBalance {
			return day
		}
	}
	return 0
}

// 普通模式下某一天的随机班次：要么休息，要么按权重抽一个班次
func (e *Engine) randomDay() []string {
	if e.rng.Float64() < e.params.RestProbability {
		return []string{}
	}
	return []string{e.weightedShift()}
}

// 普通模式的班次分布，默认 60/20/20
func (e *Engine) weightedShift() string {
	r := e.rng.Float64()
	switch {
	case r < 0.6:
		return domain.ShiftLarge
	case r < 0.8:
		return domain.ShiftMedium
	default:
		return domain.ShiftSmall
	}
}

// 危机模式下使用另一套分布，倾向于高收入的组合
var crisisCombos = [][]string{
	{domain.ShiftLarge, domain.ShiftLarge},
	{domain.ShiftLarge, domain.ShiftMedium},
	{domain.ShiftLarge},
	{domain.ShiftMedium},
	{domain.ShiftMedium, domain.ShiftSmall},
}

var crisisComboWeights = []float64{0.2, 0.25, 0.3, 0.15, 0.1}

func (e *Engine) crisisDay() []string {
	r := e.rng.Float64()
	acc := 0.0
	for i, w := range crisisComboWeights {
		acc += w
		if r < acc {
			return append([]string{}, crisisCombos[i]...)
		}
	}
	return append([]string{}, crisisCombos[len(crisisCombos)-1]...)
}

// fillCrisisWindow 在临界日之前随机选取一个回溯窗口并密集填充
// 窗口长度被配置的最小/最大回溯天数约束，窗口内大约 CrisisFillRatio 的天会被填充
func (e *Engine) fillCrisisWindow(g Genome, critical int) {
	maxLookback := min(e.params.CrisisMaxLookback, critical-1)
	if maxLookback <= 0 {
		// 第一天就违规了，没有任何可以回溯的空间
		return
	}
	minLookback := min(e.params.CrisisMinLookback, maxLookback)

	lookback := minLookback + e.rng.Intn(maxLookback-minLookback+1)
	for day := critical - lookback; day < critical; day++ {
		if e.rng.Float64() >= e.params.CrisisFillRatio {
			continue
		}
		g[day-1] = e.crisisDay()
	}
}

// applyManualConstraints 把配置中强制指定班次的天覆盖到基因组上
// 强制余额的约束在解码时处理，这里只管班次
func (e *Engine) applyManualConstraints(g Genome) {
	for _, mc := range e.cfg.ManualConstraints {
		if mc.Shifts == nil {
			continue
		}
		g[mc.Day-1] = append([]string{}, (*mc.Shifts)...)
	}
}
