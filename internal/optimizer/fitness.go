package optimizer

import (
	"math"

	"github.com/shiftcash-dev/shift-planner/backend/internal/domain"
)

/**
 * Evaluate 计算一个已解码班表的代价（适应度），越低越好
 * cost = 最终余额惩罚 + 违规惩罚 + 工作日分布惩罚 + 聚集惩罚
 * 其中:
 * 		1. 最终余额惩罚确保最终余额尽可能接近目标（超调过多时加倍）
 * 		2. 违规惩罚确保每一天的余额都不跌破最低线（贴近最低线时有较软的惩罚）
 * 		3. 工作日分布惩罚确保工作天数合理、不连续过长、间隔均匀
 * 		4. 聚集惩罚避免在一个滑动窗口内安排过多的工作日
 * 严格的纯函数：相同输入永远得到相同输出，并且对任何可解码的班表都返回有限值
 */
func Evaluate(schedule []domain.DaySchedule, cfg domain.OptimizationConfig, w Weights, shiftTypes domain.ShiftTypeTable) float64 {
	if len(schedule) == 0 {
		return 0
	}

	cost := 0.0

	// 最终余额惩罚
	final := schedule[len(schedule)-1].EndBalance
	finalPenalty := math.Abs(final-cfg.TargetEndingBalance) * w.FinalBalance
	if final-cfg.TargetEndingBalance > w.OvershootTolerance {
		finalPenalty *= w.OvershootMultiplier
	}
	cost += finalPenalty

	// 违规惩罚：跌破最低余额是硬惩罚，贴近最低线的缓冲区是软惩罚，
	// 软惩罚让搜索在真正违规之前就远离边缘
	for _, day := range schedule {
		switch {
		case day.EndBalance < cfg.MinimumBalance:
			cost += w.Violation
		case day.EndBalance < cfg.MinimumBalance+w.NearViolationBuffer:
			cost += w.NearViolation * (1 - (day.EndBalance-cfg.MinimumBalance)/w.NearViolationBuffer)
		}
	}

	workDays := WorkDayIndices(schedule)

	// 工作天数与理想天数的差距
	// 理想天数由达到目标所需的收入推出来
	totalExpenses := 0.0
	totalDeposits := 0.0
	for _, day := range schedule {
		totalExpenses += day.Expenses
		totalDeposits += day.Deposit
	}
	needed := cfg.TargetEndingBalance - cfg.StartingBalance + totalExpenses - totalDeposits
	ideal := 0
	if needed > 0 {
		avgNet := averageNet(shiftTypes)
		ideal = int(math.Ceil(needed / avgNet))
		if ideal > len(schedule) {
			ideal = len(schedule)
		}
	}
	cost += math.Abs(float64(len(workDays)-ideal)) * w.WorkDayCount

	// 连续工作惩罚：每一段超过上限的连续工作，每多一天罚一次
	runLength := 0
	for _, day := range schedule {
		if len(day.Shifts) > 0 {
			runLength++
			if runLength > w.MaxConsecutiveDays {
				cost += w.ConsecutiveDay
			}
		} else {
			runLength = 0
		}
	}

	// 间隔惩罚：工作日之间的休息间隔过小，或间隔长度波动过大
	if len(workDays) >= 2 {
		gaps := make([]float64, 0, len(workDays)-1)
		for i := 1; i < len(workDays); i++ {
			gap := float64(workDays[i] - workDays[i-1] - 1)
			gaps = append(gaps, gap)
			if gap > 0 && gap < float64(w.MinGapDays) {
				cost += (float64(w.MinGapDays) - gap) * w.SmallGap
			}
		}

		mean := 0.0
		for _, gap := range gaps {
			mean += gap
		}
		mean /= float64(len(gaps))

		variance := 0.0
		for _, gap := range gaps {
			variance += math.Pow(gap-mean, 2)
		}
		variance /= float64(len(gaps))

		cost += variance * w.GapVariance
	}

	// 聚集惩罚：固定长度的窗口在整个周期上滑动，
	// 窗口内工作日超过上限时按超出数量惩罚
	for start := 0; start+w.ClusterWindow <= len(schedule); start++ {
		count := 0
		for i := start; i < start+w.ClusterWindow; i++ {
			if len(schedule[i].Shifts) > 0 {
				count++
			}
		}
		if count > w.MaxWorkDaysPerWindow {
			cost += float64(count-w.MaxWorkDaysPerWindow) * w.ClusterExcess
		}
	}

	return cost
}

// WorkDayIndices 返回班表中所有工作日的天数（1-based），升序
func WorkDayIndices(schedule []domain.DaySchedule) []int {
	workDays := make([]int, 0, len(schedule))
	for _, day := range schedule {
		if len(day.Shifts) > 0 {
			workDays = append(workDays, day.Day)
		}
	}
	return workDays
}

// CountViolations 统计余额跌破最低线的天数
func CountViolations(schedule []domain.DaySchedule, minimumBalance float64) int {
	violations := 0
	for _, day := range schedule {
		if day.EndBalance < minimumBalance {
			violations++
		}
	}
	return violations
}

func averageNet(shiftTypes domain.ShiftTypeTable) float64 {
	if len(shiftTypes) == 0 {
		return 1
	}
	total := 0.0
	for _, st := range shiftTypes {
		total += st.Net
	}
	avg := total / float64(len(shiftTypes))
	if avg <= 0 {
		return 1
	}
	return avg
}
