package optimizer

import "github.com/shiftcash-dev/shift-planner/backend/internal/domain"

// Genome: 候选解，下标 i 对应第 i+1 天的班次类型名称集合，空集合表示休息
// 基因组一旦创建就不会被原地修改，算子只会生成新的基因组
type Genome [][]string

// Clone 深拷贝一个基因组，防止繁殖过程中指向的基因被修改
func (g Genome) Clone() Genome {
	cp := make(Genome, len(g))
	for i, shifts := range g {
		cp[i] = append([]string{}, shifts...)
	}
	return cp
}

// Individual: 基因组及其缓存的适应度
// 适应度每代只计算一次，精英直接带着缓存进入下一代
type Individual struct {
	genome  Genome
	fitness float64
	scored  bool
}

// Parameters: 遗传算法参数
type Parameters struct {
	PopulationSize       int     // 种群大小
	Generations          int     // 最大迭代次数
	CrossoverRate        float64 // 交叉概率
	MutationRate         float64 // 每一天的变异概率（不是每个基因组）
	DayMutationRate      float64 // 天级别二次变异的概率
	TournamentSize       int     // 锦标赛选择的样本数量
	MinEliteSize         int     // 精英数量下限
	ElitePercentage      float64 // 精英占种群的比例
	ProgressInterval     int     // 每隔多少代上报一次进度
	StagnationLimit      int     // 连续多少代没有明显改进就提前终止
	ImprovementThreshold float64 // 相对改进超过这个比例才算有效改进
	RestProbability      float64 // 普通模式下某一天休息的概率
	CrisisProbability    float64 // 预测到余额告急时启用危机模式的概率
	CrisisMinLookback    int     // 危机窗口距离临界日的最小天数
	CrisisMaxLookback    int     // 危机窗口距离临界日的最大天数
	CrisisFillRatio      float64 // 危机窗口内被填充班次的天数比例
}

// DefaultParameters 返回引擎的默认参数
func DefaultParameters() Parameters {
	return Parameters{
		PopulationSize:       100,
		Generations:          500,
		CrossoverRate:        0.8,
		MutationRate:         0.05,
		DayMutationRate:      0.05,
		TournamentSize:       7,
		MinEliteSize:         2,
		ElitePercentage:      0.05,
		ProgressInterval:     50,
		StagnationLimit:      150,
		ImprovementThreshold: 0.001,
		RestProbability:      0.5,
		CrisisProbability:    0.6,
		CrisisMinLookback:    3,
		CrisisMaxLookback:    10,
		CrisisFillRatio:      0.9,
	}
}

// Weights: 适应度函数中各项惩罚的系数，进程级默认值可以被配置覆盖
type Weights struct {
	FinalBalance         float64 // 最终余额与目标的距离
	OvershootTolerance   float64 // 超出目标多少以内不算超调
	OvershootMultiplier  float64 // 超调时最终余额惩罚的额外倍数
	Violation            float64 // 每一个低于最低余额的天
	NearViolation        float64 // 余额贴近最低线的缓冲区惩罚
	NearViolationBuffer  float64 // 缓冲区的宽度
	WorkDayCount         float64 // 工作天数与理想天数的差距
	ConsecutiveDay       float64 // 连续工作超过上限后每多一天
	MaxConsecutiveDays   int     // 允许的最长连续工作天数
	SmallGap             float64 // 工作日之间间隔过小
	MinGapDays           int     // 期望的最小休息间隔
	GapVariance          float64 // 间隔长度的方差
	ClusterWindow        int     // 聚集检测的滑动窗口长度
	MaxWorkDaysPerWindow int     // 窗口内允许的最多工作天数
	ClusterExcess        float64 // 窗口内每超出一个工作日的惩罚
}

// DefaultWeights 返回适应度函数的默认权重
func DefaultWeights() Weights {
	return Weights{
		FinalBalance:         10,
		OvershootTolerance:   50,
		OvershootMultiplier:  2,
		Violation:            10000,
		NearViolation:        500,
		NearViolationBuffer:  100,
		WorkDayCount:         200,
		ConsecutiveDay:       300,
		MaxConsecutiveDays:   5,
		SmallGap:             150,
		MinGapDays:           2,
		GapVariance:          30,
		ClusterWindow:        5,
		MaxWorkDaysPerWindow: 4,
		ClusterExcess:        250,
	}
}

// Input: 引擎启动时宿主提供的全部数据，运行期间只读
type Input struct {
	Config     domain.OptimizationConfig
	Expenses   []domain.Expense
	Deposits   []domain.Deposit
	ShiftTypes domain.ShiftTypeTable
}
