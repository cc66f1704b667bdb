package domain

// 班次类型的名称是一个封闭集合，所有地方都只通过名称来引用班次类型
const (
	ShiftLarge  = "large"
	ShiftMedium = "medium"
	ShiftSmall  = "small"
)

// ShiftType: 某一类班次的收入信息，由计划提供方给出，优化过程中只读
type ShiftType struct {
	Name  string  `json:"name"`
	Net   float64 `json:"net"`   // 到手收入
	Gross float64 `json:"gross"` // 税前收入
}

// ShiftTypeTable: 班次类型名称到班次类型的只读查询表
type ShiftTypeTable map[string]ShiftType

// DefaultShiftTypes 返回默认的班次类型表，计划未提供班次类型时使用
func DefaultShiftTypes() ShiftTypeTable {
	return ShiftTypeTable{
		ShiftLarge:  {Name: ShiftLarge, Net: 86.5, Gross: 100},
		ShiftMedium: {Name: ShiftMedium, Net: 60, Gross: 70},
		ShiftSmall:  {Name: ShiftSmall, Net: 43.5, Gross: 50},
	}
}

// Names 返回表中所有班次类型的名称，顺序不保证
func (t ShiftTypeTable) Names() []string {
	names := make([]string, 0, len(t))
	for name := range t {
		names = append(names, name)
	}
	return names
}

// TotalNet 计算一组班次的到手收入之和，表中不存在的名称按 0 计算
func (t ShiftTypeTable) TotalNet(shifts []string) float64 {
	total := 0.0
	for _, name := range shifts {
		total += t[name].Net
	}
	return total
}
