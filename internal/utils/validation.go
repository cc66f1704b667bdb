package utils

import (
	"errors"
	"fmt"

	"github.com/shiftcash-dev/shift-planner/backend/internal/domain"
)

// ValidatePlanTables 检查计划的各个数据表是否合法
// 这里只做结构上的检查，余额约束是否可满足由优化引擎在启动时判断
func ValidatePlanTables(plan *domain.Plan) error {
	if len(plan.ShiftTypes) == 0 {
		return errors.New("班次类型表不能为空")
	}

	for name, st := range plan.ShiftTypes {
		if st.Net < 0 {
			return fmt.Errorf("班次类型 %s 的到手收入不能为负数", name)
		}
		if st.Gross < st.Net {
			return fmt.Errorf("班次类型 %s 的税前收入不能小于到手收入", name)
		}
	}

	for i, exp := range plan.Expenses {
		if exp.Day < 1 || exp.Day > domain.HorizonDays {
			return fmt.Errorf("第 %d 项支出的日期超出规划周期", i+1)
		}
		if exp.Amount < 0 {
			return fmt.Errorf("第 %d 项支出的金额不能为负数", i+1)
		}
	}

	for i, dep := range plan.Deposits {
		if dep.Day < 1 || dep.Day > domain.HorizonDays {
			return fmt.Errorf("第 %d 项入账的日期超出规划周期", i+1)
		}
		if dep.Amount < 0 {
			return fmt.Errorf("第 %d 项入账的金额不能为负数", i+1)
		}
	}

	for i, mc := range plan.ManualConstraints {
		if mc.Day < 1 || mc.Day > domain.HorizonDays {
			return fmt.Errorf("第 %d 项手动约束的日期超出规划周期", i+1)
		}
		if mc.Shifts == nil && mc.Balance == nil {
			return fmt.Errorf("第 %d 项手动约束没有任何内容", i+1)
		}
		if mc.Shifts != nil {
			for _, name := range *mc.Shifts {
				if _, ok := plan.ShiftTypes[name]; !ok {
					return fmt.Errorf("第 %d 项手动约束引用了不存在的班次类型 %s", i+1, name)
				}
			}
		}
	}

	return nil
}
