package domain

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTotalNet(t *testing.T) {
	table := DefaultShiftTypes()

	require.Zero(t, table.TotalNet(nil))
	require.InDelta(t, 86.5, table.TotalNet([]string{ShiftLarge}), 1e-9)
	require.InDelta(t, 146.5, table.TotalNet([]string{ShiftLarge, ShiftMedium}), 1e-9)
	// 表中不存在的名称按 0 计算
	require.InDelta(t, 86.5, table.TotalNet([]string{ShiftLarge, "ghost"}), 1e-9)
}

func TestNames(t *testing.T) {
	table := DefaultShiftTypes()
	require.ElementsMatch(t, []string{ShiftLarge, ShiftMedium, ShiftSmall}, table.Names())
}
