package domain

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRunStatusIsTerminal(t *testing.T) {
	require.True(t, RunStatusCompleted.IsTerminal())
	require.True(t, RunStatusCancelled.IsTerminal())
	require.True(t, RunStatusFailed.IsTerminal())

	require.False(t, RunStatusPending.IsTerminal())
	require.False(t, RunStatusRunning.IsTerminal())
	require.False(t, RunStatusPaused.IsTerminal())
}
