package app

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestInTestModeFollowsEnv(t *testing.T) {
	t.Setenv(testModeEnv, "")
	require.False(t, InTestMode())

	t.Setenv(testModeEnv, "1")
	require.True(t, InTestMode())

	t.Setenv(testModeEnv, "true")
	require.False(t, InTestMode())
}
