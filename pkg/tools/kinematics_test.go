package tools

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSolveSUVAT(t *testing.T) {
	tests := []struct {
		name  string
		known map[string]float64
		want  map[string]float64
	}{
		{
			"from u, a, t",
			map[string]float64{"u": 0, "a": 2, "t": 10},
			map[string]float64{"v": 20, "s": 100},
		},
		{
			"from u, v, t",
			map[string]float64{"u": 0, "v": 20, "t": 5},
			map[string]float64{"a": 4, "s": 50},
		},
		{
			"from s, u, a",
			map[string]float64{"s": 100, "u": 0, "a": 2},
			map[string]float64{"t": 10, "v": 20},
		},
		{
			"from u, v, s",
			map[string]float64{"u": 0, "v": 20, "s": 100},
			map[string]float64{"a": 2, "t": 10},
		},
		{
			"zero acceleration",
			map[string]float64{"s": 60, "u": 12, "a": 0},
			map[string]float64{"t": 5, "v": 12},
		},
	}

	for _, tc := range tests {
		solved := SolveSUVAT(tc.known)
		for q, want := range tc.want {
			got, ok := solved[q]
			require.True(t, ok, "%s: %s not solved", tc.name, q)
			assert.InDelta(t, want, got, 1e-9, "%s: %s", tc.name, q)
		}
		// the knowns come back untouched
		for q, want := range tc.known {
			assert.InDelta(t, want, solved[q], 1e-9, "%s: %s", tc.name, q)
		}
	}
}

func TestSuvatToolRun(t *testing.T) {
	kin := NewSuvatTool()

	out, err := kin.Run("u=0 a=2 t=10")
	require.NoError(t, err)
	assert.Contains(t, out, "🏎️ Kinematics (SUVAT):")
	assert.Contains(t, out, "v = 20 m/s")
	assert.Contains(t, out, "s = 100 m")

	var terr *Error
	_, err = kin.Run("u=0 v=20")
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, KindInvalidArguments, terr.Kind)

	_, err = kin.Run("x=3 u=0 v=2")
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, KindInvalidArguments, terr.Kind)

	_, err = kin.Run("u=zero a=1 t=2")
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, KindInvalidArguments, terr.Kind)
}
