package tools

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalcRun(t *testing.T) {
	calc := NewCalcTool()

	tests := []struct {
		expr string
		want string
	}{
		{"2*(3+4)^2", "98"},
		{"1+2*3", "7"},
		{"10/4", "2.5"},
		{"-3^2", "-9"},
		{"2^3^2", "512"}, // right-associative
		{"10 % 3", "1"},
		{"sqrt(16)", "4"},
		{"abs(-5)", "5"},
	}

	for _, tc := range tests {
		got, err := calc.Run(tc.expr)
		require.NoError(t, err, tc.expr)
		assert.Equal(t, tc.want, got, tc.expr)
	}
}

func TestCalcEvalWithVariables(t *testing.T) {
	v, err := Eval("2*x + 1", map[string]float64{"x": 3})
	require.NoError(t, err)
	assert.InDelta(t, 7, v, 1e-9)

	v, err = Eval("sin(pi/2)", nil)
	require.NoError(t, err)
	assert.InDelta(t, 1, v, 1e-9)
}

func TestCalcErrors(t *testing.T) {
	calc := NewCalcTool()

	cases := []string{
		"",
		"2+",
		"(1+2",
		"1/0",
		"frob(3)",
		"2 ** 3",
	}

	for _, expr := range cases {
		_, err := calc.Run(expr)
		require.Error(t, err, expr)

		var terr *Error
		require.ErrorAs(t, err, &terr, expr)
		assert.Equal(t, "calc", terr.Tool, expr)
	}
}
