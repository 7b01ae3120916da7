package tools

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMolarMass(t *testing.T) {
	tests := []struct {
		formula string
		want    float64
	}{
		{"H2O", 18.015},
		{"CO2", 44.009},
		{"H2SO4", 98.072},
		{"Ca(OH)2", 74.092},
		{"Mg3(PO4)2", 262.855},
		{"NaCl", 58.44},
	}

	for _, tc := range tests {
		got, err := MolarMass(tc.formula)
		require.NoError(t, err, tc.formula)
		assert.InDelta(t, tc.want, got, 1e-3, tc.formula)
	}
}

func TestMolarMassErrors(t *testing.T) {
	cases := []string{
		"Xx2",    // element not in the table
		"Ca(OH",  // unbalanced parentheses
		"Ca(OH))2",
		"h2o",    // element symbols start uppercase
		"H2O!",
		"",
	}
	for _, formula := range cases {
		_, err := MolarMass(formula)
		assert.Error(t, err, formula)
	}
}

func TestMolarToolRun(t *testing.T) {
	mm := NewMolarTool()

	out, err := mm.Run("H2SO4")
	require.NoError(t, err)
	assert.Equal(t, "⚗️ M(H2SO4) = 98.0720 g/mol", out)

	_, err = mm.Run("")
	var terr *Error
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, KindInvalidArguments, terr.Kind)

	_, err = mm.Run("Ca(OH")
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, KindComputationFailed, terr.Kind)
}
