package tools

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSummarize(t *testing.T) {
	s := Summarize([]float64{2, 4, 4, 4, 5, 5, 7, 9})

	assert.Equal(t, 8, s.N)
	assert.InDelta(t, 5, s.Mean, 1e-9)
	assert.InDelta(t, 4.5, s.Median, 1e-9)
	assert.InDelta(t, 2.13808993, s.StdDev, 1e-6)
	assert.InDelta(t, 2, s.Min, 1e-9)
	assert.InDelta(t, 9, s.Max, 1e-9)
}

func TestParseNumbers(t *testing.T) {
	nums, err := ParseNumbers("1, 2.5, -3")
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2.5, -3}, nums)

	nums, err = ParseNumbers("4 8 15 16 23 42")
	require.NoError(t, err)
	assert.Len(t, nums, 6)

	_, err = ParseNumbers("1 two 3")
	assert.Error(t, err)
}

func TestStatsToolRun(t *testing.T) {
	st := NewStatsTool()

	out, err := st.Run("2 4 4 4 5 5 7 9")
	require.NoError(t, err)
	assert.Contains(t, out, "n=8")
	assert.Contains(t, out, "mean=5")
	assert.Contains(t, out, "median=4.5")

	_, err = st.Run("42")
	var terr *Error
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, KindInvalidArguments, terr.Kind)

	_, err = st.Run("")
	assert.Error(t, err)
}
