package tools

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAutodetectArithmetic(t *testing.T) {
	name, args, ok := Autodetect("2*(3+4)^2")
	assert.True(t, ok)
	assert.Equal(t, "calc", name)
	assert.Equal(t, "2*(3+4)^2", args)

	// a lone number is not a calculation
	_, _, ok = Autodetect("42")
	assert.False(t, ok)
}

func TestAutodetectConversion(t *testing.T) {
	name, args, ok := Autodetect("convert 60 km/h to m/s")
	assert.True(t, ok)
	assert.Equal(t, "u", name)
	assert.Equal(t, "60 km/h -> m/s", args)

	name, _, ok = Autodetect("Convert 2.5 kg into lb?")
	assert.True(t, ok)
	assert.Equal(t, "u", name)
}

func TestAutodetectStats(t *testing.T) {
	name, args, ok := Autodetect("mean of 2, 4, 6, 8")
	assert.True(t, ok)
	assert.Equal(t, "stats", name)
	assert.Equal(t, "2 4 6 8", args)

	name, _, ok = Autodetect("what is the average of 10 20 30?")
	assert.True(t, ok)
	assert.Equal(t, "stats", name)

	// one number is not a sample
	_, _, ok = Autodetect("mean of 5")
	assert.False(t, ok)
}

func TestAutodetectPlot(t *testing.T) {
	name, args, ok := Autodetect("plot y=sin(x) x:-3.14:3.14")
	assert.True(t, ok)
	assert.Equal(t, "plot", name)
	assert.Equal(t, "y=sin(x) x:-3.14:3.14", args)

	// "plot" without a function spec goes to the model
	_, _, ok = Autodetect("plot the history of calculus")
	assert.False(t, ok)
}

func TestAutodetectFallsThrough(t *testing.T) {
	cases := []string{
		"what is a derivative?",
		"/calc 1+1",
		"",
		"explain 2+2 to me",
	}
	for _, text := range cases {
		_, _, ok := Autodetect(text)
		assert.False(t, ok, text)
	}
}
