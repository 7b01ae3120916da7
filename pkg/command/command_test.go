package command

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testParser() *Parser {
	known := map[string]bool{"calc": true, "u": true, "stats": true, "plot": true}
	return NewParser(func(name string) bool { return known[name] })
}

func TestParseFreeForm(t *testing.T) {
	p := testParser()

	intent, err := p.Parse("what is a derivative?")
	require.NoError(t, err)
	assert.Equal(t, FreeForm{Text: "what is a derivative?"}, intent)
}

func TestParseConfig(t *testing.T) {
	p := testParser()

	tests := []struct {
		input string
		want  Config
	}{
		{"/subject Calculus", Config{Field: "subject", Value: "Calculus"}},
		{"/topic Chain rule", Config{Field: "topic", Value: "Chain rule"}},
		{"/SUBJECT Physics", Config{Field: "subject", Value: "Physics"}},
		{"/subject", Config{Field: "subject", Value: ""}},
	}

	for _, tc := range tests {
		intent, err := p.Parse(tc.input)
		require.NoError(t, err, tc.input)
		assert.Equal(t, tc.want, intent, tc.input)
	}
}

func TestParseQuizControls(t *testing.T) {
	p := testParser()

	tests := []struct {
		input string
		want  QuizAction
	}{
		{"/quiz", ActionStart},
		{"/quiz start", ActionStart},
		{"/quiz next", ActionNext},
		{"/quiz STOP", ActionStop},
	}

	for _, tc := range tests {
		intent, err := p.Parse(tc.input)
		require.NoError(t, err, tc.input)
		assert.Equal(t, QuizCtl{Action: tc.want}, intent, tc.input)
	}

	_, err := p.Parse("/quiz dance")
	var unknown *UnknownCommandError
	require.ErrorAs(t, err, &unknown)
}

func TestParseToolCall(t *testing.T) {
	p := testParser()

	intent, err := p.Parse("/calc 2*(3+4)^2")
	require.NoError(t, err)
	assert.Equal(t, ToolCall{Name: "calc", Args: "2*(3+4)^2"}, intent)

	intent, err = p.Parse("/u 60 km/h -> m/s")
	require.NoError(t, err)
	assert.Equal(t, ToolCall{Name: "u", Args: "60 km/h -> m/s"}, intent)
}

func TestParseUnknownCommandNeverFallsThrough(t *testing.T) {
	p := testParser()

	intent, err := p.Parse("/frobnicate the widget")
	require.Error(t, err)
	assert.Nil(t, intent)

	var unknown *UnknownCommandError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "frobnicate", unknown.Token)
}

func TestParseHelpAndGreeting(t *testing.T) {
	p := testParser()

	intent, err := p.Parse("/help")
	require.NoError(t, err)
	assert.Equal(t, Help{}, intent)

	intent, err = p.Parse("/start")
	require.NoError(t, err)
	assert.Equal(t, Greeting{}, intent)
}
