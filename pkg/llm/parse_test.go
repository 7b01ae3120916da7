package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validPayload = `{"question":"What is 2+2?","options":["3","4","5","6"],"correct_index":1,"explanation":"Basic addition."}`

func TestDecodeQuizPayloadPlain(t *testing.T) {
	p, err := DecodeQuizPayload("test", validPayload)
	require.NoError(t, err)
	assert.Equal(t, "What is 2+2?", p.Question)
	assert.Len(t, p.Options, 4)
	assert.Equal(t, 1, p.CorrectIndex)
}

func TestDecodeQuizPayloadFenced(t *testing.T) {
	text := "Here is your question:\n```json\n" + validPayload + "\n```\nGood luck!"
	p, err := DecodeQuizPayload("test", text)
	require.NoError(t, err)
	assert.Equal(t, 1, p.CorrectIndex)
}

func TestDecodeQuizPayloadSurroundingProse(t *testing.T) {
	text := "Sure! " + validPayload + " Let me know if you want another."
	p, err := DecodeQuizPayload("test", text)
	require.NoError(t, err)
	assert.Equal(t, "What is 2+2?", p.Question)
}

func TestDecodeQuizPayloadEmpty(t *testing.T) {
	_, err := DecodeQuizPayload("test", "   ")
	var lerr *Error
	require.ErrorAs(t, err, &lerr)
	assert.Equal(t, KindEmpty, lerr.Kind)
}

func TestDecodeQuizPayloadMalformed(t *testing.T) {
	cases := []string{
		"no json here at all",
		`{"question":"q","options":["a","b"],"correct_index":0}`,
		`{"question":"q","options":["a","b","c","d"],"correct_index":7}`,
		`{"question":"","options":["a","b","c","d"],"correct_index":0}`,
	}

	for _, text := range cases {
		_, err := DecodeQuizPayload("test", text)
		var lerr *Error
		require.ErrorAs(t, err, &lerr, text)
		assert.Equal(t, KindMalformed, lerr.Kind, text)
	}
}

func TestQuizPayloadValidate(t *testing.T) {
	p := &QuizPayload{
		Question:     "q",
		Options:      []string{"a", "b", "c", "d"},
		CorrectIndex: 3,
	}
	assert.NoError(t, p.Validate())

	p.CorrectIndex = 4
	assert.Error(t, p.Validate())

	p.CorrectIndex = 0
	p.Options[2] = ""
	assert.Error(t, p.Validate())
}
