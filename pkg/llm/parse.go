package llm

import (
	"regexp"
	"strings"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

var (
	fenceOpenRe  = regexp.MustCompile("(?i)^```(?:json)?\\s*")
	fenceCloseRe = regexp.MustCompile("\\s*```$")
	jsonObjectRe = regexp.MustCompile(`\{[\s\S]*\}`)
)

// ExtractJSONObject pulls the first JSON object out of model output, tolerating
// markdown fences and surrounding prose. Returns false when no object parses.
func ExtractJSONObject(text string, out any) bool {
	t := strings.TrimSpace(text)
	if t == "" {
		return false
	}

	t = fenceOpenRe.ReplaceAllString(t, "")
	t = strings.TrimSpace(fenceCloseRe.ReplaceAllString(t, ""))

	if json.Unmarshal([]byte(t), out) == nil {
		return true
	}

	candidate := jsonObjectRe.FindString(t)
	if candidate == "" {
		return false
	}
	return json.Unmarshal([]byte(candidate), out) == nil
}

// DecodeQuizPayload turns raw model output into a validated QuizPayload.
// Every deviation from the contract is reported as KindMalformed so the quiz
// pipeline can fall back to the local bank instead of surfacing an error.
func DecodeQuizPayload(provider, text string) (*QuizPayload, error) {
	if strings.TrimSpace(text) == "" {
		return nil, NewError(KindEmpty, provider, nil)
	}

	var p QuizPayload
	if !ExtractJSONObject(text, &p) {
		return nil, NewError(KindMalformed, provider, nil)
	}
	if err := p.Validate(); err != nil {
		return nil, NewError(KindMalformed, provider, err)
	}
	return &p, nil
}

// QuizPromptSchema is the exact schema line shown to the model when
// requesting structured quiz JSON.
const QuizPromptSchema = `{"question":"...","options":["...","...","...","..."],"correct_index":2,"explanation":"..."}`
