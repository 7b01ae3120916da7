// Package command turns raw student input into one of a closed set of
// intents. Slash-prefixed input is always a command attempt: a token the
// parser does not recognize is an error, never a question for the model.
package command

import (
	"fmt"
	"strings"
)

// Intent is the closed result set of Parse.
type Intent interface {
	isIntent()
}

// Config sets a per-user configuration field (subject, topic).
type Config struct {
	Field string
	Value string
}

// ToolCall invokes a deterministic tool by name.
type ToolCall struct {
	Name string
	Args string
}

// QuizAction enumerates quiz control verbs.
type QuizAction int

const (
	ActionStart QuizAction = iota
	ActionNext
	ActionStop
)

// QuizCtl controls the quiz state machine.
type QuizCtl struct {
	Action QuizAction
}

// Help asks for the command reference.
type Help struct{}

// Greeting asks for the welcome-back message with the user's last context.
type Greeting struct{}

// FreeForm is everything that is not a slash command.
type FreeForm struct {
	Text string
}

func (Config) isIntent()   {}
func (ToolCall) isIntent() {}
func (QuizCtl) isIntent()  {}
func (Help) isIntent()     {}
func (Greeting) isIntent() {}
func (FreeForm) isIntent() {}

// UnknownCommandError reports a slash token the parser does not recognize.
type UnknownCommandError struct {
	Token string
}

func (e *UnknownCommandError) Error() string {
	return fmt.Sprintf("unknown command: /%s", e.Token)
}

// Parser classifies raw input. isTool reports whether a token names a
// registered tool, so the command layer stays decoupled from the registry.
type Parser struct {
	isTool func(name string) bool
}

// NewParser creates a Parser backed by a tool-name checker.
func NewParser(isTool func(name string) bool) *Parser {
	if isTool == nil {
		isTool = func(string) bool { return false }
	}
	return &Parser{isTool: isTool}
}

// Parse classifies one line of input.
func (p *Parser) Parse(input string) (Intent, error) {
	text := strings.TrimSpace(input)
	if !strings.HasPrefix(text, "/") {
		return FreeForm{Text: text}, nil
	}

	token, args := splitCommand(text[1:])

	switch token {
	case "subject", "topic":
		return Config{Field: token, Value: strings.TrimSpace(args)}, nil

	case "quiz":
		return parseQuiz(args)

	case "help":
		return Help{}, nil

	case "start":
		return Greeting{}, nil
	}

	if p.isTool(token) {
		return ToolCall{Name: token, Args: strings.TrimSpace(args)}, nil
	}

	return nil, &UnknownCommandError{Token: token}
}

func parseQuiz(args string) (Intent, error) {
	verb, _ := splitCommand(strings.TrimSpace(args))
	switch strings.ToLower(verb) {
	case "", "start":
		return QuizCtl{Action: ActionStart}, nil
	case "next":
		return QuizCtl{Action: ActionNext}, nil
	case "stop":
		return QuizCtl{Action: ActionStop}, nil
	}
	return nil, &UnknownCommandError{Token: "quiz " + verb}
}

// splitCommand splits "token rest of line" at the first whitespace run.
func splitCommand(s string) (token, args string) {
	i := strings.IndexAny(s, " \t")
	if i < 0 {
		return strings.ToLower(s), ""
	}
	return strings.ToLower(s[:i]), s[i+1:]
}
