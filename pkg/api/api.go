package api

import "strings"

// Mode selects the response template used when a turn is answered by the LLM.
// It changes how the answer is structured, not how the turn is routed.
type Mode string

const (
	ModeTutor  Mode = "tutor"  // step-by-step explanation
	ModeDirect Mode = "direct" // answer first, short verification
	ModeReview Mode = "review" // definition, minimal example, self-check questions
	ModeLab    Mode = "lab"    // procedure, assumptions, what to measure
	ModeQuiz   Mode = "quiz"   // terse, exam-style
)

// ParseMode normalizes a user/UI supplied mode string, defaulting to tutor.
func ParseMode(s string) Mode {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeDirect:
		return ModeDirect
	case ModeReview:
		return ModeReview
	case ModeLab:
		return ModeLab
	case ModeQuiz:
		return ModeQuiz
	default:
		return ModeTutor
	}
}

// Source identifies which subsystem produced a response. It is attached to
// every Response and to every persisted interaction record.
type Source string

const (
	SourceTool     Source = "tool"     // deterministic tool result
	SourceQuiz     Source = "quiz"     // quiz state machine
	SourceLLM      Source = "llm"      // successful model completion
	SourceFallback Source = "fallback" // degraded-mode replacement for a failed completion
	SourceSystem   Source = "system"   // acknowledgements, help, corrective messages
)

// SessionContext encapsulates identity and routing information for a specific
// conversation unit on a specific communication channel.
type SessionContext struct {
	ChannelID string // Identifier of the channel that originated the session (e.g., "telegram")
	UserID    string // Platform-specific unique identifier for the user
	ChatID    string // Platform-specific identifier for the chat (may match UserID for DMs)
	Username  string // Student name; the key the engine partitions state by
}

// UnifiedMessage is the standardized internal form of one incoming turn.
type UnifiedMessage struct {
	Session   SessionContext // Contextual information about the source (User, Chat)
	Content   string         // Raw text of the turn
	Mode      Mode           // Response template requested by the UI
	UseMemory bool           // Whether prior interactions may be injected into the prompt
}

// Response is the single reply produced for one turn.
type Response struct {
	Text   string
	Source Source
}

// Channel defines the standardized lifecycle interface for communication platforms.
type Channel interface {
	ID() string
	Start(ctx ChannelContext) error
	Stop() error
	Send(session SessionContext, resp Response) error
}

// ChannelContext provides the interface for a Channel implementation to
// communicate back with the Gateway core.
type ChannelContext interface {
	MessageResponder
	OnMessage(channelID string, msg *UnifiedMessage)
}

// MessageResponder defines the capability of sending responses back to a channel.
type MessageResponder interface {
	SendReply(session SessionContext, resp Response) error
}

// MessageHandler defines the function signature for processing incoming messages.
type MessageHandler func(*UnifiedMessage)

// OnMessage allows MessageHandler to satisfy the MessageProcessor interface.
func (h MessageHandler) OnMessage(msg *UnifiedMessage) {
	h(msg)
}

// MessageProcessor defines the interface for components that can process incoming messages.
type MessageProcessor interface {
	OnMessage(msg *UnifiedMessage)
}
