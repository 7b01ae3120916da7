package monitor

import "time"

// TurnRecord represents one half of a tutoring turn flowing through a channel.
type TurnRecord struct {
	Timestamp time.Time
	Kind      string // "STUDENT" or "ASSISTANT"
	ChannelID string
	Username  string
	Source    string // routing source tag, empty for student input
	Content   string
}

// Monitor receives turn records for live display or aggregation.
type Monitor interface {
	Start() error
	Stop() error
	OnTurn(rec TurnRecord)
}
