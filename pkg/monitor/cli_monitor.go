package monitor

import (
	"fmt"
	"io"
	"os"
)

// CLIMonitor implements the Monitor interface, providing a direct
// terminal-based transcript of turns flowing through all channels.
type CLIMonitor struct {
	writer io.Writer // The output destination, typically os.Stdout.
}

// NewCLIMonitor creates a new CLI monitor.
func NewCLIMonitor() *CLIMonitor {
	return &CLIMonitor{
		writer: os.Stdout,
	}
}

// Start starts the CLI monitor.
func (m *CLIMonitor) Start() error {
	fmt.Fprintln(m.writer, "----------------------------------------------------------------")
	fmt.Fprintln(m.writer, "💬 CLI Monitor Active - All channel turns will appear here")
	fmt.Fprintln(m.writer, "----------------------------------------------------------------")
	return nil
}

// Stop stops the CLI monitor.
func (m *CLIMonitor) Stop() error {
	return nil
}

// OnTurn receives and displays one turn record.
func (m *CLIMonitor) OnTurn(rec TurnRecord) {
	timestamp := rec.Timestamp.Format("2006-01-02 15:04:05")

	var displayMsg string
	if rec.Kind == "ASSISTANT" {
		displayMsg = fmt.Sprintf("[AI/%s] %s", rec.Source, rec.Content)
	} else {
		displayMsg = fmt.Sprintf("[%s/%s] %s", rec.ChannelID, rec.Username, rec.Content)
	}

	// Gray timestamp prefix
	fmt.Fprintf(m.writer, "\033[90m[%s]\033[0m %s\n", timestamp, displayMsg)
}
