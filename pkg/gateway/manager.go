package gateway

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"mentor/pkg/api"
	"mentor/pkg/monitor"
)

// GatewayManager owns all registered channels and routes messages between
// them and the engine.
type GatewayManager struct {
	channels   map[string]Channel
	msgHandler MessageHandler
	monitor    monitor.Monitor
	mu         sync.RWMutex
}

// NewGatewayManager creates a new GatewayManager.
func NewGatewayManager() *GatewayManager {
	return &GatewayManager{
		channels: make(map[string]Channel),
	}
}

// SetMessageHandler sets the engine entry point for incoming turns.
func (g *GatewayManager) SetMessageHandler(handler MessageHandler) {
	g.msgHandler = handler
}

// SetMonitor sets the transcript monitor.
func (g *GatewayManager) SetMonitor(m monitor.Monitor) {
	g.monitor = m
}

// Register registers a channel.
func (g *GatewayManager) Register(c Channel) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.channels[c.ID()] = c
}

// GetChannel retrieves a channel by ID.
func (g *GatewayManager) GetChannel(id string) (Channel, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	c, ok := g.channels[id]
	return c, ok
}

// StartAll starts every registered channel, passing itself as the context.
func (g *GatewayManager) StartAll() error {
	g.mu.RLock()
	defer g.mu.RUnlock()

	for id, c := range g.channels {
		slog.Info("Starting channel", "channel", id)
		if err := c.Start(g); err != nil {
			return fmt.Errorf("failed to start channel %s: %w", id, err)
		}
	}
	return nil
}

// StopAll stops every channel.
func (g *GatewayManager) StopAll() {
	g.mu.RLock()
	defer g.mu.RUnlock()

	for id, c := range g.channels {
		slog.Info("Stopping channel", "channel", id)
		if err := c.Stop(); err != nil {
			slog.Warn("Error stopping channel", "channel", id, "error", err)
		}
	}
}

// SendReply delivers one response back through the originating channel.
// Empty responses (superseded turns) are dropped silently.
func (g *GatewayManager) SendReply(session SessionContext, resp Response) error {
	if resp.Text == "" {
		return nil
	}

	slog.Debug("Gateway reply", "channel", session.ChannelID,
		"username", session.Username, "source", resp.Source)

	if g.monitor != nil {
		g.monitor.OnTurn(monitor.TurnRecord{
			Timestamp: time.Now(),
			Kind:      "ASSISTANT",
			ChannelID: session.ChannelID,
			Username:  session.Username,
			Source:    string(resp.Source),
			Content:   resp.Text,
		})
	}

	c, ok := g.GetChannel(session.ChannelID)
	if !ok {
		return fmt.Errorf("channel %s not found", session.ChannelID)
	}
	return c.Send(session, resp)
}

// OnMessage implements ChannelContext: it receives a turn from a channel
// and hands it to the engine.
func (g *GatewayManager) OnMessage(channelID string, msg *UnifiedMessage) {
	slog.Debug("Gateway received", "channel", channelID,
		"username", msg.Session.Username, "mode", msg.Mode)

	if g.monitor != nil {
		g.monitor.OnTurn(monitor.TurnRecord{
			Timestamp: time.Now(),
			Kind:      "STUDENT",
			ChannelID: channelID,
			Username:  msg.Session.Username,
			Content:   msg.Content,
		})
	}

	if g.msgHandler == nil {
		slog.Warn("No message handler set, dropping turn", "channel", channelID)
		return
	}
	g.msgHandler(msg)
}

var _ api.ChannelContext = (*GatewayManager)(nil)
