package gateway

import (
	"fmt"

	"mentor/pkg/monitor"

	jsoniter "github.com/json-iterator/go"
)

// GatewayBuilder assembles a GatewayManager from pre-built parts: channels,
// monitor, and the engine handler. The handler is constructed last, once the
// gateway exists, so it can capture the gateway as its responder.
type GatewayBuilder struct {
	gw             *GatewayManager
	monitor        monitor.Monitor
	channels       []Channel
	channelConfigs map[string]jsoniter.RawMessage
	channelLoader  func(*GatewayManager, map[string]jsoniter.RawMessage)
	handlerFactory func(MessageResponder) MessageHandler
}

// NewGatewayBuilder creates a fresh builder.
func NewGatewayBuilder() *GatewayBuilder {
	return &GatewayBuilder{
		gw: NewGatewayManager(),
	}
}

// WithMonitor injects a transcript monitor, started during Build.
func (b *GatewayBuilder) WithMonitor(m monitor.Monitor) *GatewayBuilder {
	b.monitor = m
	return b
}

// WithChannel adds pre-built channel instances.
func (b *GatewayBuilder) WithChannel(channels ...Channel) *GatewayBuilder {
	b.channels = append(b.channels, channels...)
	return b
}

// WithChannelConfigs supplies the raw per-channel config sections.
func (b *GatewayBuilder) WithChannelConfigs(configs map[string]jsoniter.RawMessage) *GatewayBuilder {
	b.channelConfigs = configs
	return b
}

// WithChannelLoader registers the strategy that turns channel configs into
// registered channel instances (typically channels.LoadFromConfig).
func (b *GatewayBuilder) WithChannelLoader(loader func(*GatewayManager, map[string]jsoniter.RawMessage)) *GatewayBuilder {
	b.channelLoader = loader
	return b
}

// WithHandlerFactory registers the strategy that builds the engine handler
// around the gateway's responder.
func (b *GatewayBuilder) WithHandlerFactory(f func(MessageResponder) MessageHandler) *GatewayBuilder {
	b.handlerFactory = f
	return b
}

// Build wires everything together and starts the monitor and all channels.
func (b *GatewayBuilder) Build() (*GatewayManager, error) {
	if b.monitor != nil {
		b.gw.SetMonitor(b.monitor)
		if err := b.monitor.Start(); err != nil {
			return nil, fmt.Errorf("failed to start monitor: %w", err)
		}
	}

	for _, c := range b.channels {
		b.gw.Register(c)
	}

	if b.channelLoader != nil && len(b.channelConfigs) > 0 {
		b.channelLoader(b.gw, b.channelConfigs)
	}

	if b.handlerFactory != nil {
		if handler := b.handlerFactory(b.gw); handler != nil {
			b.gw.SetMessageHandler(handler)
		}
	}

	if err := b.gw.StartAll(); err != nil {
		return nil, fmt.Errorf("failed to start channels: %w", err)
	}

	return b.gw, nil
}
