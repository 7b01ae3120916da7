package channels

import (
	"mentor/pkg/config"
	"mentor/pkg/gateway"

	jsoniter "github.com/json-iterator/go"
)

// ChannelFactory defines the abstract interface for platform-specific
// channel creators, so new platforms can be added without touching the
// gateway core.
type ChannelFactory interface {
	// Create instantiates a concrete Channel implementation from its raw
	// config section and shared system settings.
	Create(rawConfig jsoniter.RawMessage, system *config.SystemConfig) (gateway.Channel, error)
}

// channelRegistry maps platform names (e.g., "telegram") to factories.
var channelRegistry = make(map[string]ChannelFactory)

// RegisterChannel adds a ChannelFactory to the registry, typically from a
// package init().
func RegisterChannel(name string, factory ChannelFactory) {
	channelRegistry[name] = factory
}

// GetChannelFactory retrieves a registered ChannelFactory by platform name.
func GetChannelFactory(name string) (ChannelFactory, bool) {
	f, ok := channelRegistry[name]
	return f, ok
}
