package web

import (
	"fmt"

	"mentor/pkg/channels"
	"mentor/pkg/config"
	"mentor/pkg/gateway"

	jsoniter "github.com/json-iterator/go"
)

// WebFactory handles creation of Web channels.
type WebFactory struct{}

// Create implements channels.ChannelFactory.
func (f *WebFactory) Create(rawConfig jsoniter.RawMessage, system *config.SystemConfig) (gateway.Channel, error) {
	pCfg := WebConfig{Port: 8080}

	if err := json.Unmarshal(rawConfig, &pCfg); err != nil {
		return nil, fmt.Errorf("failed to parse web config: %w", err)
	}

	return NewWebChannel(pCfg), nil
}

func init() {
	channels.RegisterChannel("web", &WebFactory{})
}
