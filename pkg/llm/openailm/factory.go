package openailm

import (
	"mentor/pkg/config"
	"mentor/pkg/llm"
)

// OpenAIFactory handles creation of OpenAI (and OpenAI-compatible) clients.
type OpenAIFactory struct{}

// Create implements llm.ProviderFactory.
func (f *OpenAIFactory) Create(cfg llm.ProviderGroupConfig, sys *config.SystemConfig) ([]llm.Client, error) {
	var clients []llm.Client

	for _, model := range cfg.Models {
		for _, key := range cfg.APIKeys {
			client, err := NewClient(cfg.Type, key, model, cfg.BaseURL)
			if err != nil {
				return nil, err
			}
			clients = append(clients, client)
		}
	}
	return clients, nil
}

func init() {
	llm.RegisterProvider("openai", &OpenAIFactory{})
}
