package gemini

import (
	"mentor/pkg/config"
	"mentor/pkg/llm"
)

// GeminiFactory handles creation of Gemini clients.
type GeminiFactory struct{}

// Create implements llm.ProviderFactory.
func (f *GeminiFactory) Create(cfg llm.ProviderGroupConfig, sys *config.SystemConfig) ([]llm.Client, error) {
	var clients []llm.Client

	// Cartesian product: models x keys (prioritize models)
	for _, model := range cfg.Models {
		for _, key := range cfg.APIKeys {
			client, err := NewGeminiClient(key, model)
			if err != nil {
				return nil, err
			}
			clients = append(clients, client)
		}
	}
	return clients, nil
}

func init() {
	llm.RegisterProvider("gemini", &GeminiFactory{})
}
