package ollama

import (
	"log/slog"

	"mentor/pkg/config"
	"mentor/pkg/llm"
)

// OllamaFactory handles creation of Ollama clients.
type OllamaFactory struct{}

// Create implements llm.ProviderFactory.
func (f *OllamaFactory) Create(cfg llm.ProviderGroupConfig, sys *config.SystemConfig) ([]llm.Client, error) {
	var clients []llm.Client

	for _, model := range cfg.Models {
		client, err := NewOllamaClient(model, cfg.BaseURL, cfg.Options)
		if err != nil {
			slog.Warn("Failed to create Ollama client", "model", model, "error", err)
			continue
		}
		clients = append(clients, client)
	}
	return clients, nil
}

func init() {
	llm.RegisterProvider("ollama", &OllamaFactory{})
}
