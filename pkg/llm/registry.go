package llm

import (
	"mentor/pkg/config"
)

// ProviderGroupConfig defines the configuration for one group of models.
// It is the standard input for every ProviderFactory.
type ProviderGroupConfig struct {
	Type    string         `json:"type"`
	APIKeys []string       `json:"api_keys,omitempty"`
	Models  []string       `json:"models"`
	BaseURL string         `json:"base_url,omitempty"`
	Options map[string]any `json:"options,omitempty"`
}

// ProviderFactory builds the atomic clients for one provider group.
type ProviderFactory interface {
	Create(groupConfig ProviderGroupConfig, systemConfig *config.SystemConfig) ([]Client, error)
}

// Global provider registry, populated by provider package init().
var providerRegistry = make(map[string]ProviderFactory)

// RegisterProvider registers a ProviderFactory under a type name.
func RegisterProvider(name string, factory ProviderFactory) {
	providerRegistry[name] = factory
}

// GetProviderFactory retrieves a registered factory by type name.
func GetProviderFactory(name string) (ProviderFactory, bool) {
	f, ok := providerRegistry[name]
	return f, ok
}
