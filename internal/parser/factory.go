package parser

import (
	"fmt"

	"invoiceflow/internal/config"
	"invoiceflow/internal/port"
)

// ProviderFactory is a function that creates a CompletionClient from a provider config.
type ProviderFactory func(cfg *config.ParserProviderConfig) (port.CompletionClient, error)

// registry of completion provider factories, populated via RegisterProvider.
var providers = map[string]ProviderFactory{}

// RegisterProvider registers a completion provider factory by name.
func RegisterProvider(name string, factory ProviderFactory) {
	providers[name] = factory
}

// NewClient creates a CompletionClient from a provider config using the registered factory.
func NewClient(cfg *config.ParserProviderConfig) (port.CompletionClient, error) {
	factory, ok := providers[cfg.Provider]
	if !ok {
		return nil, fmt.Errorf("unknown parser provider: %s", cfg.Provider)
	}
	return factory(cfg)
}

// NewClients builds every configured provider in fallback order. A single
// provider is returned as is; several are wrapped in a FallbackClient.
func NewClients(cfgs []*config.ParserProviderConfig) (port.CompletionClient, error) {
	if len(cfgs) == 0 {
		return nil, fmt.Errorf("no parser providers configured")
	}
	clients := make([]port.CompletionClient, 0, len(cfgs))
	names := make([]string, 0, len(cfgs))
	for _, cfg := range cfgs {
		c, err := NewClient(cfg)
		if err != nil {
			return nil, fmt.Errorf("creating %s client: %w", cfg.Provider, err)
		}
		clients = append(clients, c)
		names = append(names, cfg.Provider)
	}
	if len(clients) == 1 {
		return clients[0], nil
	}
	return NewFallbackClient(clients, names), nil
}
