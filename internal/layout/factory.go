package layout

import (
	"fmt"

	"invoiceflow/internal/config"
	"invoiceflow/internal/port"
)

// ProviderFactory creates a LayoutAnalyzer from the layout config.
type ProviderFactory func(cfg *config.LayoutConfig) (port.LayoutAnalyzer, error)

// registry of layout provider factories, populated via RegisterProvider.
var providers = map[string]ProviderFactory{}

// RegisterProvider registers a layout provider factory by name.
func RegisterProvider(name string, factory ProviderFactory) {
	providers[name] = factory
}

// NewAnalyzer creates a LayoutAnalyzer using the registered factory for cfg.Provider.
func NewAnalyzer(cfg *config.LayoutConfig) (port.LayoutAnalyzer, error) {
	factory, ok := providers[cfg.Provider]
	if !ok {
		return nil, fmt.Errorf("unknown layout provider: %s", cfg.Provider)
	}
	return factory(cfg)
}
