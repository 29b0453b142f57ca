package parser

import (
	"fmt"
	"sort"
	"time"

	"vidalaboral/internal/config"
	"vidalaboral/internal/port"
)

// ProviderFactory is a function that creates a DocumentParser from a provider config.
type ProviderFactory func(cfg *config.ParserProviderConfig) (port.DocumentParser, error)

// registry of parser provider factories, populated by init() in each provider package.
var providers = map[string]ProviderFactory{}

// RegisterProvider registers a parser provider factory by name.
func RegisterProvider(name string, factory ProviderFactory) {
	providers[name] = factory
}

// Providers lists the registered provider names.
func Providers() []string {
	names := make([]string, 0, len(providers))
	for name := range providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// NewParser creates a DocumentParser from a provider config using the registered factory.
func NewParser(cfg *config.ParserProviderConfig) (port.DocumentParser, error) {
	factory, ok := providers[cfg.Provider]
	if !ok {
		return nil, fmt.Errorf("unknown parser provider: %s", cfg.Provider)
	}
	return factory(cfg)
}

var retryBackoff = 2 * time.Second

// NewFromConfig builds the configured provider chain. Providers with
// MaxRetries get a RetryParser; a single provider is returned on its own,
// several are wrapped in a FallbackParser in config order.
func NewFromConfig(cfg *config.ParserConfig) (port.DocumentParser, error) {
	pcs := cfg.Providers()
	if len(pcs) == 0 {
		return nil, fmt.Errorf("no parser provider configured")
	}

	parsers := make([]port.DocumentParser, 0, len(pcs))
	names := make([]string, 0, len(pcs))
	for _, pc := range pcs {
		p, err := NewParser(pc)
		if err != nil {
			return nil, err
		}
		if pc.MaxRetries > 0 {
			p = NewRetryParser(p, pc.Provider, pc.MaxRetries, retryBackoff)
		}
		parsers = append(parsers, p)
		names = append(names, pc.Provider)
	}
	if len(parsers) == 1 {
		return parsers[0], nil
	}
	return NewFallbackParser(parsers, names), nil
}
