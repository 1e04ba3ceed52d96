package marketdata

import (
	"maps"
	"slices"

	"github.com/rxtech-lab/gold-data/pkg/errors"
)

// ProviderInfo contains metadata about a market data provider.
type ProviderInfo struct {
	Name          string `json:"name" yaml:"name"`
	DisplayName   string `json:"displayName" yaml:"displayName"`
	Description   string `json:"description" yaml:"description"`
	DefaultTicker string `json:"defaultTicker" yaml:"defaultTicker"`
	RequiresAuth  bool   `json:"requiresAuth" yaml:"requiresAuth"`
	// AuthEnvVar names the environment variable holding the provider's secret.
	AuthEnvVar string `json:"authEnvVar,omitempty" yaml:"authEnvVar,omitempty"`
}

// providerRegistry holds metadata about all supported providers.
var providerRegistry = map[ProviderType]ProviderInfo{
	ProviderPolygon: {
		Name:          string(ProviderPolygon),
		DisplayName:   "Polygon.io",
		Description:   "Spot gold against the US dollar from the Polygon.io forex aggregates",
		DefaultTicker: "C:XAUUSD",
		RequiresAuth:  true,
		AuthEnvVar:    "POLYGON_API_KEY",
	},
	ProviderYahoo: {
		Name:          string(ProviderYahoo),
		DisplayName:   "Yahoo Finance",
		Description:   "COMEX gold futures continuous contract, auto-adjusted daily bars",
		DefaultTicker: "GC=F",
		RequiresAuth:  false,
	},
	ProviderBinance: {
		Name:          string(ProviderBinance),
		DisplayName:   "Binance",
		Description:   "PAX Gold, a token backed by one troy ounce of gold, quoted in USDT",
		DefaultTicker: "PAXGUSDT",
		RequiresAuth:  false,
	},
	ProviderTiingo: {
		Name:          string(ProviderTiingo),
		DisplayName:   "Tiingo",
		Description:   "SPDR Gold Shares ETF end-of-day prices",
		DefaultTicker: "GLD",
		RequiresAuth:  true,
		AuthEnvVar:    "TIINGO_TOKEN",
	},
}

// GetSupportedProviders returns the names of all supported providers in alphabetical order.
func GetSupportedProviders() []string {
	providers := make([]string, 0, len(providerRegistry))
	for _, providerType := range slices.Sorted(maps.Keys(providerRegistry)) {
		providers = append(providers, string(providerType))
	}

	return providers
}

// GetProviderInfo returns metadata for a specific provider.
func GetProviderInfo(providerName string) (ProviderInfo, error) {
	info, exists := providerRegistry[ProviderType(providerName)]
	if !exists {
		return ProviderInfo{}, errors.Newf(errors.ErrCodeInvalidProvider, "unsupported provider: %s", providerName)
	}

	return info, nil
}

// DefaultTicker returns the gold instrument a provider is queried for when no ticker is given.
func DefaultTicker(providerName string) (string, error) {
	info, err := GetProviderInfo(providerName)
	if err != nil {
		return "", err
	}

	return info.DefaultTicker, nil
}
