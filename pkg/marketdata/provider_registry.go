package marketdata

import (
	"encoding/json"
	"sort"

	"github.com/invopop/jsonschema"

	"github.com/rxtech-lab/argo-macd/pkg/errors"
)

// ProviderInfo contains metadata about a market data provider.
type ProviderInfo struct {
	Name              string `json:"name"`
	DisplayName       string `json:"displayName"`
	Description       string `json:"description"`
	RequiresAuth      bool   `json:"requiresAuth"`
	SupportsOrderBook bool   `json:"supportsOrderBook"`
}

var providerRegistry = map[ProviderType]ProviderInfo{
	ProviderPolygon: {
		Name:              string(ProviderPolygon),
		DisplayName:       "Polygon.io",
		Description:       "US stock and crypto aggregates with historical OHLCV data",
		RequiresAuth:      true,
		SupportsOrderBook: false,
	},
	ProviderBinance: {
		Name:              string(ProviderBinance),
		DisplayName:       "Binance",
		Description:       "Cryptocurrency exchange with public klines and order book depth",
		RequiresAuth:      false,
		SupportsOrderBook: true,
	},
}

// GetSupportedProviders returns the supported provider names, sorted.
func GetSupportedProviders() []string {
	providers := make([]string, 0, len(providerRegistry))
	for providerType := range providerRegistry {
		providers = append(providers, string(providerType))
	}

	sort.Strings(providers)

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

func toJSONSchema(v any) (string, error) {
	r := new(jsonschema.Reflector)
	r.DoNotReference = true
	r.RequiredFromJSONSchemaTags = true

	raw, err := json.Marshal(r.Reflect(v))
	if err != nil {
		return "", err
	}

	return string(raw), nil
}

// GetDownloadConfigSchema returns the JSON schema for a provider's download configuration.
func GetDownloadConfigSchema(providerName string) (string, error) {
	switch ProviderType(providerName) {
	case ProviderPolygon:
		//nolint:exhaustruct // Empty struct is intentional for schema generation
		return toJSONSchema(PolygonDownloadConfig{})
	case ProviderBinance:
		//nolint:exhaustruct // Empty struct is intentional for schema generation
		return toJSONSchema(BinanceDownloadConfig{})
	default:
		return "", errors.Newf(errors.ErrCodeInvalidProvider, "unsupported provider: %s", providerName)
	}
}

// ParseDownloadConfig parses a JSON configuration string for the given provider.
func ParseDownloadConfig(providerName string, jsonConfig string) (DownloadConfig, error) {
	var (
		config DownloadConfig
		err    error
	)

	switch ProviderType(providerName) {
	case ProviderPolygon:
		config, err = ParsePolygonConfig(jsonConfig)
	case ProviderBinance:
		config, err = ParseBinanceConfig(jsonConfig)
	default:
		return nil, errors.Newf(errors.ErrCodeInvalidProvider, "unsupported provider: %s", providerName)
	}

	if err != nil {
		return nil, err
	}

	return config, nil
}
