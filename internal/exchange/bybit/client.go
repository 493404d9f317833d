package bybit

import (
	bybit_api "github.com/bybit-exchange/bybit.go.api"
)

// Client wraps the Bybit API client for public market data
type Client struct {
	httpClient *bybit_api.Client
	testnet    bool
	retry      RetryConfig
}

// Config holds the configuration for the Bybit client. Keys are optional;
// market endpoints are public.
type Config struct {
	APIKey    string
	APISecret string
	Testnet   bool
	BaseURL   string // overrides the environment URL when set
	Retry     *RetryConfig
}

// NewClient creates a new Bybit client
func NewClient(config Config) *Client {
	baseURL := config.BaseURL
	if baseURL == "" {
		if config.Testnet {
			baseURL = bybit_api.TESTNET
		} else {
			baseURL = bybit_api.MAINNET
		}
	}

	httpClient := bybit_api.NewBybitHttpClient(
		config.APIKey,
		config.APISecret,
		bybit_api.WithBaseURL(baseURL),
	)

	retry := DefaultRetryConfig()
	if config.Retry != nil {
		retry = *config.Retry
	}

	return &Client{
		httpClient: httpClient,
		testnet:    config.Testnet,
		retry:      retry,
	}
}

// GetEnvironment returns a string describing the current environment
func (c *Client) GetEnvironment() string {
	if c.testnet {
		return "testnet"
	}
	return "mainnet"
}
