package pubproxy

import "time"

const (
	// BaseURL is the pubproxy API endpoint
	BaseURL = "http://pubproxy.com/api/proxy"

	// FreeBatchSize is the most proxies a keyless request may ask for
	FreeBatchSize = 5

	// PremiumBatchSize is the API's documented maximum per request with a key
	PremiumBatchSize = 20

	// RequestDelay is the minimum pause between keyless API requests.
	// The API bans clients exceeding roughly one request per second.
	RequestDelay = time.Second

	// EnvAPIKey names the environment variable consulted when
	// Options.APIKey is left empty
	EnvAPIKey = "PUBPROXY_API_KEY"

	// DefaultTimeout bounds a single API request when Options.Timeout
	// is left unset
	DefaultTimeout = 30 * time.Second
)
