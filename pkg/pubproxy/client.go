package pubproxy

import (
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"time"

	"pubproxy/pkg/errors"
	"pubproxy/pkg/logger"
)

// Client performs the HTTP conversation with the pubproxy API. It does
// no pacing or deduplication of its own; that is the Fetcher's job.
type Client struct {
	httpClient *http.Client
	baseURL    string
	logger     logger.Logger
}

// NewClient creates a new pubproxy API client
func NewClient(timeout time.Duration, log logger.Logger) *Client {
	if log == nil {
		log = logger.GetLogger()
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: BaseURL,
		logger:  log,
	}
}

// FetchBatch issues one GET with the given parameters and returns the
// proxy records of the response in order. A body reporting that no
// proxy matched the criteria yields an empty batch and no error; every
// other non-success body is classified into a typed error.
func (c *Client) FetchBatch(params url.Values) ([]string, error) {
	reqURL := c.baseURL + "?" + params.Encode()

	start := time.Now()
	c.logger.DebugWithFields("sending API request", map[string]interface{}{
		"url": redactKey(params, c.baseURL),
	})

	resp, err := c.httpClient.Get(reqURL)
	duration := time.Since(start)

	if err != nil {
		c.logger.ErrorWithFields("API request failed", map[string]interface{}{
			"error":    err.Error(),
			"duration": duration,
		})
		return nil, errors.Newf(errors.KindProxy, "request failed: %v", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Newf(errors.KindProxy, "failed to read response body: %v", err)
	}

	// The API signals errors through the body text, not the HTTP
	// status, so classification starts from a failed JSON parse.
	var parsed apiResponse
	if err := json.Unmarshal(body, &parsed); err != nil || parsed.Data == nil {
		text := string(body)
		if errors.EmptyBatch(text) {
			c.logger.DebugWithFields("no proxies matched criteria", map[string]interface{}{
				"duration": duration,
			})
			return nil, nil
		}

		apiErr := errors.FromAPIBody(text)
		c.logger.WarnWithFields("API returned an error body", map[string]interface{}{
			"kind":     string(apiErr.Kind),
			"duration": duration,
		})
		return nil, apiErr
	}

	records := make([]string, 0, len(parsed.Data))
	for _, entry := range parsed.Data {
		if entry.IPPort != "" {
			records = append(records, entry.IPPort)
		}
	}

	c.logger.DebugWithFields("API request completed", map[string]interface{}{
		"status":   resp.StatusCode,
		"records":  len(records),
		"duration": duration,
	})

	return records, nil
}

// redactKey renders the request URL for logging with the credential
// masked out
func redactKey(params url.Values, baseURL string) string {
	if params.Get("api") == "" {
		return baseURL + "?" + params.Encode()
	}

	clone := url.Values{}
	for k, vs := range params {
		for _, v := range vs {
			clone.Add(k, v)
		}
	}
	clone.Set("api", "REDACTED")
	return baseURL + "?" + clone.Encode()
}
