// Package pubproxy provides a client for the pubproxy.com proxy API.
//
// This package includes:
//   - A Fetcher that buffers batches of proxies matching filter options
//   - Eager client-side validation of every filter combination
//   - Process-wide deduplication so no proxy is handed out twice
//   - Shared pacing of keyless requests to stay under the API's limit
//
// Example usage:
//
//	fetcher, err := pubproxy.New(pubproxy.Options{
//	    Level:    pubproxy.LevelElite,
//	    Protocol: pubproxy.ProtocolHTTP,
//	    HTTPS:    pubproxy.Bool(true),
//	})
//	if err != nil {
//	    // invalid filter combination
//	}
//
//	proxy, err := fetcher.GetProxy()       // one "ip:port" record
//	proxies, err := fetcher.GetProxies(10) // exactly ten records
//
// Fetchers constructed with New coordinate through one process-wide
// clock and used set. The API bans keyless clients that exceed roughly
// one request per second, so blocking in GetProxies while the shared
// clock runs down is normal and expected. Supplying an API key (either
// in Options or through PUBPROXY_API_KEY) removes the delay and raises
// the batch size.
//
// The library is single-thread-cooperative: drive all Fetchers from one
// goroutine.
package pubproxy
