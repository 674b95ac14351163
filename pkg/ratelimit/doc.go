// Package ratelimit provides rate limiting for outbound pubproxy API calls.
//
// The free tier of the API allows roughly one request per second before
// it starts refusing traffic for an extended period, so the client paces
// itself rather than risking a server-side ban.
//
// Interval:
//   - Enforces a minimum gap between consecutive permits
//   - One shared clock across every holder of the same instance
//   - Wait() stamps the clock before returning, so the gap is measured
//     between request issuances rather than completions
//
// Interface:
//
// Limiters implement the Limiter interface:
//   - Allow() bool - Check if a request is allowed
//   - Wait() - Block until a request is allowed
//   - Reset() - Reset the limiter state
//
// Usage:
//
//	// At most one request per second
//	limiter := ratelimit.NewInterval(time.Second)
//
//	// Block until allowed, then issue the request
//	limiter.Wait()
//	resp, err := client.Get(url)
package ratelimit
