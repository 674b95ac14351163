package pubproxy

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pubproxy/pkg/errors"
	"pubproxy/pkg/logger"
)

// mockRoundTripper allows us to intercept HTTP requests
type mockRoundTripper struct {
	handler func(req *http.Request) (*http.Response, error)
}

func (m *mockRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	return m.handler(req)
}

// newResponse creates an HTTP response with the given body
func newResponse(statusCode int, body string) *http.Response {
	return &http.Response{
		StatusCode: statusCode,
		Body:       io.NopCloser(strings.NewReader(body)),
		Header:     make(http.Header),
	}
}

// successBody builds the JSON body of a successful API response
func successBody(proxies ...string) string {
	resp := apiResponse{Count: len(proxies)}
	for _, p := range proxies {
		parts := strings.SplitN(p, ":", 2)
		resp.Data = append(resp.Data, proxyEntry{
			IPPort: p,
			IP:     parts[0],
			Port:   parts[1],
		})
	}
	data, _ := json.Marshal(resp)
	return string(data)
}

// scriptedAPI serves a fixed sequence of bodies, repeating the last
// one, and records when each request arrived
type scriptedAPI struct {
	mu     sync.Mutex
	bodies []string
	calls  []time.Time
}

func (s *scriptedAPI) RoundTrip(req *http.Request) (*http.Response, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := len(s.calls)
	s.calls = append(s.calls, time.Now())
	if idx >= len(s.bodies) {
		idx = len(s.bodies) - 1
	}
	return newResponse(http.StatusOK, s.bodies[idx]), nil
}

func (s *scriptedAPI) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

func (s *scriptedAPI) callTimes() []time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]time.Time, len(s.calls))
	copy(out, s.calls)
	return out
}

// newTestFetcher wires a Fetcher to a mock transport and a capturing logger
func newTestFetcher(t *testing.T, opts Options, shared *Shared, rt http.RoundTripper) *Fetcher {
	t.Helper()

	f, err := NewWithShared(opts, shared)
	require.NoError(t, err)

	log := logger.NewTestLogger()
	f.logger = log
	f.client.logger = log
	f.client.httpClient = &http.Client{Transport: rt, Timeout: 30 * time.Second}
	return f
}

func TestGetProxy(t *testing.T) {
	t.Setenv(EnvAPIKey, "")

	api := &scriptedAPI{bodies: []string{
		successBody("1.1.1.1:80", "2.2.2.2:8080", "3.3.3.3:3128"),
	}}
	f := newTestFetcher(t, Options{}, NewShared(), api)

	proxy, err := f.GetProxy()
	require.NoError(t, err)
	assert.Equal(t, "1.1.1.1:80", proxy)
	assert.Equal(t, 2, f.Buffered())
}

func TestGetProxiesOrderAndBatching(t *testing.T) {
	t.Setenv(EnvAPIKey, "")

	api := &scriptedAPI{bodies: []string{
		successBody("1.0.0.1:80", "1.0.0.2:80", "1.0.0.3:80", "1.0.0.4:80", "1.0.0.5:80"),
		successBody("2.0.0.1:80", "2.0.0.2:80", "2.0.0.3:80", "2.0.0.4:80", "2.0.0.5:80"),
		successBody("3.0.0.1:80", "3.0.0.2:80", "3.0.0.3:80", "3.0.0.4:80", "3.0.0.5:80"),
	}}
	f := newTestFetcher(t, Options{}, NewShared(), api)

	proxies, err := f.GetProxies(12)
	require.NoError(t, err)

	require.Len(t, proxies, 12)
	assert.Equal(t, 3, api.callCount())

	// First-received order is preserved across batches.
	assert.Equal(t, "1.0.0.1:80", proxies[0])
	assert.Equal(t, "2.0.0.1:80", proxies[5])
	assert.Equal(t, "3.0.0.2:80", proxies[11])

	// All distinct.
	seen := make(map[string]struct{})
	for _, p := range proxies {
		_, dup := seen[p]
		assert.False(t, dup, "duplicate proxy %s", p)
		seen[p] = struct{}{}
	}

	// Keyless calls are paced at least a second apart.
	times := api.callTimes()
	for i := 1; i < len(times); i++ {
		gap := times[i].Sub(times[i-1])
		assert.GreaterOrEqual(t, gap, 900*time.Millisecond,
			"calls %d and %d only %v apart", i-1, i, gap)
	}

	// The three leftover records remain buffered.
	assert.Equal(t, 3, f.Buffered())
}

func TestGetProxiesAmountPolicy(t *testing.T) {
	t.Setenv(EnvAPIKey, "")

	f := newTestFetcher(t, Options{}, NewShared(), &scriptedAPI{bodies: []string{successBody()}})

	for _, amount := range []int{0, -1} {
		_, err := f.GetProxies(amount)
		require.Error(t, err)
		assert.True(t, errors.IsConfiguration(err))
	}
}

func TestDeduplicationAcrossFetchers(t *testing.T) {
	t.Setenv(EnvAPIKey, "")

	// Overlapping batches: every call repeats proxies from the one before.
	api := &scriptedAPI{bodies: []string{
		successBody("1.1.1.1:80", "1.1.1.2:80", "1.1.1.3:80", "1.1.1.4:80", "1.1.1.5:80"),
		successBody("1.1.1.3:80", "1.1.1.4:80", "1.1.1.5:80", "1.1.1.6:80", "1.1.1.7:80"),
		successBody("1.1.1.6:80", "1.1.1.7:80", "1.1.1.8:80", "1.1.1.9:80", "1.1.2.1:80"),
	}}

	shared := NewShared()
	pf1 := newTestFetcher(t, Options{}, shared, api)
	pf2 := newTestFetcher(t, Options{}, shared, api)

	first, err := pf1.GetProxies(4)
	require.NoError(t, err)
	second, err := pf2.GetProxies(4)
	require.NoError(t, err)

	seen := make(map[string]struct{})
	for _, p := range append(append([]string{}, first...), second...) {
		_, dup := seen[p]
		assert.False(t, dup, "proxy %s returned twice", p)
		seen[p] = struct{}{}
	}
	assert.Len(t, seen, 8)
}

func TestDuplicatesWithinOneBatch(t *testing.T) {
	t.Setenv(EnvAPIKey, "")

	api := &scriptedAPI{bodies: []string{
		successBody("1.1.1.1:80", "1.1.1.1:80", "1.1.1.2:80"),
	}}
	f := newTestFetcher(t, Options{}, NewShared(), api)

	proxies, err := f.GetProxies(2)
	require.NoError(t, err)
	assert.Equal(t, []string{"1.1.1.1:80", "1.1.1.2:80"}, proxies)
}

func TestAllowReuseSkipsDeduplication(t *testing.T) {
	t.Setenv(EnvAPIKey, "")

	api := &scriptedAPI{bodies: []string{
		successBody("1.1.1.1:80", "1.1.1.2:80"),
	}}

	shared := NewShared()
	pf1 := newTestFetcher(t, Options{AllowReuse: true}, shared, api)
	pf2 := newTestFetcher(t, Options{AllowReuse: true}, shared, api)

	first, err := pf1.GetProxies(2)
	require.NoError(t, err)
	second, err := pf2.GetProxies(2)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 0, shared.UsedCount())
}

func TestKeylessRequestsShareOneClock(t *testing.T) {
	t.Setenv(EnvAPIKey, "")

	api := &scriptedAPI{bodies: []string{
		successBody("1.1.1.1:80", "1.1.1.2:80", "1.1.1.3:80", "1.1.1.4:80", "1.1.1.5:80"),
		successBody("2.1.1.1:80", "2.1.1.2:80", "2.1.1.3:80", "2.1.1.4:80", "2.1.1.5:80"),
	}}

	shared := NewShared()
	pf1 := newTestFetcher(t, Options{}, shared, api)
	pf2 := newTestFetcher(t, Options{}, shared, api)

	_, err := pf1.GetProxies(1)
	require.NoError(t, err)

	// A different Fetcher on the same shared state still observes the delay.
	start := time.Now()
	_, err = pf2.GetProxies(1)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, time.Since(start), 900*time.Millisecond)
}

func TestKeyedRequestsAreNotDelayed(t *testing.T) {
	api := &scriptedAPI{bodies: []string{
		successBody("1.1.1.1:80", "1.1.1.2:80", "1.1.1.3:80"),
		successBody("2.1.1.1:80", "2.1.1.2:80", "2.1.1.3:80"),
	}}

	shared := NewShared()
	// Prime the shared clock as a keyless fetcher would.
	shared.limiter.Wait()

	premium := newTestFetcher(t, Options{APIKey: "<key>"}, shared, api)

	start := time.Now()
	_, err := premium.GetProxies(3)
	require.NoError(t, err)
	assert.Less(t, time.Since(start), 100*time.Millisecond)
}

func TestAPIKeyError(t *testing.T) {
	t.Setenv(EnvAPIKey, "")

	api := &scriptedAPI{bodies: []string{
		"Invalid API. Get your API at http://pubproxy.com/#premium",
	}}
	f := newTestFetcher(t, Options{}, NewShared(), api)

	_, err := f.GetProxy()
	require.Error(t, err)
	assert.True(t, errors.IsAPIKey(err))
}

func TestDailyLimitFailsAtomically(t *testing.T) {
	t.Setenv(EnvAPIKey, "")

	api := &scriptedAPI{bodies: []string{
		successBody("1.1.1.1:80", "1.1.1.2:80", "1.1.1.3:80", "1.1.1.4:80", "1.1.1.5:80"),
		"You reached the maximum 50 requests for today. Get your API to make unlimited requests at http://pubproxy.com/#premium",
	}}
	f := newTestFetcher(t, Options{}, NewShared(), api)

	proxies, err := f.GetProxies(10)
	require.Error(t, err)
	assert.True(t, errors.IsDailyLimit(err))
	assert.Nil(t, proxies)

	// The five records fetched before the failure stay buffered.
	assert.Equal(t, 5, f.Buffered())
	assert.Len(t, f.Drain(), 5)
}

func TestEmptyBatchIsNotFatal(t *testing.T) {
	t.Setenv(EnvAPIKey, "")

	api := &scriptedAPI{bodies: []string{
		"No proxy",
		successBody("1.1.1.1:80", "1.1.1.2:80", "1.1.1.3:80"),
	}}
	f := newTestFetcher(t, Options{}, NewShared(), api)

	proxies, err := f.GetProxies(3)
	require.NoError(t, err)
	assert.Len(t, proxies, 3)
	assert.Equal(t, 2, api.callCount())
}

func TestDrain(t *testing.T) {
	t.Setenv(EnvAPIKey, "")

	api := &scriptedAPI{bodies: []string{
		successBody("1.1.1.1:80", "1.1.1.2:80", "1.1.1.3:80"),
	}}
	f := newTestFetcher(t, Options{}, NewShared(), api)

	_, err := f.GetProxy()
	require.NoError(t, err)

	rest := f.Drain()
	assert.Equal(t, []string{"1.1.1.2:80", "1.1.1.3:80"}, rest)
	assert.Equal(t, 0, f.Buffered())
	assert.Empty(t, f.Drain())
}

func TestSharedReset(t *testing.T) {
	shared := NewShared()

	require.True(t, shared.Claim("1.1.1.1:80"))
	require.False(t, shared.Claim("1.1.1.1:80"))
	assert.Equal(t, 1, shared.UsedCount())

	shared.Reset()
	assert.Equal(t, 0, shared.UsedCount())
	assert.True(t, shared.Claim("1.1.1.1:80"))
}
