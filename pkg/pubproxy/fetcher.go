package pubproxy

import (
	"net/url"
	"os"
	"slices"

	"pubproxy/pkg/errors"
	"pubproxy/pkg/logger"
)

// Fetcher hands out proxies matching a validated set of filter options,
// refilling its internal buffer from the API in batches as needed.
//
// A Fetcher is not safe for concurrent use. The shared state it
// coordinates through is mutex-guarded, so misuse from multiple
// goroutines cannot corrupt the used set or the request clock, but the
// library defines no concurrent fetching semantics: drive all Fetchers
// from one goroutine.
type Fetcher struct {
	opts   Options
	query  url.Values
	hasKey bool
	buffer []string
	shared *Shared
	client *Client
	logger logger.Logger
}

// New creates a Fetcher coordinated through the process-wide shared
// state: one request clock and one used set across all such Fetchers.
// Options are validated eagerly; no network access happens here.
func New(opts Options) (*Fetcher, error) {
	return NewWithShared(opts, defaultShared)
}

// NewWithShared creates a Fetcher coordinated through an explicit
// shared handle instead of the process-wide one
func NewWithShared(opts Options, shared *Shared) (*Fetcher, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}

	key := opts.APIKey
	if key == "" {
		key = os.Getenv(EnvAPIKey)
	}

	log := logger.GetLogger()

	return &Fetcher{
		opts:   opts,
		query:  opts.query(key),
		hasKey: key != "",
		shared: shared,
		client: NewClient(opts.Timeout, log),
		logger: log,
	}, nil
}

// GetProxy returns a single proxy record in ip:port form
func (f *Fetcher) GetProxy() (string, error) {
	proxies, err := f.GetProxies(1)
	if err != nil {
		return "", err
	}
	return proxies[0], nil
}

// GetProxies returns exactly amount proxy records in the order they
// were received from the API. If the API fails before amount records
// are available, the error is returned and nothing is handed out; the
// records gathered so far stay buffered for a later call. An amount
// below 1 is a configuration error.
func (f *Fetcher) GetProxies(amount int) ([]string, error) {
	if amount <= 0 {
		return nil, errors.Newf(errors.KindConfiguration,
			"amount must be positive, got %d", amount)
	}

	for len(f.buffer) < amount {
		batch, err := f.fetch()
		if err != nil {
			return nil, err
		}
		f.buffer = append(f.buffer, batch...)
	}

	out := make([]string, amount)
	copy(out, f.buffer[:amount])
	f.buffer = f.buffer[amount:]

	f.logger.DebugWithFields("proxies handed out", map[string]interface{}{
		"amount":   amount,
		"buffered": len(f.buffer),
	})

	return out, nil
}

// Drain returns whatever is currently buffered without touching the
// network. The buffer is left empty.
func (f *Fetcher) Drain() []string {
	out := f.buffer
	f.buffer = nil
	return out
}

// Buffered reports how many fetched records are waiting to be handed out
func (f *Fetcher) Buffered() int {
	return len(f.buffer)
}

// fetch performs one gated batch request and returns the records not
// seen before. Keyless requests go through the shared clock; keyed
// requests are never delayed and leave the clock untouched.
func (f *Fetcher) fetch() ([]string, error) {
	if !f.hasKey {
		f.shared.limiter.Wait()
	}

	candidates, err := f.client.FetchBatch(f.query)
	if err != nil {
		return nil, err
	}

	var fresh []string
	for _, p := range candidates {
		if slices.Contains(f.buffer, p) || slices.Contains(fresh, p) {
			continue
		}
		if !f.opts.AllowReuse && !f.shared.Claim(p) {
			continue
		}
		fresh = append(fresh, p)
	}

	f.logger.DebugWithFields("batch processed", map[string]interface{}{
		"candidates": len(candidates),
		"new":        len(fresh),
	})

	return fresh, nil
}
