package pubproxy

import (
	"net/url"
	"strconv"
	"strings"
	"time"

	"pubproxy/pkg/errors"
)

// Level is the anonymity level of a proxy
type Level string

const (
	LevelAnonymous Level = "anonymous"
	LevelElite     Level = "elite"
)

// Protocol is the protocol a proxy speaks
type Protocol string

const (
	ProtocolHTTP   Protocol = "http"
	ProtocolSOCKS4 Protocol = "socks4"
	ProtocolSOCKS5 Protocol = "socks5"
)

// Options are the filter criteria a Fetcher sends to the API. The zero
// value of every field means "unset"; unset options are omitted from
// the request entirely. Boolean capabilities are tri-state pointers so
// that "don't care" and "must be false" stay distinguishable; use Bool
// to set them.
type Options struct {
	// APIKey is the paid-tier credential. When empty, the
	// PUBPROXY_API_KEY environment variable is consulted at
	// construction. A key lifts the per-second pacing and raises the
	// batch size from 5 to 20.
	APIKey string

	// Level filters by anonymity level (anonymous or elite)
	Level Level

	// Protocol filters by proxy protocol (http, socks4 or socks5)
	Protocol Protocol

	// Countries restricts results to these 2-letter country codes.
	// Mutually exclusive with NotCountries.
	Countries []string

	// NotCountries excludes these 2-letter country codes.
	// Mutually exclusive with Countries.
	NotCountries []string

	// LastChecked requires the proxy to have been checked within the
	// given number of minutes, 1 to 1000
	LastChecked int

	// Port requires the proxy to listen on this exact port
	Port int

	// TimeToConnect requires the proxy to connect within the given
	// number of seconds, 1 to 60
	TimeToConnect int

	// Capability flags
	Cookies   *bool // supports requests with cookies
	Google    *bool // can reach google.com
	HTTPS     *bool // supports HTTPS requests
	Post      *bool // supports POST requests
	Referer   *bool // supports requests with a referer
	UserAgent *bool // forwards a user-agent

	// AllowReuse disables deduplication against the shared used set.
	// By default every proxy is handed out at most once per process.
	AllowReuse bool

	// Timeout bounds a single API request; DefaultTimeout when unset
	Timeout time.Duration
}

// Bool is a helper for setting the tri-state capability flags
func Bool(v bool) *bool { return &v }

// paramBounds holds the closed interval for each numeric filter
// option, keyed by the API's field name
var paramBounds = map[string]struct{ low, high int }{
	"last_check": {1, 1000},
	"port":       {1, 65535},
	"speed":      {1, 60},
}

// validate rejects option combinations the API would silently accept
// but never satisfy. The API itself lets anything through, so the
// checking happens client-side.
func (o *Options) validate() error {
	if len(o.Countries) > 0 && len(o.NotCountries) > 0 {
		return errors.New(errors.KindConfiguration,
			"incompatible options, Countries and NotCountries are mutually exclusive")
	}

	switch o.Level {
	case "", LevelAnonymous, LevelElite:
	default:
		return errors.Newf(errors.KindConfiguration,
			"unrecognized level %q, valid levels are %q and %q",
			o.Level, LevelAnonymous, LevelElite)
	}

	switch o.Protocol {
	case "", ProtocolHTTP, ProtocolSOCKS4, ProtocolSOCKS5:
	default:
		return errors.Newf(errors.KindConfiguration,
			"unrecognized protocol %q, valid protocols are %q, %q and %q",
			o.Protocol, ProtocolHTTP, ProtocolSOCKS4, ProtocolSOCKS5)
	}

	for _, list := range [][]string{o.Countries, o.NotCountries} {
		for _, code := range list {
			if !isCountryCode(code) {
				return errors.Newf(errors.KindConfiguration,
					"invalid country code %q, expected a 2-letter code", code)
			}
		}
	}

	for name, value := range map[string]int{
		"last_check": o.LastChecked,
		"port":       o.Port,
		"speed":      o.TimeToConnect,
	} {
		if value == 0 {
			continue
		}
		b := paramBounds[name]
		if value < b.low || value > b.high {
			return errors.Newf(errors.KindConfiguration,
				"value %d for %q out of bounds (%d to %d)", value, name, b.low, b.high)
		}
	}

	if o.Timeout < 0 {
		return errors.New(errors.KindConfiguration, "timeout must not be negative")
	}

	return nil
}

// isCountryCode reports whether code is exactly two ASCII letters
func isCountryCode(code string) bool {
	if len(code) != 2 {
		return false
	}
	for _, c := range code {
		if !(c >= 'a' && c <= 'z') && !(c >= 'A' && c <= 'Z') {
			return false
		}
	}
	return true
}

// query builds the API parameter mapping for these options. Only set
// options produce keys; the fixed routing parameters (format, limit and
// the key itself) are always present.
func (o *Options) query(apiKey string) url.Values {
	q := url.Values{}
	q.Set("format", "json")

	if apiKey != "" {
		q.Set("api", apiKey)
		q.Set("limit", strconv.Itoa(PremiumBatchSize))
	} else {
		q.Set("limit", strconv.Itoa(FreeBatchSize))
	}

	if o.Level != "" {
		q.Set("level", string(o.Level))
	}
	if o.Protocol != "" {
		q.Set("type", string(o.Protocol))
	}
	if len(o.Countries) > 0 {
		q.Set("country", strings.Join(o.Countries, ","))
	}
	if len(o.NotCountries) > 0 {
		q.Set("not_country", strings.Join(o.NotCountries, ","))
	}
	if o.LastChecked > 0 {
		q.Set("last_check", strconv.Itoa(o.LastChecked))
	}
	if o.Port > 0 {
		q.Set("port", strconv.Itoa(o.Port))
	}
	if o.TimeToConnect > 0 {
		q.Set("speed", strconv.Itoa(o.TimeToConnect))
	}

	for name, flag := range map[string]*bool{
		"cookies":    o.Cookies,
		"google":     o.Google,
		"https":      o.HTTPS,
		"post":       o.Post,
		"referer":    o.Referer,
		"user_agent": o.UserAgent,
	} {
		if flag != nil {
			q.Set(name, strconv.FormatBool(*flag))
		}
	}

	return q
}
