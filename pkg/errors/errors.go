package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
)

// Kind discriminates the failure classes surfaced by this library
type Kind string

const (
	KindConfiguration Kind = "configuration"
	KindAPIKey        Kind = "api_key"
	KindRateLimit     Kind = "rate_limit"
	KindDailyLimit    Kind = "daily_limit"
	KindProxy         Kind = "proxy"
)

// Error is the single error type returned by the library. Kind lets
// callers branch on the failure class; Message carries the API's own
// wording when the failure came off the wire.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("pubproxy %s error: %s", e.Kind, e.Message)
}

// New creates an Error with the given kind and message
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Newf creates an Error with a formatted message
func Newf(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// KindOf returns the Kind of err, or an empty Kind if err was not
// produced by this library.
func KindOf(err error) Kind {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsConfiguration reports whether err is a construction-time
// configuration failure.
func IsConfiguration(err error) bool { return KindOf(err) == KindConfiguration }

// IsAPIKey reports whether err means the API rejected the credential.
func IsAPIKey(err error) bool { return KindOf(err) == KindAPIKey }

// IsRateLimit reports whether err means the per-second limit was
// violated despite client-side pacing.
func IsRateLimit(err error) bool { return KindOf(err) == KindRateLimit }

// IsDailyLimit reports whether err means the daily request quota is
// exhausted.
func IsDailyLimit(err error) bool { return KindOf(err) == KindDailyLimit }

// noProxyPhrase is the API's response when no proxy matched the filter
// criteria. It maps to an empty batch, not a failure.
const noProxyPhrase = "No proxy"

// apiPhrases is the closed table of known pubproxy error responses.
// Bodies are matched by prefix since the API appends upsell text after
// the meaningful part of each message. Order matters only for
// readability; the prefixes are mutually exclusive.
var apiPhrases = []struct {
	prefix string
	kind   Kind
}{
	{"Invalid API", KindAPIKey},
	{"We have to temporarily stop you", KindRateLimit},
	{"You reached the maximum", KindDailyLimit},
}

// EmptyBatch reports whether a non-JSON API body means "no proxies
// matched", which callers treat as a zero-candidate batch.
func EmptyBatch(body string) bool {
	return strings.HasPrefix(strings.TrimSpace(body), noProxyPhrase)
}

// FromAPIBody classifies a non-JSON API response body into a typed
// Error. Unrecognized bodies fall through to the generic proxy kind.
func FromAPIBody(body string) *Error {
	trimmed := strings.TrimSpace(body)
	for _, p := range apiPhrases {
		if strings.HasPrefix(trimmed, p.prefix) {
			return New(p.kind, trimmed)
		}
	}
	return New(KindProxy, trimmed)
}
