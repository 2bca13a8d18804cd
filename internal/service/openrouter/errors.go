package openrouter

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies why a completion call failed.
type Kind int

const (
	KindConfig Kind = iota + 1
	KindStatus
	KindAPI
	KindFormat
	KindTimeout
	KindNetwork
)

func (k Kind) String() string {
	switch k {
	case KindConfig:
		return "config"
	case KindStatus:
		return "status"
	case KindAPI:
		return "api"
	case KindFormat:
		return "format"
	case KindTimeout:
		return "timeout"
	case KindNetwork:
		return "network"
	default:
		return "unknown"
	}
}

var (
	ErrMissingAPIKey     = errors.New("OPENROUTER_API_KEY not set")
	ErrNoChoices         = errors.New("no choices in response")
	ErrUnexpectedFormat  = errors.New("unexpected response format")
	ErrUpstreamRejected  = errors.New("upstream returned an error payload")
	ErrUnexpectedStatus  = errors.New("unexpected upstream status")
	ErrRequestTimedOut   = errors.New("request timed out")
	ErrEmptyConversation = errors.New("no messages to send")
)

// Error is returned by Client for every failed completion.
type Error struct {
	Kind   Kind
	Model  string
	Status int
	// Message holds the upstream error text for KindAPI.
	Message string
	Err     error
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindStatus:
		return fmt.Sprintf("openrouter %s: HTTP %d", e.Model, e.Status)
	case KindAPI:
		return fmt.Sprintf("openrouter %s: api error: %s", e.Model, e.Message)
	case KindConfig:
		return e.Err.Error()
	default:
		return fmt.Sprintf("openrouter %s: %v", e.Model, e.Err)
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// RateLimited reports whether the upstream answered 429.
func (e *Error) RateLimited() bool {
	return e.Kind == KindStatus && e.Status == http.StatusTooManyRequests
}

// AsError extracts an *Error from err's chain.
func AsError(err error) (*Error, bool) {
	var target *Error
	if errors.As(err, &target) {
		return target, true
	}
	return nil, false
}
