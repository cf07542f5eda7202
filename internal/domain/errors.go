package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound           = errors.New("reviews: not found")
	ErrNetworkUnavailable = errors.New("reviews: network unavailable")
	ErrAccessDenied       = errors.New("reviews: access denied")

	// ErrTransport and ErrDecode match any FetchError of that kind via errors.Is.
	ErrTransport = errors.New("reviews: transport failed")
	ErrDecode    = errors.New("reviews: decode failed")
)

// ErrorKind classifies a failed page fetch.
type ErrorKind int

const (
	KindTransport ErrorKind = iota + 1
	KindDecode
)

func (k ErrorKind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindDecode:
		return "decode"
	default:
		return "unknown"
	}
}

// FetchError is the only error type the list reports on its error channel.
type FetchError struct {
	Kind ErrorKind
	Err  error
}

func (e *FetchError) Error() string {
	if e.Err == nil {
		return e.Kind.String() + " error"
	}
	return fmt.Sprintf("%s error: %v", e.Kind, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

func (e *FetchError) Is(target error) bool {
	switch target {
	case ErrTransport:
		return e.Kind == KindTransport
	case ErrDecode:
		return e.Kind == KindDecode
	}
	return false
}

// Message is the user-facing text for an alert.
func (e *FetchError) Message() string {
	switch {
	case errors.Is(e.Err, ErrNetworkUnavailable):
		return "Unable to load due to network problems"
	case errors.Is(e.Err, ErrAccessDenied):
		return "Access denied"
	case e.Kind == KindDecode:
		return "Decoding failed: " + causeText(e.Err)
	default:
		return "Loading failed: " + causeText(e.Err)
	}
}

func causeText(err error) string {
	if err == nil {
		return "unknown error"
	}
	return err.Error()
}

// Transport wraps err as a transport FetchError unless it already is a FetchError.
func Transport(err error) *FetchError {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe
	}
	return &FetchError{Kind: KindTransport, Err: err}
}

// Decode wraps err as a decode FetchError.
func Decode(err error) *FetchError {
	var fe *FetchError
	if errors.As(err, &fe) && fe.Kind == KindDecode {
		return fe
	}
	return &FetchError{Kind: KindDecode, Err: err}
}
