package reddit

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/tidwall/gjson"
)

// ErrorKind classifies why a fetch failed.
type ErrorKind string

const (
	KindNetwork   ErrorKind = "network"
	KindHTTP      ErrorKind = "http"
	KindMalformed ErrorKind = "malformed"
)

const (
	unknownReason         = "Unknown reason"
	unknownNetworkMessage = "Unknown network error occurred."

	syntaxMessage = "Syntax error in JSON"
	shapeMessage  = "JSON structure does not match expected type"
)

// ErrShape marks a syntactically valid payload that lacks the listing structure.
var ErrShape = errors.New("listing shape mismatch")

// FetchError is the single reportable value every fetch failure is turned into.
type FetchError struct {
	Kind       ErrorKind
	StatusCode int
	Reason     string
	Message    string
	Err        error
}

func (e *FetchError) Error() string {
	switch e.Kind {
	case KindHTTP:
		return fmt.Sprintf("HTTP Error %d - %s", e.StatusCode, e.Reason)
	case KindNetwork:
		if e.Message == unknownNetworkMessage {
			return e.Message
		}
		return "Network error: " + e.Message
	default:
		return e.Message
	}
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Transient reports whether a retry could plausibly succeed: transport failures,
// rate limiting and server errors.
func (e *FetchError) Transient() bool {
	switch e.Kind {
	case KindNetwork:
		return true
	case KindHTTP:
		return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= http.StatusInternalServerError
	}
	return false
}

// IsTransient reports whether err is a transient *FetchError.
func IsTransient(err error) bool {
	var fetchErr *FetchError
	return errors.As(err, &fetchErr) && fetchErr.Transient()
}

// NetworkError wraps a transport failure.
func NetworkError(err error) *FetchError {
	msg := ""
	if err != nil {
		var urlErr *url.Error
		if errors.As(err, &urlErr) && urlErr.Err != nil {
			msg = urlErr.Err.Error()
		} else {
			msg = err.Error()
		}
	}
	msg = strings.TrimSpace(msg)
	if msg == "" {
		msg = unknownNetworkMessage
	}
	return &FetchError{Kind: KindNetwork, Message: msg, Err: err}
}

// StatusError builds the error for a non-2xx response, pulling a reason out of the body when
// it is a JSON object with a string "reason" property.
func StatusError(statusCode int, body []byte) *FetchError {
	reason, ok := ExtractReason(body)
	if !ok {
		reason = unknownReason
	}
	return &FetchError{Kind: KindHTTP, StatusCode: statusCode, Reason: reason}
}

// ExtractReason returns the "reason" string of a JSON body.
func ExtractReason(body []byte) (string, bool) {
	if len(body) == 0 || !gjson.ValidBytes(body) {
		return "", false
	}
	result := gjson.GetBytes(body, "reason")
	if result.Type != gjson.String {
		return "", false
	}
	return result.String(), true
}

// MalformedError classifies a decode failure as a syntax or a shape problem.
func MalformedError(err error) *FetchError {
	var (
		syntaxErr *json.SyntaxError
		typeErr   *json.UnmarshalTypeError
	)
	switch {
	case errors.As(err, &syntaxErr), errors.Is(err, io.ErrUnexpectedEOF):
		return &FetchError{Kind: KindMalformed, Message: syntaxMessage, Err: err}
	case errors.As(err, &typeErr), errors.Is(err, ErrShape):
		return &FetchError{Kind: KindMalformed, Message: shapeMessage, Err: err}
	default:
		return &FetchError{Kind: KindMalformed, Message: fmt.Sprintf("Unknown JSON error: %v", err), Err: err}
	}
}
