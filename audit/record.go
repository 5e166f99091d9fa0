package audit

import (
	"fmt"
	"net/http"
	"time"
)

// Direction tells request records from response records.
type Direction string

const (
	DirectionRequest  Direction = "request"
	DirectionResponse Direction = "response"
)

// Record levels.
const (
	LevelInfo  = "INFO"
	LevelWarn  = "WARN"
	LevelError = "ERROR"
)

// Header is a single header value. A header with several values produces
// one Header per value, in the order they were set.
type Header struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Record is one side of an HTTP exchange. Records are immutable once
// appended.
type Record struct {
	ID            string    `json:"id"`
	ExchangeID    string    `json:"exchange_id"`
	Timestamp     time.Time `json:"timestamp"`
	Direction     Direction `json:"direction"`
	Level         string    `json:"level"`
	RemoteAddress string    `json:"remote_address"`
	LocalAddress  string    `json:"local_address"`
	Method        string    `json:"method"`
	Path          string    `json:"path"`
	StatusCode    int       `json:"status_code,omitempty"`
	Headers       []Header  `json:"headers,omitempty"`
	Body          []byte    `json:"body,omitempty"`
	BodyTruncated bool      `json:"body_truncated,omitempty"`
}

// Summary is a one line description used in logs.
func (r Record) Summary() string {
	switch r.Direction {
	case DirectionResponse:
		return fmt.Sprintf("Response to: remote=%s, local=%s, method=%s, path=%s, status_code=%d",
			r.RemoteAddress, r.LocalAddress, r.Method, r.Path, r.StatusCode)
	default:
		return fmt.Sprintf("Request from: remote=%s, local=%s, method=%s, path=%s",
			r.RemoteAddress, r.LocalAddress, r.Method, r.Path)
	}
}

// Header returns the first value recorded for name, compared in canonical
// form.
func (r Record) Header(name string) (string, bool) {
	name = http.CanonicalHeaderKey(name)
	for _, h := range r.Headers {
		if http.CanonicalHeaderKey(h.Name) == name {
			return h.Value, true
		}
	}
	return "", false
}

// LevelForStatus maps a response status to a record level.
func LevelForStatus(status int) string {
	switch {
	case status >= 500:
		return LevelError
	case status >= 400:
		return LevelWarn
	default:
		return LevelInfo
	}
}
