package audit

import (
	"bytes"
	"net/http"
)

// bufferedResponse holds the status and body written by the downstream
// handler until complete copies them to the real writer. Header() is the
// real writer's map, so headers set by the handler are sent unchanged.
type bufferedResponse struct {
	w           http.ResponseWriter
	status      int
	wroteHeader bool
	body        bytes.Buffer
}

var (
	_ http.ResponseWriter = (*bufferedResponse)(nil)
	_ http.Flusher        = (*bufferedResponse)(nil)
)

func newBufferedResponse(w http.ResponseWriter) *bufferedResponse {
	return &bufferedResponse{w: w}
}

func (b *bufferedResponse) Header() http.Header {
	return b.w.Header()
}

func (b *bufferedResponse) WriteHeader(status int) {
	if b.wroteHeader {
		return
	}
	b.status = status
	b.wroteHeader = true
}

func (b *bufferedResponse) Write(p []byte) (int, error) {
	if !b.wroteHeader {
		b.WriteHeader(http.StatusOK)
	}
	return b.body.Write(p)
}

// Flush is a no-op. Nothing reaches the client before the exchange is
// persisted, so the recorded status is always the one sent.
func (b *bufferedResponse) Flush() {}

// statusCode reports the status the client will see.
func (b *bufferedResponse) statusCode() int {
	if !b.wroteHeader {
		return http.StatusOK
	}
	return b.status
}

// flush sends the status and the exact buffered bytes to the real writer.
func (b *bufferedResponse) flush() error {
	b.w.WriteHeader(b.statusCode())
	if b.body.Len() == 0 {
		return nil
	}
	_, err := b.w.Write(b.body.Bytes())
	return err
}
