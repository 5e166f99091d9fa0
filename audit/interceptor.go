package audit

import (
	"bytes"
	"context"
	"fmt"
	"net"
	"net/http"
	"runtime/debug"
	"sort"
	"strings"
	"time"
)

// DefaultMaxBodySize bounds captured bodies when no limit is configured.
const DefaultMaxBodySize = 64 << 10

const redactedValue = "[REDACTED]"

// Interceptor records every request and response passing through Handler
// as a pair of Records sharing an exchange id.
type Interceptor struct {
	store     Store
	logger    Logger
	metrics   *Metrics
	now       func() time.Time
	ids       *idGenerator
	maxBody   int
	buffer    bool
	localAddr string
	redact    map[string]struct{}
	observer  StateObserver
}

// Option configures an Interceptor.
type Option func(*Interceptor)

// WithLogger sets the channel used to report audit write failures.
func WithLogger(logger Logger) Option {
	return func(i *Interceptor) {
		if logger != nil {
			i.logger = logger
		}
	}
}

// WithMaxBodySize bounds the bytes captured per body. Client streams are
// never truncated.
func WithMaxBodySize(n int) Option {
	return func(i *Interceptor) {
		if n >= 0 {
			i.maxBody = n
		}
	}
}

// WithRequestBuffering reads non replayable request bodies into memory so
// they can be captured and handed downstream intact.
func WithRequestBuffering(enabled bool) Option {
	return func(i *Interceptor) {
		i.buffer = enabled
	}
}

// WithLocalAddress is used when the server did not put its address in the
// request context.
func WithLocalAddress(addr string) Option {
	return func(i *Interceptor) {
		i.localAddr = addr
	}
}

func WithMetrics(m *Metrics) Option {
	return func(i *Interceptor) {
		i.metrics = m
	}
}

func WithClock(now func() time.Time) Option {
	return func(i *Interceptor) {
		if now != nil {
			i.now = now
		}
	}
}

// WithRedactedHeaders replaces the values of the named headers in records.
// Nothing is redacted unless this option is given.
func WithRedactedHeaders(names ...string) Option {
	return func(i *Interceptor) {
		for _, name := range names {
			if name = strings.TrimSpace(name); name != "" {
				i.redact[http.CanonicalHeaderKey(name)] = struct{}{}
			}
		}
	}
}

func WithStateObserver(fn StateObserver) Option {
	return func(i *Interceptor) {
		i.observer = fn
	}
}

// NewInterceptor returns an Interceptor appending to store.
func NewInterceptor(store Store, opts ...Option) *Interceptor {
	i := &Interceptor{
		store:   store,
		logger:  nopLogger{},
		now:     time.Now,
		ids:     newIDGenerator(),
		maxBody: DefaultMaxBodySize,
		redact:  map[string]struct{}{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(i)
		}
	}
	return i
}

// Handler wraps next. The response is buffered until next returns, then
// written to w. A panic in next still produces a response and a record.
func (i *Interceptor) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		i.serve(w, r, next)
	})
}

func (i *Interceptor) serve(w http.ResponseWriter, r *http.Request, next http.Handler) {
	ex := &exchange{
		id:       i.ids.next(i.now()),
		observer: i.observer,
		logger:   i.logger,
	}
	// records must be written even when the client goes away
	ctx := context.WithoutCancel(r.Context())

	ex.advance(StateCapturingRequest)
	i.persist(ctx, i.requestRecord(ex, r))

	ex.advance(StateForwarding)
	buf := newBufferedResponse(w)
	defer i.complete(ctx, ex, r, buf)

	next.ServeHTTP(buf, r)
}

func (i *Interceptor) complete(ctx context.Context, ex *exchange, r *http.Request, buf *bufferedResponse) {
	recovered := recover()
	aborted := recovered == http.ErrAbortHandler
	if recovered != nil && !aborted {
		i.logger.Error("handler panicked",
			"exchange_id", ex.id,
			"panic", fmt.Sprint(recovered),
			"stack", string(debug.Stack()),
		)
		if !buf.wroteHeader {
			buf.WriteHeader(http.StatusInternalServerError)
		}
	}

	ex.advance(StateCapturingResponse)
	i.persist(ctx, i.responseRecord(ex, r, buf))

	if aborted {
		i.logger.Warn("exchange aborted by handler", "exchange_id", ex.id)
		ex.advance(StatePersisted)
		panic(recovered)
	}

	if err := buf.flush(); err != nil {
		i.logger.Warn("response copy failed", "exchange_id", ex.id, "error", err)
	}
	ex.advance(StatePersisted)
}

func (i *Interceptor) requestRecord(ex *exchange, r *http.Request) Record {
	rec := Record{
		ID:            i.ids.next(i.now()),
		ExchangeID:    ex.id,
		Timestamp:     i.now().UTC(),
		Direction:     DirectionRequest,
		Level:         LevelInfo,
		RemoteAddress: r.RemoteAddr,
		LocalAddress:  i.localAddress(r),
		Method:        r.Method,
		Path:          r.URL.Path,
		Headers:       i.headers(r.Host, r.Header),
	}

	body, err := captureRequestBody(r, i.maxBody, i.buffer)
	switch {
	case err != nil:
		i.logger.Warn("request body capture failed", "exchange_id", ex.id, "error", err)
		i.metrics.skipped()
	case !body.captured:
		i.logger.Debug("request body not replayable, capture skipped", "exchange_id", ex.id)
		i.metrics.skipped()
	default:
		rec.Body = body.data
		rec.BodyTruncated = body.truncated
	}
	return rec
}

func (i *Interceptor) responseRecord(ex *exchange, r *http.Request, buf *bufferedResponse) Record {
	status := buf.statusCode()
	body, truncated := clip(buf.body.Bytes(), i.maxBody)
	return Record{
		ID:            i.ids.next(i.now()),
		ExchangeID:    ex.id,
		Timestamp:     i.now().UTC(),
		Direction:     DirectionResponse,
		Level:         LevelForStatus(status),
		RemoteAddress: r.RemoteAddr,
		LocalAddress:  i.localAddress(r),
		Method:        r.Method,
		Path:          r.URL.Path,
		StatusCode:    status,
		Headers:       i.headers("", buf.Header()),
		Body:          bytes.Clone(body),
		BodyTruncated: truncated,
	}
}

func (i *Interceptor) persist(ctx context.Context, rec Record) {
	if err := i.store.Append(ctx, rec); err != nil {
		i.logger.Error("audit write failed",
			"exchange_id", rec.ExchangeID,
			"record_id", rec.ID,
			"direction", string(rec.Direction),
			"error", err,
		)
		i.metrics.failed()
		return
	}
	i.metrics.persisted(rec.Direction)
	i.logger.Debug(rec.Summary(), "exchange_id", rec.ExchangeID)
}

func (i *Interceptor) localAddress(r *http.Request) string {
	if addr, ok := r.Context().Value(http.LocalAddrContextKey).(net.Addr); ok && addr != nil {
		return addr.String()
	}
	if i.localAddr != "" {
		return i.localAddr
	}
	return r.Host
}

// headers flattens h in canonical key order, keeping the order of values
// within a key. net/http moves Host out of the header map, so a non empty
// host is recorded first.
func (i *Interceptor) headers(host string, h http.Header) []Header {
	keys := make([]string, 0, len(h))
	size := 0
	for k, values := range h {
		keys = append(keys, k)
		size += len(values)
	}
	sort.Strings(keys)

	out := make([]Header, 0, size+1)
	if host != "" {
		out = append(out, Header{Name: "Host", Value: i.redactValue("Host", host)})
	}
	for _, k := range keys {
		for _, v := range h[k] {
			out = append(out, Header{Name: k, Value: i.redactValue(k, v)})
		}
	}
	return out
}

func (i *Interceptor) redactValue(name, value string) string {
	if _, ok := i.redact[http.CanonicalHeaderKey(name)]; ok {
		return redactedValue
	}
	return value
}
