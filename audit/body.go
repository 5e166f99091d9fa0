package audit

import (
	"bytes"
	"io"
	"net/http"
)

// bodyCapture is what the interceptor learned about a request body.
type bodyCapture struct {
	data      []byte
	truncated bool
	captured  bool
	source    string
}

// captureRequestBody reads up to limit bytes of the request body without
// consuming it for the downstream handler. Seekable bodies are read and
// rewound, bodies with GetBody are read from a fresh copy and, when
// buffer is set, anything else is read fully and replaced by an identical
// in-memory reader. Otherwise nothing is captured.
func captureRequestBody(r *http.Request, limit int, buffer bool) (bodyCapture, error) {
	if r.Body == nil || r.Body == http.NoBody {
		return bodyCapture{captured: true, source: "empty"}, nil
	}

	if seeker, ok := r.Body.(io.Seeker); ok {
		pos, err := seeker.Seek(0, io.SeekCurrent)
		if err != nil {
			return bodyCapture{}, err
		}
		data, truncated, readErr := readBounded(r.Body, limit)
		if _, err := seeker.Seek(pos, io.SeekStart); err != nil {
			return bodyCapture{}, err
		}
		if readErr != nil {
			return bodyCapture{}, readErr
		}
		return bodyCapture{data: data, truncated: truncated, captured: true, source: "seek"}, nil
	}

	if r.GetBody != nil {
		rc, err := r.GetBody()
		if err != nil {
			return bodyCapture{}, err
		}
		defer rc.Close()
		data, truncated, err := readBounded(rc, limit)
		if err != nil {
			return bodyCapture{}, err
		}
		return bodyCapture{data: data, truncated: truncated, captured: true, source: "get_body"}, nil
	}

	if !buffer {
		return bodyCapture{}, nil
	}

	full, readErr := io.ReadAll(r.Body)
	r.Body.Close()
	if readErr != nil {
		// the handler still gets every byte that arrived, then the error
		r.Body = io.NopCloser(io.MultiReader(bytes.NewReader(full), errReader{readErr}))
		return bodyCapture{}, readErr
	}
	r.Body = io.NopCloser(bytes.NewReader(full))
	r.GetBody = func() (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(full)), nil
	}
	data, truncated := clip(full, limit)
	return bodyCapture{data: data, truncated: truncated, captured: true, source: "buffer"}, nil
}

// readBounded reads at most limit bytes and reports whether more remained.
func readBounded(r io.Reader, limit int) ([]byte, bool, error) {
	if limit < 0 {
		limit = 0
	}
	data, err := io.ReadAll(io.LimitReader(r, int64(limit)+1))
	if err != nil {
		return nil, false, err
	}
	clipped, truncated := clip(data, limit)
	return clipped, truncated, nil
}

func clip(data []byte, limit int) ([]byte, bool) {
	if limit < 0 {
		limit = 0
	}
	if len(data) <= limit {
		return data, false
	}
	out := make([]byte, limit)
	copy(out, data)
	return out, true
}

type errReader struct{ err error }

func (e errReader) Read([]byte) (int, error) { return 0, e.err }
