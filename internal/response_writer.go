package internal

import (
	"bufio"
	"bytes"
	"net"
	"net/http"
	"sync"
)

// ResponseWriter wraps http.ResponseWriter to track write status and,
// when capture is enabled, buffer the response body so the formatting
// middleware can rewrite it into the standard envelope before anything
// reaches the wire.
type ResponseWriter struct {
	http.ResponseWriter
	body    bytes.Buffer
	status  int
	size    int64
	written bool
	capture bool
	mu      sync.Mutex
}

// NewResponseWriter creates a ResponseWriter with capture disabled.
func NewResponseWriter(w http.ResponseWriter) *ResponseWriter {
	return &ResponseWriter{
		ResponseWriter: w,
		status:         http.StatusOK,
	}
}

// Capture switches the writer into buffering mode. Must be called
// before the first write; once anything reached the underlying writer
// the response can no longer be rewritten.
func (w *ResponseWriter) Capture() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.written {
		return false
	}
	w.capture = true
	return true
}

// Capturing reports whether writes are being buffered.
func (w *ResponseWriter) Capturing() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.capture
}

// WriteHeader records the status code. In capture mode nothing reaches
// the underlying writer until Release.
func (w *ResponseWriter) WriteHeader(code int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.written {
		return
	}
	w.written = true
	w.status = code
	if !w.capture {
		w.ResponseWriter.WriteHeader(code)
	}
}

// Write writes or buffers the data depending on capture mode.
func (w *ResponseWriter) Write(b []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.written {
		w.written = true
		if !w.capture {
			w.ResponseWriter.WriteHeader(w.status)
		}
	}
	if w.capture {
		n, err := w.body.Write(b)
		w.size += int64(n)
		return n, err
	}
	n, err := w.ResponseWriter.Write(b)
	w.size += int64(n)
	return n, err
}

// Release ends capture mode and sends the given status and body to the
// underlying writer, replacing whatever the handler buffered. Headers
// set on the writer are preserved.
func (w *ResponseWriter) Release(status int, body []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.capture {
		return http.ErrNotSupported
	}
	w.capture = false
	w.written = true
	w.status = status
	w.ResponseWriter.WriteHeader(status)
	n, err := w.ResponseWriter.Write(body)
	w.size = int64(n)
	return err
}

// Body returns the captured body bytes. Empty outside capture mode.
func (w *ResponseWriter) Body() []byte {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.body.Bytes()
}

// Status returns the status code recorded so far.
func (w *ResponseWriter) Status() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.status
}

// Size returns the number of body bytes written.
func (w *ResponseWriter) Size() int64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.size
}

// Written reports whether a status or body has been recorded.
func (w *ResponseWriter) Written() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.written
}

// Flush implements http.Flusher. No-op while capturing.
func (w *ResponseWriter) Flush() {
	w.mu.Lock()
	capturing := w.capture
	w.mu.Unlock()
	if capturing {
		return
	}
	if flusher, ok := w.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

// Hijack implements http.Hijacker.
func (w *ResponseWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	if hijacker, ok := w.ResponseWriter.(http.Hijacker); ok {
		return hijacker.Hijack()
	}
	return nil, nil, http.ErrNotSupported
}

// Unwrap returns the underlying ResponseWriter.
func (w *ResponseWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}
