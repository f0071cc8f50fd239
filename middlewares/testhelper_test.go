package middlewares_test

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/dmitrymomot/apigate/internal"
	"github.com/dmitrymomot/apigate/pkg/apiversion"
	"github.com/dmitrymomot/apigate/pkg/identity"
	"github.com/dmitrymomot/apigate/pkg/logger"
)

// testContext is a minimal Context implementation for middleware tests,
// backed by a real ResponseWriter so capture and release behave as in the
// server.
type testContext struct {
	request   *http.Request
	rw        *internal.ResponseWriter
	startedAt time.Time
}

func newTestContext(r *http.Request) (*testContext, *httptest.ResponseRecorder) {
	rec := httptest.NewRecorder()
	return &testContext{
		request:   r,
		rw:        internal.NewResponseWriter(rec),
		startedAt: time.Now(),
	}, rec
}

func (c *testContext) Request() *http.Request        { return c.request }
func (c *testContext) Response() http.ResponseWriter { return c.rw }
func (c *testContext) Context() context.Context      { return c.request.Context() }
func (c *testContext) Param(name string) string      { return "" }

func (c *testContext) Query(name string) string {
	return c.request.URL.Query().Get(name)
}

func (c *testContext) QueryDefault(name, defaultValue string) string {
	v := c.request.URL.Query().Get(name)
	if v == "" {
		return defaultValue
	}
	return v
}

func (c *testContext) Header(name string) string    { return c.request.Header.Get(name) }
func (c *testContext) SetHeader(name, value string) { c.rw.Header().Set(name, value) }

func (c *testContext) ClientIP() string {
	if ip := c.request.Header.Get("X-Forwarded-For"); ip != "" {
		return ip
	}
	return c.request.RemoteAddr
}

func (c *testContext) RoutePattern() string { return c.request.URL.Path }
func (c *testContext) StartedAt() time.Time { return c.startedAt }

func (c *testContext) Identity() *identity.Identity {
	return identity.FromContext(c.request.Context())
}

func (c *testContext) Version() string {
	return apiversion.FromContext(c.request.Context())
}

func (c *testContext) JSON(code int, v any) error {
	c.rw.Header().Set("Content-Type", "application/json; charset=utf-8")
	c.rw.WriteHeader(code)
	return json.NewEncoder(c.rw).Encode(v)
}

func (c *testContext) String(code int, s string) error {
	c.rw.Header().Set("Content-Type", "text/plain; charset=utf-8")
	c.rw.WriteHeader(code)
	_, err := c.rw.Write([]byte(s))
	return err
}

func (c *testContext) NoContent(code int) error {
	c.rw.WriteHeader(code)
	return nil
}

func (c *testContext) BindJSON(v any) error {
	if err := json.NewDecoder(c.request.Body).Decode(v); err != nil {
		return fmt.Errorf("bind json: %w", err)
	}
	return nil
}

func (c *testContext) Error(code int, message string, opts ...internal.HTTPErrorOption) *internal.HTTPError {
	return internal.NewHTTPError(code, message, opts...)
}

func (c *testContext) Written() bool                     { return c.rw.Written() }
func (c *testContext) Logger() *slog.Logger              { return logger.NewDiscard() }
func (c *testContext) LogDebug(msg string, attrs ...any) {}
func (c *testContext) LogInfo(msg string, attrs ...any)  {}
func (c *testContext) LogWarn(msg string, attrs ...any)  {}
func (c *testContext) LogError(msg string, attrs ...any) {}

func (c *testContext) Set(key, value any) {
	ctx := context.WithValue(c.request.Context(), key, value)
	c.request = c.request.WithContext(ctx)
}

func (c *testContext) Get(key any) any {
	return c.request.Context().Value(key)
}

func (c *testContext) ResponseWriter() *internal.ResponseWriter { return c.rw }

func (c *testContext) Deadline() (time.Time, bool) { return c.request.Context().Deadline() }
func (c *testContext) Done() <-chan struct{}       { return c.request.Context().Done() }
func (c *testContext) Err() error                  { return c.request.Context().Err() }
func (c *testContext) Value(key any) any           { return c.request.Context().Value(key) }

// okHandler is the terminal handler used when a test only cares about
// whether the request passed the middleware.
func okHandler(called *bool) internal.HandlerFunc {
	return func(c internal.Context) error {
		if called != nil {
			*called = true
		}
		return c.NoContent(http.StatusOK)
	}
}

// withIdentity stores the identity on the context the way the auth stage
// does.
func withIdentity(c *testContext, id *identity.Identity) {
	c.Set(identity.CtxKey(), id)
}
