package internal

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResponseWriterPassthrough(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	w := NewResponseWriter(rec)

	w.WriteHeader(http.StatusCreated)
	n, err := w.Write([]byte("hello"))
	require.NoError(t, err)

	assert.Equal(t, 5, n)
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "hello", rec.Body.String())
	assert.Equal(t, http.StatusCreated, w.Status())
	assert.Equal(t, int64(5), w.Size())
	assert.True(t, w.Written())
}

func TestResponseWriterDuplicateWriteHeader(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	w := NewResponseWriter(rec)

	w.WriteHeader(http.StatusAccepted)
	w.WriteHeader(http.StatusTeapot)

	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, http.StatusAccepted, w.Status())
}

func TestResponseWriterImplicitStatus(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	w := NewResponseWriter(rec)

	_, err := w.Write([]byte("ok"))
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, w.Status())
	assert.True(t, w.Written())
}

func TestResponseWriterCapture(t *testing.T) {
	t.Parallel()

	t.Run("buffers writes until release", func(t *testing.T) {
		t.Parallel()

		rec := httptest.NewRecorder()
		w := NewResponseWriter(rec)
		require.True(t, w.Capture())

		w.WriteHeader(http.StatusCreated)
		_, err := w.Write([]byte(`{"id":1}`))
		require.NoError(t, err)

		// Nothing reached the network yet.
		assert.Empty(t, rec.Body.String())
		assert.Equal(t, http.StatusCreated, w.Status())
		assert.Equal(t, `{"id":1}`, string(w.Body()))

		require.NoError(t, w.Release(http.StatusCreated, []byte(`{"wrapped":true}`)))
		assert.Equal(t, http.StatusCreated, rec.Code)
		assert.Equal(t, `{"wrapped":true}`, rec.Body.String())
		assert.False(t, w.Capturing())
	})

	t.Run("release replaces the buffered status", func(t *testing.T) {
		t.Parallel()

		rec := httptest.NewRecorder()
		w := NewResponseWriter(rec)
		require.True(t, w.Capture())

		w.WriteHeader(http.StatusOK)
		require.NoError(t, w.Release(http.StatusServiceUnavailable, []byte("down")))

		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		assert.Equal(t, http.StatusServiceUnavailable, w.Status())
	})

	t.Run("capture refused after first write", func(t *testing.T) {
		t.Parallel()

		rec := httptest.NewRecorder()
		w := NewResponseWriter(rec)
		w.WriteHeader(http.StatusOK)

		assert.False(t, w.Capture())
	})

	t.Run("release refused outside capture mode", func(t *testing.T) {
		t.Parallel()

		rec := httptest.NewRecorder()
		w := NewResponseWriter(rec)

		assert.Error(t, w.Release(http.StatusOK, nil))
	})
}

func TestResponseWriterUnwrap(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	w := NewResponseWriter(rec)

	assert.Equal(t, http.ResponseWriter(rec), w.Unwrap())
}
