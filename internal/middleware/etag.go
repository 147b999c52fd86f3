package middleware

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
)

// etagResponseWriter buffers the response so the ETag can be computed
// before anything reaches the client.
type etagResponseWriter struct {
	http.ResponseWriter
	buf        bytes.Buffer
	statusCode int
}

func (w *etagResponseWriter) Write(b []byte) (int, error) {
	return w.buf.Write(b)
}

func (w *etagResponseWriter) WriteHeader(code int) {
	w.statusCode = code
}

// ETag adds a strong ETag to successful GET responses and answers
// If-None-Match hits with 304.
func ETag(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			next.ServeHTTP(w, r)
			return
		}

		wrapped := &etagResponseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(wrapped, r)

		if wrapped.statusCode != http.StatusOK {
			w.WriteHeader(wrapped.statusCode)
			w.Write(wrapped.buf.Bytes())
			return
		}

		sum := sha256.Sum256(wrapped.buf.Bytes())
		etag := `"` + hex.EncodeToString(sum[:16]) + `"`

		w.Header().Set("ETag", etag)
		w.Header().Set("Cache-Control", "private, max-age=0, must-revalidate")
		if r.Header.Get("If-None-Match") == etag {
			w.Header().Del("Content-Type")
			w.WriteHeader(http.StatusNotModified)
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write(wrapped.buf.Bytes())
	})
}
