package errors

import (
	"net/http"
)

const (
	// RequestIDHeader is the HTTP header for request ID
	RequestIDHeader = "X-Request-ID"
)

// RequestIDMiddleware injects a request ID into the context and response headers
func RequestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Check if request ID is provided in header, otherwise generate one
		requestID := r.Header.Get(RequestIDHeader)
		if requestID == "" {
			requestID = GenerateRequestID()
		}

		ctx := WithRequestID(r.Context(), requestID)
		w.Header().Set(RequestIDHeader, requestID)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Reporter receives errors that surface as server errors (5xx).
type Reporter func(r *http.Request, err error)

var reporter Reporter = func(*http.Request, error) {}

// SetReporter installs the hook called for server errors returned by handlers.
// It is meant to be called once during startup.
func SetReporter(fn Reporter) {
	if fn == nil {
		fn = func(*http.Request, error) {}
	}
	reporter = fn
}

// Handler wraps an http.HandlerFunc with error handling capabilities
type Handler func(w http.ResponseWriter, r *http.Request) error

// HandleFunc converts a Handler to a standard http.HandlerFunc with automatic error handling
func HandleFunc(h Handler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := h(w, r); err != nil {
			if IsServerError(err) {
				reporter(r, err)
			}
			WriteError(w, GetRequestID(r.Context()), err)
		}
	}
}
