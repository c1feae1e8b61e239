// Package middleware holds the HTTP middleware shared by the server: request
// logging, CORS and per-IP rate limiting.
package middleware

import "net/http"

// Chain wraps h with mws. The first middleware is the outermost, so
// Chain(h, a, b) serves a(b(h)).
func Chain(h http.Handler, mws ...func(http.Handler) http.Handler) http.Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}
