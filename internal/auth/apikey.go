// Package auth guards API routes with static API keys.
package auth

import (
	"crypto/subtle"
	"net/http"
	"strings"
	"sync/atomic"
)

// ParseAPIKeys parses a comma-separated list of API keys, trimming whitespace
// and ignoring empty entries.
func ParseAPIKeys(raw string) []string {
	var keys []string
	for _, k := range strings.Split(raw, ",") {
		k = strings.TrimSpace(k)
		if k != "" {
			keys = append(keys, k)
		}
	}
	return keys
}

// KeySet is the set of accepted API keys. It can be replaced while requests
// are in flight. An empty set lets every request through.
type KeySet struct {
	keys atomic.Pointer[[]string]
}

// NewKeySet returns a KeySet holding keys.
func NewKeySet(keys []string) *KeySet {
	ks := &KeySet{}
	ks.Replace(keys)
	return ks
}

// Replace swaps in a new key list.
func (ks *KeySet) Replace(keys []string) {
	cp := make([]string, 0, len(keys))
	for _, k := range keys {
		if k != "" {
			cp = append(cp, k)
		}
	}
	ks.keys.Store(&cp)
}

// Len returns the number of configured keys.
func (ks *KeySet) Len() int {
	if p := ks.keys.Load(); p != nil {
		return len(*p)
	}
	return 0
}

// Allows reports whether key is accepted. Keys are compared in constant time.
func (ks *KeySet) Allows(key string) bool {
	p := ks.keys.Load()
	if p == nil || len(*p) == 0 {
		return true
	}
	ok := false
	for _, k := range *p {
		if subtle.ConstantTimeCompare([]byte(k), []byte(key)) == 1 {
			ok = true
		}
	}
	return ok
}

// Middleware returns a middleware that validates the X-API-Key header.
// Also accepts api_key as a query parameter as a fallback.
func (ks *KeySet) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := r.Header.Get("X-API-Key")
			if key == "" {
				key = r.URL.Query().Get("api_key")
			}

			if !ks.Allows(key) {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
