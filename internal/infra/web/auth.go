package web

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
)

// APIKeyHeader carries the caller's raw shared secret.
const APIKeyHeader = "X-API-KEY"

// Gate decides whether a caller may perform privileged operations. It keeps
// only HMAC-SHA256 hashes of accepted keys, computed with a server-side salt;
// the raw secret is hashed on arrival and never stored or logged.
type Gate struct {
	salt     []byte
	accepted map[string]struct{}
}

// NewGate builds the gate from startup config. The accepted set is immutable
// afterwards.
func NewGate(salt string, keyHashes []string) *Gate {
	accepted := make(map[string]struct{}, len(keyHashes))
	for _, h := range keyHashes {
		accepted[h] = struct{}{}
	}
	return &Gate{salt: []byte(salt), accepted: accepted}
}

// HashKey returns the hex HMAC-SHA256 of a raw API key under the gate's salt.
// Exposed so operators can derive key_hashes entries for the config.
func (g *Gate) HashKey(raw string) string {
	mac := hmac.New(sha256.New, g.salt)
	mac.Write([]byte(raw))
	return hex.EncodeToString(mac.Sum(nil))
}

// Authorize reports whether the supplied raw key hashes into the accepted set.
func (g *Gate) Authorize(raw string) bool {
	if raw == "" {
		return false
	}
	_, ok := g.accepted[g.HashKey(raw)]
	return ok
}

// Require rejects requests whose X-API-KEY does not authorize.
func (g *Gate) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !g.Authorize(r.Header.Get(APIKeyHeader)) {
			writeJSON(w, http.StatusUnauthorized, errorResponse("Invalid API KEY"))
			return
		}
		next.ServeHTTP(w, r)
	})
}
