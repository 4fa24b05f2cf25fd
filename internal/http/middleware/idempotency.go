// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file validates the Idempotency-Key header on quota-charged routes and
// detects replays. A stored record for (user, route, key) carries a
// fingerprint of the request content; the handler settles the request with
// ClaimReplay once it has parsed its input. Same content is a replay, other
// content reusing the key is ErrIdempotencyMismatch. Successful non-replayed
// requests are remembered with their fingerprint after the handler runs.
package middleware

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// HeaderIdempotencyKey is the standard header name carrying the key.
const HeaderIdempotencyKey = "Idempotency-Key"

const (
	ctxKeyIdemKey     = "idem.key"
	ctxKeyIdemStored  = "idem.stored"  // string: fingerprint of the completed request
	ctxKeyIdemFP      = "idem.fp"      // string: fingerprint of this request
	ctxKeyIdemReplay  = "idem.replay"  // bool: fingerprints matched
	ctxKeyIdemCharged = "idem.charged" // int64: tokens charged by the handler
)

// ErrIdempotencyMismatch is returned by ClaimReplay when a key is reused for
// different request content.
var ErrIdempotencyMismatch = errors.New("idempotency key reused with a different request")

// IdempotencyStore looks up and remembers completed requests.
type IdempotencyStore interface {
	// Lookup returns the fingerprint of an unexpired record.
	Lookup(ctx context.Context, userID, route, key string, now time.Time) (fingerprint string, found bool, err error)
	Remember(ctx context.Context, userID, route, key, fingerprint string, tokens int64, status int) error
}

// IdempotencyOptions configures validation.
type IdempotencyOptions struct {
	// MaxLen caps the key length (default 200).
	MaxLen int
	// Pattern restricts the key charset (default URL-safe token chars).
	Pattern *regexp.Regexp
	// Methods lists the methods that honour the header (default POST).
	Methods []string
}

// GetIdempotencyKey returns the validated key, if any.
func GetIdempotencyKey(c *gin.Context) (string, bool) {
	v, ok := c.Get(ctxKeyIdemKey)
	if !ok {
		return "", false
	}
	s, _ := v.(string)
	return s, s != ""
}

// IsReplay reports whether ClaimReplay matched a completed request.
func IsReplay(c *gin.Context) bool {
	v, ok := c.Get(ctxKeyIdemReplay)
	if !ok {
		return false
	}
	b, _ := v.(bool)
	return b
}

// Fingerprint hashes the parts that identify a request's content.
func Fingerprint(parts ...[]byte) string {
	h := sha256.New()
	var n [8]byte
	for _, p := range parts {
		binary.BigEndian.PutUint64(n[:], uint64(len(p)))
		h.Write(n[:])
		h.Write(p)
	}
	return hex.EncodeToString(h.Sum(nil))
}

// ClaimReplay compares the request fingerprint with the stored record, if
// any. It reports true for a replay of the same content and returns
// ErrIdempotencyMismatch when the key was used for other content. Requests
// without a key, or without a stored record, are not replays.
func ClaimReplay(c *gin.Context, fingerprint string) (bool, error) {
	if _, ok := GetIdempotencyKey(c); !ok {
		return false, nil
	}
	c.Set(ctxKeyIdemFP, fingerprint)
	v, ok := c.Get(ctxKeyIdemStored)
	if !ok {
		return false, nil
	}
	if stored, _ := v.(string); stored != fingerprint {
		return false, ErrIdempotencyMismatch
	}
	c.Set(ctxKeyIdemReplay, true)
	return true, nil
}

// SetChargedTokens records how many tokens the handler charged so the
// remembered record carries it.
func SetChargedTokens(c *gin.Context, tokens int64) { c.Set(ctxKeyIdemCharged, tokens) }

// Idempotency validates the header and tags replays. store may be nil, in
// which case only validation happens.
func Idempotency(opts IdempotencyOptions, store IdempotencyStore) gin.HandlerFunc {
	maxLen := opts.MaxLen
	if maxLen <= 0 {
		maxLen = 200
	}
	pat := opts.Pattern
	if pat == nil {
		pat = regexp.MustCompile(`^[A-Za-z0-9._~\-:]+$`)
	}
	methods := map[string]struct{}{}
	for _, m := range opts.Methods {
		methods[strings.ToUpper(m)] = struct{}{}
	}
	if len(methods) == 0 {
		methods[http.MethodPost] = struct{}{}
	}

	return func(c *gin.Context) {
		key := c.GetHeader(HeaderIdempotencyKey)
		if _, ok := methods[c.Request.Method]; !ok || key == "" {
			c.Next()
			return
		}
		if len(key) > maxLen || !pat.MatchString(key) {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"request_id": c.Writer.Header().Get(requestIDHeader),
				"code":       "bad_idempotency_key",
				"message":    "invalid Idempotency-Key",
			})
			return
		}
		c.Set(ctxKeyIdemKey, key)

		route := c.FullPath()
		if store == nil || route == "" {
			c.Next()
			return
		}

		uid := UserID(c)
		stored, found, err := store.Lookup(c.Request.Context(), uid, route, key, time.Now().UTC())
		if err != nil {
			LoggerFrom(c).Warn().Err(err).Msg("idempotency_lookup_failed")
		}
		if found {
			c.Set(ctxKeyIdemStored, stored)
		}

		c.Next()

		status := c.Writer.Status()
		if found || status < 200 || status >= 300 {
			return
		}
		fp := c.GetString(ctxKeyIdemFP)
		var tokens int64
		if v, ok := c.Get(ctxKeyIdemCharged); ok {
			tokens, _ = v.(int64)
		}
		if err := store.Remember(c.Request.Context(), uid, route, key, fp, tokens, status); err != nil {
			LoggerFrom(c).Warn().Err(err).Msg("idempotency_remember_failed")
		}
	}
}
