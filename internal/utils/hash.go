// Package utils provides general-purpose helper utilities used across the
// sync engine: request signing with pooled HMAC hashers, HTTP client
// initialization, bearer-token inspection, id generation, and context keys.
package utils

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"hash"
	"strconv"
	"sync"
	"time"
)

// hasherPool is a package-level pool of reusable HMAC-SHA256 hash instances.
// Must be initialized via InitHasherPool before use.
var hasherPool sync.Pool

// InitHasherPool initializes a sync.Pool of HMAC-SHA256 hashers, each keyed
// with the provided signing secret. Pooling avoids repeated allocations of
// hash.Hash instances on the hot signing path.
func InitHasherPool(signingSecret string) {
	hasherPool = sync.Pool{
		New: func() any {
			return hmac.New(sha256.New, []byte(signingSecret))
		},
	}
}

// Hash computes an HMAC-SHA256 digest over data using a hasher pulled from
// the pool initialized by InitHasherPool.
func Hash(data []byte) []byte {
	h := hasherPool.Get().(hash.Hash)
	h.Reset()

	h.Write(data)
	sum := h.Sum(nil)

	h.Reset()
	hasherPool.Put(h)

	return sum
}

// SignRequest computes the hex-encoded request signature for a critical
// mutating call. The signed payload is the canonical string
//
//	METHOD\nPATH\nBODY\nTIMESTAMP\nUSERID
//
// where TIMESTAMP is a Unix-seconds value. The same timestamp must be sent
// in the X-Timestamp header so the backend can recompute the signature.
func SignRequest(method, path string, body []byte, timestamp time.Time, userID string) string {
	payload := make([]byte, 0, len(method)+len(path)+len(body)+len(userID)+16)
	payload = append(payload, method...)
	payload = append(payload, '\n')
	payload = append(payload, path...)
	payload = append(payload, '\n')
	payload = append(payload, body...)
	payload = append(payload, '\n')
	payload = strconv.AppendInt(payload, timestamp.Unix(), 10)
	payload = append(payload, '\n')
	payload = append(payload, userID...)

	return hex.EncodeToString(Hash(payload))
}
