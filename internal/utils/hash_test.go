package utils

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHash_MatchesDirectHMAC(t *testing.T) {
	InitHasherPool("secret")

	got := Hash([]byte("payload"))

	h := hmac.New(sha256.New, []byte("secret"))
	h.Write([]byte("payload"))
	want := h.Sum(nil)

	assert.Equal(t, want, got)
}

func TestHash_ReusedHasherIsReset(t *testing.T) {
	InitHasherPool("secret")

	first := Hash([]byte("one"))
	second := Hash([]byte("one"))

	// A dirty hasher returned to the pool would change the second digest.
	assert.Equal(t, first, second)
}

func TestSignRequest_CanonicalPayload(t *testing.T) {
	InitHasherPool("signing-secret")

	ts := time.Unix(1700000000, 0)
	got := SignRequest("PUT", "/api/documents/doc-1", []byte(`{"title":"x"}`), ts, "user-42")

	payload := fmt.Sprintf("PUT\n/api/documents/doc-1\n{\"title\":\"x\"}\n%d\nuser-42", ts.Unix())
	h := hmac.New(sha256.New, []byte("signing-secret"))
	h.Write([]byte(payload))
	want := hex.EncodeToString(h.Sum(nil))

	require.Equal(t, want, got)
}

func TestSignRequest_DiffersPerMethod(t *testing.T) {
	InitHasherPool("signing-secret")
	ts := time.Unix(1700000000, 0)

	put := SignRequest("PUT", "/api/documents/doc-1", nil, ts, "user-42")
	del := SignRequest("DELETE", "/api/documents/doc-1", nil, ts, "user-42")

	assert.NotEqual(t, put, del)
}
