package utils

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// SignPayload returns the hex HMAC-SHA256 of body under key.
func SignPayload(body []byte, key string) string {
	mac := hmac.New(sha256.New, []byte(key))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature checks a job payload signature against the rotating
// current/next signing key pair. Either key validates, so dispatchers can
// roll keys without dropping in-flight messages.
func VerifySignature(body []byte, signature, currentKey, nextKey string) bool {
	if signature == "" {
		return false
	}
	for _, key := range []string{currentKey, nextKey} {
		if key == "" {
			continue
		}
		if hmac.Equal([]byte(signature), []byte(SignPayload(body, key))) {
			return true
		}
	}
	return false
}
