package ai

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"strings"
)

// VerifyHMAC verifies a sha256 HMAC hex signature against payload and secret.
// A "sha256=" prefix on the signature is accepted.
func VerifyHMAC(secret string, payload []byte, signatureHex string) bool {
	signatureHex = strings.TrimSpace(signatureHex)
	if len(signatureHex) > 7 && strings.EqualFold(signatureHex[:7], "sha256=") {
		signatureHex = signatureHex[7:]
	}
	if secret == "" || signatureHex == "" {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(strings.ToLower(signatureHex)))
}

// SignHMAC returns the hex sha256 HMAC of payload
func SignHMAC(secret string, payload []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

// SecretEqual compares a presented shared secret in constant time
func SecretEqual(expected, presented string) bool {
	if expected == "" || presented == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(expected), []byte(presented)) == 1
}
