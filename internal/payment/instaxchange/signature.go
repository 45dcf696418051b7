package instaxchange

import (
	"crypto/md5"
	"crypto/subtle"
	"encoding/hex"
	"strings"

	"billing-be/internal/payment"
)

// KeyHeader carries the webhook key.
const KeyHeader = "X-Instaxwh-Key"

// Key is md5(canonical json + ":" + secret) in lowercase hex. Object keys are
// sorted and number literals are kept as received.
func Key(body []byte, secret string) (string, error) {
	decoded, err := payment.DecodeJSON(body)
	if err != nil {
		return "", err
	}
	canonical, err := payment.MarshalJSON(map[string]any(decoded))
	if err != nil {
		return "", err
	}

	sum := md5.Sum(append(canonical, ":"+secret...))
	return hex.EncodeToString(sum[:]), nil
}

// VerifyKey reports whether key matches body. An empty key or secret never matches.
func VerifyKey(body []byte, secret, key string) bool {
	if key == "" || secret == "" {
		return false
	}
	expected, err := Key(body, secret)
	if err != nil {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(expected), []byte(strings.ToLower(key))) == 1
}
