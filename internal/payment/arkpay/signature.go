package arkpay

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Sign is the hex HMAC-SHA256 of "METHOD URI\nBODY".
func Sign(secret, method, uri string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(strings.ToUpper(method) + " " + uri + "\n"))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func Verify(secret, method, uri string, body []byte, signature string) bool {
	if signature == "" || secret == "" {
		return false
	}
	expected := Sign(secret, method, uri, body)
	return hmac.Equal([]byte(expected), []byte(strings.ToLower(strings.TrimSpace(signature))))
}
