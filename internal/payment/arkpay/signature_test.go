package arkpay

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSign(t *testing.T) {
	sig := Sign("ark-secret", "POST", "/api/v1/merchant/api/transactions", []byte(`{"a":1}`))
	assert.Equal(t, "3a7d41d29b0ff6ba4a9d97c1f28c4c12205b50e1f1a19d946f17cacade956e8a", sig)

	t.Run("Method is case insensitive", func(t *testing.T) {
		assert.Equal(t, sig, Sign("ark-secret", "post", "/api/v1/merchant/api/transactions", []byte(`{"a":1}`)))
	})
}

func TestVerify(t *testing.T) {
	secret := "ark-secret"
	uri := "/api/v1/payment/callback"
	body := []byte(`{"merchantTransactionId":"10","status":"COMPLETED"}`)
	sig := Sign(secret, "POST", uri, body)

	t.Run("Valid", func(t *testing.T) {
		assert.True(t, Verify(secret, "POST", uri, body, sig))
		assert.True(t, Verify(secret, "POST", uri, body, strings.ToUpper(sig)))
	})

	t.Run("Tampered body", func(t *testing.T) {
		tampered := []byte(`{"merchantTransactionId":"10","status":"COMPLETED "}`)
		assert.False(t, Verify(secret, "POST", uri, tampered, sig))
	})

	t.Run("Different method or uri", func(t *testing.T) {
		assert.False(t, Verify(secret, "GET", uri, body, sig))
		assert.False(t, Verify(secret, "POST", uri+"?x=1", body, sig))
	})

	t.Run("Wrong secret", func(t *testing.T) {
		assert.False(t, Verify("other", "POST", uri, body, sig))
	})

	t.Run("Missing signature or secret", func(t *testing.T) {
		assert.False(t, Verify(secret, "POST", uri, body, ""))
		assert.False(t, Verify("", "POST", uri, body, Sign("", "POST", uri, body)))
	})
}
