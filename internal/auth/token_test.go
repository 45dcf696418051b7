package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractAccessToken(t *testing.T) {
	tests := []struct {
		name   string
		cookie *http.Cookie
		header string
		want   string
	}{
		{"Cookie preferred", &http.Cookie{Name: "access_token", Value: "cookie_token"}, "Bearer header_token", "cookie_token"},
		{"Header fallback", nil, "Bearer header_token", "header_token"},
		{"Empty cookie falls back to header", &http.Cookie{Name: "access_token", Value: ""}, "Bearer header_token", "header_token"},
		{"Other cookie ignored", &http.Cookie{Name: "session", Value: "s"}, "", ""},
		{"No token", nil, "", ""},
		{"Basic scheme", nil, "Basic user:pass", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/v1/payment/pay", nil)
			if tt.cookie != nil {
				req.AddCookie(tt.cookie)
			}
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}

			assert.Equal(t, tt.want, ExtractAccessToken(req))
		})
	}
}
