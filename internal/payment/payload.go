package payment

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"mime"
	"net/url"
	"strconv"
	"strings"
)

// Payload is a decoded webhook body. Values keep the JSON number literal.
type Payload map[string]any

// Has reports whether every key is present with a non-null value.
func (p Payload) Has(keys ...string) bool {
	for _, k := range keys {
		if v, ok := p[k]; !ok || v == nil {
			return false
		}
	}
	return true
}

// String renders scalar values as text; objects and arrays yield "".
func (p Payload) String(key string) string {
	switch v := p[key].(type) {
	case string:
		return v
	case json.Number:
		return v.String()
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int64:
		return strconv.FormatInt(v, 10)
	case int:
		return strconv.Itoa(v)
	case bool:
		return strconv.FormatBool(v)
	default:
		return ""
	}
}

// First returns the first non-empty String among keys.
func (p Payload) First(keys ...string) string {
	for _, k := range keys {
		if s := p.String(k); s != "" {
			return s
		}
	}
	return ""
}

func (p Payload) Float(key string) (float64, bool) {
	s := p.String(key)
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

func (p Payload) Object(key string) Payload {
	switch v := p[key].(type) {
	case map[string]any:
		return Payload(v)
	case Payload:
		return v
	}
	return nil
}

// SameAmount compares monetary values to the cent.
func SameAmount(a, b float64) bool {
	return math.Round(a*100) == math.Round(b*100)
}

// DecodeJSON decodes a JSON object keeping number literals intact.
func DecodeJSON(body []byte) (Payload, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var out map[string]any
	if err := dec.Decode(&out); err != nil {
		return nil, fmt.Errorf("decode payload: %w", err)
	}
	return Payload(out), nil
}

// DecodePayload merges query parameters with a JSON or form body; body fields win.
func DecodePayload(contentType string, body []byte, query url.Values) (Payload, error) {
	out := Payload{}
	for k, v := range query {
		if len(v) > 0 {
			out[k] = v[0]
		}
	}

	if len(bytes.TrimSpace(body)) == 0 {
		return out, nil
	}

	mediaType, _, _ := mime.ParseMediaType(contentType)
	switch {
	case mediaType == "application/x-www-form-urlencoded":
		form, err := url.ParseQuery(string(body))
		if err != nil {
			return nil, fmt.Errorf("decode form payload: %w", err)
		}
		for k, v := range form {
			if len(v) > 0 {
				out[k] = v[0]
			}
		}
	case strings.HasSuffix(mediaType, "json") || bytes.HasPrefix(bytes.TrimSpace(body), []byte("{")):
		decoded, err := DecodeJSON(body)
		if err != nil {
			return nil, err
		}
		for k, v := range decoded {
			out[k] = v
		}
	default:
		return nil, fmt.Errorf("decode payload: unsupported content type %q", contentType)
	}
	return out, nil
}

// MarshalJSON encodes v without HTML escaping, the way providers sign bodies.
func MarshalJSON(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
