package activity

import (
	"net/http"
	"strings"
)

// MaskToken replaces redacted values wherever they appear in a payload.
const MaskToken = "***MASKED***"

// AuthorizationMask replaces Authorization header values in metadata.
const AuthorizationMask = "Bearer ***"

// metadataHeaders is the whitelist of request headers copied into record
// metadata. Everything outside the list is dropped.
var metadataHeaders = []string{
	"Accept",
	"Accept-Language",
	"Authorization",
	"Content-Type",
	"Origin",
	"Referer",
}

// RedactHeaders returns the whitelisted subset of h for record metadata.
// The Authorization value is replaced by AuthorizationMask; absent headers
// are omitted.
func RedactHeaders(h http.Header) map[string]string {
	out := make(map[string]string, len(metadataHeaders))
	for _, name := range metadataHeaders {
		value := h.Get(name)
		if value == "" {
			continue
		}
		if name == "Authorization" {
			value = AuthorizationMask
		}
		out[name] = value
	}
	return out
}

// sensitiveFields is the fixed denylist of payload field names that are
// masked before storage, matched case-insensitively at any nesting depth.
var sensitiveFields = map[string]struct{}{
	"password":              {},
	"password_confirmation": {},
	"current_password":      {},
	"new_password":          {},
	"token":                 {},
	"api_key":               {},
	"secret":                {},
	"credit_card":           {},
	"ssn":                   {},
}

// Redact returns a copy of the payload with every sensitive field replaced
// by the mask token, descending into nested objects and arrays. The input
// is not modified.
func Redact(payload map[string]any) map[string]any {
	if payload == nil {
		return nil
	}

	out := make(map[string]any, len(payload))
	for key, value := range payload {
		if _, sensitive := sensitiveFields[strings.ToLower(key)]; sensitive {
			out[key] = MaskToken
			continue
		}
		out[key] = redactValue(value)
	}
	return out
}

func redactValue(value any) any {
	switch v := value.(type) {
	case map[string]any:
		return Redact(v)
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = redactValue(item)
		}
		return out
	default:
		return value
	}
}
