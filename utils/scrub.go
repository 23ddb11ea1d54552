package utils

import (
	"fmt"
	"strings"
)

const maskedValue = "***"

// sensitiveKeys are substrings that mark a log key as carrying a secret
var sensitiveKeys = []string{
	"password",
	"token",
	"apikey",
	"api_key",
	"apitoken",
	"api_token",
	"authorization",
	"secret",
	"credential",
	"private_key",
	"privatekey",
}

// IsSensitiveKey reports whether a key name looks like it holds a secret.
// Dashes are treated as underscores, so "api-key" matches "api_key".
func IsSensitiveKey(key string) bool {
	normalized := strings.ReplaceAll(strings.ToLower(key), "-", "_")
	for _, s := range sensitiveKeys {
		if strings.Contains(normalized, s) {
			return true
		}
	}
	return false
}

// MaskSecret keeps the first four characters and stars out the rest,
// capped at twenty stars.
func MaskSecret(value string) string {
	runes := []rune(value)
	if len(runes) < 4 {
		return maskedValue
	}
	stars := len(runes) - 4
	if stars > 20 {
		stars = 20
	}
	return string(runes[:4]) + strings.Repeat("*", stars)
}

// Scrub returns a copy of a key-value list with sensitive values masked.
// Nested maps are scrubbed recursively.
func Scrub(keyvals ...interface{}) []interface{} {
	if len(keyvals) == 0 {
		return keyvals
	}

	out := make([]interface{}, len(keyvals))
	copy(out, keyvals)

	for i := 0; i+1 < len(out); i += 2 {
		key := fmt.Sprint(out[i])
		out[i+1] = scrubValue(key, out[i+1])
	}
	return out
}

// ScrubMap returns a copy of m with sensitive values masked.
func ScrubMap(m map[string]interface{}) map[string]interface{} {
	if m == nil {
		return nil
	}
	out := make(map[string]interface{}, len(m))
	for k, v := range m {
		out[k] = scrubValue(k, v)
	}
	return out
}

func scrubValue(key string, value interface{}) interface{} {
	if IsSensitiveKey(key) {
		if s, ok := value.(string); ok {
			return MaskSecret(s)
		}
		return maskedValue
	}

	switch v := value.(type) {
	case map[string]interface{}:
		return ScrubMap(v)
	case map[string]string:
		out := make(map[string]interface{}, len(v))
		for k, s := range v {
			out[k] = scrubValue(k, s)
		}
		return out
	case []interface{}:
		items := make([]interface{}, len(v))
		for i, item := range v {
			items[i] = scrubValue("", item)
		}
		return items
	}
	return value
}
