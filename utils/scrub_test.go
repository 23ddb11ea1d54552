package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsSensitiveKey(t *testing.T) {
	for _, key := range []string{"password", "API-Key", "auth_token", "clientSecret", "PRIVATE_KEY"} {
		assert.True(t, IsSensitiveKey(key), key)
	}
	for _, key := range []string{"session_id", "count", "tool", ""} {
		assert.False(t, IsSensitiveKey(key), key)
	}
}

func TestMaskSecret(t *testing.T) {
	assert.Equal(t, "***", MaskSecret(""))
	assert.Equal(t, "***", MaskSecret("abc"))
	assert.Equal(t, "abcd", MaskSecret("abcd"))
	assert.Equal(t, "sk-1****", MaskSecret("sk-12345"))
	assert.Equal(t, "sk-1"+"********************", MaskSecret("sk-1234567890123456789012345678"))
}

func TestScrub(t *testing.T) {
	in := []interface{}{"session_id", "s1", "api_key", "sk-abcdef", "retries", 3}
	out := Scrub(in...)

	assert.Equal(t, []interface{}{"session_id", "s1", "api_key", "sk-a*****", "retries", 3}, out)
	assert.Equal(t, "sk-abcdef", in[3], "input must not be modified")

	assert.Empty(t, Scrub())
}

func TestScrubNested(t *testing.T) {
	out := ScrubMap(map[string]interface{}{
		"headers": map[string]string{"Authorization": "Bearer xyz123", "Accept": "json"},
		"items":   []interface{}{map[string]interface{}{"token": 42}},
		"count":   1,
	})

	headers := out["headers"].(map[string]interface{})
	assert.Equal(t, "Bear*********", headers["Authorization"])
	assert.Equal(t, "json", headers["Accept"])

	items := out["items"].([]interface{})
	assert.Equal(t, "***", items[0].(map[string]interface{})["token"])
	assert.Equal(t, 1, out["count"])

	assert.Nil(t, ScrubMap(nil))
}
