package jsonutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractObject(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
		ok   bool
	}{
		{"bare", `{"action":"BUY"}`, `{"action":"BUY"}`, true},
		{"prose around", "Here you go: {\"a\":{\"b\":1}} thanks", `{"a":{"b":1}}`, true},
		{"fenced", "```json\n{\"action\":\"HOLD\"}\n```", `{"action":"HOLD"}`, true},
		{"brace inside string", `{"r":"use } carefully"}`, `{"r":"use } carefully"}`, true},
		{"not json", "not json", "", false},
		{"unterminated", `{"a":1`, "", false},
		{"empty", "   ", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ExtractObject(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLooksLikeArray(t *testing.T) {
	assert.True(t, LooksLikeArray(`[{"a":1}]`))
	assert.False(t, LooksLikeArray(`{"a":[1]}`))
	assert.False(t, LooksLikeArray(`plain`))
	assert.True(t, LooksLikeArray("```json\n[1, 2]\n```"))
	assert.False(t, LooksLikeArray(`Based on [technicals]: {"action":"BUY"}`))
}

func TestCompact(t *testing.T) {
	assert.Equal(t, `{"a":1}`, Compact([]byte("{ \"a\" : 1 }")))
	assert.Equal(t, "oops", Compact([]byte(" oops ")))
}
