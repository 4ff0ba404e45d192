package market

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPayloadUnwrapsDataEnvelope(t *testing.T) {
	p, err := NewPayload([]byte(`{"statusCode":200,"data":{"currentPrice":"187.25"}}`))
	require.NoError(t, err)
	price, ok := p.CurrentPrice()
	assert.True(t, ok)
	assert.Equal(t, 187.25, price)
	assert.Equal(t, `{"currentPrice":"187.25"}`, p.Compact())
}

func TestNewPayloadRejectsInvalid(t *testing.T) {
	for _, body := range []string{"", "<html>", `{"data":null}`} {
		_, err := NewPayload([]byte(body))
		assert.ErrorIs(t, err, ErrInvalidPayload, body)
	}
}

func TestPayloadCurrentPriceShapes(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want float64
		ok   bool
	}{
		{"keyed by id", `{"10003":{"currentPrice":190.1}}`, 190.1, true},
		{"ohlc series", `[{"close":61000},{"close":62000.5}]`, 62000.5, true},
		{"empty series", `[]`, 0, false},
		{"no price", `{"name":"x"}`, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := MustPayload(tt.doc).CurrentPrice()
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPayloadEmptyAndSub(t *testing.T) {
	assert.True(t, Payload{}.Empty())
	assert.True(t, MustPayload(`[]`).Empty())
	assert.True(t, MustPayload(`{}`).Empty())

	p := MustPayload(`{"upcoming":[{"type":"DIVIDEND"}]}`)
	sub, ok := p.Sub("upcoming")
	require.True(t, ok)
	assert.False(t, sub.Empty())
	_, ok = p.Sub("missing")
	assert.False(t, ok)
}

func TestPayloadBytesAreCopied(t *testing.T) {
	p := MustPayload(`{"a":1}`)
	b := p.Bytes()
	b[0] = 'x'
	assert.Equal(t, `{"a":1}`, p.Compact())
}

func TestFetchErrorTemporary(t *testing.T) {
	assert.True(t, (&FetchError{Kind: KindPrice}).Temporary())
	assert.True(t, (&FetchError{Kind: KindPrice, Status: 503}).Temporary())
	assert.True(t, (&FetchError{Kind: KindPrice, Status: 429}).Temporary())
	assert.False(t, (&FetchError{Kind: KindPrice, Status: 404}).Temporary())
}
