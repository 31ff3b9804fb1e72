package kafka

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type payload struct {
	CatalogID int64  `json:"catalog_id"`
	Text      string `json:"text"`
}

func TestEncode(t *testing.T) {
	msg, err := encode(Event{Key: "docs/a.txt", Value: payload{CatalogID: 7, Text: "hello"}})
	require.NoError(t, err)
	assert.Equal(t, "docs/a.txt", string(msg.Key))
	assert.JSONEq(t, `{"catalog_id":7,"text":"hello"}`, string(msg.Value))

	_, err = encode(Event{Key: "bad", Value: make(chan int)})
	assert.ErrorContains(t, err, `marshaling event "bad"`)
}

func TestDecodeJSON(t *testing.T) {
	got, err := DecodeJSON[payload]([]byte(`{"catalog_id":3,"text":"x"}`))
	require.NoError(t, err)
	assert.Equal(t, payload{CatalogID: 3, Text: "x"}, got)

	_, err = DecodeJSON[payload]([]byte(`{`))
	assert.ErrorContains(t, err, "decoding kafka message")
}
