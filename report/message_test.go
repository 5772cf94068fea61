package report

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maxpoletaev/overseer/membership"
)

func TestMessage_EncodeDecode(t *testing.T) {
	msg := NewMessage(5, []byte("line one\nline two\n"))

	got, err := DecodeMessage(msg.Encode())
	require.NoError(t, err)

	assert.Equal(t, membership.NodeID(5), got.Coordinator)
	assert.Equal(t, msg.Digest, got.Digest)
	assert.Equal(t, "line one\nline two\n", string(got.Body))
}

func TestDecodeMessage_Malformed(t *testing.T) {
	valid := NewMessage(2, []byte("body\n")).Encode()

	tampered := make([]byte, len(valid))
	copy(tampered, valid)
	tampered[len(tampered)-2] = 'X'

	tests := map[string][]byte{
		"empty":           {},
		"no header":       []byte("just a body"),
		"wrong prefix":    []byte("something coordinator=1 digest=00\nbody"),
		"missing field":   []byte("overseer-report coordinator=1\nbody"),
		"bad coordinator": []byte("overseer-report coordinator=x digest=00\nbody"),
		"bad digest":      []byte("overseer-report coordinator=1 digest=zz\nbody"),
		"unknown field":   []byte("overseer-report coordinator=1 color=red\nbody"),
		"tampered body":   tampered,
	}

	for name, data := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := DecodeMessage(data)
			assert.ErrorIs(t, err, ErrMalformedMessage)
		})
	}
}
