package report

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/twmb/murmur3"

	"github.com/maxpoletaev/overseer/membership"
)

const headerPrefix = "overseer-report"

var ErrMalformedMessage = errors.New("malformed report message")

// Message is a single report datagram. The header line carries the ID of the
// coordinator that produced it and the digest of the body.
type Message struct {
	Coordinator membership.NodeID
	Digest      uint64
	Body        []byte
}

func NewMessage(coordinator membership.NodeID, body []byte) Message {
	return Message{
		Coordinator: coordinator,
		Digest:      murmur3.Sum64(body),
		Body:        body,
	}
}

func (m Message) Encode() []byte {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "%s coordinator=%d digest=%016x\n", headerPrefix, m.Coordinator, m.Digest)
	buf.Write(m.Body)

	return buf.Bytes()
}

// DecodeMessage parses a datagram and verifies its digest.
func DecodeMessage(data []byte) (Message, error) {
	reader := bufio.NewReader(bytes.NewReader(data))

	header, err := reader.ReadString('\n')
	if err != nil {
		return Message{}, fmt.Errorf("%w: missing header", ErrMalformedMessage)
	}

	fields := strings.Fields(header)
	if len(fields) != 3 || fields[0] != headerPrefix {
		return Message{}, fmt.Errorf("%w: bad header %q", ErrMalformedMessage, header)
	}

	msg := Message{
		Body: data[len(header):],
	}

	for _, field := range fields[1:] {
		key, value, ok := strings.Cut(field, "=")
		if !ok {
			return Message{}, fmt.Errorf("%w: bad field %q", ErrMalformedMessage, field)
		}

		switch key {
		case "coordinator":
			id, err := strconv.ParseUint(value, 10, 32)
			if err != nil {
				return Message{}, fmt.Errorf("%w: bad coordinator: %v", ErrMalformedMessage, err)
			}

			msg.Coordinator = membership.NodeID(id)
		case "digest":
			digest, err := strconv.ParseUint(value, 16, 64)
			if err != nil {
				return Message{}, fmt.Errorf("%w: bad digest: %v", ErrMalformedMessage, err)
			}

			msg.Digest = digest
		default:
			return Message{}, fmt.Errorf("%w: unknown field %q", ErrMalformedMessage, key)
		}
	}

	if murmur3.Sum64(msg.Body) != msg.Digest {
		return Message{}, fmt.Errorf("%w: digest mismatch", ErrMalformedMessage)
	}

	return msg, nil
}
