package report

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"

	"golang.org/x/net/ipv4"
)

// Subscriber receives reports sent to a multicast group. Consecutive
// datagrams with the same digest are delivered only once.
type Subscriber struct {
	conn       *ipv4.PacketConn
	raw        net.PacketConn
	lastDigest uint64
	seen       bool
}

// Subscribe joins the multicast group on the given interface, or on the
// loopback interface if the name is empty.
func Subscribe(group, ifaceName string) (*Subscriber, error) {
	groupAddr, err := net.ResolveUDPAddr("udp4", group)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve group address: %w", err)
	}

	iface, err := resolveInterface(ifaceName)
	if err != nil {
		return nil, err
	}

	raw, err := net.ListenPacket("udp4", net.JoinHostPort("0.0.0.0", strconv.Itoa(groupAddr.Port)))
	if err != nil {
		return nil, fmt.Errorf("failed to listen: %w", err)
	}

	conn := ipv4.NewPacketConn(raw)

	if err := conn.JoinGroup(iface, &net.UDPAddr{IP: groupAddr.IP}); err != nil {
		_ = raw.Close()
		return nil, fmt.Errorf("failed to join group %s: %w", group, err)
	}

	return &Subscriber{
		conn: conn,
		raw:  raw,
	}, nil
}

// Next blocks until a new report arrives or the timeout expires. Zero timeout
// means no timeout. Malformed datagrams are skipped.
func (s *Subscriber) Next(timeout time.Duration) (Message, error) {
	buf := make([]byte, maxDatagram)

	var deadline time.Time
	if timeout > 0 {
		deadline = time.Now().Add(timeout)
	}

	if err := s.conn.SetReadDeadline(deadline); err != nil {
		return Message{}, err
	}

	for {
		n, _, _, err := s.conn.ReadFrom(buf)
		if err != nil {
			return Message{}, err
		}

		msg, err := DecodeMessage(buf[:n])
		if err != nil {
			if errors.Is(err, ErrMalformedMessage) {
				continue
			}

			return Message{}, err
		}

		if s.seen && msg.Digest == s.lastDigest {
			continue
		}

		s.seen = true
		s.lastDigest = msg.Digest

		body := make([]byte, len(msg.Body))
		copy(body, msg.Body)
		msg.Body = body

		return msg, nil
	}
}

func (s *Subscriber) Close() error {
	return s.raw.Close()
}
