package heartbeat

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"
)

const (
	pingMessage = "PING"
	pongMessage = "PONG"
)

var ErrUnexpectedReply = errors.New("unexpected reply")

// ProbeFunc performs a single liveness round-trip against the given address.
type ProbeFunc func(ctx context.Context, addr string) error

// NewProbe returns a ProbeFunc that connects over TCP within connectTimeout,
// sends a ping and expects a pong within readTimeout.
func NewProbe(connectTimeout, readTimeout time.Duration) ProbeFunc {
	return func(ctx context.Context, addr string) error {
		dialer := net.Dialer{Timeout: connectTimeout}

		conn, err := dialer.DialContext(ctx, "tcp", addr)
		if err != nil {
			return fmt.Errorf("dial: %w", err)
		}

		defer func() {
			_ = conn.Close()
		}()

		if err := conn.SetDeadline(time.Now().Add(readTimeout)); err != nil {
			return fmt.Errorf("set deadline: %w", err)
		}

		if _, err := fmt.Fprintf(conn, "%s\n", pingMessage); err != nil {
			return fmt.Errorf("write: %w", err)
		}

		reply, err := bufio.NewReader(conn).ReadString('\n')
		if err != nil {
			return fmt.Errorf("read: %w", err)
		}

		if strings.TrimSpace(reply) != pongMessage {
			return fmt.Errorf("%w: %q", ErrUnexpectedReply, reply)
		}

		return nil
	}
}
