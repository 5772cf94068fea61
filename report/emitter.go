package report

import (
	"bytes"
	"fmt"
	"net"
	"time"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"golang.org/x/net/ipv4"

	"github.com/maxpoletaev/overseer/membership"
	"github.com/maxpoletaev/overseer/resource"
)

// Emitter sends rendered reports to a multicast group, one datagram per report.
type Emitter struct {
	group  string
	iface  string
	logger log.Logger
	now    func() time.Time
}

func NewEmitter(group, iface string, logger log.Logger) *Emitter {
	return &Emitter{
		group:  group,
		iface:  iface,
		logger: logger,
		now:    time.Now,
	}
}

// Report renders the snapshots and sends them to the group. A new socket is
// opened for every report.
func (e *Emitter) Report(coordinator membership.NodeID, snapshots []resource.Snapshot) error {
	var body bytes.Buffer
	if err := Render(&body, coordinator, snapshots, e.now()); err != nil {
		return fmt.Errorf("failed to render report: %w", err)
	}

	msg := NewMessage(coordinator, body.Bytes())

	data := msg.Encode()
	if len(data) > maxDatagram {
		return fmt.Errorf("report too large: %d bytes", len(data))
	}

	if err := e.send(data); err != nil {
		return err
	}

	level.Debug(e.logger).Log(
		"msg", "report sent",
		"group", e.group,
		"nodes", len(snapshots),
		"digest", fmt.Sprintf("%016x", msg.Digest),
	)

	return nil
}

func (e *Emitter) send(data []byte) error {
	groupAddr, err := net.ResolveUDPAddr("udp4", e.group)
	if err != nil {
		return fmt.Errorf("failed to resolve group address: %w", err)
	}

	iface, err := resolveInterface(e.iface)
	if err != nil {
		return err
	}

	conn, err := net.ListenPacket("udp4", "0.0.0.0:0")
	if err != nil {
		return fmt.Errorf("failed to open socket: %w", err)
	}

	defer func() {
		_ = conn.Close()
	}()

	pc := ipv4.NewPacketConn(conn)

	if err := pc.SetMulticastInterface(iface); err != nil {
		return fmt.Errorf("failed to set multicast interface: %w", err)
	}

	if err := pc.SetMulticastTTL(1); err != nil {
		return fmt.Errorf("failed to set multicast ttl: %w", err)
	}

	if err := pc.SetMulticastLoopback(true); err != nil {
		return fmt.Errorf("failed to enable multicast loopback: %w", err)
	}

	if _, err := pc.WriteTo(data, nil, groupAddr); err != nil {
		return fmt.Errorf("failed to send report: %w", err)
	}

	return nil
}
