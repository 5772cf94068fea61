package heartbeat

import (
	"bufio"
	"errors"
	"fmt"
	"net"
	"strings"
	"sync"
	"time"

	kitlog "github.com/go-kit/log"
	"github.com/go-kit/log/level"
)

// Responder answers liveness probes sent by other nodes. Each connection
// carries exactly one ping and one pong.
type Responder struct {
	addr        string
	logger      kitlog.Logger
	readTimeout time.Duration

	mut      sync.Mutex
	listener net.Listener
	stopped  bool
	wg       sync.WaitGroup
}

func NewResponder(addr string, readTimeout time.Duration, logger kitlog.Logger) *Responder {
	return &Responder{
		addr:        addr,
		logger:      logger,
		readTimeout: readTimeout,
	}
}

// Start binds the listening address and starts accepting probes in the background.
func (r *Responder) Start() error {
	r.mut.Lock()
	defer r.mut.Unlock()

	if r.listener != nil {
		return nil
	}

	listener, err := net.Listen("tcp", r.addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", r.addr, err)
	}

	r.listener = listener
	r.stopped = false

	level.Info(r.logger).Log("msg", "heartbeat responder started", "addr", listener.Addr())

	r.wg.Add(1)

	go func() {
		defer r.wg.Done()
		r.acceptLoop(listener)
	}()

	return nil
}

// Addr returns the bound address, or nil if the responder is not running.
func (r *Responder) Addr() net.Addr {
	r.mut.Lock()
	defer r.mut.Unlock()

	if r.listener == nil {
		return nil
	}

	return r.listener.Addr()
}

// Stop closes the listener, which unblocks the pending accept call, and waits
// for in-flight probes to be answered.
func (r *Responder) Stop() {
	r.mut.Lock()

	if r.listener == nil {
		r.mut.Unlock()
		return
	}

	r.stopped = true
	_ = r.listener.Close()
	r.listener = nil
	r.mut.Unlock()

	r.wg.Wait()

	level.Info(r.logger).Log("msg", "heartbeat responder stopped")
}

func (r *Responder) isStopped() bool {
	r.mut.Lock()
	defer r.mut.Unlock()

	return r.stopped
}

func (r *Responder) acceptLoop(listener net.Listener) {
	for {
		conn, err := listener.Accept()
		if err != nil {
			if r.isStopped() || errors.Is(err, net.ErrClosed) {
				level.Debug(r.logger).Log("msg", "heartbeat listener closed")
				return
			}

			level.Error(r.logger).Log("msg", "heartbeat accept failed", "err", err)

			continue
		}

		r.wg.Add(1)

		go func() {
			defer r.wg.Done()
			r.handle(conn)
		}()
	}
}

func (r *Responder) handle(conn net.Conn) {
	defer func() {
		_ = conn.Close()
	}()

	if err := conn.SetDeadline(time.Now().Add(r.readTimeout)); err != nil {
		return
	}

	msg, err := bufio.NewReader(conn).ReadString('\n')
	if err != nil {
		level.Debug(r.logger).Log("msg", "failed to read probe", "remote", conn.RemoteAddr(), "err", err)
		return
	}

	if strings.TrimSpace(msg) != pingMessage {
		level.Warn(r.logger).Log("msg", "unexpected probe message", "remote", conn.RemoteAddr())
		return
	}

	if _, err := fmt.Fprintf(conn, "%s\n", pongMessage); err != nil {
		level.Debug(r.logger).Log("msg", "failed to write pong", "remote", conn.RemoteAddr(), "err", err)
	}
}
