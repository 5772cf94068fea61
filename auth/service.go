package auth

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	kitlog "github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/google/uuid"
)

const (
	DefaultAddr     = ":9090"
	DefaultTokenTTL = time.Hour
)

var ErrInvalidCredentials = errors.New("invalid credentials")

type Config struct {
	Addr     string
	Username string
	Password string
	// TokenTTL is how long an issued token is accepted by the API.
	TokenTTL time.Duration
	Logger   kitlog.Logger
}

func DefaultConfig() Config {
	return Config{
		Addr:     DefaultAddr,
		Username: "admin",
		Password: "admin",
		TokenTTL: DefaultTokenTTL,
		Logger:   kitlog.NewNopLogger(),
	}
}

// Service authenticates observers that want to receive cluster reports. It
// only runs on the coordinator. Once an observer has authenticated, the flag
// stays set for the lifetime of the node.
type Service struct {
	addr     string
	username string
	password string
	tokenTTL time.Duration
	logger   kitlog.Logger
	handler  http.Handler
	now      func() time.Time

	authenticated uint32
	tokensMut     sync.Mutex
	tokens        map[string]time.Time

	mut      sync.Mutex
	server   *http.Server
	listener net.Listener
	done     chan struct{}
}

func NewService(members Members, rounds Rounds, conf Config) *Service {
	s := &Service{
		addr:     conf.Addr,
		username: conf.Username,
		password: conf.Password,
		tokenTTL: conf.TokenTTL,
		logger:   conf.Logger,
		now:      time.Now,
		tokens:   make(map[string]time.Time),
	}

	r := chi.NewRouter()
	NewHandler(s, members, rounds).Register(r)
	s.handler = r

	return s
}

// Authenticate checks the credentials and issues a new token. Expired tokens
// are forgotten on every successful login.
func (s *Service) Authenticate(username, password string) (string, error) {
	userOk := subtle.ConstantTimeCompare([]byte(username), []byte(s.username)) == 1
	passOk := subtle.ConstantTimeCompare([]byte(password), []byte(s.password)) == 1

	if !userOk || !passOk {
		level.Warn(s.logger).Log("msg", "authentication failed", "username", username)
		return "", ErrInvalidCredentials
	}

	token := uuid.NewString()
	now := s.now()

	s.tokensMut.Lock()

	for t, expires := range s.tokens {
		if !now.Before(expires) {
			delete(s.tokens, t)
		}
	}

	s.tokens[token] = now.Add(s.tokenTTL)
	s.tokensMut.Unlock()

	atomic.StoreUint32(&s.authenticated, 1)

	level.Info(s.logger).Log("msg", "observer authenticated", "username", username)

	return token, nil
}

// Authenticated returns true if at least one observer has been authenticated.
func (s *Service) Authenticated() bool {
	return atomic.LoadUint32(&s.authenticated) == 1
}

// ValidToken returns true if the token was issued by this service and has
// not expired yet.
func (s *Service) ValidToken(token string) bool {
	s.tokensMut.Lock()
	defer s.tokensMut.Unlock()

	expires, ok := s.tokens[token]

	return ok && s.now().Before(expires)
}

func (s *Service) tokenCount() int {
	s.tokensMut.Lock()
	defer s.tokensMut.Unlock()

	return len(s.tokens)
}

// Addr returns the bound address, or nil if the service is not running.
func (s *Service) Addr() net.Addr {
	s.mut.Lock()
	defer s.mut.Unlock()

	if s.listener == nil {
		return nil
	}

	return s.listener.Addr()
}

// EnsureRunning starts the HTTP server unless it is already running.
func (s *Service) EnsureRunning() error {
	s.mut.Lock()
	defer s.mut.Unlock()

	if s.listener != nil {
		return nil
	}

	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.addr, err)
	}

	server := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	done := make(chan struct{})

	go func() {
		defer close(done)

		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			level.Error(s.logger).Log("msg", "auth server failed", "err", err)
		}
	}()

	s.server = server
	s.listener = listener
	s.done = done

	level.Info(s.logger).Log("msg", "auth service started", "addr", listener.Addr())

	return nil
}

// Stop closes the listener and all active connections.
func (s *Service) Stop() {
	s.mut.Lock()

	if s.server == nil {
		s.mut.Unlock()
		return
	}

	server, done := s.server, s.done
	s.server, s.listener, s.done = nil, nil, nil
	s.mut.Unlock()

	if err := server.Close(); err != nil {
		level.Debug(s.logger).Log("msg", "failed to close auth server", "err", err)
	}

	<-done

	level.Info(s.logger).Log("msg", "auth service stopped")
}
