package auth

import (
	"fmt"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService() *Service {
	conf := DefaultConfig()
	conf.Addr = "127.0.0.1:0"

	return NewService(newTestMembers(), &fakeRounds{}, conf)
}

func TestService_EnsureRunningIsIdempotent(t *testing.T) {
	s := newTestService()
	defer s.Stop()

	require.NoError(t, s.EnsureRunning())
	addr := s.Addr()

	require.NoError(t, s.EnsureRunning())
	assert.Equal(t, addr, s.Addr())
}

func TestService_StopAndRestart(t *testing.T) {
	s := newTestService()

	require.NoError(t, s.EnsureRunning())
	s.Stop()

	assert.Nil(t, s.Addr())

	// Stopping a stopped service is a noop.
	s.Stop()

	require.NoError(t, s.EnsureRunning())
	defer s.Stop()

	assert.NotNil(t, s.Addr())
}

func TestService_ServesHTTP(t *testing.T) {
	s := newTestService()
	require.NoError(t, s.EnsureRunning())

	defer s.Stop()

	url := fmt.Sprintf("http://%s/auth", s.Addr())

	resp, err := http.Post(url, "application/json", strings.NewReader(`{"username":"admin","password":"admin"}`))
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, s.Authenticated())

	// The flag survives a restart of the service.
	s.Stop()
	assert.True(t, s.Authenticated())
}

func TestService_AddressInUse(t *testing.T) {
	s := newTestService()
	require.NoError(t, s.EnsureRunning())

	defer s.Stop()

	conf := DefaultConfig()
	conf.Addr = s.Addr().String()
	other := NewService(newTestMembers(), &fakeRounds{}, conf)

	assert.Error(t, other.EnsureRunning())
	assert.Nil(t, other.Addr())
}

func TestService_ExpiredTokensForgotten(t *testing.T) {
	service := NewService(newTestMembers(), &fakeRounds{}, DefaultConfig())

	for i := 0; i < 3; i++ {
		login(t, service)
	}

	require.Equal(t, 3, service.tokenCount())

	service.now = func() time.Time {
		return time.Now().Add(DefaultTokenTTL + time.Minute)
	}

	token := login(t, service)
	assert.Equal(t, 1, service.tokenCount())
	assert.True(t, service.ValidToken(token))
}
