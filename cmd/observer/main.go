package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	kitlog "github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/jessevdk/go-flags"

	"github.com/maxpoletaev/overseer/auth"
	"github.com/maxpoletaev/overseer/report"
)

var opts struct {
	AuthAddr  string `long:"auth-addr" env:"AUTH_ADDR" description:"address of the coordinator auth service" default:"127.0.0.1:9090"`
	Username  string `long:"username" env:"USERNAME" description:"observer username" default:"admin"`
	Password  string `long:"password" env:"PASSWORD" description:"observer password" default:"admin"`
	Group     string `long:"group" env:"GROUP" description:"multicast group for reports" default:"239.0.0.1:12345"`
	Interface string `long:"interface" env:"INTERFACE" description:"network interface for multicast, loopback if empty"`
	Verbose   bool   `long:"verbose" description:"verbose mode" env:"VERBOSE"`
}

func login(client *http.Client) (string, error) {
	body, err := json.Marshal(auth.Credentials{
		Username: opts.Username,
		Password: opts.Password,
	})
	if err != nil {
		return "", err
	}

	url := fmt.Sprintf("http://%s/auth", opts.AuthAddr)

	resp, err := client.Post(url, "application/json", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("auth request failed: %w", err)
	}

	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var errResp auth.ErrorResponse
		_ = json.NewDecoder(resp.Body).Decode(&errResp)

		return "", fmt.Errorf("auth rejected (%d): %s", resp.StatusCode, errResp.Error)
	}

	var tokenResp auth.TokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tokenResp); err != nil {
		return "", fmt.Errorf("failed to decode auth response: %w", err)
	}

	return tokenResp.Token, nil
}

func main() {
	p := flags.NewParser(&opts, flags.Default)

	if _, err := p.Parse(); err != nil {
		if err.(*flags.Error).Type != flags.ErrHelp {
			fmt.Println("cli error:", err)
		}

		os.Exit(2)
	}

	logger := kitlog.NewLogfmtLogger(kitlog.NewSyncWriter(os.Stderr))

	if !opts.Verbose {
		logger = level.NewFilter(logger, level.AllowInfo())
	}

	token, err := login(&http.Client{Timeout: 5 * time.Second})
	if err != nil {
		level.Error(logger).Log("msg", "failed to authenticate", "addr", opts.AuthAddr, "err", err)
		os.Exit(1)
	}

	level.Info(logger).Log("msg", "authenticated", "token", token)

	sub, err := report.Subscribe(opts.Group, opts.Interface)
	if err != nil {
		level.Error(logger).Log("msg", "failed to subscribe to reports", "group", opts.Group, "err", err)
		os.Exit(1)
	}

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-interrupt
		_ = sub.Close()
	}()

	for {
		msg, err := sub.Next(0)
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return
			}

			level.Error(logger).Log("msg", "failed to receive report", "err", err)
			time.Sleep(time.Second)

			continue
		}

		level.Debug(logger).Log("msg", "report received", "coordinator", msg.Coordinator)
		fmt.Println(string(msg.Body))
	}
}
