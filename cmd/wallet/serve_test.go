package main

import (
	"context"
	"io"
	"net"
	"strconv"
	"strings"
	"testing"

	"github.com/spf13/cobra"

	"wallet/internal/config"
	"wallet/internal/log"
)

func freeAddr(t *testing.T) *net.TCPAddr {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()
	return ln.Addr().(*net.TCPAddr)
}

func TestServeStartsNothingWhenBrokerIsUnreachable(t *testing.T) {
	dashboard := freeAddr(t)
	broker := freeAddr(t)

	c := config.Default()
	c.Port = strconv.Itoa(dashboard.Port)
	c.DataBackend = config.BackendMemory
	c.AMQPURL = "amqp://guest:guest@" + broker.String() + "/"
	prevCfg, prevLogger := cfg, logger
	cfg, logger = c, log.New(log.Config{Output: io.Discard})
	t.Cleanup(func() { cfg, logger = prevCfg, prevLogger })

	cmd := &cobra.Command{}
	cmd.SetContext(context.Background())
	err := runServe(cmd, nil)
	if err == nil || !strings.Contains(err.Error(), "dial AMQP") {
		t.Fatalf("runServe = %v, want dial error", err)
	}

	ln, err := net.Listen("tcp", dashboard.String())
	if err != nil {
		t.Fatalf("dashboard address still in use after failed start: %v", err)
	}
	ln.Close()
}
