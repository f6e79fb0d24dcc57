package cli

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/grasp/internal/config"
	"github.com/aretw0/grasp/internal/logging"
	"github.com/aretw0/grasp/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServe_HTTP(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	base := "http://" + ln.Addr().String()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- Serve(ctx, ServeOptions{
			Config:       config.Default(),
			HTTPListener: ln,
			Quiet:        true,
			Logger:       logging.NewNop(),
		})
	}()

	require.Eventually(t, func() bool {
		res, err := http.Get(base + "/health")
		if err != nil {
			return false
		}
		res.Body.Close()
		return res.StatusCode == http.StatusOK
	}, 2*time.Second, 20*time.Millisecond)

	res, err := http.Post(base+"/pick", "application/json", strings.NewReader(`{"label":"apple"}`))
	require.NoError(t, err)
	res.Body.Close()
	require.Equal(t, http.StatusOK, res.StatusCode)

	res, err = http.Get(base + "/state")
	require.NoError(t, err)
	var state domain.HoldState
	require.NoError(t, json.NewDecoder(res.Body).Decode(&state))
	res.Body.Close()
	assert.Equal(t, domain.Holding("apple"), state)

	res, err = http.Get(base + "/metrics")
	require.NoError(t, err)
	body, _ := io.ReadAll(res.Body)
	res.Body.Close()
	assert.Contains(t, string(body), "grasp_holding 1")
	assert.Contains(t, string(body), "go_goroutines")

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * ShutdownTimeout):
		t.Fatal("serve did not stop")
	}
}

func TestServe_HealthReportsBroker(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)

	cfg := config.Default()
	cfg.Bus.Kind = config.BusRedis
	cfg.Redis.Addr = mr.Addr()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	base := "http://" + ln.Addr().String()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- Serve(ctx, ServeOptions{Config: cfg, HTTPListener: ln, Quiet: true, Logger: logging.NewNop()})
	}()

	health := func() int {
		res, err := http.Get(base + "/health")
		if err != nil {
			return 0
		}
		res.Body.Close()
		return res.StatusCode
	}
	require.Eventually(t, func() bool { return health() == http.StatusOK }, 2*time.Second, 20*time.Millisecond)

	mr.Close()
	assert.Eventually(t, func() bool { return health() == http.StatusServiceUnavailable }, 2*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(2 * ShutdownTimeout):
		t.Fatal("serve did not stop")
	}
}

func TestServe_MCPStdioEOFStops(t *testing.T) {
	cfg := config.Default()
	cfg.HTTP.Enabled = false

	done := make(chan error, 1)
	go func() {
		done <- Serve(context.Background(), ServeOptions{
			Config:   cfg,
			MCPStdio: true,
			Stdin:    strings.NewReader(""),
			Stdout:   io.Discard,
			Quiet:    true,
			Logger:   logging.NewNop(),
		})
	}()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("serve did not stop when stdin closed")
	}
}

func TestServe_MCPEnabledByConfig(t *testing.T) {
	cfg := config.Default()
	cfg.HTTP.Enabled = false
	cfg.MCP.Enabled = true

	done := make(chan error, 1)
	go func() {
		done <- Serve(context.Background(), ServeOptions{
			Config: cfg,
			Stdin:  strings.NewReader(""),
			Stdout: io.Discard,
			Quiet:  true,
			Logger: logging.NewNop(),
		})
	}()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("mcp.enabled did not start the stdio server")
	}
}

func TestServe_BadConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Bus.Kind = "smoke-signals"

	err := Serve(context.Background(), ServeOptions{Config: cfg, Quiet: true, Logger: logging.NewNop()})
	assert.ErrorContains(t, err, "unknown bus kind")
}
