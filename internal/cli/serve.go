package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/aretw0/grasp/internal/config"
	"github.com/aretw0/grasp/internal/presentation/tui"
	httpAdapter "github.com/aretw0/grasp/pkg/adapters/http"
	"github.com/aretw0/grasp/pkg/adapters/mcp"
	"github.com/aretw0/grasp/pkg/observability"
	"github.com/aretw0/grasp/pkg/ports"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"
	"golang.org/x/term"
)

// ShutdownTimeout bounds the graceful HTTP shutdown.
const ShutdownTimeout = 5 * time.Second

// ServeOptions contains everything the serve command needs.
type ServeOptions struct {
	Config   config.Config
	MCPStdio bool

	// HTTPListener overrides Config.HTTP.Addr when set.
	HTTPListener net.Listener

	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
	Quiet  bool

	// Logger defaults to one built from Config.Log.
	Logger *slog.Logger
}

// Serve runs the node and its ingress adapters until ctx is cancelled.
// MCP is served on stdio when MCPStdio or Config.MCP.Enabled is set;
// closing stdin then also stops the node.
func Serve(ctx context.Context, opts ServeOptions) error {
	cfg := opts.Config
	if opts.Stdin == nil {
		opts.Stdin = os.Stdin
	}
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	if opts.Stderr == nil {
		opts.Stderr = os.Stderr
	}

	logger := opts.Logger
	if logger == nil {
		var err error
		if logger, err = NewLogger(cfg.Log); err != nil {
			return err
		}
	}

	bus, err := NewBus(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := bus.Close(); err != nil {
			logger.Warn("Failed to close bus", "err", err)
		}
	}()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics, err := observability.NewMetrics(reg)
	if err != nil {
		return fmt.Errorf("failed to register metrics: %w", err)
	}
	tap := observability.NewTap(64, logger)

	node, err := NewNode(cfg, bus, logger, metrics.Hooks(), tap.Hooks(), debugHooks(logger))
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return node.Run(gctx)
	})

	var endpoints []string
	if cfg.HTTP.Enabled || opts.HTTPListener != nil {
		ln := opts.HTTPListener
		if ln == nil {
			if ln, err = net.Listen("tcp", cfg.HTTP.Addr); err != nil {
				cancel()
				_ = g.Wait()
				return fmt.Errorf("failed to listen on %s: %w", cfg.HTTP.Addr, err)
			}
		}
		endpoints = append(endpoints, fmt.Sprintf("HTTP `http://%s` (`/openapi.yaml`, `/events`, `/metrics`)", ln.Addr()))

		httpOpts := []httpAdapter.Option{
			httpAdapter.WithEvents(tap),
			httpAdapter.WithMetrics(reg),
			httpAdapter.WithLogger(logger),
		}
		if pinger, ok := bus.(ports.Pinger); ok {
			httpOpts = append(httpOpts, httpAdapter.WithHealthCheck(pinger.Ping))
		}

		srv := &http.Server{
			Handler:           httpAdapter.NewHandler(node, httpOpts...),
			ReadHeaderTimeout: 10 * time.Second,
		}
		g.Go(func() error {
			logger.Info("HTTP server listening", "addr", ln.Addr().String())
			if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("http server: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Warn("Graceful shutdown did not complete", "timeout", ShutdownTimeout, "err", err)
				return srv.Close()
			}
			return nil
		})
	}

	if opts.MCPStdio || cfg.MCP.Enabled {
		endpoints = append(endpoints, "MCP on stdio (`pick`, `handoff`, `get_state`)")
		g.Go(func() error {
			defer cancel()
			select {
			case <-node.Ready():
			case <-gctx.Done():
				return nil
			}
			return mcp.NewServer(node, mcp.WithLogger(logger)).ServeStdio(gctx, opts.Stdin, opts.Stdout)
		})
	}

	if !opts.Quiet && isTerminal(opts.Stderr) {
		tui.PrintBanner(opts.Stderr)
		summary := tui.Summary{
			Name:      cfg.Node.Name,
			Bus:       cfg.Bus.Kind,
			Topics:    node.Topics(),
			State:     node.State(),
			Endpoints: endpoints,
		}
		if out, err := tui.NewRenderer()(summary.Markdown()); err == nil {
			fmt.Fprint(opts.Stderr, out)
		}
	}

	return g.Wait()
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
