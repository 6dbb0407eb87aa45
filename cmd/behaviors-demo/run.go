package main

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/go-drift/behaviors/internal/demo"
	"github.com/go-drift/behaviors/pkg/config"
	"github.com/go-drift/behaviors/pkg/core"
	"github.com/go-drift/behaviors/pkg/logging"
	"github.com/go-drift/behaviors/pkg/metrics"
)

const shutdownTimeout = 5 * time.Second

type runOptions struct {
	Dir         string
	ConfigPath  string
	Duration    time.Duration
	MetricsAddr string
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the clock host",
	Long: `Mounts the clock host and renders it until the duration elapses or the
process is interrupted. Every render is printed on its own line.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		var opts runOptions
		opts.Dir, _ = cmd.Flags().GetString("dir")
		opts.ConfigPath, _ = cmd.Flags().GetString("config")
		opts.Duration, _ = cmd.Flags().GetDuration("duration")
		opts.MetricsAddr, _ = cmd.Flags().GetString("metrics-addr")

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return runDemo(ctx, opts, cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().DurationP("duration", "d", 3*time.Second, "How long to run; 0 runs until interrupted")
	runCmd.Flags().StringP("config", "c", "", "Path to a configuration file (default: <dir>/behaviors.yaml if present)")
	runCmd.Flags().String("metrics-addr", "", "Serve Prometheus metrics on this address")
}

func loadConfig(opts runOptions) (*config.Config, error) {
	if opts.ConfigPath != "" {
		return config.Load(opts.ConfigPath)
	}
	return config.LoadOptional(opts.Dir)
}

func runDemo(ctx context.Context, opts runOptions, w io.Writer) error {
	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}

	logger, err := config.NewLogger(cfg.Log)
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck
	defer logging.SetLogger(logging.SetLogger(logger))

	namespace := cfg.Metrics.Namespace
	if namespace == "" {
		namespace = metrics.DefaultNamespace
	}
	collector := metrics.NewCollector(namespace)
	defer metrics.SetDefault(metrics.SetDefault(collector))

	addr := opts.MetricsAddr
	if addr == "" {
		addr = cfg.Metrics.Addr
	}
	if addr != "" {
		shutdown, err := serveMetrics(addr, collector.Handler(), logger)
		if err != nil {
			return err
		}
		defer shutdown()
	}

	host := demo.NewClockHost(w)
	if err := config.Apply(cfg, host); err != nil {
		return err
	}

	if opts.Duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Duration)
		defer cancel()
	}

	owner := core.NewBuildOwner()
	element := core.NewElement(host, owner)
	defer element.Unmount()
	if err := element.Mount(ctx); err != nil {
		return err
	}

	err = owner.Run(ctx)
	if stderrors.Is(err, context.DeadlineExceeded) || stderrors.Is(err, context.Canceled) {
		err = nil
	}
	logger.Info("demo finished", zap.Int("renders", host.Renders()))
	return err
}

// serveMetrics starts an HTTP server exposing handler on /metrics and
// returns the function that stops it.
func serveMetrics(addr string, handler http.Handler, logger *zap.Logger) (func(), error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", handler)
	srv := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("serving metrics", zap.String("addr", ln.Addr().String()))
		if err := srv.Serve(ln); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server failed", zap.Error(err))
		}
	}()

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			logger.Warn("metrics server shutdown", zap.Error(err))
		}
	}, nil
}
