package main

import (
	"context"
	"crypto/tls"
	"encoding/binary"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/rzbill/fluxstate/internal/backingstore"
	cfgpkg "github.com/rzbill/fluxstate/internal/config"
	"github.com/rzbill/fluxstate/internal/statereader"
	idpkg "github.com/rzbill/fluxstate/pkg/id"
	logpkg "github.com/rzbill/fluxstate/pkg/log"
)

// version is set via -ldflags at build time; "dev" otherwise.
var version = "dev"

func main() {
	level := os.Getenv("FLUXSTATE_LOG_LEVEL")
	parsed, err := logpkg.ParseLevel(level)
	if err != nil || level == "" {
		parsed = logpkg.InfoLevel
	}
	logger := logpkg.NewLogger(
		logpkg.WithLevel(parsed),
		logpkg.WithFormatter(&logpkg.TextFormatter{}),
		logpkg.WithOutput(logpkg.NewConsoleOutput()),
	)
	logpkg.RedirectStdLog(logger)

	rootCmd := &cobra.Command{
		Use:   "fluxstate",
		Short: "fluxstate demo CLI",
		Long:  "fluxstate exercises the batching state reader against a local Pebble-backed store or a remote backing-store process.",
	}

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print the fluxstate version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(version)
		},
	}
	rootCmd.AddCommand(versionCmd)

	demoCmd := &cobra.Command{
		Use:   "demo",
		Short: "Seed a local backing store and run a batched read against it",
		RunE: func(cmd *cobra.Command, args []string) error {
			dataDir, _ := cmd.Flags().GetString("data-dir")
			metricsAddr, _ := cmd.Flags().GetString("metrics")

			cfg := cfgpkg.Default()
			if dataDir != "" {
				cfg.DataDir = dataDir
			}
			if metricsAddr != "" {
				cfg.MetricsAddr = metricsAddr
			}
			cfgpkg.FromEnv(&cfg)

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			return runDemo(ctx, cfg, logger)
		},
	}
	demoCmd.Flags().String("data-dir", "", "Pebble data directory for the local backing store (default: OS-specific app data dir)")
	demoCmd.Flags().String("metrics", "", "Prometheus /metrics listen address (empty disables it)")
	rootCmd.AddCommand(demoCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runDemo(ctx context.Context, cfg cfgpkg.Config, logger logpkg.Logger) error {
	var store statereader.BackingStore
	var localStore *backingstore.LocalStore

	if cfg.BackingStoreTarget != "" {
		dialOpts := dialOptionsFor(cfg)
		dial := backingstore.DialTarget(cfg.BackingStoreTarget, dialOpts...)
		store = backingstore.NewClient(func(ctx context.Context) (*grpc.ClientConn, error) {
			dialCtx, cancel := context.WithTimeout(ctx, time.Duration(cfg.DialTimeoutMs)*time.Millisecond)
			defer cancel()
			return dial(dialCtx)
		})
		logger.Info("using remote backing store", logpkg.Str("target", cfg.BackingStoreTarget))
	} else {
		ls, err := backingstore.OpenLocalStore(cfg.DataDir)
		if err != nil {
			return fmt.Errorf("open local store: %w", err)
		}
		defer ls.Close()
		localStore = ls
		store = ls
		logger.Info("using local Pebble-backed store", logpkg.Str("dataDir", cfg.DataDir))
	}

	var reg prometheus.Registerer = prometheus.NewRegistry()
	metrics := statereader.NewPromMetrics(reg)
	if cfg.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg.(*prometheus.Registry), promhttp.HandlerOpts{}))
		srv := &http.Server{Addr: cfg.MetricsAddr, Handler: mux}
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error("metrics server stopped", logpkg.Err(err))
			}
		}()
		go func() {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
		logger.Info("metrics listening", logpkg.Str("addr", cfg.MetricsAddr))
	}

	computation := "demo-computation"
	demoID := idpkg.NewGenerator().Next()
	key := []byte("demo-key-" + demoID.String())
	workToken := int64(binary.BigEndian.Uint64(demoID.Bytes()[:8]))

	if localStore != nil {
		if err := seed(localStore, computation, key); err != nil {
			return fmt.Errorf("seed: %w", err)
		}
	}

	binding := statereader.Binding{Computation: computation, Key: key, WorkToken: workToken}
	r := statereader.New(binding, store, statereader.WithLogger(logger), statereader.WithMetrics(metrics))

	itemsHandle := statereader.List[int64](r, []byte("items"), decodeVarint)
	countHandle := statereader.Value[int64](r, []byte("count"), decodeVarint)
	watermarkHandle := statereader.Watermark(r, []byte("low-watermark"))

	items, err := itemsHandle.Get(ctx)
	if err != nil {
		return fmt.Errorf("read items: %w", err)
	}
	count, ok, err := countHandle.Get(ctx)
	if err != nil {
		return fmt.Errorf("read count: %w", err)
	}
	ms, wok, err := watermarkHandle.Get(ctx)
	if err != nil {
		return fmt.Errorf("read watermark: %w", err)
	}

	logger.Info("demo read complete",
		logpkg.Any("items", items),
		logpkg.Int64("count", count),
		logpkg.Bool("count_present", ok),
		logpkg.Int64("watermark_ms", ms),
		logpkg.Bool("watermark_present", wok),
	)
	return nil
}

func dialOptionsFor(cfg cfgpkg.Config) []grpc.DialOption {
	if cfg.BackingStoreTLS {
		return []grpc.DialOption{grpc.WithTransportCredentials(credentials.NewTLS(&tls.Config{}))}
	}
	return []grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}
}

func seed(store *backingstore.LocalStore, computation string, key []byte) error {
	entries := []statereader.Payload{
		{Data: append([]byte{0x00}, encodeVarint(1)...)},
		{Data: append([]byte{0x00}, encodeVarint(2)...)},
		{Data: append([]byte{0x00}, encodeVarint(3)...)},
	}
	if err := store.PutList(computation, key, []byte("items"), entries); err != nil {
		return err
	}
	if err := store.PutValue(computation, key, []byte("count"), encodeVarint(3)); err != nil {
		return err
	}
	return store.PutWatermarkHolds(computation, key, []byte("low-watermark"), []int64{1000, 2000})
}
