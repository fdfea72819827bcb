package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"ipsync/internal/config"
	server "ipsync/internal/http"
	"ipsync/internal/jobs"
	"ipsync/internal/log"
	"ipsync/internal/namesilo"
	"ipsync/internal/services"
)

const (
	defaultConfigPath = "config/config.yaml"
	shutdownTimeout   = 10 * time.Second
)

var (
	cfg       *config.Config
	logger    *slog.Logger
	logCloser io.Closer

	flagConfigFilePath string // value of --config flag
)

func main() {
	rootCmd.PersistentFlags().StringVar(&flagConfigFilePath, "config", "", "Config file to load - overrides $IPSYNC_CONFIG, default is "+defaultConfigPath)

	// never print messages
	rootCmd.SilenceErrors = true

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)

	err := rootCmd.Execute()
	if logCloser != nil {
		_ = logCloser.Close()
	}
	if err != nil {
		slog.Error("ipsync failed", "err", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:          "ipsync-api",
	Short:        "Speed-test orchestrator and DNS record sync",
	SilenceUsage: true,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "serve the HTTP API and web UI",
	// parse the config, setup logging; version needs neither
	PreRunE: initIPSync,
	RunE:    doServe,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "print build information",
	Run: func(cmd *cobra.Command, args []string) {
		info, ok := debug.ReadBuildInfo()
		if !ok {
			fmt.Println("ipsync: version info not available")
			return
		}

		fmt.Printf("ipsync: %s\n", info.Main.Version)
		fmt.Printf("go:     %s\n", info.GoVersion)
		for _, s := range info.Settings {
			switch s.Key {
			case "vcs.revision":
				fmt.Printf("commit: %s\n", s.Value)
			case "vcs.time":
				fmt.Printf("date:   %s\n", s.Value)
			}
		}
	},
}

func doServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ctx = log.ContextAttrs(ctx, slog.Group("ipsync",
		slog.String("cmd", "serve"),
		slog.Int("pid", os.Getpid()),
	))

	registrar, err := namesilo.New(cfg.Namesilo)
	if err != nil {
		return err
	}
	dnsSync := services.NewDNSSync(registrar, registrar.Domain(), registrar.RRHost(), logger)

	resultPath := filepath.Join(cfg.SpeedTest.WorkDir, cfg.SpeedTest.OutputFile)
	orch := jobs.NewOrchestrator(jobs.NewStatusStore(), jobs.NewSpeedTest(cfg.SpeedTest, logger), resultPath, logger)

	srv := server.NewServer(cfg, orch, dnsSync, logger)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.InfoContext(ctx, "server_listening", "addr", cfg.Server.Addr())
		if err := srv.Listen(); err != nil {
			return fmt.Errorf("listen on %s: %w", cfg.Server.Addr(), err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.InfoContext(ctx, "server_shutting_down")

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()

		err := srv.Shutdown(shutdownCtx)
		// runs are never cancelled; give an in-flight one a bounded chance to finish
		if werr := orch.Wait(shutdownCtx); werr != nil {
			logger.WarnContext(ctx, "speedtest_abandoned", "error", werr)
		}
		return err
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	logger.InfoContext(ctx, "server_stopped")
	return nil
}

func initIPSync(cmd *cobra.Command, _ []string) error {
	configPath, explicit := resolveConfigPath(flagConfigFilePath, os.LookupEnv)

	var err error
	if !explicit && !exists(configPath) {
		// no config file: defaults plus environment overrides
		cfg = config.Default()
		if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
			return fmt.Errorf("parsing environment: %w", err)
		}
		cfg.ApplyDefaults()
	} else {
		cfg, err = config.Load(configPath)
		if err != nil {
			return fmt.Errorf("parsing config: %w", err)
		}
	}

	logger, logCloser, err = log.New(cfg.Log)
	if err != nil {
		return fmt.Errorf("initializing logging: %w", err)
	}
	slog.SetDefault(logger)

	return nil
}

// resolveConfigPath picks the --config flag, then $IPSYNC_CONFIG, then the
// default path. explicit is false only for the default.
func resolveConfigPath(flagPath string, lookup config.LookupFunc) (path string, explicit bool) {
	if flagPath != "" {
		return flagPath, true
	}
	if envPath, ok := lookup("IPSYNC_CONFIG"); ok && envPath != "" {
		return envPath, true
	}
	return defaultConfigPath, false
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
