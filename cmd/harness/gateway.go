// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/jmoyers/harness/internal/config"
	"github.com/jmoyers/harness/internal/gatewayrecord"
	"github.com/jmoyers/harness/internal/gwserver"
	"github.com/jmoyers/harness/internal/logging"
	"github.com/jmoyers/harness/internal/metrics"
	"github.com/jmoyers/harness/internal/ptysession"
	"github.com/jmoyers/harness/internal/storage"
	"github.com/jmoyers/harness/internal/syncedstore"
	"github.com/jmoyers/harness/internal/wsbridge"
)

var gatewayCmd = &cobra.Command{
	Use:   "gateway",
	Short: "start, stop, or inspect the control-plane gateway",
}

func init() {
	startCmd := &cobra.Command{
		Use:   "start",
		Short: "start the gateway, taking over ownership if the prior instance is dead",
		RunE:  runGatewayStart,
	}
	startCmd.Flags().String("config", "", "path to harness.hjson (defaults to the standard search path)")
	startCmd.Flags().Int("port", 0, "listener port (0 picks any free loopback port)")
	startCmd.Flags().String("auth-token", "", "bearer token hello must present (defaults to a random token)")
	startCmd.Flags().Bool("force", false, "take over even if the existing record's pid looks alive")

	stopCmd := &cobra.Command{
		Use:   "stop",
		Short: "stop the running gateway",
		RunE:  runGatewayStop,
	}
	stopCmd.Flags().String("config", "", "path to harness.hjson (defaults to the standard search path)")

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "report whether a gateway is running",
		RunE:  runGatewayStatus,
	}
	statusCmd.Flags().String("config", "", "path to harness.hjson (defaults to the standard search path)")

	gatewayCmd.AddCommand(startCmd, stopCmd, statusCmd)
}

func loadGatewayConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	loader := config.NewLoader()
	if path == "" {
		found, err := loader.FindConfig()
		if err != nil {
			return config.Default(), nil
		}
		path = found
	}
	return loader.LoadWithDefaults(cmd.Context(), path)
}

func stateDir(cfg *config.Config) (string, error) {
	dir := cfg.Gateway.StateDir
	if len(dir) >= 2 && dir[:2] == "~/" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		dir = filepath.Join(home, dir[2:])
	}
	return dir, nil
}

func recordStore(cfg *config.Config) (*gatewayrecord.Store, string, error) {
	dir, err := stateDir(cfg)
	if err != nil {
		return nil, "", err
	}
	return gatewayrecord.NewStore(filepath.Join(dir, "gateway.json")), dir, nil
}

func randomToken() (string, error) {
	buf := make([]byte, 24)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

func runGatewayStart(cmd *cobra.Command, args []string) error {
	cfg, err := loadGatewayConfig(cmd)
	if err != nil {
		return badArgs("load config: %v", err)
	}

	if port, _ := cmd.Flags().GetInt("port"); port != 0 {
		cfg.Gateway.Port = port
	}
	authToken, _ := cmd.Flags().GetString("auth-token")
	if authToken == "" {
		authToken = os.Getenv(cfg.Gateway.AuthTokenEnv)
	}
	if authToken == "" {
		authToken, err = randomToken()
		if err != nil {
			return fmt.Errorf("generate auth token: %w", err)
		}
	}

	store, dir, err := recordStore(cfg)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}

	logging.Init(logging.Config{
		Level:      logging.Level(cfg.Logging.Level),
		JSONOutput: cfg.Logging.JSON,
	})
	log := logging.WithComponent("gateway")

	ln, err := net.Listen("tcp", fmt.Sprintf("%s:%d", cfg.Gateway.Host, cfg.Gateway.Port))
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	boundPort := ln.Addr().(*net.TCPAddr).Port

	rec, err := gatewayrecord.Elect(store, boundPort, authToken)
	if err != nil {
		already, ok := err.(*gatewayrecord.AlreadyRunningError)
		if !ok {
			ln.Close()
			return fmt.Errorf("elect gateway: %w", err)
		}
		force, _ := cmd.Flags().GetBool("force")
		if !force {
			// S6: a concurrent start against a live gateway is not a
			// failure -- the loser defers to the winner's record.
			ln.Close()
			fmt.Printf("gateway already running (pid %d, port %d)\n", already.Existing.PID, already.Existing.Port)
			return nil
		}
		if proc, findErr := os.FindProcess(already.Existing.PID); findErr == nil {
			proc.Signal(syscall.SIGTERM)
		}
		for i := 0; i < 50 && gatewayrecord.PIDLive(already.Existing.PID); i++ {
			time.Sleep(100 * time.Millisecond)
		}
		rec, err = gatewayrecord.Elect(store, boundPort, authToken)
		if err != nil {
			ln.Close()
			return fmt.Errorf("elect gateway after forced takeover: %w", err)
		}
	}
	defer gatewayrecord.Release(store)

	dbPath := cfg.Storage.Path
	if dbPath == "" {
		dbPath = filepath.Join(dir, "harness.db")
	}
	db, err := storage.Open(dbPath)
	if err != nil {
		ln.Close()
		return fmt.Errorf("open storage: %w", err)
	}
	defer db.Close()

	events, maxCursor, err := db.LoadAllEvents()
	if err != nil {
		ln.Close()
		return fmt.Errorf("load event log: %w", err)
	}
	syncStore := syncedstore.New()
	syncStore.Replay(events)

	sessions := ptysession.NewManager(ptysession.DefaultConfig(), ptysession.HeuristicClassifier{})

	srv := gwserver.New(authToken, syncStore, sessions, db, maxCursor)
	srv.StateDir = dir

	if cfg.Metrics.Enabled {
		metrics.Register()
		go func() {
			log.Info().Str("addr", cfg.Metrics.Addr).Msg("serving metrics and websocket bridge")
			if err := http.ListenAndServe(cfg.Metrics.Addr, wsbridge.NewRouter(srv)); err != nil {
				log.Error().Err(err).Msg("web server stopped")
			}
		}()
	}

	serveErr := make(chan error, 1)
	go func() { serveErr <- srv.Serve(ln) }()

	log.Info().Int("port", boundPort).Int("pid", rec.PID).Msg("gateway started")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		ln.Close()
		log.Info().Str("signal", sig.String()).Msg("gateway shutting down")
		// os.Exit skips deferred calls, so the record is released here.
		gatewayrecord.Release(store)
		if sig == syscall.SIGINT {
			os.Exit(exitSIGINT)
		}
		os.Exit(exitSIGTERM)
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("serve: %w", err)
		}
	}
	return nil
}

func runGatewayStop(cmd *cobra.Command, args []string) error {
	cfg, err := loadGatewayConfig(cmd)
	if err != nil {
		return badArgs("load config: %v", err)
	}
	store, _, err := recordStore(cfg)
	if err != nil {
		return err
	}
	rec, err := store.Load()
	if err != nil {
		return fmt.Errorf("load gateway record: %w", err)
	}
	if rec == nil || !gatewayrecord.PIDLive(rec.PID) {
		fmt.Println("no gateway running")
		return gatewayrecord.Release(store)
	}
	proc, err := os.FindProcess(rec.PID)
	if err != nil {
		return fmt.Errorf("find gateway process: %w", err)
	}
	if err := proc.Signal(syscall.SIGTERM); err != nil {
		return fmt.Errorf("signal gateway: %w", err)
	}
	for i := 0; i < 50; i++ {
		if !gatewayrecord.PIDLive(rec.PID) {
			fmt.Println("gateway stopped")
			return nil
		}
		time.Sleep(100 * time.Millisecond)
	}
	return fmt.Errorf("gateway did not stop within 5s")
}

func runGatewayStatus(cmd *cobra.Command, args []string) error {
	cfg, err := loadGatewayConfig(cmd)
	if err != nil {
		return badArgs("load config: %v", err)
	}
	store, _, err := recordStore(cfg)
	if err != nil {
		return err
	}
	info, err := gatewayrecord.Status(store)
	if err != nil {
		return fmt.Errorf("gateway status: %w", err)
	}
	if !info.Running {
		fmt.Println("not running")
		return nil
	}
	fmt.Printf("running pid=%d port=%d uptime=%s\n", info.PID, info.Port, info.Uptime.Round(time.Second))
	return nil
}
