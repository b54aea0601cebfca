// Worker owns one emulator and serves a controller over a websocket.
//
// Usage:
//
//	go run ./cmd/worker                          # defaults, random identity
//	go run ./cmd/worker -config worker.yaml      # configuration file
//	OHMYQ_IDENTITY=w3 OHMYQ_SEED=3 go run ./cmd/worker -config worker.yaml
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/grandpahao/oh-my-q-learning/config"
	"github.com/grandpahao/oh-my-q-learning/transport/ws"
	"github.com/grandpahao/oh-my-q-learning/utils/logging"
	"github.com/grandpahao/oh-my-q-learning/worker"
)

func main() {
	configPath := flag.String("config", "", "worker configuration file")
	dialTimeout := flag.Duration("dial-timeout", 30*time.Second,
		"timeout for connecting to the controller")
	flag.Parse()

	cfg := config.DefaultWorker()
	if *configPath != "" {
		var err error
		if cfg, err = config.LoadWorker(*configPath); err != nil {
			log.Fatalf("Failed to load configuration: %v", err)
		}
	}
	cfg.ApplyEnv()
	if cfg.Identity == "" {
		cfg.Identity = "worker-" + uuid.NewString()
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	logger := logging.NewStd(log.New(os.Stderr, "", log.LstdFlags), cfg.Debug)
	logger.Info("worker_starting", "identity", cfg.Identity,
		"controller", cfg.Controller)

	emu, caps, err := cfg.Emulator.Create()
	if err != nil {
		log.Fatalf("Failed to create emulator: %v", err)
	}
	pipeline, err := cfg.Pipeline.Create(emu, caps)
	if err != nil {
		log.Fatalf("Failed to create pipeline: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *dialTimeout)
	conn, err := ws.Dial(ctx, cfg.Controller, cfg.Identity)
	cancel()
	if err != nil {
		_ = pipeline.Close()
		log.Fatalf("Failed to connect: %v", err)
	}

	// A worker only stops on close. A signal closes the connection,
	// which ends Run with a transport error.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("shutdown_signal_received", "signal", sig.String())
		_ = conn.Close()
	}()

	if err := worker.New(cfg.Identity, pipeline, conn, logger).Run(); err != nil {
		logger.Error("worker_stopped", "identity", cfg.Identity, "error", err)
		os.Exit(1)
	}
	logger.Info("worker_stopped", "identity", cfg.Identity)
}
