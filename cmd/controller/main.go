// Controller accepts workers, collects their experience into a replay
// memory and drives an estimator with it.
//
// Usage:
//
//	go run ./cmd/controller                          # defaults
//	go run ./cmd/controller -config controller.yaml  # configuration file
//
// Workers connect to ws://<listen>/workers and metrics are served at
// http://<listen>/metrics.
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/grandpahao/oh-my-q-learning/agent"
	"github.com/grandpahao/oh-my-q-learning/agent/policy"
	"github.com/grandpahao/oh-my-q-learning/config"
	"github.com/grandpahao/oh-my-q-learning/controller"
	"github.com/grandpahao/oh-my-q-learning/experiment/summary"
	"github.com/grandpahao/oh-my-q-learning/transport/ws"
	"github.com/grandpahao/oh-my-q-learning/utils/logging"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	configPath := flag.String("config", "", "controller configuration file")
	flag.Parse()

	cfg := config.DefaultController()
	if *configPath != "" {
		var err error
		if cfg, err = config.LoadController(*configPath); err != nil {
			log.Fatalf("Failed to load configuration: %v", err)
		}
	}
	cfg.ApplyEnv()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	acceptTimeout, err := time.ParseDuration(cfg.AcceptTimeout)
	if err != nil {
		log.Fatalf("Invalid accept timeout: %v", err)
	}

	logger := logging.NewStd(log.New(os.Stderr, "", log.LstdFlags), cfg.Debug)
	logger.Info("controller_starting", "listen", cfg.Listen,
		"workers", cfg.Workers)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT,
		syscall.SIGTERM)
	defer stop()

	listener := ws.NewListener(logger)
	mux := http.NewServeMux()
	mux.Handle("/workers", listener)
	mux.Handle("/metrics", promhttp.Handler())
	server := &http.Server{Addr: cfg.Listen, Handler: mux}
	go func() {
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to serve: %v", err)
		}
	}()

	if err := run(ctx, cfg, listener, acceptTimeout, logger); err != nil {
		logger.Error("controller_stopped", "error", err)
	} else {
		logger.Info("controller_stopped")
	}

	_ = listener.Close()
	shutdownCtx, cancel := context.WithTimeout(context.Background(),
		5*time.Second)
	defer cancel()
	_ = server.Shutdown(shutdownCtx)
}

func run(ctx context.Context, cfg config.Controller, listener *ws.Listener,
	acceptTimeout time.Duration, logger logging.Logger) error {
	acceptCtx, cancel := context.WithTimeout(ctx, acceptTimeout)
	peers, err := controller.AcceptPeers(acceptCtx, listener, cfg.Workers)
	cancel()
	if err != nil {
		return err
	}

	env, err := controller.NewVecEnv(peers, logger)
	if err != nil {
		return err
	}
	defer env.Close()

	estimator, err := agent.NewNull(env.ActionCount())
	if err != nil {
		return err
	}
	explore, err := policy.NewEGreedy(cfg.Exploration.Initial,
		cfg.Exploration.Final, cfg.Exploration.DecaySteps, env.ActionCount(),
		cfg.Exploration.Seed)
	if err != nil {
		return err
	}
	memory, err := cfg.Memory.Create()
	if err != nil {
		return err
	}

	sink := summary.Multi{summary.NewPrometheus(prometheus.DefaultRegisterer)}
	if cfg.SummaryPath != "" {
		file, err := summary.NewFile(cfg.SummaryPath)
		if err != nil {
			return err
		}
		defer file.Close()
		sink = append(sink, file)
	}

	collector := &controller.Collector{
		Env:       env,
		Estimator: estimator,
		Policy:    explore,
		Memory:    memory,
		Sink:      sink,
		Log:       logger,
		Schedule:  cfg.Schedule,
	}
	return collector.Run(ctx)
}
