package main

import (
	"context"
	"cube-race/auth"
	"cube-race/infrastructure/broadcast"
	"cube-race/infrastructure/gateway"
	"cube-race/infrastructure/scramble"
	"cube-race/internal"
	"cube-race/moderation"
	"cube-race/observability"
	"cube-race/runtime"
	"cube-race/runtime/workers"
	"cube-race/services"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/mama165/sdk-go/logs"
	"go.opentelemetry.io/otel"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

// run owns every resource of the node so that deferred cleanups run before
// the process exits.
func run() error {
	// 1. Configuration & Logger
	config, err := internal.LoadConfig()
	if err != nil {
		return err
	}
	log := logs.GetLoggerFromString(config.LogLevel)
	nodeID := config.NodeID
	if nodeID == "" {
		nodeID = uuid.NewString()
	}
	log = log.With("node_id", nodeID)

	// 2. Storage (BadgerDB, or a JetStream bucket shared by the cluster)
	openCtx, cancelOpen := context.WithTimeout(context.Background(), 30*time.Second)
	stores, err := openBackend(openCtx, log, config)
	cancelOpen()
	if err != nil {
		return err
	}
	defer stores.close()
	store, queue, leases := stores.store, stores.queue, stores.leases

	// 3. Broadcast
	metrics := observability.NewMetrics()
	var publisher *broadcast.Publisher
	var subscriber *broadcast.Subscriber
	if config.NatsURL != "" {
		if publisher, subscriber, err = broadcast.NewNATS(log, config.NatsURL, config.BroadcastTopic, metrics); err != nil {
			return fmt.Errorf("broadcast failed: %w", err)
		}
		log.Info("Broadcasting room events over NATS", "url", config.NatsURL)
	} else {
		publisher, subscriber = broadcast.NewGoChannel(log, config.BroadcastTopic, metrics, config.BufferSize)
		log.Info("Broadcasting room events in process")
	}
	defer func() {
		_ = subscriber.Close()
		_ = publisher.Close()
	}()

	// 4. Services
	seed := config.ScrambleSeed
	if seed == 0 {
		seed = rand.Uint64()
	}
	passwords := auth.NewArgon2Hasher(auth.DefaultPasswordParams)
	tokens := auth.NewTokenIssuer(config.JWTSecret, config.TokenDuration)
	names, err := newModerator(log, config)
	if err != nil {
		return fmt.Errorf("moderation failed: %w", err)
	}
	rooms := services.NewRoomService(log, store, queue, publisher, scramble.NewRandomMoves(seed), passwords, names)

	// 5. Context & Signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 6. Room processors, run by their own supervisor
	worker := runtime.NewRoomWorker(context.Background(), log, nodeID,
		workers.NewSupervisor(log, config.RestartInterval),
		workers.ProcessorDeps{
			Store:       store,
			Queue:       queue,
			Leases:      leases,
			Handler:     rooms,
			Broadcaster: publisher,
			Metrics:     metrics,
			Tracer:      otel.Tracer("cube-race"),
		},
		workers.ProcessorConfig{PopTimeout: config.PopTimeout, LeaseTTL: config.LeaseTTL})

	registry := runtime.NewRegistry()
	gw := gateway.NewGateway(log, gateway.Deps{
		Store:      store,
		Queue:      queue,
		Rooms:      rooms,
		Processors: worker,
		Registry:   registry,
		Tokens:     tokens,
		Passwords:  passwords,
		Metrics:    metrics,
	}, gateway.Config{
		AckTimeout:        config.AckTimeout,
		CommandsPerSecond: config.CommandsPerSecond,
		CommandBurst:      config.CommandBurst,
		OutputBufferSize:  config.OutputBufferSize,
	})

	// 7. Node workers. Rooms are only claimed once this node hears events.
	nodeCtx, cancelNode := context.WithCancel(context.Background())
	defer cancelNode()
	sup := workers.NewSupervisor(log, config.RestartInterval)
	fanout := workers.NewEventFanout(log, subscriber, registry, config.SinkTimeout, gw.Correlator())
	sup.Start(nodeCtx, fanout)
	select {
	case <-fanout.Ready():
	case <-ctx.Done():
		cancelNode()
		sup.Wait()
		return nil
	}
	sup.Start(nodeCtx, workers.NewHeartbeatWorker(log, nodeID, metrics, worker, config.HeartbeatInterval))
	sup.Start(nodeCtx, runtime.NewOwnershipWatcher(log, store, leases, worker, config.OwnershipScanInterval))
	sup.Start(nodeCtx, workers.NewQueueDepthWorker(log, queue, worker, metrics, config.QueueDepthInterval, config.BacklogThreshold))
	for _, job := range stores.jobs {
		sup.Start(nodeCtx, job)
	}

	// 8. HTTP Server Setup
	server := &http.Server{
		Addr:              config.Address(),
		Handler:           gw.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errChan := make(chan error, 1)
	go func() {
		log.Info("Starting HTTP server", "address", server.Addr, "at", time.Now().UTC())
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	// 9. Wait for Stop or Error
	var serveErr error
	select {
	case <-ctx.Done():
		log.Info("Shutting down gracefully...")
	case serveErr = <-errChan:
	}

	// 10. Final Cleanup. Processors stop before the fanout because a publish
	// waits for the fanout to take the event.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Warn("HTTP server shutdown failed", "error", err)
	}
	if err := worker.Shutdown(shutdownCtx); err != nil {
		log.Warn("Room processors did not stop in time", "error", err)
	}
	cancelNode()
	sup.Wait()
	log.Info("Program stopped cleanly")
	return serveErr
}

// newModerator lets every name through when no word directory is set.
func newModerator(log *slog.Logger, config internal.Config) (*moderation.Moderator, error) {
	char, err := internal.CharacterRune(config.CensorCharacter)
	if err != nil {
		return nil, err
	}
	var words []string
	if config.CensoredWordsDir != "" {
		loaded, err := moderation.LoadWords(os.DirFS(config.CensoredWordsDir), ".")
		if err != nil {
			return nil, err
		}
		log.Info("Censored words loaded", "words", len(loaded.Words), "languages", loaded.Languages)
		words = loaded.Words
	}
	return moderation.NewModerator(words, char)
}
