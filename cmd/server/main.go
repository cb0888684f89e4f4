package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"tradecore/config"
	"tradecore/domain/ledger"
	"tradecore/engine"
	"tradecore/infra/journal"
	"tradecore/infra/kafka"
	"tradecore/infra/pubsub"
	"tradecore/jobs/broadcaster"
	"tradecore/jobs/ledgerstream"
	"tradecore/jobs/publisher"
)

func main() {
	log, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	cfg := config.MustLoad()

	// ---------------- Outbox ----------------

	outbox, err := journal.Open(cfg.Outbox.Dir)
	if err != nil {
		log.Fatal("outbox init failed", zap.Error(err))
	}
	defer outbox.Close()

	// ---------------- Queues + Core ----------------

	queues := engine.NewQueues(cfg.Core.QueueCapacity)
	state := ledger.NewState(cfg.Core.MaxUsers, cfg.Core.MaxSymbols)
	eng := engine.NewEngine(cfg.Core.MaxSymbols)

	core := engine.NewCore(log, eng, state, queues, engine.CoreConfig{
		OrderBatch:       cfg.Core.OrderBatch,
		SnapshotInterval: cfg.Core.SnapshotInterval,
		DepthLevels:      cfg.Core.DepthLevels,
		ReportInterval:   cfg.Core.ReportInterval,
	})

	// ---------------- Market Data ----------------

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	redisPub := pubsub.NewPublisher(cfg.Redis.Address, cfg.Redis.Password, cfg.Redis.DB)
	defer redisPub.Close()
	if err := redisPub.Ping(ctx); err != nil {
		log.Fatal("redis unreachable", zap.Error(err))
	}

	pub := publisher.New(log, redisPub, queues.Trades, queues.Tickers, queues.Snapshots, 0)
	go pub.Run(ctx)

	// ---------------- Event Broadcast ----------------

	bc, err := broadcaster.New(log, outbox, queues.Events,
		cfg.Kafka.Brokers, cfg.Kafka.EventTopic, cfg.Outbox.ReplayInterval)
	if err != nil {
		log.Fatal("broadcaster init failed", zap.Error(err))
	}
	defer bc.Close()
	go bc.Run(ctx)

	// ---------------- Ledger Delta Stream ----------------

	deltaProducer := kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.DeltaTopic)
	defer deltaProducer.Close()

	stream := ledgerstream.New(log, deltaProducer, queues.BalanceDeltas, queues.HoldingDeltas, 0)
	go stream.Run(ctx)

	// ---------------- Trading Core ----------------

	go core.Run(ctx)
	log.Info("exchange running")

	// ---------------- Shutdown ----------------

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Info("shutdown requested")
	cancel()
}
