// stallsd is the stall economy daemon: it serves the command API, runs the
// rent renewal worker, and relays domain events to kafka. Business logic
// lives in the internal packages; main only wires dependencies.
package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/lib/pq"
	"golang.org/x/sync/errgroup"

	"stallworks/internal/coinhouse"
	"stallworks/internal/custody"
	"stallworks/internal/events"
	"stallworks/internal/events/kafkarelay"
	"stallworks/internal/notify"
	"stallworks/internal/platform/config"
	"stallworks/internal/platform/httpserver"
	"stallworks/internal/platform/logger"
	redisplatform "stallworks/internal/platform/redis"
	"stallworks/internal/rent"
	rentmetrics "stallworks/internal/rent/metrics"
	"stallworks/internal/stall"
	"stallworks/internal/stall/commands"
	cmdmetrics "stallworks/internal/stall/commands/metrics"
	httptransport "stallworks/internal/transport/http"
)

func main() {
	cfg := config.FromEnv()
	log := logger.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Stores: postgres when configured, in-memory otherwise.
	var (
		stallStore   stall.Store
		bankStore    coinhouse.Store
		bankLog      coinhouse.TransactionLog
		custodyStore custody.Store
	)
	if cfg.PostgresDSN != "" {
		pool, err := pgxpool.New(ctx, cfg.PostgresDSN)
		if err != nil {
			log.Error("postgres pool", "error", err)
			os.Exit(1)
		}
		defer pool.Close()

		// The append-only transaction log runs on database/sql; everything
		// else shares the pgx pool.
		logDB, err := sql.Open("postgres", cfg.PostgresDSN)
		if err != nil {
			log.Error("postgres txlog", "error", err)
			os.Exit(1)
		}
		defer logDB.Close()

		stallStore = stall.NewPostgresStore(pool)
		bankStore = coinhouse.NewPostgresStore(pool)
		bankLog = coinhouse.NewPostgresTransactionLog(logDB)
		custodyStore = custody.NewPostgresStore(pool)
		log.Info("stores: postgres")
	} else {
		stallStore = stall.NewMemoryStore()
		bankStore = coinhouse.NewMemoryStore()
		bankLog = coinhouse.NewMemoryTransactionLog()
		custodyStore = custody.NewMemoryStore()
		log.Warn("stores: in-memory, state is lost on restart")
	}

	var broadcaster notify.Broadcaster = notify.NopBroadcaster{}
	redisClient, err := redisplatform.New(cfg.Redis())
	if err != nil {
		log.Error("redis", "error", err)
		os.Exit(1)
	}
	if redisClient != nil {
		defer redisClient.Close()
		broadcaster = notify.NewRedisBroadcaster(redisClient.Client)
		log.Info("seller refresh broadcaster: redis")
	}

	bus := events.NewBus(log)

	if len(cfg.KafkaBrokers) > 0 {
		kafkaClient, err := kafkarelay.NewClient(cfg.KafkaBrokers)
		if err != nil {
			log.Error("kafka client", "error", err)
			os.Exit(1)
		}
		defer kafkaClient.Close()
		if err := kafkarelay.EnsureTopic(ctx, kafkaClient, cfg.KafkaTopic); err != nil {
			log.Error("kafka topic", "error", err)
			os.Exit(1)
		}
		relay := kafkarelay.New(kafkaClient, cfg.KafkaTopic, log)
		bus.Subscribe(relay.Handle)
		log.Info("event relay: kafka", "topic", cfg.KafkaTopic)
	}

	bank := coinhouse.NewService(bankStore, bankLog)
	custodian := custody.NewService(custodyStore, log)

	deps := &commands.Deps{
		Stalls:       stallStore,
		Bank:         bank,
		Bus:          bus,
		Notifier:     notify.NewLogNotifier(log),
		Broadcaster:  broadcaster,
		Custodian:    custodian,
		RentInterval: cfg.RentInterval,
		GracePeriod:  cfg.GracePeriod,
		Logger:       log,
		Metrics:      cmdmetrics.New(),
	}
	dispatcher := commands.NewDispatcher(deps)
	worker := rent.NewWorker(deps, stallStore, cfg.TickInterval, rentmetrics.New())

	handler := httptransport.NewHandler(dispatcher, stallStore, bank, log)
	srv := httpserver.New(cfg.Addr, httptransport.NewRouter(handler))

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("stallsd listening", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		err := worker.Run(ctx)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		bus.Drain()
		return nil
	})

	if err := g.Wait(); err != nil {
		log.Error("stallsd exited", "error", err)
		os.Exit(1)
	}
	log.Info("stallsd stopped")
}
