package main

import (
	"context"
	"log"
	"os"
	"strings"
	"time"

	"matchbook/internal/adapter/cache"
	"matchbook/internal/adapter/in_memory"
	"matchbook/internal/adapter/kafka"
	"matchbook/internal/adapter/pg"
	httpapi "matchbook/internal/api/http"
	"matchbook/internal/core"
	"matchbook/internal/feed"
	"matchbook/internal/port"
	"matchbook/internal/wire"
)

const (
	defaultListenAddr  = ":8080"
	defaultInstruments = "BTCUSD,ETHUSD"
)

func main() {
	logger := log.New(os.Stdout, "matchbook ", log.LstdFlags|log.Lmicroseconds)
	ctx := context.Background()

	listenAddr := getEnv("LISTEN_ADDR", defaultListenAddr)
	instruments := strings.Split(getEnv("INSTRUMENTS", defaultInstruments), ",")

	var journal port.Journal
	if dsn := os.Getenv("PG_URL"); dsn != "" {
		pgJournal, err := pg.NewJournal(ctx, dsn)
		if err != nil {
			logger.Fatalf("connect to Postgres: %v", err)
		}
		defer pgJournal.Close(ctx)
		journal = pgJournal
	} else {
		journal = in_memory.NewJournal()
	}

	var bookCache port.Cache
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		bookCache = cache.NewRedisCache(addr, os.Getenv("REDIS_PASSWORD"), 0, 5*time.Minute)
	} else {
		bookCache = in_memory.NewCache()
	}

	var publisher port.Publisher
	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		producer := kafka.NewProducer(strings.Split(brokers, ","), getEnv("KAFKA_TOPIC", "trades"))
		defer producer.Close()
		publisher = producer
	}

	router := httpapi.NewReplyRouter()
	events := feed.NewEventSink(logger, journal, publisher)
	defer events.Close()
	sink := core.NewFanoutSink(router, events)

	module := core.NewModule(logger, sink, journal, bookCache, instruments)
	proc := wire.NewProcessor(module, sink)

	server := httpapi.NewServer(logger, proc, module, router, bookCache, journal, events)

	logger.Printf("serving instruments %v on %s", instruments, listenAddr)
	if err := server.Run(listenAddr); err != nil {
		logger.Fatalf("HTTP server failed: %v", err)
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
