package main

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"os/signal"
	"syscall"

	"studyhall/internal/config"
	"studyhall/internal/notify"
	"studyhall/internal/queue"
	"studyhall/internal/store"
)

// Worker consumes queued notifications, delivers them through the sink and
// marks the rows delivered. Delivery is best-effort: a failed delivery is
// logged and the message dropped, never retried into a hot loop.
func main() {
	cfg := config.MustLoad()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Println("shutdown signal received")
		cancel()
	}()

	db, err := store.NewDB(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db connect failed: %v", err)
	}
	defer db.Close()

	redisClient := store.NewRedis(cfg.RedisAddr)

	var q queue.Queue
	if cfg.QueueBackend == "memory" {
		q = queue.NewInMemory(64)
	} else {
		q = queue.NewRedisQueue(redisClient.Client, "studyhall:notifications")
	}

	repo := notify.NewRepository(db.Client)
	var sink notify.Sink = notify.ConsoleSink{}

	messages, err := q.Consume(ctx)
	if err != nil {
		log.Fatalf("queue consume init failed: %v", err)
	}

	log.Println("worker started, waiting for notifications...")
	for msg := range messages {
		if msg.Type != "notification" {
			continue
		}

		var n notify.Notification
		if err := json.Unmarshal(msg.Body, &n); err != nil {
			log.Printf("bad notification payload: %v", err)
			continue
		}

		if err := sink.Deliver(n); err != nil {
			log.Printf("delivery failed for notification %s: %v", n.ID, err)
			continue
		}
		if err := repo.MarkDelivered(ctx, n.ID); err != nil {
			log.Printf("mark delivered failed for %s: %v", n.ID, err)
		}
	}

	log.Println("worker stopped")
}
