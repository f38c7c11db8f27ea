package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"taskbot/backend/internal/config"
	"taskbot/backend/internal/database"
	"taskbot/backend/internal/handlers"
	"taskbot/backend/internal/monitoring"
	"taskbot/backend/internal/notify"
	"taskbot/backend/internal/services"

	"github.com/redis/go-redis/v9"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	monitoring.RegisterHealthCheck("database", func(ctx context.Context) error {
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		return sqlDB.PingContext(ctx)
	})

	var sink notify.Sink = notify.NewLogSink()
	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		redisClient = redis.NewClient(&redis.Options{
			Addr:         cfg.GetRedisAddr(),
			Password:     cfg.Redis.Password,
			DB:           cfg.Redis.DB,
			PoolSize:     cfg.Redis.PoolSize,
			MinIdleConns: cfg.Redis.MinIdleConns,
			DialTimeout:  cfg.Redis.DialTimeout,
			ReadTimeout:  cfg.Redis.ReadTimeout,
			WriteTimeout: cfg.Redis.WriteTimeout,
		})
		sink = notify.NewBreakerSink(
			notify.NewRedisSink(redisClient, cfg.Redis.NotifyQueue), nil)

		monitoring.RegisterHealthCheck("redis", func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		})
	}

	svcs := services.NewServices(db, sink, cfg.Auth.WhitelistedIDs)

	reminderCtx, stopReminders := context.WithCancel(context.Background())
	go runReminderLoop(reminderCtx, cfg.Reminders.PollInterval, svcs.Tasks, sink)

	router := handlers.NewRouter(cfg, svcs)
	server := &http.Server{
		Addr:         cfg.GetServerAddr(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Printf("Server listening on %s", cfg.GetServerAddr())
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down...")

	stopReminders()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Forced shutdown: %v", err)
	}
	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			log.Printf("Failed to close redis client: %v", err)
		}
	}
	log.Println("Server stopped")
}

// runReminderLoop periodically collects due reminders and pushes them through
// the notification sink. Each reminder is marked sent only after a successful
// push so a broker outage retries on the next tick.
func runReminderLoop(ctx context.Context, interval time.Duration, tasks services.TaskService, sink notify.Sink) {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			due, err := tasks.DueReminders(ctx, now)
			if err != nil {
				log.Printf("Failed to collect due reminders: %v", err)
				continue
			}
			for _, task := range due {
				message := fmt.Sprintf("Reminder: '%s' is due at %s.",
					task.Title, task.Deadline.Format("15:04"))
				if err := sink.Notify(ctx, task.User.ExternalID, message); err != nil {
					log.Printf("Failed to queue reminder for task %d: %v", task.ID, err)
					continue
				}
				if err := tasks.MarkReminderSent(ctx, task.ID); err != nil {
					log.Printf("Failed to mark reminder sent for task %d: %v", task.ID, err)
				}
			}
		}
	}
}
