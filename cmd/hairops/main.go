package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"hairops/config"
	"hairops/engine"
	"hairops/messaging"
	"hairops/notify"
	"hairops/optimizer"
	"hairops/store"
	"hairops/www"
)

var Version = "dev"

func main() {
	showVersion := flag.Bool("version", false, "print version and exit")
	configPath := flag.String("config", "hairops.yaml", "path to config file")
	flag.Parse()

	if *showVersion {
		fmt.Println("hairops", Version)
		return
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	// Database
	db, err := store.Open(&cfg.Database)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer db.Close()
	log.Printf("hairops: database open (%s)", cfg.Database.Driver)

	// Redis notification feed
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Address,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Printf("hairops: redis not available (%v), in-app notifications disabled", err)
	} else {
		log.Printf("hairops: redis connected (%s)", cfg.Redis.Address)
	}
	cancel()
	defer redisClient.Close()
	feed := notify.NewFeed(redisClient)

	// Optimizer client
	optClient := optimizer.NewClient(cfg.Optimizer.BaseURL, cfg.Optimizer.RequestPath, cfg.Optimizer.Timeout)
	if err := optClient.Ping(); err == nil {
		log.Printf("hairops: optimizer reachable (%s)", cfg.Optimizer.BaseURL)
	} else {
		log.Printf("hairops: optimizer not available (%v)", err)
	}

	// Messaging client
	msgClient := messaging.NewClient(&cfg.Messaging)
	if err := msgClient.Connect(); err != nil {
		log.Printf("hairops: messaging connect failed (%v)", err)
	} else {
		log.Printf("hairops: messaging connected (kafka)")
	}
	defer msgClient.Close()

	// Engine
	eng := engine.New(engine.Config{
		AppConfig:  cfg,
		ConfigPath: *configPath,
		DB:         db,
		Optimizer:  optClient,
		Feed:       feed,
		MsgClient:  msgClient,
	})
	eng.Start()
	defer eng.Stop()

	// Outbox drainer (notifications to kafka)
	drainer := messaging.NewOutboxDrainer(db, msgClient, cfg.Messaging.OutboxDrainInterval)
	drainer.Start()
	defer drainer.Stop()

	// Web server
	handler, stopWeb := www.NewRouter(eng)

	addr := fmt.Sprintf("%s:%d", cfg.Web.Host, cfg.Web.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: handler,
	}

	go func() {
		log.Printf("hairops: web server listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("web server: %v", err)
		}
	}()

	log.Printf("hairops: ready")

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Printf("hairops: shutting down...")
	stopWeb()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	srv.Shutdown(shutdownCtx)

	log.Printf("hairops: stopped")
}
