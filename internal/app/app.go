package app

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/shba007/ntertainer/internal/controller"
	"github.com/shba007/ntertainer/internal/relay"
	connInmemory "github.com/shba007/ntertainer/internal/repository/connection/inmemory"
	roomRedis "github.com/shba007/ntertainer/internal/repository/room/redis"
	roomservice "github.com/shba007/ntertainer/internal/service/room"
	"github.com/shba007/ntertainer/pkg/ctxlogger"
	"github.com/shba007/ntertainer/pkg/redisclient"
)

type AppConfig struct {
	Secret        string `json:"-"`
	Host          string `json:"host"`
	Port          int    `json:"port"`
	LogLevel      string `json:"log_level"`
	ChatTailLen   int    `json:"chat_tail_len"`
	QueueSize     int    `json:"queue_size"`
	SyncInterval  int    `json:"sync_interval_s"`
	RoomIdleGrace int    `json:"room_idle_grace_s"`
	RedisPort     int    `json:"redis_port"`
	RedisHost     string `json:"redis_host"`
	RedisPassword string `json:"-"`
}

func (cfg *AppConfig) Validate() error {
	if cfg.Secret == "" {
		return fmt.Errorf("secret must be set")
	}
	if cfg.ChatTailLen < 1 {
		return fmt.Errorf("chat tail length must be greater than 0")
	}
	if cfg.QueueSize < 1 {
		return fmt.Errorf("queue size must be greater than 0")
	}
	if cfg.RoomIdleGrace < 1 {
		return fmt.Errorf("room idle grace must be greater than 0")
	}
	return nil
}

func Run(ctx context.Context, cfg *AppConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	logLevel := slog.LevelInfo
	if err := logLevel.UnmarshalText([]byte(strings.ToUpper(cfg.LogLevel))); err != nil {
		return err
	}

	h := ctxlogger.ContextHandler{
		Handler: slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level:     logLevel,
			AddSource: true,
		}),
	}

	logger := slog.New(&h)

	rc, err := redisclient.NewRedisClient(ctx, &redisclient.Config{
		Port:     cfg.RedisPort,
		Host:     cfg.RedisHost,
		Password: cfg.RedisPassword,
	})
	if err != nil {
		return fmt.Errorf("failed to create redis client: %w", err)
	}
	defer rc.Close()

	roomRepo := roomRedis.NewRepo(rc, logger, time.Duration(cfg.RoomIdleGrace)*time.Second)
	connRepo := connInmemory.NewRepo(logger)
	roomService := roomservice.NewService(roomRepo, connRepo, logger, &roomservice.Config{
		Secret:      cfg.Secret,
		ChatTailLen: cfg.ChatTailLen,
	})
	eventRelay := relay.New(roomService, logger, &relay.Config{
		QueueSize:    cfg.QueueSize,
		SyncInterval: time.Duration(cfg.SyncInterval) * time.Second,
	})
	ctrl := controller.NewController(roomService, eventRelay, logger, nil)
	server := &http.Server{Addr: fmt.Sprintf("%s:%d", cfg.Host, cfg.Port), Handler: ctrl.GetMux()}

	// graceful shutdown
	serverCtx, serverStopCtx := context.WithCancel(ctx)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	go func() {
		<-sig

		shutdownCtx, c := context.WithTimeout(serverCtx, 30*time.Second)
		defer c()

		go func() {
			<-shutdownCtx.Done()
			if shutdownCtx.Err() == context.DeadlineExceeded {
				log.Fatal("graceful shutdown timed out.. forcing exit.")
			}
		}()

		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Fatal(err)
		}
		serverStopCtx()
	}()

	logger.InfoContext(serverCtx, "starting server", "address", server.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}

	<-serverCtx.Done()

	return nil
}
