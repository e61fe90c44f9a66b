package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"arenasync/config"
	"arenasync/logging"
	"arenasync/server"
)

// 入口：启动 HTTP + WebSocket 服务，全局唯一房间在独立协程中推进
func main() {
	var addr, cfgPath string
	flag.StringVar(&addr, "addr", "", "server listen address, overrides server.addr, e.g. :8080")
	flag.StringVar(&cfgPath, "config", "", "path to config yaml (default: config/arena.yaml if present)")
	flag.Parse()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		panic(err)
	}
	if addr != "" {
		cfg.Server.Addr = addr
	}
	if err := logging.InitLogger(cfg.Log); err != nil {
		panic(err)
	}
	defer logging.SyncLogger()
	log := logging.Log

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s := server.New(*cfg, nil, log)
	go s.Run(ctx)

	srv := &http.Server{Addr: cfg.Server.Addr, Handler: s.Handler()}
	go func() {
		log.Infof("arenasync listening on %s; ws endpoint /ws", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen: %v", err)
		}
	}()

	// 优雅退出（Ctrl+C）
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down...")

	cancel()
	shutdownCtx, done := context.WithTimeout(context.Background(), 10*time.Second)
	defer done()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Errorf("shutdown: %v", err)
	}
}
