package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"rollcall/pkg/api"
	"rollcall/pkg/config"
	"rollcall/pkg/core"
	"rollcall/pkg/events"
	"rollcall/pkg/monitor"
	"rollcall/pkg/network"
	"rollcall/pkg/storage"
)

const shutdownTimeout = 10 * time.Second

// main 是 rollcall 服务器的入口：加载配置、打开存储、重建索引，然后同时提供 TCP 与 HTTP 接口。
func main() {
	configPath := flag.String("config", "", "path to rollcall.yaml")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("[Server] Config: %v", err)
	}

	backend, err := storage.Open(cfg.Storage)
	if err != nil {
		log.Fatalf("[Server] Storage: %v", err)
	}

	reg := prometheus.NewRegistry()
	registry, err := core.NewRegistry(cfg, backend, events.New(cfg.Events), monitor.NewLookupStats(reg))
	if err != nil {
		log.Fatalf("[Server] Index rebuild: %v", err)
	}

	tcp := network.NewTCPServer(registry)
	go func() {
		if err := tcp.Start(cfg.Server.TCPAddr); err != nil {
			log.Printf("[Server] TCP stopped: %v", err)
		}
	}()

	httpSrv := api.NewServer(registry, reg)
	httpErr := make(chan error, 1)
	go func() { httpErr <- httpSrv.Start(cfg.Server.Addr) }()

	log.Printf("[Server] rollcall ready: %d students, index=%s, storage=%s",
		registry.Size(), cfg.Index.Kind, cfg.Storage.Driver)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sig:
		log.Println("[Server] Shutting down...")
	case err := <-httpErr:
		log.Printf("[Server] HTTP stopped: %v", err)
	}

	// Drain both front ends before the registry closes the backend under them.
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpSrv.Shutdown(ctx); err != nil {
		log.Printf("[Server] HTTP shutdown: %v", err)
	}
	tcp.Close()
	if err := registry.Close(); err != nil {
		log.Printf("[Server] Close: %v", err)
	}
}
