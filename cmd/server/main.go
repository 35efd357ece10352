package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/himanishpuri/SceneScribe/internal/tracing"
	"github.com/himanishpuri/SceneScribe/pkg/logger"
	"github.com/himanishpuri/SceneScribe/pkg/scenescribe"
)

var (
	port           int
	dbPath         string
	allowedOrigins string
)

func init() {
	flag.IntVar(&port, "port", 8080, "HTTP server port")
	flag.StringVar(&dbPath, "db", "", "Path to the SQLite run catalog (env: SCENESCRIBE_DB_PATH)")
	flag.StringVar(&allowedOrigins, "origins", "*", "Comma-separated list of allowed CORS origins (use * for all)")
}

func main() {
	flag.Parse()

	// Parse allowed origins
	var origins []string
	if allowedOrigins == "*" {
		origins = []string{"*"}
	} else {
		origins = strings.Split(allowedOrigins, ",")
		for i := range origins {
			origins[i] = strings.TrimSpace(origins[i])
		}
	}

	var opts []scenescribe.Option
	if dbPath != "" {
		opts = append(opts, scenescribe.WithDBPath(dbPath))
	}
	cfg, err := scenescribe.LoadConfig(opts...)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	logger.GetLogger().SetLevel(logger.ParseLevel(cfg.LogLevel))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.OTLPEndpoint != "" {
		tp, err := tracing.InitTracer(ctx, cfg.OTLPEndpoint, "scenescribe-server")
		if err != nil {
			log.Printf("Tracing disabled: %v", err)
		} else {
			defer func() {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				tp.Shutdown(shutdownCtx)
			}()
		}
	}

	service, err := scenescribe.NewServiceFromConfig(cfg)
	if err != nil {
		log.Fatalf("Failed to create service: %v", err)
	}
	defer service.Close()

	config := &ServerConfig{
		Port:           port,
		DBPath:         cfg.DBPath,
		AllowedOrigins: origins,
	}

	server := NewServer(service, config)
	if err := server.Start(ctx); err != nil {
		log.Printf("Server failed: %v", err)
	}
}
