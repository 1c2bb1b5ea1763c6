package main

import (
	"context"
	"flag"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/joho/godotenv/autoload"
	"go.uber.org/zap"

	"mangazek/internal/grpcserver"
	"mangazek/internal/logging"
	"mangazek/pkg/database"
	"mangazek/pkg/utils"
)

func main() {
	cfgPath := flag.String("config", "", "Path to config file")
	flag.Parse()

	cfg, err := utils.Load(*cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config failed: %v\n", err)
		os.Exit(1)
	}
	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger init failed: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(ctx, cfg.Database)
	if err != nil {
		logger.Fatal("db open failed", zap.Error(err))
	}
	defer db.Close()

	listener, err := net.Listen("tcp", cfg.Grpc.Addr)
	if err != nil {
		logger.Fatal("grpc listen failed", zap.String("addr", cfg.Grpc.Addr), zap.Error(err))
	}

	srv := grpcserver.New(db, cfg.Grpc.ProbeInterval(), logger)
	if err := srv.Serve(ctx, listener); err != nil {
		logger.Error("grpc server stopped", zap.Error(err))
	}
	logger.Info("grpc server stopped")
}
