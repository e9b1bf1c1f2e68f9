package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/richinsley/shaderquad/devserver"
)

func main() {
	configPath := flag.String("config", "devserver.toml", "Path to the TOML configuration")
	port := flag.Int("port", 0, "Override server.port")
	noOpen := flag.Bool("no-open", false, "Do not open a browser on start")
	help := flag.Bool("help", false, "Show help message")
	flag.Parse()

	if *help {
		fmt.Println("Shader development server")
		flag.PrintDefaults()
		return
	}

	cfg, err := devserver.Load(*configPath)
	if errors.Is(err, fs.ErrNotExist) {
		log.Printf("No config at %s, using defaults", *configPath)
		cfg, err = devserver.Default(), nil
	}
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if *port != 0 {
		cfg.Server.Port = *port
	}
	if *noOpen {
		cfg.Server.Open = false
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid config: %v", err)
	}

	srv, err := devserver.New(cfg)
	if err != nil {
		log.Fatalf("Failed to create server: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := srv.Run(ctx); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
