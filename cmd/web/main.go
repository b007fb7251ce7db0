package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"central-ai-web/internal/bootstrap"
	"central-ai-web/internal/config"
	"central-ai-web/internal/server"
	"central-ai-web/internal/tracer"

	"golang.org/x/sync/errgroup"
)

func main() {
	// 1. Load Configuration
	cfg := config.Load()

	// 2. Initialize Tracer
	shutdownTracer := tracer.InitTracer(cfg.App.Environment)
	defer shutdownTracer(context.Background())

	// 3. Bootstrap Dependencies (Container)
	container := bootstrap.NewContainer(cfg)
	defer container.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 4. Start Background Services
	go container.WebSocketHub.Run(ctx)

	if err := container.ConsumerService.Consume(ctx); err != nil {
		log.Printf("Background Consumer Error: %v", err)
	}
	if container.SessionEventService != nil {
		if err := container.SessionEventService.Start(ctx); err != nil {
			log.Printf("Session event subscriber disabled: %v", err)
		}
	}

	// 5. Initialize Server
	srv := server.New(cfg, container)

	// 6. Run Server until a signal arrives
	g, gctx := errgroup.WithContext(ctx)
	g.Go(srv.Run)
	g.Go(func() error {
		<-gctx.Done()
		log.Println("Shutting down server...")
		return srv.Shutdown()
	})
	if err := g.Wait(); err != nil {
		log.Printf("Server stopped: %v", err)
	}
}
