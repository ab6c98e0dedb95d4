package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"spaces/internal/events"
	"spaces/internal/routers"
	"spaces/internal/space"
	"spaces/internal/utils"
)

var (
	defaultPort      = "3030"
	defaultRedisAddr = "" // empty disables lifecycle event publishing

	listenAndServe = serveGracefully
	exitFunc       = defaultExit
	exit           = os.Exit
)

func main() {
	if err := run(context.Background()); err != nil {
		exitFunc(err)
	}
}

func run(ctx context.Context) error {
	logger := utils.NewLogger()

	redisAddr := os.Getenv("REDIS_ADDR")
	if redisAddr == "" {
		redisAddr = defaultRedisAddr
	}
	publisher := events.NewPublisher(redisAddr, logger)
	defer publisher.Close()

	registry := space.NewRegistry(logger, publisher)

	r := chi.NewRouter()
	r.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Logger,
		middleware.Recoverer,
	)

	r.Mount("/", routers.New(logger, registry))

	r.Get("/healthz", healthHandler)

	port := os.Getenv("PORT")
	if port == "" {
		port = defaultPort
	}
	addr := ":" + port
	log.Printf("spaces coordinator listening on %s", addr)
	return listenAndServe(addr, r)
}

func healthHandler(w http.ResponseWriter, _ *http.Request) {
	_, _ = w.Write([]byte("ok"))
}

// serveGracefully runs the HTTP server until it fails or a termination
// signal arrives, then drains in-flight requests.
func serveGracefully(addr string, handler http.Handler) error {
	srv := &http.Server{Addr: addr, Handler: handler}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		log.Println("shutdown signal received, closing HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func defaultExit(err error) {
	log.Println(err)
	exit(1)
}
