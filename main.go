package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-redis/redis/v8"
)

const apiVersion = "v1"

// newRouter assembles the full HTTP surface: the code-exchange endpoint in
// the clear, every resource behind bearer-token authentication.
func newRouter(handler *Handler, auth Authenticator, oauthClient *OAuthClient, logger *log.Logger, resources ...ResourceDef) chi.Router {
	root := chi.NewRouter()
	root.Use(loggingMiddleware(logger))
	root.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeNotFound(w)
	})
	root.Route("/"+apiVersion, func(r chi.Router) {
		if oauthClient != nil {
			oauthHandler := NewOAuthHandler(oauthClient, logger)
			r.Post("/oauth/token", oauthHandler.handleTradeCode)
		}
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware(auth, logger))
			r.Mount("/", handler.Routes(resources...))
		})
	})
	return root
}

// openStore builds the storage backend selected by the config.
func openStore(ctx context.Context, cfg Config, stamper *Timestamper) (Store, func(), error) {
	switch cfg.Backend {
	case "memory":
		return NewMemoryStore(stamper), func() {}, nil
	case "redis":
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := client.Ping(ctx).Err(); err != nil {
			return nil, nil, fmt.Errorf("could not connect to redis (%s): %w", cfg.RedisAddr, err)
		}
		return NewRedisStore(client, stamper), func() { _ = client.Close() }, nil
	case "sqlite":
		store, err := OpenSQLiteStore(cfg.SQLitePath, stamper)
		if err != nil {
			return nil, nil, err
		}
		return store, func() { _ = store.Close() }, nil
	}
	return nil, nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
}

func main() {
	logger := log.New(os.Stdout, "recordstore ", log.LstdFlags|log.Lmicroseconds)
	ctx := context.Background()

	cfg, err := LoadConfig()
	if err != nil {
		logger.Fatalf("could not load config: %v", err)
	}

	auth, err := cfg.Authenticator()
	if err != nil {
		logger.Fatalf("could not configure authentication: %v", err)
	}

	stamper := NewTimestamper()
	store, closeStore, err := openStore(ctx, cfg, stamper)
	if err != nil {
		logger.Fatalf("could not open %s store: %v", cfg.Backend, err)
	}
	defer closeStore()

	handler := NewHandler(store, logger)
	router := newRouter(handler, auth, cfg.OAuthClient(), logger,
		ResourceDef{Name: "article", Schema: ArticleSchema()},
	)

	server := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Printf("server is listening on %s (%s backend)", server.Addr, cfg.Backend)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("could not listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt)
	<-quit
	logger.Println("server is shutting down")

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctxShutdown); err != nil {
		logger.Fatalf("server forced to shutdown: %v", err)
	}

	logger.Println("server stopped")
}
