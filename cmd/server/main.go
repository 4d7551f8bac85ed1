package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"collabnotes-server/internal/config"
	"collabnotes-server/internal/handler"
	"collabnotes-server/internal/middleware"
	"collabnotes-server/internal/notestore"
	"collabnotes-server/internal/service"
	"collabnotes-server/internal/session"
	"collabnotes-server/internal/websocket"

	_ "github.com/go-kivik/kivik/v4/couchdb"

	"github.com/go-kivik/kivik/v4"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := newLogger(cfg.Server.Env)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	couchURL := fmt.Sprintf("http://%s:%s@%s:%s",
		cfg.Database.User,
		cfg.Database.Password,
		cfg.Database.Host,
		cfg.Database.Port,
	)

	client, err := kivik.New("couch", couchURL)
	if err != nil {
		logger.Fatal("failed to connect to CouchDB", zap.Error(err))
	}

	exists, err := client.DBExists(context.Background(), cfg.Database.Name)
	if err != nil {
		logger.Fatal("failed to check database existence", zap.Error(err))
	}
	if !exists {
		if err := client.CreateDB(context.Background(), cfg.Database.Name); err != nil {
			logger.Fatal("failed to create database", zap.Error(err))
		}
		logger.Info("created database", zap.String("name", cfg.Database.Name))
	}

	backend := notestore.NewCouchStore(client, cfg.Database.Name, logger.Named("notestore"))

	hub := websocket.NewManager(
		cfg.WebSocket.MaxConnPerUser,
		cfg.WebSocket.WriteWait,
		cfg.WebSocket.PongWait,
		cfg.WebSocket.PingPeriod,
		logger.Named("websocket"),
	)

	sessions := session.NewManager(backend, backend, hub, session.Config{
		TitleDebounce:   cfg.Commit.TitleDebounce,
		ContentDebounce: cfg.Commit.ContentDebounce,
	}, logger.Named("session"))

	hub.SetMessageHandler(handler.NewWSMessageHandler(sessions))
	hub.SetDisconnectHandler(sessions.Release)

	authService := service.NewAuthService(backend, cfg.JWT.Secret, cfg.JWT.Expiration, cfg.JWT.RefreshTokenExpiration)
	userService := service.NewUserService(backend)

	authHandler := handler.NewAuthHandler(authService)
	userHandler := handler.NewUserHandler(userService)
	noteHandler := handler.NewNoteHandler(sessions, userService)
	shareHandler := handler.NewShareHandler(backend, logger.Named("share"))
	wsHandler := handler.NewWebSocketHandler(hub, sessions, cfg.JWT.Secret,
		cfg.WebSocket.ReadBufferSize, cfg.WebSocket.WriteBufferSize, logger.Named("ws"))

	r := mux.NewRouter()

	r.Use(middleware.LoggerMiddleware(logger.Named("http")))
	r.Use(middleware.CORSMiddleware(
		cfg.CORS.AllowedOrigins,
		cfg.CORS.AllowedMethods,
		cfg.CORS.AllowedHeaders,
	))

	api := r.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/auth/register", authHandler.Register).Methods("POST", "OPTIONS")
	api.HandleFunc("/auth/login", authHandler.Login).Methods("POST", "OPTIONS")
	api.HandleFunc("/auth/refresh", authHandler.Refresh).Methods("POST", "OPTIONS")

	protected := api.PathPrefix("").Subrouter()
	protected.Use(middleware.AuthMiddleware(cfg.JWT.Secret))

	protected.HandleFunc("/users/me", userHandler.GetMe).Methods("GET", "OPTIONS")
	protected.HandleFunc("/users/me", userHandler.UpdateMe).Methods("PUT", "OPTIONS")

	protected.HandleFunc("/notes", noteHandler.List).Methods("GET", "OPTIONS")
	protected.HandleFunc("/notes", noteHandler.Create).Methods("POST", "OPTIONS")
	protected.HandleFunc("/notes/select", noteHandler.Select).Methods("POST", "OPTIONS")
	protected.HandleFunc("/notes/{id}/title", noteHandler.UpdateTitle).Methods("PATCH", "OPTIONS")
	protected.HandleFunc("/notes/{id}/content", noteHandler.UpdateContent).Methods("PATCH", "OPTIONS")
	protected.HandleFunc("/notes/{id}/restore", noteHandler.Restore).Methods("POST", "OPTIONS")
	protected.HandleFunc("/notes/{id}/collaborators", noteHandler.AddCollaborator).Methods("POST", "OPTIONS")
	protected.HandleFunc("/notes/{id}/collaborators", noteHandler.Collaborators).Methods("GET", "OPTIONS")
	protected.HandleFunc("/notes/{id}/share", noteHandler.Share).Methods("POST", "OPTIONS")
	protected.HandleFunc("/notes/{id}", noteHandler.Delete).Methods("DELETE", "OPTIONS")

	shared := r.PathPrefix("/share").Subrouter()
	shared.Use(middleware.OptionalAuthMiddleware(cfg.JWT.Secret))
	shared.HandleFunc("/{id}", shareHandler.Get).Methods("GET", "OPTIONS")

	r.HandleFunc("/ws", wsHandler.HandleConnection)
	r.HandleFunc("/health", healthHandler).Methods("GET")

	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)

	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		hub.Run(gctx)
		return nil
	})

	g.Go(func() error {
		logger.Info("starting server",
			zap.String("addr", addr),
			zap.String("env", cfg.Server.Env),
			zap.String("couchdb", fmt.Sprintf("%s:%s", cfg.Database.Host, cfg.Database.Port)),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		sessions.CloseAll()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Fatal("server exited", zap.Error(err))
	}

	logger.Info("server stopped gracefully")
}

func newLogger(env string) (*zap.Logger, error) {
	if env == "production" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"healthy","service":"collabnotes-server"}`))
}
