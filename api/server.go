package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/dzahariev/respite-users/auth"
	"github.com/dzahariev/respite-users/cfg"
	"github.com/dzahariev/respite-users/common"
	"github.com/dzahariev/respite-users/domain"
	"github.com/dzahariev/respite-users/patch"
	"github.com/dzahariev/respite-users/repo"
	"github.com/gorilla/mux"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Server represent current API server
type Server struct {
	Config     cfg.Config
	DB         *gorm.DB
	Store      repo.Store
	Patcher    *patch.Engine
	Router     *mux.Router
	AuthClient auth.Client
}

// NewServer initialises logging, opens the configured store and registers all routes.
func NewServer(config cfg.Config, authClient auth.Client) (*Server, error) {
	InitLogger(config.Logger)
	var store repo.Store
	var db *gorm.DB
	switch config.Store.Backend {
	case cfg.BackendMemory:
		store = repo.NewMemoryStore()
	case cfg.BackendPostgres:
		var err error
		db, err = OpenDB(config.DataBase)
		if err != nil {
			slog.Error("Failed to initialize database", "error", err)
			return nil, err
		}
		store = repo.NewGormStore(db)
	default:
		return nil, fmt.Errorf("unknown store backend %q", config.Store.Backend)
	}
	server, err := NewServerWithStore(config, store, authClient)
	if err != nil {
		return nil, err
	}
	server.DB = db
	slog.Info("Server initialized", "port", config.Server.Port, "backend", config.Store.Backend)
	return server, nil
}

// NewServerWithStore builds a server on top of an already opened store.
// A nil authClient leaves every route public.
func NewServerWithStore(config cfg.Config, store repo.Store, authClient auth.Client) (*Server, error) {
	patcher, err := patch.NewEngine(patch.Options{
		UnknownPath: patch.UnknownPathPolicy(config.Patch.UnknownPath),
		Kinds:       patch.ParseKinds(config.Patch.Operations),
	})
	if err != nil {
		return nil, fmt.Errorf("cannot configure patch engine: %w", err)
	}
	server := &Server{
		Config:     config,
		Store:      store,
		Patcher:    patcher,
		AuthClient: authClient,
	}
	server.initRouter()
	return server, nil
}

// InitLogger installs the process wide slog logger.
func InitLogger(logConfig cfg.Logger) {
	var logLevel slog.Leveler
	switch logConfig.Level {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelDebug
	}
	var logHandler slog.Handler
	if logConfig.Format == "json" {
		logHandler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})
	} else {
		logHandler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})
	}
	slog.SetDefault(slog.New(logHandler))
	slog.Info("Logger initialized", "level", logConfig.Level, "format", logConfig.Format)
}

// OpenDB connects to postgres and routes gorm logs through slog.
func OpenDB(dbConfig cfg.DataBase) (*gorm.DB, error) {
	DBURL := fmt.Sprintf("host=%s port=%s user=%s dbname=%s sslmode=%s password=%s", dbConfig.Host, dbConfig.Port, dbConfig.User, dbConfig.DatabaseName, dbConfig.SSLMode, dbConfig.Password)
	db, err := gorm.Open(postgres.Open(DBURL), &gorm.Config{
		Logger: logger.New(gormLogWriter{}, logger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
		}),
	})
	if err != nil {
		return nil, fmt.Errorf("cannot connect to database: %w", err)
	}
	slog.Info("Database connection established", "host", dbConfig.Host, "port", dbConfig.Port, "dbname", dbConfig.DatabaseName)
	return db, nil
}

// gormLogWriter forwards gorm log lines to slog.
type gormLogWriter struct{}

func (gormLogWriter) Printf(format string, args ...interface{}) {
	slog.Warn(fmt.Sprintf(format, args...), "component", "gorm")
}

// initRouter is used to register routes
func (server *Server) initRouter() {
	server.Router = mux.NewRouter()
	server.Router.Use(server.loggerMiddleware)

	apiPath := server.Config.Server.APIPath
	// Unsecured Home Route
	server.Router.HandleFunc(fmt.Sprintf("/%s/", apiPath), server.Public(ContentTypeJSON(server.Home))).Methods(http.MethodGet)

	usersPath := fmt.Sprintf("/%s/%s", apiPath, domain.UsersResource)
	userIDPath := fmt.Sprintf("/%s/%s/{id}", apiPath, domain.UsersResource)
	server.Router.HandleFunc(usersPath, server.Protected(ContentTypeJSON(server.ListUsers()))).Methods(http.MethodGet)
	server.Router.HandleFunc(usersPath, server.Protected(ContentTypeJSON(server.CreateUser()))).Methods(http.MethodPost)
	server.Router.HandleFunc(userIDPath, server.Protected(ContentTypeJSON(server.GetUser()))).Methods(http.MethodGet)
	server.Router.HandleFunc(userIDPath, server.Protected(ContentTypeJSON(server.UpdateUser()))).Methods(http.MethodPut)
	server.Router.HandleFunc(userIDPath, server.Protected(ContentTypeJSON(server.PatchUser()))).Methods(http.MethodPatch)
	server.Router.HandleFunc(userIDPath, server.Protected(ContentTypeJSON(server.DeleteUser()))).Methods(http.MethodDelete)

	// Healthcheck Route
	server.Router.HandleFunc("/healthz", server.Public(ContentTypeJSON(server.Health))).Methods(http.MethodGet)

	err := server.Router.Walk(func(route *mux.Route, router *mux.Router, ancestors []*mux.Route) error {
		path, err := route.GetPathTemplate()
		if err != nil {
			return err
		}
		methods, err := route.GetMethods()
		if err != nil {
			return err
		}
		slog.Debug("Registered route", "path", path, "methods", methods)
		return nil
	})
	if err != nil {
		slog.Warn("Cannot list registered routes", "error", err)
	}
}

// Run serves HTTP until ctx is cancelled, then shuts down gracefully.
func (server *Server) Run(ctx context.Context) error {
	addr := fmt.Sprintf("0.0.0.0:%s", server.Config.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		WriteTimeout: server.Config.Server.WriteTimeout,
		ReadTimeout:  server.Config.Server.ReadTimeout,
		IdleTimeout:  server.Config.Server.IdleTimeout,
		Handler:      server.Router,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Listening on port", "port", server.Config.Server.Port)
		err := srv.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			slog.Error("Error while serving", "error", err)
			return err
		}
		return nil
	case <-ctx.Done():
	}

	// Wait for a deadline for termination.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), server.Config.Server.DeadlineOnInterrupt)
	defer cancel()
	slog.Info("Shutting down")
	err := srv.Shutdown(shutdownCtx)
	if err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	return nil
}

func (server *Server) pageLimits() common.PageLimits {
	return common.PageLimits{
		MinPageSize: server.Config.Server.MinPageSize,
		MaxPageSize: server.Config.Server.MaxPageSize,
	}
}
