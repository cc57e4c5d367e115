package server

import (
	"context"
	"net/http"
	"os"

	"todo-service/auth"
	cachepackage "todo-service/cache"
	"todo-service/config"
	"todo-service/database"
	"todo-service/handlers"
	"todo-service/manager"
	"todo-service/store"

	"github.com/umakantv/go-utils/httpserver"
	"github.com/umakantv/go-utils/logger"
	"go.uber.org/zap"
)

// registerRoutes registers every route on server. Protected routes are
// registered without library auth and wrapped in handlers.RequireBearer so a
// rejected token still gets the JSON envelope.
func registerRoutes(server *httpserver.Server, serviceName string, authService *auth.Service, resources handlers.ResourceManager) {
	authHandler := handlers.NewAuthHandler(authService)
	todoHandler := handlers.NewTodoHandler(resources)

	server.Register(httpserver.Route{
		Name:     "HealthCheck",
		Method:   "GET",
		Path:     "/health",
		AuthType: "none",
	}, httpserver.HandlerFunc(func(ctx context.Context, w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status": "healthy", "service": "` + serviceName + `"}`))
	}))

	public := []struct {
		route   httpserver.Route
		handler httpserver.HandlerFunc
	}{
		{httpserver.Route{Name: "Register", Method: "POST", Path: "/auth/register"}, authHandler.Register},
		{httpserver.Route{Name: "Login", Method: "POST", Path: "/auth/login"}, authHandler.Login},
	}

	protected := []struct {
		route   httpserver.Route
		handler httpserver.HandlerFunc
	}{
		{httpserver.Route{Name: "ListTodos", Method: "GET", Path: "/todos"}, todoHandler.GetTodos},
		{httpserver.Route{Name: "CreateTodo", Method: "POST", Path: "/todos"}, todoHandler.CreateTodo},
		{httpserver.Route{Name: "GetTodo", Method: "GET", Path: "/todos/{id}"}, todoHandler.GetTodo},
		{httpserver.Route{Name: "UpdateTodo", Method: "PUT", Path: "/todos/{id}"}, todoHandler.UpdateTodo},
		{httpserver.Route{Name: "DeleteTodo", Method: "DELETE", Path: "/todos/{id}"}, todoHandler.DeleteTodo},
		{httpserver.Route{Name: "ListTasks", Method: "GET", Path: "/todos/{id}/task"}, todoHandler.GetTasks},
		{httpserver.Route{Name: "CreateTask", Method: "POST", Path: "/todos/{id}/task"}, todoHandler.CreateTask},
		{httpserver.Route{Name: "GetTask", Method: "GET", Path: "/todos/{id}/task/{childId}"}, todoHandler.GetTask},
		{httpserver.Route{Name: "UpdateTask", Method: "PUT", Path: "/todos/{id}/task/{childId}"}, todoHandler.UpdateTask},
		{httpserver.Route{Name: "DeleteTask", Method: "DELETE", Path: "/todos/{id}/task/{childId}"}, todoHandler.DeleteTask},
	}

	for _, r := range public {
		r.route.AuthType = "none"
		server.Register(r.route, r.handler)
	}
	for _, r := range protected {
		r.route.AuthType = "none"
		server.Register(r.route, handlers.RequireBearer(authService, r.handler))
	}
}

func StartServer() {
	// Initialize logger
	logger.Init(logger.LoggerConfig{
		CallerKey:  "file",
		TimeKey:    "timestamp",
		CallerSkip: 1,
	})

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("Failed to load config", zap.Error(err))
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		logger.Error("Invalid configuration", zap.Error(err))
		os.Exit(1)
	}

	logger.Info("Starting Todo Service...", zap.String("env", cfg.App.Env))

	// Initialize database
	dbConn := database.InitializeDatabase(cfg.Database)
	defer dbConn.Close()

	// Initialize cache, CACHE_TYPE=none runs without one
	var cacheStore *cachepackage.Store
	if cfg.Cache.Type != "none" {
		cache := cachepackage.InitializeCache(cfg.Cache)
		defer cache.Close()
		cacheStore = cachepackage.NewStore(cache)
	}

	users := store.NewUserStore(dbConn, cfg.Auth.BcryptCost)
	tokens := auth.NewTokenIssuer(cfg.JWT.Secret, cfg.JWT.Issuer, cfg.JWT.TTL)
	authService := auth.NewService(users, tokens, cacheStore)
	resources := manager.New(store.NewTodoStore(dbConn), store.NewTaskStore(dbConn), cacheStore)

	// Bearer auth runs in handlers.RequireBearer, the library auth callback is unused
	server := httpserver.New(cfg.App.Port, nil)
	registerRoutes(server, cfg.App.Name, authService, resources)

	logger.Info("Todo Service started on port " + cfg.App.Port)
	logger.Info("Health check: GET /health")
	logger.Info("API endpoints: POST /auth/register, POST /auth/login, GET/POST/PUT/DELETE /todos, /todos/{id}/task")

	// Start server
	if err := server.Start(); err != nil {
		logger.Error("Server failed to start", zap.Error(err))
		os.Exit(1)
	}
}
