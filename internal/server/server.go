package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/julienschmidt/httprouter"

	"buyerdispatch/internal/database"
	"buyerdispatch/internal/middleware"
	dispatchmodule "buyerdispatch/internal/modules/dispatch"
	"buyerdispatch/pkg/events"
	"buyerdispatch/pkg/registry"
	"buyerdispatch/pkg/workflow"
)

type Server struct {
	port int

	db                  database.Service
	registry            *registry.Registry
	eventBus            *events.Bus
	stateMachineFactory *workflow.StateMachineFactory
	logger              *slog.Logger
}

func NewServer() *http.Server {
	port, _ := strconv.Atoi(os.Getenv("PORT"))
	if port == 0 {
		port = 8080
	}

	logger := slog.Default()

	dbService := database.New()

	eventBus := events.NewBus(false) // synchronous event processing

	stateMachineFactory := workflow.NewStateMachineFactory()
	if err := stateMachineFactory.LoadFromDirectory("config/workflows"); err != nil {
		logger.Warn("failed to load workflow configurations, continuing without them", "error", err)
	}

	repoRegistry := registry.NewRegistry(registry.Dependencies{
		DB:                  dbService.GetDB(),
		EventBus:            eventBus,
		StateMachineFactory: stateMachineFactory,
		Logger:              logger,
	})

	repoRegistry.Register(dispatchmodule.NewModule())

	if err := repoRegistry.InitAll(context.Background()); err != nil {
		logger.Error("failed to initialize modules", "error", err)
		os.Exit(1)
	}

	repoRegistry.RegisterAllEventHandlers(eventBus)
	logger.Info("event handlers registered for all modules")

	srv := &Server{
		port:                port,
		db:                  dbService,
		registry:            repoRegistry,
		eventBus:            eventBus,
		stateMachineFactory: stateMachineFactory,
		logger:              logger,
	}

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", srv.port),
		Handler:      srv.RegisterRoutes(),
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	return server
}

// RegisterRoutes builds the httprouter, lets every module attach its
// handlers, wraps the result with staff-identity authentication, and adds
// the unauthenticated health check the middleware itself special-cases.
func (s *Server) RegisterRoutes() http.Handler {
	router := httprouter.New()
	router.GET("/health", s.healthCheck)

	s.registry.RegisterAllRoutes(router)

	return middleware.StaffAuth(router)
}

func (s *Server) healthCheck(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	health := s.db.Health()
	status := http.StatusOK
	if health["status"] != "up" {
		status = http.StatusServiceUnavailable
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	fmt.Fprintf(w, `{"status":%q}`, health["status"])
}
