package server

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/Next-Gen-Coders/limitless-server/pkg/ai"
	"github.com/Next-Gen-Coders/limitless-server/pkg/ai/tools"
	"github.com/Next-Gen-Coders/limitless-server/pkg/auth"
	chatshttp "github.com/Next-Gen-Coders/limitless-server/pkg/chats/http"
	chatsservice "github.com/Next-Gen-Coders/limitless-server/pkg/chats/service"
	"github.com/Next-Gen-Coders/limitless-server/pkg/config"
	"github.com/Next-Gen-Coders/limitless-server/pkg/db"
	"github.com/Next-Gen-Coders/limitless-server/pkg/http/response"
	"github.com/Next-Gen-Coders/limitless-server/pkg/logger"
	"github.com/Next-Gen-Coders/limitless-server/pkg/metrics"
	swapshttp "github.com/Next-Gen-Coders/limitless-server/pkg/swaps/http"
	swapsservice "github.com/Next-Gen-Coders/limitless-server/pkg/swaps/service"
	usershttp "github.com/Next-Gen-Coders/limitless-server/pkg/users/http"
	usersservice "github.com/Next-Gen-Coders/limitless-server/pkg/users/service"
)

// Server is the assembled HTTP application.
type Server struct {
	cfg    *config.Config
	logger *logger.Logger
	http   *http.Server
}

// New wires every service onto a chi router and returns the server.
func New(cfg *config.Config, database *sql.DB, log *logger.Logger) *Server {
	queries := db.New(database)
	m := metrics.New()

	// AI stack.
	registry := ai.NewRegistry(log)
	registry.RegisterAll(tools.All(tools.NewClient(cfg.OneInchAPIKey, cfg.OneInchBaseURL)))
	registry.OnExecute(m.ObserveToolExecution)

	provider := ai.NewOpenAIProvider(cfg.OpenAIAPIKey, cfg.OpenAIModel, log)
	memory := ai.NewMemory(queries, log)
	generator := ai.NewGenerator(provider, registry, memory, log,
		ai.WithMaxIterations(cfg.AIMaxIterations),
		ai.WithHistoryWindow(cfg.AIHistoryWindow),
		ai.WithUserResolver(ai.NewStoreUserResolver(queries)),
		ai.WithGenerationObserver(m.ObserveGeneration),
	)

	// Services.
	userSvc := usersservice.NewUserService(queries, log)
	chatSvc := chatsservice.NewChatService(queries, generator, log)
	swapSvc := swapsservice.NewFusionService(cfg.OneInchAPIKey, cfg.OneInchBaseURL, queries, log,
		swapsservice.WithQuotesOnly(!cfg.SwapExecutionEnabled()),
		swapsservice.WithMonitorObserver(m.ObserveSwapMonitor),
	)

	// Auth.
	privy := auth.NewPrivyClient(cfg.PrivyAppID, cfg.PrivyAppSecret)
	authMiddleware := auth.NewMiddleware(privy, queries, log)

	router := chi.NewRouter()
	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(chimiddleware.Recoverer)
	router.Use(chimiddleware.Timeout(time.Duration(cfg.AIRequestTimeout) * time.Second))
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{cfg.FrontendURL},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	router.Use(m.Middleware)

	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		response.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	router.Method(http.MethodGet, "/metrics", m.Handler())

	userHandler := usershttp.NewHandler(userSvc, log)
	chatHandler := chatshttp.NewHandler(chatSvc, log)
	swapHandler := swapshttp.NewHandler(swapSvc, log)

	router.Route("/user", func(r chi.Router) {
		r.Use(authMiddleware.Authenticate)
		userHandler.RegisterRoutes(r)
		chatHandler.RegisterRoutes(r)
	})
	router.Route("/swap", func(r chi.Router) {
		r.Use(authMiddleware.Authenticate)
		swapHandler.RegisterRoutes(r)
	})

	return &Server{
		cfg:    cfg,
		logger: log,
		http: &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.Port),
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server listening", "addr", s.http.Addr,
			"swap_execution", s.cfg.SwapExecutionEnabled())
		if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	s.logger.Info("shutting down")
	return s.http.Shutdown(shutdownCtx)
}
