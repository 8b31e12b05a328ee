package web

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"question-bank-service/internal/usecase"
)

type Server struct {
	genUC     usecase.GenerationUseCase
	historyUC usecase.HistoryUseCase
	auth      *AuthManager
	adminKey  string
	basePath  string
	timeout   time.Duration
	log       *zerolog.Logger
}

func NewServer(
	genUC usecase.GenerationUseCase,
	historyUC usecase.HistoryUseCase,
	auth *AuthManager,
	adminKey string,
	basePath string,
	timeout time.Duration,
	logger *zerolog.Logger,
) *Server {
	if basePath == "" {
		basePath = "/questionBankService"
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Server{
		genUC:     genUC,
		historyUC: historyUC,
		auth:      auth,
		adminKey:  adminKey,
		basePath:  basePath,
		timeout:   timeout,
		log:       logger,
	}
}

// Router assembles the public API, the admin API and the operational routes.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(TraceID(), Recover(s.log), Timeout(s.timeout), RequestLog(s.log))

	r.Get("/health", s.healthHandler())
	r.Handle("/metrics", promhttp.Handler())

	r.Route(s.basePath, func(r chi.Router) {
		r.Post("/generate", s.generateHandler())
		r.Get("/status/{sessionID}", s.statusHandler())
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/login", s.loginHandler())

		r.Group(func(r chi.Router) {
			r.Use(s.requireAdmin)
			r.Post("/logout", s.logoutHandler())
			r.Get("/history", s.historyListHandler())
			r.Get("/history/{sessionID}", s.historyGetHandler())
			r.Get("/models", s.modelsHandler())
			r.Get("/stats", s.statsHandler())
		})
	})

	return r
}

// requireAdmin guards the admin API with the session JWT minted by login.
func (s *Server) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, err := s.auth.ParseFromRequest(r); err != nil {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}
