package web

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"question-bank-service/internal/domain"
	"question-bank-service/internal/domain/model"
	"question-bank-service/internal/infra/logging"
)

// generateRequest mirrors the wire names callers already send.
type generateRequest struct {
	SessionID              string         `json:"session_id"`
	ContentID              string         `json:"contentId"`
	ChapterName            string         `json:"chapter_name"`
	LearningObjectives     []string       `json:"learning_objectives"`
	Model                  string         `json:"model"`
	TotalQuestions         int            `json:"total_questions"`
	TypeDistribution       map[string]int `json:"question_type_distribution"`
	DifficultyDistribution map[string]int `json:"difficulty_distribution"`
	BloomsDistribution     map[string]int `json:"blooms_taxonomy_distribution"`
}

type statusResponse struct {
	SessionID          string           `json:"session_id"`
	Status             model.JobStatus  `json:"status"`
	CreatedAt          time.Time        `json:"created_at"`
	CompletedAt        *time.Time       `json:"completed_at,omitempty"`
	TotalQuestions     int              `json:"total_questions"`
	QuestionsGenerated int              `json:"questions_generated"`
	Questions          []model.Question `json:"questions,omitempty"`
	Message            string           `json:"message,omitempty"`
}

func (s *Server) healthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

func (s *Server) generateHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req generateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}

		params := model.GenerationParams{
			ContentID:              req.ContentID,
			ChapterName:            req.ChapterName,
			LearningObjectives:     req.LearningObjectives,
			Model:                  req.Model,
			TotalQuestions:         req.TotalQuestions,
			TypeDistribution:       req.TypeDistribution,
			DifficultyDistribution: req.DifficultyDistribution,
			BloomsDistribution:     req.BloomsDistribution,
		}

		ctx := logging.WithSourceID(r.Context(), sourceID(r))
		job, err := s.genUC.Submit(ctx, req.SessionID, sourceID(r), params)
		if err != nil {
			switch {
			case errors.Is(err, domain.ErrInvalidArgument):
				http.Error(w, "Invalid generation parameters", http.StatusBadRequest)
			case errors.Is(err, domain.ErrAlreadyExists):
				http.Error(w, "Session already exists", http.StatusConflict)
			case errors.Is(err, domain.ErrRateLimited):
				http.Error(w, "Too many requests", http.StatusTooManyRequests)
			default:
				s.log.Error().Err(err).Msg("generate submit failed")
				http.Error(w, "Failed to submit generation", http.StatusInternalServerError)
			}
			return
		}

		writeJSON(w, http.StatusAccepted, map[string]any{
			"session_id": job.SessionID,
			"status":     job.Status,
		})
	}
}

func (s *Server) statusHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID := chi.URLParam(r, "sessionID")

		ctx := logging.WithSessionID(r.Context(), sessionID)
		job, err := s.genUC.Status(ctx, sessionID)
		if err != nil {
			switch {
			case errors.Is(err, domain.ErrInvalidArgument):
				http.Error(w, "Session ID is required", http.StatusBadRequest)
			case errors.Is(err, domain.ErrNotFound):
				http.Error(w, "Session not found", http.StatusNotFound)
			default:
				s.log.Error().Err(err).Str("session_id", sessionID).Msg("status lookup failed")
				http.Error(w, "Failed to get status", http.StatusInternalServerError)
			}
			return
		}

		resp := statusResponse{
			SessionID:      job.SessionID,
			Status:         job.Status,
			CreatedAt:      job.CreatedAt,
			CompletedAt:    job.CompletedAt,
			TotalQuestions: job.Params.TotalQuestions,
			Message:        job.LastError,
		}
		if job.Result != nil {
			resp.QuestionsGenerated = job.Result.Count()
			resp.Questions = job.Result.Questions
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

// loginHandler exchanges the shared admin key for a short-lived session JWT.
func (s *Server) loginHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.adminKey == "" {
			s.log.Error().Msg("admin api key is not configured")
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}
		key := bearerToken(r)
		if key == "" || subtle.ConstantTimeCompare([]byte(key), []byte(s.adminKey)) != 1 {
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}
		token, err := s.auth.Mint(w)
		if err != nil {
			http.Error(w, "Failed to mint session", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"token": token})
	}
}

func (s *Server) logoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.auth.Clear(w)
		w.WriteHeader(http.StatusNoContent)
	}
}

func (s *Server) historyListHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, _ := strconv.Atoi(r.URL.Query().Get("page"))
		pageSize, _ := strconv.Atoi(r.URL.Query().Get("page_size"))

		records, total, err := s.historyUC.List(r.Context(), page, pageSize)
		if err != nil {
			http.Error(w, "Failed to list history", http.StatusInternalServerError)
			return
		}

		response := struct {
			Data  []*model.HistoryRecord `json:"data"`
			Total int                    `json:"total"`
		}{
			Data:  records,
			Total: total,
		}
		writeJSON(w, http.StatusOK, response)
	}
}

func (s *Server) historyGetHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID := chi.URLParam(r, "sessionID")

		rec, err := s.historyUC.Get(r.Context(), sessionID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				http.NotFound(w, r)
				return
			}
			http.Error(w, "Failed to get history record", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, rec)
	}
}

func (s *Server) modelsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		models, err := s.genUC.ListModels(r.Context())
		if err != nil {
			http.Error(w, "Failed to list models", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, struct {
			Data []string `json:"data"`
		}{Data: models})
	}
}

func (s *Server) statsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		byStatus, err := s.genUC.Stats(r.Context())
		if err != nil {
			http.Error(w, "Failed to get stats", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, struct {
			JobsByStatus map[string]int `json:"jobs_by_status"`
		}{JobsByStatus: byStatus})
	}
}

// sourceID identifies the calling system for rate limiting. The header wins;
// otherwise fall back to the client address.
func sourceID(r *http.Request) string {
	if v := strings.TrimSpace(r.Header.Get("X-Source-ID")); v != "" {
		return v
	}
	host := r.RemoteAddr
	if i := strings.LastIndex(host, ":"); i > 0 {
		host = host[:i]
	}
	return host
}

func bearerToken(r *http.Request) string {
	hdr := r.Header.Get("Authorization")
	if len(hdr) > 7 && strings.EqualFold(hdr[:7], "bearer ") {
		return strings.TrimSpace(hdr[7:])
	}
	return ""
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
