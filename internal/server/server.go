package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/it-worker-club/study-agent/internal/agent/driver"
	"github.com/it-worker-club/study-agent/internal/agent/graph/consistency"
	"github.com/it-worker-club/study-agent/internal/agent/model"
	errx "github.com/it-worker-club/study-agent/internal/core/error"
	logx "github.com/it-worker-club/study-agent/pkg/logger"
)

// maxBodyBytes caps request bodies.
const maxBodyBytes = 64 << 10

// Conversations is the driver surface exposed over HTTP.
type Conversations interface {
	Start(ctx context.Context, profile model.UserProfile) (*model.ConversationState, error)
	Get(ctx context.Context, conversationID string) (*model.ConversationState, error)
	Delete(ctx context.Context, conversationID string) error
	List(ctx context.Context) ([]string, error)
	Send(ctx context.Context, conversationID, text string) (*driver.TurnResult, error)
	Restart(ctx context.Context, conversationID string) (*model.ConversationState, error)
	Health(ctx context.Context, conversationID string) (consistency.HealthReport, error)
}

// Server holds the handlers of the conversation API.
type Server struct {
	Conversations Conversations
}

type startRequest struct {
	Profile model.UserProfile `json:"profile"`
	// Message optionally opens the conversation with a first turn.
	Message string `json:"message"`
}

type messageRequest struct {
	Message string `json:"message"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// NewHandler routes the conversation API. metrics may be nil.
func NewHandler(conversations Conversations, metrics http.Handler) http.Handler {
	s := &Server{Conversations: conversations}
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if metrics != nil {
		r.Method(http.MethodGet, "/metrics", metrics)
	}

	r.Route("/conversations", func(r chi.Router) {
		r.Get("/", s.List)
		r.Post("/", s.Start)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.Get)
			r.Delete("/", s.Delete)
			r.Post("/messages", s.Send)
			r.Post("/restart", s.Restart)
			r.Get("/health", s.Health)
		})
	})
	return r
}

// Start handles POST /conversations.
func (s *Server) Start(w http.ResponseWriter, r *http.Request) {
	var body startRequest
	if r.ContentLength != 0 {
		if !decode(w, r, &body) {
			return
		}
	}

	state, err := s.Conversations.Start(r.Context(), body.Profile)
	if err != nil {
		writeError(w, err)
		return
	}
	if body.Message == "" {
		writeJSON(w, http.StatusCreated, state)
		return
	}

	res, err := s.Conversations.Send(r.Context(), state.ConversationID, body.Message)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

// List handles GET /conversations.
func (s *Server) List(w http.ResponseWriter, r *http.Request) {
	ids, err := s.Conversations.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]string{"conversations": ids})
}

// Get handles GET /conversations/{id}.
func (s *Server) Get(w http.ResponseWriter, r *http.Request) {
	state, err := s.Conversations.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

// Delete handles DELETE /conversations/{id}.
func (s *Server) Delete(w http.ResponseWriter, r *http.Request) {
	if err := s.Conversations.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Send handles POST /conversations/{id}/messages.
func (s *Server) Send(w http.ResponseWriter, r *http.Request) {
	var body messageRequest
	if !decode(w, r, &body) {
		return
	}
	res, err := s.Conversations.Send(r.Context(), chi.URLParam(r, "id"), body.Message)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// Restart handles POST /conversations/{id}/restart.
func (s *Server) Restart(w http.ResponseWriter, r *http.Request) {
	state, err := s.Conversations.Restart(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

// Health handles GET /conversations/{id}/health.
func (s *Server) Health(w http.ResponseWriter, r *http.Request) {
	report, err := s.Conversations.Health(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		logx.Warn().Err(err).Str("path", r.URL.Path).Msg("Invalid request body")
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return false
	}
	return true
}

func writeError(w http.ResponseWriter, err error) {
	status := errx.StatusOf(err)
	msg := err.Error()
	var ae *errx.AppError
	if errors.As(err, &ae) && ae.Message != "" {
		msg = ae.Message
	}
	if status >= http.StatusInternalServerError {
		logx.Error().Err(err).Int("status", status).Msg("Request failed")
		if ae == nil {
			msg = errx.SystemErrorMessage
		}
	}
	writeJSON(w, status, errorResponse{Error: msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logx.Error().Err(err).Msg("Response encode failed")
	}
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		logx.Debug().
			Str("request_id", middleware.GetReqID(r.Context())).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("duration", time.Since(start)).
			Msg("Request handled")
	})
}
