package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	contractx "github.com/tanpawarit/Aria-Voice-Assistant/assistant/contract"
)

// ChatService answers one utterance for one verified user.
type ChatService interface {
	HandleChat(ctx context.Context, userID, message string) (contractx.ChatResult, error)
}

// SnapshotStore serves the read-only dashboard view of a user's documents.
type SnapshotStore interface {
	Snapshot(ctx context.Context, userID string) (contractx.UserData, error)
}

// TokenVerifier resolves a raw ID token to an opaque user id.
type TokenVerifier interface {
	Verify(raw string) (string, error)
}

// Deps are the server's collaborators. All three are required; a nil
// AllowedOrigins list allows every origin, matching the browser front
// end's default deployment.
type Deps struct {
	Chat           ChatService
	Store          SnapshotStore
	Verifier       TokenVerifier
	AllowedOrigins []string
}

type Server struct {
	chat           ChatService
	store          SnapshotStore
	verifier       TokenVerifier
	allowedOrigins []string
}

func New(deps Deps) (*Server, error) {
	if deps.Chat == nil {
		return nil, fmt.Errorf("%w: chat service is required", contractx.ErrValidation)
	}
	if deps.Store == nil {
		return nil, fmt.Errorf("%w: snapshot store is required", contractx.ErrValidation)
	}
	if deps.Verifier == nil {
		return nil, fmt.Errorf("%w: token verifier is required", contractx.ErrValidation)
	}

	origins := deps.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	return &Server{
		chat:           deps.Chat,
		store:          deps.Store,
		verifier:       deps.Verifier,
		allowedOrigins: origins,
	}, nil
}

// Router assembles the handler tree behind the shared middleware stack.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(requestLogger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Heartbeat("/health"))
	r.Use(corsHeaders(s.allowedOrigins))

	r.Post("/chat", s.handleChat)

	r.Group(func(r chi.Router) {
		r.Use(s.requireAuth)
		r.Get("/user-data", s.handleUserData)
	})

	return r
}

type chatRequest struct {
	Message string `json:"message"`
	IDToken string `json:"idToken"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	// The token rides in the request body on this route, so verification is
	// inline rather than through requireAuth.
	userID, err := s.verifier.Verify(req.IDToken)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "invalid or missing token")
		return
	}

	result, err := s.chat.HandleChat(r.Context(), userID, req.Message)
	if err != nil {
		if errors.Is(err, contractx.ErrEmptyInput) {
			writeError(w, http.StatusBadRequest, "message is required")
			return
		}
		log.Error().Err(err).Str("user_id", userID).Msg("chat request failed")
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleUserData(w http.ResponseWriter, r *http.Request) {
	userID := userIDFromContext(r.Context())
	if userID == "" {
		writeError(w, http.StatusUnauthorized, "invalid or missing token")
		return
	}

	data, err := s.store.Snapshot(r.Context(), userID)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("user data snapshot failed")
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusOK, data)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("encode response failed")
	}
}

// writeError keeps response bodies generic; collaborator error text never
// reaches the client.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
