package handlers

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"inkwell/internal/config"
	"inkwell/internal/database"
	"inkwell/internal/engine"
	"inkwell/internal/media"
	"inkwell/internal/middleware"
	"inkwell/internal/utils"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/google/uuid"
)

// Server holds all server dependencies, including the actor system and engine
type Server struct {
	System         *actor.ActorSystem
	Context        *actor.RootContext
	Engine         *engine.Engine
	Store          database.Store
	Auth           *middleware.Authenticator
	Tokens         *middleware.TokenManager
	Media          *media.Client
	Metrics        *utils.MetricsCollector
	Config         *config.Config
	RequestTimeout time.Duration

	// GoogleTokenURL is the tokeninfo endpoint used to verify Google ID
	// tokens. Tests point it at a local server.
	GoogleTokenURL string
}

// NewServer creates a new Server instance with the given components
func NewServer(
	system *actor.ActorSystem,
	eng *engine.Engine,
	store database.Store,
	auth *middleware.Authenticator,
	tokens *middleware.TokenManager,
	mediaClient *media.Client,
	metrics *utils.MetricsCollector,
	cfg *config.Config,
) *Server {
	return &Server{
		System:         system,
		Context:        system.Root,
		Engine:         eng,
		Store:          store,
		Auth:           auth,
		Tokens:         tokens,
		Media:          mediaClient,
		Metrics:        metrics,
		Config:         cfg,
		RequestTimeout: 5 * time.Second, // Default timeout for actor requests
		GoogleTokenURL: "https://oauth2.googleapis.com/tokeninfo",
	}
}

// ask sends a message to an actor and waits for the reply, translating a
// timeout into an AppError.
func (s *Server) ask(pid *actor.PID, msg interface{}) (interface{}, error) {
	future := s.Context.RequestFuture(pid, msg, s.RequestTimeout)
	result, err := future.Result()
	if err != nil {
		log.Printf("Actor request %T failed: %v", msg, err)
		return nil, utils.NewActorTimeoutError("engine")
	}
	return result, nil
}

// respondJSON writes a JSON response with the given status code.
func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("Error encoding response: %v", err)
	}
}

// errorBody is the JSON shape of every error response.
type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// respondError maps an error to its HTTP status. Internal detail stays in
// the log; clients only see the AppError message.
func respondError(w http.ResponseWriter, err error) {
	if appErr, ok := err.(*utils.AppError); ok {
		status := utils.AppErrorToHTTPStatus(appErr.Code)
		if status >= 500 {
			log.Printf("Internal error (%s): %v", appErr.Code, appErr)
		}
		respondJSON(w, status, errorBody{Error: appErr.Message, Code: appErr.Code})
		return
	}

	log.Printf("Unhandled error: %v", err)
	respondJSON(w, http.StatusInternalServerError, errorBody{Error: "Internal server error"})
}

// respondResult forwards an actor reply: AppError replies become error
// responses, anything else is serialized with the given status.
func respondResult(w http.ResponseWriter, status int, result interface{}) {
	if appErr, ok := result.(*utils.AppError); ok {
		respondError(w, appErr)
		return
	}
	respondJSON(w, status, result)
}

// pathUUID parses a UUID path segment.
func pathUUID(r *http.Request, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(r.PathValue(name))
	if err != nil {
		return uuid.Nil, utils.NewValidationError(name, "must be a valid UUID")
	}
	return id, nil
}

// decodeJSON decodes a request body into dst.
func decodeJSON(r *http.Request, dst interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return utils.NewAppError(utils.ErrInvalidInput, "Invalid request body", err)
	}
	return nil
}

// HealthResponse is the /health payload.
type HealthResponse struct {
	Status   string `json:"status"`
	Uptime   string `json:"uptime"`
	Database string `json:"database"`
	Requests uint64 `json:"requests,omitempty"`
	Errors   uint64 `json:"errors,omitempty"`
}

// HandleHealth reports process liveness plus a store ping.
func (s *Server) HandleHealth() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		health := HealthResponse{
			Status:   "ok",
			Uptime:   s.Metrics.Uptime().Round(time.Second).String(),
			Database: "ok",
		}
		if s.Config.Server.MetricsEnabled {
			health.Requests, health.Errors = s.Metrics.RequestCounts()
		}

		if err := s.Store.Ping(r.Context()); err != nil {
			log.Printf("Health check: store ping failed: %v", err)
			health.Status = "degraded"
			health.Database = "unreachable"
			respondJSON(w, http.StatusServiceUnavailable, health)
			return
		}

		respondJSON(w, http.StatusOK, health)
	}
}
