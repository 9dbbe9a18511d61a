// Package api serves the vault's read-only HTTP surface: raw state reads,
// recent events, a websocket event stream and prometheus metrics. Routes are
// mounted on the node's API router.
package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"cosmossdk.io/log"
	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/gorilla/mux"

	"github.com/openalpha/fee-vault/api/middleware"
	"github.com/openalpha/fee-vault/api/websocket"
	"github.com/openalpha/fee-vault/metrics"
	"github.com/openalpha/fee-vault/x/feevault/types"
)

// RoutePrefix is where the vault routes live on the node's API router
const RoutePrefix = "/feevault/v1"

const (
	defaultEventLimit = 50
	maxEventLimit     = 500
)

// StoreQuerier reads raw module store records; client.Context satisfies it
type StoreQuerier interface {
	QueryStore(key []byte, storeName string) ([]byte, int64, error)
}

// Config contains API configuration
type Config struct {
	Enabled          bool
	EventBufferSize  int
	RateLimit        float64
	RateLimitBurst   int
	EnableMetrics    bool
	EnableWebsockets bool
}

// DefaultConfig returns default configuration
func DefaultConfig() Config {
	limits := middleware.DefaultRateLimitConfig()
	return Config{
		Enabled:          true,
		EventBufferSize:  1024,
		RateLimit:        limits.RequestsPerSecond,
		RateLimitBurst:   limits.Burst,
		EnableMetrics:    true,
		EnableWebsockets: true,
	}
}

// Server holds the handlers behind the vault routes
type Server struct {
	querier StoreQuerier
	stream  *EventStream
	hub     *websocket.Hub
	limiter *middleware.RateLimiter
	config  Config
	logger  log.Logger
}

// NewServer creates the vault API. stream and hub may be nil when the event
// stream is disabled.
func NewServer(config Config, querier StoreQuerier, stream *EventStream, hub *websocket.Hub, logger log.Logger) *Server {
	return &Server{
		querier: querier,
		stream:  stream,
		hub:     hub,
		limiter: middleware.NewRateLimiter(&middleware.RateLimitConfig{
			RequestsPerSecond: config.RateLimit,
			Burst:             config.RateLimitBurst,
		}),
		config: config,
		logger: logger.With("module", "api"),
	}
}

// RegisterRoutes mounts the vault routes on router
func (s *Server) RegisterRoutes(router *mux.Router) {
	r := router.PathPrefix(RoutePrefix).Subrouter()
	r.Use(middleware.RateLimitMiddleware(s.limiter))

	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/config", s.handleConfig).Methods(http.MethodGet)
	r.HandleFunc("/reserves/{reserve}", s.handleReserve).Methods(http.MethodGet)
	r.HandleFunc("/reserves/{reserve}/positions/{user}", s.handlePosition).Methods(http.MethodGet)
	r.HandleFunc("/events", s.handleEvents).Methods(http.MethodGet)
	if s.hub != nil && s.config.EnableWebsockets {
		r.HandleFunc("/ws", s.hub.ServeWS)
	}
	if s.config.EnableMetrics {
		r.Handle("/metrics", metrics.Handler())
	}
}

// Stop releases the rate limiter
func (s *Server) Stop() {
	s.limiter.Stop()
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	status := map[string]interface{}{
		"status":    "ok",
		"timestamp": time.Now().UnixMilli(),
	}
	if s.hub != nil {
		status["ws_clients"] = s.hub.GetClientCount()
	}
	writeJSON(w, http.StatusOK, status)
}

func (s *Server) handleConfig(w http.ResponseWriter, _ *http.Request) {
	var config types.VaultConfig
	found, err := s.read(types.ConfigKey, &config)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "query_failed", err)
		return
	}
	if !found {
		writeJSON(w, http.StatusNotFound, errorBody("not_initialized", "vault is not initialized"))
		return
	}
	writeJSON(w, http.StatusOK, config)
}

func (s *Server) handleReserve(w http.ResponseWriter, r *http.Request) {
	vault, ok := s.loadReserve(w, mux.Vars(r)["reserve"])
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, vault)
}

func (s *Server) handlePosition(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	user := vars["user"]
	if _, err := sdk.AccAddressFromBech32(user); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid_address", err.Error()))
		return
	}
	vault, ok := s.loadReserve(w, vars["reserve"])
	if !ok {
		return
	}

	position := types.UserPosition{ReserveID: vault.ReserveID, User: user, Shares: math.ZeroInt()}
	if _, err := s.read(types.SharesKey(vault.ReserveID, user), &position); err != nil {
		s.writeError(w, http.StatusInternalServerError, "query_failed", err)
		return
	}
	writeJSON(w, http.StatusOK, types.NewPositionView(vault, user, position.Shares))
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	if s.stream == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorBody("stream_disabled", "event stream is disabled"))
		return
	}
	query := r.URL.Query()
	limit := defaultEventLimit
	if raw := query.Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			writeJSON(w, http.StatusBadRequest, errorBody("invalid_limit", "limit must be a positive integer"))
			return
		}
		limit = parsed
	}
	if limit > maxEventLimit {
		limit = maxEventLimit
	}

	events := s.stream.Recent(EventFilter{
		Type:      query.Get("type"),
		ReserveID: query.Get("reserve"),
		Account:   query.Get("account"),
	}, limit)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"events": events,
		"count":  len(events),
	})
}

func (s *Server) loadReserve(w http.ResponseWriter, reserveID string) (*types.ReserveVault, bool) {
	var vault types.ReserveVault
	found, err := s.read(types.ReserveVaultKey(reserveID), &vault)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "query_failed", err)
		return nil, false
	}
	if !found {
		writeJSON(w, http.StatusNotFound, errorBody("reserve_not_found", "reserve vault not found: "+reserveID))
		return nil, false
	}
	return &vault, true
}

func (s *Server) read(key []byte, out interface{}) (bool, error) {
	bz, _, err := s.querier.QueryStore(key, types.StoreKey)
	if err != nil {
		return false, err
	}
	if len(bz) == 0 {
		return false, nil
	}
	return true, json.Unmarshal(bz, out)
}

func (s *Server) writeError(w http.ResponseWriter, status int, code string, err error) {
	s.logger.Error("api request failed", "code", code, "error", err)
	writeJSON(w, status, errorBody(code, err.Error()))
}

func errorBody(code, message string) map[string]string {
	return map[string]string{"error": code, "message": message}
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
