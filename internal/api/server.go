// Package api exposes predictions, dataset analytics and prediction history
// over HTTP/JSON, plus a WebSocket stream that answers each inbound attribute
// object with a prediction.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"diabetes-risk/internal/analytics"
	"diabetes-risk/internal/dataset"
	"diabetes-risk/internal/loadonce"
	"diabetes-risk/internal/metrics"
	"diabetes-risk/internal/ml"
	"diabetes-risk/internal/preprocess"
	"diabetes-risk/internal/storage"
)

const (
	maxBodyBytes   = 1 << 20
	defaultHistory = 24 * time.Hour
)

// History is the read side of the prediction store.
type History interface {
	GetPredictions(start, end time.Time) ([]storage.PredictionRecord, error)
}

// Metrics receives per-request and stream counters.
type Metrics interface {
	Request(route string, code int) metrics.MetricsCounter
	WSConnections() metrics.MetricsGauge
	FailureRate() float64
}

type stater interface {
	State() loadonce.State
}

// Server serves the risk API. History and Metrics are optional.
type Server struct {
	predictor ml.PredictorInterface
	cache     *dataset.Cache
	engine    *analytics.Engine
	history   History
	metrics   Metrics

	router    *mux.Router
	server    *http.Server
	upgrader  websocket.Upgrader
	clients   map[*websocket.Conn]bool
	clientsMu sync.Mutex
	isRunning bool
	mu        sync.Mutex
}

func New(port int, predictor ml.PredictorInterface, cache *dataset.Cache, history History, m Metrics) *Server {
	s := &Server{
		predictor: predictor,
		cache:     cache,
		engine:    analytics.NewEngine(cache),
		history:   history,
		metrics:   m,
		upgrader:  websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }},
		clients:   make(map[*websocket.Conn]bool),
	}

	r := mux.NewRouter()
	r.Use(s.countRequests)
	r.HandleFunc("/health", s.handleHealth).Methods("GET")
	r.HandleFunc("/api/predict", s.handlePredict).Methods("POST")
	r.HandleFunc("/api/model", s.handleModel).Methods("GET")
	r.HandleFunc("/api/predictions", s.handlePredictions).Methods("GET")
	r.HandleFunc("/api/dataset/load", s.handleDatasetLoad).Methods("POST")
	r.HandleFunc("/api/metadata", serve(s.engine.Metadata)).Methods("GET")

	a := r.PathPrefix("/api/analytics").Subrouter()
	a.HandleFunc("/report", serve(s.engine.Report)).Methods("GET")
	a.HandleFunc("/imbalance", serve(s.engine.ClassImbalance)).Methods("GET")
	a.HandleFunc("/correlations", serve(s.engine.KeyCorrelations)).Methods("GET")
	a.HandleFunc("/correlation", s.handleCorrelation).Methods("GET")
	a.HandleFunc("/age-binned", serve(s.engine.AgeBinnedRisk)).Methods("GET")
	a.HandleFunc("/activity", serve(s.engine.PhysActivityImpact)).Methods("GET")
	a.HandleFunc("/risk-factors", serve(s.engine.RiskFactorProfile)).Methods("GET")
	a.HandleFunc("/mosaic", serve(s.engine.AgeSmokingMosaic)).Methods("GET")
	a.HandleFunc("/smoking", serve(s.engine.SmokingRisk)).Methods("GET")
	a.HandleFunc("/summary", serve(s.engine.Summary)).Methods("GET")

	r.HandleFunc("/ws/predict", s.handleWebSocket).Methods("GET")
	s.router = r

	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

// Handler returns the router, for embedding or tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves in the background.
func (s *Server) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return fmt.Errorf("api server is already running")
	}

	go func() {
		log.Info().Str("address", s.server.Addr).Msg("Starting API server")
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("API server failed")
		}
	}()

	s.isRunning = true
	return nil
}

// Stop closes open streams and shuts the server down within ctx.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return nil
	}

	s.clientsMu.Lock()
	for client := range s.clients {
		client.Close()
	}
	s.clients = make(map[*websocket.Conn]bool)
	s.clientsMu.Unlock()

	if err := s.server.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Failed to shutdown API server")
		return err
	}

	s.isRunning = false
	log.Info().Msg("API server stopped")
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	body := map[string]any{
		"status":        "ok",
		"dataset_state": s.cache.State().String(),
	}
	if st, ok := s.predictor.(stater); ok {
		body["model_state"] = st.State().String()
	}
	if s.metrics != nil {
		body["prediction_failure_rate"] = s.metrics.FailureRate()
	}
	writeJSON(w, http.StatusOK, body)
}

func (s *Server) handlePredict(w http.ResponseWriter, r *http.Request) {
	var raw map[string]any
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&raw); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid JSON body: " + err.Error()})
		return
	}

	res, err := s.predictor.Predict(r.Context(), raw)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleModel(w http.ResponseWriter, r *http.Request) {
	info, err := s.predictor.Info(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

// handleDatasetLoad starts the dataset load, or retries it after a failure.
func (s *Server) handleDatasetLoad(w http.ResponseWriter, r *http.Request) {
	if err := s.cache.Load(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	md, err := s.cache.Metadata()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, md)
}

func (s *Server) handleCorrelation(w http.ResponseWriter, r *http.Request) {
	a, b := r.URL.Query().Get("a"), r.URL.Query().Get("b")
	if a == "" || b == "" {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "query parameters a and b are required"})
		return
	}
	v, err := s.engine.Correlation(a, b)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"a": a, "b": b, "value": v})
}

// handlePredictions lists stored predictions between since and until
// (RFC 3339), defaulting to the last 24 hours.
func (s *Server) handlePredictions(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorBody{Error: "prediction history is disabled"})
		return
	}

	until := time.Now().UTC()
	since := until.Add(-defaultHistory)
	q := r.URL.Query()
	for name, dst := range map[string]*time.Time{"since": &since, "until": &until} {
		if v := q.Get(name); v != "" {
			t, err := time.Parse(time.RFC3339, v)
			if err != nil {
				writeJSON(w, http.StatusBadRequest, errorBody{Error: fmt.Sprintf("invalid %s: %v", name, err)})
				return
			}
			*dst = t
		}
	}

	if since.After(until) {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "since must not be after until"})
		return
	}

	records, err := s.history.GetPredictions(since, until)
	if err != nil {
		writeError(w, err)
		return
	}
	if records == nil {
		records = []storage.PredictionRecord{}
	}
	writeJSON(w, http.StatusOK, records)
}

type wsReply struct {
	Result *ml.Result `json:"result,omitempty"`
	Error  string     `json:"error,omitempty"`
}

// handleWebSocket answers every inbound JSON object with one prediction.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("Failed to upgrade WebSocket connection")
		return
	}
	defer conn.Close()

	s.clientsMu.Lock()
	s.clients[conn] = true
	s.clientsMu.Unlock()
	if s.metrics != nil {
		s.metrics.WSConnections().Inc()
		defer s.metrics.WSConnections().Dec()
	}

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			break
		}

		var reply wsReply
		var raw map[string]any
		if err := json.Unmarshal(data, &raw); err != nil {
			reply.Error = "invalid JSON message: " + err.Error()
		} else if res, err := s.predictor.Predict(r.Context(), raw); err != nil {
			reply.Error = err.Error()
		} else {
			reply.Result = res
		}

		if err := conn.WriteJSON(reply); err != nil {
			log.Warn().Err(err).Msg("Failed to write prediction to WebSocket client")
			break
		}
	}

	s.clientsMu.Lock()
	delete(s.clients, conn)
	s.clientsMu.Unlock()
}

// serve adapts an analytics accessor into a JSON handler.
func serve[T any](f func() (T, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		v, err := f()
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, v)
	}
}

type errorBody struct {
	Error string `json:"error"`
}

// statusFor maps domain errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, preprocess.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, ml.ErrModelLoad),
		errors.Is(err, dataset.ErrDatasetLoad),
		errors.Is(err, dataset.ErrDataNotLoaded):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func writeError(w http.ResponseWriter, err error) {
	code := statusFor(err)
	if code == http.StatusInternalServerError {
		log.Error().Err(err).Msg("Request failed")
	}
	writeJSON(w, code, errorBody{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warn().Err(err).Msg("Failed to encode response")
	}
}
